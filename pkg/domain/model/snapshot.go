package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

// Snapshot is one complete, versioned copy of all project/repository
// metadata fetched from upstream. A snapshot is never mutated after it is
// built; readers always see either a fully old or fully new one.
type Snapshot struct {
	Version   types.SnapshotVersion `json:"version"`
	FetchedAt time.Time             `json:"fetched_at"`
	Projects  []*Project            `json:"projects"`
}

func (x *Snapshot) ProjectCount() int {
	return len(x.Projects)
}

func (x *Snapshot) RepositoryCount() int {
	var n int
	for _, proj := range x.Projects {
		n += len(proj.Repositories)
	}
	return n
}

func (x *Snapshot) Validate() error {
	if x.Version <= 0 {
		return goerr.Wrap(types.ErrValidationFailed, "snapshot version must be positive",
			goerr.V("version", x.Version),
		)
	}
	if x.FetchedAt.IsZero() {
		return goerr.Wrap(types.ErrValidationFailed, "snapshot fetch timestamp is empty")
	}

	seen := make(map[types.ProjectKey]struct{}, len(x.Projects))
	for _, proj := range x.Projects {
		if proj.Key == "" {
			return goerr.Wrap(types.ErrValidationFailed, "project key is empty")
		}
		if _, ok := seen[proj.Key]; ok {
			return goerr.Wrap(types.ErrValidationFailed, "duplicated project key",
				goerr.V("key", proj.Key),
			)
		}
		seen[proj.Key] = struct{}{}

		for _, repo := range proj.Repositories {
			if repo.Slug == "" {
				return goerr.Wrap(types.ErrValidationFailed, "repository slug is empty",
					goerr.V("project", proj.Key),
				)
			}
			if repo.ProjectKey != proj.Key {
				return goerr.Wrap(types.ErrValidationFailed, "repository belongs to another project",
					goerr.V("project", proj.Key),
					goerr.V("repo", repo.Slug),
					goerr.V("repo_project", repo.ProjectKey),
				)
			}
		}
	}

	return nil
}

// CacheRecord is the persisted form of a snapshot plus its identity. Exactly
// one record exists on disk per deployment; writing a new one replaces the
// previous one atomically.
type CacheRecord struct {
	Version  types.SnapshotVersion `json:"version"`
	SavedAt  time.Time             `json:"saved_at"`
	Source   string                `json:"source,omitempty"`
	Snapshot *Snapshot             `json:"snapshot"`
}

func (x *CacheRecord) Validate() error {
	if x.Snapshot == nil {
		return goerr.Wrap(types.ErrValidationFailed, "cache record has no snapshot")
	}
	if err := x.Snapshot.Validate(); err != nil {
		return err
	}
	if x.Version != x.Snapshot.Version {
		return goerr.Wrap(types.ErrValidationFailed, "cache record version mismatch",
			goerr.V("record", x.Version),
			goerr.V("snapshot", x.Snapshot.Version),
		)
	}
	return nil
}
