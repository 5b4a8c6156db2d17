// Package cache holds the currently published snapshot behind a single
// atomic pointer. Readers never block on a refresh in progress; they observe
// either the previously published snapshot or the new one, never a mix.
package cache

import (
	"sync/atomic"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

type repoKey struct {
	project types.ProjectKey
	slug    types.RepoSlug
}

// published pairs a snapshot with lookup maps built once at publish time.
// Both are immutable after construction.
type published struct {
	snapshot *model.Snapshot
	projects map[types.ProjectKey]*model.Project
	repos    map[repoKey]*model.Repository
}

type Cache struct {
	current atomic.Pointer[published]
}

func New() *Cache {
	return &Cache{}
}

// Publish atomically replaces the current snapshot. The superseded snapshot
// is dropped once in-flight readers release it.
func (x *Cache) Publish(snapshot *model.Snapshot) {
	pub := &published{
		snapshot: snapshot,
		projects: make(map[types.ProjectKey]*model.Project, len(snapshot.Projects)),
		repos:    make(map[repoKey]*model.Repository, snapshot.RepositoryCount()),
	}
	for _, proj := range snapshot.Projects {
		pub.projects[proj.Key] = proj
		for _, repo := range proj.Repositories {
			pub.repos[repoKey{project: proj.Key, slug: repo.Slug}] = repo
		}
	}

	x.current.Store(pub)
}

// Current returns the last published snapshot. The second return value is
// false until the first publish (or restore from disk).
func (x *Cache) Current() (*model.Snapshot, bool) {
	pub := x.current.Load()
	if pub == nil {
		return nil, false
	}
	return pub.snapshot, true
}

// Version returns the current snapshot version, or 0 if nothing has been
// published yet.
func (x *Cache) Version() types.SnapshotVersion {
	pub := x.current.Load()
	if pub == nil {
		return 0
	}
	return pub.snapshot.Version
}

func (x *Cache) Project(key types.ProjectKey) (*model.Project, bool) {
	pub := x.current.Load()
	if pub == nil {
		return nil, false
	}
	proj, ok := pub.projects[key]
	return proj, ok
}

func (x *Cache) Repository(key types.ProjectKey, slug types.RepoSlug) (*model.Repository, bool) {
	pub := x.current.Load()
	if pub == nil {
		return nil, false
	}
	repo, ok := pub.repos[repoKey{project: key, slug: slug}]
	return repo, ok
}
