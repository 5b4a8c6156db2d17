package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"
)

// buildSnapshot assembles one complete snapshot from the upstream client.
// It is all-or-nothing: any page failure aborts the whole build and nothing
// is published.
func (x *UseCase) buildSnapshot(ctx context.Context) (*model.Snapshot, error) {
	client := x.clients.Bitbucket()
	if client == nil {
		return nil, goerr.Wrap(types.ErrInvalidOption, "bitbucket client is not configured")
	}

	logger := logging.From(ctx)

	var projects []*model.Project
	var projectPages int
	for page, err := range client.Projects(ctx) {
		if err != nil {
			return nil, goerr.Wrap(types.ErrBuildFailed, "failed to enumerate projects",
				goerr.V("cause", err),
			)
		}
		projectPages++
		projects = append(projects, page.Values...)
	}

	var repoPages int
	for _, proj := range projects {
		for page, err := range client.Repositories(ctx, proj.Key) {
			if err != nil {
				return nil, goerr.Wrap(types.ErrBuildFailed, "failed to enumerate repositories",
					goerr.V("project", proj.Key),
					goerr.V("cause", err),
				)
			}
			repoPages++
			proj.Repositories = append(proj.Repositories, page.Values...)
		}

		sort.Slice(proj.Repositories, func(i, j int) bool {
			return proj.Repositories[i].Slug < proj.Repositories[j].Slug
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Key < projects[j].Key
	})

	snapshot := &model.Snapshot{
		Version:   x.cache.Version() + 1,
		FetchedAt: time.Now().UTC(),
		Projects:  projects,
	}
	if err := snapshot.Validate(); err != nil {
		return nil, goerr.Wrap(types.ErrBuildFailed, "assembled snapshot is inconsistent",
			goerr.V("cause", err),
		)
	}

	logger.Debug("assembled snapshot",
		slog.Any("version", snapshot.Version),
		slog.Int("project_pages", projectPages),
		slog.Int("repo_pages", repoPages),
		slog.Int("projects", snapshot.ProjectCount()),
		slog.Int("repositories", snapshot.RepositoryCount()),
	)

	return snapshot, nil
}
