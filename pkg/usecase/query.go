package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

// Projects returns all projects of the current snapshot. It returns
// types.ErrNoSnapshot until the first publish or restore.
func (x *UseCase) Projects(ctx context.Context) ([]*model.Project, error) {
	snapshot, ok := x.cache.Current()
	if !ok {
		return nil, goerr.Wrap(types.ErrNoSnapshot, "no snapshot has been published yet")
	}
	return snapshot.Projects, nil
}

func (x *UseCase) Project(ctx context.Context, key types.ProjectKey) (*model.Project, error) {
	if _, ok := x.cache.Current(); !ok {
		return nil, goerr.Wrap(types.ErrNoSnapshot, "no snapshot has been published yet")
	}

	proj, ok := x.cache.Project(key)
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "project is not in the current snapshot",
			goerr.V("project", key),
		)
	}
	return proj, nil
}

func (x *UseCase) Repositories(ctx context.Context, key types.ProjectKey) ([]*model.Repository, error) {
	proj, err := x.Project(ctx, key)
	if err != nil {
		return nil, err
	}
	return proj.Repositories, nil
}

func (x *UseCase) Repository(ctx context.Context, key types.ProjectKey, slug types.RepoSlug) (*model.Repository, error) {
	if _, err := x.Project(ctx, key); err != nil {
		return nil, err
	}

	repo, ok := x.cache.Repository(key, slug)
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "repository is not in the current snapshot",
			goerr.V("project", key),
			goerr.V("repository", slug),
		)
	}
	return repo, nil
}

// Status reports the cache and scheduler state. It never fails; an empty
// cache yields zero snapshot fields with RefreshState still populated.
func (x *UseCase) Status(ctx context.Context) *model.MirrorStatus {
	status := &model.MirrorStatus{
		RefreshState: types.RefreshStateIdle,
	}
	if x.refreshing.Load() {
		status.RefreshState = types.RefreshStateRefreshing
	}

	if snapshot, ok := x.cache.Current(); ok {
		status.SnapshotVersion = snapshot.Version
		status.FetchedAt = snapshot.FetchedAt
		status.ProjectCount = snapshot.ProjectCount()
		status.RepositoryCount = snapshot.RepositoryCount()
	}

	x.statusMu.Lock()
	status.LastResult = x.lastResult
	status.LastRefreshedAt = x.lastRefreshedAt
	status.LastError = x.lastError
	x.statusMu.Unlock()

	return status
}
