package interfaces

import (
	"context"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

type UseCase interface {
	// Refresh runs one full refresh cycle. It returns
	// types.ErrRefreshRunning when another cycle is still in flight.
	Refresh(ctx context.Context) error

	Projects(ctx context.Context) ([]*model.Project, error)
	Project(ctx context.Context, key types.ProjectKey) (*model.Project, error)
	Repositories(ctx context.Context, key types.ProjectKey) ([]*model.Repository, error)
	Repository(ctx context.Context, key types.ProjectKey, slug types.RepoSlug) (*model.Repository, error)
	Status(ctx context.Context) *model.MirrorStatus
}
