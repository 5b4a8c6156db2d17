package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/infra"
	"github.com/m-mizutani/bbmirror/pkg/usecase"
)

func TestQuery(t *testing.T) {
	ctx := context.Background()

	uc := usecase.New(infra.New(infra.WithBitbucket(twoProjectClient())))
	gt.NoError(t, uc.Refresh(ctx))

	t.Run("lookup project by key", func(t *testing.T) {
		proj := gt.R1(uc.Project(ctx, "PLATFORM")).NoError(t)
		gt.V(t, proj.Name).Equal("Platform")
		gt.A(t, proj.Repositories).Length(2)
	})

	t.Run("unknown project returns not found", func(t *testing.T) {
		_, err := uc.Project(ctx, "NOPE")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrNotFound))

		_, err = uc.Repositories(ctx, "NOPE")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrNotFound))
	})

	t.Run("lookup repository by key and slug", func(t *testing.T) {
		repo := gt.R1(uc.Repository(ctx, "PLATFORM", "deploy-tools")).NoError(t)
		gt.V(t, repo.ID).Equal(10)
		gt.V(t, repo.ProjectKey).Equal("PLATFORM")
	})

	t.Run("unknown repository returns not found", func(t *testing.T) {
		_, err := uc.Repository(ctx, "PLATFORM", "nope")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrNotFound))
	})

	t.Run("repository lookup on empty project works", func(t *testing.T) {
		repos := gt.R1(uc.Repositories(ctx, "SANDBOX")).NoError(t)
		gt.A(t, repos).Length(0)
	})

	t.Run("queries before first publish return no snapshot", func(t *testing.T) {
		empty := usecase.New(infra.New())

		_, err := empty.Projects(ctx)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrNoSnapshot))
		_, err = empty.Project(ctx, "PLATFORM")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrNoSnapshot))
		_, err = empty.Repository(ctx, "PLATFORM", "deploy-tools")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrNoSnapshot))

		status := empty.Status(ctx)
		gt.V(t, status.SnapshotVersion).Equal(0)
		gt.V(t, status.LastResult).Equal(types.RefreshResultNone)
	})
}
