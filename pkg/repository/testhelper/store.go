// Package testhelper provides a shared contract test suite for
// interfaces.SnapshotStore implementations.
package testhelper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/repository"
)

// NewRecord builds a valid cache record fixture with the given version.
func NewRecord(version types.SnapshotVersion) *model.CacheRecord {
	fetchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(version) * time.Hour)
	return &model.CacheRecord{
		Version: version,
		SavedAt: fetchedAt.Add(time.Second),
		Source:  "https://bitbucket.example.com/rest/api/1.0",
		Snapshot: &model.Snapshot{
			Version:   version,
			FetchedAt: fetchedAt,
			Projects: []*model.Project{
				{
					Key:  "PLATFORM",
					ID:   1,
					Name: "Platform",
					Repositories: []*model.Repository{
						{
							Slug:       "deploy-tools",
							ID:         10,
							Name:       "deploy-tools",
							ProjectKey: "PLATFORM",
							State:      "AVAILABLE",
							CloneLinks: []model.CloneLink{
								{Name: "http", HRef: "https://bitbucket.example.com/scm/platform/deploy-tools.git"},
							},
						},
					},
				},
				{
					Key:          "SANDBOX",
					ID:           2,
					Name:         "Sandbox",
					Repositories: nil,
				},
			},
		},
	}
}

// TestAll runs the snapshot store contract against the given implementation.
func TestAll(t *testing.T, store interfaces.SnapshotStore) {
	ctx := context.Background()

	t.Run("load before any save returns not found", func(t *testing.T) {
		_, err := store.Load(ctx)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("save then load round-trips the record", func(t *testing.T) {
		saved := NewRecord(1)
		gt.NoError(t, store.Save(ctx, saved))

		loaded := gt.R1(store.Load(ctx)).NoError(t)
		gt.V(t, loaded.Version).Equal(saved.Version)
		gt.True(t, loaded.SavedAt.Equal(saved.SavedAt))
		gt.V(t, loaded.Source).Equal(saved.Source)
		gt.V(t, loaded.Snapshot.Version).Equal(saved.Snapshot.Version)
		gt.True(t, loaded.Snapshot.FetchedAt.Equal(saved.Snapshot.FetchedAt))
		gt.A(t, loaded.Snapshot.Projects).Length(2)
		gt.V(t, loaded.Snapshot.Projects[0].Key).Equal("PLATFORM")
		gt.A(t, loaded.Snapshot.Projects[0].Repositories).Length(1)
		gt.V(t, loaded.Snapshot.Projects[0].Repositories[0].Slug).Equal("deploy-tools")
		gt.V(t, loaded.Snapshot.RepositoryCount()).Equal(saved.Snapshot.RepositoryCount())
	})

	t.Run("save replaces the previous record", func(t *testing.T) {
		gt.NoError(t, store.Save(ctx, NewRecord(2)))
		gt.NoError(t, store.Save(ctx, NewRecord(3)))

		loaded := gt.R1(store.Load(ctx)).NoError(t)
		gt.V(t, loaded.Version).Equal(types.SnapshotVersion(3))
	})

	t.Run("inconsistent record is rejected", func(t *testing.T) {
		broken := NewRecord(4)
		broken.Version = 99
		gt.Error(t, store.Save(ctx, broken))

		// Previous record remains readable
		loaded := gt.R1(store.Load(ctx)).NoError(t)
		gt.V(t, loaded.Version).Equal(types.SnapshotVersion(3))
	})
}
