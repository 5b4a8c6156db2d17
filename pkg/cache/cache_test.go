package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bbmirror/pkg/cache"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

func snapshotWith(version types.SnapshotVersion) *model.Snapshot {
	return &model.Snapshot{
		Version:   version,
		FetchedAt: time.Now().UTC(),
		Projects: []*model.Project{
			{
				Key:  "PLATFORM",
				ID:   1,
				Name: "Platform",
				Repositories: []*model.Repository{
					{Slug: "deploy-tools", ID: 10, Name: "deploy-tools", ProjectKey: "PLATFORM"},
				},
			},
		},
	}
}

func TestCache(t *testing.T) {
	t.Run("empty until first publish", func(t *testing.T) {
		c := cache.New()

		_, ok := c.Current()
		gt.False(t, ok)
		gt.V(t, c.Version()).Equal(0)
		_, ok = c.Project("PLATFORM")
		gt.False(t, ok)
	})

	t.Run("publish makes snapshot and indexes visible", func(t *testing.T) {
		c := cache.New()
		c.Publish(snapshotWith(1))

		snapshot, ok := c.Current()
		gt.True(t, ok)
		gt.V(t, snapshot.Version).Equal(1)

		proj, ok := c.Project("PLATFORM")
		gt.True(t, ok)
		gt.V(t, proj.Name).Equal("Platform")

		repo, ok := c.Repository("PLATFORM", "deploy-tools")
		gt.True(t, ok)
		gt.V(t, repo.ID).Equal(10)

		_, ok = c.Repository("PLATFORM", "nope")
		gt.False(t, ok)
	})

	t.Run("publish replaces previous snapshot", func(t *testing.T) {
		c := cache.New()
		c.Publish(snapshotWith(1))
		c.Publish(&model.Snapshot{
			Version:   2,
			FetchedAt: time.Now().UTC(),
			Projects:  []*model.Project{{Key: "SANDBOX", ID: 2, Name: "Sandbox"}},
		})

		gt.V(t, c.Version()).Equal(2)
		_, ok := c.Project("PLATFORM")
		gt.False(t, ok)
		_, ok = c.Project("SANDBOX")
		gt.True(t, ok)
	})

	t.Run("readers see consistent snapshots during publish", func(t *testing.T) {
		c := cache.New()
		c.Publish(snapshotWith(1))

		done := make(chan struct{})
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}

					snapshot, ok := c.Current()
					if !ok {
						t.Error("cache became empty after first publish")
						return
					}
					// A published snapshot is immutable, so version and
					// contents must always agree.
					if len(snapshot.Projects) != 1 {
						t.Errorf("torn snapshot: %d projects", len(snapshot.Projects))
						return
					}
				}
			}()
		}

		for v := types.SnapshotVersion(2); v < 100; v++ {
			c.Publish(snapshotWith(v))
		}
		close(done)
		wg.Wait()

		gt.V(t, c.Version()).Equal(99)
	})
}
