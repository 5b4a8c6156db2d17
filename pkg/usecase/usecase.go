package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/cache"
	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/infra"
	"github.com/m-mizutani/bbmirror/pkg/repository"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"
)

type UseCase struct {
	clients *infra.Clients
	cache   *cache.Cache

	refreshing atomic.Bool

	statusMu        sync.Mutex
	lastResult      types.RefreshResult
	lastRefreshedAt time.Time
	lastError       string
}

var _ interfaces.UseCase = (*UseCase)(nil)

func New(clients *infra.Clients) *UseCase {
	return &UseCase{
		clients:    clients,
		cache:      cache.New(),
		lastResult: types.RefreshResultNone,
	}
}

// Restore seeds the read cache from the persistent store so queries can be
// answered before the first refresh completes. A missing record is not an
// error.
func (x *UseCase) Restore(ctx context.Context) error {
	store := x.clients.SnapshotStore()
	if store == nil {
		return nil
	}

	record, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logging.From(ctx).Info("no cached snapshot on disk, waiting for first refresh")
			return nil
		}
		return goerr.Wrap(err, "failed to restore snapshot from store")
	}

	x.cache.Publish(record.Snapshot)
	logging.From(ctx).Info("restored snapshot from store",
		"version", record.Version,
		"fetched_at", record.Snapshot.FetchedAt,
		"projects", record.Snapshot.ProjectCount(),
		"repositories", record.Snapshot.RepositoryCount(),
	)

	return nil
}
