package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/utils/errutil"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"
)

// Refresh runs one refresh cycle: build a snapshot, publish it to the read
// cache, then persist it and export an audit record. At most one cycle runs
// at a time; a trigger while another cycle is in flight returns
// types.ErrRefreshRunning without doing anything.
//
// A failed build leaves the previously published snapshot in place. Store
// and audit failures are reported but do not fail the cycle.
func (x *UseCase) Refresh(ctx context.Context) error {
	if !x.refreshing.CompareAndSwap(false, true) {
		return goerr.Wrap(types.ErrRefreshRunning, "refresh trigger skipped")
	}
	defer x.refreshing.Store(false)

	logger := logging.From(ctx)
	startedAt := time.Now()
	logger.Info("starting refresh cycle", slog.Any("current_version", x.cache.Version()))

	snapshot, err := x.buildSnapshot(ctx)
	if err != nil {
		x.recordResult(types.RefreshResultFailed, err)
		x.exportAudit(ctx, &model.RefreshAudit{
			Timestamp:      time.Now().UTC(),
			Result:         types.RefreshResultFailed,
			DurationMillis: time.Since(startedAt).Milliseconds(),
			Source:         x.source(),
			Error:          err.Error(),
		})
		return err
	}

	x.cache.Publish(snapshot)
	x.recordResult(types.RefreshResultPublished, nil)

	logger.Info("published new snapshot",
		slog.Any("version", snapshot.Version),
		slog.Int("projects", snapshot.ProjectCount()),
		slog.Int("repositories", snapshot.RepositoryCount()),
		slog.Duration("elapsed", time.Since(startedAt)),
	)

	x.persist(ctx, snapshot)
	x.exportAudit(ctx, &model.RefreshAudit{
		Timestamp:       time.Now().UTC(),
		Result:          types.RefreshResultPublished,
		SnapshotVersion: snapshot.Version,
		ProjectCount:    snapshot.ProjectCount(),
		RepositoryCount: snapshot.RepositoryCount(),
		DurationMillis:  time.Since(startedAt).Milliseconds(),
		Source:          x.source(),
	})

	return nil
}

// RunScheduler refreshes immediately and then on every period tick until the
// context is cancelled. Failed cycles wait for the next tick; retries for
// transient upstream errors happen inside the upstream client only.
func (x *UseCase) RunScheduler(ctx context.Context, period time.Duration) {
	logger := logging.From(ctx)
	logger.Info("starting refresh scheduler", slog.Duration("period", period))

	runOnce := func() {
		if err := x.Refresh(ctx); err != nil {
			if errors.Is(err, types.ErrRefreshRunning) {
				logger.Warn("refresh tick skipped, another refresh is in flight")
				return
			}
			errutil.HandleError(ctx, "refresh cycle failed, keeping previous snapshot", err)
		}
	}

	runOnce()

	if period <= 0 {
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping refresh scheduler")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (x *UseCase) source() string {
	if client := x.clients.Bitbucket(); client != nil {
		return client.Source()
	}
	return ""
}

func (x *UseCase) recordResult(result types.RefreshResult, err error) {
	x.statusMu.Lock()
	defer x.statusMu.Unlock()

	x.lastResult = result
	x.lastRefreshedAt = time.Now().UTC()
	x.lastError = ""
	if err != nil {
		x.lastError = err.Error()
	}
}

// persist saves the published snapshot. The snapshot is already live in the
// read cache, so a store failure only degrades restart behavior.
func (x *UseCase) persist(ctx context.Context, snapshot *model.Snapshot) {
	store := x.clients.SnapshotStore()
	if store == nil {
		return
	}

	record := &model.CacheRecord{
		Version:  snapshot.Version,
		SavedAt:  time.Now().UTC(),
		Source:   x.source(),
		Snapshot: snapshot,
	}

	if err := store.Save(ctx, record); err != nil {
		errutil.HandleError(ctx, "failed to persist snapshot, in-memory data remains valid", err)
	}
}
