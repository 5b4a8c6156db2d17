// Package memory provides an in-memory snapshot store, mainly for tests and
// for running without a durable DB file.
package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/repository"
)

type Store struct {
	mu     sync.RWMutex
	record *model.CacheRecord
}

var _ interfaces.SnapshotStore = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (x *Store) Load(ctx context.Context) (*model.CacheRecord, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.record == nil {
		return nil, goerr.Wrap(repository.ErrNotFound, "no cache record saved")
	}

	return x.record, nil
}

func (x *Store) Save(ctx context.Context, record *model.CacheRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.record = record

	return nil
}
