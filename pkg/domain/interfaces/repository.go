package interfaces

import (
	"context"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
)

// SnapshotStore persists the most recently published snapshot so that the
// service can serve last-known-good data immediately after a restart.
type SnapshotStore interface {
	// Load returns the stored cache record, or repository.ErrNotFound if
	// nothing has been saved yet.
	Load(ctx context.Context) (*model.CacheRecord, error)

	// Save replaces the stored cache record. The replacement is atomic with
	// respect to concurrent Load calls.
	Save(ctx context.Context, record *model.CacheRecord) error
}
