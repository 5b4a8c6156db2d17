// Package filestore persists the cache record as a single JSON file.
// Save writes a temporary file in the same directory and renames it over the
// destination, so a concurrent Load never observes a truncated record.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/repository"
	"github.com/m-mizutani/bbmirror/pkg/utils/safe"
)

type Store struct {
	path string
}

var _ interfaces.SnapshotStore = (*Store)(nil)

func New(path string) (*Store, error) {
	if path == "" {
		return nil, goerr.Wrap(repository.ErrInvalidRecord, "store path is empty")
	}

	return &Store{path: filepath.Clean(path)}, nil
}

func (x *Store) Load(ctx context.Context) (*model.CacheRecord, error) {
	raw, err := os.ReadFile(x.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(repository.ErrNotFound, "cache record file does not exist",
				goerr.V("path", x.path),
			)
		}
		return nil, goerr.Wrap(err, "failed to read cache record", goerr.V("path", x.path))
	}

	var record model.CacheRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidRecord, "failed to parse cache record",
			goerr.V("path", x.path),
			goerr.V("error", err.Error()),
		)
	}
	if err := record.Validate(); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidRecord, "cache record is inconsistent",
			goerr.V("path", x.path),
			goerr.V("error", err.Error()),
		)
	}

	return &record, nil
}

func (x *Store) Save(ctx context.Context, record *model.CacheRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return goerr.Wrap(err, "failed to serialize cache record")
	}

	dir := filepath.Dir(x.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(x.path)+".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("dir", dir))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		safe.Close(tmp)
		safe.Remove(tmpPath)
		return goerr.Wrap(err, "failed to write cache record", goerr.V("path", tmpPath))
	}
	if err := tmp.Sync(); err != nil {
		safe.Close(tmp)
		safe.Remove(tmpPath)
		return goerr.Wrap(err, "failed to sync cache record", goerr.V("path", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		safe.Remove(tmpPath)
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmpPath))
	}

	if err := os.Rename(tmpPath, x.path); err != nil {
		safe.Remove(tmpPath)
		return goerr.Wrap(err, "failed to replace cache record",
			goerr.V("from", tmpPath),
			goerr.V("to", x.path),
		)
	}

	return nil
}
