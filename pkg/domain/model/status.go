package model

import (
	"time"

	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

// MirrorStatus reports the state of the read cache and the refresh
// scheduler for the status endpoint.
type MirrorStatus struct {
	SnapshotVersion types.SnapshotVersion `json:"snapshot_version"`
	FetchedAt       time.Time             `json:"fetched_at,omitempty"`
	ProjectCount    int                   `json:"project_count"`
	RepositoryCount int                   `json:"repository_count"`

	RefreshState    types.RefreshState  `json:"refresh_state"`
	LastResult      types.RefreshResult `json:"last_result"`
	LastRefreshedAt time.Time           `json:"last_refreshed_at,omitempty"`
	LastError       string              `json:"last_error,omitempty"`
}
