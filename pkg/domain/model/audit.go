package model

import (
	"time"

	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

// RefreshAudit is one row of the refresh audit log, exported to BigQuery
// after each refresh cycle when an export destination is configured.
type RefreshAudit struct {
	Timestamp       time.Time             `json:"timestamp" bigquery:"timestamp"`
	Result          types.RefreshResult   `json:"result" bigquery:"result"`
	SnapshotVersion types.SnapshotVersion `json:"snapshot_version" bigquery:"snapshot_version"`
	ProjectCount    int                   `json:"project_count" bigquery:"project_count"`
	RepositoryCount int                   `json:"repository_count" bigquery:"repository_count"`
	DurationMillis  int64                 `json:"duration_millis" bigquery:"duration_millis"`
	Source          string                `json:"source,omitempty" bigquery:"source"`
	Error           string                `json:"error,omitempty" bigquery:"error"`
}
