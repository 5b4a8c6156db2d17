package types

import "log/slog"

type (
	ClientID        string
	ClientSecret    string
	ProjectKey      string
	RepoSlug        string
	SnapshotVersion int64
	RefreshState    string
	RefreshResult   string

	GoogleProjectID string
	BQDatasetID     string
	BQTableID       string
)

const (
	RefreshStateIdle       RefreshState = "idle"
	RefreshStateRefreshing RefreshState = "refreshing"
)

const (
	RefreshResultNone      RefreshResult = "none"
	RefreshResultPublished RefreshResult = "published"
	RefreshResultFailed    RefreshResult = "failed"
)

func (x ProjectKey) String() string {
	return string(x)
}

func (x RepoSlug) String() string {
	return string(x)
}

func (x GoogleProjectID) String() string {
	return string(x)
}

func (x BQDatasetID) String() string {
	return string(x)
}

func (x BQTableID) String() string {
	return string(x)
}

func (x ClientSecret) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x ClientSecret) String() string {
	return "***********"
}
