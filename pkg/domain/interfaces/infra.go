package interfaces

import (
	"context"
	"iter"

	"cloud.google.com/go/bigquery"

	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

// BitbucketClient enumerates projects and repositories from the upstream
// Bitbucket Server REST API as lazy, finite page sequences. A sequence stops
// after yielding a non-nil error.
type BitbucketClient interface {
	Projects(ctx context.Context) iter.Seq2[*model.ProjectPage, error]
	Repositories(ctx context.Context, project types.ProjectKey) iter.Seq2[*model.RepositoryPage, error]

	// Source identifies the upstream instance, e.g. its REST base URL.
	Source() string
}

type BigQuery interface {
	Insert(ctx context.Context, schema bigquery.Schema, data any) error

	GetMetadata(ctx context.Context) (*bigquery.TableMetadata, error)
	UpdateTable(ctx context.Context, md bigquery.TableMetadataToUpdate, eTag string) error
	CreateTable(ctx context.Context, md *bigquery.TableMetadata) error
}
