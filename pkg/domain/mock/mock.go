// Package mock provides hand-written test doubles for the domain
// interfaces. Unset function fields panic so that tests fail loudly when an
// unexpected call happens.
package mock

import (
	"context"
	"iter"

	"cloud.google.com/go/bigquery"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

type BitbucketClientMock struct {
	ProjectsFunc     func(ctx context.Context) iter.Seq2[*model.ProjectPage, error]
	RepositoriesFunc func(ctx context.Context, project types.ProjectKey) iter.Seq2[*model.RepositoryPage, error]
	SourceFunc       func() string
}

var _ interfaces.BitbucketClient = (*BitbucketClientMock)(nil)

func (x *BitbucketClientMock) Projects(ctx context.Context) iter.Seq2[*model.ProjectPage, error] {
	return x.ProjectsFunc(ctx)
}

func (x *BitbucketClientMock) Repositories(ctx context.Context, project types.ProjectKey) iter.Seq2[*model.RepositoryPage, error] {
	return x.RepositoriesFunc(ctx, project)
}

func (x *BitbucketClientMock) Source() string {
	if x.SourceFunc == nil {
		return "mock://bitbucket"
	}
	return x.SourceFunc()
}

type SnapshotStoreMock struct {
	LoadFunc func(ctx context.Context) (*model.CacheRecord, error)
	SaveFunc func(ctx context.Context, record *model.CacheRecord) error
}

var _ interfaces.SnapshotStore = (*SnapshotStoreMock)(nil)

func (x *SnapshotStoreMock) Load(ctx context.Context) (*model.CacheRecord, error) {
	return x.LoadFunc(ctx)
}

func (x *SnapshotStoreMock) Save(ctx context.Context, record *model.CacheRecord) error {
	return x.SaveFunc(ctx, record)
}

type BigQueryMock struct {
	InsertFunc      func(ctx context.Context, schema bigquery.Schema, data any) error
	GetMetadataFunc func(ctx context.Context) (*bigquery.TableMetadata, error)
	UpdateTableFunc func(ctx context.Context, md bigquery.TableMetadataToUpdate, eTag string) error
	CreateTableFunc func(ctx context.Context, md *bigquery.TableMetadata) error
}

var _ interfaces.BigQuery = (*BigQueryMock)(nil)

func (x *BigQueryMock) Insert(ctx context.Context, schema bigquery.Schema, data any) error {
	return x.InsertFunc(ctx, schema, data)
}

func (x *BigQueryMock) GetMetadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	return x.GetMetadataFunc(ctx)
}

func (x *BigQueryMock) UpdateTable(ctx context.Context, md bigquery.TableMetadataToUpdate, eTag string) error {
	return x.UpdateTableFunc(ctx, md, eTag)
}

func (x *BigQueryMock) CreateTable(ctx context.Context, md *bigquery.TableMetadata) error {
	return x.CreateTableFunc(ctx, md)
}

type UseCaseMock struct {
	RefreshFunc      func(ctx context.Context) error
	ProjectsFunc     func(ctx context.Context) ([]*model.Project, error)
	ProjectFunc      func(ctx context.Context, key types.ProjectKey) (*model.Project, error)
	RepositoriesFunc func(ctx context.Context, key types.ProjectKey) ([]*model.Repository, error)
	RepositoryFunc   func(ctx context.Context, key types.ProjectKey, slug types.RepoSlug) (*model.Repository, error)
	StatusFunc       func(ctx context.Context) *model.MirrorStatus
}

var _ interfaces.UseCase = (*UseCaseMock)(nil)

func (x *UseCaseMock) Refresh(ctx context.Context) error {
	return x.RefreshFunc(ctx)
}

func (x *UseCaseMock) Projects(ctx context.Context) ([]*model.Project, error) {
	return x.ProjectsFunc(ctx)
}

func (x *UseCaseMock) Project(ctx context.Context, key types.ProjectKey) (*model.Project, error) {
	return x.ProjectFunc(ctx, key)
}

func (x *UseCaseMock) Repositories(ctx context.Context, key types.ProjectKey) ([]*model.Repository, error) {
	return x.RepositoriesFunc(ctx, key)
}

func (x *UseCaseMock) Repository(ctx context.Context, key types.ProjectKey, slug types.RepoSlug) (*model.Repository, error) {
	return x.RepositoryFunc(ctx, key, slug)
}

func (x *UseCaseMock) Status(ctx context.Context) *model.MirrorStatus {
	return x.StatusFunc(ctx)
}
