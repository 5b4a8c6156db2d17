package usecase

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/bqs"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/utils/errutil"
)

// exportAudit writes one refresh audit record to BigQuery. The export is
// best effort: a failure is reported but never fails the refresh cycle, and
// a missing BigQuery client disables the export entirely.
func (x *UseCase) exportAudit(ctx context.Context, audit *model.RefreshAudit) {
	bq := x.clients.BigQuery()
	if bq == nil {
		return
	}

	schema, err := createOrUpdateAuditTable(ctx, bq, audit)
	if err != nil {
		errutil.HandleError(ctx, "failed to prepare refresh audit table", err)
		return
	}

	if err := bq.Insert(ctx, schema, audit); err != nil {
		errutil.HandleError(ctx, "failed to insert refresh audit record", err)
	}
}

func createOrUpdateAuditTable(ctx context.Context, bq interfaces.BigQuery, audit *model.RefreshAudit) (bigquery.Schema, error) {
	schema, err := bqs.Infer(audit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer refresh audit schema")
	}

	metaData, err := bq.GetMetadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get refresh audit table metadata")
	}
	if metaData == nil {
		if err := bq.CreateTable(ctx, &bigquery.TableMetadata{
			Schema: schema,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to create refresh audit table")
		}

		return schema, nil
	}

	if bqs.Equal(metaData.Schema, schema) {
		return schema, nil
	}

	mergedSchema, err := bqs.Merge(metaData.Schema, schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to merge refresh audit schema")
	}
	if err := bq.UpdateTable(ctx, bigquery.TableMetadataToUpdate{
		Schema: mergedSchema,
	}, metaData.ETag); err != nil {
		return nil, goerr.Wrap(err, "failed to update refresh audit table")
	}

	return mergedSchema, nil
}
