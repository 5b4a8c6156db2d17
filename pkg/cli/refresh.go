package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/gots/slice"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/bbmirror/pkg/cli/config"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"
)

// refreshCommand runs one refresh cycle and exits. It is meant for cron
// style deployments and for warming up the cache file before the first
// serve.
func refreshCommand() *cli.Command {
	var (
		bitbucket config.Bitbucket
		cacheCfg  config.Cache
		bigQuery  config.BigQuery
	)

	return &cli.Command{
		Name:    "refresh",
		Aliases: []string{"r"},
		Usage:   "Fetch one snapshot from the upstream and write it to the cache file",
		Flags: slice.Flatten(
			bitbucket.Flags(),
			cacheCfg.Flags(),
			bigQuery.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := buildUseCase(ctx, bitbucket, cacheCfg, bigQuery)
			if err != nil {
				return err
			}

			if err := uc.Restore(ctx); err != nil {
				return err
			}

			if err := uc.Refresh(ctx); err != nil {
				return err
			}

			status := uc.Status(ctx)
			logging.From(ctx).Info("refresh completed",
				slog.Any("version", status.SnapshotVersion),
				slog.Int("projects", status.ProjectCount),
				slog.Int("repositories", status.RepositoryCount),
			)

			return nil
		},
	}
}
