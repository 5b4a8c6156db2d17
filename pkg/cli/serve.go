package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"

	"github.com/m-mizutani/bbmirror/pkg/cli/config"
	"github.com/m-mizutani/bbmirror/pkg/controller/server"
	"github.com/m-mizutani/bbmirror/pkg/infra"
	"github.com/m-mizutani/bbmirror/pkg/usecase"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"

	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		addr string

		bitbucket  config.Bitbucket
		cacheCfg   config.Cache
		bigQuery   config.BigQuery
		sentryConf config.Sentry
	)
	serveFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Binding address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("BBMIRROR_ADDR"),
			Destination: &addr,
		},
	}

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Server mode: periodic refresh plus the REST read API",
		Flags: slice.Flatten(
			serveFlags,
			bitbucket.Flags(),
			cacheCfg.Flags(),
			bigQuery.Flags(),
			sentryConf.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting serve",
				slog.Any("Addr", addr),
				slog.Any("Bitbucket", bitbucket),
				slog.Any("Cache", cacheCfg),
				slog.Any("BigQuery", bigQuery),
				slog.Any("Sentry", sentryConf),
			)

			if err := sentryConf.Configure(ctx); err != nil {
				return err
			}

			uc, err := buildUseCase(ctx, bitbucket, cacheCfg, bigQuery)
			if err != nil {
				return err
			}

			if err := uc.Restore(ctx); err != nil {
				return err
			}

			schedulerCtx, stopScheduler := context.WithCancel(
				logging.With(context.Background(), logging.Default()),
			)
			defer stopScheduler()
			go uc.RunScheduler(schedulerCtx, cacheCfg.RefreshPeriod())

			s := server.New(uc)

			serverErr := make(chan error, 1)
			httpServer := &http.Server{
				Addr:    addr,
				Handler: s.Mux(),

				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
			}

			go func() {
				logging.Default().Info("starting http server", "addr", addr)
				if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
					serverErr <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-serverErr:
				return err

			case sig := <-quit:
				logging.Default().Info("shutting down server", "signal", sig)
				stopScheduler()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := httpServer.Shutdown(ctx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server")
				}
			}

			return nil
		},
	}
}

func buildUseCase(ctx context.Context, bitbucket config.Bitbucket, cacheCfg config.Cache, bigQuery config.BigQuery) (*usecase.UseCase, error) {
	bbClient, err := bitbucket.New()
	if err != nil {
		return nil, err
	}

	store, err := cacheCfg.NewStore()
	if err != nil {
		return nil, err
	}

	infraOptions := []infra.Option{
		infra.WithBitbucket(bbClient),
		infra.WithSnapshotStore(store),
	}

	if bqClient, err := bigQuery.NewClient(ctx); err != nil {
		return nil, err
	} else if bqClient != nil {
		infraOptions = append(infraOptions, infra.WithBigQuery(bqClient))
	}

	return usecase.New(infra.New(infraOptions...)), nil
}
