package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/bbmirror/pkg/repository/filestore"
	"github.com/urfave/cli/v3"
)

type Cache struct {
	dbFile        string
	refreshPeriod time.Duration
}

func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-file",
			Usage:       "Path of the snapshot cache file",
			Category:    "Cache",
			Destination: &x.dbFile,
			Sources:     cli.EnvVars("BBMIRROR_DB_FILE", "DB_FILE"),
			Value:       "orginfo.db",
		},
		&cli.DurationFlag{
			Name:        "refresh-period",
			Usage:       "Interval between refresh cycles, e.g. 4h or 30m",
			Category:    "Cache",
			Destination: &x.refreshPeriod,
			Sources:     cli.EnvVars("BBMIRROR_REFRESH_PERIOD", "REFRESH_PERIOD"),
			Value:       4 * time.Hour,
		},
	}
}

func (x Cache) NewStore() (*filestore.Store, error) {
	return filestore.New(x.dbFile)
}

func (x Cache) RefreshPeriod() time.Duration {
	return x.refreshPeriod
}

func (x Cache) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("DBFile", x.dbFile),
		slog.Duration("RefreshPeriod", x.refreshPeriod),
	)
}
