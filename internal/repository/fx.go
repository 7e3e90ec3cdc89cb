package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/config"
)

var Module = fx.Module("repository",
	fx.Provide(
		Open,
		fx.Annotate(NewSQLStore, fx.As(new(Store))),
	),
	fx.Invoke(migrate),
)

// Open connects to the configured database and closes it when the app stops.
func Open(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
	}
	if cfg.Database.Driver == "sqlite3" {
		// sqlite allows a single writer at a time.
		db.SetMaxOpenConns(1)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping %s: %w", cfg.Database.Driver, err)
			}
			log.Info("database connected", zap.String("driver", cfg.Database.Driver))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing database")
			return db.Close()
		},
	})
	return db, nil
}

func migrate(lc fx.Lifecycle, store Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.CreateTables(ctx)
		},
	})
}
