package session

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/config"
)

var Module = fx.Module("session",
	fx.Provide(New),
)

// New builds the configured session store. The memory store is swept on the
// SESSION_SWEEP cron schedule; the redis store relies on key expiry.
func New(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (Store, error) {
	if cfg.Session.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return err
				}
				log.Info("session store connected to redis", zap.String("addr", cfg.Redis.Addr))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return rdb.Close()
			},
		})
		return NewRedisStore(rdb, cfg.Session.TTL), nil
	}

	store := NewMemoryStore(cfg.Session.TTL)
	c := cron.New()
	if _, err := c.AddFunc(cfg.Session.Sweep, func() {
		if n := store.Sweep(); n > 0 {
			log.Debug("expired sessions swept", zap.Int("removed", n))
		}
	}); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
	return store, nil
}
