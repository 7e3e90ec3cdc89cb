package notify

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/config"
)

var Module = fx.Module("notify",
	fx.Provide(func(m Messenger, cfg *config.Config, log *zap.Logger) *Broadcaster {
		return NewBroadcaster(m, log.Named("broadcast"), cfg.BroadcastProgressEvery)
	}),
)
