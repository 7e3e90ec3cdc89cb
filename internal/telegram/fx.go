package telegram

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/config"
	"clubbot/internal/notify"
)

var Module = fx.Module("telegram",
	fx.Provide(
		func(cfg *config.Config, log *zap.Logger) (*Client, error) {
			return New(cfg.BotToken, cfg.BotDebug, log.Named("telegram"))
		},
		func(c *Client) notify.Messenger { return c },
	),
)
