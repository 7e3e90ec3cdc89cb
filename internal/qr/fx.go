package qr

import (
	"go.uber.org/fx"

	"clubbot/internal/config"
	"clubbot/internal/telegram"
)

var Module = fx.Module("qr",
	fx.Provide(func(cfg *config.Config, client *telegram.Client) *Renderer {
		if cfg.BotUsername != "" {
			return NewRenderer(cfg.BotUsername)
		}
		return NewRenderer(client.Username())
	}),
)
