package router

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/config"
	"clubbot/internal/registration"
	"clubbot/internal/repository"
)

var Module = fx.Module("router",
	fx.Provide(func(store repository.Store, cfg *config.Config, reg *registration.Service, chk *checkin.Service, log *zap.Logger) *Router {
		return New(store, cfg.IsAdmin, reg, chk, log.Named("router"))
	}),
)
