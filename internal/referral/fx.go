package referral

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/notify"
	"clubbot/internal/repository"
)

var Module = fx.Module("referral",
	fx.Provide(func(store repository.Store, m notify.Messenger, log *zap.Logger) *Service {
		return New(store, m, log.Named("referral"))
	}),
)
