package checkin

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/ledger"
	"clubbot/internal/notify"
	"clubbot/internal/referral"
	"clubbot/internal/repository"
)

var Module = fx.Module("checkin",
	fx.Provide(func(store repository.Store, l *ledger.Ledger, refs *referral.Service, m notify.Messenger, log *zap.Logger) *Service {
		return New(store, l, refs, m, log.Named("checkin"))
	}),
)
