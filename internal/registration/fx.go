package registration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/qr"
	"clubbot/internal/referral"
	"clubbot/internal/repository"
	"clubbot/internal/session"
)

var Module = fx.Module("registration",
	fx.Provide(func(store repository.Store, sessions session.Store, refs *referral.Service, r *qr.Renderer, log *zap.Logger) *Service {
		return New(store, sessions, refs, r, log.Named("registration"))
	}),
)
