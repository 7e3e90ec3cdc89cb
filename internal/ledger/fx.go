package ledger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/repository"
)

var Module = fx.Module("ledger",
	fx.Provide(func(store repository.Store, log *zap.Logger) *Ledger {
		return New(store, log.Named("ledger"))
	}),
)
