package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"clubbot/internal/bot"
	"clubbot/internal/checkin"
	"clubbot/internal/config"
	"clubbot/internal/ledger"
	"clubbot/internal/logger"
	"clubbot/internal/notify"
	"clubbot/internal/qr"
	"clubbot/internal/referral"
	"clubbot/internal/registration"
	"clubbot/internal/repository"
	"clubbot/internal/router"
	"clubbot/internal/session"
	"clubbot/internal/telegram"
)

func main() {
	opts := []fx.Option{
		fxLogger,
		config.Module,
		logger.Module,
		repository.Module,
		session.Module,
		telegram.Module,
		qr.Module,
		notify.Module,
		ledger.Module,
		referral.Module,
		registration.Module,
		checkin.Module,
		router.Module,
		bot.Module,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
})
