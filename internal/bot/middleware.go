package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clubbot/internal/messages"
	"clubbot/internal/models"
)

// commandHandler handles a command from a resolved user.
type commandHandler func(ctx context.Context, msg *tgbotapi.Message, user *models.User)

// withUser resolves the sender's user row before calling the handler.
func (b *Bot) withUser(h commandHandler) func(ctx context.Context, msg *tgbotapi.Message) {
	return func(ctx context.Context, msg *tgbotapi.Message) {
		user, err := b.router.EnsureUser(ctx, sender(msg.From), "")
		if err != nil {
			b.fail(ctx, msg.Chat.ID, "ensure_user", err)
			return
		}
		h(ctx, msg, user)
	}
}

// adminOnly wraps a command handler with superuser verification.
func (b *Bot) adminOnly(h commandHandler) commandHandler {
	return func(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
		if !user.IsSuperuser {
			b.log.Warn("admin command denied", zap.Int64("user_id", user.ID), zap.String("command", msg.Command()))
			b.reply(ctx, msg.Chat.ID, messages.AdminOnly)
			return
		}
		h(ctx, msg, user)
	}
}
