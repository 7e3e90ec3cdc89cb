package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/deeplink"
	"clubbot/internal/messages"
	"clubbot/internal/registration"
)

// handleCallback handles inline button callbacks.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if err := b.transport.AnswerCallback(ctx, cq.ID, ""); err != nil {
		b.log.Debug("callback answer failed", zap.String("callback_id", cq.ID), zap.Error(err))
	}
	if cq.From == nil {
		return
	}
	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}
	userID := cq.From.ID
	b.log.Debug("callback", zap.Int64("user_id", userID), zap.String("data", cq.Data))

	switch cq.Data {
	case deeplink.EventYes:
		b.registrationStep(ctx, chatID, "confirm", func() (registration.Outcome, error) {
			return b.registration.Confirm(ctx, userID)
		})
		return
	case deeplink.EventNo:
		b.registrationStep(ctx, chatID, "decline", func() (registration.Outcome, error) {
			return b.registration.Decline(ctx, userID)
		})
		return
	case deeplink.HSEYes, deeplink.HSENo:
		member := cq.Data == deeplink.HSEYes
		b.registrationStep(ctx, chatID, "affiliation", func() (registration.Outcome, error) {
			return b.registration.Affiliation(ctx, userID, member)
		})
		return
	case deeplink.Reroll:
		b.reroll(ctx, chatID, userID)
		return
	case deeplink.Confirm:
		b.confirmWinner(ctx, chatID, userID)
		return
	}

	if deeplink.IsVerify(cq.Data) {
		b.handleVerify(ctx, chatID, cq)
		return
	}
	if event, ok := deeplink.ParseGetRef(cq.Data); ok {
		user, err := b.router.EnsureUser(ctx, sender(cq.From), "")
		if err != nil {
			b.fail(ctx, chatID, "ensure_user", err)
			return
		}
		b.sendReferralLink(ctx, chatID, user, event)
		return
	}
	b.log.Warn("unknown callback", zap.Int64("user_id", userID), zap.String("data", cq.Data))
}

func (b *Bot) registrationStep(ctx context.Context, chatID int64, op string, step func() (registration.Outcome, error)) {
	out, err := step()
	if err != nil {
		b.fail(ctx, chatID, op, err)
		return
	}
	if out.Kind == registration.KindAskField {
		b.reply(ctx, chatID, messages.ProfileIntro)
	}
	b.renderRegistration(ctx, chatID, out)
}

// handleVerify applies a face-control allow/deny decision.
func (b *Bot) handleVerify(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery) {
	v, err := deeplink.ParseVerify(cq.Data)
	if err != nil {
		b.reply(ctx, chatID, messages.InvalidCode)
		return
	}
	actor, err := b.router.Actor(ctx, sender(cq.From))
	if err != nil {
		b.fail(ctx, chatID, "actor", err)
		return
	}
	out, err := b.checkin.Decide(ctx, actor, v)
	if errors.Is(err, checkin.ErrNotPrivileged) {
		b.reply(ctx, chatID, messages.AdminOnly)
		return
	}
	if err != nil {
		b.fail(ctx, chatID, "verify", err)
		return
	}
	b.renderCheckIn(ctx, chatID, actor, out)
}
