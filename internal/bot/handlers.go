package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clubbot/internal/deeplink"
	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/repository"
	"clubbot/internal/session"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if session.IsCancel(text) {
		b.cancel(ctx, msg.Chat.ID, msg.From.ID)
		return
	}

	collecting, err := b.registration.Collecting(ctx, msg.From.ID)
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "session", err)
		return
	}
	if !collecting {
		b.reply(ctx, msg.Chat.ID, messages.Welcome)
		return
	}
	out, err := b.registration.SubmitField(ctx, msg.From.ID, text)
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "submit_field", err)
		return
	}
	b.renderRegistration(ctx, msg.Chat.ID, out)
}

// handleCommand routes commands to corresponding handlers.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	b.log.Debug("command", zap.Int64("user_id", msg.From.ID), zap.String("command", msg.Command()))

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "cancel":
		b.cancel(ctx, msg.Chat.ID, msg.From.ID)
	case "me":
		b.withUser(b.handleMe)(ctx, msg)
	case "ref":
		b.withUser(b.handleRef)(ctx, msg)
	case "hostdraw":
		b.withUser(b.handleHostDraw)(ctx, msg)
	case "newevent":
		b.withUser(b.adminOnly(b.handleNewEvent))(ctx, msg)
	case "endevent":
		b.withUser(b.adminOnly(b.handleEndEvent))(ctx, msg)
	case "reglink":
		b.withUser(b.adminOnly(b.handleRegLink))(ctx, msg)
	case "addhost":
		b.withUser(b.adminOnly(b.handleAddHost))(ctx, msg)
	case "addfc":
		b.withUser(b.adminOnly(b.handleAddFaceControl))(ctx, msg)
	case "rmfc":
		b.withUser(b.adminOnly(b.handleRemoveFaceControl))(ctx, msg)
	case "draw":
		b.withUser(b.adminOnly(b.handleDraw))(ctx, msg)
	case "broadcast":
		b.withUser(b.adminOnly(b.handleBroadcast))(ctx, msg)
	default:
		b.reply(ctx, msg.Chat.ID, messages.Unknown)
	}
}

// handleStart routes the deep-link payload of /start.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	payload := strings.TrimSpace(msg.CommandArguments())
	res, err := b.router.Route(ctx, sender(msg.From), payload)
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "start", err)
		return
	}
	b.renderRoute(ctx, msg.Chat.ID, res)
}

// cancel drops the current conversation. Persisted rows are kept.
func (b *Bot) cancel(ctx context.Context, chatID, userID int64) {
	_, ok, err := b.sessions.Get(ctx, userID)
	if err != nil {
		b.fail(ctx, chatID, "cancel", err)
		return
	}
	if !ok {
		b.reply(ctx, chatID, messages.Nothing)
		return
	}
	if err := b.sessions.Clear(ctx, userID); err != nil {
		b.fail(ctx, chatID, "cancel", err)
		return
	}
	b.log.Info("conversation cancelled", zap.Int64("user_id", userID))
	b.reply(ctx, chatID, messages.Cancelled)
}

func (b *Bot) handleMe(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	b.reply(ctx, msg.Chat.ID, messages.Profile(user))
}

func (b *Bot) handleRef(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	event := strings.TrimSpace(msg.CommandArguments())
	if event == "" {
		b.reply(ctx, msg.Chat.ID, messages.UsageRef)
		return
	}
	b.sendReferralLink(ctx, msg.Chat.ID, user, event)
}

// sendReferralLink hands the user their personal link for an active event.
func (b *Bot) sendReferralLink(ctx context.Context, chatID int64, user *models.User, event string) {
	ev, err := b.store.GetEvent(ctx, event)
	if errors.Is(err, repository.ErrNotFound) {
		b.reply(ctx, chatID, messages.UnknownEvent)
		return
	}
	if err != nil {
		b.fail(ctx, chatID, "get_event", err)
		return
	}
	if !ev.Active() {
		b.reply(ctx, chatID, messages.EventClosed)
		return
	}
	url := b.links.Link(deeplink.ReferralLink(ev.Name, user.ID))
	b.reply(ctx, chatID, messages.ReferralLink(ev.Name, url))
}
