package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clubbot/internal/deeplink"
	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/notify"
	"clubbot/internal/referral"
	"clubbot/internal/repository"
	"clubbot/internal/session"
)

const (
	keyEvent     = "event"
	keyHost      = "host"
	keyCandidate = "candidate"
)

// handleDraw draws the event-wide giveaway among everyone who attended.
func (b *Bot) handleDraw(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	event := strings.TrimSpace(msg.CommandArguments())
	if event == "" {
		b.reply(ctx, msg.Chat.ID, messages.UsageDraw)
		return
	}
	b.draw(ctx, msg.Chat.ID, user.ID, event, 0, 0)
}

// handleHostDraw draws the caller's own referral giveaway.
func (b *Bot) handleHostDraw(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	event := strings.TrimSpace(msg.CommandArguments())
	if event == "" {
		b.reply(ctx, msg.Chat.ID, messages.UsageHostDraw)
		return
	}
	b.draw(ctx, msg.Chat.ID, user.ID, event, user.ID, 0)
}

// draw picks a candidate and keeps it in the organizer's session until it is
// confirmed or rerolled. hostID 0 selects the event-wide giveaway.
func (b *Bot) draw(ctx context.Context, chatID, organizerID int64, event string, hostID, exclude int64) {
	var (
		winner int64
		err    error
	)
	if hostID == 0 {
		winner, err = b.referrals.DrawEventWinner(ctx, event, exclude)
	} else {
		winner, err = b.referrals.DrawHostWinner(ctx, hostID, event, exclude)
	}
	switch {
	case errors.Is(err, referral.ErrNoParticipants):
		b.reply(ctx, chatID, messages.NoParticipant)
		return
	case errors.Is(err, referral.ErrNotHost):
		b.reply(ctx, chatID, messages.NotHost)
		return
	case errors.Is(err, repository.ErrNotFound):
		b.reply(ctx, chatID, messages.UnknownEvent)
		return
	case err != nil:
		b.fail(ctx, chatID, "draw", err)
		return
	}

	candidate, err := b.store.GetUser(ctx, winner)
	if err != nil {
		b.fail(ctx, chatID, "get_user", err)
		return
	}
	st := session.State{Flow: session.FlowDraw}.
		With(keyEvent, event).
		With(keyHost, strconv.FormatInt(hostID, 10)).
		With(keyCandidate, strconv.FormatInt(winner, 10))
	if err := b.sessions.Set(ctx, organizerID, st); err != nil {
		b.fail(ctx, chatID, "session", err)
		return
	}
	b.send(ctx, chatID, messages.DrawCandidate(candidate, event), notify.Keyboard{notify.Row(
		notify.Button{Text: messages.RerollButton, Data: deeplink.Reroll},
		notify.Button{Text: messages.ConfirmButton, Data: deeplink.Confirm},
	)})
}

// pendingDraw returns the organizer's draw in progress.
func (b *Bot) pendingDraw(ctx context.Context, organizerID int64) (event string, hostID, candidate int64, ok bool, err error) {
	st, found, err := b.sessions.Get(ctx, organizerID)
	if err != nil || !found || st.Flow != session.FlowDraw {
		return "", 0, 0, false, err
	}
	hostID, errHost := strconv.ParseInt(st.Get(keyHost), 10, 64)
	candidate, errCand := strconv.ParseInt(st.Get(keyCandidate), 10, 64)
	if errHost != nil || errCand != nil || st.Get(keyEvent) == "" {
		return "", 0, 0, false, nil
	}
	return st.Get(keyEvent), hostID, candidate, true, nil
}

func (b *Bot) reroll(ctx context.Context, chatID, organizerID int64) {
	event, hostID, candidate, ok, err := b.pendingDraw(ctx, organizerID)
	if err != nil {
		b.fail(ctx, chatID, "session", err)
		return
	}
	if !ok {
		b.reply(ctx, chatID, messages.NoDrawPending)
		return
	}
	b.draw(ctx, chatID, organizerID, event, hostID, candidate)
}

func (b *Bot) confirmWinner(ctx context.Context, chatID, organizerID int64) {
	event, hostID, candidate, ok, err := b.pendingDraw(ctx, organizerID)
	if err != nil {
		b.fail(ctx, chatID, "session", err)
		return
	}
	if !ok {
		b.reply(ctx, chatID, messages.NoDrawPending)
		return
	}
	if err := b.referrals.ConfirmWinner(ctx, hostID, event, candidate); err != nil {
		b.fail(ctx, chatID, "confirm_winner", err)
		return
	}
	if err := b.sessions.Clear(ctx, organizerID); err != nil {
		b.log.Warn("draw session not cleared", zap.Int64("user_id", organizerID), zap.Error(err))
	}
	b.reply(ctx, chatID, messages.WinnerSaved)
}
