package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/deeplink"
	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/notify"
	"clubbot/internal/repository"
)

const autoName = "auto"

// handleNewEvent handles /newevent name;description;dd.mm.yyyy;time;place.
func (b *Bot) handleNewEvent(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	parts := strings.Split(msg.CommandArguments(), ";")
	if len(parts) < 5 {
		b.reply(ctx, msg.Chat.ID, messages.UsageNewEvent)
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	ev := models.Event{
		Name:        parts[0],
		Description: parts[1],
		Date:        parts[2],
		Time:        parts[3],
		Place:       strings.Join(parts[4:], ";"),
		Status:      models.EventInProgress,
	}

	date, err := time.Parse("02.01.2006", ev.Date)
	if err != nil {
		b.reply(ctx, msg.Chat.ID, messages.BadDate)
		return
	}
	if strings.EqualFold(ev.Name, autoName) {
		ev.Name = deeplink.EventSlug(date)
	}
	if !deeplink.ValidEventName(ev.Name) {
		b.reply(ctx, msg.Chat.ID, messages.BadEventName)
		return
	}

	err = b.store.CreateEvent(ctx, ev)
	if errors.Is(err, repository.ErrAlreadyExists) {
		b.reply(ctx, msg.Chat.ID, messages.EventExists)
		return
	}
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "create_event", err)
		return
	}
	b.log.Info("event created", zap.String("event", ev.Name), zap.Int64("by", user.ID))
	b.reply(ctx, msg.Chat.ID, messages.EventCreated(&ev, b.links.Link(deeplink.RegistrationLink(ev.Name, 1))))
}

// handleEndEvent closes an event and applies the no-show penalty.
func (b *Bot) handleEndEvent(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	event := strings.TrimSpace(msg.CommandArguments())
	if event == "" {
		b.reply(ctx, msg.Chat.ID, messages.UsageEndEvent)
		return
	}
	n, err := b.checkin.CloseEvent(ctx, event)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		b.reply(ctx, msg.Chat.ID, messages.UnknownEvent)
	case errors.Is(err, repository.ErrConflict):
		b.reply(ctx, msg.Chat.ID, messages.EventIsOver)
	case err != nil:
		b.fail(ctx, msg.Chat.ID, "close_event", err)
	default:
		b.reply(ctx, msg.Chat.ID, messages.EventEnded(event, n))
	}
}

// handleRegLink hands out the n-th registration link of an event.
func (b *Bot) handleRegLink(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.reply(ctx, msg.Chat.ID, messages.UsageRegLink)
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		b.reply(ctx, msg.Chat.ID, messages.UsageRegLink)
		return
	}
	if _, err := b.store.GetEvent(ctx, args[0]); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			b.reply(ctx, msg.Chat.ID, messages.UnknownEvent)
			return
		}
		b.fail(ctx, msg.Chat.ID, "get_event", err)
		return
	}
	url := b.links.Link(deeplink.RegistrationLink(args[0], n))
	b.reply(ctx, msg.Chat.ID, messages.RegistrationLink(args[0], n, url))
}

// handleAddHost handles /addhost event userId organization.
func (b *Bot) handleAddHost(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 3 {
		b.reply(ctx, msg.Chat.ID, messages.UsageAddHost)
		return
	}
	hostID, ok := parseUserID(args[1])
	if !ok {
		b.reply(ctx, msg.Chat.ID, messages.UsageUserID)
		return
	}
	err := b.referrals.AddHost(ctx, models.GiveawayHost{
		UserID:    hostID,
		EventName: args[0],
		OrgName:   strings.Join(args[2:], " "),
	})
	if errors.Is(err, repository.ErrNotFound) {
		b.reply(ctx, msg.Chat.ID, messages.UnknownEvent)
		return
	}
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "add_host", err)
		return
	}
	b.log.Info("giveaway host added", zap.Int64("host_id", hostID), zap.String("event", args[0]), zap.Int64("by", user.ID))
	b.reply(ctx, msg.Chat.ID, messages.HostAdded)
}

func (b *Bot) handleAddFaceControl(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	id, ok := parseUserID(strings.TrimSpace(msg.CommandArguments()))
	if !ok {
		b.reply(ctx, msg.Chat.ID, messages.UsageUserID)
		return
	}
	err := b.checkin.GrantFaceControl(ctx, user, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		b.reply(ctx, msg.Chat.ID, messages.UserUnknown)
	case errors.Is(err, checkin.ErrNotPrivileged):
		b.reply(ctx, msg.Chat.ID, messages.AdminOnly)
	case err != nil:
		b.fail(ctx, msg.Chat.ID, "grant_face_control", err)
	default:
		b.reply(ctx, msg.Chat.ID, messages.RoleGranted)
	}
}

func (b *Bot) handleRemoveFaceControl(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	id, ok := parseUserID(strings.TrimSpace(msg.CommandArguments()))
	if !ok {
		b.reply(ctx, msg.Chat.ID, messages.UsageUserID)
		return
	}
	err := b.checkin.RevokeFaceControl(ctx, user, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		b.reply(ctx, msg.Chat.ID, messages.RoleMissing)
	case errors.Is(err, checkin.ErrNotPrivileged):
		b.reply(ctx, msg.Chat.ID, messages.AdminOnly)
	case err != nil:
		b.fail(ctx, msg.Chat.ID, "revoke_face_control", err)
	default:
		b.reply(ctx, msg.Chat.ID, messages.RoleRevoked)
	}
}

// handleBroadcast sends a text to every known user in the background and
// reports progress to the admin.
func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(ctx, msg.Chat.ID, messages.UsageBroadcast)
		return
	}
	ids, err := b.store.ListUserIDs(ctx)
	if err != nil {
		b.fail(ctx, msg.Chat.ID, "list_users", err)
		return
	}
	if len(ids) == 0 {
		b.reply(ctx, msg.Chat.ID, messages.NoRecipients)
		return
	}

	b.log.Info("broadcast started", zap.Int64("by", user.ID), zap.Int("recipients", len(ids)))
	b.reply(ctx, msg.Chat.ID, messages.BroadcastStarted(len(ids)))
	chatID := msg.Chat.ID
	b.broadcasts.Add(1)
	go func() {
		defer b.broadcasts.Done()
		b.broadcaster.Run(ctx, ids, text, func(p notify.Progress) {
			b.reply(ctx, chatID, messages.BroadcastProgress(p.Done(), p.Total, p.Failed))
		})
	}()
}
