package bot

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/deeplink"
	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/notify"
	"clubbot/internal/referral"
	"clubbot/internal/registration"
	"clubbot/internal/router"
)

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, chatID, text, nil)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb notify.Keyboard) {
	if err := b.transport.SendText(ctx, chatID, text, kb); err != nil {
		b.log.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// fail logs an internal error and answers with a generic text.
func (b *Bot) fail(ctx context.Context, chatID int64, op string, err error) {
	b.log.Error("handler failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	b.reply(ctx, chatID, messages.Internal)
}

func yesNo(yes, no string) notify.Keyboard {
	return notify.Keyboard{notify.Row(
		notify.Button{Text: messages.Yes, Data: yes},
		notify.Button{Text: messages.No, Data: no},
	)}
}

func (b *Bot) renderRoute(ctx context.Context, chatID int64, res router.Result) {
	switch {
	case res.Invalid:
		b.reply(ctx, chatID, messages.InvalidCode)
	case res.Registration != nil:
		b.renderRegistration(ctx, chatID, *res.Registration)
	case res.CheckIn != nil:
		b.renderCheckIn(ctx, chatID, res.User, *res.CheckIn)
	case res.Kind == deeplink.KindNetworking:
		b.reply(ctx, chatID, messages.Networking)
	case res.Kind == deeplink.KindRecruitment:
		b.reply(ctx, chatID, messages.Recruitment)
	default:
		b.reply(ctx, chatID, messages.Welcome)
	}
}

func (b *Bot) renderRegistration(ctx context.Context, chatID int64, out registration.Outcome) {
	switch out.Kind {
	case registration.KindUnknownEvent:
		b.reply(ctx, chatID, messages.UnknownEvent)
	case registration.KindEventClosed:
		b.reply(ctx, chatID, messages.EventClosed)
	case registration.KindAlreadyRegistered:
		b.send(ctx, chatID, messages.AlreadyRegistered(out.EventName), notify.Keyboard{
			notify.Row(notify.Button{Text: messages.GetRefButton, Data: deeplink.GetRefData(out.EventName)}),
		})
	case registration.KindConfirm:
		switch out.Attribution.Entry {
		case referral.EntryCreated:
			b.reply(ctx, chatID, messages.GiveawayEntered(out.Attribution.Host.OrgName))
		case referral.EntryTaken:
			b.reply(ctx, chatID, messages.GiveawayTaken)
		}
		b.send(ctx, chatID, messages.ConfirmRegistration(out.Event), yesNo(deeplink.EventYes, deeplink.EventNo))
	case registration.KindDeclined:
		b.reply(ctx, chatID, messages.Declined)
	case registration.KindEventGone:
		b.reply(ctx, chatID, messages.EventGone)
	case registration.KindAskAffiliation:
		b.send(ctx, chatID, messages.AskHSE, yesNo(deeplink.HSEYes, deeplink.HSENo))
	case registration.KindAskField:
		b.reply(ctx, chatID, messages.ProfilePrompt(out.Field))
	case registration.KindInvalidField:
		b.reply(ctx, chatID, messages.ProfileInvalid(out.Field))
	case registration.KindIssued:
		if err := b.transport.SendPhoto(ctx, chatID, out.Code.PNG, messages.RegistrationDone, nil); err != nil {
			b.log.Warn("qr delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	case registration.KindExpired:
		b.reply(ctx, chatID, messages.FlowExpired)
	}
}

func (b *Bot) renderCheckIn(ctx context.Context, chatID int64, actor *models.User, out checkin.Outcome) {
	switch out.Kind {
	case checkin.KindInvalidCode:
		b.reply(ctx, chatID, messages.InvalidCode)
	case checkin.KindNotRegistered:
		b.reply(ctx, chatID, messages.NotRegistered)
	case checkin.KindNotActive:
		b.reply(ctx, chatID, messages.NotActive)
	case checkin.KindAlreadyUsed:
		b.reply(ctx, chatID, messages.AlreadyUsed(out.Attendee, out.Event.Name))
	case checkin.KindNeedsApproval:
		b.send(ctx, chatID, messages.ApproveCheckIn(out.Attendee, out.Event), notify.Keyboard{notify.Row(
			notify.Button{Text: messages.AllowButton, Data: deeplink.VerifyData(out.Attendee.ID, out.Event.Name, true)},
			notify.Button{Text: messages.DenyButton, Data: deeplink.VerifyData(out.Attendee.ID, out.Event.Name, false)},
		)})
	case checkin.KindReminder:
		b.reply(ctx, chatID, messages.Reminder(out.Event))
	case checkin.KindNotYourCode:
		b.reply(ctx, chatID, messages.NotYourCode)
	case checkin.KindCheckedIn:
		if actor != nil && actor.ID == out.Attendee.ID {
			b.reply(ctx, chatID, messages.CheckedIn(out.Event.Name))
		} else {
			b.reply(ctx, chatID, messages.CheckInApproved(out.Attendee))
		}
	case checkin.KindDenied:
		b.reply(ctx, chatID, messages.CheckInReject)
	}
}

func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
