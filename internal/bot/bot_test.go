package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/deeplink"
	"clubbot/internal/ledger"
	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/notify"
	"clubbot/internal/qr"
	"clubbot/internal/referral"
	"clubbot/internal/registration"
	"clubbot/internal/repository"
	"clubbot/internal/router"
	"clubbot/internal/session"
	"clubbot/internal/testutil"
)

const (
	adminID   = 1000
	adminName = "boss"
	event     = "eventA"
)

type harness struct {
	bot       *Bot
	store     *repository.SQLStore
	messenger *testutil.Messenger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	store := testutil.NewStore(t)
	messenger := &testutil.Messenger{}
	sessions := session.NewMemoryStore(time.Hour)
	links := qr.NewRenderer("clubbot")
	refs := referral.New(store, messenger, log)
	reg := registration.New(store, sessions, refs, links, log)
	chk := checkin.New(store, ledger.New(store, log), refs, messenger, log)
	isAdmin := func(username string) bool { return username == adminName }

	b := New(Params{
		Transport:    messenger,
		Store:        store,
		Sessions:     sessions,
		Router:       router.New(store, isAdmin, reg, chk, log),
		Registration: reg,
		CheckIn:      chk,
		Referrals:    refs,
		Broadcaster:  notify.NewBroadcaster(messenger, log, 2),
		Links:        links,
		Log:          log,
	})
	require.NoError(t, store.CreateEvent(context.Background(), models.Event{Name: event, Place: "Покровка"}))
	return &harness{bot: b, store: store, messenger: messenger}
}

func (h *harness) command(userID int64, username, text string) {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID, UserName: username},
		Chat:     &tgbotapi.Chat{ID: userID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}})
}

func (h *harness) text(userID int64, text string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}})
}

func (h *harness) press(userID int64, username, data string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID, UserName: username},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}})
}

func (h *harness) last(t *testing.T, chatID int64) testutil.Sent {
	t.Helper()
	s, ok := h.messenger.Last(chatID)
	require.True(t, ok, "no message to %d", chatID)
	return s
}

func TestRegistrationConversation(t *testing.T) {
	h := newHarness(t)

	h.command(10, "u", "/start reg_eventA_1")
	confirm := h.last(t, 10)
	assert.Contains(t, confirm.Text, "Подтверждаете регистрацию?")
	require.Len(t, confirm.Keyboard, 1)
	assert.Equal(t, deeplink.EventYes, confirm.Keyboard[0][0].Data)

	h.press(10, "u", deeplink.EventYes)
	assert.Equal(t, messages.AskHSE, h.last(t, 10).Text)

	h.press(10, "u", deeplink.HSENo)
	assert.Equal(t, messages.ProfilePrompt(models.FieldName), h.last(t, 10).Text)

	for _, answer := range []string{"Иван", "Иванов", "Иванович", "+79991234567", "ivan@example.com"} {
		h.text(10, answer)
	}
	h.text(10, "ВШЭ")

	issued := h.last(t, 10)
	assert.Equal(t, messages.RegistrationDone, issued.Text)
	assert.NotEmpty(t, issued.Photo)

	h.command(10, "u", "/start reg_eventA_1")
	again := h.last(t, 10)
	assert.Equal(t, messages.AlreadyRegistered(event), again.Text)
	require.Len(t, again.Keyboard, 1)

	h.press(10, "u", again.Keyboard[0][0].Data)
	assert.Contains(t, h.last(t, 10).Text, "https://t.me/clubbot?start=ref_eventA__10")
}

func TestCancelKeywordStopsCollection(t *testing.T) {
	h := newHarness(t)

	h.command(10, "u", "/start reg_eventA_1")
	h.press(10, "u", deeplink.EventYes)
	h.press(10, "u", deeplink.HSENo)

	h.text(10, "Отмена")
	assert.Equal(t, messages.Cancelled, h.last(t, 10).Text)

	h.text(10, "Иван")
	assert.Equal(t, messages.Welcome, h.last(t, 10).Text)

	h.command(10, "u", "/cancel")
	assert.Equal(t, messages.Nothing, h.last(t, 10).Text)

	_, err := h.store.GetRegistration(context.Background(), 10, event)
	assert.NoError(t, err)
}

func TestMalformedDeepLink(t *testing.T) {
	h := newHarness(t)

	h.command(10, "u", "/start qr_10")
	assert.Equal(t, messages.InvalidCode, h.last(t, 10).Text)
}

func TestAdminCommandsRequireSuperuser(t *testing.T) {
	h := newHarness(t)

	h.command(10, "u", "/newevent auto;d;12.05.2024;18:00;room")
	assert.Equal(t, messages.AdminOnly, h.last(t, 10).Text)

	h.command(adminID, adminName, "/newevent auto;Нетворкинг;12.05.2024;18:00;Покровка, R205")
	assert.Contains(t, h.last(t, adminID).Text, "https://t.me/clubbot?start=reg_event12_5_24_1")

	ev, err := h.store.GetEvent(context.Background(), "event12_5_24")
	require.NoError(t, err)
	assert.Equal(t, "Покровка, R205", ev.Place)

	h.command(adminID, adminName, "/newevent auto;x;12.05.2024;18:00;y")
	assert.Equal(t, messages.EventExists, h.last(t, adminID).Text)

	h.command(adminID, adminName, "/newevent auto;x;2024-05-12;18:00;y")
	assert.Equal(t, messages.BadDate, h.last(t, adminID).Text)
}

func TestFaceControlCheckIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.command(10, "u", "/start reg_eventA_1")
	h.press(10, "u", deeplink.EventYes)
	h.press(10, "u", deeplink.HSEYes)

	h.command(20, "door", "/start")
	h.command(adminID, adminName, "/addfc 20")
	assert.Equal(t, messages.RoleGranted, h.last(t, adminID).Text)

	h.command(20, "door", "/start qr_10_eventA")
	approve := h.last(t, 20)
	require.Len(t, approve.Keyboard, 1)
	assert.Equal(t, deeplink.VerifyData(10, event, true), approve.Keyboard[0][0].Data)

	h.command(30, "stranger", "/start qr_10_eventA")
	assert.Equal(t, messages.NotYourCode, h.last(t, 30).Text)

	h.press(30, "stranger", deeplink.VerifyData(10, event, true))
	assert.Equal(t, messages.AdminOnly, h.last(t, 30).Text)

	h.press(20, "door", deeplink.VerifyData(10, event, true))
	assert.Contains(t, h.last(t, 20).Text, "Вход подтверждён")
	assert.Equal(t, messages.CheckedIn(event), h.last(t, 10).Text)

	h.command(20, "door", "/start qr_10_eventA")
	assert.Contains(t, h.last(t, 20).Text, "уже использован")

	u, err := h.store.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Money)

	h.command(10, "u", "/me")
	assert.Contains(t, h.last(t, 10).Text, "Монеты: 1")
}

func TestEventWideDraw(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.command(adminID, adminName, "/start")
	for _, id := range []int64{10, 11} {
		_, err := h.store.CreateUserIfAbsent(ctx, models.User{ID: id})
		require.NoError(t, err)
		_, err = h.store.CreateRegistrationIfAbsent(ctx, models.Registration{UserID: id, EventName: event})
		require.NoError(t, err)
		_, err = h.store.MarkAttended(ctx, id, event)
		require.NoError(t, err)
	}

	h.press(adminID, adminName, deeplink.Confirm)
	assert.Equal(t, messages.NoDrawPending, h.last(t, adminID).Text)

	h.command(adminID, adminName, "/draw eventA")
	first := h.last(t, adminID)
	require.Len(t, first.Keyboard, 1)

	h.press(adminID, adminName, deeplink.Reroll)
	second := h.last(t, adminID)
	assert.NotEqual(t, first.Text, second.Text)

	h.press(adminID, adminName, deeplink.Confirm)
	assert.Equal(t, messages.WinnerSaved, h.last(t, adminID).Text)

	ev, err := h.store.GetEvent(ctx, event)
	require.NoError(t, err)
	require.NotNil(t, ev.WinnerID)
	assert.Equal(t, messages.DrawWinner(event), h.last(t, *ev.WinnerID).Text)
}

func TestEndEvent(t *testing.T) {
	h := newHarness(t)

	h.command(10, "u", "/start reg_eventA_1")
	h.command(adminID, adminName, "/endevent eventA")
	assert.Equal(t, messages.EventEnded(event, 1), h.last(t, adminID).Text)

	h.command(adminID, adminName, "/endevent eventA")
	assert.Equal(t, messages.EventIsOver, h.last(t, adminID).Text)

	h.command(adminID, adminName, "/endevent nope")
	assert.Equal(t, messages.UnknownEvent, h.last(t, adminID).Text)
}

func TestBroadcast(t *testing.T) {
	h := newHarness(t)
	for _, id := range []int64{10, 11, 12} {
		h.command(id, "", "/start")
	}
	h.command(adminID, adminName, "/broadcast Встреча завтра")
	h.bot.broadcasts.Wait()

	for _, id := range []int64{10, 11, 12} {
		assert.Equal(t, "Встреча завтра", h.last(t, id).Text)
	}
	assert.Equal(t, messages.BroadcastProgress(4, 4, 0), h.last(t, adminID).Text)
}

func TestRunProcessesUpdates(t *testing.T) {
	h := newHarness(t)
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 10},
		Chat: &tgbotapi.Chat{ID: 10},
		Text: "привет",
	}}
	close(updates)

	h.bot.Run(context.Background(), updates)
	assert.Equal(t, messages.Welcome, h.last(t, 10).Text)
}
