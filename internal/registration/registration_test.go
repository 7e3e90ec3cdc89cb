package registration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clubbot/internal/deeplink"
	"clubbot/internal/models"
	"clubbot/internal/qr"
	"clubbot/internal/referral"
	"clubbot/internal/registration"
	"clubbot/internal/repository"
	"clubbot/internal/session"
	"clubbot/internal/testutil"
)

type fixture struct {
	svc       *registration.Service
	store     *repository.SQLStore
	messenger *testutil.Messenger
	sessions  *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	messenger := &testutil.Messenger{}
	sessions := session.NewMemoryStore(time.Hour)
	refs := referral.New(store, messenger, zap.NewNop())
	svc := registration.New(store, sessions, refs, qr.NewRenderer("clubbot"), zap.NewNop())

	ctx := context.Background()
	require.NoError(t, store.CreateEvent(ctx, models.Event{Name: "eventA", Place: "Покровка"}))
	return &fixture{svc: svc, store: store, messenger: messenger, sessions: sessions}
}

func (f *fixture) user(t *testing.T, id int64, username string) *models.User {
	t.Helper()
	_, err := f.store.CreateUserIfAbsent(context.Background(), models.User{ID: id, Username: username})
	require.NoError(t, err)
	u, err := f.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

func parse(t *testing.T, raw string) deeplink.Payload {
	t.Helper()
	p, err := deeplink.Parse(raw)
	require.NoError(t, err)
	return p
}

func TestHappyPathMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 10, "u")

	out, err := f.svc.Start(ctx, u, parse(t, "reg_eventA_1"))
	require.NoError(t, err)
	assert.Equal(t, registration.KindConfirm, out.Kind)

	reg, err := f.store.GetRegistration(ctx, 10, "eventA")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistered, reg.Status)
	assert.Equal(t, "1", reg.FirstContact)

	out, err = f.svc.Confirm(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, registration.KindAskAffiliation, out.Kind)

	out, err = f.svc.Affiliation(ctx, 10, true)
	require.NoError(t, err)
	require.Equal(t, registration.KindIssued, out.Kind)
	require.NotNil(t, out.Code)
	assert.Equal(t, "qr_10_eventA", out.Code.Token)
	assert.NotEmpty(t, out.Code.PNG)

	_, ok, err := f.sessions.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSecondAttemptIsAlreadyRegistered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 10, "u")

	_, err := f.svc.Start(ctx, u, parse(t, "reg_eventA_1"))
	require.NoError(t, err)

	out, err := f.svc.Start(ctx, u, parse(t, "reg_eventA_2"))
	require.NoError(t, err)
	assert.Equal(t, registration.KindAlreadyRegistered, out.Kind)

	reg, err := f.store.GetRegistration(ctx, 10, "eventA")
	require.NoError(t, err)
	assert.Equal(t, "1", reg.FirstContact)
}

func TestStartRejectsUnknownAndEndedEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 10, "u")

	out, err := f.svc.Start(ctx, u, parse(t, "reg_nope_1"))
	require.NoError(t, err)
	assert.Equal(t, registration.KindUnknownEvent, out.Kind)

	require.NoError(t, f.store.EndEvent(ctx, "eventA"))
	out, err = f.svc.Start(ctx, u, parse(t, "reg_eventA_1"))
	require.NoError(t, err)
	assert.Equal(t, registration.KindEventClosed, out.Kind)

	_, err = f.store.GetRegistration(ctx, 10, "eventA")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeclineRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	host := f.user(t, 1, "host")
	u := f.user(t, 10, "u")
	require.NoError(t, f.store.AddGiveawayHost(ctx, models.GiveawayHost{UserID: host.ID, EventName: "eventA", OrgName: "Org"}))

	out, err := f.svc.Start(ctx, u, parse(t, "ref_eventA__1"))
	require.NoError(t, err)
	assert.Equal(t, referral.EntryCreated, out.Attribution.Entry)

	out, err = f.svc.Decline(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, registration.KindDeclined, out.Kind)

	_, err = f.store.GetRegistration(ctx, 10, "eventA")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.GetRefGiveaway(ctx, 10, "eventA")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConfirmAfterEventVanished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 10, "u")

	_, err := f.svc.Start(ctx, u, parse(t, "reg_eventA_1"))
	require.NoError(t, err)

	// Point the pending conversation at an event that no longer exists.
	st, ok, err := f.sessions.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, f.sessions.Set(ctx, 10, st.With("event", "deleted")))
	_, err = f.store.CreateRegistrationIfAbsent(ctx, models.Registration{UserID: 10, EventName: "deleted"})
	require.NoError(t, err)

	out, err := f.svc.Confirm(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, registration.KindEventGone, out.Kind)

	_, err = f.store.GetRegistration(ctx, 10, "deleted")
	assert.NoError(t, err)
}

func TestProfileCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 10, "u")

	_, err := f.svc.Start(ctx, u, parse(t, "reg_eventA_1"))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, 10)
	require.NoError(t, err)

	out, err := f.svc.Affiliation(ctx, 10, false)
	require.NoError(t, err)
	assert.Equal(t, registration.KindAskField, out.Kind)
	assert.Equal(t, models.FieldName, out.Field)

	answers := []struct {
		text string
		next models.ProfileField
	}{
		{"Иван", models.FieldSurname},
		{"Иванов", models.FieldPatronymic},
		{"Иванович", models.FieldPhone},
	}
	for _, a := range answers {
		out, err = f.svc.SubmitField(ctx, 10, a.text)
		require.NoError(t, err)
		require.Equal(t, registration.KindAskField, out.Kind)
		assert.Equal(t, a.next, out.Field)
	}

	out, err = f.svc.SubmitField(ctx, 10, "12345")
	require.NoError(t, err)
	assert.Equal(t, registration.KindInvalidField, out.Kind)
	assert.Equal(t, models.FieldPhone, out.Field)

	out, err = f.svc.SubmitField(ctx, 10, "8 (999) 123-45-67")
	require.NoError(t, err)
	assert.Equal(t, models.FieldEmail, out.Field)

	out, err = f.svc.SubmitField(ctx, 10, "Ivan@Example.com")
	require.NoError(t, err)
	assert.Equal(t, models.FieldOrganization, out.Field)

	out, err = f.svc.SubmitField(ctx, 10, "МГУ")
	require.NoError(t, err)
	assert.Equal(t, registration.KindIssued, out.Kind)

	p, err := f.store.GetProfile(ctx, 10)
	require.NoError(t, err)
	assert.True(t, p.Complete())
	assert.Equal(t, "+79991234567", p.Phone)
	assert.Equal(t, "ivan@example.com", p.Email)
}

func TestCompleteProfileSkipsCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, 10, "u")
	for field, v := range map[models.ProfileField]string{
		models.FieldName: "a", models.FieldSurname: "b", models.FieldPatronymic: "c",
		models.FieldPhone: "+79991234567", models.FieldEmail: "a@b.ru", models.FieldOrganization: "d",
	} {
		require.NoError(t, f.store.SetProfileField(ctx, 10, field, v))
	}

	_, err := f.svc.Start(ctx, u, parse(t, "reg_eventA_1"))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, 10)
	require.NoError(t, err)

	out, err := f.svc.Affiliation(ctx, 10, false)
	require.NoError(t, err)
	assert.Equal(t, registration.KindIssued, out.Kind)
}

func TestStaleCallbacksExpire(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.svc.Confirm(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, registration.KindExpired, out.Kind)

	out, err = f.svc.Affiliation(ctx, 10, true)
	require.NoError(t, err)
	assert.Equal(t, registration.KindExpired, out.Kind)

	collecting, err := f.svc.Collecting(ctx, 10)
	require.NoError(t, err)
	assert.False(t, collecting)
}
