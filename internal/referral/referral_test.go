package referral

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clubbot/internal/models"
	"clubbot/internal/repository"
	"clubbot/internal/testutil"
)

const event = "eventA"

func newService(t *testing.T) (*Service, *repository.SQLStore, *testutil.Messenger) {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewStore(t)
	messenger := &testutil.Messenger{}
	require.NoError(t, store.CreateEvent(ctx, models.Event{Name: event}))
	for _, id := range []int64{1, 2, 10, 11, 12} {
		_, err := store.CreateUserIfAbsent(ctx, models.User{ID: id})
		require.NoError(t, err)
	}
	return New(store, messenger, zap.NewNop()), store, messenger
}

func TestGiveawayExclusivity(t *testing.T) {
	ctx := context.Background()
	s, store, messenger := newService(t)
	require.NoError(t, s.AddHost(ctx, models.GiveawayHost{UserID: 1, EventName: event, OrgName: "First"}))
	require.NoError(t, s.AddHost(ctx, models.GiveawayHost{UserID: 2, EventName: event, OrgName: "Second"}))
	user := &models.User{ID: 10, Username: "u"}

	first, err := s.Attribute(ctx, user, event, 1)
	require.NoError(t, err)
	assert.Equal(t, EntryCreated, first.Entry)
	assert.Equal(t, "First", first.Host.OrgName)

	second, err := s.Attribute(ctx, user, event, 2)
	require.NoError(t, err)
	assert.Equal(t, EntryTaken, second.Entry)

	g, err := store.GetRefGiveaway(ctx, 10, event)
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.HostID)

	assert.Len(t, messenger.To(1), 1)
	assert.Len(t, messenger.To(2), 1)
}

func TestAttributeWithoutHost(t *testing.T) {
	ctx := context.Background()
	s, store, messenger := newService(t)

	out, err := s.Attribute(ctx, &models.User{ID: 10}, event, 11)
	require.NoError(t, err)
	assert.Equal(t, EntryNone, out.Entry)
	assert.Nil(t, out.Host)
	assert.Len(t, messenger.To(11), 1)

	_, err = store.GetRefGiveaway(ctx, 10, event)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSelfReferralIsFlagged(t *testing.T) {
	s, _, _ := newService(t)

	out, err := s.Attribute(context.Background(), &models.User{ID: 10}, event, 10)
	require.NoError(t, err)
	assert.True(t, out.SelfReferral)
}

func TestAddHostRequiresEvent(t *testing.T) {
	s, _, _ := newService(t)

	err := s.AddHost(context.Background(), models.GiveawayHost{UserID: 1, EventName: "nope"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDrawHostWinnerOnlyAmongAttendees(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newService(t)
	s.pick = func(n int) int { return 0 }
	require.NoError(t, s.AddHost(ctx, models.GiveawayHost{UserID: 1, EventName: event}))

	_, err := s.DrawHostWinner(ctx, 2, event, 0)
	assert.ErrorIs(t, err, ErrNotHost)

	for _, id := range []int64{10, 11} {
		_, err := store.CreateRegistrationIfAbsent(ctx, models.Registration{UserID: id, EventName: event})
		require.NoError(t, err)
		_, err = s.Attribute(ctx, &models.User{ID: id}, event, 1)
		require.NoError(t, err)
	}

	_, err = s.DrawHostWinner(ctx, 1, event, 0)
	assert.ErrorIs(t, err, ErrNoParticipants)

	done, err := store.MarkAttended(ctx, 11, event)
	require.NoError(t, err)
	require.True(t, done)

	winner, err := s.DrawHostWinner(ctx, 1, event, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(11), winner)

	// The only candidate is drawn again even when excluded.
	winner, err = s.DrawHostWinner(ctx, 1, event, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), winner)
}

func TestDrawEventWinnerReroll(t *testing.T) {
	ctx := context.Background()
	s, store, messenger := newService(t)
	s.pick = func(n int) int { return 0 }
	for _, id := range []int64{10, 11, 12} {
		_, err := store.CreateRegistrationIfAbsent(ctx, models.Registration{UserID: id, EventName: event})
		require.NoError(t, err)
		_, err = store.MarkAttended(ctx, id, event)
		require.NoError(t, err)
	}

	first, err := s.DrawEventWinner(ctx, event, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), first)

	second, err := s.DrawEventWinner(ctx, event, first)
	require.NoError(t, err)
	assert.Equal(t, int64(11), second)

	require.NoError(t, s.ConfirmWinner(ctx, 0, event, second))
	ev, err := store.GetEvent(ctx, event)
	require.NoError(t, err)
	require.NotNil(t, ev.WinnerID)
	assert.Equal(t, second, *ev.WinnerID)
	assert.Len(t, messenger.To(second), 1)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newService(t)
	require.NoError(t, s.AddHost(ctx, models.GiveawayHost{UserID: 1, EventName: event}))
	_, err := s.Attribute(ctx, &models.User{ID: 10}, event, 1)
	require.NoError(t, err)

	require.NoError(t, s.Withdraw(ctx, 10, event))
	require.NoError(t, s.Withdraw(ctx, 10, event))

	_, err = store.GetRefGiveaway(ctx, 10, event)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
