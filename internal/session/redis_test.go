package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Hour)

	_, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	want := State{Flow: FlowRegistration, Step: 2}.With("event", "eventA").With("field", "3")
	require.NoError(t, store.Set(ctx, 1, want))
	assert.True(t, mr.Exists(Key(1)))
	assert.Equal(t, time.Hour, mr.TTL(Key(1)))

	got, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, FlowRegistration, got.Flow)
	assert.Equal(t, 2, got.Step)
	assert.Equal(t, "eventA", got.Get("event"))
	assert.Equal(t, "3", got.Get("field"))
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.Clear(ctx, 1))
	_, ok, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 30*time.Minute)
	require.NoError(t, store.Set(ctx, 7, State{Flow: FlowDraw}))

	mr.FastForward(31 * time.Minute)

	_, ok, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Hour)
	require.NoError(t, mr.Set(Key(3), "{not json"))

	_, _, err := store.Get(ctx, 3)
	assert.Error(t, err)
}
