package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session"

// RedisStore keeps states in Redis so several bot replicas share conversations.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore whose keys expire after ttl.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Key returns "session:{userID}".
func Key(userID int64) string {
	return fmt.Sprintf("%s:%s", keyPrefix, strconv.FormatInt(userID, 10))
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (State, bool, error) {
	raw, err := r.rdb.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("get session %d: %w", userID, err)
	}
	var st State
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session %d: %w", userID, err)
	}
	return st, true, nil
}

func (r *RedisStore) Set(ctx context.Context, userID int64, st State) error {
	st.UpdatedAt = time.Now().UTC()
	raw, err := sonic.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}
	if err := r.rdb.Set(ctx, Key(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session %d: %w", userID, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("clear session %d: %w", userID, err)
	}
	return nil
}
