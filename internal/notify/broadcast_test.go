package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedMessenger struct {
	sent  []int64
	errs  map[int64][]error
	calls map[int64]int
}

func (m *scriptedMessenger) SendText(_ context.Context, chatID int64, _ string, _ Keyboard) error {
	if m.calls == nil {
		m.calls = map[int64]int{}
	}
	n := m.calls[chatID]
	m.calls[chatID]++
	if errs := m.errs[chatID]; n < len(errs) && errs[n] != nil {
		return errs[n]
	}
	m.sent = append(m.sent, chatID)
	return nil
}

func (m *scriptedMessenger) SendPhoto(ctx context.Context, chatID int64, _ []byte, caption string, kb Keyboard) error {
	return m.SendText(ctx, chatID, caption, kb)
}

func TestBroadcastCountsFailures(t *testing.T) {
	m := &scriptedMessenger{errs: map[int64][]error{2: {errors.New("blocked by user")}}}
	b := NewBroadcaster(m, zap.NewNop(), 2)

	var reports []Progress
	p := b.Run(context.Background(), []int64{1, 2, 3, 4, 5}, "hi", func(p Progress) {
		reports = append(reports, p)
	})

	assert.Equal(t, Progress{Total: 5, Sent: 4, Failed: 1}, p)
	assert.Equal(t, []int64{1, 3, 4, 5}, m.sent)
	require.Len(t, reports, 3)
	assert.Equal(t, 2, reports[0].Done())
	assert.Equal(t, 4, reports[1].Done())
	assert.Equal(t, 5, reports[2].Done())
}

func TestBroadcastPausesOnRetryAfter(t *testing.T) {
	retry := &RetryAfterError{Delay: 3 * time.Second}
	m := &scriptedMessenger{errs: map[int64][]error{2: {retry, retry}}}
	b := NewBroadcaster(m, zap.NewNop(), 10)
	var slept []time.Duration
	b.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	p := b.Run(context.Background(), []int64{1, 2, 3}, "hi", nil)

	assert.Equal(t, 3, p.Sent)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, slept)
	assert.Equal(t, []int64{1, 2, 3}, m.sent)
}

func TestBroadcastGivesUpAfterRepeatedRetryAfter(t *testing.T) {
	retry := &RetryAfterError{Delay: time.Second}
	m := &scriptedMessenger{errs: map[int64][]error{1: {retry, retry, retry, retry, retry}}}
	b := NewBroadcaster(m, zap.NewNop(), 10)
	b.sleep = func(context.Context, time.Duration) error { return nil }

	p := b.Run(context.Background(), []int64{1, 2}, "hi", nil)

	assert.Equal(t, Progress{Total: 2, Sent: 1, Failed: 1}, p)
	assert.Equal(t, maxRetryAfter+1, m.calls[1])
}

func TestDeliverSwallowsErrors(t *testing.T) {
	m := &scriptedMessenger{errs: map[int64][]error{1: {errors.New("boom")}}}

	assert.False(t, Deliver(context.Background(), m, zap.NewNop(), 1, "hi"))
	assert.True(t, Deliver(context.Background(), m, zap.NewNop(), 1, "hi"))
}
