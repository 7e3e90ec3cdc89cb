package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const maxRetryAfter = 3

// Progress describes how far a broadcast got.
type Progress struct {
	Total  int
	Sent   int
	Failed int
}

// Done reports the number of recipients already processed.
func (p Progress) Done() int {
	return p.Sent + p.Failed
}

// Broadcaster sends one text to many recipients, one at a time.
type Broadcaster struct {
	messenger     Messenger
	log           *zap.Logger
	progressEvery int
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewBroadcaster creates a Broadcaster reporting progress every progressEvery recipients.
func NewBroadcaster(m Messenger, log *zap.Logger, progressEvery int) *Broadcaster {
	if progressEvery <= 0 {
		progressEvery = 25
	}
	return &Broadcaster{
		messenger:     m,
		log:           log,
		progressEvery: progressEvery,
		sleep:         sleepContext,
	}
}

// Run delivers text to every recipient. A failed recipient is counted and
// skipped; a RetryAfterError pauses the whole loop for the requested delay
// and the same recipient is tried again. report, when set, is called every
// progressEvery recipients and once at the end.
func (b *Broadcaster) Run(ctx context.Context, recipients []int64, text string, report func(Progress)) Progress {
	p := Progress{Total: len(recipients)}
	for _, id := range recipients {
		if b.send(ctx, id, text) {
			p.Sent++
		} else {
			p.Failed++
		}
		if ctx.Err() != nil {
			b.log.Warn("broadcast interrupted", zap.Int("done", p.Done()), zap.Int("total", p.Total))
			break
		}
		if report != nil && p.Done()%b.progressEvery == 0 && p.Done() < p.Total {
			report(p)
		}
	}
	b.log.Info("broadcast finished", zap.Int("sent", p.Sent), zap.Int("failed", p.Failed), zap.Int("total", p.Total))
	if report != nil {
		report(p)
	}
	return p
}

func (b *Broadcaster) send(ctx context.Context, id int64, text string) bool {
	for attempt := 0; ; attempt++ {
		err := b.messenger.SendText(ctx, id, text, nil)
		if err == nil {
			return true
		}
		var ra *RetryAfterError
		if !errors.As(err, &ra) || attempt >= maxRetryAfter {
			b.log.Warn("broadcast delivery failed", zap.Int64("chat_id", id), zap.Error(err))
			return false
		}
		b.log.Info("broadcast paused", zap.Int64("chat_id", id), zap.Duration("delay", ra.Delay))
		if err := b.sleep(ctx, ra.Delay); err != nil {
			return false
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
