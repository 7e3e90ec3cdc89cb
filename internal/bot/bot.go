// Package bot turns Telegram updates into calls to the club's services and
// renders their outcomes as chat messages.
package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/notify"
	"clubbot/internal/qr"
	"clubbot/internal/referral"
	"clubbot/internal/registration"
	"clubbot/internal/repository"
	"clubbot/internal/router"
	"clubbot/internal/session"
)

const (
	workers   = 8
	queueSize = 64
)

// Transport is the outgoing side of the chat platform.
type Transport interface {
	notify.Messenger
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Params struct {
	fx.In

	Transport    Transport
	Store        repository.Store
	Sessions     session.Store
	Router       *router.Router
	Registration *registration.Service
	CheckIn      *checkin.Service
	Referrals    *referral.Service
	Broadcaster  *notify.Broadcaster
	Links        *qr.Renderer
	Log          *zap.Logger
}

// Bot handles updates. Updates of one user are processed in order; different
// users are served concurrently.
type Bot struct {
	transport    Transport
	store        repository.Store
	sessions     session.Store
	router       *router.Router
	registration *registration.Service
	checkin      *checkin.Service
	referrals    *referral.Service
	broadcaster  *notify.Broadcaster
	links        *qr.Renderer
	log          *zap.Logger

	broadcasts sync.WaitGroup
}

func New(p Params) *Bot {
	return &Bot{
		transport:    p.Transport,
		store:        p.Store,
		sessions:     p.Sessions,
		router:       p.Router,
		registration: p.Registration,
		checkin:      p.CheckIn,
		referrals:    p.Referrals,
		broadcaster:  p.Broadcaster,
		links:        p.Links,
		log:          p.Log.Named("bot"),
	}
}

// Run consumes updates until ctx is done or the channel is closed, then waits
// for in-flight updates and broadcasts.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	queues := make([]chan tgbotapi.Update, workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, queueSize)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for u := range q {
				b.HandleUpdate(ctx, u)
			}
		}(queues[i])
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case u, ok := <-updates:
			if !ok {
				break loop
			}
			queues[shard(u)] <- u
		}
	}

	for _, q := range queues {
		close(q)
	}
	wg.Wait()
	b.broadcasts.Wait()
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("update handler panicked", zap.Int("update_id", u.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func shard(u tgbotapi.Update) int {
	var id int64
	if from := u.SentFrom(); from != nil {
		id = from.ID
	}
	if id < 0 {
		id = -id
	}
	return int(id % workers)
}

func sender(u *tgbotapi.User) router.Sender {
	return router.Sender{ID: u.ID, Username: u.UserName}
}
