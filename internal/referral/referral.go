// Package referral keeps track of who invited whom, which users host a
// sub-giveaway for an event, and draws giveaway winners.
package referral

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/notify"
	"clubbot/internal/repository"
)

// ErrNoParticipants is returned by draws when nobody is eligible.
var ErrNoParticipants = errors.New("no participants")

// ErrNotHost is returned when a host-only action is invoked by someone else.
var ErrNotHost = errors.New("not a giveaway host")

// Entry describes what happened to the referred user's giveaway entry.
type Entry int

const (
	EntryNone    Entry = iota // referrer does not host a giveaway for the event
	EntryCreated              // user entered the referrer's giveaway
	EntryTaken                // user already holds another host's entry
)

// Attribution is the outcome of a referral registration.
type Attribution struct {
	Entry        Entry
	Host         *models.GiveawayHost
	SelfReferral bool
}

// Store is the persistence needed by the referral ledger.
type Store interface {
	repository.GiveawayStore
	repository.RegistrationStore
	GetEvent(ctx context.Context, name string) (*models.Event, error)
	SetEventWinner(ctx context.Context, name string, userID int64) error
}

// Service is the Referral & Giveaway Ledger.
type Service struct {
	store     Store
	messenger notify.Messenger
	log       *zap.Logger
	pick      func(n int) int
}

// New creates a Service drawing winners uniformly at random.
func New(store Store, messenger notify.Messenger, log *zap.Logger) *Service {
	return &Service{store: store, messenger: messenger, log: log, pick: rand.IntN}
}

// Attribute records a referral registration of user for event. It must be
// called after the registration row was created. The referrer is always told
// that their link was used.
func (s *Service) Attribute(ctx context.Context, user *models.User, event string, referrerID int64) (Attribution, error) {
	var out Attribution
	if referrerID == user.ID {
		// Not guarded in the registration flow; surfaced for review.
		out.SelfReferral = true
		s.log.Warn("self-referral", zap.Int64("user_id", user.ID), zap.String("event", event))
	}

	host, err := s.store.GetGiveawayHost(ctx, referrerID, event)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return out, fmt.Errorf("get giveaway host: %w", err)
	default:
		out.Host = host
		created, err := s.store.CreateRefGiveawayIfAbsent(ctx, models.RefGiveaway{
			UserID:    user.ID,
			EventName: event,
			HostID:    referrerID,
		})
		if err != nil {
			return out, err
		}
		if created {
			out.Entry = EntryCreated
		} else {
			out.Entry = EntryTaken
		}
	}

	notify.Deliver(ctx, s.messenger, s.log, referrerID, messages.ReferralUsed(user.Username, event))
	return out, nil
}

// Withdraw removes the user's giveaway entry for the event, if any.
func (s *Service) Withdraw(ctx context.Context, userID int64, event string) error {
	if err := s.store.DeleteRefGiveaway(ctx, userID, event); err != nil {
		return fmt.Errorf("withdraw giveaway (%d, %q): %w", userID, event, err)
	}
	return nil
}

// IsHost reports whether the user hosts a giveaway for the event.
func (s *Service) IsHost(ctx context.Context, userID int64, event string) (bool, error) {
	_, err := s.store.GetGiveawayHost(ctx, userID, event)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddHost authorizes a user to run a referral giveaway for an existing event.
func (s *Service) AddHost(ctx context.Context, h models.GiveawayHost) error {
	if _, err := s.store.GetEvent(ctx, h.EventName); err != nil {
		return fmt.Errorf("add host for %q: %w", h.EventName, err)
	}
	return s.store.AddGiveawayHost(ctx, h)
}

// DrawHostWinner picks a winner among the host's giveaway entrants who attended.
// exclude, when non-zero, is skipped as long as another candidate exists.
func (s *Service) DrawHostWinner(ctx context.Context, hostID int64, event string, exclude int64) (int64, error) {
	ok, err := s.IsHost(ctx, hostID, event)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotHost
	}
	ids, err := s.store.ListHostGiveawayAttendees(ctx, hostID, event)
	if err != nil {
		return 0, fmt.Errorf("list host giveaway attendees: %w", err)
	}
	return s.draw(ids, exclude)
}

// DrawEventWinner picks a winner among everyone who attended the event.
func (s *Service) DrawEventWinner(ctx context.Context, event string, exclude int64) (int64, error) {
	if _, err := s.store.GetEvent(ctx, event); err != nil {
		return 0, err
	}
	ids, err := s.store.ListAttendees(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("list attendees: %w", err)
	}
	return s.draw(ids, exclude)
}

// ConfirmWinner notifies the winner. For the event-wide giveaway (hostID 0)
// the winner is also stored on the event.
func (s *Service) ConfirmWinner(ctx context.Context, hostID int64, event string, winnerID int64) error {
	if hostID == 0 {
		if err := s.store.SetEventWinner(ctx, event, winnerID); err != nil {
			return fmt.Errorf("set event winner: %w", err)
		}
	}
	s.log.Info("giveaway winner confirmed",
		zap.String("event", event), zap.Int64("host_id", hostID), zap.Int64("user_id", winnerID))
	notify.Deliver(ctx, s.messenger, s.log, winnerID, messages.DrawWinner(event))
	return nil
}

func (s *Service) draw(ids []int64, exclude int64) (int64, error) {
	if exclude != 0 && len(ids) > 1 {
		filtered := ids[:0:0]
		for _, id := range ids {
			if id != exclude {
				filtered = append(filtered, id)
			}
		}
		ids = filtered
	}
	if len(ids) == 0 {
		return 0, ErrNoParticipants
	}
	return ids[s.pick(len(ids))], nil
}
