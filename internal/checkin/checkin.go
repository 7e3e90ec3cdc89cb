// Package checkin validates check-in codes, credits attendance and pays
// referral rewards. It also closes events and manages the face-control role.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"clubbot/internal/deeplink"
	"clubbot/internal/ledger"
	"clubbot/internal/messages"
	"clubbot/internal/models"
	"clubbot/internal/notify"
	"clubbot/internal/repository"
)

// ErrNotPrivileged is returned when an actor lacks the superuser or face-control role.
var ErrNotPrivileged = errors.New("not privileged")

// Kind is the result of a scan or an approval decision.
type Kind int

const (
	KindInvalidCode Kind = iota
	KindNotRegistered
	KindNotActive
	KindAlreadyUsed
	KindNeedsApproval
	KindReminder
	KindNotYourCode
	KindCheckedIn
	KindDenied
)

// Outcome describes a check-in step for the acting user.
type Outcome struct {
	Kind     Kind
	Attendee *models.User
	Event    *models.Event
}

// Store is the persistence used by check-in.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetEvent(ctx context.Context, name string) (*models.Event, error)
	EndEvent(ctx context.Context, name string) error
	GetRegistration(ctx context.Context, userID int64, event string) (*models.Registration, error)
	MarkAttended(ctx context.Context, userID int64, event string) (bool, error)
	MarkQRCodeUsed(ctx context.Context, userID int64, event string) error
	ListRegistered(ctx context.Context, event string) ([]int64, error)
	ExpireRegistrations(ctx context.Context, event string) ([]int64, error)
	repository.RoleStore
}

// Hosts tells giveaway hosts apart from ordinary referrers.
type Hosts interface {
	IsHost(ctx context.Context, userID int64, event string) (bool, error)
}

// Service is the check-in protocol.
type Service struct {
	store     Store
	ledger    *ledger.Ledger
	hosts     Hosts
	messenger notify.Messenger
	log       *zap.Logger
}

// New creates a Service.
func New(store Store, l *ledger.Ledger, hosts Hosts, messenger notify.Messenger, log *zap.Logger) *Service {
	return &Service{store: store, ledger: l, hosts: hosts, messenger: messenger, log: log}
}

// Scan handles a check-in payload opened by actor. A qr_ code is credited
// only after a privileged approval; a bare event token is the door poster
// and credits the actor directly.
func (s *Service) Scan(ctx context.Context, actor *models.User, p deeplink.Payload) (Outcome, error) {
	target := actor.ID
	if p.Kind == deeplink.KindCheckIn {
		target = p.UserID
	}

	out, reg, err := s.check(ctx, target, p.Event)
	if err != nil || reg == nil {
		return out, err
	}

	if p.Kind != deeplink.KindCheckIn {
		return s.credit(ctx, out, reg)
	}

	privileged, err := s.IsPrivileged(ctx, actor)
	if err != nil {
		return out, err
	}
	switch {
	case privileged:
		out.Kind = KindNeedsApproval
	case actor.ID == target:
		out.Kind = KindReminder
	default:
		s.log.Warn("foreign check-in code scanned",
			zap.Int64("actor_id", actor.ID), zap.Int64("user_id", target), zap.String("event", p.Event))
		out.Kind = KindNotYourCode
	}
	return out, nil
}

// Decide applies a privileged allow/deny decision. The checks are repeated
// because the state may have changed since the scan.
func (s *Service) Decide(ctx context.Context, actor *models.User, v deeplink.Verify) (Outcome, error) {
	privileged, err := s.IsPrivileged(ctx, actor)
	if err != nil {
		return Outcome{}, err
	}
	if !privileged {
		return Outcome{}, ErrNotPrivileged
	}

	out, reg, err := s.check(ctx, v.UserID, v.Event)
	if err != nil || reg == nil {
		return out, err
	}
	if !v.Allow {
		s.log.Info("check-in denied",
			zap.Int64("actor_id", actor.ID), zap.Int64("user_id", v.UserID), zap.String("event", v.Event))
		notify.Deliver(ctx, s.messenger, s.log, v.UserID, messages.CheckInDenied)
		out.Kind = KindDenied
		return out, nil
	}

	out, err = s.credit(ctx, out, reg)
	if err != nil || out.Kind != KindCheckedIn {
		return out, err
	}
	if actor.ID != v.UserID {
		notify.Deliver(ctx, s.messenger, s.log, v.UserID, messages.CheckedIn(v.Event))
	}
	return out, nil
}

// check runs the ordered state checks. It returns the registration only when
// the code may still be credited.
func (s *Service) check(ctx context.Context, userID int64, event string) (Outcome, *models.Registration, error) {
	var out Outcome
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		out.Kind = KindInvalidCode
		return out, nil, nil
	}
	if err != nil {
		return out, nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	ev, err := s.store.GetEvent(ctx, event)
	if errors.Is(err, repository.ErrNotFound) {
		out.Kind = KindInvalidCode
		return out, nil, nil
	}
	if err != nil {
		return out, nil, fmt.Errorf("get event %q: %w", event, err)
	}
	out.Attendee, out.Event = user, ev

	reg, err := s.store.GetRegistration(ctx, userID, event)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && reg.Status == models.StatusNotBeen) {
		out.Kind = KindNotRegistered
		return out, nil, nil
	}
	if err != nil {
		return out, nil, fmt.Errorf("get registration (%d, %q): %w", userID, event, err)
	}
	if !ev.Active() {
		out.Kind = KindNotActive
		return out, nil, nil
	}
	if reg.Status == models.StatusBeen {
		out.Kind = KindAlreadyUsed
		return out, nil, nil
	}
	return out, reg, nil
}

// credit performs the reg->been transition and everything gated on it.
func (s *Service) credit(ctx context.Context, out Outcome, reg *models.Registration) (Outcome, error) {
	done, err := s.store.MarkAttended(ctx, reg.UserID, reg.EventName)
	if err != nil {
		return out, err
	}
	if !done {
		out.Kind = KindAlreadyUsed
		return out, nil
	}
	if err := s.ledger.CreditAttendance(ctx, reg.UserID); err != nil {
		return out, err
	}
	s.log.Info("attendance credited", zap.Int64("user_id", reg.UserID), zap.String("event", reg.EventName))
	if err := s.store.MarkQRCodeUsed(ctx, reg.UserID, reg.EventName); err != nil {
		s.log.Warn("qr audit not updated", zap.Int64("user_id", reg.UserID),
			zap.String("event", reg.EventName), zap.Error(err))
	}

	if err := s.payReferral(ctx, out.Attendee, reg); err != nil {
		return out, err
	}
	out.Kind = KindCheckedIn
	return out, nil
}

// payReferral credits the referrer recorded in first_contact unless they host
// a giveaway for the event.
func (s *Service) payReferral(ctx context.Context, attendee *models.User, reg *models.Registration) error {
	referrerID, err := strconv.ParseInt(reg.FirstContact, 10, 64)
	if err != nil || referrerID <= 0 {
		return nil
	}
	if referrerID == attendee.ID {
		s.log.Warn("self-referral payout skipped", zap.Int64("user_id", attendee.ID), zap.String("event", reg.EventName))
		return nil
	}
	referrer, err := s.store.GetUser(ctx, referrerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get referrer %d: %w", referrerID, err)
	}
	host, err := s.hosts.IsHost(ctx, referrerID, reg.EventName)
	if err != nil {
		return err
	}
	if host {
		return nil
	}

	if err := s.ledger.CreditReferral(ctx, referrer.ID, attendee.ID); err != nil {
		return err
	}
	s.log.Info("referral paid",
		zap.Int64("referrer_id", referrer.ID), zap.Int64("user_id", attendee.ID), zap.String("event", reg.EventName))
	notify.Deliver(ctx, s.messenger, s.log, referrer.ID, messages.ReferrerPaid(attendee.Username, ledger.ReferrerMoney))
	notify.Deliver(ctx, s.messenger, s.log, attendee.ID, messages.ReferredBonus(ledger.ReferredBonusMoney))
	return nil
}

// CloseEvent ends the event, marks every unattended registration as missed
// and resets those users' streaks. It returns the number of no-shows.
//
// Streaks are reset while the rows are still reg, so a sweep that failed
// part way can be rerun on the already ended event.
func (s *Service) CloseEvent(ctx context.Context, event string) (int, error) {
	err := s.store.EndEvent(ctx, event)
	resumed := errors.Is(err, repository.ErrConflict)
	if err != nil && !resumed {
		return 0, fmt.Errorf("end event %q: %w", event, err)
	}
	pending, err := s.store.ListRegistered(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("list registered %q: %w", event, err)
	}
	if resumed && len(pending) == 0 {
		return 0, fmt.Errorf("end event %q: %w", event, repository.ErrConflict)
	}

	var errs []error
	for _, id := range pending {
		err := s.ledger.UpdateStreak(ctx, id, true)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.log.Warn("no-show without user row", zap.Int64("user_id", id), zap.String("event", event))
		case err != nil:
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return 0, fmt.Errorf("close %q: %w", event, errors.Join(errs...))
	}

	ids, err := s.store.ExpireRegistrations(ctx, event)
	if err != nil {
		return 0, err
	}
	s.log.Info("event closed", zap.String("event", event), zap.Int("no_shows", len(ids)), zap.Bool("resumed", resumed))
	return len(ids), nil
}

// IsPrivileged reports whether actor may approve check-ins.
func (s *Service) IsPrivileged(ctx context.Context, actor *models.User) (bool, error) {
	if actor.IsSuperuser {
		return true, nil
	}
	ok, err := s.store.IsFaceControl(ctx, actor.ID)
	if err != nil {
		return false, fmt.Errorf("check face control %d: %w", actor.ID, err)
	}
	return ok, nil
}

// GrantFaceControl delegates check-in approval to userID. Only superusers may grant it.
func (s *Service) GrantFaceControl(ctx context.Context, actor *models.User, userID int64) error {
	if !actor.IsSuperuser {
		return ErrNotPrivileged
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("grant face control to %d: %w", userID, err)
	}
	if err := s.store.GrantFaceControl(ctx, models.FaceControl{
		UserID:    userID,
		GrantedBy: actor.ID,
		GrantedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	s.log.Info("face control granted", zap.Int64("user_id", userID), zap.Int64("granted_by", actor.ID))
	return nil
}

// RevokeFaceControl removes the delegation. Only superusers may revoke it.
func (s *Service) RevokeFaceControl(ctx context.Context, actor *models.User, userID int64) error {
	if !actor.IsSuperuser {
		return ErrNotPrivileged
	}
	if err := s.store.RevokeFaceControl(ctx, userID); err != nil {
		return fmt.Errorf("revoke face control from %d: %w", userID, err)
	}
	s.log.Info("face control revoked", zap.Int64("user_id", userID), zap.Int64("revoked_by", actor.ID))
	return nil
}
