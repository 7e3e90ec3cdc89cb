// Package ledger applies currency and streak changes to a single user row.
// Operations are not upserts: a missing user surfaces repository.ErrNotFound.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clubbot/internal/repository"
)

// Reward amounts credited on check-in and referral payout.
const (
	AttendanceMoney    = 1
	ReferrerMoney      = 2
	ReferredBonusMoney = 1
)

// Ledger wraps the counter columns of the users table.
type Ledger struct {
	users repository.UserStore
	log   *zap.Logger
}

// New creates a Ledger.
func New(users repository.UserStore, log *zap.Logger) *Ledger {
	return &Ledger{users: users, log: log}
}

// AddMoney changes the user's balance by delta.
func (l *Ledger) AddMoney(ctx context.Context, userID int64, delta int) error {
	if err := l.users.AddMoney(ctx, userID, delta); err != nil {
		return l.fail("add_money", userID, err)
	}
	return nil
}

// IncrementEventCount adds one attended event.
func (l *Ledger) IncrementEventCount(ctx context.Context, userID int64) error {
	if err := l.users.IncrementEventCount(ctx, userID); err != nil {
		return l.fail("increment_event_count", userID, err)
	}
	return nil
}

// UpdateStreak resets the streak to zero when reset is set and extends it by one otherwise.
func (l *Ledger) UpdateStreak(ctx context.Context, userID int64, reset bool) error {
	var err error
	if reset {
		err = l.users.ResetStreak(ctx, userID)
	} else {
		err = l.users.IncrementStreak(ctx, userID)
	}
	if err != nil {
		return l.fail("update_streak", userID, err)
	}
	return nil
}

// IncrementReferralCount adds one paid referral.
func (l *Ledger) IncrementReferralCount(ctx context.Context, userID int64) error {
	if err := l.users.IncrementReferralCount(ctx, userID); err != nil {
		return l.fail("increment_referral_count", userID, err)
	}
	return nil
}

// CreditAttendance applies the fixed check-in reward: one event, one streak step, one coin.
func (l *Ledger) CreditAttendance(ctx context.Context, userID int64) error {
	if err := l.IncrementEventCount(ctx, userID); err != nil {
		return err
	}
	if err := l.UpdateStreak(ctx, userID, false); err != nil {
		return err
	}
	return l.AddMoney(ctx, userID, AttendanceMoney)
}

// CreditReferral pays the referrer and the referred user for a completed referral.
func (l *Ledger) CreditReferral(ctx context.Context, referrerID, userID int64) error {
	if err := l.AddMoney(ctx, referrerID, ReferrerMoney); err != nil {
		return err
	}
	if err := l.IncrementReferralCount(ctx, referrerID); err != nil {
		return err
	}
	return l.AddMoney(ctx, userID, ReferredBonusMoney)
}

func (l *Ledger) fail(op string, userID int64, err error) error {
	l.log.Error("ledger update failed", zap.String("op", op), zap.Int64("user_id", userID), zap.Error(err))
	return fmt.Errorf("%s %d: %w", op, userID, err)
}
