package repository

import (
	"context"
	"fmt"
	"time"

	"clubbot/internal/models"
)

// GetRegistration returns the (user, event) registration or ErrNotFound.
func (r *SQLStore) GetRegistration(ctx context.Context, userID int64, event string) (*models.Registration, error) {
	var reg models.Registration
	err := r.get(ctx, &reg,
		`SELECT user_id, event_name, status, first_contact, created_at FROM registrations
		 WHERE user_id = ? AND event_name = ?`, userID, event)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CreateRegistrationIfAbsent inserts a registration with status reg. The
// primary key on (user_id, event_name) makes concurrent attempts safe: only
// one of them reports created.
func (r *SQLStore) CreateRegistrationIfAbsent(ctx context.Context, reg models.Registration) (bool, error) {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	if reg.FirstContact == "" {
		reg.FirstContact = models.NoReferral
	}
	created, err := r.insertIfAbsent(ctx,
		`INSERT INTO registrations (user_id, event_name, status, first_contact, created_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (user_id, event_name) DO NOTHING`,
		reg.UserID, reg.EventName, models.StatusRegistered, reg.FirstContact, reg.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create registration (%d, %q): %w", reg.UserID, reg.EventName, err)
	}
	return created, nil
}

// DeleteRegistration removes the (user, event) registration. Deleting a missing row is not an error.
func (r *SQLStore) DeleteRegistration(ctx context.Context, userID int64, event string) error {
	_, err := r.exec(ctx, `DELETE FROM registrations WHERE user_id = ? AND event_name = ?`, userID, event)
	return err
}

// MarkAttended transitions a registration from reg to been. It reports false
// when the row was not in status reg, so the transition fires at most once.
func (r *SQLStore) MarkAttended(ctx context.Context, userID int64, event string) (bool, error) {
	res, err := r.exec(ctx,
		`UPDATE registrations SET status = ? WHERE user_id = ? AND event_name = ? AND status = ?`,
		models.StatusBeen, userID, event, models.StatusRegistered)
	if err != nil {
		return false, fmt.Errorf("mark attended (%d, %q): %w", userID, event, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListRegistered returns the users whose registration for the event is still reg.
func (r *SQLStore) ListRegistered(ctx context.Context, event string) ([]int64, error) {
	return r.selectIDs(ctx,
		`SELECT user_id FROM registrations WHERE event_name = ? AND status = ? ORDER BY user_id`,
		event, models.StatusRegistered)
}

// ExpireRegistrations moves every still-reg row of the event to nbeen and
// returns the affected user ids.
func (r *SQLStore) ExpireRegistrations(ctx context.Context, event string) ([]int64, error) {
	ids, err := r.selectIDs(ctx,
		`UPDATE registrations SET status = ? WHERE event_name = ? AND status = ? RETURNING user_id`,
		models.StatusNotBeen, event, models.StatusRegistered)
	if err != nil {
		return nil, fmt.Errorf("expire registrations %q: %w", event, err)
	}
	return ids, nil
}

// ListAttendees returns the users checked in to the event.
func (r *SQLStore) ListAttendees(ctx context.Context, event string) ([]int64, error) {
	return r.selectIDs(ctx,
		`SELECT user_id FROM registrations WHERE event_name = ? AND status = ? ORDER BY user_id`,
		event, models.StatusBeen)
}
