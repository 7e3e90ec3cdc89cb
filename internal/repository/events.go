package repository

import (
	"context"
	"fmt"
	"time"

	"clubbot/internal/models"
)

// GetEvent returns the event with the given name or ErrNotFound.
func (r *SQLStore) GetEvent(ctx context.Context, name string) (*models.Event, error) {
	var ev models.Event
	err := r.get(ctx, &ev,
		`SELECT name, description, date, time, place, status, winner_id, created_at FROM events WHERE name = ?`, name)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// CreateEvent adds a new in-progress event. It returns ErrAlreadyExists when the name is taken.
func (r *SQLStore) CreateEvent(ctx context.Context, ev models.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	created, err := r.insertIfAbsent(ctx,
		`INSERT INTO events (name, description, date, time, place, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (name) DO NOTHING`,
		ev.Name, ev.Description, ev.Date, ev.Time, ev.Place, models.EventInProgress, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event %q: %w", ev.Name, err)
	}
	if !created {
		return ErrAlreadyExists
	}
	return nil
}

// EndEvent moves an event from in_progress to end. The transition happens at
// most once: ending an already ended event returns ErrConflict.
func (r *SQLStore) EndEvent(ctx context.Context, name string) error {
	res, err := r.exec(ctx, `UPDATE events SET status = ? WHERE name = ? AND status = ?`,
		models.EventEnded, name, models.EventInProgress)
	if err != nil {
		return fmt.Errorf("end event %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := r.GetEvent(ctx, name); err != nil {
		return err
	}
	return ErrConflict
}

// SetEventWinner records the confirmed giveaway winner of an event.
func (r *SQLStore) SetEventWinner(ctx context.Context, name string, userID int64) error {
	return r.execOne(ctx, `UPDATE events SET winner_id = ? WHERE name = ?`, userID, name)
}
