package repository

import (
	"context"
	"fmt"
	"time"

	"clubbot/internal/models"
)

// GetRefGiveaway returns the giveaway entry of a user for an event or ErrNotFound.
func (r *SQLStore) GetRefGiveaway(ctx context.Context, userID int64, event string) (*models.RefGiveaway, error) {
	var g models.RefGiveaway
	err := r.get(ctx, &g,
		`SELECT user_id, event_name, host_id, created_at FROM ref_giveaways WHERE user_id = ? AND event_name = ?`,
		userID, event)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateRefGiveawayIfAbsent enters the user into a host's giveaway unless they
// already hold an entry for the event.
func (r *SQLStore) CreateRefGiveawayIfAbsent(ctx context.Context, g models.RefGiveaway) (bool, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	created, err := r.insertIfAbsent(ctx,
		`INSERT INTO ref_giveaways (user_id, event_name, host_id, created_at)
		 VALUES (?, ?, ?, ?) ON CONFLICT (user_id, event_name) DO NOTHING`,
		g.UserID, g.EventName, g.HostID, g.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create ref giveaway (%d, %q): %w", g.UserID, g.EventName, err)
	}
	return created, nil
}

// DeleteRefGiveaway removes a giveaway entry. Deleting a missing row is not an error.
func (r *SQLStore) DeleteRefGiveaway(ctx context.Context, userID int64, event string) error {
	_, err := r.exec(ctx, `DELETE FROM ref_giveaways WHERE user_id = ? AND event_name = ?`, userID, event)
	return err
}

// GetGiveawayHost returns the host record or ErrNotFound when the user does not host the event.
func (r *SQLStore) GetGiveawayHost(ctx context.Context, userID int64, event string) (*models.GiveawayHost, error) {
	var h models.GiveawayHost
	err := r.get(ctx, &h,
		`SELECT user_id, event_name, org_name FROM giveaway_hosts WHERE user_id = ? AND event_name = ?`,
		userID, event)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// AddGiveawayHost registers a host for an event, replacing the organization name if present.
func (r *SQLStore) AddGiveawayHost(ctx context.Context, h models.GiveawayHost) error {
	_, err := r.exec(ctx,
		`INSERT INTO giveaway_hosts (user_id, event_name, org_name) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, event_name) DO UPDATE SET org_name = excluded.org_name`,
		h.UserID, h.EventName, h.OrgName)
	if err != nil {
		return fmt.Errorf("add giveaway host (%d, %q): %w", h.UserID, h.EventName, err)
	}
	return nil
}

// ListHostGiveawayAttendees returns users entered into the host's giveaway who checked in.
func (r *SQLStore) ListHostGiveawayAttendees(ctx context.Context, hostID int64, event string) ([]int64, error) {
	return r.selectIDs(ctx,
		`SELECT g.user_id FROM ref_giveaways g
		 JOIN registrations reg ON reg.user_id = g.user_id AND reg.event_name = g.event_name
		 WHERE g.host_id = ? AND g.event_name = ? AND reg.status = ?
		 ORDER BY g.user_id`,
		hostID, event, models.StatusBeen)
}
