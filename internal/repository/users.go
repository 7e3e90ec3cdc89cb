package repository

import (
	"context"
	"fmt"
	"time"

	"clubbot/internal/models"
)

const userColumns = `id, username, is_superuser, money, streak, event_cnt, ref_cnt, first_contact, created_at`

// GetUser returns the user with the given Telegram id or ErrNotFound.
func (r *SQLStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := r.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUserIfAbsent inserts the user unless a row with the same id exists.
// FirstContact is therefore only recorded on the first interaction.
func (r *SQLStore) CreateUserIfAbsent(ctx context.Context, u models.User) (bool, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	created, err := r.insertIfAbsent(ctx,
		`INSERT INTO users (id, username, is_superuser, money, streak, event_cnt, ref_cnt, first_contact, created_at)
		 VALUES (?, ?, ?, 0, 0, 0, 0, ?, ?) ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Username, u.IsSuperuser, u.FirstContact, u.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create user %d: %w", u.ID, err)
	}
	return created, nil
}

// AddMoney adds delta to the user's balance.
func (r *SQLStore) AddMoney(ctx context.Context, id int64, delta int) error {
	return r.execOne(ctx, `UPDATE users SET money = money + ? WHERE id = ?`, delta, id)
}

// IncrementEventCount adds one attended event to the user.
func (r *SQLStore) IncrementEventCount(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET event_cnt = event_cnt + 1 WHERE id = ?`, id)
}

// IncrementStreak extends the user's attendance streak.
func (r *SQLStore) IncrementStreak(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET streak = streak + 1 WHERE id = ?`, id)
}

// ResetStreak sets the user's attendance streak to zero.
func (r *SQLStore) ResetStreak(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET streak = 0 WHERE id = ?`, id)
}

// IncrementReferralCount adds one paid referral to the user.
func (r *SQLStore) IncrementReferralCount(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET ref_cnt = ref_cnt + 1 WHERE id = ?`, id)
}

// SetSuperuser updates the superuser flag.
func (r *SQLStore) SetSuperuser(ctx context.Context, id int64, superuser bool) error {
	return r.execOne(ctx, `UPDATE users SET is_superuser = ? WHERE id = ?`, superuser, id)
}

// ListUserIDs returns every known user id, oldest first.
func (r *SQLStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.selectIDs(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}
