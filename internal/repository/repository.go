// Package repository persists users, events, registrations and the referral
// ledger. Every operation is addressed by natural key; nothing is cached
// between calls.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"clubbot/internal/models"
)

// ErrNotFound is returned when a row addressed by key does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a row that must be absent is already present.
var ErrAlreadyExists = errors.New("already exists")

// ErrConflict is returned when a status transition does not apply to the current row.
var ErrConflict = errors.New("status conflict")

// UserStore covers the User table.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUserIfAbsent(ctx context.Context, u models.User) (bool, error)
	AddMoney(ctx context.Context, id int64, delta int) error
	IncrementEventCount(ctx context.Context, id int64) error
	IncrementStreak(ctx context.Context, id int64) error
	ResetStreak(ctx context.Context, id int64) error
	IncrementReferralCount(ctx context.Context, id int64) error
	SetSuperuser(ctx context.Context, id int64, superuser bool) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// EventStore covers the Event table.
type EventStore interface {
	GetEvent(ctx context.Context, name string) (*models.Event, error)
	CreateEvent(ctx context.Context, ev models.Event) error
	EndEvent(ctx context.Context, name string) error
	SetEventWinner(ctx context.Context, name string, userID int64) error
}

// RegistrationStore covers the Registration (user x event) table.
type RegistrationStore interface {
	GetRegistration(ctx context.Context, userID int64, event string) (*models.Registration, error)
	CreateRegistrationIfAbsent(ctx context.Context, reg models.Registration) (bool, error)
	DeleteRegistration(ctx context.Context, userID int64, event string) error
	MarkAttended(ctx context.Context, userID int64, event string) (bool, error)
	ListRegistered(ctx context.Context, event string) ([]int64, error)
	ExpireRegistrations(ctx context.Context, event string) ([]int64, error)
	ListAttendees(ctx context.Context, event string) ([]int64, error)
}

// GiveawayStore covers hosts and referral giveaway entries.
type GiveawayStore interface {
	GetRefGiveaway(ctx context.Context, userID int64, event string) (*models.RefGiveaway, error)
	CreateRefGiveawayIfAbsent(ctx context.Context, g models.RefGiveaway) (bool, error)
	DeleteRefGiveaway(ctx context.Context, userID int64, event string) error
	GetGiveawayHost(ctx context.Context, userID int64, event string) (*models.GiveawayHost, error)
	AddGiveawayHost(ctx context.Context, h models.GiveawayHost) error
	ListHostGiveawayAttendees(ctx context.Context, hostID int64, event string) ([]int64, error)
}

// ProfileStore covers extended contact profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.RegEventProfile, error)
	SetProfileField(ctx context.Context, userID int64, field models.ProfileField, value string) error
}

// QRCodeStore covers the QR issuance audit trail.
type QRCodeStore interface {
	CreateQRCode(ctx context.Context, code models.QRCode) error
	MarkQRCodeUsed(ctx context.Context, userID int64, event string) error
}

// RoleStore covers the face-control delegation role.
type RoleStore interface {
	IsFaceControl(ctx context.Context, userID int64) (bool, error)
	GrantFaceControl(ctx context.Context, fc models.FaceControl) error
	RevokeFaceControl(ctx context.Context, userID int64) error
}

// Store is the full persistence contract consumed by the bot.
type Store interface {
	UserStore
	EventStore
	RegistrationStore
	GiveawayStore
	ProfileStore
	QRCodeStore
	RoleStore
	CreateTables(ctx context.Context) error
}

// SQLStore implements Store on top of sqlx. Queries are written with '?'
// placeholders and rebound for the active driver.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (r *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.db.Rebind(query), args...)
}

func (r *SQLStore) get(ctx context.Context, dest any, query string, args ...any) error {
	err := r.db.GetContext(ctx, dest, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *SQLStore) selectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return ids, nil
}

// execOne runs an update that must touch exactly one keyed row.
func (r *SQLStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// insertIfAbsent runs an INSERT ... ON CONFLICT DO NOTHING and reports whether a row was written.
func (r *SQLStore) insertIfAbsent(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
