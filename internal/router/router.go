// Package router classifies /start payloads and hands them to the component
// that owns them.
package router

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"clubbot/internal/checkin"
	"clubbot/internal/deeplink"
	"clubbot/internal/models"
	"clubbot/internal/registration"
	"clubbot/internal/repository"
)

// Sender identifies who opened the deep link.
type Sender struct {
	ID       int64
	Username string
}

// Result is the routed outcome. Exactly one of Registration and CheckIn is
// set for registration and check-in payloads.
type Result struct {
	Kind         deeplink.Kind
	Invalid      bool
	Event        string
	User         *models.User
	Registration *registration.Outcome
	CheckIn      *checkin.Outcome
}

// Registrar starts registrations.
type Registrar interface {
	Start(ctx context.Context, user *models.User, p deeplink.Payload) (registration.Outcome, error)
}

// Scanner handles check-in payloads.
type Scanner interface {
	Scan(ctx context.Context, actor *models.User, p deeplink.Payload) (checkin.Outcome, error)
}

// Router dispatches deep links.
type Router struct {
	users     repository.UserStore
	isAdmin   func(username string) bool
	registrar Registrar
	scanner   Scanner
	log       *zap.Logger
}

// New creates a Router. isAdmin decides which usernames are promoted to superuser.
func New(users repository.UserStore, isAdmin func(string) bool, registrar Registrar, scanner Scanner, log *zap.Logger) *Router {
	return &Router{users: users, isAdmin: isAdmin, registrar: registrar, scanner: scanner, log: log}
}

// Route parses raw and runs the matching flow. Malformed payloads are
// reported as Invalid before anything is read or written.
func (r *Router) Route(ctx context.Context, from Sender, raw string) (Result, error) {
	p, err := deeplink.Parse(raw)
	if errors.Is(err, deeplink.ErrMalformed) {
		r.log.Debug("malformed deep link", zap.Int64("user_id", from.ID), zap.String("payload", raw), zap.Error(err))
		return Result{Invalid: true}, nil
	}
	if err != nil {
		return Result{}, err
	}
	res := Result{Kind: p.Kind, Event: p.Event}

	if p.Kind == deeplink.KindCheckIn {
		actor, err := r.Actor(ctx, from)
		if err != nil {
			return res, err
		}
		res.User = actor
		out, err := r.scanner.Scan(ctx, actor, p)
		if err != nil {
			return res, fmt.Errorf("scan %q: %w", raw, err)
		}
		res.CheckIn = &out
		return res, nil
	}

	user, err := r.EnsureUser(ctx, from, raw)
	if err != nil {
		return res, err
	}
	res.User = user

	switch p.Kind {
	case deeplink.KindRegistration, deeplink.KindReferral:
		out, err := r.registrar.Start(ctx, user, p)
		if err != nil {
			return res, fmt.Errorf("start registration %q: %w", raw, err)
		}
		res.Registration = &out
	case deeplink.KindDefault:
		if p.Event == "" {
			return res, nil
		}
		out, err := r.scanner.Scan(ctx, user, p)
		if err != nil {
			return res, fmt.Errorf("scan %q: %w", raw, err)
		}
		res.CheckIn = &out
	}
	return res, nil
}

// EnsureUser returns the sender's user row, creating it on first contact.
// Configured admins are promoted to superuser.
func (r *Router) EnsureUser(ctx context.Context, from Sender, firstContact string) (*models.User, error) {
	admin := r.isAdmin(from.Username)
	created, err := r.users.CreateUserIfAbsent(ctx, models.User{
		ID:           from.ID,
		Username:     from.Username,
		IsSuperuser:  admin,
		FirstContact: firstContact,
	})
	if err != nil {
		return nil, err
	}
	if created {
		r.log.Info("new user", zap.Int64("user_id", from.ID), zap.String("first_contact", firstContact))
	}
	u, err := r.users.GetUser(ctx, from.ID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", from.ID, err)
	}
	if admin && !u.IsSuperuser {
		if err := r.users.SetSuperuser(ctx, u.ID, true); err != nil {
			return nil, fmt.Errorf("promote %d: %w", u.ID, err)
		}
		u.IsSuperuser = true
	}
	return u, nil
}

// Actor resolves the sender without creating a row.
func (r *Router) Actor(ctx context.Context, from Sender) (*models.User, error) {
	u, err := r.users.GetUser(ctx, from.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &models.User{ID: from.ID, Username: from.Username}
	case err != nil:
		return nil, fmt.Errorf("get user %d: %w", from.ID, err)
	}
	if r.isAdmin(from.Username) {
		u.IsSuperuser = true
	}
	return u, nil
}
