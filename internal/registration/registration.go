// Package registration drives the event registration conversation: confirm,
// state university affiliation, fill in a contact profile when needed, and
// receive a check-in QR code.
//
// Progress between updates lives in the session store. Persisted rows are
// only written on the transitions that own them.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clubbot/internal/deeplink"
	"clubbot/internal/models"
	"clubbot/internal/qr"
	"clubbot/internal/referral"
	"clubbot/internal/repository"
	"clubbot/internal/session"
)

// Step is a registration state held in the session.
type Step int

const (
	NoRegistration Step = iota
	PendingConfirmation
	AwaitingAffiliation
	CollectingProfile
)

const (
	keyEvent = "event"
	keyField = "field"
)

// Kind is what the conversation should show next.
type Kind int

const (
	KindUnknownEvent Kind = iota
	KindEventClosed
	KindAlreadyRegistered
	KindConfirm
	KindDeclined
	KindEventGone
	KindAskAffiliation
	KindAskField
	KindInvalidField
	KindIssued
	KindExpired
)

// Outcome is the result of a registration transition for the acting user.
type Outcome struct {
	Kind        Kind
	EventName   string
	Event       *models.Event
	Field       models.ProfileField
	Code        *qr.Code
	Attribution referral.Attribution
}

// Store is the persistence used by registration.
type Store interface {
	GetEvent(ctx context.Context, name string) (*models.Event, error)
	CreateRegistrationIfAbsent(ctx context.Context, reg models.Registration) (bool, error)
	DeleteRegistration(ctx context.Context, userID int64, event string) error
	repository.ProfileStore
	repository.QRCodeStore
}

// Referrals is the part of the referral ledger used on registration.
type Referrals interface {
	Attribute(ctx context.Context, user *models.User, event string, referrerID int64) (referral.Attribution, error)
	Withdraw(ctx context.Context, userID int64, event string) error
}

// Service is the registration state machine.
type Service struct {
	store     Store
	sessions  session.Store
	referrals Referrals
	renderer  *qr.Renderer
	validator *Validator
	log       *zap.Logger
	now       func() time.Time
}

// New creates a Service.
func New(store Store, sessions session.Store, referrals Referrals, renderer *qr.Renderer, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		sessions:  sessions,
		referrals: referrals,
		renderer:  renderer,
		validator: NewValidator(),
		log:       log,
		now:       time.Now,
	}
}

// Start handles a reg_ or ref_ deep link. A new registration row is created
// with the link's attribution token; an existing row is never touched.
func (s *Service) Start(ctx context.Context, user *models.User, p deeplink.Payload) (Outcome, error) {
	out := Outcome{EventName: p.Event}
	ev, err := s.store.GetEvent(ctx, p.Event)
	if errors.Is(err, repository.ErrNotFound) {
		out.Kind = KindUnknownEvent
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("get event %q: %w", p.Event, err)
	}
	out.Event = ev
	if !ev.Active() {
		out.Kind = KindEventClosed
		return out, nil
	}

	created, err := s.store.CreateRegistrationIfAbsent(ctx, models.Registration{
		UserID:       user.ID,
		EventName:    ev.Name,
		Status:       models.StatusRegistered,
		FirstContact: firstContact(p),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return out, fmt.Errorf("create registration (%d, %q): %w", user.ID, ev.Name, err)
	}
	if !created {
		out.Kind = KindAlreadyRegistered
		return out, nil
	}
	s.log.Info("registration started",
		zap.Int64("user_id", user.ID), zap.String("event", ev.Name), zap.String("via", p.Kind.String()))

	if p.Kind == deeplink.KindReferral {
		out.Attribution, err = s.referrals.Attribute(ctx, user, ev.Name, p.ReferrerID)
		if err != nil {
			return out, fmt.Errorf("attribute referral: %w", err)
		}
	}

	st := session.State{Flow: session.FlowRegistration, Step: int(PendingConfirmation)}.With(keyEvent, ev.Name)
	if err := s.sessions.Set(ctx, user.ID, st); err != nil {
		return out, err
	}
	out.Kind = KindConfirm
	return out, nil
}

// Decline rolls back a registration that was not confirmed yet.
func (s *Service) Decline(ctx context.Context, userID int64) (Outcome, error) {
	st, ok, err := s.current(ctx, userID, PendingConfirmation)
	if err != nil || !ok {
		return Outcome{Kind: KindExpired}, err
	}
	event := st.Get(keyEvent)
	if err := s.store.DeleteRegistration(ctx, userID, event); err != nil {
		return Outcome{}, fmt.Errorf("delete registration (%d, %q): %w", userID, event, err)
	}
	if err := s.referrals.Withdraw(ctx, userID, event); err != nil {
		return Outcome{}, err
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		return Outcome{}, err
	}
	s.log.Info("registration declined", zap.Int64("user_id", userID), zap.String("event", event))
	return Outcome{Kind: KindDeclined, EventName: event}, nil
}

// Confirm moves a pending registration to the affiliation question. A vanished
// event ends the conversation but keeps the registration row.
func (s *Service) Confirm(ctx context.Context, userID int64) (Outcome, error) {
	st, ok, err := s.current(ctx, userID, PendingConfirmation)
	if err != nil || !ok {
		return Outcome{Kind: KindExpired}, err
	}
	event := st.Get(keyEvent)
	ev, err := s.store.GetEvent(ctx, event)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("event vanished during registration", zap.Int64("user_id", userID), zap.String("event", event))
		return Outcome{Kind: KindEventGone, EventName: event}, s.sessions.Clear(ctx, userID)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("get event %q: %w", event, err)
	}
	st.Step = int(AwaitingAffiliation)
	if err := s.sessions.Set(ctx, userID, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: KindAskAffiliation, EventName: event, Event: ev}, nil
}

// Affiliation answers the university affiliation question. Members get their
// code right away; others are asked for the profile fields they have not filled yet.
func (s *Service) Affiliation(ctx context.Context, userID int64, member bool) (Outcome, error) {
	st, ok, err := s.current(ctx, userID, AwaitingAffiliation)
	if err != nil || !ok {
		return Outcome{Kind: KindExpired}, err
	}
	event := st.Get(keyEvent)
	if member {
		return s.Issue(ctx, userID, event)
	}

	profile, err := s.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		profile = &models.RegEventProfile{UserID: userID}
	case err != nil:
		return Outcome{}, fmt.Errorf("get profile %d: %w", userID, err)
	}
	next, ok := nextMissing(profile, 0)
	if !ok {
		return s.Issue(ctx, userID, event)
	}
	return s.ask(ctx, userID, st, next)
}

// SubmitField stores one profile answer and asks for the next missing field.
func (s *Service) SubmitField(ctx context.Context, userID int64, text string) (Outcome, error) {
	st, ok, err := s.current(ctx, userID, CollectingProfile)
	if err != nil || !ok {
		return Outcome{Kind: KindExpired}, err
	}
	event := st.Get(keyEvent)
	idx, err := strconv.Atoi(st.Get(keyField))
	if err != nil || idx < 0 || idx >= len(models.ProfileFields) {
		return Outcome{Kind: KindExpired}, s.sessions.Clear(ctx, userID)
	}
	field := models.ProfileFields[idx]

	value, err := s.validator.Field(field, text)
	if errors.Is(err, ErrInvalidField) {
		s.log.Debug("profile answer rejected", zap.Int64("user_id", userID), zap.Error(err))
		return Outcome{Kind: KindInvalidField, EventName: event, Field: field}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if err := s.store.SetProfileField(ctx, userID, field, value); err != nil {
		return Outcome{}, fmt.Errorf("set profile %s for %d: %w", field, userID, err)
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get profile %d: %w", userID, err)
	}
	next, ok := nextMissing(profile, 0)
	if !ok {
		return s.Issue(ctx, userID, event)
	}
	return s.ask(ctx, userID, st, next)
}

// Issue renders the check-in code, records it in the audit trail and ends the conversation.
func (s *Service) Issue(ctx context.Context, userID int64, event string) (Outcome, error) {
	code, err := s.renderer.CheckIn(userID, event)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.store.CreateQRCode(ctx, models.QRCode{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventName: event,
		IssuedAt:  s.now().UTC(),
	}); err != nil {
		return Outcome{}, fmt.Errorf("record qr code (%d, %q): %w", userID, event, err)
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		return Outcome{}, err
	}
	s.log.Info("check-in code issued", zap.Int64("user_id", userID), zap.String("event", event))
	return Outcome{Kind: KindIssued, EventName: event, Code: &code}, nil
}

// Collecting reports whether the user is answering profile questions.
func (s *Service) Collecting(ctx context.Context, userID int64) (bool, error) {
	_, ok, err := s.current(ctx, userID, CollectingProfile)
	return ok, err
}

func (s *Service) ask(ctx context.Context, userID int64, st session.State, idx int) (Outcome, error) {
	st.Step = int(CollectingProfile)
	st = st.With(keyField, strconv.Itoa(idx))
	if err := s.sessions.Set(ctx, userID, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: KindAskField, EventName: st.Get(keyEvent), Field: models.ProfileFields[idx]}, nil
}

func (s *Service) current(ctx context.Context, userID int64, want Step) (session.State, bool, error) {
	st, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return session.State{}, false, err
	}
	if !ok || st.Flow != session.FlowRegistration || Step(st.Step) != want || st.Get(keyEvent) == "" {
		return session.State{}, false, nil
	}
	return st, true, nil
}

// nextMissing returns the index of the first empty profile field at or after from.
func nextMissing(p *models.RegEventProfile, from int) (int, bool) {
	for i := from; i < len(models.ProfileFields); i++ {
		if fieldValue(p, models.ProfileFields[i]) == "" {
			return i, true
		}
	}
	return 0, false
}

func fieldValue(p *models.RegEventProfile, f models.ProfileField) string {
	switch f {
	case models.FieldName:
		return p.Name
	case models.FieldSurname:
		return p.Surname
	case models.FieldPatronymic:
		return p.Patronymic
	case models.FieldPhone:
		return p.Phone
	case models.FieldEmail:
		return p.Email
	case models.FieldOrganization:
		return p.Organization
	}
	return ""
}

func firstContact(p deeplink.Payload) string {
	switch p.Kind {
	case deeplink.KindRegistration:
		return strconv.Itoa(p.LinkIndex)
	case deeplink.KindReferral:
		return strconv.FormatInt(p.ReferrerID, 10)
	}
	return models.NoReferral
}
