package models

import "time"

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventInProgress EventStatus = "in_progress"
	EventEnded      EventStatus = "end"
)

// RegistrationStatus is the lifecycle status of a user's registration for an event.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "reg"   // registered, not checked in yet
	StatusBeen       RegistrationStatus = "been"  // checked in
	StatusNotBeen    RegistrationStatus = "nbeen" // event closed without a check-in
)

// NoReferral is the first_contact token used when a registration carries no attribution.
const NoReferral = "0"

// User represents a bot user.
type User struct {
	ID           int64     `db:"id"`            // ID is the Telegram account id.
	Username     string    `db:"username"`      // Username is the user's Telegram handle.
	IsSuperuser  bool      `db:"is_superuser"`  // IsSuperuser grants admin commands.
	Money        int       `db:"money"`         // Money is the club currency balance.
	Streak       int       `db:"streak"`        // Streak counts consecutive attended events.
	EventCount   int       `db:"event_cnt"`     // EventCount is the total number of attended events.
	RefCount     int       `db:"ref_cnt"`       // RefCount is the number of paid referrals.
	FirstContact string    `db:"first_contact"` // FirstContact is the deep-link payload of the first interaction.
	CreatedAt    time.Time `db:"created_at"`
}

// Event represents a club event.
type Event struct {
	Name        string      `db:"name"` // Name is the slug used in deep links.
	Description string      `db:"description"`
	Date        string      `db:"date"`
	Time        string      `db:"time"`
	Place       string      `db:"place"`
	Status      EventStatus `db:"status"`
	WinnerID    *int64      `db:"winner_id"` // WinnerID is the confirmed event-wide giveaway winner.
	CreatedAt   time.Time   `db:"created_at"`
}

// Active reports whether check-ins are accepted for the event.
func (e *Event) Active() bool {
	return e.Status == EventInProgress
}

// Registration is the per-(user, event) record tracking the reg/been/nbeen lifecycle.
type Registration struct {
	UserID       int64              `db:"user_id"`
	EventName    string             `db:"event_name"`
	Status       RegistrationStatus `db:"status"`
	FirstContact string             `db:"first_contact"` // FirstContact is the referrer id, link index or NoReferral.
	CreatedAt    time.Time          `db:"created_at"`
}

// RefGiveaway ties a referred user to the host whose giveaway they entered.
type RefGiveaway struct {
	UserID    int64     `db:"user_id"`
	EventName string    `db:"event_name"`
	HostID    int64     `db:"host_id"`
	CreatedAt time.Time `db:"created_at"`
}

// GiveawayHost declares a user authorized to run a referral giveaway for an event.
type GiveawayHost struct {
	UserID    int64  `db:"user_id"`
	EventName string `db:"event_name"`
	OrgName   string `db:"org_name"`
}

// RegEventProfile holds contact details collected from attendees outside the university.
type RegEventProfile struct {
	UserID       int64  `db:"user_id"`
	Name         string `db:"name"`
	Surname      string `db:"surname"`
	Patronymic   string `db:"patronymic"`
	Phone        string `db:"phone"`
	Email        string `db:"email"`
	Organization string `db:"organization"`
}

// Complete reports whether every profile field is filled.
func (p *RegEventProfile) Complete() bool {
	return p.Name != "" && p.Surname != "" && p.Patronymic != "" &&
		p.Phone != "" && p.Email != "" && p.Organization != ""
}

// ProfileField names a RegEventProfile column, in collection order.
type ProfileField string

const (
	FieldName         ProfileField = "name"
	FieldSurname      ProfileField = "surname"
	FieldPatronymic   ProfileField = "patronymic"
	FieldPhone        ProfileField = "phone"
	FieldEmail        ProfileField = "email"
	FieldOrganization ProfileField = "organization"
)

// ProfileFields lists the profile fields in the order they are asked for.
var ProfileFields = []ProfileField{
	FieldName, FieldSurname, FieldPatronymic, FieldPhone, FieldEmail, FieldOrganization,
}

// QRCode is an audit record of an issued check-in code. It is never used for validation.
type QRCode struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	EventName string    `db:"event_name"`
	IssuedAt  time.Time `db:"issued_at"`
	Used      bool      `db:"used"`
}

// FaceControl is a delegated check-in approver.
type FaceControl struct {
	UserID    int64     `db:"user_id"`
	GrantedBy int64     `db:"granted_by"`
	GrantedAt time.Time `db:"granted_at"`
}
