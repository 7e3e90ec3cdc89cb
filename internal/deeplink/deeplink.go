// Package deeplink parses and builds the payloads carried by /start deep
// links, check-in QR codes and inline button callbacks.
//
// Event names may contain underscores, so every grammar consumes its fixed
// prefix first, then the known trailing segment, and keeps the middle as the
// event name.
package deeplink

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned for payloads that match a prefix but not its grammar.
var ErrMalformed = errors.New("malformed deep link")

// Kind classifies a deep-link payload.
type Kind int

const (
	KindDefault      Kind = iota // bare event name or empty payload
	KindNetworking               // networking
	KindRegistration             // reg_<event>_<n>
	KindReferral                 // ref_<event>__<referrerId>
	KindRecruitment              // otbor
	KindCheckIn                  // qr_<userId>_<event>
)

func (k Kind) String() string {
	switch k {
	case KindNetworking:
		return "networking"
	case KindRegistration:
		return "registration"
	case KindReferral:
		return "referral"
	case KindRecruitment:
		return "recruitment"
	case KindCheckIn:
		return "checkin"
	default:
		return "default"
	}
}

const (
	prefixCheckIn      = "qr_"
	prefixNetworking   = "networking"
	prefixRegistration = "reg"
	prefixReferral     = "ref"
	prefixRecruitment  = "otbor"
	referralSeparator  = "__"
)

// Payload is a classified deep-link payload.
type Payload struct {
	Kind       Kind
	Raw        string
	Event      string
	LinkIndex  int   // KindRegistration
	ReferrerID int64 // KindReferral
	UserID     int64 // KindCheckIn
}

// Parse classifies raw by prefix in priority order: qr_, networking, reg, ref,
// otbor, then the legacy bare event token.
func Parse(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	p := Payload{Raw: raw}

	switch {
	case strings.HasPrefix(raw, prefixCheckIn):
		userID, event, err := parseCheckIn(strings.TrimPrefix(raw, prefixCheckIn))
		if err != nil {
			return Payload{}, err
		}
		p.Kind, p.UserID, p.Event = KindCheckIn, userID, event
	case strings.HasPrefix(raw, prefixNetworking):
		p.Kind = KindNetworking
	case strings.HasPrefix(raw, prefixRegistration):
		event, n, err := parseRegistration(strings.TrimPrefix(raw, prefixRegistration))
		if err != nil {
			return Payload{}, err
		}
		p.Kind, p.Event, p.LinkIndex = KindRegistration, event, n
	case strings.HasPrefix(raw, prefixReferral):
		event, referrer, err := parseReferral(strings.TrimPrefix(raw, prefixReferral))
		if err != nil {
			return Payload{}, err
		}
		p.Kind, p.Event, p.ReferrerID = KindReferral, event, referrer
	case strings.HasPrefix(raw, prefixRecruitment):
		p.Kind = KindRecruitment
	default:
		p.Kind, p.Event = KindDefault, raw
	}
	return p, nil
}

// parseCheckIn parses "<userId>_<event>".
func parseCheckIn(rest string) (int64, string, error) {
	id, event, ok := strings.Cut(rest, "_")
	if !ok || event == "" {
		return 0, "", fmt.Errorf("%w: check-in token needs a user id and an event", ErrMalformed)
	}
	userID, err := parseID(id)
	if err != nil {
		return 0, "", err
	}
	return userID, event, nil
}

// parseRegistration parses "_<event>_<n>".
func parseRegistration(rest string) (string, int, error) {
	rest, ok := strings.CutPrefix(rest, "_")
	if !ok {
		return "", 0, fmt.Errorf("%w: registration link without separator", ErrMalformed)
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: registration link needs an event and a link index", ErrMalformed)
	}
	n, err := strconv.Atoi(rest[i+1:])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%w: bad link index %q", ErrMalformed, rest[i+1:])
	}
	return rest[:i], n, nil
}

// parseReferral parses "_<event>__<referrerId>".
func parseReferral(rest string) (string, int64, error) {
	rest, ok := strings.CutPrefix(rest, "_")
	if !ok {
		return "", 0, fmt.Errorf("%w: referral link without separator", ErrMalformed)
	}
	i := strings.LastIndex(rest, referralSeparator)
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: referral link needs an event and a referrer", ErrMalformed)
	}
	referrer, err := parseID(rest[i+len(referralSeparator):])
	if err != nil {
		return "", 0, err
	}
	return rest[:i], referrer, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad user id %q", ErrMalformed, s)
	}
	return id, nil
}

// RegistrationLink builds the reg_ payload for link variant n.
func RegistrationLink(event string, n int) string {
	return fmt.Sprintf("%s_%s_%d", prefixRegistration, event, n)
}

// ReferralLink builds the ref_ payload of a referrer.
func ReferralLink(event string, referrerID int64) string {
	return fmt.Sprintf("%s_%s%s%d", prefixReferral, event, referralSeparator, referrerID)
}

// CheckInToken builds the qr_ payload embedded in a check-in QR code.
func CheckInToken(userID int64, event string) string {
	return fmt.Sprintf("%s%d_%s", prefixCheckIn, userID, event)
}

// StartURL builds the t.me link opening the bot with payload.
func StartURL(botUsername, payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, payload)
}

const (
	maxPayloadLen = 64
	// Telegram user ids fit in 53 bits.
	maxUserID int64 = 1 << 53
)

var eventNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*[A-Za-z0-9]$`)

// ValidEventName reports whether name can travel in every deep link and
// callback button. Telegram limits start parameters to 64 characters of
// [A-Za-z0-9_-] and callback data to 64 bytes; "__" is reserved as the
// referral separator.
func ValidEventName(name string) bool {
	if !eventNameRe.MatchString(name) || strings.Contains(name, referralSeparator) {
		return false
	}
	for _, prefix := range []string{prefixCheckIn, prefixNetworking, prefixRegistration, prefixReferral, prefixRecruitment} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return len(ReferralLink(name, maxUserID)) <= maxPayloadLen &&
		len(VerifyData(maxUserID, name, true)) <= maxPayloadLen
}

// EventSlug derives the conventional event name event<day>_<month>_<yy> from a date.
func EventSlug(date time.Time) string {
	return fmt.Sprintf("event%d_%d_%02d", date.Day(), int(date.Month()), date.Year()%100)
}
