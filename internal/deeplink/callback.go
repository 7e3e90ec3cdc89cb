package deeplink

import (
	"fmt"
	"strings"
)

// Fixed callback payloads of inline buttons.
const (
	EventYes = "event_yes"
	EventNo  = "event_no"
	HSEYes   = "hse_yes"
	HSENo    = "hse_no"
	Reroll   = "reroll"
	Confirm  = "confirm"
)

const (
	prefixVerify = "verify_"
	prefixGetRef = "getref_"
	suffixAllow  = "_allow"
	suffixDeny   = "_deny"
)

// Verify is a decoded check-in approval callback.
type Verify struct {
	UserID int64
	Event  string
	Allow  bool
}

// VerifyData builds verify_<userId>_<event>_allow|deny.
func VerifyData(userID int64, event string, allow bool) string {
	suffix := suffixDeny
	if allow {
		suffix = suffixAllow
	}
	return fmt.Sprintf("%s%d_%s%s", prefixVerify, userID, event, suffix)
}

// IsVerify reports whether data is a check-in approval callback.
func IsVerify(data string) bool {
	return strings.HasPrefix(data, prefixVerify)
}

// ParseVerify decodes a verify_ callback.
func ParseVerify(data string) (Verify, error) {
	rest, ok := strings.CutPrefix(data, prefixVerify)
	if !ok {
		return Verify{}, fmt.Errorf("%w: not a verify callback", ErrMalformed)
	}
	var v Verify
	switch {
	case strings.HasSuffix(rest, suffixAllow):
		v.Allow = true
		rest = strings.TrimSuffix(rest, suffixAllow)
	case strings.HasSuffix(rest, suffixDeny):
		rest = strings.TrimSuffix(rest, suffixDeny)
	default:
		return Verify{}, fmt.Errorf("%w: verify callback without decision", ErrMalformed)
	}
	userID, event, err := parseCheckIn(rest)
	if err != nil {
		return Verify{}, err
	}
	v.UserID, v.Event = userID, event
	return v, nil
}

// GetRefData builds the callback asking for a personal referral link.
func GetRefData(event string) string {
	return prefixGetRef + event
}

// ParseGetRef decodes a getref_ callback and returns the event name.
func ParseGetRef(data string) (string, bool) {
	event, ok := strings.CutPrefix(data, prefixGetRef)
	if !ok || event == "" {
		return "", false
	}
	return event, true
}
