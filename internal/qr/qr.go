// Package qr renders check-in codes.
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"clubbot/internal/deeplink"
)

const size = 256

// Code is a rendered check-in code.
type Code struct {
	Token string // qr_<userId>_<event>
	URL   string // deep link opening the bot with Token
	PNG   []byte
}

// Renderer turns check-in tokens into PNG images pointing at the bot.
type Renderer struct {
	botUsername string
}

// NewRenderer creates a Renderer for the given bot username.
func NewRenderer(botUsername string) *Renderer {
	return &Renderer{botUsername: botUsername}
}

// Link returns the deep link opening the bot with payload.
func (r *Renderer) Link(payload string) string {
	return deeplink.StartURL(r.botUsername, payload)
}

// CheckIn renders the check-in code of a user for an event.
func (r *Renderer) CheckIn(userID int64, event string) (Code, error) {
	token := deeplink.CheckInToken(userID, event)
	url := r.Link(token)
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return Code{}, fmt.Errorf("encode qr for %d/%s: %w", userID, event, err)
	}
	return Code{Token: token, URL: url, PNG: png}, nil
}
