// Package session keeps per-user conversation state between updates.
// It never holds persisted rows, only what a multi-step flow needs to resume.
package session

import (
	"context"
	"strings"
	"time"
)

// Flow names the multi-step conversation a user is in.
type Flow string

const (
	FlowNone         Flow = ""
	FlowRegistration Flow = "registration"
	FlowDraw         Flow = "draw"
)

// State is the conversation state of one user.
type State struct {
	Flow      Flow              `json:"flow"`
	Step      int               `json:"step"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Get returns a data value or "".
func (s State) Get(key string) string {
	return s.Data[key]
}

// With returns a copy of the state with key set to value.
func (s State) With(key, value string) State {
	data := make(map[string]string, len(s.Data)+1)
	for k, v := range s.Data {
		data[k] = v
	}
	data[key] = value
	s.Data = data
	return s
}

// Store persists conversation states keyed by user id.
type Store interface {
	Get(ctx context.Context, userID int64) (State, bool, error)
	Set(ctx context.Context, userID int64, st State) error
	Clear(ctx context.Context, userID int64) error
}

var cancelWords = []string{"отмена", "/cancel", "cancel"}

// IsCancel reports whether text asks to abort the current flow.
func IsCancel(text string) bool {
	text = strings.TrimSpace(text)
	for _, w := range cancelWords {
		if strings.EqualFold(text, w) {
			return true
		}
	}
	return false
}
