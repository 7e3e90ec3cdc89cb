// Package notify delivers bot messages to users. Delivery failures are never
// fatal: they are logged and counted by the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Button is an inline keyboard button carrying either callback data or a URL.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is an inline keyboard, row by row.
type Keyboard [][]Button

// Row builds a keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// Messenger sends messages to a chat. For private chats the chat id equals the user id.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string, kb Keyboard) error
}

// RetryAfterError is returned by a Messenger when the transport asks the
// sender to back off before the next request.
type RetryAfterError struct {
	Delay time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %s", e.Delay)
}

// Deliver sends a text message and swallows the error after logging it.
// It reports whether the message was sent.
func Deliver(ctx context.Context, m Messenger, log *zap.Logger, chatID int64, text string) bool {
	if err := m.SendText(ctx, chatID, text, nil); err != nil {
		log.Warn("message delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	return true
}
