package testutil

import (
	"context"
	"sync"

	"clubbot/internal/notify"
)

// Sent is a message captured by Messenger.
type Sent struct {
	ChatID   int64
	Text     string
	Photo    []byte
	Keyboard notify.Keyboard
}

// Messenger records every outgoing message. Fail, when set, decides per chat
// whether delivery returns an error.
type Messenger struct {
	mu      sync.Mutex
	Sent    []Sent
	Answers []string
	Fail    func(chatID int64) error
}

func (m *Messenger) SendText(ctx context.Context, chatID int64, text string, kb notify.Keyboard) error {
	return m.record(Sent{ChatID: chatID, Text: text, Keyboard: kb})
}

func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string, kb notify.Keyboard) error {
	return m.record(Sent{ChatID: chatID, Text: caption, Photo: png, Keyboard: kb})
}

func (m *Messenger) record(s Sent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		if err := m.Fail(s.ChatID); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, s)
	return nil
}

// To returns the messages delivered to chatID.
func (m *Messenger) To(chatID int64) []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sent
	for _, s := range m.Sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// AnswerCallback records the callback acknowledgement.
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers = append(m.Answers, text)
	return nil
}

// Last returns the last message delivered to chatID.
func (m *Messenger) Last(chatID int64) (Sent, bool) {
	sent := m.To(chatID)
	if len(sent) == 0 {
		return Sent{}, false
	}
	return sent[len(sent)-1], true
}
