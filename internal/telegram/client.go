// Package telegram adapts the Bot API client to the bot's messaging interfaces.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clubbot/internal/notify"
)

const pollTimeout = 60

// Client sends messages and receives updates through the Telegram Bot API.
type Client struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

// New authorizes the bot with token.
func New(token string, debug bool, log *zap.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	api.Debug = debug
	log.Info("bot authorized", zap.String("username", api.Self.UserName))
	return &Client{api: api, log: log}, nil
}

// Username is the bot's own username, used to build deep links.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// SendText sends a text message with an optional inline keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, kb notify.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := Markup(kb); markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := c.api.Send(msg)
	return translate(err)
}

// SendPhoto sends a PNG image with a caption and an optional inline keyboard.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string, kb notify.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "qr.png", Bytes: png})
	photo.Caption = caption
	if markup := Markup(kb); markup != nil {
		photo.ReplyMarkup = *markup
	}
	_, err := c.api.Send(photo)
	return translate(err)
}

// AnswerCallback acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
	return translate(err)
}

// Updates starts long polling.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}
	return c.api.GetUpdatesChan(u)
}

// Stop ends long polling and closes the updates channel.
func (c *Client) Stop() {
	c.api.StopReceivingUpdates()
}

// Markup converts a keyboard to the Bot API representation. It returns nil for an empty keyboard.
func Markup(kb notify.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, r := range kb {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// translate turns flood-control answers into notify.RetryAfterError.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return &notify.RetryAfterError{Delay: time.Duration(apiErr.RetryAfter) * time.Second}
	}
	return err
}
