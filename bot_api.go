package main

import (
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI abstracts the Telegram bot methods used by the app.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// deliveryKind classifies a failed send/edit so callers can branch on the
// failure instead of string-matching error text at every call site.
type deliveryKind int

const (
	deliveryOK deliveryKind = iota
	// deliveryGone: the target message no longer exists (deleted by the
	// user, chat cleared). The session refreshing it must stop silently.
	deliveryGone
	// deliveryUnchanged: the edit produced identical content. Harmless.
	deliveryUnchanged
	// deliveryFailed: any other transport error.
	deliveryFailed
)

// classifyDelivery maps a Telegram API error onto the delivery taxonomy.
func classifyDelivery(err error) deliveryKind {
	if err == nil {
		return deliveryOK
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(msg, "message is not modified"):
			return deliveryUnchanged
		case strings.Contains(msg, "message to edit not found"),
			strings.Contains(msg, "message to delete not found"),
			strings.Contains(msg, "chat not found"):
			return deliveryGone
		}
	}
	return deliveryFailed
}

// safeSend sends a Telegram message and logs any error.
func safeSend(bot BotAPI, msg tgbotapi.Chattable) {
	if bot == nil {
		return
	}
	if _, err := bot.Send(msg); err != nil {
		slog.Error("telegram send failed", "err", err)
	}
}

// notifyAdmin sends a markdown message to the configured admin chat.
// A zero admin id means nobody is configured and the notice is dropped.
func notifyAdmin(bot BotAPI, adminID int64, text string) {
	if adminID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(adminID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	safeSend(bot, msg)
}
