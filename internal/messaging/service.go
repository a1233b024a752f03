// Package messaging provides the outbound message abstraction and the
// Telegram transport.
package messaging

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bringalong/bringalong/internal/models"
)

// Sender is the outbound channel consumed by dialogue handlers and
// actions. Delivery to an unreachable recipient returns an error that call
// sites tolerate: a failed send never aborts a batch.
type Sender interface {
	// SendMessage sends a new message to a chat.
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error

	// EditMessage rewrites a previously sent message in place. Used to keep
	// menu navigation inside one message the way button-driven bots do.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error

	// BotUsername returns the bot's public username, used to build invite
	// deep links.
	BotUsername() string
}

// Service is a full transport: a Sender that also produces the inbound
// event stream.
type Service interface {
	Sender

	// Start begins long polling for updates.
	Start(ctx context.Context) error

	// Stop stops polling and closes the event channel.
	Stop()

	// Events returns the stream of decoded inbound events.
	Events() <-chan models.Event
}
