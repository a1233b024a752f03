package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bringalong/bringalong/internal/models"
)

// eventBufferSize bounds the inbound event channel.
const eventBufferSize = 64

// TelegramService implements Service over the Telegram Bot API using long
// polling. It decodes raw updates into typed events; callback-data string
// parsing happens here and nowhere else.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	events chan models.Event
	done   chan struct{}
}

// NewTelegramService creates a Telegram transport with the given bot token.
func NewTelegramService(token string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)
	return &TelegramService{
		bot:    bot,
		events: make(chan models.Event, eventBufferSize),
		done:   make(chan struct{}),
	}, nil
}

// BotUsername returns the bot's public username.
func (t *TelegramService) BotUsername() string {
	return t.bot.Self.UserName
}

// Events returns the inbound event stream.
func (t *TelegramService) Events() <-chan models.Event {
	return t.events
}

// Start begins long polling and decoding updates until Stop is called or
// the context is cancelled.
func (t *TelegramService) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := t.bot.GetUpdatesChan(cfg)

	go func() {
		defer close(t.events)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := t.decode(update)
				if !ok {
					continue
				}
				t.events <- ev
			}
		}
	}()
	slog.Info("Telegram service started polling")
	return nil
}

// Stop stops polling.
func (t *TelegramService) Stop() {
	t.bot.StopReceivingUpdates()
	close(t.done)
	slog.Info("Telegram service stopped")
}

// decode converts a raw update into a typed event.
func (t *TelegramService) decode(update tgbotapi.Update) (models.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		// Acknowledge the tap so the client stops its spinner; a failure
		// here is cosmetic.
		if _, err := t.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			slog.Debug("failed to answer callback query", "error", err)
		}
		cb, err := models.ParseCallback(cq.Data)
		if err != nil {
			slog.Warn("dropping undecodable callback", "error", err, "data", cq.Data)
			return models.Event{}, false
		}
		ev := models.Event{
			Kind:     models.EventButton,
			UserID:   cq.From.ID,
			UserName: DisplayName(cq.From),
			Button:   &cb,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		} else {
			ev.ChatID = cq.From.ID
		}
		return ev, true

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return models.Event{}, false
		}
		ev := models.Event{
			UserID:   msg.From.ID,
			UserName: DisplayName(msg.From),
			ChatID:   msg.Chat.ID,
		}
		switch {
		case msg.Contact != nil:
			ev.Kind = models.EventContact
			ev.Contact = &models.Contact{
				UserID:    msg.Contact.UserID,
				Phone:     msg.Contact.PhoneNumber,
				FirstName: msg.Contact.FirstName,
				LastName:  msg.Contact.LastName,
			}
		case msg.Location != nil:
			ev.Kind = models.EventLocation
			ev.Location = &models.Location{
				Latitude:  msg.Location.Latitude,
				Longitude: msg.Location.Longitude,
			}
		case msg.IsCommand():
			ev.Kind = models.EventText
			ev.Command = msg.Command()
			ev.CommandArgs = msg.CommandArguments()
		case msg.Text != "":
			ev.Kind = models.EventText
			ev.Text = msg.Text
		default:
			// Stickers, photos and other media are not part of any flow.
			return models.Event{}, false
		}
		return ev, true
	}
	return models.Event{}, false
}

// SendMessage sends a new HTML-formatted message.
func (t *TelegramService) SendMessage(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Telegram SendMessage failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// EditMessage rewrites an existing message in place.
func (t *TelegramService) EditMessage(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}
	if _, err := t.bot.Send(edit); err != nil {
		slog.Error("Telegram EditMessage failed", "error", err, "chatID", chatID, "messageID", messageID)
		return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// DisplayName builds a readable display name from a Telegram user.
func DisplayName(u *tgbotapi.User) string {
	if u == nil {
		return "Anonymous"
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return "Anonymous"
	}
	return full
}
