// Package bot wires the dialogue engine, store, notifier and transport into
// the BringAlong party-coordination bot: dialogue definitions, stateless
// menu actions, and the keyboards and texts they render.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bringalong/bringalong/internal/dialog"
	"github.com/bringalong/bringalong/internal/messaging"
	"github.com/bringalong/bringalong/internal/models"
	"github.com/bringalong/bringalong/internal/notify"
	"github.com/bringalong/bringalong/internal/session"
	"github.com/bringalong/bringalong/internal/store"
)

// infoNotifyDelay is the quiet window after the last info edit before
// members are notified. A burst of edits produces one notification.
const infoNotifyDelay = 30 * time.Second

// App is the assembled bot application.
type App struct {
	store    store.Store
	sender   messaging.Sender
	sessions *session.Store
	engine   *dialog.Engine
	notifier *notify.Debouncer
}

// Opts holds App construction options.
type Opts struct {
	NotifyDelay time.Duration
}

// Option configures App construction.
type Option func(*Opts)

// WithNotifyDelay overrides the info-notification debounce window.
func WithNotifyDelay(d time.Duration) Option {
	return func(o *Opts) { o.NotifyDelay = d }
}

// New assembles the application and registers every dialogue.
func New(st store.Store, sender messaging.Sender, opts ...Option) (*App, error) {
	options := Opts{NotifyDelay: infoNotifyDelay}
	for _, opt := range opts {
		opt(&options)
	}

	a := &App{
		store:    st,
		sender:   sender,
		sessions: session.NewStore(),
	}
	a.notifier = notify.NewDebouncer(options.NotifyDelay, a.fireInfoNotification)
	a.engine = dialog.NewEngine(a.sessions, a.dispatchAction)

	for _, def := range []*dialog.Definition{
		a.createPartyDialog(),
		a.addFillingDialog(),
		a.renameFillingDialog(),
		a.searchMemberDialog(),
		a.setInfoDialog(),
		a.broadcastDialog(),
	} {
		if err := a.engine.Register(def); err != nil {
			return nil, fmt.Errorf("failed to register dialogue: %w", err)
		}
	}
	return a, nil
}

// HandleEvent processes one inbound event. Handler errors are logged here;
// an event failure never takes the bot down.
func (a *App) HandleEvent(ctx context.Context, ev models.Event) {
	if err := a.engine.HandleUpdate(ctx, ev); err != nil {
		slog.Error("event handling failed", "error", err, "userID", ev.UserID, "kind", ev.Kind)
	}
}

// Run consumes the transport's event stream until the context is cancelled
// or the stream closes. Events for different users are handled
// concurrently; the engine serializes per user.
func (a *App) Run(ctx context.Context, events <-chan models.Event) {
	slog.Info("bot event loop started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("bot event loop stopping", "reason", ctx.Err())
			return
		case ev, ok := <-events:
			if !ok {
				slog.Info("bot event stream closed")
				return
			}
			go a.HandleEvent(ctx, ev)
		}
	}
}

// Stop cancels pending notification timers.
func (a *App) Stop() {
	a.notifier.Stop()
}

// respond edits the tapped message in place for button events and sends a
// fresh message otherwise. Delivery failures are logged, not propagated:
// the dialogue transition already happened.
func (a *App) respond(ctx context.Context, ev models.Event, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	var err error
	if ev.Kind == models.EventButton && ev.MessageID != 0 {
		err = a.sender.EditMessage(ctx, ev.ChatID, ev.MessageID, text, kb)
	} else {
		err = a.sender.SendMessage(ctx, ev.ChatID, text, kb)
	}
	if err != nil {
		slog.Error("failed to respond", "error", err, "chatID", ev.ChatID)
	}
}

// send always delivers a fresh message, leaving any tapped menu intact.
func (a *App) send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if err := a.sender.SendMessage(ctx, chatID, text, kb); err != nil {
		slog.Error("failed to send", "error", err, "chatID", chatID)
	}
}

// requireParty loads a party, responding with a graceful message when it no
// longer exists.
func (a *App) requireParty(ctx context.Context, ev models.Event, partyID int64) (*models.Party, error) {
	party, err := a.store.GetPartyByID(partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load party %d: %w", partyID, err)
	}
	if party == nil {
		a.respond(ctx, ev, partyNotFound, backToMainMenuKeyboard())
		return nil, nil
	}
	return party, nil
}

// requireMember loads the caller's membership in a party, responding with a
// graceful message when they have been removed.
func (a *App) requireMember(ctx context.Context, ev models.Event, partyID int64) (*models.Member, error) {
	member, err := a.store.GetMember(partyID, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if member == nil {
		a.respond(ctx, ev, notAMemberText, backToMainMenuKeyboard())
		return nil, nil
	}
	return member, nil
}

// requireAdmin loads the caller's membership and checks the admin flag,
// responding with a refusal when it is missing.
func (a *App) requireAdmin(ctx context.Context, ev models.Event, partyID int64) (*models.Member, error) {
	member, err := a.requireMember(ctx, ev, partyID)
	if err != nil || member == nil {
		return nil, err
	}
	if !member.IsAdmin {
		a.respond(ctx, ev, noPermissionText, backToPartyKeyboard(partyID))
		return nil, nil
	}
	return member, nil
}

// fireInfoNotification runs on the debounce timer goroutine once a party's
// info edits have been quiet for the full window. The party is re-checked
// first: a deletion during the window turns the firing into a no-op.
func (a *App) fireInfoNotification(p notify.Payload) {
	ctx := context.Background()

	party, err := a.store.GetPartyByID(p.PartyID)
	if err != nil {
		slog.Error("info notification: failed to load party", "error", err, "partyID", p.PartyID)
		return
	}
	if party == nil {
		slog.Debug("info notification skipped, party gone", "partyID", p.PartyID)
		return
	}
	members, err := a.store.GetMembers(p.PartyID)
	if err != nil {
		slog.Error("info notification: failed to load members", "error", err, "partyID", p.PartyID)
		return
	}

	text := "🔔 Party info was updated!\n\n" + buildInfoText(party.Name, party.Info)
	var sent, failed int
	for _, m := range members {
		if m.UserID == p.InitiatorID {
			continue
		}
		if err := a.sender.SendMessage(ctx, m.UserID, text, backToPartyKeyboard(party.ID)); err != nil {
			failed++
			continue
		}
		sent++
	}
	slog.Info("info update notification sent", "partyID", p.PartyID, "sent", sent, "failed", failed)
}
