package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bringalong/bringalong/internal/dialog"
	"github.com/bringalong/bringalong/internal/models"
)

// broadcastDialog lets an admin send a one-off message to every other
// member of a party.
func (a *App) broadcastDialog() *dialog.Definition {
	const typingMessage dialog.StepID = "typing_message"

	return &dialog.Definition{
		ID:        "broadcast",
		Entry:     func(ev models.Event) bool { return ev.TappedAction(models.ActionBroadcast) },
		EntryStep: typingMessage,
		Start: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			partyID := ev.Button.PartyID
			if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
				return dialog.Complete(), err
			}
			a.respond(ctx, ev, "📣 What should I tell the members?", cancelKeyboard())
			return dialog.Advance(typingMessage, models.BroadcastScratch{PartyID: partyID}), nil
		},
		Steps: []dialog.Step{{
			ID: typingMessage,
			Routes: []dialog.Route{
				{
					When: models.Event.IsPlainText,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						return a.broadcastFromText(ctx, ev, sc.(models.BroadcastScratch))
					},
				},
				{
					When: anyEvent,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						a.respond(ctx, ev, "Please send the announcement as a text message.", cancelKeyboard())
						return dialog.Stay(sc), nil
					},
				},
			},
		}},
		Fallbacks: []dialog.Route{a.cancelToParty(func(sc models.Scratch) int64 {
			return sc.(models.BroadcastScratch).PartyID
		})},
	}
}

func (a *App) broadcastFromText(ctx context.Context, ev models.Event, sc models.BroadcastScratch) (dialog.Outcome, error) {
	message := strings.TrimSpace(ev.Text)
	if message == "" {
		a.respond(ctx, ev, "The announcement can't be empty. Try again:", cancelKeyboard())
		return dialog.Stay(sc), nil
	}
	if len([]rune(message)) > models.BroadcastMaxLen {
		a.respond(ctx, ev, fmt.Sprintf("That's too long (max %d characters). Try a shorter one:", models.BroadcastMaxLen), cancelKeyboard())
		return dialog.Stay(sc), nil
	}

	party, err := a.store.GetPartyByID(sc.PartyID)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to load party: %w", err)
	}
	if party == nil {
		a.respond(ctx, ev, partyNotFound, backToMainMenuKeyboard())
		return dialog.Complete(), nil
	}
	members, err := a.store.GetMembers(sc.PartyID)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to load members: %w", err)
	}

	text := fmt.Sprintf("📣 Message from %s in <b>%s</b>:\n\n%s", esc(ev.UserName), esc(party.Name), esc(message))
	var sent, failed int
	for _, m := range members {
		if m.UserID == ev.UserID {
			continue
		}
		if err := a.sender.SendMessage(ctx, m.UserID, text, nil); err != nil {
			failed++
			continue
		}
		sent++
	}
	slog.Info("broadcast sent", "partyID", sc.PartyID, "sent", sent, "failed", failed)

	a.respond(ctx, ev, fmt.Sprintf("📣 Delivered to %d member(s).", sent), backToPartyKeyboard(sc.PartyID))
	return dialog.Complete(), nil
}
