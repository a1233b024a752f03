package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bringalong/bringalong/internal/dialog"
	"github.com/bringalong/bringalong/internal/models"
	"github.com/bringalong/bringalong/internal/util"
)

// createPartyDialog collects a party name, creates the party and enrolls the
// creator as its first admin.
func (a *App) createPartyDialog() *dialog.Definition {
	const typingName dialog.StepID = "typing_name"

	return &dialog.Definition{
		ID:        "create_party",
		Entry:     func(ev models.Event) bool { return ev.TappedAction(models.ActionCreateParty) },
		EntryStep: typingName,
		Start: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			a.respond(ctx, ev, "🎉 Let's create a party!\n\nWhat should it be called?", cancelKeyboard())
			return dialog.Advance(typingName, models.CreatePartyScratch{}), nil
		},
		Steps: []dialog.Step{{
			ID: typingName,
			Routes: []dialog.Route{
				{
					When: models.Event.IsPlainText,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						return a.createPartyFromName(ctx, ev, sc)
					},
				},
				{
					When: anyEvent,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						a.respond(ctx, ev, "Please send the party name as a text message.", cancelKeyboard())
						return dialog.Stay(sc), nil
					},
				},
			},
		}},
		Fallbacks: []dialog.Route{a.cancelToMainMenu()},
	}
}

func (a *App) createPartyFromName(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		a.respond(ctx, ev, "The name can't be empty. Try again:", cancelKeyboard())
		return dialog.Stay(sc), nil
	}
	if len([]rune(name)) > models.NameMaxLen {
		a.respond(ctx, ev, fmt.Sprintf("That name is too long (max %d characters). Try a shorter one:", models.NameMaxLen), cancelKeyboard())
		return dialog.Stay(sc), nil
	}
	exists, err := a.store.HasPartyWithName(ev.UserID, name)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to check party name: %w", err)
	}
	if exists {
		a.respond(ctx, ev, "You already have a party with this name. Pick a different one:", cancelKeyboard())
		return dialog.Stay(sc), nil
	}

	code, err := a.uniquePartyCode()
	if err != nil {
		return dialog.Outcome{}, err
	}
	partyID, err := a.store.CreateParty(name, code, ev.UserID)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to create party: %w", err)
	}
	if _, err := a.store.AddMember(partyID, ev.UserID, ev.UserName, true); err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to enroll creator: %w", err)
	}

	link := inviteLink(a.sender.BotUsername(), code)
	text := fmt.Sprintf("🎉 <b>%s</b> is ready!\n\nShare this link to invite people:\n%s", esc(name), link)
	party := &models.Party{ID: partyID, Name: name, Code: code, CreatorID: ev.UserID}
	a.respond(ctx, ev, text, partyMenuKeyboard(party, ev.UserID, true))
	return dialog.Complete(), nil
}

// uniquePartyCode generates an invite code that is not already taken.
func (a *App) uniquePartyCode() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := util.GeneratePartyCode()
		existing, err := a.store.GetPartyByCode(code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique invite code")
}

// joinByCode handles a /start deep link carrying an invite code.
func (a *App) joinByCode(ctx context.Context, ev models.Event, code string) error {
	party, err := a.store.GetPartyByCode(strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("failed to look up invite code: %w", err)
	}
	if party == nil {
		a.respond(ctx, ev, "🤔 This invite link doesn't work. The party may have been cancelled.", mainMenuKeyboard())
		return nil
	}

	newlyAdded, err := a.store.AddMember(party.ID, ev.UserID, ev.UserName, false)
	if err != nil {
		return fmt.Errorf("failed to join party: %w", err)
	}

	isAdmin, err := a.store.IsAdmin(party.ID, ev.UserID)
	if err != nil {
		return fmt.Errorf("failed to check admin flag: %w", err)
	}
	if !newlyAdded {
		a.respond(ctx, ev, fmt.Sprintf("You are already in <b>%s</b>!", esc(party.Name)), partyMenuKeyboard(party, ev.UserID, isAdmin))
		return nil
	}
	a.respond(ctx, ev, fmt.Sprintf("🎉 Welcome to <b>%s</b>!", esc(party.Name)), partyMenuKeyboard(party, ev.UserID, isAdmin))
	return nil
}

func (a *App) showParty(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	member, err := a.requireMember(ctx, ev, partyID)
	if err != nil || member == nil {
		return err
	}
	text := fmt.Sprintf("🎉 <b>%s</b>\n\nWhat would you like to do?", esc(party.Name))
	a.respond(ctx, ev, text, partyMenuKeyboard(party, ev.UserID, member.IsAdmin))
	return nil
}

func (a *App) showInviteLink(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if member, err := a.requireMember(ctx, ev, partyID); err != nil || member == nil {
		return err
	}
	link := inviteLink(a.sender.BotUsername(), party.Code)
	text := fmt.Sprintf("🔗 Invite people to <b>%s</b>:\n\n%s", esc(party.Name), link)
	a.respond(ctx, ev, text, backToPartyKeyboard(party.ID))
	return nil
}

func (a *App) askLeaveParty(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if party.CreatorID == ev.UserID {
		a.respond(ctx, ev, "The creator can't leave their own party. You can cancel it instead.", backToPartyKeyboard(partyID))
		return nil
	}
	text := fmt.Sprintf("Leave <b>%s</b>? Your fillings will be removed too.", esc(party.Name))
	a.respond(ctx, ev, text, confirmLeaveKeyboard(partyID))
	return nil
}

func (a *App) leaveParty(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if party.CreatorID == ev.UserID {
		a.respond(ctx, ev, "The creator can't leave their own party.", backToPartyKeyboard(partyID))
		return nil
	}
	if err := a.store.RemoveMember(partyID, ev.UserID); err != nil {
		return fmt.Errorf("failed to leave party: %w", err)
	}
	a.respond(ctx, ev, fmt.Sprintf("You left <b>%s</b>. 👋", esc(party.Name)), mainMenuKeyboard())
	return nil
}

func (a *App) askCancelParty(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if party.CreatorID != ev.UserID {
		a.respond(ctx, ev, "Only the creator can cancel the party.", backToPartyKeyboard(partyID))
		return nil
	}
	text := fmt.Sprintf("🚫 Cancel <b>%s</b>?\n\nThis removes the party for everyone and can't be undone.", esc(party.Name))
	a.respond(ctx, ev, text, confirmCancelPartyKeyboard(partyID))
	return nil
}

func (a *App) cancelParty(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if party.CreatorID != ev.UserID {
		a.respond(ctx, ev, "Only the creator can cancel the party.", backToPartyKeyboard(partyID))
		return nil
	}

	members, err := a.store.GetMembers(partyID)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}
	if err := a.store.DeleteParty(partyID); err != nil {
		return fmt.Errorf("failed to delete party: %w", err)
	}
	a.notifier.Cancel(partyID)

	text := fmt.Sprintf("🚫 <b>%s</b> has been cancelled by the organizer.", esc(party.Name))
	for _, m := range members {
		if m.UserID == ev.UserID {
			continue
		}
		a.send(ctx, m.UserID, text, nil)
	}
	a.respond(ctx, ev, fmt.Sprintf("<b>%s</b> has been cancelled.", esc(party.Name)), mainMenuKeyboard())
	return nil
}

// anyEvent is the catch-all predicate used as the last route of a step.
func anyEvent(models.Event) bool { return true }

// cancelToMainMenu is the shared cancel fallback for dialogues started from
// the main menu.
func (a *App) cancelToMainMenu() dialog.Route {
	return dialog.Route{
		When: func(ev models.Event) bool { return ev.TappedAction(models.ActionCancel) },
		Do: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			a.respond(ctx, ev, cancelledText, mainMenuKeyboard())
			return dialog.Complete(), nil
		},
	}
}

// cancelToParty is the shared cancel fallback for dialogues scoped to a
// party; partyOf extracts the party from the dialogue's scratch.
func (a *App) cancelToParty(partyOf func(models.Scratch) int64) dialog.Route {
	return dialog.Route{
		When: func(ev models.Event) bool { return ev.TappedAction(models.ActionCancel) },
		Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
			a.respond(ctx, ev, cancelledText, backToPartyKeyboard(partyOf(sc)))
			return dialog.Complete(), nil
		},
	}
}
