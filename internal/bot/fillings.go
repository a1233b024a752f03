package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bringalong/bringalong/internal/dialog"
	"github.com/bringalong/bringalong/internal/models"
)

func fillingsListText(partyName string, fillings []models.Filling) string {
	if len(fillings) == 0 {
		return fmt.Sprintf("🥧 <b>Fillings for %s</b>\n\nNobody is bringing anything yet. Be the first!", esc(partyName))
	}
	lines := []string{fmt.Sprintf("🥧 <b>Fillings for %s</b>\n", esc(partyName))}
	for _, f := range fillings {
		lines = append(lines, fmt.Sprintf("• %s (%s)", esc(f.Name), esc(f.AddedByName)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) showFillings(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if member, err := a.requireMember(ctx, ev, partyID); err != nil || member == nil {
		return err
	}
	fillings, err := a.store.GetFillings(partyID)
	if err != nil {
		return fmt.Errorf("failed to load fillings: %w", err)
	}
	a.respond(ctx, ev, fillingsListText(party.Name, fillings), fillingsKeyboard(partyID))
	return nil
}

func (a *App) showUserFillings(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if member, err := a.requireMember(ctx, ev, partyID); err != nil || member == nil {
		return err
	}
	fillings, err := a.store.GetUserFillings(partyID, ev.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user fillings: %w", err)
	}
	if len(fillings) == 0 {
		a.respond(ctx, ev, "You haven't added any fillings to this party yet.", fillingsKeyboard(partyID))
		return nil
	}
	a.respond(ctx, ev, "✏️ <b>Your fillings</b>\n\nTap one to rename or remove it.", userFillingsKeyboard(partyID, fillings))
	return nil
}

// requireFillingOwner loads a filling and checks that the caller added it
// or is a party admin.
func (a *App) requireFillingOwner(ctx context.Context, ev models.Event, fillingID int64) (*models.Filling, error) {
	filling, err := a.store.GetFillingByID(fillingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load filling: %w", err)
	}
	if filling == nil {
		a.respond(ctx, ev, fillingNotFound, backToMainMenuKeyboard())
		return nil, nil
	}
	if filling.AddedByID != ev.UserID {
		isAdmin, err := a.store.IsAdmin(filling.PartyID, ev.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check admin flag: %w", err)
		}
		if !isAdmin {
			a.respond(ctx, ev, noPermissionText, backToPartyKeyboard(filling.PartyID))
			return nil, nil
		}
	}
	return filling, nil
}

func (a *App) showEditFilling(ctx context.Context, ev models.Event, fillingID int64) error {
	filling, err := a.requireFillingOwner(ctx, ev, fillingID)
	if err != nil || filling == nil {
		return err
	}
	text := fmt.Sprintf("🥧 <b>%s</b>\n\nWhat would you like to do with it?", esc(filling.Name))
	a.respond(ctx, ev, text, editFillingKeyboard(filling))
	return nil
}

func (a *App) removeFilling(ctx context.Context, ev models.Event, fillingID int64) error {
	filling, err := a.requireFillingOwner(ctx, ev, fillingID)
	if err != nil || filling == nil {
		return err
	}
	if err := a.store.DeleteFilling(fillingID); err != nil {
		return fmt.Errorf("failed to delete filling: %w", err)
	}
	a.respond(ctx, ev, fmt.Sprintf("🗑 <b>%s</b> removed.", esc(filling.Name)), fillingsKeyboard(filling.PartyID))
	return nil
}

// addFillingDialog collects the name of a new contribution. Names are
// unique per party regardless of case; on a collision the first
// contributor keeps the entry.
func (a *App) addFillingDialog() *dialog.Definition {
	const typingName dialog.StepID = "typing_name"

	return &dialog.Definition{
		ID:        "add_filling",
		Entry:     func(ev models.Event) bool { return ev.TappedAction(models.ActionAddFilling) },
		EntryStep: typingName,
		Start: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			partyID := ev.Button.PartyID
			if member, err := a.requireMember(ctx, ev, partyID); err != nil || member == nil {
				return dialog.Complete(), err
			}
			a.respond(ctx, ev, "🥧 What will you bring?", cancelKeyboard())
			return dialog.Advance(typingName, models.AddFillingScratch{PartyID: partyID}), nil
		},
		Steps: []dialog.Step{{
			ID: typingName,
			Routes: []dialog.Route{
				{
					When: models.Event.IsPlainText,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						return a.addFillingFromName(ctx, ev, sc.(models.AddFillingScratch))
					},
				},
				{
					When: anyEvent,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						a.respond(ctx, ev, "Please send the filling name as a text message.", cancelKeyboard())
						return dialog.Stay(sc), nil
					},
				},
			},
		}},
		Fallbacks: []dialog.Route{a.cancelToParty(func(sc models.Scratch) int64 {
			return sc.(models.AddFillingScratch).PartyID
		})},
	}
}

func (a *App) addFillingFromName(ctx context.Context, ev models.Event, sc models.AddFillingScratch) (dialog.Outcome, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		a.respond(ctx, ev, "The filling name can't be empty. Try again:", cancelKeyboard())
		return dialog.Stay(sc), nil
	}
	if len([]rune(name)) > models.NameMaxLen {
		a.respond(ctx, ev, fmt.Sprintf("That name is too long (max %d characters). Try a shorter one:", models.NameMaxLen), cancelKeyboard())
		return dialog.Stay(sc), nil
	}

	dup, err := a.store.FindDuplicateFilling(sc.PartyID, name)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to check duplicate filling: %w", err)
	}
	if dup != nil {
		text := fmt.Sprintf("🙈 <b>%s</b> is already covered by %s. Bring something else:", esc(dup.Name), esc(dup.AddedByName))
		a.respond(ctx, ev, text, cancelKeyboard())
		return dialog.Stay(sc), nil
	}

	if _, err := a.store.AddFilling(sc.PartyID, name, ev.UserID, ev.UserName); err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to add filling: %w", err)
	}

	party, err := a.store.GetPartyByID(sc.PartyID)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to load party: %w", err)
	}
	if party == nil {
		a.respond(ctx, ev, partyNotFound, backToMainMenuKeyboard())
		return dialog.Complete(), nil
	}
	fillings, err := a.store.GetFillings(sc.PartyID)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to load fillings: %w", err)
	}
	text := fmt.Sprintf("✅ <b>%s</b> added!\n\n%s", esc(name), fillingsListText(party.Name, fillings))
	a.respond(ctx, ev, text, fillingsKeyboard(sc.PartyID))
	return dialog.Complete(), nil
}

// renameFillingDialog collects a replacement name for an existing filling.
// Renames that only change the case of the same filling are allowed.
func (a *App) renameFillingDialog() *dialog.Definition {
	const typingName dialog.StepID = "typing_rename"

	return &dialog.Definition{
		ID:        "rename_filling",
		Entry:     func(ev models.Event) bool { return ev.TappedAction(models.ActionRenameFilling) },
		EntryStep: typingName,
		Start: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			filling, err := a.requireFillingOwner(ctx, ev, ev.Button.TargetID)
			if err != nil || filling == nil {
				return dialog.Complete(), err
			}
			a.respond(ctx, ev, fmt.Sprintf("✏️ New name for <b>%s</b>:", esc(filling.Name)), cancelKeyboard())
			return dialog.Advance(typingName, models.RenameFillingScratch{FillingID: filling.ID, PartyID: filling.PartyID}), nil
		},
		Steps: []dialog.Step{{
			ID: typingName,
			Routes: []dialog.Route{
				{
					When: models.Event.IsPlainText,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						return a.renameFillingFromName(ctx, ev, sc.(models.RenameFillingScratch))
					},
				},
				{
					When: anyEvent,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						a.respond(ctx, ev, "Please send the new name as a text message.", cancelKeyboard())
						return dialog.Stay(sc), nil
					},
				},
			},
		}},
		Fallbacks: []dialog.Route{a.cancelToParty(func(sc models.Scratch) int64 {
			return sc.(models.RenameFillingScratch).PartyID
		})},
	}
}

func (a *App) renameFillingFromName(ctx context.Context, ev models.Event, sc models.RenameFillingScratch) (dialog.Outcome, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		a.respond(ctx, ev, "The filling name can't be empty. Try again:", cancelKeyboard())
		return dialog.Stay(sc), nil
	}
	if len([]rune(name)) > models.NameMaxLen {
		a.respond(ctx, ev, fmt.Sprintf("That name is too long (max %d characters). Try a shorter one:", models.NameMaxLen), cancelKeyboard())
		return dialog.Stay(sc), nil
	}

	dup, err := a.store.FindDuplicateFilling(sc.PartyID, name)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to check duplicate filling: %w", err)
	}
	if dup != nil && dup.ID != sc.FillingID {
		text := fmt.Sprintf("🙈 <b>%s</b> is already covered by %s. Pick a different name:", esc(dup.Name), esc(dup.AddedByName))
		a.respond(ctx, ev, text, cancelKeyboard())
		return dialog.Stay(sc), nil
	}

	if err := a.store.RenameFilling(sc.FillingID, name); err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to rename filling: %w", err)
	}
	a.respond(ctx, ev, fmt.Sprintf("✅ Renamed to <b>%s</b>.", esc(name)), fillingsKeyboard(sc.PartyID))
	return dialog.Complete(), nil
}
