package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bringalong/bringalong/internal/dialog"
	"github.com/bringalong/bringalong/internal/models"
	"github.com/bringalong/bringalong/internal/notify"
)

// mapURL builds a map link for a shared location.
func mapURL(loc models.Location) string {
	return fmt.Sprintf("https://maps.google.com/?q=%s,%s",
		strconv.FormatFloat(loc.Latitude, 'f', 6, 64),
		strconv.FormatFloat(loc.Longitude, 'f', 6, 64))
}

func (a *App) showPartyInfo(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	member, err := a.requireMember(ctx, ev, partyID)
	if err != nil || member == nil {
		return err
	}
	a.respond(ctx, ev, buildInfoText(party.Name, party.Info), partyInfoKeyboard(partyID, member.IsAdmin))
	return nil
}

func (a *App) showEditInfoMenu(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
		return err
	}
	a.respond(ctx, ev, editInfoMenuText(party.Name), editInfoKeyboard(partyID, party.Info))
	return nil
}

func (a *App) clearInfoField(ctx context.Context, ev models.Event, partyID int64, field models.InfoField) error {
	if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
		return err
	}
	if err := a.store.UpdatePartyInfo(partyID, field, nil); err != nil {
		return fmt.Errorf("failed to clear info field: %w", err)
	}
	a.notifier.Arm(partyID, notify.Payload{PartyID: partyID, InitiatorID: ev.UserID})

	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	text := "🗑 Cleared.\n\n" + editInfoMenuText(party.Name)
	a.respond(ctx, ev, text, editInfoKeyboard(partyID, party.Info))
	return nil
}

// persistInfo writes one info field, arms the update notifier, and shows the
// refreshed edit menu.
func (a *App) persistInfo(ctx context.Context, ev models.Event, partyID int64, field models.InfoField, value string) error {
	if err := a.store.UpdatePartyInfo(partyID, field, &value); err != nil {
		return fmt.Errorf("failed to update info field: %w", err)
	}
	a.notifier.Arm(partyID, notify.Payload{PartyID: partyID, InitiatorID: ev.UserID})

	party, err := a.store.GetPartyByID(partyID)
	if err != nil {
		return fmt.Errorf("failed to load party: %w", err)
	}
	if party == nil {
		a.respond(ctx, ev, partyNotFound, backToMainMenuKeyboard())
		return nil
	}
	text := "✅ Saved!\n\n" + buildInfoText(party.Name, party.Info)
	a.respond(ctx, ev, text, editInfoKeyboard(partyID, party.Info))
	return nil
}

func infoPromptText(field models.InfoField, current string) string {
	var prompt string
	switch field {
	case models.InfoAddress:
		prompt = "📍 Type the address, or share a location:"
	case models.InfoMapLink:
		prompt = "🗺 Send a map link, or share a location:"
	case models.InfoDescription:
		prompt = "📝 Type a short description of the party:"
	}
	if current != "" {
		prompt += fmt.Sprintf("\n\nCurrent value:\n%s", esc(current))
	}
	return prompt
}

// setInfoDialog edits one party info field. The date & time field walks a
// calendar and then a time grid (or a typed time); address and map link
// also accept a shared location, which is stored as a map link either way.
func (a *App) setInfoDialog() *dialog.Definition {
	const (
		typingValue dialog.StepID = "typing_value"
		pickingDate dialog.StepID = "picking_date"
		pickingTime dialog.StepID = "picking_time"
	)

	partyOf := func(sc models.Scratch) int64 { return sc.(models.SetInfoScratch).PartyID }

	return &dialog.Definition{
		ID:        "set_party_info",
		Entry:     func(ev models.Event) bool { return ev.TappedAction(models.ActionSetInfo) },
		EntryStep: typingValue,
		Start: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			cb := *ev.Button
			if admin, err := a.requireAdmin(ctx, ev, cb.PartyID); err != nil || admin == nil {
				return dialog.Complete(), err
			}
			party, err := a.requireParty(ctx, ev, cb.PartyID)
			if err != nil || party == nil {
				return dialog.Complete(), err
			}

			sc := models.SetInfoScratch{PartyID: cb.PartyID, Field: cb.Field}
			if cb.Field == models.InfoWhen {
				now := time.Now()
				sc.CalYear, sc.CalMonth = now.Year(), now.Month()
				a.respond(ctx, ev, "🕐 Pick a date:", calendarKeyboard(cb.PartyID, sc.CalYear, sc.CalMonth))
				return dialog.Advance(pickingDate, sc), nil
			}

			current := party.Info.Get(cb.Field)
			a.respond(ctx, ev, infoPromptText(cb.Field, current), infoPromptKeyboard(cb.PartyID, cb.Field, current != ""))
			return dialog.Advance(typingValue, sc), nil
		},
		Steps: []dialog.Step{
			{
				ID: typingValue,
				Routes: []dialog.Route{
					{
						When: models.Event.IsPlainText,
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							return a.setInfoFromText(ctx, ev, sc.(models.SetInfoScratch))
						},
					},
					{
						When: func(ev models.Event) bool { return ev.Kind == models.EventLocation },
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							return a.setInfoFromLocation(ctx, ev, sc.(models.SetInfoScratch))
						},
					},
				},
			},
			{
				ID: pickingDate,
				Routes: []dialog.Route{
					{
						When: func(ev models.Event) bool { return ev.TappedAction(models.ActionCalNav) },
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							return a.navigateCalendar(ctx, ev, sc.(models.SetInfoScratch))
						},
					},
					{
						When: func(ev models.Event) bool { return ev.TappedAction(models.ActionCalPick) },
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							s := sc.(models.SetInfoScratch)
							s.PickedDate = ev.Button.Arg
							s.TimePage = 0
							text := fmt.Sprintf("🕐 Pick a time for <b>%s</b>, or type one like 18:30:", esc(s.PickedDate))
							a.respond(ctx, ev, text, timeGridKeyboard(s.PartyID, 0))
							return dialog.Advance(pickingTime, s), nil
						},
					},
					{
						When: models.Event.IsPlainText,
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							a.respond(ctx, ev, "Please pick a date from the calendar above.", nil)
							return dialog.Stay(sc), nil
						},
					},
				},
			},
			{
				ID: pickingTime,
				Routes: []dialog.Route{
					{
						When: func(ev models.Event) bool { return ev.TappedAction(models.ActionTimePick) },
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							s := sc.(models.SetInfoScratch)
							return a.saveDateTime(ctx, ev, s, ev.Button.Arg)
						},
					},
					{
						When: func(ev models.Event) bool { return ev.TappedAction(models.ActionTimePage) },
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							s := sc.(models.SetInfoScratch)
							page, err := strconv.Atoi(ev.Button.Arg)
							if err != nil {
								return dialog.Stay(s), nil
							}
							s.TimePage = page
							text := fmt.Sprintf("🕐 Pick a time for <b>%s</b>, or type one like 18:30:", esc(s.PickedDate))
							a.respond(ctx, ev, text, timeGridKeyboard(s.PartyID, page))
							return dialog.Stay(s), nil
						},
					},
					{
						When: models.Event.IsPlainText,
						Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
							s := sc.(models.SetInfoScratch)
							clock, ok := parseClockTime(ev.Text)
							if !ok {
								a.respond(ctx, ev, "I couldn't read that time. Try something like 18:30, or use the buttons above.", nil)
								return dialog.Stay(s), nil
							}
							return a.saveDateTime(ctx, ev, s, clock)
						},
					},
				},
			},
		},
		Fallbacks: []dialog.Route{
			{
				// The clear button inside the prompt ends the dialogue.
				When: func(ev models.Event) bool { return ev.TappedAction(models.ActionClearInfo) },
				Do: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
					cb := *ev.Button
					return dialog.Complete(), a.clearInfoField(ctx, ev, cb.PartyID, cb.Field)
				},
			},
			{
				// Back buttons return to the edit menu and end the dialogue.
				When: func(ev models.Event) bool { return ev.TappedAction(models.ActionEditPartyInfo) },
				Do: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
					return dialog.Complete(), a.showEditInfoMenu(ctx, ev, ev.Button.PartyID)
				},
			},
			a.cancelToParty(partyOf),
		},
	}
}

func (a *App) setInfoFromText(ctx context.Context, ev models.Event, sc models.SetInfoScratch) (dialog.Outcome, error) {
	value := strings.TrimSpace(ev.Text)
	if value == "" {
		a.respond(ctx, ev, "The value can't be empty. Try again:", infoPromptKeyboard(sc.PartyID, sc.Field, false))
		return dialog.Stay(sc), nil
	}
	if len([]rune(value)) > models.InfoMaxLen {
		a.respond(ctx, ev, fmt.Sprintf("That's too long (max %d characters). Try a shorter one:", models.InfoMaxLen), infoPromptKeyboard(sc.PartyID, sc.Field, false))
		return dialog.Stay(sc), nil
	}
	if sc.Field == models.InfoMapLink && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		a.respond(ctx, ev, "That doesn't look like a link. Send a URL starting with http(s)://, or share a location:", infoPromptKeyboard(sc.PartyID, sc.Field, false))
		return dialog.Stay(sc), nil
	}
	if err := a.persistInfo(ctx, ev, sc.PartyID, sc.Field, value); err != nil {
		return dialog.Outcome{}, err
	}
	return dialog.Complete(), nil
}

// setInfoFromLocation stores a shared location as a map link. When the user
// was editing the address, the dialogue then keeps waiting for the address
// text; the map link is a bonus, not the answer.
func (a *App) setInfoFromLocation(ctx context.Context, ev models.Event, sc models.SetInfoScratch) (dialog.Outcome, error) {
	if sc.Field != models.InfoAddress && sc.Field != models.InfoMapLink {
		a.respond(ctx, ev, "A location doesn't fit here. Please type the value instead:", infoPromptKeyboard(sc.PartyID, sc.Field, false))
		return dialog.Stay(sc), nil
	}

	url := mapURL(*ev.Location)
	if sc.Field == models.InfoMapLink {
		if err := a.persistInfo(ctx, ev, sc.PartyID, models.InfoMapLink, url); err != nil {
			return dialog.Outcome{}, err
		}
		return dialog.Complete(), nil
	}

	if err := a.store.UpdatePartyInfo(sc.PartyID, models.InfoMapLink, &url); err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to save map link: %w", err)
	}
	a.respond(ctx, ev, "🗺 Map link saved! Now type the address text:", infoPromptKeyboard(sc.PartyID, models.InfoAddress, false))
	return dialog.Stay(sc), nil
}

func (a *App) navigateCalendar(ctx context.Context, ev models.Event, sc models.SetInfoScratch) (dialog.Outcome, error) {
	cursor, err := time.Parse(calCursorLayout, ev.Button.Arg)
	if err != nil {
		return dialog.Stay(sc), nil
	}
	sc.CalYear, sc.CalMonth = cursor.Year(), cursor.Month()
	a.respond(ctx, ev, "🕐 Pick a date:", calendarKeyboard(sc.PartyID, sc.CalYear, sc.CalMonth))
	return dialog.Stay(sc), nil
}

func (a *App) saveDateTime(ctx context.Context, ev models.Event, sc models.SetInfoScratch, clock string) (dialog.Outcome, error) {
	value := sc.PickedDate + " " + clock
	if err := a.persistInfo(ctx, ev, sc.PartyID, models.InfoWhen, value); err != nil {
		return dialog.Outcome{}, err
	}
	return dialog.Complete(), nil
}
