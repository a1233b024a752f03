package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bringalong/bringalong/internal/models"
)

func (a *App) askSendRatingRequests(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
		return err
	}
	text := fmt.Sprintf("⭐ Ask every member to rate <b>%s</b>?", esc(party.Name))
	a.respond(ctx, ev, text, confirmSendRatingsKeyboard(partyID))
	return nil
}

// sendRatingRequests broadcasts a star keyboard to every member.
func (a *App) sendRatingRequests(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
		return err
	}
	members, err := a.store.GetMembers(partyID)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}

	text := fmt.Sprintf("⭐ How was <b>%s</b>?", esc(party.Name))
	var sent, failed int
	for _, m := range members {
		if err := a.sender.SendMessage(ctx, m.UserID, text, ratingStarsKeyboard(partyID)); err != nil {
			failed++
			continue
		}
		sent++
	}
	slog.Info("rating requests sent", "partyID", partyID, "sent", sent, "failed", failed)

	a.respond(ctx, ev, fmt.Sprintf("⭐ Asked %d member(s) to rate the party.", sent), backToPartyKeyboard(partyID))
	return nil
}

func (a *App) saveRating(ctx context.Context, ev models.Event, partyID int64, stars int) error {
	if stars < 1 || stars > 5 {
		return nil
	}
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	if member, err := a.requireMember(ctx, ev, partyID); err != nil || member == nil {
		return err
	}
	previous, err := a.store.GetUserRating(partyID, ev.UserID)
	if err != nil {
		return fmt.Errorf("failed to load previous rating: %w", err)
	}
	if err := a.store.SaveRating(partyID, ev.UserID, stars); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	text := fmt.Sprintf("Thanks! You rated <b>%s</b> %s. Tap a star again to change it.", esc(party.Name), starDisplay(stars))
	if previous != nil && previous.Stars != stars {
		text = fmt.Sprintf("Updated! <b>%s</b> is now %s for you.", esc(party.Name), starDisplay(stars))
	}
	a.respond(ctx, ev, text, ratingStarsKeyboard(partyID))
	return nil
}

func (a *App) dismissRating(ctx context.Context, ev models.Event) error {
	a.respond(ctx, ev, "No problem! You can rate the party later from its menu.", nil)
	return nil
}

func (a *App) showRatings(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	member, err := a.requireMember(ctx, ev, partyID)
	if err != nil || member == nil {
		return err
	}
	ratings, err := a.store.GetRatings(partyID)
	if err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	if len(ratings) == 0 {
		a.respond(ctx, ev, fmt.Sprintf("📊 Nobody has rated <b>%s</b> yet.", esc(party.Name)), backToPartyKeyboard(partyID))
		return nil
	}

	var sum int
	lines := []string{fmt.Sprintf("📊 <b>Ratings for %s</b>\n", esc(party.Name))}
	for _, r := range ratings {
		sum += r.Stars
		// The per-member breakdown is admin-only; everyone else sees the
		// average.
		if member.IsAdmin {
			lines = append(lines, fmt.Sprintf("%s %s", starDisplay(r.Stars), esc(r.DisplayName)))
		}
	}
	lines = append(lines, fmt.Sprintf("Average: %.1f⭐ from %d rating(s)", float64(sum)/float64(len(ratings)), len(ratings)))
	a.respond(ctx, ev, strings.Join(lines, "\n"), backToPartyKeyboard(partyID))
	return nil
}
