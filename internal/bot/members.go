package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bringalong/bringalong/internal/dialog"
	"github.com/bringalong/bringalong/internal/models"
)

func membersListText(party *models.Party, members []models.Member) string {
	lines := []string{fmt.Sprintf("👥 <b>Members of %s</b> (%d)\n", esc(party.Name), len(members))}
	for _, m := range members {
		switch {
		case m.UserID == party.CreatorID:
			lines = append(lines, fmt.Sprintf("👑 %s", esc(m.DisplayName)))
		case m.IsAdmin:
			lines = append(lines, fmt.Sprintf("⭐ %s", esc(m.DisplayName)))
		default:
			lines = append(lines, fmt.Sprintf("• %s", esc(m.DisplayName)))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) showMembers(ctx context.Context, ev models.Event, partyID int64) error {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return err
	}
	member, err := a.requireMember(ctx, ev, partyID)
	if err != nil || member == nil {
		return err
	}
	members, err := a.store.GetMembers(partyID)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}
	a.respond(ctx, ev, membersListText(party, members), membersKeyboard(partyID, member.IsAdmin))
	return nil
}

// requireManageableTarget checks that the caller is an admin and the target
// is a managed member who is not the party creator.
func (a *App) requireManageableTarget(ctx context.Context, ev models.Event, partyID, targetID int64) (*models.Party, *models.Member, error) {
	party, err := a.requireParty(ctx, ev, partyID)
	if err != nil || party == nil {
		return nil, nil, err
	}
	if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
		return nil, nil, err
	}
	if targetID == party.CreatorID {
		a.respond(ctx, ev, "The party creator can't be managed.", backToPartyKeyboard(partyID))
		return nil, nil, nil
	}
	target, err := a.store.GetMember(partyID, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load target member: %w", err)
	}
	if target == nil {
		a.respond(ctx, ev, "This person is no longer a member.", membersKeyboard(partyID, true))
		return nil, nil, nil
	}
	return party, target, nil
}

func (a *App) askKickMember(ctx context.Context, ev models.Event, partyID, targetID int64) error {
	party, target, err := a.requireManageableTarget(ctx, ev, partyID, targetID)
	if err != nil || target == nil {
		return err
	}
	text := fmt.Sprintf("Kick <b>%s</b> from <b>%s</b>? Their fillings will be removed too.", esc(target.DisplayName), esc(party.Name))
	a.respond(ctx, ev, text, confirmKickKeyboard(partyID, targetID))
	return nil
}

func (a *App) kickMember(ctx context.Context, ev models.Event, partyID, targetID int64) error {
	party, target, err := a.requireManageableTarget(ctx, ev, partyID, targetID)
	if err != nil || target == nil {
		return err
	}
	if err := a.store.RemoveMember(partyID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	a.send(ctx, targetID, fmt.Sprintf("You have been removed from <b>%s</b>.", esc(party.Name)), nil)
	a.respond(ctx, ev, fmt.Sprintf("🥾 <b>%s</b> has been kicked.", esc(target.DisplayName)), membersKeyboard(partyID, true))
	return nil
}

func (a *App) setMemberAdmin(ctx context.Context, ev models.Event, partyID, targetID int64, makeAdmin bool) error {
	party, target, err := a.requireManageableTarget(ctx, ev, partyID, targetID)
	if err != nil || target == nil {
		return err
	}

	if makeAdmin {
		if err := a.store.PromoteAdmin(partyID, targetID); err != nil {
			return fmt.Errorf("failed to promote member: %w", err)
		}
		a.send(ctx, targetID, fmt.Sprintf("⭐ You are now an admin of <b>%s</b>!", esc(party.Name)), nil)
		a.respond(ctx, ev, fmt.Sprintf("⭐ <b>%s</b> is now an admin.", esc(target.DisplayName)), membersKeyboard(partyID, true))
		return nil
	}

	if err := a.store.DemoteAdmin(partyID, targetID); err != nil {
		return fmt.Errorf("failed to demote member: %w", err)
	}
	a.respond(ctx, ev, fmt.Sprintf("⬇️ <b>%s</b> is no longer an admin.", esc(target.DisplayName)), membersKeyboard(partyID, true))
	return nil
}

// searchMemberDialog lets an admin find a member by name to manage them.
func (a *App) searchMemberDialog() *dialog.Definition {
	const typingQuery dialog.StepID = "typing_query"

	return &dialog.Definition{
		ID:        "search_member",
		Entry:     func(ev models.Event) bool { return ev.TappedAction(models.ActionSearchMember) },
		EntryStep: typingQuery,
		Start: func(ctx context.Context, ev models.Event, _ models.Scratch) (dialog.Outcome, error) {
			partyID := ev.Button.PartyID
			if admin, err := a.requireAdmin(ctx, ev, partyID); err != nil || admin == nil {
				return dialog.Complete(), err
			}
			a.respond(ctx, ev, "🔍 Type part of the member's name:", cancelKeyboard())
			return dialog.Advance(typingQuery, models.SearchMemberScratch{PartyID: partyID}), nil
		},
		Steps: []dialog.Step{{
			ID: typingQuery,
			Routes: []dialog.Route{
				{
					When: models.Event.IsPlainText,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						return a.searchMemberFromQuery(ctx, ev, sc.(models.SearchMemberScratch))
					},
				},
				{
					When: anyEvent,
					Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (dialog.Outcome, error) {
						a.respond(ctx, ev, "Please send the search text as a message.", cancelKeyboard())
						return dialog.Stay(sc), nil
					},
				},
			},
		}},
		Fallbacks: []dialog.Route{a.cancelToParty(func(sc models.Scratch) int64 {
			return sc.(models.SearchMemberScratch).PartyID
		})},
	}
}

func (a *App) searchMemberFromQuery(ctx context.Context, ev models.Event, sc models.SearchMemberScratch) (dialog.Outcome, error) {
	query := strings.TrimSpace(ev.Text)
	if query == "" {
		a.respond(ctx, ev, "Type at least one character to search for:", cancelKeyboard())
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

	matches, err := a.store.SearchMembers(sc.PartyID, query)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("failed to search members: %w", err)
	}
	switch len(matches) {
	case 0:
		a.respond(ctx, ev, fmt.Sprintf("Nobody matching <b>%s</b>. Try again:", esc(query)), cancelKeyboard())
		return dialog.Stay(sc), nil
	case 1:
		m := matches[0]
		a.respond(ctx, ev, fmt.Sprintf("👤 <b>%s</b>", esc(m.DisplayName)), memberManageKeyboard(party, &m))
		return dialog.Complete(), nil
	default:
		a.respond(ctx, ev, fmt.Sprintf("Found %d people matching <b>%s</b>. Narrow it down:", len(matches), esc(query)), cancelKeyboard())
		return dialog.Stay(sc), nil
	}
}
