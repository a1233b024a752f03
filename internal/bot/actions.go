package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bringalong/bringalong/internal/models"
)

// dispatchAction handles every event the engine did not route to a
// dialogue: commands, menu taps and anything stateless.
func (a *App) dispatchAction(ctx context.Context, ev models.Event) error {
	if ev.IsCommand() {
		return a.handleCommand(ctx, ev)
	}
	if ev.Kind != models.EventButton || ev.Button == nil {
		// Stray text or media outside any dialogue is ignored.
		slog.Debug("event outside any dialogue ignored", "userID", ev.UserID, "kind", ev.Kind)
		return nil
	}

	cb := *ev.Button
	switch cb.Action {
	case models.ActionNoop:
		return nil
	case models.ActionMainMenu, models.ActionCancel:
		// A stray cancel outside a dialogue just lands on the main menu.
		return a.showMainMenu(ctx, ev)
	case models.ActionMyParties:
		return a.showMyParties(ctx, ev)

	case models.ActionOpenParty:
		return a.showParty(ctx, ev, cb.PartyID)
	case models.ActionInviteLink:
		return a.showInviteLink(ctx, ev, cb.PartyID)
	case models.ActionLeaveParty:
		return a.askLeaveParty(ctx, ev, cb.PartyID)
	case models.ActionConfirmLeave:
		return a.leaveParty(ctx, ev, cb.PartyID)
	case models.ActionCancelParty:
		return a.askCancelParty(ctx, ev, cb.PartyID)
	case models.ActionConfirmCancelParty:
		return a.cancelParty(ctx, ev, cb.PartyID)

	case models.ActionViewFillings:
		return a.showFillings(ctx, ev, cb.PartyID)
	case models.ActionEditFillings:
		return a.showUserFillings(ctx, ev, cb.PartyID)
	case models.ActionEditOneFilling:
		return a.showEditFilling(ctx, ev, cb.TargetID)
	case models.ActionRemoveFilling:
		return a.removeFilling(ctx, ev, cb.TargetID)

	case models.ActionMembers:
		return a.showMembers(ctx, ev, cb.PartyID)
	case models.ActionKickMember:
		return a.askKickMember(ctx, ev, cb.PartyID, cb.TargetID)
	case models.ActionConfirmKick:
		return a.kickMember(ctx, ev, cb.PartyID, cb.TargetID)
	case models.ActionPromoteAdmin:
		return a.setMemberAdmin(ctx, ev, cb.PartyID, cb.TargetID, true)
	case models.ActionDemoteAdmin:
		return a.setMemberAdmin(ctx, ev, cb.PartyID, cb.TargetID, false)

	case models.ActionPartyInfo:
		return a.showPartyInfo(ctx, ev, cb.PartyID)
	case models.ActionEditPartyInfo:
		return a.showEditInfoMenu(ctx, ev, cb.PartyID)
	case models.ActionClearInfo:
		return a.clearInfoField(ctx, ev, cb.PartyID, cb.Field)

	case models.ActionRateParty:
		return a.askSendRatingRequests(ctx, ev, cb.PartyID)
	case models.ActionConfirmRate:
		return a.sendRatingRequests(ctx, ev, cb.PartyID)
	case models.ActionRate:
		return a.saveRating(ctx, ev, cb.PartyID, int(cb.TargetID))
	case models.ActionDismissRating:
		return a.dismissRating(ctx, ev)
	case models.ActionViewRatings:
		return a.showRatings(ctx, ev, cb.PartyID)
	}

	slog.Debug("unhandled callback action", "action", cb.Action, "userID", ev.UserID)
	return nil
}

func (a *App) handleCommand(ctx context.Context, ev models.Event) error {
	switch ev.Command {
	case "start":
		if ev.CommandArgs != "" {
			return a.joinByCode(ctx, ev, ev.CommandArgs)
		}
		return a.showMainMenu(ctx, ev)
	case "parties":
		return a.showMyParties(ctx, ev)
	default:
		slog.Debug("unknown command ignored", "command", ev.Command, "userID", ev.UserID)
		return nil
	}
}

func (a *App) showMainMenu(ctx context.Context, ev models.Event) error {
	text := fmt.Sprintf("👋 Hi, %s!\n\nI help you plan parties and keep track of who brings what.", esc(ev.UserName))
	a.respond(ctx, ev, text, mainMenuKeyboard())
	return nil
}

func (a *App) showMyParties(ctx context.Context, ev models.Event) error {
	parties, err := a.store.PartiesForUser(ev.UserID)
	if err != nil {
		return fmt.Errorf("failed to list parties: %w", err)
	}
	if len(parties) == 0 {
		a.respond(ctx, ev, "You are not in any parties yet. Create one, or join via an invite link!", mainMenuKeyboard())
		return nil
	}
	a.respond(ctx, ev, "🎉 <b>Your parties</b>\n\nTap one to open it.", partiesListKeyboard(parties))
	return nil
}
