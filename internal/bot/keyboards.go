package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bringalong/bringalong/internal/models"
)

// btn builds an inline button whose callback data is the encoded action.
func btn(label string, cb models.Callback) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, cb.Encode())
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return buttons
}

func markup(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("🎉 My parties", models.Callback{Action: models.ActionMyParties})),
		row(btn("➕ Create a party", models.Callback{Action: models.ActionCreateParty})),
	)
}

func backToMainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(row(btn("⬅️ Main menu", models.Callback{Action: models.ActionMainMenu})))
}

func partiesListKeyboard(parties []models.PartySummary) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range parties {
		rows = append(rows, row(btn(p.Name, models.Callback{Action: models.ActionOpenParty, PartyID: p.ID})))
	}
	rows = append(rows, row(btn("⬅️ Main menu", models.Callback{Action: models.ActionMainMenu})))
	return markup(rows...)
}

// partyMenuKeyboard is the hub for a single party. Admins get the
// management rows; only the creator never sees "Leave".
func partyMenuKeyboard(party *models.Party, viewerID int64, isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(btn("🥧 Fillings", models.Callback{Action: models.ActionViewFillings, PartyID: party.ID})),
		row(btn("ℹ️ Party info", models.Callback{Action: models.ActionPartyInfo, PartyID: party.ID})),
		row(btn("👥 Members", models.Callback{Action: models.ActionMembers, PartyID: party.ID})),
		row(btn("🔗 Invite link", models.Callback{Action: models.ActionInviteLink, PartyID: party.ID})),
		row(btn("📊 Ratings", models.Callback{Action: models.ActionViewRatings, PartyID: party.ID})),
	}
	if isAdmin {
		rows = append(rows,
			row(btn("📣 Message members", models.Callback{Action: models.ActionBroadcast, PartyID: party.ID})),
			row(btn("⭐ Ask for ratings", models.Callback{Action: models.ActionRateParty, PartyID: party.ID})),
		)
	}
	if viewerID == party.CreatorID {
		rows = append(rows, row(btn("🚫 Cancel party", models.Callback{Action: models.ActionCancelParty, PartyID: party.ID})))
	} else {
		rows = append(rows, row(btn("🚪 Leave party", models.Callback{Action: models.ActionLeaveParty, PartyID: party.ID})))
	}
	rows = append(rows, row(btn("⬅️ My parties", models.Callback{Action: models.ActionMyParties})))
	return markup(rows...)
}

func fillingsKeyboard(partyID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("➕ Add a filling", models.Callback{Action: models.ActionAddFilling, PartyID: partyID})),
		row(btn("✏️ Edit my fillings", models.Callback{Action: models.ActionEditFillings, PartyID: partyID})),
		row(btn("⬅️ Back to party", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})),
	)
}

func userFillingsKeyboard(partyID int64, fillings []models.Filling) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range fillings {
		rows = append(rows, row(btn(f.Name, models.Callback{Action: models.ActionEditOneFilling, TargetID: f.ID})))
	}
	rows = append(rows, row(btn("⬅️ Back", models.Callback{Action: models.ActionViewFillings, PartyID: partyID})))
	return markup(rows...)
}

func editFillingKeyboard(f *models.Filling) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("✏️ Rename", models.Callback{Action: models.ActionRenameFilling, TargetID: f.ID})),
		row(btn("🗑 Remove", models.Callback{Action: models.ActionRemoveFilling, TargetID: f.ID})),
		row(btn("⬅️ Back", models.Callback{Action: models.ActionEditFillings, PartyID: f.PartyID})),
	)
}

func membersKeyboard(partyID int64, isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if isAdmin {
		rows = append(rows, row(btn("🔍 Find a member", models.Callback{Action: models.ActionSearchMember, PartyID: partyID})))
	}
	rows = append(rows, row(btn("⬅️ Back to party", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})))
	return markup(rows...)
}

// memberManageKeyboard is shown under a found member in the admin search.
func memberManageKeyboard(party *models.Party, m *models.Member) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if m.UserID != party.CreatorID {
		if m.IsAdmin {
			rows = append(rows, row(btn("⬇️ Demote admin", models.Callback{Action: models.ActionDemoteAdmin, PartyID: party.ID, TargetID: m.UserID})))
		} else {
			rows = append(rows, row(btn("⭐ Make admin", models.Callback{Action: models.ActionPromoteAdmin, PartyID: party.ID, TargetID: m.UserID})))
		}
		rows = append(rows, row(btn("🥾 Kick", models.Callback{Action: models.ActionKickMember, PartyID: party.ID, TargetID: m.UserID})))
	}
	rows = append(rows, row(btn("⬅️ Back to members", models.Callback{Action: models.ActionMembers, PartyID: party.ID})))
	return markup(rows...)
}

func confirmKickKeyboard(partyID, userID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("✅ Yes, kick", models.Callback{Action: models.ActionConfirmKick, PartyID: partyID, TargetID: userID})),
		row(btn("⬅️ No, go back", models.Callback{Action: models.ActionMembers, PartyID: partyID})),
	)
}

func confirmLeaveKeyboard(partyID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("✅ Yes, leave", models.Callback{Action: models.ActionConfirmLeave, PartyID: partyID})),
		row(btn("⬅️ No, stay", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})),
	)
}

func confirmCancelPartyKeyboard(partyID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("✅ Yes, cancel the party", models.Callback{Action: models.ActionConfirmCancelParty, PartyID: partyID})),
		row(btn("⬅️ No, keep it", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})),
	)
}

// cancelKeyboard is attached to text-entry prompts so the dialogue can be
// abandoned from any step.
func cancelKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(row(btn("✖️ Cancel", models.Callback{Action: models.ActionCancel})))
}

func partyInfoKeyboard(partyID int64, isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if isAdmin {
		rows = append(rows, row(btn("✏️ Edit info", models.Callback{Action: models.ActionEditPartyInfo, PartyID: partyID})))
	}
	rows = append(rows, row(btn("⬅️ Back to party", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})))
	return markup(rows...)
}

// editInfoKeyboard lists the four info fields, marking the filled ones.
func editInfoKeyboard(partyID int64, info models.PartyInfo) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range models.InfoFields {
		label := fieldLabel(f)
		if info.Get(f) != "" {
			label += " ✅"
		}
		rows = append(rows, row(btn(label, models.Callback{Action: models.ActionSetInfo, PartyID: partyID, Field: f})))
	}
	rows = append(rows, row(btn("⬅️ Back to info", models.Callback{Action: models.ActionPartyInfo, PartyID: partyID})))
	return markup(rows...)
}

// infoPromptKeyboard is attached to a "type the new value" prompt. A filled
// field additionally gets a clear button.
func infoPromptKeyboard(partyID int64, field models.InfoField, hasValue bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if hasValue {
		rows = append(rows, row(btn("🗑 Clear this field", models.Callback{Action: models.ActionClearInfo, PartyID: partyID, Field: field})))
	}
	rows = append(rows, row(btn("⬅️ Back", models.Callback{Action: models.ActionEditPartyInfo, PartyID: partyID})))
	return markup(rows...)
}

func ratingStarsKeyboard(partyID int64) *tgbotapi.InlineKeyboardMarkup {
	stars := make([]tgbotapi.InlineKeyboardButton, 0, 5)
	for n := 1; n <= 5; n++ {
		stars = append(stars, btn(fmt.Sprintf("%d⭐", n), models.Callback{Action: models.ActionRate, PartyID: partyID, TargetID: int64(n)}))
	}
	return markup(
		stars,
		row(btn("🙈 Not now", models.Callback{Action: models.ActionDismissRating, PartyID: partyID})),
	)
}

func confirmSendRatingsKeyboard(partyID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		row(btn("✅ Yes, ask everyone", models.Callback{Action: models.ActionConfirmRate, PartyID: partyID})),
		row(btn("⬅️ No, go back", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})),
	)
}

func backToPartyKeyboard(partyID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(row(btn("⬅️ Back to party", models.Callback{Action: models.ActionOpenParty, PartyID: partyID})))
}
