package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/bringalong/bringalong/internal/models"
)

// Shared user-facing strings.
const (
	notAMemberText   = "⚠️ You are no longer a member of this party."
	noPermissionText = "You don't have permission to do this."
	partyNotFound    = "Party not found."
	fillingNotFound  = "Filling not found."
	cancelledText    = "Cancelled."
)

// esc escapes text for Telegram HTML parse mode.
func esc(text string) string {
	return html.EscapeString(text)
}

// fieldLabel returns the display label for an info field.
func fieldLabel(f models.InfoField) string {
	switch f {
	case models.InfoWhen:
		return "🕐 Date & time"
	case models.InfoAddress:
		return "📍 Address"
	case models.InfoMapLink:
		return "🗺 Map link"
	case models.InfoDescription:
		return "📝 Description"
	}
	return string(f)
}

// buildInfoText renders the formatted party info message.
func buildInfoText(partyName string, info models.PartyInfo) string {
	lines := []string{fmt.Sprintf("ℹ️ <b>Party info for %s</b>\n", esc(partyName))}

	if info.When != "" {
		lines = append(lines, fmt.Sprintf("🕐 <b>Date & time:</b> %s", esc(info.When)))
	}
	if info.Address != "" {
		lines = append(lines, fmt.Sprintf("📍 <b>Address:</b> %s", esc(info.Address)))
	}
	if info.MapLink != "" {
		lines = append(lines, fmt.Sprintf(`🗺 <b>Map:</b> <a href="%s">%s</a>`, esc(info.MapLink), esc(info.MapLink)))
	}
	if info.Description != "" {
		lines = append(lines, fmt.Sprintf("📝 <b>Notes:</b> %s", esc(info.Description)))
	}

	if len(lines) == 1 {
		lines = append(lines, "No info has been added yet.")
	}
	return strings.Join(lines, "\n")
}

// editInfoMenuText renders the header of the field-selection menu.
func editInfoMenuText(partyName string) string {
	return fmt.Sprintf("✏️ <b>Edit info for %s</b>\n\nTap a field to set or change it.\n✅ = already set", esc(partyName))
}

// starDisplay returns a visual star string like ⭐⭐⭐☆☆ for a rating 1-5.
func starDisplay(stars int) string {
	return strings.Repeat("⭐", stars) + strings.Repeat("☆", 5-stars)
}

// inviteLink builds the deep link that joins a party.
func inviteLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}
