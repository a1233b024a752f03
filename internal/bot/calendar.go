package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bringalong/bringalong/internal/models"
)

const (
	calCursorLayout = "2006-01"
	calDateLayout   = "2006-01-02"

	timePageSize = 12
)

// timeSlots are the half-hour options offered by the time grid.
var timeSlots = buildTimeSlots()

func buildTimeSlots() []string {
	slots := make([]string, 0, 48)
	for h := 0; h < 24; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	return slots
}

func noopBtn(label string) tgbotapi.InlineKeyboardButton {
	return btn(label, models.Callback{Action: models.ActionNoop})
}

// calendarKeyboard renders one month as a tappable grid. Weeks start on
// Monday; padding cells are inert.
func calendarKeyboard(partyID int64, year int, month time.Month) *tgbotapi.InlineKeyboardMarkup {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	daysInMonth := next.AddDate(0, 0, -1).Day()

	rows := [][]tgbotapi.InlineKeyboardButton{
		row(
			btn("◀️", models.Callback{Action: models.ActionCalNav, PartyID: partyID, Arg: prev.Format(calCursorLayout)}),
			noopBtn(first.Format("January 2006")),
			btn("▶️", models.Callback{Action: models.ActionCalNav, PartyID: partyID, Arg: next.Format(calCursorLayout)}),
		),
	}

	weekdays := row(noopBtn("Mo"), noopBtn("Tu"), noopBtn("We"), noopBtn("Th"), noopBtn("Fr"), noopBtn("Sa"), noopBtn("Su"))
	rows = append(rows, weekdays)

	// Monday-first offset of the month's first day.
	offset := (int(first.Weekday()) + 6) % 7

	week := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, noopBtn(" "))
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		week = append(week, btn(strconv.Itoa(day), models.Callback{
			Action:  models.ActionCalPick,
			PartyID: partyID,
			Arg:     date.Format(calDateLayout),
		}))
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]tgbotapi.InlineKeyboardButton, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, noopBtn(" "))
		}
		rows = append(rows, week)
	}

	rows = append(rows, row(btn("⬅️ Back", models.Callback{Action: models.ActionEditPartyInfo, PartyID: partyID})))
	return markup(rows...)
}

// timeGridKeyboard renders one page of half-hour slots plus pager arrows.
func timeGridKeyboard(partyID int64, page int) *tgbotapi.InlineKeyboardMarkup {
	pages := (len(timeSlots) + timePageSize - 1) / timePageSize
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	start := page * timePageSize
	end := start + timePageSize
	if end > len(timeSlots) {
		end = len(timeSlots)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var line []tgbotapi.InlineKeyboardButton
	for _, slot := range timeSlots[start:end] {
		line = append(line, btn(slot, models.Callback{Action: models.ActionTimePick, PartyID: partyID, Arg: slot}))
		if len(line) == 3 {
			rows = append(rows, line)
			line = nil
		}
	}
	if len(line) > 0 {
		rows = append(rows, line)
	}

	pager := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	if page > 0 {
		pager = append(pager, btn("◀️", models.Callback{Action: models.ActionTimePage, PartyID: partyID, Arg: strconv.Itoa(page - 1)}))
	}
	pager = append(pager, noopBtn(fmt.Sprintf("%d/%d", page+1, pages)))
	if page < pages-1 {
		pager = append(pager, btn("▶️", models.Callback{Action: models.ActionTimePage, PartyID: partyID, Arg: strconv.Itoa(page + 1)}))
	}
	rows = append(rows, pager)

	rows = append(rows, row(btn("⬅️ Back", models.Callback{Action: models.ActionEditPartyInfo, PartyID: partyID})))
	return markup(rows...)
}

// clockTimePattern accepts "18:30", "18.30", "18 30" and "1830": one or two
// hour digits, an optional separator, exactly two minute digits.
var clockTimePattern = regexp.MustCompile(`^(\d{1,2})[:.\s]?(\d{2})$`)

// parseClockTime parses a typed time of day and normalizes it to "HH:MM".
// Out-of-range hours or minutes are rejected.
func parseClockTime(input string) (string, bool) {
	m := clockTimePattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
