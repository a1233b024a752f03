package bot

import (
	"testing"
	"time"
)

func TestCalendarKeyboardLayout(t *testing.T) {
	// September 2026 starts on a Tuesday and has 30 days.
	kb := calendarKeyboard(7, 2026, time.September)
	rows := kb.InlineKeyboard

	// Header, weekday labels, five week rows, back button.
	if len(rows) != 8 {
		t.Fatalf("got %d rows, want 8", len(rows))
	}
	if len(rows[1]) != 7 {
		t.Errorf("weekday row has %d cells, want 7", len(rows[1]))
	}

	firstWeek := rows[2]
	if got := *firstWeek[0].CallbackData; got != "noop" {
		t.Errorf("Monday before the 1st should be inert, got %q", got)
	}
	if got := *firstWeek[1].CallbackData; got != "cal_pick:7:2026-09-01" {
		t.Errorf("first day cell = %q", got)
	}

	var days int
	for _, week := range rows[2:7] {
		if len(week) != 7 {
			t.Errorf("week row has %d cells, want 7", len(week))
		}
		for _, cell := range week {
			if *cell.CallbackData != "noop" {
				days++
			}
		}
	}
	if days != 30 {
		t.Errorf("got %d day cells, want 30", days)
	}
}

func TestCalendarNavTargets(t *testing.T) {
	kb := calendarKeyboard(7, 2026, time.January)
	header := kb.InlineKeyboard[0]
	if got := *header[0].CallbackData; got != "cal_nav:7:2025-12" {
		t.Errorf("prev arrow = %q, want cal_nav:7:2025-12", got)
	}
	if got := *header[2].CallbackData; got != "cal_nav:7:2026-02" {
		t.Errorf("next arrow = %q, want cal_nav:7:2026-02", got)
	}
}

func TestTimeGridPagination(t *testing.T) {
	pages := (len(timeSlots) + timePageSize - 1) / timePageSize

	first := timeGridKeyboard(7, 0)
	if got := *first.InlineKeyboard[0][0].CallbackData; got != "time_pick:7:00:00" {
		t.Errorf("first slot = %q, want time_pick:7:00:00", got)
	}

	// Out-of-range pages clamp instead of panicking.
	last := timeGridKeyboard(7, pages+10)
	firstOfLast := *last.InlineKeyboard[0][0].CallbackData
	if firstOfLast == "time_pick:7:00:00" {
		t.Error("clamped last page should not start at midnight")
	}
	clampedLow := timeGridKeyboard(7, -3)
	if got := *clampedLow.InlineKeyboard[0][0].CallbackData; got != "time_pick:7:00:00" {
		t.Errorf("clamped first page starts at %q, want midnight", got)
	}
}
