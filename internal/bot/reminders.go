package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const whenLayout = "2006-01-02 15:04"

// RemindUpcoming messages the members of every party scheduled for the day
// after now. Run once a day by the cron scheduler; send failures are
// counted, never fatal.
func (a *App) RemindUpcoming(ctx context.Context, now time.Time) error {
	parties, err := a.store.PartiesWithDate()
	if err != nil {
		return fmt.Errorf("failed to load dated parties: %w", err)
	}

	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	for _, p := range parties {
		when, err := time.Parse(whenLayout, p.Info.When)
		if err != nil {
			slog.Debug("skipping party with unparseable date", "partyID", p.ID, "when", p.Info.When)
			continue
		}
		if when.Format("2006-01-02") != tomorrow {
			continue
		}

		members, err := a.store.GetMembers(p.ID)
		if err != nil {
			slog.Error("reminder sweep: failed to load members", "error", err, "partyID", p.ID)
			continue
		}
		clock := strings.TrimPrefix(p.Info.When, tomorrow+" ")
		text := fmt.Sprintf("🔔 <b>%s</b> is tomorrow at %s!", esc(p.Name), esc(clock))
		var sent, failed int
		for _, m := range members {
			if err := a.sender.SendMessage(ctx, m.UserID, text, backToPartyKeyboard(p.ID)); err != nil {
				failed++
				continue
			}
			sent++
		}
		slog.Info("party reminder sent", "partyID", p.ID, "sent", sent, "failed", failed)
	}
	return nil
}
