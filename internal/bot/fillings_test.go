package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/bringalong/bringalong/internal/models"
)

func TestAddFillingFlow(t *testing.T) {
	app, st, _ := newTestApp(t)
	partyID := seedParty(t, st)
	ctx := context.Background()

	app.HandleEvent(ctx, tapEvent(2, models.Callback{Action: models.ActionAddFilling, PartyID: partyID}))
	app.HandleEvent(ctx, textEvent(2, "Apple Pie"))

	fillings, _ := st.GetFillings(partyID)
	if len(fillings) != 1 || fillings[0].Name != "Apple Pie" {
		t.Fatalf("got fillings %v, want one named Apple Pie", fillings)
	}
	if app.sessions.Get(2) != nil {
		t.Error("dialogue should be complete")
	}
}

func TestAddFillingDuplicateKeepsFirstContributor(t *testing.T) {
	app, st, sender := newTestApp(t)
	partyID := seedParty(t, st)
	ctx := context.Background()

	if _, err := st.AddFilling(partyID, "Apple Pie", 2, "Bob"); err != nil {
		t.Fatalf("failed to seed filling: %v", err)
	}

	app.HandleEvent(ctx, tapEvent(1, models.Callback{Action: models.ActionAddFilling, PartyID: partyID}))
	app.HandleEvent(ctx, textEvent(1, "apple pie"))

	fillings, _ := st.GetFillings(partyID)
	if len(fillings) != 1 {
		t.Errorf("got %d fillings, want 1: names are unique per party regardless of case", len(fillings))
	}
	refusal := sender.last().Text
	if !strings.Contains(refusal, "Apple Pie") || !strings.Contains(refusal, "Bob") {
		t.Errorf("the refusal should name the existing filling and its contributor, got %q", refusal)
	}
	if app.sessions.Get(1) == nil {
		t.Error("dialogue should keep waiting for a different filling")
	}
}

func TestAddFillingRequiresMembership(t *testing.T) {
	app, st, _ := newTestApp(t)
	partyID := seedParty(t, st)
	ctx := context.Background()

	app.HandleEvent(ctx, tapEvent(99, models.Callback{Action: models.ActionAddFilling, PartyID: partyID}))
	if app.sessions.Get(99) != nil {
		t.Error("a non-member should not enter the dialogue")
	}
}

func TestRenameFillingCaseOnlyChange(t *testing.T) {
	app, st, _ := newTestApp(t)
	partyID := seedParty(t, st)
	ctx := context.Background()

	fillingID, err := st.AddFilling(partyID, "Pie", 2, "Bob")
	if err != nil {
		t.Fatalf("failed to seed filling: %v", err)
	}

	// Renaming to a different casing of itself is not a collision.
	app.HandleEvent(ctx, tapEvent(2, models.Callback{Action: models.ActionRenameFilling, TargetID: fillingID}))
	app.HandleEvent(ctx, textEvent(2, "pie"))

	filling, _ := st.GetFillingByID(fillingID)
	if filling.Name != "pie" {
		t.Errorf("filling name = %q, want %q", filling.Name, "pie")
	}
	if app.sessions.Get(2) != nil {
		t.Error("dialogue should be complete")
	}
}

func TestRenameFillingCollisionRejected(t *testing.T) {
	app, st, _ := newTestApp(t)
	partyID := seedParty(t, st)
	ctx := context.Background()

	if _, err := st.AddFilling(partyID, "Apple Pie", 1, "Alice"); err != nil {
		t.Fatalf("failed to seed filling: %v", err)
	}
	fillingID, err := st.AddFilling(partyID, "Plum Cake", 2, "Bob")
	if err != nil {
		t.Fatalf("failed to seed filling: %v", err)
	}

	app.HandleEvent(ctx, tapEvent(2, models.Callback{Action: models.ActionRenameFilling, TargetID: fillingID}))
	app.HandleEvent(ctx, textEvent(2, "APPLE PIE"))

	filling, _ := st.GetFillingByID(fillingID)
	if filling.Name != "Plum Cake" {
		t.Errorf("filling name = %q, want unchanged %q", filling.Name, "Plum Cake")
	}
}

func TestRemoveFillingOwnership(t *testing.T) {
	app, st, sender := newTestApp(t)
	partyID := seedParty(t, st)
	ctx := context.Background()

	if _, err := st.AddMember(partyID, 3, "Carol", false); err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}
	fillingID, err := st.AddFilling(partyID, "Apple Pie", 2, "Bob")
	if err != nil {
		t.Fatalf("failed to seed filling: %v", err)
	}

	// Another regular member may not remove it.
	app.HandleEvent(ctx, tapEvent(3, models.Callback{Action: models.ActionRemoveFilling, TargetID: fillingID}))
	if filling, _ := st.GetFillingByID(fillingID); filling == nil {
		t.Fatal("a regular member must not remove someone else's filling")
	}
	if !strings.Contains(sender.last().Text, noPermissionText) {
		t.Errorf("expected a permission refusal, got %q", sender.last().Text)
	}

	// An admin may.
	app.HandleEvent(ctx, tapEvent(1, models.Callback{Action: models.ActionRemoveFilling, TargetID: fillingID}))
	if filling, _ := st.GetFillingByID(fillingID); filling != nil {
		t.Error("an admin should be able to remove any filling")
	}
}
