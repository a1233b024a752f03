package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/bringalong/bringalong/internal/models"
	"github.com/bringalong/bringalong/internal/session"
)

func textEvent(userID int64, text string) models.Event {
	return models.Event{Kind: models.EventText, UserID: userID, ChatID: userID, Text: text}
}

func tapEvent(userID int64, action models.Action) models.Event {
	return models.Event{Kind: models.EventButton, UserID: userID, ChatID: userID, Button: &models.Callback{Action: action}}
}

func isText(ev models.Event) bool { return ev.IsPlainText() }

func isTap(action models.Action) Predicate {
	return func(ev models.Event) bool { return ev.TappedAction(action) }
}

// twoStepDef builds a linear dialogue: entry tap -> stepOne (text) ->
// stepTwo (text) -> complete, with a cancel fallback.
func twoStepDef(id ID, entry models.Action, started *int) *Definition {
	return &Definition{
		ID:        id,
		Entry:     isTap(entry),
		EntryStep: "one",
		Start: func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
			if started != nil {
				*started++
			}
			return Advance("one", models.AddFillingScratch{PartyID: 1}), nil
		},
		Steps: []Step{
			{ID: "one", Routes: []Route{{When: isText, Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
				return Advance("two", sc), nil
			}}}},
			{ID: "two", Routes: []Route{{When: isText, Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
				return Complete(), nil
			}}}},
		},
		Fallbacks: []Route{{When: isTap(models.ActionCancel), Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
			return Complete(), nil
		}}},
	}
}

func TestSingleActiveDialoguePerUser(t *testing.T) {
	sessions := session.NewStore()
	e := NewEngine(sessions, nil)

	var startedA, startedB int
	if err := e.Register(twoStepDef("a", models.ActionCreateParty, &startedA)); err != nil {
		t.Fatal(err)
	}
	if err := e.Register(twoStepDef("b", models.ActionAddFilling, &startedB)); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := e.HandleUpdate(ctx, tapEvent(1, models.ActionCreateParty)); err != nil {
		t.Fatal(err)
	}
	if startedA != 1 {
		t.Fatalf("dialogue a not started")
	}

	// While a is active, b's entry trigger must not start a second
	// dialogue: taps that match no route of a are ignored.
	if err := e.HandleUpdate(ctx, tapEvent(1, models.ActionAddFilling)); err != nil {
		t.Fatal(err)
	}
	if startedB != 0 {
		t.Error("second dialogue started while first was active")
	}
	if sess := sessions.Get(1); sess == nil || sess.Dialog != "a" {
		t.Errorf("session should still belong to dialogue a, got %+v", sess)
	}

	// Finish a; now b's entry works.
	e.HandleUpdate(ctx, textEvent(1, "step one"))
	e.HandleUpdate(ctx, textEvent(1, "step two"))
	if sess := sessions.Get(1); sess != nil {
		t.Fatalf("session should be cleared after completion, got %+v", sess)
	}
	if err := e.HandleUpdate(ctx, tapEvent(1, models.ActionAddFilling)); err != nil {
		t.Fatal(err)
	}
	if startedB != 1 {
		t.Error("dialogue b should start after a completed")
	}
}

func TestCancelFallbackWorksFromEveryStep(t *testing.T) {
	ctx := context.Background()
	for _, step := range []string{"one", "two"} {
		sessions := session.NewStore()
		e := NewEngine(sessions, nil)
		if err := e.Register(twoStepDef("a", models.ActionCreateParty, nil)); err != nil {
			t.Fatal(err)
		}

		e.HandleUpdate(ctx, tapEvent(1, models.ActionCreateParty))
		if step == "two" {
			e.HandleUpdate(ctx, textEvent(1, "advance"))
		}
		if sess := sessions.Get(1); sess == nil || sess.Step != step {
			t.Fatalf("setup failed, session = %+v", sess)
		}

		if err := e.HandleUpdate(ctx, tapEvent(1, models.ActionCancel)); err != nil {
			t.Fatal(err)
		}
		if sess := sessions.Get(1); sess != nil {
			t.Errorf("cancel from step %q did not clear session: %+v", step, sess)
		}
	}
}

func TestEntryRegistrationOrderWins(t *testing.T) {
	sessions := session.NewStore()
	e := NewEngine(sessions, nil)

	// Both dialogues trigger on the same action; the first registered
	// must win.
	var startedFirst, startedSecond int
	e.Register(twoStepDef("first", models.ActionCreateParty, &startedFirst))
	e.Register(twoStepDef("second", models.ActionCreateParty, &startedSecond))

	e.HandleUpdate(context.Background(), tapEvent(1, models.ActionCreateParty))
	if startedFirst != 1 || startedSecond != 0 {
		t.Errorf("registration order not honored: first=%d second=%d", startedFirst, startedSecond)
	}
}

func TestUnmatchedEventFallsThroughToActions(t *testing.T) {
	sessions := session.NewStore()
	var actionCalls int
	e := NewEngine(sessions, func(ctx context.Context, ev models.Event) error {
		actionCalls++
		return nil
	})
	e.Register(twoStepDef("a", models.ActionCreateParty, nil))

	ctx := context.Background()

	// No active dialogue, no entry match: stateless dispatch runs.
	e.HandleUpdate(ctx, tapEvent(1, models.ActionMainMenu))
	if actionCalls != 1 {
		t.Fatalf("expected stateless dispatch, got %d calls", actionCalls)
	}

	// With a dialogue active the same event is swallowed by the engine.
	e.HandleUpdate(ctx, tapEvent(1, models.ActionCreateParty))
	e.HandleUpdate(ctx, tapEvent(1, models.ActionMainMenu))
	if actionCalls != 1 {
		t.Errorf("event during active dialogue leaked to actions, calls=%d", actionCalls)
	}
}

func TestHandlerErrorClearsSession(t *testing.T) {
	sessions := session.NewStore()
	e := NewEngine(sessions, nil)

	boom := errors.New("store exploded")
	def := twoStepDef("a", models.ActionCreateParty, nil)
	def.Steps[0].Routes[0].Do = func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
		return Outcome{}, boom
	}
	e.Register(def)

	ctx := context.Background()
	e.HandleUpdate(ctx, tapEvent(1, models.ActionCreateParty))
	err := e.HandleUpdate(ctx, textEvent(1, "trigger error"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if sess := sessions.Get(1); sess != nil {
		t.Errorf("session should be cleared after handler error, got %+v", sess)
	}
}

func TestStayUpdatesScratchWithoutLeavingStep(t *testing.T) {
	sessions := session.NewStore()
	e := NewEngine(sessions, nil)

	def := &Definition{
		ID:        "cal",
		Entry:     isTap(models.ActionCreateParty),
		EntryStep: "picking",
		Start: func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
			return Advance("picking", models.SetInfoScratch{PartyID: 1, CalYear: 2026, CalMonth: 8}), nil
		},
		Steps: []Step{
			{ID: "picking", Routes: []Route{{When: isTap(models.ActionCalNav), Do: func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error) {
				cur := sc.(models.SetInfoScratch)
				cur.CalMonth++
				return Stay(cur), nil
			}}}},
		},
	}
	e.Register(def)

	ctx := context.Background()
	e.HandleUpdate(ctx, tapEvent(1, models.ActionCreateParty))
	e.HandleUpdate(ctx, tapEvent(1, models.ActionCalNav))
	e.HandleUpdate(ctx, tapEvent(1, models.ActionCalNav))

	sess := sessions.Get(1)
	if sess == nil || sess.Step != "picking" {
		t.Fatalf("step changed unexpectedly: %+v", sess)
	}
	sc := sess.Scratch.(models.SetInfoScratch)
	if sc.CalMonth != 10 {
		t.Errorf("scratch not threaded through Stay: %+v", sc)
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	e := NewEngine(session.NewStore(), nil)
	if err := e.Register(twoStepDef("a", models.ActionCreateParty, nil)); err != nil {
		t.Fatal(err)
	}
	if err := e.Register(twoStepDef("a", models.ActionAddFilling, nil)); err == nil {
		t.Error("duplicate dialogue ID should be rejected")
	}
}
