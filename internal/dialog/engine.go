package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bringalong/bringalong/internal/models"
	"github.com/bringalong/bringalong/internal/session"
)

// ActionFunc handles events that belong to no dialogue: stateless menu
// actions, commands, and anything else outside the engine's scope.
type ActionFunc func(ctx context.Context, ev models.Event) error

// Engine routes inbound events. For a user with an active dialogue it
// dispatches to that dialogue's fallbacks, then the current step's routes.
// Otherwise it scans entry triggers in registration order, and finally
// falls through to the stateless action handler.
type Engine struct {
	sessions *session.Store
	defs     []*Definition
	actions  ActionFunc
}

// NewEngine creates an engine over the given session store. actions may be
// nil if every event is expected to belong to a dialogue.
func NewEngine(sessions *session.Store, actions ActionFunc) *Engine {
	return &Engine{sessions: sessions, actions: actions}
}

// Register adds a dialogue to the routing table. Registration order is
// significant: when an event matches several entry triggers, the first
// registered dialogue wins. Called only at startup.
func (e *Engine) Register(def *Definition) error {
	if def.ID == "" {
		return fmt.Errorf("dialogue definition has no ID")
	}
	for _, d := range e.defs {
		if d.ID == def.ID {
			return fmt.Errorf("dialogue %q already registered", def.ID)
		}
	}
	if def.step(def.EntryStep) == nil {
		return fmt.Errorf("dialogue %q: entry step %q not defined", def.ID, def.EntryStep)
	}
	e.defs = append(e.defs, def)
	slog.Debug("dialogue registered", "dialog", def.ID, "steps", len(def.Steps))
	return nil
}

// HandleUpdate is the sole entry point for inbound events. Events for the
// same user are serialized through the session store's per-user lock.
func (e *Engine) HandleUpdate(ctx context.Context, ev models.Event) error {
	var err error
	e.sessions.Do(ev.UserID, func() {
		err = e.handle(ctx, ev)
	})
	return err
}

func (e *Engine) handle(ctx context.Context, ev models.Event) error {
	sess := e.sessions.Get(ev.UserID)
	if sess != nil {
		return e.dispatchActive(ctx, ev, sess)
	}

	for _, def := range e.defs {
		if def.Entry(ev) {
			slog.Debug("dialogue entry trigger fired", "dialog", def.ID, "userID", ev.UserID)
			outcome, err := def.Start(ctx, ev, nil)
			if err != nil {
				slog.Error("dialogue entry handler failed", "error", err, "dialog", def.ID, "userID", ev.UserID)
				return fmt.Errorf("dialogue %s entry: %w", def.ID, err)
			}
			e.apply(def, ev.UserID, def.EntryStep, outcome)
			return nil
		}
	}

	if e.actions == nil {
		return nil
	}
	return e.actions(ctx, ev)
}

func (e *Engine) dispatchActive(ctx context.Context, ev models.Event, sess *session.Session) error {
	def := e.defByID(ID(sess.Dialog))
	if def == nil {
		// A session for an unregistered dialogue can only mean a stale
		// entry; drop it rather than wedging the user.
		slog.Error("session references unknown dialogue, clearing", "dialog", sess.Dialog, "userID", ev.UserID)
		e.sessions.Clear(ev.UserID)
		return nil
	}

	// Fallbacks take precedence over step routes: cancel must work from
	// any step.
	for _, r := range def.Fallbacks {
		if r.When(ev) {
			return e.invoke(ctx, def, ev, sess, r.Do)
		}
	}

	step := def.step(StepID(sess.Step))
	if step == nil {
		slog.Error("session references unknown step, clearing", "dialog", def.ID, "step", sess.Step, "userID", ev.UserID)
		e.sessions.Clear(ev.UserID)
		return nil
	}
	for _, r := range step.Routes {
		if r.When(ev) {
			return e.invoke(ctx, def, ev, sess, r.Do)
		}
	}

	// No fallback or step route matched: the event is ignored, not an
	// error. Steps that want to hint at stray input do so with their own
	// catch-all route.
	slog.Debug("event ignored by active dialogue", "dialog", def.ID, "step", sess.Step, "userID", ev.UserID, "kind", ev.Kind)
	return nil
}

func (e *Engine) invoke(ctx context.Context, def *Definition, ev models.Event, sess *session.Session, h Handler) error {
	outcome, err := h(ctx, ev, sess.Scratch)
	if err != nil {
		// Handler faults are scoped to the one event; the session is
		// cleared so the user is not stuck mid-dialogue.
		e.sessions.Clear(ev.UserID)
		slog.Error("dialogue handler failed", "error", err, "dialog", def.ID, "step", sess.Step, "userID", ev.UserID)
		return fmt.Errorf("dialogue %s step %s: %w", def.ID, sess.Step, err)
	}
	e.apply(def, ev.UserID, StepID(sess.Step), outcome)
	return nil
}

// apply commits an outcome to the session store. current is the step the
// user was on (for entry handlers, the definition's entry step).
func (e *Engine) apply(def *Definition, userID int64, current StepID, outcome Outcome) {
	switch outcome.kind {
	case outcomeStay:
		e.sessions.Set(userID, &session.Session{Dialog: string(def.ID), Step: string(current), Scratch: outcome.scratch})
	case outcomeAdvance:
		e.sessions.Set(userID, &session.Session{Dialog: string(def.ID), Step: string(outcome.next), Scratch: outcome.scratch})
		slog.Debug("dialogue advanced", "dialog", def.ID, "step", outcome.next, "userID", userID)
	case outcomeComplete:
		e.sessions.Clear(userID)
		slog.Debug("dialogue completed", "dialog", def.ID, "userID", userID)
	}
}

func (e *Engine) defByID(id ID) *Definition {
	for _, d := range e.defs {
		if d.ID == id {
			return d
		}
	}
	return nil
}
