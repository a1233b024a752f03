// Package dialog implements the dialogue engine: it multiplexes a single
// inbound event stream across many independent, resumable, per-user
// multi-step dialogues.
package dialog

import (
	"context"

	"github.com/bringalong/bringalong/internal/models"
)

// ID names a dialogue definition.
type ID string

// StepID names a state within a dialogue.
type StepID string

// Predicate decides whether a route or entry trigger matches an event.
type Predicate func(ev models.Event) bool

// Handler processes an event for a step. It receives the dialogue's current
// scratch and returns what happens next.
type Handler func(ctx context.Context, ev models.Event, sc models.Scratch) (Outcome, error)

// Route binds an input-shape predicate to a handler.
type Route struct {
	When Predicate
	Do   Handler
}

// Step is a named state holding its routes. Routes are tried in order; the
// first match wins. An event matching no route is ignored by the engine, so
// steps that want a hint for stray input register an explicit catch-all
// route last.
type Step struct {
	ID     StepID
	Routes []Route
}

// Definition is an immutable dialogue descriptor, created at startup.
//
// Entry matches the event that starts the dialogue; Start handles that
// event (typically advancing into EntryStep with fresh scratch, or
// completing immediately on an authorization failure). Fallbacks are tried
// before the current step's routes on every event, so a global cancel
// button works from any step.
type Definition struct {
	ID        ID
	Entry     Predicate
	EntryStep StepID
	Start     Handler
	Steps     []Step
	Fallbacks []Route
}

func (d *Definition) step(id StepID) *Step {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}

// outcomeKind discriminates handler results.
type outcomeKind int

const (
	outcomeStay outcomeKind = iota
	outcomeAdvance
	outcomeComplete
)

// Outcome is a handler's verdict: stay on the current step, advance to
// another, or complete the dialogue. Completion is a terminal marker, not a
// step.
type Outcome struct {
	kind    outcomeKind
	next    StepID
	scratch models.Scratch
}

// Stay keeps the current step and updates the scratch.
func Stay(sc models.Scratch) Outcome {
	return Outcome{kind: outcomeStay, scratch: sc}
}

// Advance transitions to the named step with updated scratch.
func Advance(next StepID, sc models.Scratch) Outcome {
	return Outcome{kind: outcomeAdvance, next: next, scratch: sc}
}

// Complete terminates the dialogue; the engine clears the session.
func Complete() Outcome {
	return Outcome{kind: outcomeComplete}
}
