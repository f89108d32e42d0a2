package engine

import (
	"github.com/jhin-exe/weave/pkg/effects"
	"github.com/jhin-exe/weave/pkg/state"
)

type EventType string

const (
	EventStarted        EventType = "started"
	EventEffectsApplied EventType = "effects_applied"
	EventSceneChanged   EventType = "scene_changed"
)

// Event describes something that happened in a session. State is a copy
// taken after the change.
type Event struct {
	Type     EventType        `json:"type"`
	ChoiceID string           `json:"choice_id,omitempty"`
	From     string           `json:"from,omitempty"`
	To       string           `json:"to,omitempty"`
	Effects  []effects.Effect `json:"effects,omitempty"`
	State    *state.Session   `json:"state"`
}

// Observer is notified synchronously, in registration order. Calls back
// into the engine from Notify during a choice activation fail with
// ErrActivationInProgress.
type Observer interface {
	Notify(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Notify(ev Event) { f(ev) }

// AddObserver registers o for events from now on. Use it instead of
// WithObserver when the Start event of a resumed session is not wanted.
func (e *Engine) AddObserver(o Observer) {
	if o != nil {
		e.observers = append(e.observers, o)
	}
}

func (e *Engine) notify(ev Event) {
	if len(e.observers) == 0 {
		return
	}
	for _, o := range e.observers {
		ev.State = e.state.Clone()
		o.Notify(ev)
	}
}
