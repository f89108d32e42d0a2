// Package engine runs a story: it owns one session's state, decides which
// choices are visible and applies a chosen choice's effects and transition.
//
// An Engine is not safe for concurrent use. Callers that share one across
// goroutines serialize access themselves.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jhin-exe/weave/pkg/audio"
	"github.com/jhin-exe/weave/pkg/conditionals"
	"github.com/jhin-exe/weave/pkg/effects"
	"github.com/jhin-exe/weave/pkg/project"
	"github.com/jhin-exe/weave/pkg/state"
)

var (
	ErrNotStarted           = errors.New("engine not started")
	ErrNilProject           = errors.New("project is nil")
	ErrChoiceHidden         = errors.New("choice is not visible")
	ErrActivationInProgress = errors.New("choice activation already in progress")

	// ErrSceneNotFound matches every *SceneNotFoundError.
	ErrSceneNotFound = project.ErrSceneNotFound
)

// SceneNotFoundError reports a scene ID that does not resolve.
type SceneNotFoundError struct {
	ID string
}

func (e *SceneNotFoundError) Error() string {
	return fmt.Sprintf("scene %q not found", e.ID)
}

func (e *SceneNotFoundError) Is(target error) bool {
	return target == ErrSceneNotFound
}

// VisibleChoice is a choice the player may pick. Index is the choice's
// position in the scene as authored, which is what ActivateChoice takes.
type VisibleChoice struct {
	Index  int
	Choice project.Choice
}

type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAudio sets the player that receives playSound effects.
func WithAudio(player audio.Player) Option {
	return func(e *Engine) {
		if player != nil {
			e.audio = player
		}
	}
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithStrictVisibility makes ActivateChoice refuse hidden choices. By
// default the engine trusts the caller to offer only visible ones.
func WithStrictVisibility(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

type Engine struct {
	logger    *slog.Logger
	audio     audio.Player
	observers []Observer
	strict    bool

	project    *project.Project
	state      *state.Session
	activating bool
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.DiscardHandler),
		audio:  audio.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a session on a private copy of p. With a snapshot the
// session resumes from it; otherwise it starts fresh at the project's
// start scene with the project's starting items and variables. The scene
// the session would begin in must exist.
func (e *Engine) Start(p *project.Project, snapshot *state.Session) error {
	if e.activating {
		return ErrActivationInProgress
	}
	if p == nil {
		return ErrNilProject
	}

	proj := p.Clone()
	var st *state.Session
	if snapshot != nil {
		st = snapshot.Clone()
	} else {
		st = freshState(proj)
	}
	if _, ok := proj.Scene(st.CurrentScene); !ok {
		return &SceneNotFoundError{ID: st.CurrentScene}
	}

	e.project = proj
	e.state = st
	e.logger.Info("Story started",
		"title", proj.Meta.Title,
		"scene", st.CurrentScene,
		"resumed", snapshot != nil)
	e.notify(Event{Type: EventStarted, To: st.CurrentScene})
	return nil
}

// Restart discards the session state and begins again from the start
// scene of the project the engine was started with.
func (e *Engine) Restart() error {
	if e.state == nil {
		return ErrNotStarted
	}
	if e.activating {
		return ErrActivationInProgress
	}

	st := freshState(e.project)
	if _, ok := e.project.Scene(st.CurrentScene); !ok {
		return &SceneNotFoundError{ID: st.CurrentScene}
	}
	from := e.state.CurrentScene
	e.state = st
	e.logger.Info("Story restarted", "scene", st.CurrentScene)
	e.notify(Event{Type: EventStarted, From: from, To: st.CurrentScene})
	return nil
}

func freshState(p *project.Project) *state.Session {
	return state.New(p.Config.StartSceneID, p.Items.IDs(), p.Variables)
}

// ActivateChoice carries out the choice at index in the current scene:
// its effects run in order, then the session moves to its target if the
// target names an existing scene. It reports whether a choice was
// activated. An index outside the scene's choices is ignored.
func (e *Engine) ActivateChoice(index int) (bool, error) {
	if e.state == nil {
		return false, ErrNotStarted
	}
	if e.activating {
		return false, ErrActivationInProgress
	}

	from := e.state.CurrentScene
	scene, ok := e.project.Scene(from)
	if !ok || index < 0 || index >= len(scene.Choices) {
		e.logger.Debug("Ignoring choice", "scene", from, "index", index)
		return false, nil
	}
	choice := scene.Choices[index]

	if !conditionals.IsVisible(choice.LogicGroups, e.state) {
		if e.strict {
			return false, fmt.Errorf("choice %d in scene %q: %w", index, from, ErrChoiceHidden)
		}
		e.logger.Debug("Activating hidden choice", "scene", from, "choice", choice.ID)
	}

	e.activating = true
	defer func() { e.activating = false }()

	applied := effects.Apply(choice.Effects, e.state, e.audio)
	if len(applied) > 0 {
		e.notify(Event{Type: EventEffectsApplied, ChoiceID: choice.ID, From: from, To: from, Effects: applied})
	}

	to := from
	if _, ok := e.project.Scene(choice.Target); ok {
		to = choice.Target
		e.state.CurrentScene = to
		e.notify(Event{Type: EventSceneChanged, ChoiceID: choice.ID, From: from, To: to})
	}

	e.logger.Info("Choice activated",
		"scene", from,
		"choice", choice.ID,
		"target", to,
		"effects", len(applied))
	return true, nil
}

// VisibleChoices lists the current scene's choices whose conditions hold,
// in authored order. It is computed afresh on every call.
func (e *Engine) VisibleChoices() []VisibleChoice {
	if e.state == nil {
		return nil
	}
	scene, ok := e.project.Scene(e.state.CurrentScene)
	if !ok {
		return nil
	}

	var visible []VisibleChoice
	for i, c := range scene.Choices {
		if conditionals.IsVisible(c.LogicGroups, e.state) {
			visible = append(visible, VisibleChoice{Index: i, Choice: c.Clone()})
		}
	}
	return visible
}

// CurrentScene returns a copy of the scene the session is in.
func (e *Engine) CurrentScene() (*project.Scene, error) {
	if e.state == nil {
		return nil, ErrNotStarted
	}
	scene, ok := e.project.Scene(e.state.CurrentScene)
	if !ok {
		return nil, &SceneNotFoundError{ID: e.state.CurrentScene}
	}
	return scene.Clone(), nil
}

// IsDeadEnd reports whether the current scene offers no visible choice.
func (e *Engine) IsDeadEnd() bool {
	return e.state != nil && len(e.VisibleChoices()) == 0
}

// Started reports whether Start has succeeded.
func (e *Engine) Started() bool {
	return e.state != nil
}

// State returns a copy of the session state, or nil before Start.
func (e *Engine) State() *state.Session {
	return e.state.Clone()
}

// Snapshot encodes the session state for saving.
func (e *Engine) Snapshot() ([]byte, error) {
	if e.state == nil {
		return nil, ErrNotStarted
	}
	return e.state.Marshal()
}

// Items returns the project's item list, used for display names.
func (e *Engine) Items() project.Items {
	if e.project == nil {
		return nil
	}
	return append(project.Items{}, e.project.Items...)
}

// Title returns the story title.
func (e *Engine) Title() string {
	if e.project == nil {
		return ""
	}
	return e.project.Meta.Title
}
