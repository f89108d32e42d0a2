// Package render turns the engine's current scene into a View that a
// front end can draw without knowing anything about conditions or effects.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhin-exe/weave/pkg/audio"
	"github.com/jhin-exe/weave/pkg/engine"
	"github.com/jhin-exe/weave/pkg/format"
	"github.com/jhin-exe/weave/pkg/project"
)

// View is everything needed to draw one scene.
type View struct {
	SceneID   string       `json:"scene_id"`
	Text      string       `json:"text"` // HTML
	ImageRef  string       `json:"image,omitempty"`
	AudioRef  string       `json:"audio,omitempty"`
	Choices   []ChoiceView `json:"choices"`
	Inventory []string     `json:"inventory"` // display labels
	DeadEnd   bool         `json:"dead_end"`
	NotFound  bool         `json:"not_found,omitempty"`
}

// ChoiceView is a selectable choice. Index is what the engine's
// ActivateChoice expects, not the position in Choices.
type ChoiceView struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Sink receives views, e.g. a terminal UI or a network publisher.
type Sink interface {
	Show(View)
}

type SinkFunc func(View)

func (f SinkFunc) Show(v View) { f(v) }

// Presenter renders the engine's state and keeps scene music in step
// with the scene being shown.
type Presenter struct {
	audio audio.Player
}

// NewPresenter returns a Presenter. A nil player disables music.
func NewPresenter(player audio.Player) *Presenter {
	if player == nil {
		player = audio.Nop{}
	}
	return &Presenter{audio: player}
}

// Render builds the view of the current scene and switches the looping
// track to the scene's audio. A scene that cannot be resolved renders as
// a not-found view and silences the music.
func (p *Presenter) Render(e *engine.Engine) View {
	scene, err := e.CurrentScene()
	if err != nil {
		id := ""
		if st := e.State(); st != nil {
			id = st.CurrentScene
		}
		p.audio.PlayLooping("")
		return View{
			SceneID:   id,
			Text:      fmt.Sprintf("Scene %q not found.", id),
			Choices:   []ChoiceView{},
			Inventory: []string{},
			DeadEnd:   true,
			NotFound:  true,
		}
	}

	st := e.State()
	view := View{
		SceneID:   scene.ID,
		Text:      format.Render(scene.Text, st.Variables),
		ImageRef:  scene.Image,
		AudioRef:  scene.Audio,
		Choices:   []ChoiceView{},
		Inventory: make([]string, 0, len(st.Inventory)),
	}
	for _, c := range e.VisibleChoices() {
		view.Choices = append(view.Choices, ChoiceView{Index: c.Index, Label: c.Choice.Text})
	}
	view.DeadEnd = len(view.Choices) == 0

	items := e.Items()
	for _, id := range st.Inventory {
		view.Inventory = append(view.Inventory, ItemLabel(items, id))
	}

	p.audio.PlayLooping(scene.Audio)
	return view
}

// Publish renders once and hands the view to every sink.
func (p *Presenter) Publish(e *engine.Engine, sinks ...Sink) View {
	view := p.Render(e)
	for _, s := range sinks {
		s.Show(view)
	}
	return view
}

// ItemLabel returns the name to show for an inventory item: the name the
// project gives it, or else the ID in title case with '_' and '-' read as
// spaces ("rusty_key" becomes "Rusty Key").
func ItemLabel(items project.Items, id string) string {
	if name, ok := items.Name(id); ok {
		return name
	}
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(id))
	if len(words) == 0 {
		return id
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
