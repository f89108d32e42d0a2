package engine

import (
	"errors"
	"testing"

	"github.com/jhin-exe/weave/pkg/project"
	"github.com/jhin-exe/weave/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swordProject = `{
  "meta": {"title": "Sword"},
  "config": {"startSceneId": "start"},
  "variables": {"gold": 10},
  "items": [],
  "scenes": {
    "start": {"id": "start", "text": "A rack holds a sword.", "audio": "hall.mp3", "choices": [
      {"id": "take", "text": "Take Sword", "target": "armory",
       "effects": [{"type": "addItem", "key": "sword"}]}
    ]},
    "armory": {"id": "armory", "text": "A locked door.", "choices": [
      {"id": "open", "text": "Open Door", "target": "start",
       "logicGroups": [[{"type": "hasItem", "key": "sword"}]]},
      {"id": "pay", "text": "Pay the guard", "target": "",
       "logicGroups": [[{"type": "varGT", "key": "gold", "val": 100}]],
       "effects": [{"type": "varSub", "key": "gold", "val": 100}]},
      {"id": "nowhere", "text": "Walk into the wall", "target": "missing",
       "effects": [{"type": "varAdd", "key": "bruises", "val": 1}, {"type": "playSound", "key": "thud.wav"}]}
    ]}
  }
}`

func loadProject(t *testing.T, doc string) *project.Project {
	t.Helper()
	p, err := project.Parse([]byte(doc))
	require.NoError(t, err)
	return p
}

func labels(choices []VisibleChoice) []string {
	var out []string
	for _, c := range choices {
		out = append(out, c.Choice.Text)
	}
	return out
}

type soundRecorder struct {
	loops []string
	once  []string
}

func (s *soundRecorder) PlayLooping(ref string) { s.loops = append(s.loops, ref) }
func (s *soundRecorder) PlayOnce(ref string)    { s.once = append(s.once, ref) }

func TestEngine_SwordScenario(t *testing.T) {
	e := New()
	require.NoError(t, e.Start(loadProject(t, swordProject), nil))

	assert.Equal(t, []string{"Take Sword"}, labels(e.VisibleChoices()))

	ok, err := e.ActivateChoice(0)
	require.NoError(t, err)
	assert.True(t, ok)

	st := e.State()
	assert.Equal(t, "armory", st.CurrentScene)
	assert.Equal(t, []string{"sword"}, st.Inventory)

	visible := e.VisibleChoices()
	assert.Equal(t, []string{"Open Door", "Walk into the wall"}, labels(visible))
	assert.Equal(t, 0, visible[0].Index)
	assert.Equal(t, 2, visible[1].Index, "index is the authored position")

	ok, err = e.ActivateChoice(visible[0].Index)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "start", e.State().CurrentScene)
	assert.Equal(t, []string{"sword"}, e.State().Inventory)
}

func TestEngine_StartFresh(t *testing.T) {
	p := loadProject(t, swordProject)
	p.Items = project.Items{{ID: "torch"}}

	e := New()
	require.NoError(t, e.Start(p, nil))

	expected := state.New("start", []string{"torch"}, state.Vars{"gold": 10})
	assert.Equal(t, expected, e.State())
	assert.True(t, e.Started())
	assert.Equal(t, "Sword", e.Title())
	assert.Equal(t, project.Items{{ID: "torch"}}, e.Items())
}

func TestEngine_StartDoesNotShareProject(t *testing.T) {
	p := loadProject(t, swordProject)
	e := New()
	require.NoError(t, e.Start(p, nil))

	p.Scenes["start"].Choices[0].Target = "start"
	p.Variables["gold"] = 0

	_, err := e.ActivateChoice(0)
	require.NoError(t, err)
	assert.Equal(t, "armory", e.State().CurrentScene)
	assert.Equal(t, 10.0, e.State().Var("gold"))

	scene, err := e.CurrentScene()
	require.NoError(t, err)
	scene.Choices[0].Target = "tampered"
	again, err := e.CurrentScene()
	require.NoError(t, err)
	assert.Equal(t, "start", again.Choices[0].Target)
}

func TestEngine_StartErrors(t *testing.T) {
	e := New()
	assert.ErrorIs(t, e.Start(nil, nil), ErrNilProject)

	p := loadProject(t, swordProject)
	p.Config.StartSceneID = "prologue"
	err := e.Start(p, nil)

	var notFound *SceneNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "prologue", notFound.ID)
	assert.ErrorIs(t, err, ErrSceneNotFound)
	assert.False(t, e.Started())

	err = e.Start(loadProject(t, swordProject), &state.Session{CurrentScene: "vault"})
	assert.ErrorIs(t, err, ErrSceneNotFound)
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	p := loadProject(t, swordProject)
	e := New()
	require.NoError(t, e.Start(p, nil))
	_, err := e.ActivateChoice(0)
	require.NoError(t, err)
	_, err = e.ActivateChoice(2)
	require.NoError(t, err)

	before := e.State()
	data, err := e.Snapshot()
	require.NoError(t, err)

	snapshot, err := state.Unmarshal(data)
	require.NoError(t, err)

	resumed := New()
	require.NoError(t, resumed.Start(p, snapshot))
	assert.Equal(t, before, resumed.State())

	snapshot.AddItem("shield")
	assert.False(t, resumed.State().HasItem("shield"), "snapshot is copied")
}

func TestEngine_SnapshotRoundTripStaysFinite(t *testing.T) {
	p := loadProject(t, `{
  "config": {"startSceneId": "start"},
  "variables": {"x": 1},
  "scenes": {
    "start": {"id": "start", "text": "x is ${x}", "choices": [
      {"id": "inf", "text": "Set infinity", "target": "start",
       "effects": [{"type": "varSet", "key": "x", "val": "Infinity"}]},
      {"id": "big", "text": "Overflow", "target": "start",
       "effects": [{"type": "varSet", "key": "x", "val": 1.7e308}, {"type": "varAdd", "key": "x", "val": 1.7e308}]}
    ]}
  }
}`)
	e := New()
	require.NoError(t, e.Start(p, nil))
	_, err := e.ActivateChoice(0)
	require.NoError(t, err)
	_, err = e.ActivateChoice(1)
	require.NoError(t, err)

	before := e.State()
	assert.Equal(t, 1.7e308, before.Var("x"))

	data, err := e.Snapshot()
	require.NoError(t, err)
	snapshot, err := state.Unmarshal(data)
	require.NoError(t, err)

	resumed := New()
	require.NoError(t, resumed.Start(p, snapshot))
	assert.True(t, before.Equal(resumed.State()), "before=%v after=%v", before.Variables, resumed.State().Variables)
}

func TestEngine_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		activated bool
		scene     string
		bruises   float64
	}{
		{name: "invalid target stays", index: 2, activated: true, scene: "armory", bruises: 1},
		{name: "empty target stays", index: 1, activated: true, scene: "armory"},
		{name: "valid target moves", index: 0, activated: true, scene: "start"},
		{name: "index out of range", index: 3, activated: false, scene: "armory"},
		{name: "negative index", index: -1, activated: false, scene: "armory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			require.NoError(t, e.Start(loadProject(t, swordProject), &state.Session{
				CurrentScene: "armory",
				Inventory:    []string{"sword"},
			}))

			ok, err := e.ActivateChoice(tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.activated, ok)
			assert.Equal(t, tt.scene, e.State().CurrentScene)
			assert.Equal(t, tt.bruises, e.State().Var("bruises"))
		})
	}
}

func TestEngine_HiddenChoices(t *testing.T) {
	t.Run("activatable by default", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Start(loadProject(t, swordProject), &state.Session{CurrentScene: "armory"}))

		assert.NotContains(t, labels(e.VisibleChoices()), "Open Door")
		ok, err := e.ActivateChoice(0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "start", e.State().CurrentScene)
	})

	t.Run("refused when strict", func(t *testing.T) {
		e := New(WithStrictVisibility(true))
		require.NoError(t, e.Start(loadProject(t, swordProject), &state.Session{CurrentScene: "armory"}))

		ok, err := e.ActivateChoice(0)
		assert.ErrorIs(t, err, ErrChoiceHidden)
		assert.False(t, ok)
		assert.Equal(t, "armory", e.State().CurrentScene)

		ok, err = e.ActivateChoice(2)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestEngine_NotStarted(t *testing.T) {
	e := New()

	_, err := e.ActivateChoice(0)
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = e.CurrentScene()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = e.Snapshot()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, e.Restart(), ErrNotStarted)

	assert.Nil(t, e.VisibleChoices())
	assert.Nil(t, e.State())
	assert.False(t, e.IsDeadEnd())
	assert.Empty(t, e.Title())
	assert.Nil(t, e.Items())
}

func TestEngine_DeadEnd(t *testing.T) {
	e := New()
	require.NoError(t, e.Start(loadProject(t, `{
	  "config": {"startSceneId": "end"},
	  "scenes": {"end": {"id": "end", "text": "The End.", "choices": [
	    {"id": "secret", "text": "Secret", "target": "end", "logicGroups": [[{"type": "hasItem", "key": "map"}]]}
	  ]}}
	}`), nil))

	assert.True(t, e.IsDeadEnd())
	assert.Empty(t, e.VisibleChoices())
}

func TestEngine_Restart(t *testing.T) {
	e := New()
	require.NoError(t, e.Start(loadProject(t, swordProject), nil))
	_, err := e.ActivateChoice(0)
	require.NoError(t, err)

	require.NoError(t, e.Restart())
	assert.Equal(t, state.New("start", nil, state.Vars{"gold": 10}), e.State())
}

func TestEngine_PlaySoundGoesToAudio(t *testing.T) {
	sound := &soundRecorder{}
	e := New(WithAudio(sound))
	require.NoError(t, e.Start(loadProject(t, swordProject), &state.Session{CurrentScene: "armory"}))

	_, err := e.ActivateChoice(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"thud.wav"}, sound.once)
	assert.Empty(t, sound.loops, "the engine never drives scene music")
}

func TestEngine_Observers(t *testing.T) {
	var events []Event
	e := New(WithObserver(ObserverFunc(func(ev Event) {
		events = append(events, ev)
	})))

	require.NoError(t, e.Start(loadProject(t, swordProject), nil))
	_, err := e.ActivateChoice(0)
	require.NoError(t, err)
	_, err = e.ActivateChoice(1)
	require.NoError(t, err)

	require.Len(t, events, 4)

	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, "start", events[0].To)

	assert.Equal(t, EventEffectsApplied, events[1].Type)
	assert.Equal(t, "take", events[1].ChoiceID)
	require.Len(t, events[1].Effects, 1)
	assert.Equal(t, "sword", events[1].Effects[0].Key)
	assert.True(t, events[1].State.HasItem("sword"))
	assert.Equal(t, "start", events[1].State.CurrentScene)

	assert.Equal(t, EventSceneChanged, events[2].Type)
	assert.Equal(t, "start", events[2].From)
	assert.Equal(t, "armory", events[2].To)
	assert.Equal(t, "armory", events[2].State.CurrentScene)

	assert.Equal(t, EventEffectsApplied, events[3].Type, "no scene change for an empty target")
	assert.Equal(t, "pay", events[3].ChoiceID)
	assert.Equal(t, -90.0, events[3].State.Var("gold"))
}

func TestEngine_RejectsReentrantActivation(t *testing.T) {
	var e *Engine
	var inner []error
	e = New(WithObserver(ObserverFunc(func(ev Event) {
		if ev.Type == EventStarted {
			return
		}
		_, err := e.ActivateChoice(0)
		inner = append(inner, err)
		inner = append(inner, e.Restart())
	})))

	require.NoError(t, e.Start(loadProject(t, swordProject), nil))
	ok, err := e.ActivateChoice(0)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, inner, 4)
	for _, err := range inner {
		assert.ErrorIs(t, err, ErrActivationInProgress)
	}
	assert.Equal(t, "armory", e.State().CurrentScene)
	assert.Equal(t, []string{"sword"}, e.State().Inventory)

	ok, err = e.ActivateChoice(0)
	require.NoError(t, err, "the guard is released afterwards")
	assert.True(t, ok)
}

func TestEngine_AddObserver(t *testing.T) {
	var types []EventType
	e := New()
	require.NoError(t, e.Start(loadProject(t, swordProject), nil))

	e.AddObserver(ObserverFunc(func(ev Event) { types = append(types, ev.Type) }))
	e.AddObserver(nil)
	_, err := e.ActivateChoice(0)
	require.NoError(t, err)

	assert.Equal(t, []EventType{EventEffectsApplied, EventSceneChanged}, types)
}
