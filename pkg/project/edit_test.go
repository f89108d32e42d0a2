package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeScenes(t *testing.T) *Project {
	t.Helper()
	p, err := Parse([]byte(`{
	  "config": {"startSceneId": "hall"},
	  "scenes": {
	    "hall": {"id": "hall", "text": "Hall", "choices": [
	      {"id": "h1", "text": "Go east", "target": "east"},
	      {"id": "h2", "text": "Stay", "target": "hall"}
	    ]},
	    "east": {"id": "east", "text": "East", "choices": [
	      {"id": "e1", "text": "Back", "target": "hall"},
	      {"id": "e2", "text": "Again", "target": "east"}
	    ]},
	    "attic": {"id": "attic", "text": "Dust", "choices": [
	      {"id": "a1", "text": "Down", "target": "east"}
	    ]}
	  }
	}`))
	require.NoError(t, err)
	return p
}

func TestAddScene(t *testing.T) {
	p := New()
	id := p.AddScene()

	assert.True(t, strings.HasPrefix(id, "scene_"))
	s, ok := p.Scene(id)
	require.True(t, ok)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "...", s.Text)
	assert.Empty(t, s.Choices)
}

func TestRenameScene_CascadesReferences(t *testing.T) {
	p := threeScenes(t)

	require.NoError(t, p.RenameScene("east", "garden"))

	assert.NotContains(t, p.Scenes, "east")
	garden, ok := p.Scene("garden")
	require.True(t, ok)
	assert.Equal(t, "garden", garden.ID)

	assert.Equal(t, "garden", p.Scenes["hall"].Choices[0].Target)
	assert.Equal(t, "hall", p.Scenes["hall"].Choices[1].Target)
	assert.Equal(t, "hall", garden.Choices[0].Target)
	assert.Equal(t, "garden", garden.Choices[1].Target, "self reference follows the rename")
	assert.Equal(t, "garden", p.Scenes["attic"].Choices[0].Target)
	assert.Equal(t, "hall", p.Config.StartSceneID)
}

func TestRenameScene_UpdatesStartScene(t *testing.T) {
	p := threeScenes(t)

	require.NoError(t, p.RenameScene("hall", " lobby "))
	assert.Equal(t, "lobby", p.Config.StartSceneID)
	assert.Equal(t, "lobby", p.Scenes["east"].Choices[0].Target)
	assert.Equal(t, "lobby", p.Scenes["lobby"].Choices[1].Target)
	assert.False(t, HasErrors(p.Validate()))
}

func TestRenameScene_Errors(t *testing.T) {
	tests := []struct {
		name     string
		oldID    string
		newID    string
		expected error
	}{
		{name: "missing scene", oldID: "cellar", newID: "vault", expected: ErrSceneNotFound},
		{name: "taken ID", oldID: "east", newID: "attic", expected: ErrSceneExists},
		{name: "empty ID", oldID: "east", newID: "  ", expected: ErrInvalidSceneID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := threeScenes(t)
			err := p.RenameScene(tt.oldID, tt.newID)
			assert.ErrorIs(t, err, tt.expected)
			assert.Len(t, p.Scenes, 3)
			assert.Equal(t, "east", p.Scenes["hall"].Choices[0].Target)
		})
	}
}

func TestRenameScene_SameIDIsNoop(t *testing.T) {
	p := threeScenes(t)
	before := p.Clone()

	require.NoError(t, p.RenameScene("east", "east"))
	assert.Equal(t, before, p)
}

func TestDeleteScene(t *testing.T) {
	p := threeScenes(t)

	require.NoError(t, p.DeleteScene("east"))
	assert.NotContains(t, p.Scenes, "east")
	assert.Equal(t, "east", p.Scenes["hall"].Choices[0].Target, "dangling targets are left in place")

	assert.ErrorIs(t, p.DeleteScene("east"), ErrSceneNotFound)
	assert.ErrorIs(t, p.DeleteScene("hall"), ErrStartScene)

	single := New()
	assert.ErrorIs(t, single.DeleteScene(DefaultStartSceneID), ErrLastScene)
	assert.Len(t, single.Scenes, 1)
}

func TestAddChoice(t *testing.T) {
	p := threeScenes(t)

	idx, err := p.AddChoice("attic")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	c := p.Scenes["attic"].Choices[idx]
	assert.Equal(t, "New Choice", c.Text)
	assert.Equal(t, "attic", c.Target)
	assert.NotEmpty(t, c.ID)
	assert.Empty(t, c.LogicGroups)
	assert.Empty(t, c.Effects)

	_, err = p.AddChoice("cellar")
	assert.ErrorIs(t, err, ErrSceneNotFound)
}

func TestDeleteChoice(t *testing.T) {
	p := threeScenes(t)

	require.NoError(t, p.DeleteChoice("hall", 0))
	require.Len(t, p.Scenes["hall"].Choices, 1)
	assert.Equal(t, "h2", p.Scenes["hall"].Choices[0].ID)

	assert.ErrorIs(t, p.DeleteChoice("hall", 5), ErrChoiceNotFound)
	assert.ErrorIs(t, p.DeleteChoice("hall", -1), ErrChoiceNotFound)
	assert.ErrorIs(t, p.DeleteChoice("cellar", 0), ErrSceneNotFound)
}

func TestReachable(t *testing.T) {
	p := threeScenes(t)

	assert.Equal(t, map[string]bool{"hall": true, "east": true}, p.Reachable())

	p.Config.StartSceneID = "nowhere"
	assert.Empty(t, p.Reachable())
}
