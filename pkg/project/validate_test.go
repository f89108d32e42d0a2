package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	p, err := Parse([]byte(`{
	  "config": {"startSceneId": "hall"},
	  "variables": {"gold": 1},
	  "scenes": {
	    "hall": {"id": "hall", "text": "You have ${gold} gold and ${glod} typos.", "choices": [
	      {"id": "c1", "text": "Go", "target": "cellar"},
	      {"id": "c2", "text": "Pray", "target": "",
	       "logicGroups": [[{"type": "hasSpell", "key": "light"}, {"type": "varGT", "key": "gold", "val": "lots"}]],
	       "effects": [{"type": "teleport", "key": "x"}, {"type": "varAdd", "key": "gold", "val": "some"}]}
	    ]},
	    "attic": {"id": "loft", "text": "Dust", "choices": [
	      {"id": "c1", "text": "Down", "target": "hall"}
	    ]}
	  }
	}`))
	require.NoError(t, err)

	issues := p.Validate()
	assert.True(t, HasErrors(issues))

	expected := []Issue{
		{Severity: SeverityError, Scene: "attic", Message: `scene ID "loft" does not match its key`},
		{Severity: SeverityWarning, Scene: "attic", Message: "scene is unreachable from the start scene"},
		{Severity: SeverityWarning, Scene: "hall", Message: `text references undefined variable "glod"`},
		{Severity: SeverityError, Scene: "hall", Choice: "c1", Message: `choice ID is also used in scene "attic"`},
		{Severity: SeverityWarning, Scene: "hall", Choice: "c1", Message: `target "cellar" does not exist`},
		{Severity: SeverityWarning, Scene: "hall", Choice: "c2", Message: `unknown condition type "hasSpell"`},
		{Severity: SeverityWarning, Scene: "hall", Choice: "c2", Message: `condition varGT on "gold" has non-numeric value "lots"`},
		{Severity: SeverityWarning, Scene: "hall", Choice: "c2", Message: `unknown effect type "teleport"`},
		{Severity: SeverityWarning, Scene: "hall", Choice: "c2", Message: `effect varAdd on "gold" has non-numeric value "some"`},
	}
	assert.Equal(t, expected, issues)
}

func TestValidate_EffectVariablesAreKnown(t *testing.T) {
	p, err := Parse([]byte(`{
	  "config": {"startSceneId": "start"},
	  "scenes": {
	    "start": {"id": "start", "text": "Gold: ${gold}", "choices": [
	      {"id": "loot", "text": "Loot", "target": "end",
	       "effects": [{"type": "varSet", "key": "gold", "val": 5}, {"type": "addItem", "key": "bag"}]}
	    ]},
	    "end": {"id": "end", "text": "Bag: ${bag}, gold: ${gold}", "choices": []}
	  }
	}`))
	require.NoError(t, err)

	assert.Equal(t, []Issue{
		{Severity: SeverityWarning, Scene: "end", Message: `text references undefined variable "bag"`},
	}, p.Validate())
}

func TestValidate_MissingStartScene(t *testing.T) {
	p := New()
	p.Config.StartSceneID = "prologue"

	issues := p.Validate()
	require.NotEmpty(t, issues)
	assert.Equal(t, Issue{Severity: SeverityError, Message: `start scene "prologue" does not exist`}, issues[0])

	p.Config.StartSceneID = ""
	issues = p.Validate()
	require.NotEmpty(t, issues)
	assert.Equal(t, "error: start scene is not set", issues[0].String())
}

func TestIssue_String(t *testing.T) {
	i := Issue{Severity: SeverityWarning, Scene: "hall", Choice: "c1", Message: "target missing"}
	assert.Equal(t, "warning: scene hall, choice c1: target missing", i.String())
	assert.False(t, HasErrors([]Issue{i}))
	assert.False(t, HasErrors(nil))
}
