package project

import (
	"encoding/json"
	"maps"

	"github.com/jhin-exe/weave/pkg/conditionals"
	"github.com/jhin-exe/weave/pkg/effects"
)

// Clone returns a deep copy. A play session always runs against a clone so
// that it can never write into the document being edited.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}

	c := &Project{
		Meta:      p.Meta,
		Config:    p.Config.clone(),
		Theme:     append(json.RawMessage(nil), p.Theme...),
		Variables: p.Variables.Clone(),
		Items:     append(Items{}, p.Items...),
		Scenes:    make(map[string]*Scene, len(p.Scenes)),
	}
	for id, s := range p.Scenes {
		c.Scenes[id] = s.Clone()
	}
	return c
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	c := *s
	if s.Choices != nil {
		c.Choices = make([]Choice, len(s.Choices))
		for i, ch := range s.Choices {
			c.Choices[i] = ch.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of the choice.
func (ch Choice) Clone() Choice {
	c := ch
	if ch.LogicGroups != nil {
		c.LogicGroups = make(conditionals.LogicGroups, len(ch.LogicGroups))
		for i, g := range ch.LogicGroups {
			if g != nil {
				c.LogicGroups[i] = append(conditionals.Group{}, g...)
			}
		}
	}
	if ch.Effects != nil {
		c.Effects = append([]effects.Effect{}, ch.Effects...)
	}
	return c
}

func (c Config) clone() Config {
	out := c
	if c.Flags != nil {
		out.Flags = maps.Clone(c.Flags)
		for k, v := range out.Flags {
			out.Flags[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
