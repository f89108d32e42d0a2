// Package project defines the story document produced by the authoring tool
// and the edits the tool performs on it.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jhin-exe/weave/pkg/conditionals"
	"github.com/jhin-exe/weave/pkg/effects"
	"github.com/jhin-exe/weave/pkg/state"
)

// Project is the root story document.
type Project struct {
	Meta      Meta              `json:"meta"`
	Config    Config            `json:"config"`
	Theme     json.RawMessage   `json:"theme,omitempty"` // presentation only, kept verbatim
	Variables state.Vars        `json:"variables"`       // starting values
	Items     Items             `json:"items"`           // owned at story start
	Scenes    map[string]*Scene `json:"scenes"`
}

// Meta describes the story; the runtime never reads it.
type Meta struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Created int64  `json:"created"` // unix milliseconds
	Version string `json:"version"`
}

// Config holds runtime settings. Keys other than the known ones are
// feature flags owned by other tools and are carried through untouched.
type Config struct {
	StartSceneID string                     `json:"startSceneId"`
	MobileOpt    bool                       `json:"mobileOpt"`
	Flags        map[string]json.RawMessage `json:"-"`
}

// Scene is a node of authored content.
type Scene struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`  // markup and ${var} tokens
	Image   string   `json:"image"` // URL or relative path
	Audio   string   `json:"audio"` // looping track, URL or relative path
	Choices []Choice `json:"choices"`
}

// Choice is an edge out of a scene. An empty or unknown Target keeps the
// player on the current scene.
type Choice struct {
	ID          string                   `json:"id"`
	Text        string                   `json:"text"`
	Target      string                   `json:"target"`
	LogicGroups conditionals.LogicGroups `json:"logicGroups"`
	Effects     []effects.Effect         `json:"effects"`
}

// Item is something the player can own. Documents list items either as
// bare IDs or as {id, name} objects.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Items is the list of starting items.
type Items []Item

// Scene returns the scene with the given ID.
func (p *Project) Scene(id string) (*Scene, bool) {
	s, ok := p.Scenes[id]
	return s, ok && s != nil
}

// SceneIDs returns all scene IDs in lexical order.
func (p *Project) SceneIDs() []string {
	ids := make([]string, 0, len(p.Scenes))
	for id := range p.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IDs returns the item IDs in document order.
func (items Items) IDs() []string {
	ids := make([]string, 0, len(items))
	for _, i := range items {
		ids = append(ids, i.ID)
	}
	return ids
}

// Name returns the display name recorded for an item, if any.
func (items Items) Name(id string) (string, bool) {
	for _, i := range items {
		if i.ID == id && i.Name != "" {
			return i.Name, true
		}
	}
	return "", false
}

// UnmarshalJSON accepts either a bare ID string or an {id, name} object.
func (i *Item) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*i = Item{ID: id}
		return nil
	}

	type alias Item
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("item must be a string or an object: %w", err)
	}
	*i = Item(aux)
	return nil
}

// MarshalJSON writes unnamed items as bare IDs.
func (i Item) MarshalJSON() ([]byte, error) {
	if i.Name == "" {
		return json.Marshal(i.ID)
	}
	type alias Item
	return json.Marshal(alias(i))
}

// UnmarshalJSON reads the known keys and keeps the rest as flags.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	*c = Config{}
	for key, value := range raw {
		switch key {
		case "startSceneId":
			if err := json.Unmarshal(value, &c.StartSceneID); err != nil {
				return fmt.Errorf("config.startSceneId: %w", err)
			}
		case "mobileOpt":
			if err := json.Unmarshal(value, &c.MobileOpt); err != nil {
				return fmt.Errorf("config.mobileOpt: %w", err)
			}
		default:
			if c.Flags == nil {
				c.Flags = make(map[string]json.RawMessage)
			}
			c.Flags[key] = value
		}
	}
	return nil
}

// MarshalJSON writes the known keys followed by the preserved flags.
func (c Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Flags)+2)
	for key, value := range c.Flags {
		out[key] = value
	}
	out["startSceneId"] = c.StartSceneID
	out["mobileOpt"] = c.MobileOpt
	return json.Marshal(out)
}
