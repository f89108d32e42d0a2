package state

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Session is the mutable runtime state of one playthrough. It is owned by a
// single engine; anything that needs its own copy must call Clone.
type Session struct {
	CurrentScene string   `json:"currentScene"`
	Inventory    []string `json:"inventory"`
	Variables    Vars     `json:"variables"`
}

// New returns a fresh session positioned on startScene, holding copies of
// the given items and variables.
func New(startScene string, items []string, vars Vars) *Session {
	s := &Session{
		CurrentScene: startScene,
		Inventory:    make([]string, 0, len(items)),
		Variables:    vars.Clone(),
	}
	for _, item := range items {
		s.AddItem(item)
	}
	return s
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	return &Session{
		CurrentScene: s.CurrentScene,
		Inventory:    append(make([]string, 0, len(s.Inventory)), s.Inventory...),
		Variables:    s.Variables.Clone(),
	}
}

// HasItem reports whether id is in the inventory.
func (s *Session) HasItem(id string) bool {
	return slices.Contains(s.Inventory, id)
}

// AddItem adds id to the inventory unless it is already there.
func (s *Session) AddItem(id string) {
	if !s.HasItem(id) {
		s.Inventory = append(s.Inventory, id)
	}
}

// RemoveItem removes id from the inventory; removing an absent item does nothing.
func (s *Session) RemoveItem(id string) {
	s.Inventory = slices.DeleteFunc(s.Inventory, func(i string) bool { return i == id })
}

// Var returns the value of a variable, or 0 when it has never been written.
func (s *Session) Var(name string) float64 {
	return s.Variables[name]
}

// SetVar writes a variable, creating it if needed.
func (s *Session) SetVar(name string, value float64) {
	if s.Variables == nil {
		s.Variables = make(Vars)
	}
	s.Variables[name] = value
}

// Equal reports whether two sessions hold the same scene, the same set of
// items and the same variables.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.CurrentScene != other.CurrentScene || len(s.Inventory) != len(other.Inventory) {
		return false
	}
	for _, item := range s.Inventory {
		if !other.HasItem(item) {
			return false
		}
	}
	if len(s.Variables) != len(other.Variables) {
		return false
	}
	for name, v := range s.Variables {
		ov, ok := other.Variables[name]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// UnmarshalJSON decodes a snapshot. Missing or null collections become
// empty and duplicate inventory entries are collapsed.
func (s *Session) UnmarshalJSON(data []byte) error {
	type alias Session
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to decode session snapshot: %w", err)
	}

	*s = Session{
		CurrentScene: aux.CurrentScene,
		Inventory:    make([]string, 0, len(aux.Inventory)),
		Variables:    aux.Variables.Clone(),
	}
	for _, item := range aux.Inventory {
		s.AddItem(item)
	}
	return nil
}

// Marshal encodes the session as a snapshot.
func (s *Session) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot produced by Marshal.
func Unmarshal(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
