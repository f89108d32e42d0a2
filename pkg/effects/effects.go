// Package effects applies the state changes carried by a choice.
package effects

import (
	"math"

	"github.com/jhin-exe/weave/pkg/conditionals"
)

// EffectType is the tag of an effect. Unrecognized tags report
// EffectUnknown from Kind and are skipped when applied.
type EffectType string

const (
	AddItem   EffectType = "addItem"
	RemItem   EffectType = "remItem"
	VarSet    EffectType = "varSet"
	VarAdd    EffectType = "varAdd"
	VarSub    EffectType = "varSub"
	PlaySound EffectType = "playSound"

	EffectUnknown EffectType = "<unknown>"
)

// Kind returns t when it is a known effect type and EffectUnknown otherwise.
func (t EffectType) Kind() EffectType {
	switch t {
	case AddItem, RemItem, VarSet, VarAdd, VarSub, PlaySound:
		return t
	default:
		return EffectUnknown
	}
}

// IsNumeric reports whether t writes a variable from Val.
func (t EffectType) IsNumeric() bool {
	switch t {
	case VarSet, VarAdd, VarSub:
		return true
	default:
		return false
	}
}

// Effect is a single mutation. Item effects use Key as the item ID,
// variable effects use Key as the variable name and Val as the operand,
// and PlaySound uses Key as the audio reference.
type Effect struct {
	Type EffectType           `json:"type"`
	Key  string               `json:"key"`
	Val  conditionals.Operand `json:"val"`
}

// Target is the state an effect list mutates.
type Target interface {
	HasItem(id string) bool
	AddItem(id string)
	RemoveItem(id string)
	Var(name string) float64
	SetVar(name string, value float64)
}

// SoundPlayer receives PlaySound effects.
type SoundPlayer interface {
	PlayOnce(ref string)
}

// Apply runs effects in order against target. Each effect sees the changes
// made by the ones before it. Unknown effect types, variable effects whose
// Val is not a number, and variable effects whose result would not be
// finite are skipped. Apply returns the effects that
// were carried out.
func Apply(list []Effect, target Target, sound SoundPlayer) []Effect {
	var applied []Effect
	for _, e := range list {
		if apply(e, target, sound) {
			applied = append(applied, e)
		}
	}
	return applied
}

func apply(e Effect, target Target, sound SoundPlayer) bool {
	switch e.Type.Kind() {
	case AddItem:
		if !target.HasItem(e.Key) {
			target.AddItem(e.Key)
		}
		return true

	case RemItem:
		target.RemoveItem(e.Key)
		return true

	case PlaySound:
		if sound != nil {
			sound.PlayOnce(e.Key)
		}
		return true

	case VarSet, VarAdd, VarSub:
		n := e.Val.Float()
		if math.IsNaN(n) {
			return false
		}
		next := n
		switch e.Type {
		case VarAdd:
			next = target.Var(e.Key) + n
		case VarSub:
			next = target.Var(e.Key) - n
		}
		// Snapshots hold JSON numbers only.
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return false
		}
		target.SetVar(e.Key, next)
		return true

	case EffectUnknown:
		return false
	}
	return false
}
