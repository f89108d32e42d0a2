package conditionals

// ConditionType is the tag of a condition. The set of types is closed;
// anything a document carries outside of it is reported as ConditionUnknown
// by Kind and never matches.
type ConditionType string

const (
	HasItem    ConditionType = "hasItem"
	NotHasItem ConditionType = "!hasItem"
	VarGT      ConditionType = "varGT"
	VarLT      ConditionType = "varLT"
	VarEQ      ConditionType = "varEQ"

	// ConditionUnknown is never written to documents; Kind returns it for
	// unrecognized tags.
	ConditionUnknown ConditionType = "<unknown>"
)

// Kind returns t when it is a known condition type and ConditionUnknown otherwise.
func (t ConditionType) Kind() ConditionType {
	switch t {
	case HasItem, NotHasItem, VarGT, VarLT, VarEQ:
		return t
	default:
		return ConditionUnknown
	}
}

// IsNumeric reports whether t compares a variable against Val.
func (t ConditionType) IsNumeric() bool {
	switch t {
	case VarGT, VarLT, VarEQ:
		return true
	default:
		return false
	}
}

// Condition is a single test against session state. Item tests read Key as
// an item ID and ignore Val; variable tests compare variables[Key] with Val.
type Condition struct {
	Type ConditionType `json:"type"`
	Key  string        `json:"key"`
	Val  Operand       `json:"val"`
}

// Group is a conjunction: every condition must hold.
type Group []Condition

// LogicGroups is a disjunction of groups: at least one must hold.
type LogicGroups []Group

// StateView provides the minimal interface needed to evaluate conditions.
// This avoids an import cycle with the state package.
type StateView interface {
	HasItem(id string) bool
	Var(name string) float64
}
