package conditionals

// IsVisible reports whether a choice gated by groups should be shown.
// No groups means no gate. Otherwise at least one group must be satisfied.
func IsVisible(groups LogicGroups, view StateView) bool {
	if len(groups) == 0 {
		return true
	}

	for _, group := range groups {
		if group.Satisfied(view) {
			return true
		}
	}
	return false
}

// Satisfied reports whether every condition in the group holds.
// An empty group is satisfied.
func (g Group) Satisfied(view StateView) bool {
	for _, c := range g {
		if !c.Evaluate(view) {
			return false
		}
	}
	return true
}

// Evaluate checks a single condition. Unknown types evaluate to false.
// Val is parsed on every call; a variable missing from state counts as 0,
// and a Val that is not a number makes every comparison false.
func (c Condition) Evaluate(view StateView) bool {
	switch c.Type.Kind() {
	case HasItem:
		return view.HasItem(c.Key)
	case NotHasItem:
		return !view.HasItem(c.Key)
	case VarGT:
		return view.Var(c.Key) > c.Val.Float()
	case VarLT:
		return view.Var(c.Key) < c.Val.Float()
	case VarEQ:
		return view.Var(c.Key) == c.Val.Float()
	case ConditionUnknown:
		return false
	}
	return false
}
