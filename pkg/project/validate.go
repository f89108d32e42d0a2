package project

import (
	"fmt"
	"strings"

	"github.com/jhin-exe/weave/pkg/conditionals"
	"github.com/jhin-exe/weave/pkg/effects"
	"github.com/jhin-exe/weave/pkg/format"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding from Validate.
type Issue struct {
	Severity Severity `json:"severity"`
	Scene    string   `json:"scene,omitempty"`
	Choice   string   `json:"choice,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	var where []string
	if i.Scene != "" {
		where = append(where, "scene "+i.Scene)
	}
	if i.Choice != "" {
		where = append(where, "choice "+i.Choice)
	}
	if len(where) == 0 {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, strings.Join(where, ", "), i.Message)
}

// HasErrors reports whether any issue is an error rather than a warning.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate reports structural problems. Errors prevent a session from
// starting correctly; warnings flag content that will play but probably
// not the way the author meant. Scenes are visited in ID order.
func (p *Project) Validate() []Issue {
	var issues []Issue
	add := func(sev Severity, scene, choice, msg string, args ...any) {
		issues = append(issues, Issue{
			Severity: sev,
			Scene:    scene,
			Choice:   choice,
			Message:  fmt.Sprintf(msg, args...),
		})
	}

	if p.Config.StartSceneID == "" {
		add(SeverityError, "", "", "start scene is not set")
	} else if _, ok := p.Scene(p.Config.StartSceneID); !ok {
		add(SeverityError, "", "", "start scene %q does not exist", p.Config.StartSceneID)
	}

	reachable := p.Reachable()
	known := p.knownVariables()
	choiceIDs := make(map[string]string)

	for _, key := range p.SceneIDs() {
		s, ok := p.Scene(key)
		if !ok {
			add(SeverityError, key, "", "scene is null")
			continue
		}
		if strings.TrimSpace(key) == "" {
			add(SeverityError, key, "", "scene ID is empty")
		}
		if s.ID != key {
			add(SeverityError, key, "", "scene ID %q does not match its key", s.ID)
		}
		if len(reachable) > 0 && !reachable[key] {
			add(SeverityWarning, key, "", "scene is unreachable from the start scene")
		}
		for _, tok := range format.UnresolvedTokens(s.Text, known) {
			add(SeverityWarning, key, "", "text references undefined variable %q", tok)
		}

		for i, c := range s.Choices {
			label := c.ID
			if label == "" {
				label = fmt.Sprintf("#%d", i)
			}
			if c.ID != "" {
				if prev, dup := choiceIDs[c.ID]; dup {
					add(SeverityError, key, label, "choice ID is also used in scene %q", prev)
				} else {
					choiceIDs[c.ID] = key
				}
			}
			if c.Target != "" {
				if _, ok := p.Scene(c.Target); !ok {
					add(SeverityWarning, key, label, "target %q does not exist", c.Target)
				}
			}
			for _, g := range c.LogicGroups {
				for _, cond := range g {
					switch {
					case cond.Type.Kind() == conditionals.ConditionUnknown:
						add(SeverityWarning, key, label, "unknown condition type %q", cond.Type)
					case cond.Type.IsNumeric() && !cond.Val.Valid():
						add(SeverityWarning, key, label, "condition %s on %q has non-numeric value %q", cond.Type, cond.Key, cond.Val.String())
					}
				}
			}
			for _, e := range c.Effects {
				switch {
				case e.Type.Kind() == effects.EffectUnknown:
					add(SeverityWarning, key, label, "unknown effect type %q", e.Type)
				case e.Type.IsNumeric() && !e.Val.Valid():
					add(SeverityWarning, key, label, "effect %s on %q has non-numeric value %q", e.Type, e.Key, e.Val.String())
				}
			}
		}
	}
	return issues
}

// knownVariables returns the starting variables plus every variable an
// effect can create. Values are irrelevant; only the names are checked.
func (p *Project) knownVariables() map[string]float64 {
	known := make(map[string]float64, len(p.Variables))
	for name := range p.Variables {
		known[name] = 0
	}
	for _, s := range p.Scenes {
		if s == nil {
			continue
		}
		for _, c := range s.Choices {
			for _, e := range c.Effects {
				if e.Type.IsNumeric() {
					known[e.Key] = 0
				}
			}
		}
	}
	return known
}
