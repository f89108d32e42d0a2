package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhin-exe/weave/pkg/state"
)

// TestSuite defines a complete walkthrough of one project.
// It either plays Steps itself or sequences other case files through Cases.
type TestSuite struct {
	Name     string         `json:"name"`
	Project  string         `json:"project,omitempty"`  // Used for regular tests
	Snapshot *state.Session `json:"snapshot,omitempty"` // Optional starting point
	Steps    []TestStep     `json:"steps,omitempty"`    // Used for regular tests
	Cases    []string       `json:"cases,omitempty"`    // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep activates one choice and checks the outcome. Choose names the
// choice by its label; Index names it by position in the scene. A step
// with neither only checks expectations. Restart starts a new session
// from the suite's starting point before anything else.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Restart      bool         `json:"restart,omitempty"`
	Choose       string       `json:"choose,omitempty"`
	Index        *int         `json:"index,omitempty"`
	ExpectStatus int          `json:"expect_status,omitempty"` // defaults to 200
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Scene        *string            `json:"scene,omitempty"`
	Inventory    []string           `json:"inventory,omitempty"` // Full inventory contents (order independent)
	Vars         map[string]float64 `json:"vars,omitempty"`
	Choices      []string           `json:"choices,omitempty"` // Visible labels, in order
	DeadEnd      *bool              `json:"dead_end,omitempty"`
	TextContains []string           `json:"text_contains,omitempty"`
	// Events published by the step, in order. Checked only when the
	// runner watches events.
	Events []string `json:"events,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	IsReset  bool // True for restart-only steps
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the last session used for this test
}
