package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhin-exe/weave/internal/handlers"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays walkthroughs against a running weave API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	ProjectOverride   string // If set, overrides the project for all test cases
	WatchEvents       bool   // Follow each session's event stream and check step events
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           5 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// session is the live session a suite is playing.
type session struct {
	id      uuid.UUID
	current *handlers.SessionResponse
	events  *EventStream
}

func (s *session) close() {
	if s.events != nil {
		s.events.Close()
	}
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	sess, err := r.startSession(ctx, suite)
	if err != nil {
		result.Error = fmt.Errorf("failed to start session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	defer func() {
		sess.close()
		if err := DeleteSession(context.WithoutCancel(ctx), r.Client, r.BaseURL, sess.id); err != nil {
			r.Logger("    Failed to clean up session %s: %v", sess.id, err)
		}
	}()
	result.Session = sess.id

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		if step.Restart {
			next, err := r.startSession(ctx, suite)
			if err != nil {
				result.Error = fmt.Errorf("step %d (%s) failed to restart: %w", i, step.Name, err)
				break
			}
			sess.close()
			_ = DeleteSession(ctx, r.Client, r.BaseURL, sess.id)
			sess = next
			result.Session = sess.id
		}

		stepResult := r.runStep(ctx, sess, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) startSession(ctx context.Context, suite TestSuite) (*session, error) {
	project := suite.Project
	if r.ProjectOverride != "" {
		project = r.ProjectOverride
	}

	created, _, err := CreateSession(ctx, r.Client, r.BaseURL, handlers.CreateSessionRequest{
		Project:  project,
		Snapshot: suite.Snapshot,
	})
	if err != nil {
		return nil, err
	}

	sess := &session{id: created.ID, current: created}
	if r.WatchEvents {
		if sess.events, err = OpenEventStream(ctx, r.Client, r.BaseURL, created.ID, r.Timeout); err != nil {
			_ = DeleteSession(ctx, r.Client, r.BaseURL, created.ID)
			return nil, err
		}
	}
	return sess, nil
}

// runStep activates the step's choice, if any, and checks expectations
func (r *Runner) runStep(ctx context.Context, sess *session, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}
	fail := func(err error) TestResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	index, ok, err := resolveChoice(sess.current, step)
	if err != nil {
		return fail(err)
	}

	if ok {
		expectStatus := step.ExpectStatus
		if expectStatus == 0 {
			expectStatus = http.StatusOK
		}
		resp, status, err := PostChoice(ctx, r.Client, r.BaseURL, sess.id, index)
		if status != expectStatus {
			if err == nil {
				err = fmt.Errorf("unexpected success")
			}
			return fail(fmt.Errorf("expected status %d, got %d: %w", expectStatus, status, err))
		}
		if resp != nil {
			sess.current = resp
		}
	} else if step.Restart {
		result.IsReset = true
	}

	if err := r.checkEvents(sess, step.Expectations.Events); err != nil {
		return fail(err)
	}
	if err := checkExpectations(step.Expectations, sess.current); err != nil {
		return fail(fmt.Errorf("expectation failed: %w", err))
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// resolveChoice finds the index the step wants to activate. It reports
// false when the step activates nothing.
func resolveChoice(current *handlers.SessionResponse, step TestStep) (int, bool, error) {
	if step.Index != nil {
		return *step.Index, true, nil
	}
	if step.Choose == "" {
		return 0, false, nil
	}
	for _, c := range current.View.Choices {
		if strings.EqualFold(c.Label, step.Choose) {
			return c.Index, true, nil
		}
	}
	labels := make([]string, 0, len(current.View.Choices))
	for _, c := range current.View.Choices {
		labels = append(labels, c.Label)
	}
	return 0, false, fmt.Errorf("no visible choice %q in scene %q (visible: %v)", step.Choose, current.View.SceneID, labels)
}

func (r *Runner) checkEvents(sess *session, expected []string) error {
	if sess.events == nil || len(expected) == 0 {
		return nil
	}
	for i, name := range expected {
		ev, err := sess.events.Next(r.Timeout)
		if err != nil {
			return fmt.Errorf("expected event %d (%s): %w", i, name, err)
		}
		if ev.Name != name {
			return fmt.Errorf("expected event %d to be %s, got %s", i, name, ev.Name)
		}
	}
	return nil
}

// checkExpectations validates the test expectations against the session
func checkExpectations(exp Expectations, current *handlers.SessionResponse) error {
	view := current.View
	st := current.State

	if exp.Scene != nil && view.SceneID != *exp.Scene {
		return fmt.Errorf("expected scene %s, got %s", *exp.Scene, view.SceneID)
	}

	// Full inventory check (order independent)
	if exp.Inventory != nil {
		expected := slices.Sorted(slices.Values(exp.Inventory))
		actual := slices.Sorted(slices.Values(st.Inventory))
		if !slices.Equal(expected, actual) {
			return fmt.Errorf("expected inventory %v, got %v", exp.Inventory, st.Inventory)
		}
	}

	for key, expectedValue := range exp.Vars {
		actualValue, exists := st.Variables[key]
		if !exists {
			return fmt.Errorf("expected variable %s to be set, but it doesn't exist", key)
		}
		if actualValue != expectedValue {
			return fmt.Errorf("expected variable %s to be %v, got %v", key, expectedValue, actualValue)
		}
	}

	if exp.Choices != nil {
		labels := make([]string, 0, len(view.Choices))
		for _, c := range view.Choices {
			labels = append(labels, c.Label)
		}
		if !slices.Equal(exp.Choices, labels) {
			return fmt.Errorf("expected choices %v, got %v", exp.Choices, labels)
		}
	}

	if exp.DeadEnd != nil && view.DeadEnd != *exp.DeadEnd {
		return fmt.Errorf("expected dead_end to be %t, got %t", *exp.DeadEnd, view.DeadEnd)
	}

	lowerText := strings.ToLower(view.Text)
	for _, expectedText := range exp.TextContains {
		if !strings.Contains(lowerText, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected scene text to contain '%s', got %q", expectedText, view.Text)
		}
	}

	return nil
}
