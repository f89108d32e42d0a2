package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhin-exe/weave/pkg/project"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <project.json> [more.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// validateFile strictly decodes a project file and prints its issues to
// out. It returns an error when the file cannot be read or decoded, or
// when any issue is an error.
func validateFile(filename string, out io.Writer) error {
	fmt.Fprintf(out, "Validating %s...\n", filename)

	if ext := filepath.Ext(filename); ext != ".json" {
		return fmt.Errorf("project file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var strict project.Project
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&strict); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	p, err := project.Parse(data)
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	issues := p.Validate()
	var errs []string
	for _, issue := range issues {
		if issue.Severity == project.SeverityError {
			errs = append(errs, "  - "+issue.String())
			continue
		}
		fmt.Fprintf(out, "  - %s\n", issue)
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(errs, "\n"))
	}

	fmt.Fprintf(out, "%s is valid (%d scenes, %d warnings)\n", filename, len(p.Scenes), len(issues))
	return nil
}
