// Package validator checks a scenario selection before anything touches the
// device: names resolve, test variables are present and resources exist.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/scenario"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Scenario string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Scenario == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Scenario, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Scenarios is the selection in execution order.
	Scenarios []scenario.Scenario
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Names returns the names of the selected scenarios.
func (r *Result) Names() []string {
	out := make([]string, len(r.Scenarios))
	for i, s := range r.Scenarios {
		out[i] = s.Name
	}
	return out
}

// Validator validates scenario selections.
type Validator struct {
	includeTags []string
	excludeTags []string
	resourceDir string
}

// New creates a new Validator. resourceDir is where pushed resources are
// read from; empty skips the resource check.
func New(includeTags, excludeTags []string, resourceDir string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
		resourceDir: resourceDir,
	}
}

// Validate resolves names (every scenario when empty), applies the tag
// filters and checks each selected scenario against vars. All problems are
// reported at once.
func (v *Validator) Validate(names []string, vars gaia.TestVars) *Result {
	result := &Result{}

	var selected []scenario.Scenario
	if len(names) == 0 {
		selected = scenario.All()
	}
	for _, name := range names {
		s, ok := scenario.Lookup(name)
		if !ok {
			result.Errors = append(result.Errors, &ValidationError{
				Scenario: name,
				Message:  "unknown scenario",
			})
			continue
		}
		selected = append(selected, s)
	}

	result.Scenarios = scenario.Filter(selected, v.includeTags, v.excludeTags)
	if len(result.Scenarios) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Message: "no scenarios match the selection",
		})
	}

	for _, s := range result.Scenarios {
		result.Errors = append(result.Errors, v.check(s, vars)...)
	}
	return result
}

func (v *Validator) check(s scenario.Scenario, vars gaia.TestVars) []error {
	var errs []error

	if missing := vars.Missing(s.Requires...); len(missing) > 0 {
		errs = append(errs, &ValidationError{
			Scenario: s.Name,
			Message:  fmt.Sprintf("missing testvars: %s", strings.Join(missing, ", ")),
		})
	}

	if v.resourceDir == "" {
		return errs
	}
	for _, res := range s.Resources {
		path := filepath.Join(v.resourceDir, res)
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, &ValidationError{
				Scenario: s.Name,
				Message:  fmt.Sprintf("resource not found: %s", path),
			})
		}
	}
	return errs
}
