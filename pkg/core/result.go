package core

import (
	"time"
)

// ScenarioResult captures the complete outcome of running one scenario
type ScenarioResult struct {
	// Identity
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Error info (if the scenario did not pass)
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	// Retry Tracking
	Attempt     int      `json:"attempt"`               // Attempt that produced this result (1-based)
	MaxAttempts int      `json:"maxAttempts"`           // Configured max retries + 1
	RetryErrors []string `json:"retryErrors,omitempty"` // Errors from previous attempts
	Flaky       bool     `json:"flaky,omitempty"`       // True if passed after retry

	// Debug Artifacts
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewScenarioResult builds a result from the error a scenario returned.
func NewScenarioResult(name string, tags []string, start time.Time, err error) ScenarioResult {
	r := ScenarioResult{
		Name:      name,
		Tags:      tags,
		Status:    Classify(err),
		Category:  CategoryOf(err),
		StartTime: start,
		Duration:  time.Since(start),
		Attempt:   1,
	}
	if err != nil {
		r.Error = err.Error()
		if execErr, ok := AsExecutionError(err); ok {
			r.Message = execErr.Message
		}
	}
	return r
}

// SuiteResult captures the complete outcome of running multiple scenarios
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"` // Unique execution ID

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Scenarios []ScenarioResult `json:"scenarios"`

	// Summary
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky,omitempty"` // Scenarios that passed after retry
}

// ComputeSummary calculates scenario counts from the Scenarios slice
func (s *SuiteResult) ComputeSummary() {
	s.Total = len(s.Scenarios)
	s.Passed = 0
	s.Failed = 0
	s.Errored = 0
	s.Skipped = 0
	s.Flaky = 0

	for _, sc := range s.Scenarios {
		switch sc.Status {
		case StatusPassed, StatusWarned:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		}
		if sc.Flaky {
			s.Flaky++
		}
	}
}

// Success returns true if all scenarios passed
func (s *SuiteResult) Success() bool {
	for _, sc := range s.Scenarios {
		if !sc.Status.IsSuccess() {
			return false
		}
	}
	return len(s.Scenarios) > 0
}
