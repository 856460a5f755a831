// Package report provides JSON-based run reporting with real-time updates.
//
// Layout of an output directory:
//   - report.json: the run index, rewritten atomically on every change
//   - assets/scenario-XXX/: screenshots and page sources captured per scenario
//   - report.html: static page rendered from report.json
//   - allure-results/: optional Allure export
//
// report.json is the single source of truth. Consumers poll it and compare
// updateSeq to detect changes.
package report

import (
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	}
	return false
}

// StatusFromCore maps an execution status onto the report vocabulary.
func StatusFromCore(s core.StepStatus) Status {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return StatusPassed
	case core.StatusFailed:
		return StatusFailed
	case core.StatusErrored:
		return StatusErrored
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusRunning:
		return StatusRunning
	default:
		return StatusPending
	}
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the report file that binds everything together.
type Index struct {
	Version     string          `json:"version"`
	RunID       string          `json:"runId"`
	UpdateSeq   uint64          `json:"updateSeq"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Device      Device          `json:"device"`
	Runner      RunnerInfo      `json:"runner"`
	Summary     Summary         `json:"summary"`
	Scenarios   []ScenarioEntry `json:"scenarios"`
}

// Device contains information about the phone under test.
type Device struct {
	Serial     string `json:"serial,omitempty"`
	Model      string `json:"model,omitempty"`
	Build      string `json:"build,omitempty"`
	IsEmulator bool   `json:"isEmulator"`
}

// RunnerInfo describes the runner and the automation server it talked to.
type RunnerInfo struct {
	Version   string `json:"version"`
	Driver    string `json:"driver"` // webdriver, agouti
	ServerURL string `json:"serverUrl,omitempty"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
	Flaky   int `json:"flaky,omitempty"`
}

// ScenarioEntry is the index entry for one scenario.
type ScenarioEntry struct {
	Index          int               `json:"index"` // Execution position
	ID             string            `json:"id"`    // scenario-XXX
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	AssetsDir      string            `json:"assetsDir"`
	Status         Status            `json:"status"`
	UpdateSeq      uint64            `json:"updateSeq"`
	StartTime      *time.Time        `json:"startTime,omitempty"`
	EndTime        *time.Time        `json:"endTime,omitempty"`
	Duration       *int64            `json:"duration,omitempty"` // milliseconds
	LastUpdated    *time.Time        `json:"lastUpdated,omitempty"`
	Attempts       int               `json:"attempts"`
	AttemptHistory []AttemptEntry    `json:"attemptHistory,omitempty"`
	Flaky          bool              `json:"flaky,omitempty"`
	Category       string            `json:"errorCategory,omitempty"`
	Error          *string           `json:"error,omitempty"`
	Attachments    []core.Attachment `json:"attachments,omitempty"`
}

// AttemptEntry tracks retry attempts.
type AttemptEntry struct {
	Attempt  int    `json:"attempt"`
	Status   Status `json:"status"`
	Duration int64  `json:"duration"` // milliseconds
	Error    string `json:"error,omitempty"`
}

// ScenarioUpdate carries the fields that change while a scenario runs.
type ScenarioUpdate struct {
	Status      Status
	StartTime   *time.Time
	EndTime     *time.Time
	Duration    *int64
	Error       *string
	Category    string
	Flaky       bool
	Attachments []core.Attachment
}

// UpdateFromResult builds the terminal update for a finished scenario.
func UpdateFromResult(r core.ScenarioResult) *ScenarioUpdate {
	start := r.StartTime
	end := start.Add(r.Duration)
	ms := r.Duration.Milliseconds()
	u := &ScenarioUpdate{
		Status:      StatusFromCore(r.Status),
		StartTime:   &start,
		EndTime:     &end,
		Duration:    &ms,
		Flaky:       r.Flaky,
		Attachments: r.Attachments,
	}
	if r.Category != core.ErrCategoryNone {
		u.Category = r.Category.String()
	}
	if r.Error != "" {
		msg := r.Error
		u.Error = &msg
	}
	return u
}
