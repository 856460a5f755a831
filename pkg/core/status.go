package core

// StepStatus is the outcome of a scenario or one of its attempts.
type StepStatus int

const (
	StatusPending StepStatus = iota // Selected, not started
	StatusRunning                   // Attempt in progress
	StatusPassed                    // Journey completed
	StatusFailed                    // Observed value did not match
	StatusErrored                   // Lookup, timeout, session or app error
	StatusSkipped                   // Run stopped or cancelled first
	StatusWarned                    // Passed with a non-fatal problem
)

func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further attempt will change s.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether s counts as a pass.
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory groups errors by what went wrong, for retries and reports.
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Text mismatch, condition not met, lookups
	ErrCategoryTimeout                         // Poller or script timed out
	ErrCategoryConnection                      // Automation server unreachable, script failures
	ErrCategoryApp                             // App not installed, not launched, crashed
	ErrCategoryConfig                          // Bad gaiatest.yaml or missing testvars
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
