package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrElementNotFound
	cause := errors.New("custom cause")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrTimeout
	newErr := original.WithMessage("custom timeout message")

	if newErr.Message != "custom timeout message" {
		t.Errorf("Message = %q, want 'custom timeout message'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "custom timeout message" {
		t.Error("WithMessage() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"selector": "#button",
		"timeout":  5000,
	})

	if newErr.Details["selector"] != "#button" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["selector"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrElementNotFound, ErrCategoryAssertion, "element_not_found"},
		{ErrStaleElement, ErrCategoryAssertion, "stale_element"},
		{ErrElementNotVisible, ErrCategoryAssertion, "element_not_visible"},
		{ErrTextMismatch, ErrCategoryAssertion, "text_mismatch"},
		{ErrConditionNotMet, ErrCategoryAssertion, "condition_not_met"},
		{ErrTimeout, ErrCategoryTimeout, "timeout"},
		{ErrWaitTimeout, ErrCategoryTimeout, "wait_timeout"},
		{ErrDeviceDisconnected, ErrCategoryConnection, "device_disconnected"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrScriptFailed, ErrCategoryConnection, "script_failed"},
		{ErrAppCrashed, ErrCategoryApp, "app_crashed"},
		{ErrAppNotInstalled, ErrCategoryApp, "app_not_installed"},
		{ErrAppNotResponding, ErrCategoryApp, "app_not_responding"},
		{ErrAppNotLaunched, ErrCategoryApp, "app_not_launched"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
		{ErrMissingRequired, ErrCategoryConfig, "missing_required"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryApp, "custom_error", "custom message")

	if err.Category != ErrCategoryApp {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryApp)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrTimeout.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestIsLookupFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"not found", ErrElementNotFound.WithDetails(map[string]interface{}{"selector": "id=Email"}), true},
		{"stale", ErrStaleElement, true},
		{"wrapped", fmt.Errorf("tap import: %w", ErrElementNotFound), true},
		{"timeout with lookup cause", ErrWaitTimeout.WithCause(ErrElementNotFound), false},
		{"text mismatch", ErrTextMismatch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLookupFailure(tt.err); got != tt.want {
				t.Errorf("IsLookupFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTimeoutAndIsAssertion(t *testing.T) {
	timeout := fmt.Errorf("wait: %w", ErrWaitTimeout.WithMessage("Cell data was not connected by FTU app"))
	if !IsTimeout(timeout) {
		t.Error("IsTimeout() should be true for wrapped wait timeout")
	}
	if IsAssertion(timeout) {
		t.Error("IsAssertion() should be false for a timeout")
	}
	if !IsAssertion(ErrConditionNotMet) {
		t.Error("IsAssertion() should be true for condition_not_met")
	}
	if IsAssertion(ErrElementNotFound) {
		t.Error("IsAssertion() should be false for a lookup failure")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want StepStatus
	}{
		{nil, StatusPassed},
		{ErrTextMismatch, StatusFailed},
		{ErrConditionNotMet, StatusFailed},
		{ErrElementNotFound, StatusErrored},
		{ErrWaitTimeout, StatusErrored},
		{errors.New("connection reset"), StatusErrored},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf(nil); got != ErrCategoryNone {
		t.Errorf("CategoryOf(nil) = %s, want none", got)
	}
	if got := CategoryOf(fmt.Errorf("x: %w", ErrAppNotLaunched)); got != ErrCategoryApp {
		t.Errorf("CategoryOf(app) = %s, want app", got)
	}
}
