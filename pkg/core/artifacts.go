// Package core provides the execution model types for gaiatest.
package core

import (
	"strings"
)

// Attachment represents a debug artifact captured during a scenario attempt
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, page_source, log
	ContentType string `json:"contentType"` // MIME type: image/png, application/json, text/plain
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentPageSource = "page_source"
	AttachmentDeviceLog  = "device_log"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewPageSourceAttachment creates a DOM snapshot attachment
func NewPageSourceAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentPageSource,
		ContentType: ContentTypeHTML,
		Path:        path,
		Body:        data,
	}
}

// NewDeviceLogAttachment creates a device log attachment from log lines
func NewDeviceLogAttachment(path string, lines []string) Attachment {
	body := strings.Join(lines, "\n")
	if body != "" {
		body += "\n"
	}
	return Attachment{
		Name:        AttachmentDeviceLog,
		ContentType: ContentTypeText,
		Path:        path,
		Body:        []byte(body),
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	// When to capture
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
	CaptureOnTimeout bool `yaml:"captureOnTimeout" json:"captureOnTimeout"` // Default: true

	// What to capture
	Screenshot bool `yaml:"screenshot" json:"screenshot"` // Default: true
	PageSource bool `yaml:"pageSource" json:"pageSource"` // Default: true
	DeviceLogs bool `yaml:"deviceLogs" json:"deviceLogs"` // Default: false (verbose)
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		CaptureOnTimeout: true,
		Screenshot:       true,
		PageSource:       true,
		DeviceLogs:       false,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// ShouldCaptureTimeout returns true if artifacts should be captured on timeout
func (c ArtifactConfig) ShouldCaptureTimeout() bool {
	return c.CaptureOnTimeout
}

// ShouldCaptureFor decides capture from the error a scenario returned.
// Timeouts follow CaptureOnTimeout; everything else follows its status.
func (c ArtifactConfig) ShouldCaptureFor(err error) bool {
	if IsTimeout(err) {
		return c.CaptureOnTimeout
	}
	return c.ShouldCapture(Classify(err))
}
