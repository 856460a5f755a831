package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/gaiatest/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
	Flaky   bool   `json:"flaky,omitempty"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// AllureExecutor holds executor branding info.
type AllureExecutor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ReportURL  string `json:"reportUrl"`
	ReportName string `json:"reportName"`
}

// GenerateAllure generates Allure-compatible report files in <reportDir>/allure-results/.
func GenerateAllure(reportDir string) error {
	index, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, "allure-results")
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	// One result file per scenario
	for i := range index.Scenarios {
		entry := &index.Scenarios[i]
		result := buildAllureResult(entry, index)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", entry.ID, err)
		}

		resultPath := filepath.Join(allureDir, allureUUID(index, entry)+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", entry.ID, err)
		}

		copyAllureAttachments(reportDir, allureDir, entry)
	}

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	if err := writeAllureEnvironment(allureDir, index); err != nil {
		return err
	}
	return writeAllureExecutor(allureDir)
}

// allureUUID keeps results from different runs apart in one results dir.
func allureUUID(index *Index, entry *ScenarioEntry) string {
	if index.RunID == "" {
		return entry.ID
	}
	return index.RunID + "-" + entry.ID
}

// buildAllureResult builds an AllureResult from a scenario entry.
func buildAllureResult(entry *ScenarioEntry, index *Index) AllureResult {
	var startMs, stopMs int64
	if entry.StartTime != nil {
		startMs = entry.StartTime.UnixMilli()
	}
	if entry.EndTime != nil {
		stopMs = entry.EndTime.UnixMilli()
	} else if entry.StartTime != nil && entry.Duration != nil {
		stopMs = startMs + *entry.Duration
	}

	suite := "gaia"
	if len(entry.Tags) > 0 {
		suite = entry.Tags[0]
	}
	labels := []AllureLabel{
		{Name: "suite", Value: suite},
		{Name: "parentSuite", Value: "gaiatest"},
		{Name: "framework", Value: "gaiatest"},
		{Name: "severity", Value: "normal"},
	}
	if index.Device.Model != "" {
		labels = append(labels, AllureLabel{Name: "host", Value: index.Device.Model})
	}
	if index.Device.Serial != "" {
		labels = append(labels, AllureLabel{Name: "thread", Value: index.Device.Serial})
	}
	for _, tag := range entry.Tags {
		labels = append(labels, AllureLabel{Name: "tag", Value: tag})
	}

	var details AllureStatusDetails
	if entry.Error != nil {
		details.Message = *entry.Error
	}
	details.Flaky = entry.Flaky

	return AllureResult{
		UUID:          allureUUID(index, entry),
		HistoryID:     fnv32aHash("gaiatest:" + entry.Name),
		FullName:      "gaiatest." + entry.Name,
		Name:          entry.Name,
		Description:   entry.Description,
		Status:        mapAllureStatus(entry.Status),
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		Labels:        labels,
		StatusDetails: details,
		Steps:         buildAllureSteps(entry, startMs),
		Attachments:   buildAllureAttachments(entry),
	}
}

// buildAllureSteps turns the attempt history into one step per attempt,
// laid out back to back from the scenario start.
func buildAllureSteps(entry *ScenarioEntry, startMs int64) []AllureStep {
	steps := make([]AllureStep, 0, len(entry.AttemptHistory))
	at := startMs
	for _, a := range entry.AttemptHistory {
		steps = append(steps, AllureStep{
			Name:          fmt.Sprintf("Attempt %d", a.Attempt),
			Status:        mapAllureStatus(a.Status),
			Stage:         "finished",
			StatusDetails: AllureStatusDetails{Message: a.Error},
			Start:         at,
			Stop:          at + a.Duration,
			Steps:         []AllureStep{},
			Attachments:   []AllureAttachment{},
		})
		at += a.Duration
	}
	return steps
}

func buildAllureAttachments(entry *ScenarioEntry) []AllureAttachment {
	attachments := make([]AllureAttachment, 0, len(entry.Attachments))
	for _, att := range entry.Attachments {
		if att.Path == "" {
			continue
		}
		attachments = append(attachments, AllureAttachment{
			Name:   att.Name,
			Source: allureSource(entry, att.Path),
			Type:   att.ContentType,
		})
	}
	return attachments
}

// allureSource flattens an asset path into a name unique across scenarios.
func allureSource(entry *ScenarioEntry, path string) string {
	return entry.ID + "-" + filepath.Base(path)
}

// copyAllureAttachments copies a scenario's assets into allure-results/ flat.
func copyAllureAttachments(reportDir, allureDir string, entry *ScenarioEntry) {
	for _, att := range entry.Attachments {
		if att.Path == "" {
			continue
		}
		copyFile(filepath.Join(reportDir, att.Path), filepath.Join(allureDir, allureSource(entry, att.Path)))
	}
}

// copyFile copies a single file from src to dst, ignoring a missing source.
func copyFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps report Status to Allure status string.
func mapAllureStatus(s Status) string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "broken"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*element not found.*|.*no longer attached.*"},
		{Name: "Text Mismatch", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*expected .*, got .*"},
		{Name: "Timeout", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?i).*timed out.*|.*did not .*"},
		{Name: "Import Status", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*import.*"},
		{Name: "App Launch Failed", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*failed to launch.*|.*not installed.*"},
		{Name: "Connection Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*connect.*|.*session.*|.*script.*"},
		{Name: "Configuration", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*testvars.*|.*configuration.*|.*missing required.*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}

	return nil
}

// writeAllureEnvironment writes environment.properties with device and runner metadata.
func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=gaiatest\n")

	if index.Device.Serial != "" {
		b.WriteString(fmt.Sprintf("device.serial=%s\n", index.Device.Serial))
	}
	if index.Device.Model != "" {
		b.WriteString(fmt.Sprintf("device.model=%s\n", index.Device.Model))
	}
	if index.Device.Build != "" {
		b.WriteString(fmt.Sprintf("device.build=%s\n", index.Device.Build))
	}
	if index.Runner.Version != "" {
		b.WriteString(fmt.Sprintf("runner.version=%s\n", index.Runner.Version))
	}
	if index.Runner.Driver != "" {
		b.WriteString(fmt.Sprintf("runner.driver=%s\n", index.Runner.Driver))
	}
	if index.Runner.ServerURL != "" {
		b.WriteString(fmt.Sprintf("runner.server=%s\n", index.Runner.ServerURL))
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}

	return nil
}

// writeAllureExecutor writes executor.json with DeviceLab branding.
func writeAllureExecutor(allureDir string) error {
	executor := AllureExecutor{
		Name:       "DeviceLab",
		Type:       "devicelab",
		ReportURL:  "https://devicelab.dev",
		ReportName: "Powered by DeviceLab",
	}

	data, err := json.MarshalIndent(executor, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal executor: %w", err)
	}

	path := filepath.Join(allureDir, "executor.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write executor.json: %w", err)
	}

	return nil
}
