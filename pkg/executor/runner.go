// Package executor runs scenarios against the device and records the results.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
	"github.com/devicelab-dev/gaiatest/pkg/report"
	"github.com/devicelab-dev/gaiatest/pkg/scenario"
)

// SessionFactory opens a fresh automation session. Every attempt of every
// scenario gets its own session.
type SessionFactory func(ctx context.Context) (driver.Session, error)

// EnvFactory wraps a session in a scenario environment.
type EnvFactory func(session driver.Session) *gaia.Env

// DeviceLogFunc returns the device log written since a point in time.
type DeviceLogFunc func(ctx context.Context, since time.Time) ([]string, error)

// RunnerConfig configures the scenario runner.
type RunnerConfig struct {
	OutputDir  string              // Report output directory
	SuiteName  string              // Name recorded in the suite result
	StopOnFail bool                // Skip remaining scenarios after the first failure
	Retries    int                 // Max retries per scenario (0 = no retries)
	Artifacts  core.ArtifactConfig // When and what to capture

	// DeviceLogs reads the device log when Artifacts.DeviceLogs is set.
	DeviceLogs DeviceLogFunc

	// Device info for reports
	Device report.Device

	// Runner metadata
	RunnerVersion string
	DriverName    string
	ServerURL     string

	// Live progress callbacks
	OnScenarioStart func(idx, total int, name string)
	OnRetry         func(name string, attempt int, err string)
	OnScenarioEnd   func(result core.ScenarioResult)
}

// Runner orchestrates scenario execution.
type Runner struct {
	config     RunnerConfig
	newSession SessionFactory
	newEnv     EnvFactory
}

// New creates a new Runner.
func New(newSession SessionFactory, newEnv EnvFactory, cfg RunnerConfig) *Runner {
	if cfg.SuiteName == "" {
		cfg.SuiteName = "gaiatest"
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Runner{
		config:     cfg,
		newSession: newSession,
		newEnv:     newEnv,
	}
}

// Run executes the scenarios in order and writes the report. The returned
// error covers report setup only; scenario failures are in the result.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) (*core.SuiteResult, error) {
	suite := &core.SuiteResult{
		Name:      r.config.SuiteName,
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Scenarios: make([]core.ScenarioResult, 0, len(scenarios)),
	}

	index := report.BuildSkeleton(scenarios, report.BuilderConfig{
		OutputDir:     r.config.OutputDir,
		RunID:         suite.RunID,
		Device:        r.config.Device,
		RunnerVersion: r.config.RunnerVersion,
		DriverName:    r.config.DriverName,
		ServerURL:     r.config.ServerURL,
	})
	if err := report.WriteSkeleton(r.config.OutputDir, index); err != nil {
		return nil, err
	}

	indexWriter := report.NewIndexWriter(r.config.OutputDir, index)
	defer indexWriter.Close()
	indexWriter.Start()

	logger.Info("run %s: %d scenarios", suite.RunID, len(scenarios))

	stopped := ""
	for i, s := range scenarios {
		if stopped == "" && ctx.Err() != nil {
			stopped = "run cancelled"
		}
		if stopped != "" {
			result := skippedResult(s, stopped)
			indexWriter.UpdateScenario(report.ScenarioID(i), report.UpdateFromResult(result))
			suite.Scenarios = append(suite.Scenarios, result)
			continue
		}

		if r.config.OnScenarioStart != nil {
			r.config.OnScenarioStart(i, len(scenarios), s.Name)
		}
		result := r.executeScenario(ctx, i, s, indexWriter)
		suite.Scenarios = append(suite.Scenarios, result)
		if r.config.OnScenarioEnd != nil {
			r.config.OnScenarioEnd(result)
		}

		if r.config.StopOnFail && !result.Status.IsSuccess() {
			stopped = "run stopped after " + s.Name + " " + result.Status.String()
		}
	}

	indexWriter.End()

	suite.Duration = time.Since(suite.StartTime)
	suite.ComputeSummary()
	logger.Info("run %s finished: %d passed, %d failed, %d errored, %d skipped",
		suite.RunID, suite.Passed, suite.Failed, suite.Errored, suite.Skipped)
	return suite, nil
}

// executeScenario runs one scenario with retries.
func (r *Runner) executeScenario(ctx context.Context, idx int, s scenario.Scenario, indexWriter *report.IndexWriter) core.ScenarioResult {
	id := report.ScenarioID(idx)
	start := time.Now()
	indexWriter.UpdateScenario(id, &report.ScenarioUpdate{
		Status:    report.StatusRunning,
		StartTime: &start,
	})

	maxAttempts := r.config.Retries + 1
	var result core.ScenarioResult
	var retryErrors []string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result = r.runAttempt(ctx, id, s, attempt)
		indexWriter.RecordAttempt(id, attempt, report.StatusFromCore(result.Status),
			result.Duration.Milliseconds(), result.Error)

		if result.Status.IsSuccess() || attempt == maxAttempts || !retryable(ctx, result) {
			break
		}

		retryErrors = append(retryErrors, result.Error)
		logger.Warn("%s attempt %d/%d %s: %s", s.Name, attempt, maxAttempts, result.Status, result.Error)
		if r.config.OnRetry != nil {
			r.config.OnRetry(s.Name, attempt, result.Error)
		}
	}

	result.StartTime = start
	result.Duration = time.Since(start)
	result.MaxAttempts = maxAttempts
	result.RetryErrors = retryErrors
	result.Flaky = result.Status.IsSuccess() && result.Attempt > 1

	indexWriter.UpdateScenario(id, report.UpdateFromResult(result))
	return result
}

// retryable reports whether another attempt could change the outcome.
// Configuration problems and cancelled runs fail the same way every time.
func retryable(ctx context.Context, result core.ScenarioResult) bool {
	return ctx.Err() == nil && result.Category != core.ErrCategoryConfig
}

// runAttempt opens a session, runs the scenario once and captures artifacts.
func (r *Runner) runAttempt(ctx context.Context, id string, s scenario.Scenario, attempt int) core.ScenarioResult {
	start := time.Now()

	session, err := r.newSession(ctx)
	if err != nil {
		if _, ok := core.AsExecutionError(err); !ok {
			err = core.ErrServerUnreachable.WithCause(err)
		}
		result := core.NewScenarioResult(s.Name, s.Tags, start, err)
		result.Attempt = attempt
		return result
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("close session for %s: %v", s.Name, cerr)
		}
	}()

	logger.Info("%s: attempt %d", s.Name, attempt)
	err = s.Execute(ctx, r.newEnv(session))

	result := core.NewScenarioResult(s.Name, s.Tags, start, err)
	result.Attempt = attempt
	if err != nil {
		logger.Error("%s: %v", s.Name, err)
	}
	if r.config.Artifacts.ShouldCaptureFor(err) {
		result.Attachments = r.captureArtifacts(ctx, id, attempt, start, session)
	}
	return result
}

// captureArtifacts saves a screenshot, the current frame's DOM and the device
// log of the attempt. Capture failures are logged and never change the
// scenario outcome.
func (r *Runner) captureArtifacts(ctx context.Context, id string, attempt int, start time.Time, session driver.Session) []core.Attachment {
	var attachments []core.Attachment

	save := func(att core.Attachment) {
		saved, err := report.SaveAttachment(r.config.OutputDir, id, attempt, att)
		if err != nil {
			logger.Warn("save %s for %s: %v", att.Name, id, err)
			return
		}
		saved.Body = nil
		attachments = append(attachments, saved)
	}

	if r.config.Artifacts.Screenshot {
		if data, err := session.Screenshot(); err != nil {
			logger.Warn("screenshot for %s: %v", id, err)
		} else {
			save(core.NewScreenshotAttachment("", data))
		}
	}
	if r.config.Artifacts.PageSource {
		if src, err := session.PageSource(); err != nil {
			logger.Warn("page source for %s: %v", id, err)
		} else {
			save(core.NewPageSourceAttachment("", []byte(src)))
		}
	}
	if r.config.Artifacts.DeviceLogs && r.config.DeviceLogs != nil {
		if lines, err := r.config.DeviceLogs(ctx, start); err != nil {
			logger.Warn("device log for %s: %v", id, err)
		} else {
			save(core.NewDeviceLogAttachment("", lines))
		}
	}
	return attachments
}

func skippedResult(s scenario.Scenario, reason string) core.ScenarioResult {
	return core.ScenarioResult{
		Name:      s.Name,
		Tags:      s.Tags,
		Status:    core.StatusSkipped,
		StartTime: time.Now(),
		Message:   reason,
	}
}
