package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/logger"
)

// IndexWriter provides thread-safe updates to the report index.
type IndexWriter struct {
	mu        sync.Mutex
	outputDir string
	path      string
	index     *Index

	// Debouncing for progress updates
	pending   map[string]*ScenarioUpdate
	timer     *time.Timer
	immediate chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewIndexWriter creates a new IndexWriter.
func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	w := &IndexWriter{
		outputDir: outputDir,
		path:      filepath.Join(outputDir, "report.json"),
		index:     index,
		pending:   make(map[string]*ScenarioUpdate),
		immediate: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go w.flushLoop()
	return w
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	w.index.LastUpdated = now

	w.flushLocked()
}

// UpdateScenario updates a scenario entry in the index.
// Terminal states flush immediately; progress updates are debounced.
func (w *IndexWriter) UpdateScenario(id string, update *ScenarioUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[id] = update

	if update.Status.IsTerminal() {
		w.flushLocked()
		return
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(100*time.Millisecond, func() {
			w.requestFlush()
		})
	}
}

// End marks the run as complete.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Apply queued updates before deciding the run status.
	w.applyPendingLocked()

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = w.computeRunStatus()

	w.flushLocked()
}

// Close shuts down the IndexWriter and flushes any pending updates.
func (w *IndexWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.flush()
	})
}

// GetIndex returns the current index (for reading).
func (w *IndexWriter) GetIndex() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *IndexWriter) requestFlush() {
	select {
	case w.immediate <- struct{}{}:
	default:
	}
}

// flushLoop handles flush requests from the debounce timer.
func (w *IndexWriter) flushLoop() {
	for {
		select {
		case <-w.immediate:
			w.flush()
		case <-w.done:
			return
		}
	}
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

// flushLocked flushes while holding the lock.
func (w *IndexWriter) flushLocked() {
	w.applyPendingLocked()

	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.computeSummary()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Warn("write %s: %v", w.path, err)
		return
	}

	// Regenerate HTML for live file:// viewing
	if err := writeHTML(w.index, HTMLConfig{ReportDir: w.outputDir}); err != nil {
		logger.Warn("write html report: %v", err)
	}
}

func (w *IndexWriter) applyPendingLocked() {
	for id, update := range w.pending {
		w.applyUpdate(id, update)
	}
	w.pending = make(map[string]*ScenarioUpdate)
}

// applyUpdate applies a ScenarioUpdate to the index.
func (w *IndexWriter) applyUpdate(id string, update *ScenarioUpdate) {
	e := w.entry(id)
	if e == nil {
		logger.Warn("report update for unknown scenario %s", id)
		return
	}
	e.Status = update.Status
	if update.StartTime != nil {
		e.StartTime = update.StartTime
	}
	if update.EndTime != nil {
		e.EndTime = update.EndTime
	}
	if update.Duration != nil {
		e.Duration = update.Duration
	}
	if update.Error != nil {
		e.Error = update.Error
	}
	if update.Category != "" {
		e.Category = update.Category
	}
	if update.Attachments != nil {
		e.Attachments = update.Attachments
	}
	e.Flaky = update.Flaky
	e.UpdateSeq++
	now := time.Now()
	e.LastUpdated = &now
}

func (w *IndexWriter) entry(id string) *ScenarioEntry {
	for i := range w.index.Scenarios {
		if w.index.Scenarios[i].ID == id {
			return &w.index.Scenarios[i]
		}
	}
	return nil
}

// computeSummary calculates summary from scenario statuses.
func (w *IndexWriter) computeSummary() Summary {
	var s Summary
	for _, e := range w.index.Scenarios {
		s.Total++
		switch e.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
		if e.Flaky {
			s.Flaky++
		}
	}
	return s
}

// computeRunStatus determines overall run status from scenarios. Scenarios
// still pending when the run ends were never started (stop on failure) and
// do not keep the run open.
func (w *IndexWriter) computeRunStatus() Status {
	hasFailure := false
	for _, e := range w.index.Scenarios {
		switch e.Status {
		case StatusFailed, StatusErrored:
			hasFailure = true
		case StatusRunning:
			return StatusRunning
		}
	}
	if hasFailure {
		return StatusFailed
	}
	return StatusPassed
}

// RecordAttempt records a finished attempt for a scenario.
func (w *IndexWriter) RecordAttempt(id string, attempt int, status Status, duration int64, errMsg string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.entry(id)
	if e == nil {
		return
	}
	e.Attempts = attempt
	e.AttemptHistory = append(e.AttemptHistory, AttemptEntry{
		Attempt:  attempt,
		Status:   status,
		Duration: duration,
		Error:    errMsg,
	})

	w.flushLocked()
}

// SkipPending marks every scenario that never started as skipped.
func (w *IndexWriter) SkipPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.applyPendingLocked()
	for i := range w.index.Scenarios {
		if w.index.Scenarios[i].Status == StatusPending {
			w.index.Scenarios[i].Status = StatusSkipped
			w.index.Scenarios[i].UpdateSeq++
		}
	}
	w.flushLocked()
}
