package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/scenario"
)

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	OutputDir     string // Base output directory for reports
	RunID         string // Unique execution ID
	Device        Device // Phone under test
	RunnerVersion string // gaiatest version
	DriverName    string // webdriver, agouti
	ServerURL     string // Automation server
}

// ScenarioID returns the report ID of the scenario at position i.
func ScenarioID(i int) string {
	return fmt.Sprintf("scenario-%03d", i)
}

// BuildSkeleton creates the initial report structure for the selected
// scenarios. Everything starts as pending. Call it after validation and
// before the first scenario runs.
func BuildSkeleton(scenarios []scenario.Scenario, cfg BuilderConfig) *Index {
	now := time.Now()

	index := &Index{
		Version:     Version,
		RunID:       cfg.RunID,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Device:      cfg.Device,
		Runner: RunnerInfo{
			Version:   cfg.RunnerVersion,
			Driver:    cfg.DriverName,
			ServerURL: cfg.ServerURL,
		},
		Summary: Summary{
			Total:   len(scenarios),
			Pending: len(scenarios),
		},
		Scenarios: make([]ScenarioEntry, len(scenarios)),
	}

	for i, s := range scenarios {
		id := ScenarioID(i)
		index.Scenarios[i] = ScenarioEntry{
			Index:       i,
			ID:          id,
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
			AssetsDir:   filepath.Join("assets", id),
			Status:      StatusPending,
		}
	}

	return index
}

// WriteSkeleton writes the initial skeleton to disk: report.json, one assets
// directory per scenario and report.html.
func WriteSkeleton(outputDir string, index *Index) error {
	for _, entry := range index.Scenarios {
		if err := ensureDir(filepath.Join(outputDir, entry.AssetsDir)); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", entry.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := writeHTML(index, HTMLConfig{ReportDir: outputDir}); err != nil {
		return fmt.Errorf("generate html: %w", err)
	}

	return nil
}

// ReadReport loads report.json from a report directory.
func ReadReport(reportDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(reportDir, "report.json"))
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse report.json: %w", err)
	}
	return &index, nil
}

// atomicWriteJSON writes v next to path and renames it into place so
// readers never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
