package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateHTML(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestReport(t, tmpDir, finishedIndex())

	if err := GenerateHTML(tmpDir, HTMLConfig{Title: "Nightly"}); err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "report.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{
		"<title>Nightly</title>",
		"inter_app_comm",
		"sms_create_new_contact",
		"Test Contact",
		"emulator-5554",
		`class="status errored"`,
		"attempt-2-screenshot.png",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report.html missing %q", want)
		}
	}
	if strings.Contains(html, `http-equiv="refresh"`) {
		t.Error("finished run should not auto-refresh")
	}
}

func TestGenerateHTMLEmbedsScreenshots(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestReport(t, tmpDir, finishedIndex())
	path := filepath.Join(tmpDir, "assets", "scenario-001")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "attempt-2-screenshot.png"), []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(tmpDir, "embedded.html")
	if err := GenerateHTML(tmpDir, HTMLConfig{OutputPath: out, EmbedAssets: true}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "data:image/png;base64,") {
		t.Error("expected embedded screenshot")
	}
}

func TestGenerateHTMLRunningRefreshes(t *testing.T) {
	tmpDir := t.TempDir()
	index := finishedIndex()
	index.Status = StatusRunning
	index.EndTime = nil
	writeTestReport(t, tmpDir, index)

	if err := GenerateHTML(tmpDir, HTMLConfig{}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(tmpDir, "report.html"))
	if !strings.Contains(string(data), `http-equiv="refresh"`) {
		t.Error("running report should auto-refresh")
	}
	if !strings.Contains(string(data), "<title>Gaia Test Report</title>") {
		t.Error("default title not applied")
	}
}

func TestGenerateHTMLReadError(t *testing.T) {
	if err := GenerateHTML(t.TempDir(), HTMLConfig{}); err == nil {
		t.Error("expected error when report.json missing")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms       *int64
		expected string
	}{
		{nil, "-"},
		{ptr(int64(500)), "500ms"},
		{ptr(int64(1500)), "1.5s"},
		{ptr(int64(5000)), "5.0s"},
		{ptr(int64(65000)), "1m 5s"},
		{ptr(int64(120000)), "2m 0s"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.ms)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.ms, result, tt.expected)
		}
	}
}

func ptr(i int64) *int64 {
	return &i
}

func TestLoadAsBase64(t *testing.T) {
	if result := loadAsBase64("/nonexistent/file.png"); result != "" {
		t.Error("expected empty string for non-existent file")
	}

	tmpDir := t.TempDir()
	jpgPath := filepath.Join(tmpDir, "shot.jpg")
	if err := os.WriteFile(jpgPath, []byte{0xFF, 0xD8}, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := loadAsBase64(jpgPath); !strings.HasPrefix(result, "data:image/jpeg;base64,") {
		t.Errorf("loadAsBase64 = %q", result)
	}
}
