package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath  string // Path to write the HTML file
	EmbedAssets bool   // Embed screenshots as base64 (makes file larger but portable)
	Title       string // Report title (default: "Gaia Test Report")
	ReportDir   string // Directory containing report.json (needed for asset paths)
}

// GenerateHTML generates an HTML report from the report directory.
func GenerateHTML(reportDir string, cfg HTMLConfig) error {
	index, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = reportDir
	}
	return writeHTML(index, cfg)
}

func writeHTML(index *Index, cfg HTMLConfig) error {
	if cfg.Title == "" {
		cfg.Title = "Gaia Test Report"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(cfg.ReportDir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(index, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return os.WriteFile(cfg.OutputPath, []byte(html), 0o644)
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	GeneratedAt   string
	Index         *Index
	Scenarios     []ScenarioHTMLData
	TotalDuration string
	PassRate      float64
}

// ScenarioHTMLData contains scenario data formatted for HTML.
type ScenarioHTMLData struct {
	ScenarioEntry
	StatusClass string
	DurationStr string
	DurationPct float64
	ErrorText   string
	Screenshots []string // base64 data URLs or relative paths
	PageSources []string // relative paths
	DeviceLogs  []string // relative paths
}

func buildHTMLData(index *Index, cfg HTMLConfig) HTMLData {
	var maxDuration int64
	for _, e := range index.Scenarios {
		if e.Duration != nil && *e.Duration > maxDuration {
			maxDuration = *e.Duration
		}
	}

	scenarios := make([]ScenarioHTMLData, len(index.Scenarios))
	for i, e := range index.Scenarios {
		d := ScenarioHTMLData{
			ScenarioEntry: e,
			StatusClass:   string(e.Status),
			DurationStr:   formatDuration(e.Duration),
		}
		if e.Duration != nil && maxDuration > 0 {
			d.DurationPct = float64(*e.Duration) / float64(maxDuration) * 100
		}
		if e.Error != nil {
			d.ErrorText = *e.Error
		}
		for _, att := range e.Attachments {
			switch att.Name {
			case core.AttachmentScreenshot:
				src := att.Path
				if cfg.EmbedAssets {
					src = loadAsBase64(filepath.Join(cfg.ReportDir, att.Path))
				}
				if src != "" {
					d.Screenshots = append(d.Screenshots, src)
				}
			case core.AttachmentPageSource:
				d.PageSources = append(d.PageSources, att.Path)
			case core.AttachmentDeviceLog:
				d.DeviceLogs = append(d.DeviceLogs, att.Path)
			}
		}
		scenarios[i] = d
	}

	var passRate float64
	if index.Summary.Total > 0 {
		passRate = float64(index.Summary.Passed) / float64(index.Summary.Total) * 100
	}

	var totalDurationMs int64
	if index.EndTime != nil {
		totalDurationMs = index.EndTime.Sub(index.StartTime).Milliseconds()
	}

	return HTMLData{
		Title:         cfg.Title,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Index:         index,
		Scenarios:     scenarios,
		TotalDuration: formatDuration(&totalDurationMs),
		PassRate:      passRate,
	}
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"safeURL": func(s string) template.URL { return template.URL(s) },
}).Parse(htmlTemplate))

func renderHTML(data HTMLData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    {{if eq .Index.Status "running"}}<meta http-equiv="refresh" content="2">{{end}}
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --failed: #ef4444;
            --errored: #f97316;
            --skipped: #eab308;
            --running: #06b6d4;
            --pending: #6b7280;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }
        .header { background: var(--bg-secondary); border-bottom: 1px solid var(--border-color); padding: 16px 24px; }
        .header h1 { font-size: 18px; }
        .meta { font-size: 12px; color: var(--text-muted); }
        .summary { display: flex; gap: 24px; margin-top: 12px; font-size: 14px; }
        .summary b { font-size: 20px; display: block; }
        table { width: 100%; border-collapse: collapse; font-size: 14px; }
        th, td { text-align: left; padding: 8px 24px; border-bottom: 1px solid var(--border-color); vertical-align: top; }
        .status { font-weight: 600; text-transform: uppercase; font-size: 12px; }
        .passed { color: var(--passed); }
        .failed { color: var(--failed); }
        .errored { color: var(--errored); }
        .skipped { color: var(--skipped); }
        .running { color: var(--running); }
        .pending { color: var(--pending); }
        .bar { height: 4px; background: var(--running); border-radius: 2px; }
        .error { font-family: monospace; font-size: 12px; white-space: pre-wrap; color: var(--failed); }
        .tag { font-size: 11px; color: var(--text-muted); margin-right: 6px; }
        .shot { max-height: 240px; margin-top: 8px; border: 1px solid var(--border-color); }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="meta">
            Run {{.Index.RunID}} &middot; {{.Index.Runner.Driver}} {{.Index.Runner.ServerURL}}
            {{with .Index.Device.Serial}}&middot; device {{.}}{{end}}
            {{with .Index.Device.Build}}&middot; build {{.}}{{end}}
            &middot; generated {{.GeneratedAt}}
        </div>
        <div class="summary">
            <div><b class="{{.Index.Status}}">{{.Index.Status}}</b>status</div>
            <div><b>{{.Index.Summary.Total}}</b>total</div>
            <div><b class="passed">{{.Index.Summary.Passed}}</b>passed</div>
            <div><b class="failed">{{.Index.Summary.Failed}}</b>failed</div>
            <div><b class="errored">{{.Index.Summary.Errored}}</b>errored</div>
            <div><b class="skipped">{{.Index.Summary.Skipped}}</b>skipped</div>
            <div><b>{{printf "%.0f" .PassRate}}%</b>pass rate</div>
            <div><b>{{.TotalDuration}}</b>duration</div>
        </div>
    </div>
    <table>
        <thead>
            <tr><th>Scenario</th><th>Status</th><th>Duration</th><th>Attempts</th></tr>
        </thead>
        <tbody>
        {{range .Scenarios}}
            <tr id="{{.ID}}">
                <td>
                    <div>{{.Name}}</div>
                    {{with .Description}}<div class="meta">{{.}}</div>{{end}}
                    <div>{{range .Tags}}<span class="tag">#{{.}}</span>{{end}}</div>
                    {{with .ErrorText}}<div class="error">{{.}}</div>{{end}}
                    {{range .Screenshots}}<img class="shot" src="{{safeURL .}}" alt="screenshot">{{end}}
                    {{range .PageSources}}<div><a href="{{.}}">page source</a></div>{{end}}
                    {{range .DeviceLogs}}<div><a href="{{.}}">device log</a></div>{{end}}
                </td>
                <td class="status {{.StatusClass}}">{{.Status}}{{if .Flaky}} (flaky){{end}}</td>
                <td>{{.DurationStr}}<div class="bar" style="width: {{printf "%.0f" .DurationPct}}%"></div></td>
                <td>{{.Attempts}}</td>
            </tr>
        {{end}}
        </tbody>
    </table>
</body>
</html>
`
