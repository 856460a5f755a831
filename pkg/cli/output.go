package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/devicelab-dev/gaiatest/pkg/core"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// applyColorSetting turns colors off for --no-ansi. fatih/color already
// honours NO_COLOR and non-terminal stdout.
func applyColorSetting(noANSI bool) {
	if noANSI {
		color.NoColor = true
	}
}

func statusSymbol(s core.StepStatus) string {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return green("✓")
	case core.StatusFailed:
		return red("✗")
	case core.StatusErrored:
		return red("!")
	case core.StatusSkipped:
		return yellow("-")
	default:
		return gray("?")
	}
}

func statusText(s core.StepStatus) string {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return green(s.String())
	case core.StatusFailed, core.StatusErrored:
		return red(s.String())
	case core.StatusSkipped:
		return yellow(s.String())
	default:
		return s.String()
	}
}

// progress prints live scenario progress.
type progress struct {
	w io.Writer
}

func (p progress) scenarioStart(idx, total int, name string) {
	fmt.Fprintf(p.w, "%s %s\n", gray(fmt.Sprintf("[%d/%d]", idx+1, total)), bold(name))
}

func (p progress) retry(name string, attempt int, errMsg string) {
	fmt.Fprintf(p.w, "  %s attempt %d failed: %s\n", yellow("↻"), attempt, errMsg)
}

func (p progress) scenarioEnd(r core.ScenarioResult) {
	line := fmt.Sprintf("  %s %s %s", statusSymbol(r.Status), statusText(r.Status), gray(formatDuration(r.Duration)))
	if r.Flaky {
		line += " " + yellow("(flaky)")
	}
	fmt.Fprintln(p.w, line)
	if r.Error != "" {
		fmt.Fprintf(p.w, "    %s\n", red(r.Error))
	}
}

// printSummary prints the per-scenario table and the totals line.
func printSummary(w io.Writer, suite *core.SuiteResult, outputDir string) {
	fmt.Fprintln(w)

	table := newTable(w, []string{"Scenario", "Status", "Attempts", "Duration", "Error"})
	for _, r := range suite.Scenarios {
		attempts := "-"
		if r.Attempt > 0 {
			attempts = fmt.Sprintf("%d/%d", r.Attempt, r.MaxAttempts)
		}
		msg := r.Error
		if msg == "" {
			msg = r.Message
		}
		table.Append([]string{r.Name, statusText(r.Status), attempts, formatDuration(r.Duration), truncate(msg, 60)})
	}
	table.Render()

	fmt.Fprintln(w)
	parts := []string{
		fmt.Sprintf("%d scenarios", suite.Total),
		green(fmt.Sprintf("%d passed", suite.Passed)),
	}
	if suite.Failed > 0 {
		parts = append(parts, red(fmt.Sprintf("%d failed", suite.Failed)))
	}
	if suite.Errored > 0 {
		parts = append(parts, red(fmt.Sprintf("%d errored", suite.Errored)))
	}
	if suite.Skipped > 0 {
		parts = append(parts, yellow(fmt.Sprintf("%d skipped", suite.Skipped)))
	}
	if suite.Flaky > 0 {
		parts = append(parts, yellow(fmt.Sprintf("%d flaky", suite.Flaky)))
	}
	fmt.Fprintf(w, "%s in %s\n", strings.Join(parts, ", "), formatDuration(suite.Duration))
	fmt.Fprintf(w, "Report: %s\n", cyan(outputDir))
}

// newTable returns a borderless left-aligned table.
func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
