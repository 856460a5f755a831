package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/gaiatest/pkg/config"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

func TestResolveOutputDir_NoOutput(t *testing.T) {
	dir, err := resolveOutputDir("", false, "reports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(dir, "reports"+string(filepath.Separator)) {
		t.Errorf("expected reports/<timestamp>, got %s", dir)
	}
}

func TestResolveOutputDir_WithOutput(t *testing.T) {
	dir, err := resolveOutputDir("/tmp/out", false, "reports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(dir) != "/tmp/out" {
		t.Errorf("expected /tmp/out/<timestamp>, got %s", dir)
	}
}

func TestResolveOutputDir_Flatten(t *testing.T) {
	dir, err := resolveOutputDir("/tmp/out/", true, "reports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "/tmp/out" {
		t.Errorf("expected /tmp/out, got %s", dir)
	}
}

func TestResolveOutputDir_FlattenWithoutOutput(t *testing.T) {
	if _, err := resolveOutputDir("", true, "reports"); err == nil {
		t.Error("expected error for --flatten without --output")
	}
}

func TestResolveOutputDir_EmptyConfigured(t *testing.T) {
	dir, err := resolveOutputDir("", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(dir, config.DefaultOutputDir) {
		t.Errorf("expected default output dir, got %s", dir)
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	applyColorSetting(true)

	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"gaiatest", "--no-ansi"}, args...))
	return out.String(), err
}

func writeTestVars(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testvars.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestList(t *testing.T) {
	out, err := runApp(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, name := range []string{"import_contacts_from_gmail", "ftu_skip_tour", "sms_notification", "inter_app_comm"} {
		if !strings.Contains(out, name) {
			t.Errorf("list output missing %s:\n%s", name, out)
		}
	}
}

func TestList_FilterByTag(t *testing.T) {
	out, err := runApp(t, "list", "--include-tags", "ftu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "ftu_with_tour") {
		t.Errorf("expected ftu scenarios, got:\n%s", out)
	}
	if strings.Contains(out, "sms_notification") {
		t.Errorf("sms_notification should be filtered out:\n%s", out)
	}
}

func TestCheck_NoRequirements(t *testing.T) {
	out, err := runApp(t, "check", "inter_app_comm")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 scenarios ready") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCheck_MissingTestVars(t *testing.T) {
	out, err := runApp(t, "check", "sms_notification")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "carrier.phone_number") {
		t.Errorf("expected missing key in output:\n%s", out)
	}
}

func TestCheck_WithTestVars(t *testing.T) {
	path := writeTestVars(t, "carrier:\n  phone_number: \"+15551230000\"\n")
	out, err := runApp(t, "--testvars", path, "check", "sms_notification")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
}

func TestCheck_UnknownScenario(t *testing.T) {
	out, err := runApp(t, "check", "does_not_exist")
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	if !strings.Contains(out, "unknown scenario") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLoadSettings_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gaiatest.yaml")
	yaml := "serverUrl: http://phone:4444\nretries: 1\ntimeout: 5s\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	var got *config.Config
	app := &cli.App{
		Flags: GlobalFlags,
		Commands: []*cli.Command{{
			Name:  "settings",
			Flags: runCommand.Flags,
			Action: func(c *cli.Context) error {
				var err error
				got, err = loadSettings(c)
				return err
			},
		}},
	}
	err := app.Run([]string{"gaiatest", "--config", cfgPath, "--driver", "agouti",
		"settings", "--retries", "3", "--include-tags", "sms"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got.ServerURL != "http://phone:4444" {
		t.Errorf("ServerURL = %q, want value from file", got.ServerURL)
	}
	if got.Driver != config.DriverAgouti {
		t.Errorf("Driver = %q, want agouti", got.Driver)
	}
	if got.Retries != 3 {
		t.Errorf("Retries = %d, want 3", got.Retries)
	}
	if got.Timeout.Std() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got.Timeout.Std())
	}
	if len(got.IncludeTags) != 1 || got.IncludeTags[0] != "sms" {
		t.Errorf("IncludeTags = %v", got.IncludeTags)
	}
}

func TestLoadSettings_InvalidDriver(t *testing.T) {
	app := &cli.App{
		Flags:  GlobalFlags,
		Action: func(c *cli.Context) error { _, err := loadSettings(c); return err },
	}
	if err := app.Run([]string{"gaiatest", "--driver", "selenium"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestNewEnvFactory(t *testing.T) {
	cfg := config.Default()
	cfg.Timeout = config.Duration(3 * time.Second)
	cfg.Interval = config.Duration(50 * time.Millisecond)

	env := newEnvFactory(cfg, gaia.TestVars{"a": 1}, nil, "resources")(nil)
	if env.Poller.Timeout != 3*time.Second || env.Poller.Interval != 50*time.Millisecond {
		t.Errorf("poller = %+v", env.Poller)
	}
	if env.Poller.Tolerate == nil {
		t.Error("default poller should tolerate lookup failures")
	}
	if _, ok := env.Vars.Lookup("a"); !ok {
		t.Error("testvars not passed to env")
	}

	cfg.StrictLookups = true
	env = newEnvFactory(cfg, nil, nil, "")(nil)
	if env.Poller.Tolerate != nil {
		t.Error("strictLookups should propagate every condition error")
	}
}

func TestNewSessionFactory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newSessionFactory(config.Default())(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestPrepareDevice_NoDevice(t *testing.T) {
	dev, info, cleanup, err := prepareDevice(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()
	if dev != nil || info.Serial != "" {
		t.Errorf("expected no device, got %v %+v", dev, info)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{125 * time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
