package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/gaiatest/pkg/config"
	"github.com/devicelab-dev/gaiatest/pkg/device"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/driver/agouti"
	"github.com/devicelab-dev/gaiatest/pkg/driver/webdriver"
	"github.com/devicelab-dev/gaiatest/pkg/executor"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
	"github.com/devicelab-dev/gaiatest/pkg/report"
	"github.com/devicelab-dev/gaiatest/pkg/validator"
	"github.com/devicelab-dev/gaiatest/pkg/wait"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run scenarios on the phone",
	ArgsUsage: "[scenario...]",
	Description: `Runs the named scenarios in order, or every scenario when none is named.

Each scenario gets a fresh session and a reset device. Results are written to
report.json and report.html in the output directory as the run progresses.`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory for reports",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Write reports directly into --output without a timestamp subfolder",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Retry a failing scenario up to N times",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining scenarios after the first failure",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Default wait timeout (e.g. 10s)",
		},
		&cli.StringFlag{
			Name:  "resources",
			Usage: "Directory with media files pushed to the SD card",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results/",
		},
	}, selectionFlags...),
	Action: runScenarios,
}

func runScenarios(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	vars, err := loadTestVars(cfg)
	if err != nil {
		return err
	}
	resourceDir := resolveResourceDir(cfg.ResourceDir)

	result := validator.New(cfg.IncludeTags, cfg.ExcludeTags, resourceDir).Validate(scenarioNames(c, cfg), vars)
	if !result.IsValid() {
		printValidationErrors(c.App.ErrWriter, result.Errors)
		return cli.Exit("validation failed", 1)
	}

	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"), cfg.OutputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	initLogging(c.Bool("verbose"), outputDir)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, devInfo, cleanup, err := prepareDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out := progress{w: c.App.Writer}
	runner := executor.New(newSessionFactory(cfg), newEnvFactory(cfg, vars, dev, resourceDir), executor.RunnerConfig{
		OutputDir:       outputDir,
		StopOnFail:      cfg.StopOnFail,
		Retries:         cfg.Retries,
		Artifacts:       cfg.Artifacts,
		DeviceLogs:      deviceLogs(dev),
		Device:          devInfo,
		RunnerVersion:   Version,
		DriverName:      cfg.Driver,
		ServerURL:       cfg.ServerURL,
		OnScenarioStart: out.scenarioStart,
		OnRetry:         out.retry,
		OnScenarioEnd:   out.scenarioEnd,
	})

	suite, err := runner.Run(ctx, result.Scenarios)
	if err != nil {
		return err
	}
	printSummary(c.App.Writer, suite, outputDir)

	if c.Bool("allure") {
		if err := report.GenerateAllure(outputDir); err != nil {
			logger.Warn("allure report: %v", err)
			fmt.Fprintf(c.App.ErrWriter, "Warning: allure report: %v\n", err)
		}
	}

	if !suite.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

// scenarioNames prefers positional arguments over the configured list.
func scenarioNames(c *cli.Context, cfg *config.Config) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return cfg.Scenarios
}

// prepareDevice attaches to the phone over adb when one is configured. A run
// without --device talks to the server URL directly.
func prepareDevice(ctx context.Context, cfg *config.Config) (*device.Device, report.Device, func(), error) {
	noop := func() {}
	if cfg.Device == "" {
		return nil, report.Device{}, noop, nil
	}

	dev, err := device.New(ctx, cfg.Device)
	if err != nil {
		return nil, report.Device{}, noop, err
	}

	if cfg.RestartB2G {
		logger.Info("restarting b2g on %s", dev.Serial())
		if err := dev.RestartB2G(ctx); err != nil {
			return nil, report.Device{}, noop, fmt.Errorf("restart b2g: %w", err)
		}
	}

	port := cfg.MarionettePort
	if err := dev.Forward(ctx, port, port); err != nil {
		return nil, report.Device{}, noop, fmt.Errorf("forward port %d: %w", port, err)
	}
	cleanup := func() {
		if err := dev.RemoveForward(context.Background(), port); err != nil {
			logger.Warn("remove forward %d: %v", port, err)
		}
	}

	info, err := dev.Info(ctx)
	if err != nil {
		logger.Warn("device info: %v", err)
	}
	return dev, report.Device{
		Serial:     info.Serial,
		Model:      info.Model,
		Build:      info.Build,
		IsEmulator: info.IsEmulator,
	}, cleanup, nil
}

// deviceLogs reads logcat when the run is attached to a device.
func deviceLogs(dev *device.Device) executor.DeviceLogFunc {
	if dev == nil {
		return nil
	}
	return dev.Logcat
}

// newSessionFactory opens sessions with the configured backend.
func newSessionFactory(cfg *config.Config) executor.SessionFactory {
	return func(ctx context.Context) (driver.Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch cfg.Driver {
		case config.DriverAgouti:
			s, err := agouti.Open(cfg.ServerURL, cfg.Capabilities)
			if err != nil {
				return nil, err
			}
			if err := s.SetScriptTimeout(cfg.ScriptTimeout.Std()); err != nil {
				s.Close()
				return nil, err
			}
			return s, nil
		default:
			s, err := webdriver.Open(webdriver.Options{
				ServerURL:     cfg.ServerURL,
				Capabilities:  cfg.Capabilities,
				ScriptTimeout: cfg.ScriptTimeout.Std(),
			})
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
}

// newEnvFactory builds each scenario's environment from the run settings.
func newEnvFactory(cfg *config.Config, vars gaia.TestVars, dev *device.Device, resourceDir string) executor.EnvFactory {
	poller := wait.Default().
		WithTimeout(cfg.Timeout.Std()).
		WithInterval(cfg.Interval.Std())
	if cfg.StrictLookups {
		poller = poller.Strict()
	}

	opts := gaia.Options{
		Vars:          vars,
		Poller:        poller,
		ScriptTimeout: cfg.ScriptTimeout.Std(),
		LaunchTimeout: cfg.LaunchTimeout.Std(),
		ResourceDir:   resourceDir,
	}
	if dev != nil {
		opts.Pusher = dev
	}

	return func(session driver.Session) *gaia.Env {
		return gaia.NewEnv(session, opts)
	}
}
