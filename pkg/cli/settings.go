package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/gaiatest/pkg/config"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
)

// Flags shared by the commands that select scenarios.
var selectionFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "include-tags",
		Usage: "Only include scenarios with these tags",
	},
	&cli.StringSliceFlag{
		Name:  "exclude-tags",
		Usage: "Exclude scenarios with these tags",
	},
}

// loadSettings reads gaiatest.yaml and applies every flag the user set.
func loadSettings(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("server-url") {
		cfg.ServerURL = c.String("server-url")
	}
	if c.IsSet("driver") {
		cfg.Driver = c.String("driver")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("testvars") {
		cfg.TestVars = c.String("testvars")
	}
	if c.IsSet("include-tags") {
		cfg.IncludeTags = c.StringSlice("include-tags")
	}
	if c.IsSet("exclude-tags") {
		cfg.ExcludeTags = c.StringSlice("exclude-tags")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("stop-on-fail") {
		cfg.StopOnFail = c.Bool("stop-on-fail")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = config.Duration(c.Duration("timeout"))
	}
	if c.IsSet("resources") {
		cfg.ResourceDir = c.String("resources")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadTestVars reads the configured test variables; none configured is an
// empty set and scenarios needing values fail validation.
func loadTestVars(cfg *config.Config) (gaia.TestVars, error) {
	if cfg.TestVars == "" {
		return gaia.TestVars{}, nil
	}
	vars, err := gaia.LoadTestVars(cfg.TestVars)
	if err != nil {
		return nil, fmt.Errorf("failed to load testvars: %w", err)
	}
	return vars, nil
}

// resolveResourceDir falls back to the shared resources directory under
// GAIATEST_HOME when the configured one does not exist.
func resolveResourceDir(dir string) string {
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	shared := config.GetResourcesDir()
	if _, err := os.Stat(shared); err == nil {
		return shared
	}
	return dir
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <configured>/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool, configured string) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = configured
	}
	if baseDir == "" {
		baseDir = config.DefaultOutputDir
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

// initLogging writes the run log into the output directory, or to stderr
// with --verbose.
func initLogging(verbose bool, outputDir string) {
	if verbose {
		if err := logger.InitWriter(os.Stderr, "debug"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logger: %v\n", err)
		}
		return
	}
	if err := logger.Init(filepath.Join(outputDir, "gaiatest.log")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logger: %v\n", err)
	}
}
