// Package cli provides the command-line interface for gaiatest.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands. Set flags override gaiatest.yaml.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to gaiatest.yaml (default: ./gaiatest.yaml if present)",
		EnvVars: []string{"GAIATEST_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "server-url",
		Usage:   "WebDriver endpoint of the phone's automation server",
		EnvVars: []string{"GAIATEST_SERVER_URL"},
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Session backend (webdriver, agouti)",
		EnvVars: []string{"GAIATEST_DRIVER"},
	},
	&cli.StringFlag{
		Name:    "device",
		Usage:   "adb serial of the phone (forwards the automation port)",
		EnvVars: []string{"ANDROID_SERIAL"},
	},
	&cli.StringFlag{
		Name:    "testvars",
		Usage:   "YAML or JSON file with accounts, networks and phone numbers",
		EnvVars: []string{"GAIATEST_TESTVARS"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Log to stderr at debug level",
		EnvVars: []string{"GAIATEST_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:    "no-ansi",
		Usage:   "Disable ANSI colors",
		EnvVars: []string{"NO_COLOR"},
	},
}

// NewApp builds the gaiatest command tree.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "gaiatest",
		Usage:   "UI tests for the phone's built-in apps",
		Version: Version,
		Description: `gaiatest drives the phone's apps through its WebDriver automation
server and runs end-to-end journeys: contact import, first-time setup,
SMS handling, inter-app messaging and media scanning.

Examples:
  gaiatest list
  gaiatest --testvars testvars.yaml check
  gaiatest --testvars testvars.yaml run sms_notification
  gaiatest --device emulator-5554 run --include-tags ftu --retries 1`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			applyColorSetting(c.Bool("no-ansi"))
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			checkCommand,
			sourceCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
