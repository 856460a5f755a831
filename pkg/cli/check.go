package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/gaiatest/pkg/validator"
)

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Validate a scenario selection without touching the phone",
	ArgsUsage: "[scenario...]",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "resources",
			Usage: "Directory with media files pushed to the SD card",
		},
	}, selectionFlags...),
	Action: checkScenarios,
}

func checkScenarios(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	vars, err := loadTestVars(cfg)
	if err != nil {
		return err
	}

	result := validator.New(cfg.IncludeTags, cfg.ExcludeTags, resolveResourceDir(cfg.ResourceDir)).
		Validate(scenarioNames(c, cfg), vars)

	for _, s := range result.Scenarios {
		fmt.Fprintf(c.App.Writer, "  %s %s\n", green("✓"), s.Name)
	}
	if !result.IsValid() {
		printValidationErrors(c.App.Writer, result.Errors)
		return errors.New("validation failed")
	}
	fmt.Fprintf(c.App.Writer, "%d scenarios ready\n", len(result.Scenarios))
	return nil
}

func printValidationErrors(w io.Writer, errs []error) {
	fmt.Fprintln(w, red("Validation errors:"))
	for _, err := range errs {
		fmt.Fprintf(w, "  %s %v\n", red("✗"), err)
	}
}
