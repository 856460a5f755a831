package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

var sourceCommand = &cli.Command{
	Name:  "source",
	Usage: "Print the DOM of the system frame or a running app",
	Description: `Opens a session and prints the page source. With --app the app is
launched first and its frame is printed. Useful when writing locators.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "app",
			Usage: "Launch this app (e.g. Contacts) and print its frame",
		},
	},
	Action: printSource,
}

func printSource(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	_, _, cleanup, err := prepareDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	session, err := newSessionFactory(cfg)(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	if name := c.String("app"); name != "" {
		env := newEnvFactory(cfg, gaia.TestVars{}, nil, "")(session)
		if _, err := env.Apps.Launch(ctx, name); err != nil {
			return err
		}
	}

	src, err := session.PageSource()
	if err != nil {
		return fmt.Errorf("page source: %w", err)
	}
	fmt.Fprintln(c.App.Writer, src)
	return nil
}
