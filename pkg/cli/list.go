package cli

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/gaiatest/pkg/scenario"
)

var listCommand = &cli.Command{
	Name:   "list",
	Usage:  "List the available scenarios",
	Flags:  selectionFlags,
	Action: listScenarios,
}

func listScenarios(c *cli.Context) error {
	scenarios := scenario.Filter(scenario.All(), c.StringSlice("include-tags"), c.StringSlice("exclude-tags"))

	table := newTable(c.App.Writer, []string{"Name", "Tags", "Requires", "Description"})
	for _, s := range scenarios {
		table.Append([]string{
			s.Name,
			strings.Join(s.Tags, ","),
			strings.Join(s.Requires, ","),
			s.Description,
		})
	}
	table.Render()
	return nil
}
