package commands

import (
	"fmt"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/plugins"
	"github.com/consol-monitoring/checkplugins/pkg/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all available plugins",
		Run: func(cmd *cobra.Command, _ []string) {
			header := []utils.ASCIITableHeader{
				{Name: "Plugin"},
				{Name: "Description"},
			}
			rows := [][]string{}
			for _, name := range plugins.Names() {
				rows = append(rows, []string{name, plugins.Available[name].Description})
			}
			table, err := utils.ASCIITable(header, rows, true)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to build table: %s\n", err.Error())
				exitCode = int(check.Unknown)

				return
			}
			fmt.Fprint(cmd.OutOrStdout(), table)
		},
	})
}
