package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"debtplan/internal/cli"
	"debtplan/internal/core"
)

func newTypesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the loan type catalogue and default rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := core.LoanTypes()
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), types)
			}
			rows := make([][]string, 0, len(types))
			for _, t := range types {
				rows = append(rows, []string{t.Name, cli.FormatRate(t.DefaultRate)})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Title:   "Loan Types",
				Headers: []string{"Type", "Default rate"},
				Rows:    rows,
			}))
			return nil
		},
	}
}
