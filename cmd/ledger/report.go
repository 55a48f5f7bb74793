package main

import (
	"time"

	"github.com/spf13/cobra"
)

func (a *app) reportCmd() *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show sales, expenses and the grand total",
		Long: `Report sums the sales of every shop and the expenses over a date range.
The grand total is total sales minus total expenses.`,
		Example: `  ledger report --period month
  ledger report --from 01.06.2024 --to 30.06.2024 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rf.resolve(time.Now())
			if err != nil {
				return err
			}
			summary, err := a.books.Report().GrandTotal(a.ctx, r)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, summary)
			}
			return printSummary(a.stdout, summary)
		},
	}
	rf.register(cmd)
	return cmd
}
