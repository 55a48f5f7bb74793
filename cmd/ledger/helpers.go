// Shared helpers for ledger CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"shopledger/internal/core"
)

// fieldFlag binds a command flag to a record column.
type fieldFlag struct {
	flag   string
	column string
	usage  string
}

// addFieldFlags registers one string flag per field.
func addFieldFlags(cmd *cobra.Command, flags []fieldFlag) {
	for _, f := range flags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// collectFields returns the fields whose flags were set on the command line.
// A flag set to the empty string is kept: it clears the column.
func collectFields(cmd *cobra.Command, flags []fieldFlag) core.Fields {
	fields := core.Fields{}
	for _, f := range flags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.flag)
		fields[f.column] = v
	}
	return fields
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(core.ColID, fmt.Sprintf("expected a positive integer, got %q", s))
	}
	return id, nil
}

// rangeFlags are the date filter flags shared by list, total and report.
type rangeFlags struct {
	from   string
	to     string
	period string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day, inclusive (DD.MM.YYYY)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, inclusive (DD.MM.YYYY)")
	cmd.Flags().StringVar(&f.period, "period", "", "preset range: today, week, month or all")
}

// resolve turns the flags into a range. --from and --to override the
// matching bound of --period.
func (f rangeFlags) resolve(now time.Time) (core.DateRange, error) {
	r, err := core.PeriodRange(strings.ToLower(strings.TrimSpace(f.period)), now)
	if err != nil {
		return core.AllTime, err
	}
	if f.from != "" {
		d, err := core.ParseDate(f.from)
		if err != nil {
			return core.AllTime, err
		}
		r.From = d
	}
	if f.to != "" {
		d, err := core.ParseDate(f.to)
		if err != nil {
			return core.AllTime, err
		}
		r.To = d
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From.Time) {
		return core.AllTime, core.Invalid("to", "range ends before it starts")
	}
	return r, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printSales(w io.Writer, sales []core.Sale) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSHOP\tSELLER\tITEM\tQTY\tPRICE\tTOTAL")
	for _, s := range sales {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Date.Display(), s.Shop, s.SellerName, s.Item,
			s.Quantity.String(), s.Price.StringFixed(2), s.Total.StringFixed(2))
	}
	return tw.Flush()
}

func printExpenses(w io.Writer, expenses []core.Expense) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSHOP\tITEM\tDESCRIPTION\tAMOUNT")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date.Display(), e.Shop, e.Item, e.Descr, e.Amount.StringFixed(2))
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s core.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Range\t%s\n", displayRange(s.Range))
	fmt.Fprintln(tw, "SHOP\tSALES\tEXPENSES")
	for _, a := range s.PerShopSales {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Shop, a.Amount.StringFixed(2), s.ExpensesFor(a.Shop).StringFixed(2))
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\n", s.TotalSales.StringFixed(2), s.TotalExpenses.StringFixed(2))
	fmt.Fprintf(tw, "Grand total\t%s\t\n", s.GrandTotal.StringFixed(2))
	return tw.Flush()
}

type totalOutput struct {
	Scope string          `json:"scope"`
	From  string          `json:"from,omitempty"`
	To    string          `json:"to,omitempty"`
	Total decimal.Decimal `json:"total"`
}

func (a *app) printTotal(scope string, r core.DateRange, total decimal.Decimal) error {
	if a.jsonOut {
		out := totalOutput{Scope: scope, Total: total}
		out.From, out.To = r.DisplayBounds()
		return printJSON(a.stdout, out)
	}
	_, err := fmt.Fprintf(a.stdout, "%s %s: %s\n", scope, displayRange(r), total.StringFixed(2))
	return err
}

func displayRange(r core.DateRange) string {
	from, to := r.DisplayBounds()
	if from == "" {
		from = "..."
	}
	if to == "" {
		to = "..."
	}
	return from + " - " + to
}
