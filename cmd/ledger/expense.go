// Expense commands record and query the shared expense table.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shopledger/internal/core"
)

var expenseFieldFlags = []fieldFlag{
	{flag: "date", column: core.ColDate, usage: "expense date (DD.MM.YYYY, default today)"},
	{flag: "shop", column: core.ColShop, usage: "shop the expense belongs to (required on add)"},
	{flag: "item", column: core.ColItem, usage: "short name"},
	{flag: "descr", column: core.ColDescr, usage: "description"},
	{flag: "amount", column: core.ColAmount, usage: "amount (default 0)"},
}

func (a *app) expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and query expenses",
	}

	add := &cobra.Command{
		Use:     "add",
		Short:   "Add an expense",
		Example: `  ledger expense add --shop М1 --date 01.06.2024 --item Rent --amount 50`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.books.Expenses().Add(a.ctx, collectFields(cmd, expenseFieldFlags))
			if err != nil {
				return err
			}
			return a.printExpense("Added", e)
		},
	}
	addFieldFlags(add, expenseFieldFlags)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fields := collectFields(cmd, expenseFieldFlags)
			if len(fields) == 0 {
				return core.Invalid("", "nothing to update: pass at least one field flag")
			}
			e, err := a.books.Expenses().Update(a.ctx, id, fields)
			if err != nil {
				return err
			}
			return a.printExpense("Updated", e)
		},
	}
	addFieldFlags(update, expenseFieldFlags)

	set := &cobra.Command{
		Use:   "set <id> <column> <value>",
		Short: "Edit one cell of an expense",
		Long: `Set replaces one column of an expense with the given text.
Editable columns: date, shop, item, descr, amount.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.books.Expenses().UpdateField(a.ctx, id, args[1], args[2])
			if err != nil {
				return err
			}
			return a.printExpense("Updated", e)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.books.Expenses().Delete(a.ctx, id); err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, map[string]any{"deleted": id})
			}
			_, err = fmt.Fprintf(a.stdout, "Deleted expense %d\n", id)
			return err
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.books.Expenses().Get(a.ctx, id)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, e)
			}
			return printExpenses(a.stdout, []core.Expense{e})
		},
	}

	var (
		listRange rangeFlags
		listShop  string
	)
	list := &cobra.Command{
		Use:     "list",
		Short:   "List expenses, newest first",
		Example: `  ledger expense list --shop М1 --period month`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := listRange.resolve(time.Now())
			if err != nil {
				return err
			}
			expenses, err := a.books.Expenses().List(a.ctx, core.ExpenseFilter{Range: r, Shop: listShop})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, expenses)
			}
			return printExpenses(a.stdout, expenses)
		},
	}
	listRange.register(list)
	list.Flags().StringVar(&listShop, "shop", "", "only this shop (default: all shops)")

	var (
		totalRange rangeFlags
		totalShop  string
	)
	total := &cobra.Command{
		Use:   "total",
		Short: "Sum expense amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := totalRange.resolve(time.Now())
			if err != nil {
				return err
			}
			exp := a.books.Expenses()
			sum, err := exp.TotalFor(a.ctx, core.ExpenseFilter{Range: r, Shop: totalShop})
			if err != nil {
				return err
			}
			scope := totalShop
			if scope == "" {
				scope = exp.AllShopsLabel()
			}
			return a.printTotal("Expenses "+scope, r, sum)
		},
	}
	totalRange.register(total)
	total.Flags().StringVar(&totalShop, "shop", "", "only this shop (default: all shops)")

	cmd.AddCommand(add, update, set, del, get, list, total)
	return cmd
}

func (a *app) printExpense(verb string, e core.Expense) error {
	if a.jsonOut {
		return printJSON(a.stdout, e)
	}
	_, err := fmt.Fprintf(a.stdout, "%s expense %d: %s %s %s %s\n", verb, e.ID,
		e.Date.Display(), e.Shop, e.Item, e.Amount.StringFixed(2))
	return err
}
