// Sale commands record and query the sales of one shop.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shopledger/internal/core"
	"shopledger/internal/services"
)

var saleFieldFlags = []fieldFlag{
	{flag: "date", column: core.ColDate, usage: "sale date (DD.MM.YYYY, default today)"},
	{flag: "seller", column: core.ColSellerName, usage: "seller name"},
	{flag: "item", column: core.ColItem, usage: "item sold"},
	{flag: "qty", column: core.ColQuantity, usage: "quantity (default 1)"},
	{flag: "price", column: core.ColPrice, usage: "unit price (default 0)"},
}

func (a *app) saleCmd() *cobra.Command {
	var shop string
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Record and query sales of one shop",
		Long: `Sale commands work on the sales table of one shop, chosen with --shop
(default: the first configured shop). The line total is always quantity
times price and cannot be set directly.`,
	}
	cmd.PersistentFlags().StringVar(&shop, "shop", "", "shop whose sales to use")

	ledger := func() (*services.SalesLedger, error) {
		if shop == "" {
			shop = a.books.Shops()[0]
		}
		return a.books.Sales(shop)
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a sale line",
		Example: `  ledger sale add --shop М1 --date 01.06.2024 --item Bread --qty 2 --price 3
  ledger sale add --item Tea --price 2,50 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger()
			if err != nil {
				return err
			}
			sale, err := l.Add(a.ctx, collectFields(cmd, saleFieldFlags))
			if err != nil {
				return err
			}
			return a.printSale("Added", sale)
		},
	}
	addFieldFlags(add, saleFieldFlags)

	update := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change fields of a sale line",
		Example: `  ledger sale update 12 --price 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fields := collectFields(cmd, saleFieldFlags)
			if len(fields) == 0 {
				return core.Invalid("", "nothing to update: pass at least one field flag")
			}
			l, err := ledger()
			if err != nil {
				return err
			}
			sale, err := l.Update(a.ctx, id, fields)
			if err != nil {
				return err
			}
			return a.printSale("Updated", sale)
		},
	}
	addFieldFlags(update, saleFieldFlags)

	set := &cobra.Command{
		Use:   "set <id> <column> <value>",
		Short: "Edit one cell of a sale line",
		Long: `Set replaces one column of a sale line with the given text, the way a
table cell is edited. Editable columns: seller_name, item, quantity, price, date.`,
		Example: `  ledger sale set 12 quantity 3`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := ledger()
			if err != nil {
				return err
			}
			sale, err := l.UpdateField(a.ctx, id, args[1], args[2])
			if err != nil {
				return err
			}
			return a.printSale("Updated", sale)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sale line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := ledger()
			if err != nil {
				return err
			}
			if err := l.Delete(a.ctx, id); err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, map[string]any{"deleted": id})
			}
			_, err = fmt.Fprintf(a.stdout, "Deleted sale %d\n", id)
			return err
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a sale line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := ledger()
			if err != nil {
				return err
			}
			sale, err := l.Get(a.ctx, id)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, sale)
			}
			return printSales(a.stdout, []core.Sale{sale})
		},
	}

	var listRange rangeFlags
	list := &cobra.Command{
		Use:     "list",
		Short:   "List sale lines, oldest first",
		Example: `  ledger sale list --shop М2 --period week`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := listRange.resolve(time.Now())
			if err != nil {
				return err
			}
			l, err := ledger()
			if err != nil {
				return err
			}
			sales, err := l.List(a.ctx, r)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, sales)
			}
			return printSales(a.stdout, sales)
		},
	}
	listRange.register(list)

	var totalRange rangeFlags
	total := &cobra.Command{
		Use:   "total",
		Short: "Sum the sale totals of a shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := totalRange.resolve(time.Now())
			if err != nil {
				return err
			}
			l, err := ledger()
			if err != nil {
				return err
			}
			sum, err := l.TotalFor(a.ctx, r)
			if err != nil {
				return err
			}
			return a.printTotal("Sales "+l.Shop(), r, sum)
		},
	}
	totalRange.register(total)

	cmd.AddCommand(add, update, set, del, get, list, total)
	return cmd
}

func (a *app) printSale(verb string, sale core.Sale) error {
	if a.jsonOut {
		return printJSON(a.stdout, sale)
	}
	_, err := fmt.Fprintf(a.stdout, "%s sale %d: %s %s %s x %s = %s\n", verb, sale.ID,
		sale.Date.Display(), sale.Item, sale.Quantity.String(), sale.Price.String(), sale.Total.StringFixed(2))
	return err
}
