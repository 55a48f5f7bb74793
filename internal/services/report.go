package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"shopledger/internal/core"
	"shopledger/internal/log"
)

// Report combines the sales of every shop with the expenses into one
// summary. Nothing is cached; every call reads the stores.
type Report struct {
	sales    []*SalesLedger
	expenses *ExpenseLedger
	logger   *log.Logger
}

func NewReport(sales []*SalesLedger, expenses *ExpenseLedger, logger *log.Logger) *Report {
	if logger == nil {
		logger = log.Discard()
	}
	return &Report{
		sales:    sales,
		expenses: expenses,
		logger:   logger.WithComponent(log.ComponentReport),
	}
}

// GrandTotal computes per-shop and overall totals for r. The per-shop sums
// run concurrently; the first failure cancels the rest.
func (rp *Report) GrandTotal(ctx context.Context, r core.DateRange) (core.Summary, error) {
	perSales := make([]core.ShopAmount, len(rp.sales))
	perExpenses := make([]core.ShopAmount, len(rp.sales))
	var totalExpenses decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range rp.sales {
		g.Go(func() error {
			amount, err := l.TotalFor(gctx, r)
			if err != nil {
				return err
			}
			perSales[i] = core.ShopAmount{Shop: l.Shop(), Amount: amount}
			return nil
		})
		g.Go(func() error {
			amount, err := rp.expenses.TotalFor(gctx, core.ExpenseFilter{Range: r, Shop: l.Shop()})
			if err != nil {
				return err
			}
			perExpenses[i] = core.ShopAmount{Shop: l.Shop(), Amount: amount}
			return nil
		})
	}
	g.Go(func() error {
		amount, err := rp.expenses.TotalFor(gctx, core.ExpenseFilter{Range: r})
		if err != nil {
			return err
		}
		totalExpenses = amount
		return nil
	})
	if err := g.Wait(); err != nil {
		rp.logger.ErrorContext(ctx, "Report failed", log.NewFields().WithOperation(log.OpSum).WithError(err).ToSlice()...)
		return core.Summary{}, fmt.Errorf("grand total: %w", err)
	}

	totalSales := decimal.Zero
	for _, s := range perSales {
		totalSales = totalSales.Add(s.Amount)
	}

	summary := core.Summary{
		Range:           r,
		PerShopSales:    perSales,
		PerShopExpenses: perExpenses,
		TotalSales:      totalSales,
		TotalExpenses:   totalExpenses,
		GrandTotal:      totalSales.Sub(totalExpenses),
	}
	from, to := r.Bounds()
	fields := log.NewFields().WithRange(from, to)
	fields[log.FieldTotal] = summary.GrandTotal.String()
	rp.logger.DebugContext(ctx, "Report computed", fields.ToSlice()...)
	return summary, nil
}
