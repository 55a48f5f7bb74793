package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/storage"
	"shopledger/internal/validation"
)

// BooksConfig selects the shops and parsing behaviour of a Books.
type BooksConfig struct {
	Shops         []string
	AllShopsLabel string
	StrictDates   bool
	Logger        *log.Logger

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Books is the full ledger set of the business: one sales ledger per shop,
// the expense ledger and the report over both.
type Books struct {
	registry *storage.Registry
	shops    []string
	sales    map[string]*SalesLedger
	expenses *ExpenseLedger
	report   *Report
}

// OpenBooks opens (creating if needed) every table in reg and wires the
// ledgers. Books owns reg and closes it on Close.
func OpenBooks(ctx context.Context, reg *storage.Registry, cfg BooksConfig) (*Books, error) {
	shops := make([]string, 0, len(cfg.Shops))
	for _, s := range cfg.Shops {
		if s = strings.TrimSpace(s); s != "" {
			shops = append(shops, s)
		}
	}
	if len(shops) == 0 {
		return nil, errors.New("open books: no shops configured")
	}

	deps := Deps{
		Validator:   validation.New(shops),
		Logger:      cfg.Logger,
		StrictDates: cfg.StrictDates,
		Now:         cfg.Now,
	}

	b := &Books{
		registry: reg,
		shops:    shops,
		sales:    make(map[string]*SalesLedger, len(shops)),
	}
	ordered := make([]*SalesLedger, 0, len(shops))
	for _, shop := range shops {
		st, err := reg.SalesStore(ctx, shop)
		if err != nil {
			return nil, fmt.Errorf("open sales of %s: %w", shop, err)
		}
		l := NewSalesLedger(shop, st, deps)
		b.sales[shop] = l
		ordered = append(ordered, l)
	}

	st, err := reg.ExpenseStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open expenses: %w", err)
	}
	b.expenses = NewExpenseLedger(st, cfg.AllShopsLabel, deps)
	b.report = NewReport(ordered, b.expenses, cfg.Logger)
	return b, nil
}

// Shops returns the configured shops in configuration order.
func (b *Books) Shops() []string {
	return append([]string(nil), b.shops...)
}

// Sales returns the ledger of shop.
func (b *Books) Sales(shop string) (*SalesLedger, error) {
	l, ok := b.sales[strings.TrimSpace(shop)]
	if !ok {
		return nil, core.Invalid(core.ColShop, fmt.Sprintf("unknown shop %q (known: %s)", shop, strings.Join(b.shops, ", ")))
	}
	return l, nil
}

func (b *Books) Expenses() *ExpenseLedger { return b.expenses }

func (b *Books) Report() *Report { return b.report }

func (b *Books) Close() error {
	return b.registry.Close()
}
