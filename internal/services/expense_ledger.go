package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/storage"
)

// DefaultAllShopsLabel is the shop filter value meaning "every shop".
const DefaultAllShopsLabel = "All"

var expenseFields = []string{core.ColDate, core.ColShop, core.ColItem, core.ColDescr, core.ColAmount}

// ExpenseLedger records expenses of every shop in one store. Each expense
// carries the shop it belongs to.
type ExpenseLedger struct {
	store    storage.Store
	deps     Deps
	dates    core.DateNormalizer
	allLabel string
}

// NewExpenseLedger creates the ledger. allLabel is the shop filter value that
// lifts the shop restriction; empty means DefaultAllShopsLabel.
func NewExpenseLedger(store storage.Store, allLabel string, deps Deps) *ExpenseLedger {
	deps = deps.withDefaults(log.ComponentExpenses)
	if allLabel == "" {
		allLabel = DefaultAllShopsLabel
	}
	return &ExpenseLedger{
		store:    store,
		deps:     deps,
		dates:    deps.dates(),
		allLabel: allLabel,
	}
}

// AllShopsLabel returns the filter value that matches every shop.
func (l *ExpenseLedger) AllShopsLabel() string { return l.allLabel }

// Add records an expense. The shop must be one of the configured shops.
func (l *ExpenseLedger) Add(ctx context.Context, fields core.Fields) (core.Expense, error) {
	if err := checkFields(fields, expenseFields); err != nil {
		return core.Expense{}, err
	}

	date, err := l.dates.Normalize(fields[core.ColDate])
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := core.NumberOr(core.ColAmount, fields[core.ColAmount], decimal.Zero)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Date:   date,
		Shop:   strings.TrimSpace(fields[core.ColShop]),
		Item:   fields[core.ColItem],
		Descr:  fields[core.ColDescr],
		Amount: amount,
	}
	if err := l.deps.Validator.Struct(e); err != nil {
		return core.Expense{}, err
	}

	id, err := l.store.Create(ctx, expenseRecord(e))
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	e.ID = id

	logMutation(ctx, l.deps.Logger, "Expense added", log.OpCreate, l.store.Schema().Table, id,
		log.FieldShop, e.Shop, log.FieldAmount, e.Amount.String())
	return e, nil
}

// Update changes the given fields of an expense.
func (l *ExpenseLedger) Update(ctx context.Context, id int64, fields core.Fields) (core.Expense, error) {
	if err := checkFields(fields, expenseFields); err != nil {
		return core.Expense{}, err
	}
	if len(fields) == 0 {
		return l.Get(ctx, id)
	}

	changes := storage.Record{}
	if has(fields, core.ColDate) {
		date, err := l.dates.Normalize(fields[core.ColDate])
		if err != nil {
			return core.Expense{}, err
		}
		changes[core.ColDate] = date.Canonical()
	}
	if has(fields, core.ColAmount) {
		amount, err := core.ParseNumber(core.ColAmount, fields[core.ColAmount])
		if err != nil {
			return core.Expense{}, err
		}
		changes[core.ColAmount] = amount
	}
	if has(fields, core.ColShop) {
		changes[core.ColShop] = strings.TrimSpace(fields[core.ColShop])
	}
	for _, col := range []string{core.ColItem, core.ColDescr} {
		if has(fields, col) {
			changes[col] = fields[col]
		}
	}

	var updated core.Expense
	err := l.store.Modify(ctx, id, func(current storage.Record) (storage.Record, error) {
		for k, v := range changes {
			current[k] = v
		}
		updated = expenseFromRecord(current)
		if err := l.deps.Validator.Struct(updated); err != nil {
			return nil, err
		}
		return changes, nil
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	logMutation(ctx, l.deps.Logger, "Expense updated", log.OpUpdate, l.store.Schema().Table, id,
		log.FieldFields, len(fields))
	return updated, nil
}

// UpdateField edits one cell of an expense from its text.
func (l *ExpenseLedger) UpdateField(ctx context.Context, id int64, column, text string) (core.Expense, error) {
	if err := editable(expenseFields, column); err != nil {
		return core.Expense{}, err
	}
	return l.Update(ctx, id, core.Fields{column: text})
}

func (l *ExpenseLedger) Delete(ctx context.Context, id int64) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	logMutation(ctx, l.deps.Logger, "Expense deleted", log.OpDelete, l.store.Schema().Table, id)
	return nil
}

func (l *ExpenseLedger) Get(ctx context.Context, id int64) (core.Expense, error) {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return expenseFromRecord(rec), nil
}

// List returns the matching expenses, newest first and by id within a day.
func (l *ExpenseLedger) List(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	q, err := l.query(f)
	if err != nil {
		return nil, err
	}
	q.Order = storage.DateDesc
	rows, err := l.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, rec := range rows {
		out = append(out, expenseFromRecord(rec))
	}
	return out, nil
}

// TotalFor sums the amounts of the matching expenses.
func (l *ExpenseLedger) TotalFor(ctx context.Context, f core.ExpenseFilter) (decimal.Decimal, error) {
	q, err := l.query(f)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := l.store.Sum(ctx, core.ColAmount, q)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total expenses: %w", err)
	}
	return total, nil
}

// query maps a filter onto the store. A shop filter must name a configured
// shop or the all-shops label.
func (l *ExpenseLedger) query(f core.ExpenseFilter) (storage.Query, error) {
	q := storage.RangeQuery(f.Range)
	shop := strings.TrimSpace(f.Shop)
	if shop == "" || shop == l.allLabel {
		return q, nil
	}
	if !l.deps.Validator.KnownShop(shop) {
		return q, core.Invalid(core.ColShop, fmt.Sprintf("unknown shop %q", shop))
	}
	q.Where = map[string]any{core.ColShop: shop}
	return q, nil
}

func expenseRecord(e core.Expense) storage.Record {
	return storage.Record{
		core.ColDate:   e.Date.Canonical(),
		core.ColShop:   e.Shop,
		core.ColItem:   e.Item,
		core.ColDescr:  e.Descr,
		core.ColAmount: e.Amount,
	}
}

func expenseFromRecord(rec storage.Record) core.Expense {
	date, _ := core.ParseCanonical(rec.Text(core.ColDate))
	return core.Expense{
		ID:     rec.ID(),
		Date:   date,
		Shop:   rec.Text(core.ColShop),
		Item:   rec.Text(core.ColItem),
		Descr:  rec.Text(core.ColDescr),
		Amount: rec.Decimal(core.ColAmount),
	}
}
