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

var (
	saleInputFields    = []string{core.ColDate, core.ColShop, core.ColSellerName, core.ColItem, core.ColQuantity, core.ColPrice}
	saleEditableFields = []string{core.ColSellerName, core.ColItem, core.ColQuantity, core.ColPrice, core.ColDate}

	defaultQuantity = decimal.NewFromInt(1)
)

// SalesLedger records the sale lines of one shop.
type SalesLedger struct {
	shop  string
	store storage.Store
	deps  Deps
	dates core.DateNormalizer
}

// NewSalesLedger binds a ledger to shop. Without a validator or shop set in
// deps, shop is the only known shop.
func NewSalesLedger(shop string, store storage.Store, deps Deps) *SalesLedger {
	if deps.Validator == nil && len(deps.Shops) == 0 {
		deps.Shops = []string{shop}
	}
	deps = deps.withDefaults(log.ComponentSales)
	deps.Logger = deps.Logger.With(log.FieldShop, shop)
	return &SalesLedger{
		shop:  shop,
		store: store,
		deps:  deps,
		dates: deps.dates(),
	}
}

func (l *SalesLedger) Shop() string { return l.shop }

// Add records a sale line. Missing quantity is 1, missing price is 0, a
// missing date is today and a missing shop is the ledger's own. Any other
// shop is rejected.
func (l *SalesLedger) Add(ctx context.Context, fields core.Fields) (core.Sale, error) {
	if err := checkFields(fields, saleInputFields); err != nil {
		return core.Sale{}, err
	}

	date, err := l.dates.Normalize(fields[core.ColDate])
	if err != nil {
		return core.Sale{}, err
	}
	qty, err := core.NumberOr(core.ColQuantity, fields[core.ColQuantity], defaultQuantity)
	if err != nil {
		return core.Sale{}, err
	}
	price, err := core.NumberOr(core.ColPrice, fields[core.ColPrice], decimal.Zero)
	if err != nil {
		return core.Sale{}, err
	}
	shop, err := l.ownShop(fields[core.ColShop])
	if err != nil {
		return core.Sale{}, err
	}

	sale := core.Sale{
		Date:       date,
		Shop:       shop,
		SellerName: fields[core.ColSellerName],
		Item:       fields[core.ColItem],
		Quantity:   qty,
		Price:      price,
		Total:      qty.Mul(price),
	}
	if err := l.deps.Validator.Struct(sale); err != nil {
		return core.Sale{}, err
	}

	id, err := l.store.Create(ctx, saleRecord(sale))
	if err != nil {
		return core.Sale{}, fmt.Errorf("add sale: %w", err)
	}
	sale.ID = id

	logMutation(ctx, l.deps.Logger, "Sale added", log.OpCreate, l.store.Schema().Table, id,
		log.FieldItem, sale.Item, log.FieldTotal, sale.Total.String())
	return sale, nil
}

// Update changes the given fields of a sale. The total is recomputed from
// the merged quantity and price inside the same storage transaction.
func (l *SalesLedger) Update(ctx context.Context, id int64, fields core.Fields) (core.Sale, error) {
	if err := checkFields(fields, saleInputFields); err != nil {
		return core.Sale{}, err
	}
	if len(fields) == 0 {
		return l.Get(ctx, id)
	}

	changes := storage.Record{}
	if has(fields, core.ColDate) {
		date, err := l.dates.Normalize(fields[core.ColDate])
		if err != nil {
			return core.Sale{}, err
		}
		changes[core.ColDate] = date.Canonical()
	}
	for _, col := range []string{core.ColQuantity, core.ColPrice} {
		if !has(fields, col) {
			continue
		}
		n, err := core.ParseNumber(col, fields[col])
		if err != nil {
			return core.Sale{}, err
		}
		changes[col] = n
	}
	if has(fields, core.ColShop) {
		shop, err := l.ownShop(fields[core.ColShop])
		if err != nil {
			return core.Sale{}, err
		}
		changes[core.ColShop] = shop
	}
	for _, col := range []string{core.ColSellerName, core.ColItem} {
		if has(fields, col) {
			changes[col] = fields[col]
		}
	}

	var updated core.Sale
	err := l.store.Modify(ctx, id, func(current storage.Record) (storage.Record, error) {
		for k, v := range changes {
			current[k] = v
		}
		total := current.Decimal(core.ColQuantity).Mul(current.Decimal(core.ColPrice))
		current[core.ColTotal] = total
		changes[core.ColTotal] = total
		updated = saleFromRecord(current)
		if err := l.deps.Validator.Struct(updated); err != nil {
			return nil, err
		}
		return changes, nil
	})
	if err != nil {
		return core.Sale{}, fmt.Errorf("update sale %d: %w", id, err)
	}

	logMutation(ctx, l.deps.Logger, "Sale updated", log.OpUpdate, l.store.Schema().Table, id,
		log.FieldFields, len(fields), log.FieldTotal, updated.Total.String())
	return updated, nil
}

// UpdateField edits one cell of a sale from its text.
func (l *SalesLedger) UpdateField(ctx context.Context, id int64, column, text string) (core.Sale, error) {
	if err := editable(saleEditableFields, column); err != nil {
		return core.Sale{}, err
	}
	return l.Update(ctx, id, core.Fields{column: text})
}

func (l *SalesLedger) Delete(ctx context.Context, id int64) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}
	logMutation(ctx, l.deps.Logger, "Sale deleted", log.OpDelete, l.store.Schema().Table, id)
	return nil
}

func (l *SalesLedger) Get(ctx context.Context, id int64) (core.Sale, error) {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return core.Sale{}, fmt.Errorf("get sale %d: %w", id, err)
	}
	return saleFromRecord(rec), nil
}

// List returns the sales in r, oldest first and by id within a day.
func (l *SalesLedger) List(ctx context.Context, r core.DateRange) ([]core.Sale, error) {
	rows, err := l.store.List(ctx, storage.RangeQuery(r))
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	out := make([]core.Sale, 0, len(rows))
	for _, rec := range rows {
		out = append(out, saleFromRecord(rec))
	}
	return out, nil
}

// TotalFor sums the line totals in r.
func (l *SalesLedger) TotalFor(ctx context.Context, r core.DateRange) (decimal.Decimal, error) {
	total, err := l.store.Sum(ctx, core.ColTotal, storage.RangeQuery(r))
	if err != nil {
		return decimal.Zero, fmt.Errorf("total sales of %s: %w", l.shop, err)
	}
	return total, nil
}

// ownShop resolves the shop of a sale line: blank is the ledger's shop and
// anything else must name it.
func (l *SalesLedger) ownShop(text string) (string, error) {
	shop := strings.TrimSpace(text)
	if shop == "" || shop == l.shop {
		return l.shop, nil
	}
	return "", core.Invalid(core.ColShop, fmt.Sprintf("sales of %q cannot be recorded for shop %q", l.shop, shop))
}

func saleRecord(s core.Sale) storage.Record {
	return storage.Record{
		core.ColDate:       s.Date.Canonical(),
		core.ColShop:       s.Shop,
		core.ColSellerName: s.SellerName,
		core.ColItem:       s.Item,
		core.ColQuantity:   s.Quantity,
		core.ColPrice:      s.Price,
		core.ColTotal:      s.Total,
	}
}

func saleFromRecord(rec storage.Record) core.Sale {
	date, _ := core.ParseCanonical(rec.Text(core.ColDate))
	return core.Sale{
		ID:         rec.ID(),
		Date:       date,
		Shop:       rec.Text(core.ColShop),
		SellerName: rec.Text(core.ColSellerName),
		Item:       rec.Text(core.ColItem),
		Quantity:   rec.Decimal(core.ColQuantity),
		Price:      rec.Decimal(core.ColPrice),
		Total:      rec.Decimal(core.ColTotal),
	}
}
