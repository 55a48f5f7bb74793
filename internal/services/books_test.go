package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/storage"
)

var fixedNow = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y, m, d int) core.DateRange { return core.Day(core.NewDate(y, m, d)) }

// eachBackend runs fn against fresh books over every storage backend.
func eachBackend(t *testing.T, cfg BooksConfig, fn func(t *testing.T, b *Books)) {
	t.Helper()
	if len(cfg.Shops) == 0 {
		cfg.Shops = []string{"A", "B"}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	open := map[string]func(t *testing.T) storage.Backend{
		"memory": func(t *testing.T) storage.Backend { return storage.NewMemoryBackend() },
		"sqlite": func(t *testing.T) storage.Backend {
			b, err := storage.NewSQLiteBackend(filepath.Join(t.TempDir(), "ledger.db"), log.Discard())
			require.NoError(t, err)
			return b
		},
	}
	for name, mk := range open {
		t.Run(name, func(t *testing.T) {
			books, err := OpenBooks(context.Background(), storage.NewRegistry(mk(t)), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { books.Close() })
			fn(t, books)
		})
	}
}

func TestSaleScenario(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, err := b.Sales("A")
		require.NoError(t, err)

		sale, err := sales.Add(ctx, core.Fields{
			core.ColDate: "01.06.2024", core.ColItem: "Bread", core.ColQuantity: "2", core.ColPrice: "3",
		})
		require.NoError(t, err)
		assert.NotZero(t, sale.ID)
		assert.Equal(t, "A", sale.Shop)
		assert.Equal(t, "6", sale.Total.String())

		total, err := sales.TotalFor(ctx, day(2024, 6, 1))
		require.NoError(t, err)
		assert.Equal(t, "6", total.String())

		updated, err := sales.Update(ctx, sale.ID, core.Fields{core.ColPrice: "5"})
		require.NoError(t, err)
		assert.Equal(t, "10", updated.Total.String())
		assert.Equal(t, "2", updated.Quantity.String())

		got, err := sales.Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "10", got.Total.String())
		assert.Equal(t, "5", got.Price.String())
		assert.Equal(t, "01.06.2024", got.Date.Display())
	})
}

func TestGrandTotalScenario(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, err := b.Sales("A")
		require.NoError(t, err)
		_, err = sales.Add(ctx, core.Fields{
			core.ColDate: "01.06.2024", core.ColItem: "Bread", core.ColQuantity: "2", core.ColPrice: "3",
		})
		require.NoError(t, err)
		_, err = b.Expenses().Add(ctx, core.Fields{
			core.ColDate: "01.06.2024", core.ColShop: "A", core.ColItem: "Rent", core.ColAmount: "50",
		})
		require.NoError(t, err)

		summary, err := b.Report().GrandTotal(ctx, day(2024, 6, 1))
		require.NoError(t, err)
		assert.Equal(t, "-44", summary.GrandTotal.String())
		assert.Equal(t, "6", summary.TotalSales.String())
		assert.Equal(t, "50", summary.TotalExpenses.String())
		assert.Equal(t, "6", summary.SalesFor("A").String())
		assert.True(t, summary.SalesFor("B").IsZero())
		assert.Equal(t, "50", summary.ExpensesFor("A").String())
		require.Len(t, summary.PerShopSales, 2)
		assert.Equal(t, "A", summary.PerShopSales[0].Shop)
		assert.Equal(t, "B", summary.PerShopSales[1].Shop)

		empty, err := b.Report().GrandTotal(ctx, day(2024, 6, 2))
		require.NoError(t, err)
		assert.True(t, empty.GrandTotal.IsZero())
	})
}

func TestSalesAddDefaultsAndRejections(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, err := b.Sales("B")
		require.NoError(t, err)

		sale, err := sales.Add(ctx, core.Fields{core.ColItem: "Gum", core.ColPrice: "1,5"})
		require.NoError(t, err)
		assert.Equal(t, "1", sale.Quantity.String())
		assert.Equal(t, "1.5", sale.Total.String())
		assert.Equal(t, core.DateOf(fixedNow), sale.Date, "missing date is today")

		bad := []core.Fields{
			{core.ColItem: ""},
			{core.ColItem: "X", core.ColQuantity: "-1"},
			{core.ColItem: "X", core.ColQuantity: "two"},
			{core.ColItem: "X", core.ColTotal: "9"},
			{core.ColItem: "X", "colour": "red"},
		}
		for _, f := range bad {
			_, err := sales.Add(ctx, f)
			assert.ErrorIs(t, err, core.ErrValidation, "%v", f)
		}

		list, err := sales.List(ctx, core.AllTime)
		require.NoError(t, err)
		assert.Len(t, list, 1, "rejected adds store nothing")
	})
}

func TestSalesUpdateRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("A")
		sale, err := sales.Add(ctx, core.Fields{
			core.ColDate: "03.06.2024", core.ColItem: "Milk", core.ColQuantity: "4", core.ColPrice: "2.5",
		})
		require.NoError(t, err)

		updated, err := sales.UpdateField(ctx, sale.ID, core.ColQuantity, "2")
		require.NoError(t, err)
		assert.Equal(t, "5", updated.Total.String())

		updated, err = sales.Update(ctx, sale.ID, core.Fields{core.ColSellerName: "Olga"})
		require.NoError(t, err)
		assert.Equal(t, "Olga", updated.SellerName)
		assert.Equal(t, "5", updated.Total.String())

		_, err = sales.UpdateField(ctx, sale.ID, core.ColTotal, "100")
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = sales.Update(ctx, sale.ID, core.Fields{core.ColQuantity: "-3"})
		assert.ErrorIs(t, err, core.ErrValidation)

		got, err := sales.Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "2", got.Quantity.String(), "failed update leaves the record unchanged")
		assert.True(t, got.Total.Equal(got.Quantity.Mul(got.Price)))
	})
}

func TestSalesListAndSumAgree(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("A")
		for _, f := range []core.Fields{
			{core.ColDate: "05.06.2024", core.ColItem: "Tea", core.ColQuantity: "3", core.ColPrice: "2"},
			{core.ColDate: "01.06.2024", core.ColItem: "Jam", core.ColQuantity: "1", core.ColPrice: "4.5"},
			{core.ColDate: "2024-06-05", core.ColItem: "Salt", core.ColQuantity: "2", core.ColPrice: "0.5"},
			{core.ColDate: "20.06.2024", core.ColItem: "Cake", core.ColQuantity: "1", core.ColPrice: "12"},
		} {
			_, err := sales.Add(ctx, f)
			require.NoError(t, err)
		}

		r := core.Between(core.NewDate(2024, 6, 1), core.NewDate(2024, 6, 10))
		list, err := sales.List(ctx, r)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"Jam", "Tea", "Salt"}, []string{list[0].Item, list[1].Item, list[2].Item})

		sum := decimal.Zero
		for _, s := range list {
			sum = sum.Add(s.Total)
		}
		total, err := sales.TotalFor(ctx, r)
		require.NoError(t, err)
		assert.True(t, total.Equal(sum))
		assert.Equal(t, "11.5", total.String())

		july := core.Between(core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31))
		for _, price := range []string{"0.123456789012345", "0.765432109876543"} {
			_, err := sales.Add(ctx, core.Fields{core.ColDate: "15.07.2024", core.ColItem: "Long", core.ColPrice: price})
			require.NoError(t, err)
		}
		list, err = sales.List(ctx, july)
		require.NoError(t, err)
		sum = decimal.Zero
		for _, s := range list {
			sum = sum.Add(s.Total)
		}
		total, err = sales.TotalFor(ctx, july)
		require.NoError(t, err)
		assert.Equal(t, sum.String(), total.String())
		assert.Equal(t, "0.888888898888888", total.String())

		other, _ := b.Sales("B")
		zero, err := other.TotalFor(ctx, core.AllTime)
		require.NoError(t, err)
		assert.True(t, zero.IsZero())
	})
}

func TestNumericBounds(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("A")
		bad := []core.Fields{
			{core.ColItem: "X", core.ColPrice: "1e400"},
			{core.ColItem: "X", core.ColPrice: "1e308"},
			{core.ColItem: "X", core.ColPrice: "1e3"},
			{core.ColItem: "X", core.ColPrice: "1000000000"},
			{core.ColItem: "X", core.ColQuantity: "0.1234567890123456"},
			{core.ColItem: "X", core.ColQuantity: "1.23456789", core.ColPrice: "1.23456789"},
		}
		for _, f := range bad {
			_, err := sales.Add(ctx, f)
			assert.ErrorIs(t, err, core.ErrValidation, "%v", f)
		}

		sale, err := sales.Add(ctx, core.Fields{core.ColItem: "Big", core.ColQuantity: "3", core.ColPrice: "999999999.99"})
		require.NoError(t, err)
		_, err = sales.Update(ctx, sale.ID, core.Fields{core.ColPrice: "1e308"})
		assert.ErrorIs(t, err, core.ErrValidation)

		_, err = b.Expenses().Add(ctx, core.Fields{core.ColShop: "A", core.ColAmount: "1e308"})
		assert.ErrorIs(t, err, core.ErrValidation)

		got, err := sales.Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "2999999999.97", got.Total.String())
		summary, err := b.Report().GrandTotal(ctx, core.AllTime)
		require.NoError(t, err)
		assert.Equal(t, "2999999999.97", summary.GrandTotal.String())
	})
}

func TestSalesStayInTheirShop(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("B")
		_, err := sales.Add(ctx, core.Fields{core.ColItem: "Tea", core.ColShop: "A"})
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = sales.Add(ctx, core.Fields{core.ColItem: "Tea", core.ColShop: "Elsewhere"})
		assert.ErrorIs(t, err, core.ErrValidation)

		sale, err := sales.Add(ctx, core.Fields{core.ColItem: "Tea", core.ColShop: " B "})
		require.NoError(t, err)
		assert.Equal(t, "B", sale.Shop)

		_, err = sales.UpdateField(ctx, sale.ID, core.ColSellerName, "Ann")
		require.NoError(t, err)
		_, err = sales.Update(ctx, sale.ID, core.Fields{core.ColShop: "A"})
		assert.ErrorIs(t, err, core.ErrValidation)

		got, err := sales.Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "B", got.Shop)
		list, err := sales.List(ctx, core.AllTime)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestStandaloneLedgers(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	defer backend.Close()

	expStore, err := backend.OpenStore(ctx, storage.ExpensesSchema())
	require.NoError(t, err)
	exp := NewExpenseLedger(expStore, "", Deps{Shops: []string{"A", "B"}, Now: func() time.Time { return fixedNow }})
	e, err := exp.Add(ctx, core.Fields{core.ColShop: "B", core.ColAmount: "4"})
	require.NoError(t, err)
	assert.Equal(t, core.DateOf(fixedNow), e.Date)
	_, err = exp.Add(ctx, core.Fields{core.ColShop: "C"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, DefaultAllShopsLabel, exp.AllShopsLabel())

	salesStore, err := backend.OpenStore(ctx, storage.SalesSchema("A"))
	require.NoError(t, err)
	sales := NewSalesLedger("A", salesStore, Deps{})
	sale, err := sales.Add(ctx, core.Fields{core.ColItem: "Tea", core.ColShop: "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", sale.Shop)
	_, err = sales.Add(ctx, core.Fields{core.ColItem: "Tea", core.ColShop: "B"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("A")
		sale, err := sales.Add(ctx, core.Fields{core.ColItem: "Pen"})
		require.NoError(t, err)

		require.NoError(t, sales.Delete(ctx, sale.ID))
		assert.ErrorIs(t, sales.Delete(ctx, sale.ID), core.ErrNotFound)
		_, err = sales.Get(ctx, sale.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = sales.Update(ctx, sale.ID, core.Fields{core.ColPrice: "1"})
		assert.ErrorIs(t, err, core.ErrNotFound)

		assert.ErrorIs(t, b.Expenses().Delete(ctx, 424242), core.ErrNotFound)
		_, err = b.Expenses().Get(ctx, 424242)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestExpenseLedger(t *testing.T) {
	ctx := context.Background()
	eachBackend(t, BooksConfig{AllShopsLabel: "Всі"}, func(t *testing.T, b *Books) {
		exp := b.Expenses()
		for _, f := range []core.Fields{
			{core.ColDate: "01.06.2024", core.ColShop: "A", core.ColItem: "Rent", core.ColAmount: "50"},
			{core.ColDate: "03.06.2024", core.ColShop: "B", core.ColItem: "Power", core.ColAmount: "20,5"},
			{core.ColDate: "03.06.2024", core.ColShop: "A", core.ColItem: "Water", core.ColDescr: "June"},
		} {
			_, err := exp.Add(ctx, f)
			require.NoError(t, err)
		}

		_, err := exp.Add(ctx, core.Fields{core.ColShop: "C", core.ColAmount: "1"})
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = exp.Add(ctx, core.Fields{core.ColAmount: "1"})
		assert.ErrorIs(t, err, core.ErrValidation)

		all, err := exp.List(ctx, core.ExpenseFilter{Shop: "Всі"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"Power", "Water", "Rent"}, []string{all[0].Item, all[1].Item, all[2].Item},
			"newest first, by id within a day")
		assert.True(t, all[1].Amount.IsZero())

		onlyA, err := exp.List(ctx, core.ExpenseFilter{Shop: "A"})
		require.NoError(t, err)
		assert.Len(t, onlyA, 2)

		_, err = exp.List(ctx, core.ExpenseFilter{Shop: "Nowhere"})
		assert.ErrorIs(t, err, core.ErrValidation)

		totalA, err := exp.TotalFor(ctx, core.ExpenseFilter{Shop: "A"})
		require.NoError(t, err)
		assert.Equal(t, "50", totalA.String())

		totalAll, err := exp.TotalFor(ctx, core.ExpenseFilter{})
		require.NoError(t, err)
		assert.Equal(t, "70.5", totalAll.String())

		since, err := exp.TotalFor(ctx, core.ExpenseFilter{Range: core.Since(core.NewDate(2024, 6, 2))})
		require.NoError(t, err)
		assert.Equal(t, "20.5", since.String())

		moved, err := exp.UpdateField(ctx, all[0].ID, core.ColShop, "A")
		require.NoError(t, err)
		assert.Equal(t, "A", moved.Shop)
		_, err = exp.UpdateField(ctx, all[0].ID, core.ColShop, "Z")
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = exp.UpdateField(ctx, all[0].ID, core.ColID, "9")
		assert.ErrorIs(t, err, core.ErrValidation)

		totalA, err = exp.TotalFor(ctx, core.ExpenseFilter{Shop: "A"})
		require.NoError(t, err)
		assert.Equal(t, "70.5", totalA.String())
	})
}

func TestDateFallback(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Format: log.FormatJSON})
	eachBackend(t, BooksConfig{Logger: logger}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("A")
		sale, err := sales.Add(ctx, core.Fields{core.ColDate: "yesterday", core.ColItem: "Bun"})
		require.NoError(t, err)
		assert.Equal(t, core.DateOf(fixedNow), sale.Date)
	})
	assert.Contains(t, buf.String(), `"input":"yesterday"`)

	eachBackend(t, BooksConfig{StrictDates: true}, func(t *testing.T, b *Books) {
		sales, _ := b.Sales("A")
		_, err := sales.Add(ctx, core.Fields{core.ColDate: "31.02.2024", core.ColItem: "Bun"})
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestBooksUnknownShop(t *testing.T) {
	eachBackend(t, BooksConfig{Shops: []string{"М1", " М2"}}, func(t *testing.T, b *Books) {
		assert.Equal(t, []string{"М1", "М2"}, b.Shops())
		_, err := b.Sales("М3")
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, core.ColShop, verr.Field)
	})

	_, err := OpenBooks(context.Background(), storage.NewRegistry(storage.NewMemoryBackend()), BooksConfig{Shops: []string{" "}})
	assert.Error(t, err)
}

func TestReportFailsWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	books, err := OpenBooks(ctx, storage.NewRegistry(storage.NewMemoryBackend()), BooksConfig{Shops: []string{"A", "B"}})
	require.NoError(t, err)
	require.NoError(t, books.Close())

	_, err = books.Report().GrandTotal(ctx, core.AllTime)
	assert.ErrorIs(t, err, core.ErrStorage)
}
