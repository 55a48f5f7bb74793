package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core"
)

func TestStructSale(t *testing.T) {
	v := New([]string{"A", "B"})
	good := core.Sale{
		Date:     core.NewDate(2024, 6, 1),
		Shop:     "A",
		Item:     "Bread",
		Quantity: decimal.NewFromInt(2),
		Price:    decimal.NewFromInt(3),
		Total:    decimal.NewFromInt(6),
	}
	require.NoError(t, v.Struct(good))

	cases := []struct {
		name  string
		edit  func(s *core.Sale)
		field string
	}{
		{"zero date", func(s *core.Sale) { s.Date = core.Date{} }, core.ColDate},
		{"blank shop", func(s *core.Sale) { s.Shop = " " }, core.ColShop},
		{"negative quantity", func(s *core.Sale) { s.Quantity = decimal.NewFromFloat(-0.5) }, core.ColQuantity},
		{"blank item", func(s *core.Sale) { s.Item = "" }, core.ColItem},
		{"stale total", func(s *core.Sale) { s.Total = decimal.NewFromInt(1) }, core.ColTotal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := good
			tc.edit(&s)
			err := v.Struct(s)
			require.ErrorIs(t, err, core.ErrValidation)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestStructExpenseKnownShop(t *testing.T) {
	v := New([]string{"М1", " М2 "})
	e := core.Expense{Date: core.NewDate(2024, 6, 1), Shop: "М2", Amount: decimal.NewFromInt(50)}
	require.NoError(t, v.Struct(e))

	e.Shop = "М3"
	err := v.Struct(e)
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), `unknown shop "М3"`)

	assert.True(t, v.KnownShop("М1"))
	assert.False(t, v.KnownShop("All"))
	assert.ElementsMatch(t, []string{"М1", "М2"}, v.Shops())
}
