package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryJSON(t *testing.T) {
	s := Summary{
		Range:         Since(NewDate(2024, 6, 1)),
		PerShopSales:  []ShopAmount{{Shop: "A", Amount: decimal.NewFromInt(6)}},
		TotalSales:    decimal.NewFromInt(6),
		TotalExpenses: decimal.NewFromInt(50),
		GrandTotal:    decimal.NewFromInt(-44),
	}
	out, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "01.06.2024", got["from"])
	assert.NotContains(t, got, "to")
	assert.NotContains(t, got, "Range")
	assert.Equal(t, "-44", got["grand_total"])
	assert.Equal(t, "6", s.SalesFor("A").String())
	assert.True(t, s.ExpensesFor("A").IsZero())
}
