package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ShopAmount represents an amount aggregated by shop name.
type ShopAmount struct {
	Shop   string          `json:"shop"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary is the combined picture for one date range.
// GrandTotal is TotalSales minus TotalExpenses.
type Summary struct {
	Range           DateRange       `json:"-"`
	PerShopSales    []ShopAmount    `json:"per_shop_sales"`
	PerShopExpenses []ShopAmount    `json:"per_shop_expenses"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// MarshalJSON adds the range bounds in the boundary form; open bounds are
// omitted.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		From string `json:"from,omitempty"`
		To   string `json:"to,omitempty"`
		plain
	}{plain: plain(s)}
	out.From, out.To = s.Range.DisplayBounds()
	return json.Marshal(out)
}

// SalesFor returns the sales total of one shop, zero if the shop is unknown.
func (s Summary) SalesFor(shop string) decimal.Decimal {
	for _, a := range s.PerShopSales {
		if a.Shop == shop {
			return a.Amount
		}
	}
	return decimal.Zero
}

func (s Summary) ExpensesFor(shop string) decimal.Decimal {
	for _, a := range s.PerShopExpenses {
		if a.Shop == shop {
			return a.Amount
		}
	}
	return decimal.Zero
}
