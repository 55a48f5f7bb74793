package storage

import (
	"fmt"
	"strings"

	"shopledger/internal/core"
)

const (
	salesTablePrefix = "sales_"
	ExpensesTable    = "expenses"
)

// ShopKey derives the table suffix for a shop: lower case, spaces replaced
// by underscores.
func ShopKey(shop string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(shop)), " ", "_")
}

// SalesTable is the name of the sales table owned by shop.
func SalesTable(shop string) string {
	return salesTablePrefix + ShopKey(shop)
}

// SalesSchema describes the sales table of one shop.
func SalesSchema(shop string) Schema {
	return Schema{
		Table: SalesTable(shop),
		Columns: []Column{
			{Name: core.ColDate, Type: DateText, Required: true},
			{Name: core.ColShop, Type: Text, Default: shop},
			{Name: core.ColSellerName, Type: Text, Default: ""},
			{Name: core.ColItem, Type: Text, Required: true},
			{Name: core.ColQuantity, Type: Real, Default: 1},
			{Name: core.ColPrice, Type: Real, Default: 0},
			{Name: core.ColTotal, Type: Real, Default: 0},
		},
	}
}

// ExpensesSchema describes the shared expenses table.
func ExpensesSchema() Schema {
	return Schema{
		Table: ExpensesTable,
		Columns: []Column{
			{Name: core.ColDate, Type: DateText, Required: true},
			{Name: core.ColShop, Type: Text, Required: true},
			{Name: core.ColItem, Type: Text, Default: ""},
			{Name: core.ColDescr, Type: Text, Default: ""},
			{Name: core.ColAmount, Type: Real, Default: 0},
		},
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// createTableSQL renders the idempotent DDL for a schema.
func (s Schema) createTableSQL() []string {
	cols := []string{quoteIdent(core.ColID) + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, c := range s.Columns {
		def := quoteIdent(c.Name) + " " + c.Type.String() + " NOT NULL"
		if !c.Required {
			def += " DEFAULT " + sqlDefault(c)
		}
		cols = append(cols, def)
	}
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
			quoteIdent(s.Table), strings.Join(cols, ",\n    ")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s, %s)",
			quoteIdent("idx_"+s.Table+"_date"), quoteIdent(s.Table),
			quoteIdent(core.ColDate), quoteIdent(core.ColID)),
	}
}

func sqlDefault(c Column) string {
	if c.Type == Real {
		if d, ok := toDecimal(c.Default); ok {
			return d.String()
		}
		return "0"
	}
	s, _ := c.Default.(string)
	return quoteLiteral(s)
}
