// Package storage implements the record stores behind the ledgers.
//
// A Store owns one table of homogeneous records described by a Schema. Two
// backends implement it: SQLite (durable) and memory. Records cross the
// package boundary as Record maps whose values are already typed: text and
// canonical dates as string, numbers as decimal.Decimal, the id as int64.
package storage

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

type ColumnType int

const (
	Text ColumnType = iota
	Real
	DateText
)

func (t ColumnType) String() string {
	switch t {
	case Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Column describes one non-id column. Required columns have no default and
// must be present (and non-blank for text) on create.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool
	Default  any
}

type Schema struct {
	Table   string
	Columns []Column
}

func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Record is one row keyed by column name.
type Record map[string]any

func (r Record) ID() int64 {
	id, _ := r[core.ColID].(int64)
	return id
}

func (r Record) Text(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Record) Decimal(col string) decimal.Decimal {
	d, _ := r[col].(decimal.Decimal)
	return d
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Order selects the listing order. Both orderings break ties by ascending id.
type Order int

const (
	DateAsc Order = iota
	DateDesc
)

// Query filters a listing or a sum. From and To are canonical dates and each
// may be empty for an open bound. Where holds equality filters on columns.
type Query struct {
	From  string
	To    string
	Where map[string]any
	Order Order
}

// RangeQuery builds a query from a date range.
func RangeQuery(r core.DateRange) Query {
	from, to := r.Bounds()
	return Query{From: from, To: to}
}

// Store is CRUD plus filtered listing and summing over one table.
type Store interface {
	Schema() Schema

	// Create inserts a record and returns its new id.
	Create(ctx context.Context, rec Record) (int64, error)

	// Update changes the named columns of an existing record.
	Update(ctx context.Context, id int64, changes Record) error

	// Modify reads the record, passes a copy to fn and writes back the
	// changes fn returns, as one atomic step.
	Modify(ctx context.Context, id int64, fn func(current Record) (Record, error)) error

	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, q Query) ([]Record, error)

	// Sum adds up a numeric column over the filtered rows; an empty set sums to zero.
	Sum(ctx context.Context, column string, q Query) (decimal.Decimal, error)
}

// Backend opens stores. Opening creates the table if it does not exist.
type Backend interface {
	OpenStore(ctx context.Context, schema Schema) (Store, error)
	Close() error
}

// normalize checks rec against the schema and converts its values. With
// partial unset, missing columns get their defaults and required columns
// must be present.
func (s Schema) normalize(rec Record, partial bool) (Record, error) {
	out := make(Record, len(s.Columns))
	for name, v := range rec {
		if name == core.ColID {
			return nil, core.Invalid(core.ColID, "id is assigned by the store")
		}
		col, ok := s.Column(name)
		if !ok {
			return nil, core.Invalid(name, fmt.Sprintf("unknown field for table %s", s.Table))
		}
		cv, err := col.convert(v)
		if err != nil {
			return nil, err
		}
		out[name] = cv
	}
	if partial {
		return out, nil
	}
	for _, col := range s.Columns {
		if _, ok := out[col.Name]; ok {
			continue
		}
		if col.Required {
			return nil, core.Invalid(col.Name, "field is required")
		}
		cv, err := col.convert(col.Default)
		if err != nil {
			return nil, fmt.Errorf("default for %s.%s: %w", s.Table, col.Name, err)
		}
		out[col.Name] = cv
	}
	return out, nil
}

func (c Column) convert(v any) (any, error) {
	switch c.Type {
	case Real:
		d, ok := toDecimal(v)
		if !ok {
			return nil, core.Invalid(c.Name, fmt.Sprintf("expected a finite number, got %T", v))
		}
		if err := core.CheckStored(c.Name, d); err != nil {
			return nil, err
		}
		return d, nil
	case DateText:
		s, ok := v.(string)
		if !ok {
			return nil, core.Invalid(c.Name, fmt.Sprintf("expected canonical date text, got %T", v))
		}
		d, err := core.ParseCanonical(s)
		if err != nil {
			return nil, err
		}
		return d.Canonical(), nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, core.Invalid(c.Name, fmt.Sprintf("expected text, got %T", v))
		}
		if c.Required && strings.TrimSpace(s) == "" {
			return nil, core.Invalid(c.Name, "must not be empty")
		}
		return s, nil
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	default:
		return decimal.Zero, false
	}
}

// numericColumn resolves a column name for Sum.
func (s Schema) numericColumn(name string) (Column, error) {
	col, ok := s.Column(name)
	if !ok {
		return Column{}, core.Invalid(name, fmt.Sprintf("unknown field for table %s", s.Table))
	}
	if col.Type != Real {
		return Column{}, core.Invalid(name, "cannot sum a non-numeric field")
	}
	return col, nil
}

// checkWhere rejects filters on unknown columns.
func (s Schema) checkWhere(where map[string]any) error {
	for name := range where {
		if _, ok := s.Column(name); !ok {
			return core.Invalid(name, fmt.Sprintf("unknown filter field for table %s", s.Table))
		}
	}
	return nil
}

func notFound(table string, id int64) error {
	return fmt.Errorf("%s %d: %w", table, id, core.ErrNotFound)
}

func storageErr(op, table string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", core.ErrStorage, op, table, err)
}
