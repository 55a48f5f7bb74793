// Package services holds the ledgers: per-shop sales, shared expenses and
// the report that combines them.
//
// Ledgers accept boundary text (core.Fields), coerce it into typed records,
// validate them and hand them to a storage.Store. They hold no filter state;
// every listing and total takes its range explicitly.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/validation"
)

// Deps are the collaborators shared by every ledger.
type Deps struct {
	Validator *validation.Validator
	Logger    *log.Logger

	// Shops is the configured shop set used to build a validator when
	// Validator is nil.
	Shops []string

	// StrictDates turns unparsable date text into a validation error instead
	// of falling back to today.
	StrictDates bool

	// Now overrides the clock used for "today". Nil means time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults(component string) Deps {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	d.Logger = d.Logger.WithComponent(component)
	if d.Validator == nil {
		d.Validator = validation.New(d.Shops)
	}
	return d
}

func (d Deps) dates() core.DateNormalizer {
	logger := d.Logger
	return core.DateNormalizer{
		Strict: d.StrictDates,
		Now:    d.Now,
		OnFallback: func(input string) {
			logger.Warn("Unparsable date, using today", log.FieldInput, input)
		},
	}
}

// checkFields rejects keys outside allowed. Derived and store-assigned
// columns get a specific reason.
func checkFields(fields core.Fields, allowed []string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch k {
		case core.ColID:
			return core.Invalid(k, "id is assigned by the store")
		case core.ColTotal:
			return core.Invalid(k, "total is derived from quantity and price")
		}
		if !contains(allowed, k) {
			return core.Invalid(k, "unknown field")
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// has reports whether fields carries key, blank or not.
func has(fields core.Fields, key string) bool {
	_, ok := fields[key]
	return ok
}

// editable checks a single-cell edit against the editable column list.
func editable(columns []string, column string) error {
	if !contains(columns, column) {
		return core.Invalid(column, fmt.Sprintf("column is not editable (editable: %s)", strings.Join(columns, ", ")))
	}
	return nil
}

func logMutation(ctx context.Context, fallback *log.Logger, msg, op, table string, id int64, extra ...any) {
	fields := log.NewFields().WithOperation(op).WithRecord(table, id)
	log.FromContextOr(ctx, fallback).InfoContext(ctx, msg, append(fields.ToSlice(), extra...)...)
}
