// Package core holds the ledger domain: sale lines, expenses, calendar dates,
// date ranges and the summary returned by the report.
//
// This file contains the coercion from boundary text to decimal values used
// for quantities, prices and amounts.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric bounds. Every stored number keeps at most MaxSignificantDigits
// digits so it survives a float64 round trip, and stays below MaxStored in
// magnitude. Typed numbers also stay below MaxInput.
const MaxSignificantDigits = 15

var (
	MaxInput  = decimal.New(1, 9)
	MaxStored = decimal.New(1, 18)
)

// ParseNumber converts boundary text to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Empty text is not a number; callers decide whether
// absence means a default. Exponent notation, magnitudes of MaxInput or more
// and more than MaxSignificantDigits digits are rejected.
//
// Examples:
//
//	ParseNumber("2")     -> 2, nil
//	ParseNumber("12,50") -> 12.5, nil
//	ParseNumber("-3.1")  -> -3.1, nil
//	ParseNumber("abc")   -> 0, ErrValidation
//	ParseNumber("1e3")   -> 0, ErrValidation
func ParseNumber(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Invalid(field, "number is required")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, Invalid(field, "not a number: "+quote(s))
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalid(field, "not a number: "+quote(s))
	}
	if d.Abs().GreaterThanOrEqual(MaxInput) {
		return decimal.Zero, Invalid(field, fmt.Sprintf("must be below %s in magnitude", MaxInput))
	}
	if significantDigits(d) > MaxSignificantDigits {
		return decimal.Zero, Invalid(field, fmt.Sprintf("at most %d significant digits", MaxSignificantDigits))
	}
	return d, nil
}

// CheckStored rejects numbers a numeric column cannot hold exactly.
func CheckStored(field string, d decimal.Decimal) error {
	if d.Abs().GreaterThanOrEqual(MaxStored) {
		return Invalid(field, fmt.Sprintf("must be below %s in magnitude", MaxStored))
	}
	if significantDigits(d) > MaxSignificantDigits {
		return Invalid(field, fmt.Sprintf("at most %d significant digits", MaxSignificantDigits))
	}
	return nil
}

func significantDigits(d decimal.Decimal) int {
	digits := strings.TrimLeft(d.Coefficient().String(), "-0")
	return len(strings.TrimRight(digits, "0"))
}

// NumberOr parses s, returning def when s is blank.
func NumberOr(field, s string, def decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseNumber(field, s)
}
