package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Column names shared by the storage schemas and the ledgers.
const (
	ColID         = "id"
	ColDate       = "date"
	ColShop       = "shop"
	ColSellerName = "seller_name"
	ColItem       = "item"
	ColQuantity   = "quantity"
	ColPrice      = "price"
	ColTotal      = "total"
	ColDescr      = "descr"
	ColAmount     = "amount"
)

type (
	// Fields carries boundary values keyed by column name, as typed by a user
	// or read from a form cell. Dates use the display form (DD.MM.YYYY).
	Fields map[string]string

	Sale struct {
		ID         int64           `json:"id"`
		Date       Date            `json:"date" validate:"required"`
		Shop       string          `json:"shop" validate:"notblank"`
		SellerName string          `json:"seller_name"`
		Item       string          `json:"item"`
		Quantity   decimal.Decimal `json:"quantity" validate:"gte=0"`
		Price      decimal.Decimal `json:"price"`
		Total      decimal.Decimal `json:"total"`
	}

	Expense struct {
		ID     int64           `json:"id"`
		Date   Date            `json:"date" validate:"required"`
		Shop   string          `json:"shop" validate:"known_shop"`
		Item   string          `json:"item"`
		Descr  string          `json:"descr"`
		Amount decimal.Decimal `json:"amount"`
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError reports a single rejected field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate checks the invariants of a stored sale line.
func (s Sale) Validate() error {
	if s.Date.IsZero() {
		return Invalid(ColDate, "date is required")
	}
	if strings.TrimSpace(s.Item) == "" {
		return Invalid(ColItem, "item is required")
	}
	if s.Quantity.IsNegative() {
		return Invalid(ColQuantity, "quantity must not be negative")
	}
	if !s.Total.Equal(s.Quantity.Mul(s.Price)) {
		return Invalid(ColTotal, "total must equal quantity times price")
	}
	return CheckStored(ColTotal, s.Total)
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return Invalid(ColDate, "date is required")
	}
	if strings.TrimSpace(e.Shop) == "" {
		return Invalid(ColShop, "shop is required")
	}
	return nil
}
