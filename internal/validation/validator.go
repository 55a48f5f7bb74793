// Package validation runs struct-tag rules over ledger records and reports
// the first failure as a *core.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

// Validator checks records against their `validate` tags and, when the
// record has one, its own Validate method.
type Validator struct {
	validate *validator.Validate
	shops    map[string]struct{}
}

// New builds a validator whose known_shop rule accepts exactly shops.
func New(shops []string) *Validator {
	v := &Validator{
		validate: validator.New(),
		shops:    make(map[string]struct{}, len(shops)),
	}
	for _, s := range shops {
		v.shops[strings.TrimSpace(s)] = struct{}{}
	}

	// Report fields by their column (json) name.
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals compare as floats so gte/gt/lte work on them.
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// A zero date reads as empty so required catches it.
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(core.Date); ok && !d.IsZero() {
			return d.Canonical()
		}
		return ""
	}, core.Date{})

	v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.validate.RegisterValidation("known_shop", func(fl validator.FieldLevel) bool {
		_, ok := v.shops[strings.TrimSpace(fl.Field().String())]
		return ok
	})
	return v
}

// Shops returns the configured shop set in no particular order.
func (v *Validator) Shops() []string {
	out := make([]string, 0, len(v.shops))
	for s := range v.shops {
		out = append(out, s)
	}
	return out
}

// KnownShop reports whether shop is one of the configured shops.
func (v *Validator) KnownShop(shop string) bool {
	_, ok := v.shops[strings.TrimSpace(shop)]
	return ok
}

// Struct validates data. Tag failures come first; the record's own
// invariants are checked only when every tag passes.
func (v *Validator) Struct(data any) error {
	if err := v.validate.Struct(data); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("validate %T: %w", data, err)
	}
	if checker, ok := data.(interface{ Validate() error }); ok {
		return checker.Validate()
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	var reason string
	switch fe.Tag() {
	case "required", "notblank":
		reason = "must not be empty"
	case "known_shop":
		reason = fmt.Sprintf("unknown shop %q", fe.Value())
	case "gte":
		reason = "must be at least " + fe.Param()
	default:
		reason = fmt.Sprintf("failed %s rule", fe.Tag())
	}
	return core.Invalid(fe.Field(), reason)
}
