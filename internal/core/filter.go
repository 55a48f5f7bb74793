package core

import (
	"fmt"
	"time"
)

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From Date
	To   Date
}

// AllTime is the range with both bounds open.
var AllTime = DateRange{}

func Between(from, to Date) DateRange { return DateRange{From: from, To: to} }

func Since(from Date) DateRange { return DateRange{From: from} }

func Until(to Date) DateRange { return DateRange{To: to} }

// Day is the single-day range [d, d].
func Day(d Date) DateRange { return DateRange{From: d, To: d} }

// Bounds returns the canonical text of each bound, empty when open.
func (r DateRange) Bounds() (from, to string) {
	if !r.From.IsZero() {
		from = r.From.Canonical()
	}
	if !r.To.IsZero() {
		to = r.To.Canonical()
	}
	return from, to
}

// DisplayBounds is Bounds in the DD.MM.YYYY form.
func (r DateRange) DisplayBounds() (from, to string) {
	if !r.From.IsZero() {
		from = r.From.Display()
	}
	if !r.To.IsZero() {
		to = r.To.Display()
	}
	return from, to
}

// Contains reports whether d falls in the range.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To.Time) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	from, to := r.Bounds()
	if from == "" {
		from = "..."
	}
	if to == "" {
		to = "..."
	}
	return from + ".." + to
}

// Period names understood by PeriodRange.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

// PeriodRange resolves a named period relative to now. The week starts on
// Monday; week and month end today. Unknown names are an error, "all" and ""
// are the open range.
func PeriodRange(name string, now time.Time) (DateRange, error) {
	today := DateOf(now)
	switch name {
	case PeriodToday:
		return Day(today), nil
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return Between(today.AddDays(-offset), today), nil
	case PeriodMonth:
		return Between(NewDate(today.Year(), int(today.Month()), 1), today), nil
	case PeriodAll, "":
		return AllTime, nil
	default:
		return AllTime, Invalid("period", fmt.Sprintf("unknown period %q", name))
	}
}

// ExpenseFilter narrows the expense listing. Shop equal to the configured
// "all shops" label, or empty, means no shop restriction.
type ExpenseFilter struct {
	Range DateRange
	Shop  string
}
