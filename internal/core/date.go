package core

import (
	"strings"
	"time"
)

// Layouts for the two textual date forms.
const (
	CanonicalLayout = "2006-01-02"
	DisplayLayout   = "02.01.2006"
)

// Date is a calendar day. The time part is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Canonical returns the sortable YYYY-MM-DD form used in storage.
func (d Date) Canonical() string {
	return d.Format(CanonicalLayout)
}

// Display returns the DD.MM.YYYY form used at the boundary.
func (d Date) Display() string {
	return d.Format(DisplayLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Display()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows the promoted time.Time method so records serialize
// with the boundary form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(quote(d.Display())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), "\"")))
}

// ParseDisplay parses a DD.MM.YYYY string.
func ParseDisplay(s string) (Date, error) {
	t, err := time.Parse(DisplayLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid(ColDate, "expected DD.MM.YYYY, got "+quote(s))
	}
	return DateOf(t), nil
}

// ParseCanonical parses a YYYY-MM-DD string.
func ParseCanonical(s string) (Date, error) {
	t, err := time.Parse(CanonicalLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid(ColDate, "expected YYYY-MM-DD, got "+quote(s))
	}
	return DateOf(t), nil
}

// ParseDate accepts either the display or the canonical form.
func ParseDate(s string) (Date, error) {
	if d, err := ParseDisplay(s); err == nil {
		return d, nil
	}
	if d, err := ParseCanonical(s); err == nil {
		return d, nil
	}
	return Date{}, Invalid(ColDate, "expected DD.MM.YYYY or YYYY-MM-DD, got "+quote(s))
}

// DisplayFromCanonical converts a stored date to the boundary form. It never
// fails: a value that is not canonical is returned unchanged.
func DisplayFromCanonical(s string) string {
	d, err := ParseCanonical(s)
	if err != nil {
		return s
	}
	return d.Display()
}

// DateNormalizer turns boundary date text into a Date.
//
// An empty string is today. Text that does not parse is today as well unless
// Strict is set, in which case it is a validation error. OnFallback, if set,
// is called with the rejected text whenever the lenient fallback kicks in.
type DateNormalizer struct {
	Strict     bool
	Now        func() time.Time
	OnFallback func(input string)
}

func (n DateNormalizer) today() Date {
	if n.Now != nil {
		return DateOf(n.Now())
	}
	return DateOf(time.Now())
}

func (n DateNormalizer) Normalize(s string) (Date, error) {
	if strings.TrimSpace(s) == "" {
		return n.today(), nil
	}
	d, err := ParseDate(s)
	if err == nil {
		return d, nil
	}
	if n.Strict {
		return Date{}, err
	}
	if n.OnFallback != nil {
		n.OnFallback(s)
	}
	return n.today(), nil
}

func quote(s string) string {
	return "\"" + s + "\""
}
