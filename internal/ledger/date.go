package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/tinoosan/pocketledger/internal/errs"
)

// DateLayout is the on-disk and wire format for transaction dates.
const DateLayout = "02-01-2006"

// inputLayout also accepts single-digit days and months ("5-3-2024").
const inputLayout = "2-1-2006"

// Date is a calendar day without time of day.
type Date struct {
	time.Time
}

// NewDate returns the day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses DD-MM-YYYY; days and months may be a single digit.
// Slashes, dots and spaces are accepted as separators.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "-", ".", "-", " ", "-").Replace(s)
	t, err := time.Parse(inputLayout, s)
	if err != nil {
		return Date{}, errs.Invalid("date", errs.ErrInvalidDate, "expected DD-MM-YYYY, got "+quote(s))
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Between reports whether d falls within [from, to]. A zero bound is open.
func (d Date) Between(from, to Date) bool {
	if !from.IsZero() && d.Before(from.Time) {
		return false
	}
	if !to.IsZero() && d.After(to.Time) {
		return false
	}
	return true
}

// MarshalText and MarshalJSON write DD-MM-YYYY; the JSON methods shadow the
// RFC 3339 encoding promoted from time.Time.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d Date) MarshalJSON() ([]byte, error) { return []byte(quote(d.String())), nil }

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errs.Invalid("date", errs.ErrInvalidDate, "expected a JSON string, got "+string(b))
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func quote(s string) string { return `"` + s + `"` }
