package report

import (
    "strings"
    "time"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
)

// PeriodKind names a range that ends today.
type PeriodKind string

const (
    Day   PeriodKind = "day"
    Week  PeriodKind = "week"
    Month PeriodKind = "month"
    Year  PeriodKind = "year"
)

// Period returns the inclusive range for kind ending on today. Weeks start on Monday.
func Period(kind PeriodKind, today time.Time) (from, to ledger.Date, err error) {
    to = ledger.DateOf(today)
    switch PeriodKind(strings.ToLower(string(kind))) {
    case Day:
        from = to
    case Week:
        offset := (int(to.Weekday()) + 6) % 7
        from = ledger.DateOf(to.AddDate(0, 0, -offset))
    case Month:
        from = ledger.NewDate(to.Year(), to.Month(), 1)
    case Year:
        from = ledger.NewDate(to.Year(), time.January, 1)
    default:
        return ledger.Date{}, ledger.Date{}, errs.Invalid("period", errs.ErrInvalid, "period must be day, week, month or year")
    }
    return from, to, nil
}

// Range validates a custom range. Both bounds are required.
func Range(from, to ledger.Date) (ledger.Date, ledger.Date, error) {
    if from.IsZero() || to.IsZero() {
        return ledger.Date{}, ledger.Date{}, errs.Invalid("from", errs.ErrInvalidDate, "both from and to are required")
    }
    if from.After(to.Time) {
        return ledger.Date{}, ledger.Date{}, errs.Invalid("from", errs.ErrInvalidDate, "start date must not be after end date")
    }
    return from, to, nil
}
