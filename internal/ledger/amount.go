package ledger

import (
	"strings"

	"github.com/govalues/decimal"
	"github.com/tinoosan/pocketledger/internal/errs"
)

// MaxAmountScale is the number of decimal places a currency amount may carry.
const MaxAmountScale = 2

// ParseAmount parses a user-entered amount. The result is positive and has at
// most two decimal places; comma decimal separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Decimal{}, errs.Invalid("amount", errs.ErrInvalidAmount, "not a number: "+quote(s))
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// ValidateAmount checks that d is strictly positive with at most two decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPos() {
		return errs.Invalid("amount", errs.ErrInvalidAmount, "must be greater than zero")
	}
	if d.Trim(0).Scale() > MaxAmountScale {
		return errs.Invalid("amount", errs.ErrInvalidAmount, "at most two decimal places")
	}
	return nil
}

// Sum adds amounts, stopping at the first overflow.
func Sum(amounts ...decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range amounts {
		next, err := total.Add(a)
		if err != nil {
			return decimal.Decimal{}, err
		}
		total = next
	}
	return total, nil
}
