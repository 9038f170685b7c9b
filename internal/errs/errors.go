package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
    ErrNotFound = errors.New("not_found")
    ErrConflict = errors.New("conflict")
    ErrInvalid  = errors.New("invalid")
    // ErrInvalidAmount is returned for non-positive amounts or more than two decimal places.
    ErrInvalidAmount = errors.New("invalid_amount")
    // ErrInvalidDate is returned for dates that do not parse as DD-MM-YYYY.
    ErrInvalidDate = errors.New("invalid_date")
    // ErrMainAccount indicates the Main account cannot be deleted or renamed.
    ErrMainAccount = errors.New("main_account")
    // ErrMainMissing indicates a balance could not be moved because no Main account exists.
    ErrMainMissing = errors.New("main_account_missing")
    // ErrSameAccount rejects a transfer whose source and destination match.
    ErrSameAccount = errors.New("same_account")
    // ErrProtectedCategory indicates the Uncategorized category cannot be edited or deleted.
    ErrProtectedCategory = errors.New("protected_category")
    // ErrOverdraft indicates the operation would leave the source account negative
    // and the caller did not confirm it.
    ErrOverdraft = errors.New("overdraft")
)

// ValidationError reports which input failed and why. It unwraps to one of the
// sentinels above so callers can keep using errors.Is.
type ValidationError struct {
    Field string
    Err   error
    Msg   string
}

func (e *ValidationError) Error() string {
    if e.Msg == "" { return e.Field + ": " + e.Err.Error() }
    return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field wrapping sentinel.
func Invalid(field string, sentinel error, msg string) error {
    return &ValidationError{Field: field, Err: sentinel, Msg: msg}
}
