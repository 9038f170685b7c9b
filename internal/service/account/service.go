// Package account implements the account store rules: sequential ids,
// case-insensitive unique names, the permanent Main account and balance updates.
package account

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/agnivade/levenshtein"
    "github.com/govalues/decimal"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
)

type Repo interface {
    // ListAccounts returns all accounts in creation order.
    ListAccounts(ctx context.Context) ([]ledger.Account, error)
    GetAccount(ctx context.Context, id int) (ledger.Account, error)
}

type Writer interface {
    CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
    UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
    DeleteAccount(ctx context.Context, id int) error
}

// Filter selects accounts by their goal flag.
type Filter int

const (
    All Filter = iota
    Regular
    Goals
)

type Service interface {
    NewID(ctx context.Context) (int, error)
    Create(ctx context.Context, a ledger.Account) (ledger.Account, error)
    Rename(ctx context.Context, id int, newName string) (ledger.Account, error)
    // Delete removes the account and adds its balance to Main. It returns the removed record.
    Delete(ctx context.Context, id int) (ledger.Account, error)
    Get(ctx context.Context, id int) (ledger.Account, error)
    ByName(ctx context.Context, name string) (ledger.Account, error)
    Balance(ctx context.Context, name string) (decimal.Decimal, error)
    UpdateBalance(ctx context.Context, name string, delta decimal.Decimal) (ledger.Account, error)
    WouldGoNegative(ctx context.Context, name string, delta decimal.Decimal) (bool, error)
    IDByName(ctx context.Context, name string) (int, error)
    Main(ctx context.Context) (ledger.Account, error)
    List(ctx context.Context, f Filter) ([]ledger.Account, error)
    EnsureMain(ctx context.Context) (ledger.Account, error)
}

type service struct {
    repo   Repo
    writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// NewID returns 1 when no accounts exist, otherwise max(id)+1.
func (s *service) NewID(ctx context.Context) (int, error) {
    existing, err := s.repo.ListAccounts(ctx)
    if err != nil { return 0, err }
    next := 1
    for _, a := range existing {
        if a.ID >= next { next = a.ID + 1 }
    }
    return next, nil
}

// EnsureMain returns the Main account, creating it with a zero balance when
// the store holds no accounts at all.
func (s *service) EnsureMain(ctx context.Context) (ledger.Account, error) {
    existing, err := s.repo.ListAccounts(ctx)
    if err != nil { return ledger.Account{}, err }
    for _, a := range existing {
        if a.IsMain() { return a, nil }
    }
    if len(existing) > 0 {
        return ledger.Account{}, errs.ErrMainMissing
    }
    return s.writer.CreateAccount(ctx, ledger.Account{ID: 1, Name: ledger.MainAccountName, Balance: decimal.Zero})
}

func (s *service) validateCreate(a ledger.Account) error {
    if strings.TrimSpace(a.Name) == "" {
        return errs.Invalid("name", errs.ErrInvalid, "account name is required")
    }
    if a.IsGoal {
        if a.GoalAmount == nil || !a.GoalAmount.IsPos() {
            return errs.Invalid("goal_amount", errs.ErrInvalidAmount, "goal accounts need a positive goal amount")
        }
        if a.GoalAmount.Trim(0).Scale() > ledger.MaxAmountScale {
            return errs.Invalid("goal_amount", errs.ErrInvalidAmount, "at most two decimal places")
        }
    } else if a.GoalAmount != nil {
        return errs.Invalid("goal_amount", errs.ErrInvalid, "only goal accounts carry a goal amount")
    }
    if a.Balance.IsNeg() {
        return errs.Invalid("balance", errs.ErrInvalidAmount, "opening balance cannot be negative")
    }
    if a.Balance.Trim(0).Scale() > ledger.MaxAmountScale {
        return errs.Invalid("balance", errs.ErrInvalidAmount, "at most two decimal places")
    }
    return nil
}

func (s *service) Create(ctx context.Context, a ledger.Account) (ledger.Account, error) {
    a.Name = strings.TrimSpace(a.Name)
    if err := s.validateCreate(a); err != nil { return ledger.Account{}, err }
    if err := s.ensureNameFree(ctx, 0, a.Name); err != nil { return ledger.Account{}, err }
    id, err := s.NewID(ctx)
    if err != nil { return ledger.Account{}, err }
    a.ID = id
    return s.writer.CreateAccount(ctx, a)
}

func (s *service) Rename(ctx context.Context, id int, newName string) (ledger.Account, error) {
    current, err := s.Get(ctx, id)
    if err != nil { return ledger.Account{}, err }
    if current.IsMain() { return ledger.Account{}, errs.ErrMainAccount }
    newName = strings.TrimSpace(newName)
    if newName == "" { return ledger.Account{}, errs.Invalid("name", errs.ErrInvalid, "account name is required") }
    if err := s.ensureNameFree(ctx, id, newName); err != nil { return ledger.Account{}, err }
    current.Name = newName
    return s.writer.UpdateAccount(ctx, current)
}

func (s *service) Delete(ctx context.Context, id int) (ledger.Account, error) {
    acc, err := s.Get(ctx, id)
    if err != nil { return ledger.Account{}, err }
    if acc.IsMain() { return ledger.Account{}, errs.ErrMainAccount }
    if !acc.Balance.IsZero() {
        main, err := s.Main(ctx)
        if err != nil { return ledger.Account{}, err }
        main.Balance, err = main.Balance.Add(acc.Balance)
        if err != nil { return ledger.Account{}, err }
        if _, err := s.writer.UpdateAccount(ctx, main); err != nil { return ledger.Account{}, err }
    }
    if err := s.writer.DeleteAccount(ctx, id); err != nil { return ledger.Account{}, err }
    return acc, nil
}

func (s *service) Get(ctx context.Context, id int) (ledger.Account, error) {
    if id <= 0 { return ledger.Account{}, errs.Invalid("account_id", errs.ErrInvalid, "must be positive") }
    return s.repo.GetAccount(ctx, id)
}

// ByName matches case-insensitively. The not-found error names the closest
// existing account when one is near enough to be a typo.
func (s *service) ByName(ctx context.Context, name string) (ledger.Account, error) {
    existing, err := s.repo.ListAccounts(ctx)
    if err != nil { return ledger.Account{}, err }
    want := strings.TrimSpace(name)
    for _, a := range existing {
        if strings.EqualFold(a.Name, want) { return a, nil }
    }
    if guess := closest(existing, want); guess != "" {
        return ledger.Account{}, fmt.Errorf("account %q (did you mean %q?): %w", name, guess, errs.ErrNotFound)
    }
    return ledger.Account{}, fmt.Errorf("account %q: %w", name, errs.ErrNotFound)
}

func (s *service) Main(ctx context.Context) (ledger.Account, error) {
    a, err := s.ByName(ctx, ledger.MainAccountName)
    if errors.Is(err, errs.ErrNotFound) { return ledger.Account{}, errs.ErrMainMissing }
    if err != nil { return ledger.Account{}, err }
    return a, nil
}

func (s *service) Balance(ctx context.Context, name string) (decimal.Decimal, error) {
    a, err := s.ByName(ctx, name)
    if err != nil { return decimal.Decimal{}, err }
    return a.Balance, nil
}

func (s *service) UpdateBalance(ctx context.Context, name string, delta decimal.Decimal) (ledger.Account, error) {
    a, err := s.ByName(ctx, name)
    if err != nil { return ledger.Account{}, err }
    a.Balance, err = a.Balance.Add(delta)
    if err != nil { return ledger.Account{}, err }
    return s.writer.UpdateAccount(ctx, a)
}

// WouldGoNegative reports whether balance+delta < 0. A missing account is not an error.
func (s *service) WouldGoNegative(ctx context.Context, name string, delta decimal.Decimal) (bool, error) {
    a, err := s.ByName(ctx, name)
    if err != nil {
        if errors.Is(err, errs.ErrNotFound) { return false, nil }
        return false, err
    }
    after, err := a.Balance.Add(delta)
    if err != nil { return false, err }
    return after.IsNeg(), nil
}

func (s *service) IDByName(ctx context.Context, name string) (int, error) {
    a, err := s.ByName(ctx, name)
    if err != nil { return 0, err }
    return a.ID, nil
}

func (s *service) List(ctx context.Context, f Filter) ([]ledger.Account, error) {
    existing, err := s.repo.ListAccounts(ctx)
    if err != nil { return nil, err }
    if f == All { return existing, nil }
    out := make([]ledger.Account, 0, len(existing))
    for _, a := range existing {
        if a.IsGoal == (f == Goals) { out = append(out, a) }
    }
    return out, nil
}

func (s *service) ensureNameFree(ctx context.Context, selfID int, name string) error {
    existing, err := s.repo.ListAccounts(ctx)
    if err != nil { return err }
    for _, other := range existing {
        if other.ID == selfID { continue }
        if strings.EqualFold(other.Name, name) {
            return fmt.Errorf("account %q already exists: %w", other.Name, errs.ErrConflict)
        }
    }
    return nil
}

// closest returns the account name with the smallest edit distance to name,
// or "" when nothing is within a third of the name's length.
func closest(accounts []ledger.Account, name string) string {
    best, bestDist := "", len(name)/3+1
    for _, a := range accounts {
        d := levenshtein.ComputeDistance(strings.ToLower(a.Name), strings.ToLower(name))
        if d < bestDist { best, bestDist = a.Name, d }
    }
    return best
}
