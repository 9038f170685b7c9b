// Package journal implements the transaction ledger: id assignment, row
// validation, the bulk rewrite cascades and range-filtered reads.
package journal

import (
    "context"
    "strings"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
    // ListTransactions returns every row, newest date first.
    ListTransactions(ctx context.Context) ([]ledger.Transaction, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
    // CreateTransaction appends t and re-sorts the ledger by date, newest first.
    CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
    // ReplaceCategory rewrites Category on every row equal to oldName and returns the count.
    ReplaceCategory(ctx context.Context, oldName, newName string) (int, error)
    // RenameAccountRefs rewrites the From/To name on rows whose From/To id equals accountID.
    RenameAccountRefs(ctx context.Context, accountID int, name string) (int, error)
}

// Filter narrows a query. Zero values leave a dimension unconstrained; From
// and To are inclusive; Type and Category match case-insensitively.
type Filter struct {
    From      ledger.Date
    To        ledger.Date
    Type      string
    Category  string
    AccountID int
}

func (f Filter) match(t ledger.Transaction) bool {
    if !t.Date.Between(f.From, f.To) { return false }
    if f.Type != "" && !strings.EqualFold(string(t.Type), f.Type) { return false }
    if f.Category != "" && !strings.EqualFold(t.Category, f.Category) { return false }
    if f.AccountID != 0 && !t.Touches(f.AccountID) { return false }
    return true
}

// Service exposes the ledger operations.
type Service interface {
    NextID(ctx context.Context) (int, error)
    ValidateTransaction(t ledger.Transaction) error
    Add(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
    UpdateCategoryOnAllMatching(ctx context.Context, oldName, newName string) (int, error)
    UncategorizeAllMatching(ctx context.Context, categoryName string) (int, error)
    RenameAccountEverywhere(ctx context.Context, accountID int, newName string) (int, error)
    List(ctx context.Context) ([]ledger.Transaction, error)
    Query(ctx context.Context, f Filter) ([]ledger.Transaction, error)
}

type service struct {
    repo   Repo
    writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// NextID returns 1 for an empty ledger, otherwise max(id)+1.
func (s *service) NextID(ctx context.Context) (int, error) {
    rows, err := s.repo.ListTransactions(ctx)
    if err != nil { return 0, err }
    next := 1
    for _, t := range rows {
        if t.ID >= next { next = t.ID + 1 }
    }
    return next, nil
}

// ValidateTransaction checks the type, date, amount sign and which account
// slots are filled for the row's type.
func (s *service) ValidateTransaction(t ledger.Transaction) error {
    if !t.Type.Valid() {
        return errs.Invalid("type", errs.ErrInvalid, "unknown transaction type "+string(t.Type))
    }
    if t.Date.IsZero() {
        return errs.Invalid("date", errs.ErrInvalidDate, "date is required")
    }
    if err := ledger.ValidateAmount(t.Amount.Abs()); err != nil { return err }
    hasFrom, hasTo := t.FromAccountID != 0, t.ToAccountID != 0
    switch t.Type {
    case ledger.TransactionTypeIncome, ledger.TransactionTypeTransferIn:
        if !t.Amount.IsPos() { return errs.Invalid("amount", errs.ErrInvalidAmount, string(t.Type)+" amounts are positive") }
        if !hasTo || hasFrom { return errs.Invalid("to_account_id", errs.ErrInvalid, string(t.Type)+" needs only a destination account") }
    case ledger.TransactionTypeExpense, ledger.TransactionTypeTransferOut:
        if !t.Amount.IsNeg() { return errs.Invalid("amount", errs.ErrInvalidAmount, string(t.Type)+" amounts are negative") }
        if !hasFrom || hasTo { return errs.Invalid("from_account_id", errs.ErrInvalid, string(t.Type)+" needs only a source account") }
    case ledger.TransactionTypeTransfer:
        if !t.Amount.IsPos() { return errs.Invalid("amount", errs.ErrInvalidAmount, "transfer amounts are positive") }
        if !hasFrom || !hasTo { return errs.Invalid("to_account_id", errs.ErrInvalid, "transfer needs both accounts") }
        if t.FromAccountID == t.ToAccountID { return errs.ErrSameAccount }
    }
    return nil
}

// Add assigns the next id, defaults an empty category to Uncategorized and
// persists the row.
func (s *service) Add(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
    if strings.TrimSpace(t.Category) == "" { t.Category = ledger.Uncategorized }
    if err := s.ValidateTransaction(t); err != nil { return ledger.Transaction{}, err }
    id, err := s.NextID(ctx)
    if err != nil { return ledger.Transaction{}, err }
    t.ID = id
    return s.writer.CreateTransaction(ctx, t)
}

func (s *service) UpdateCategoryOnAllMatching(ctx context.Context, oldName, newName string) (int, error) {
    if strings.TrimSpace(newName) == "" { return 0, errs.Invalid("category", errs.ErrInvalid, "new category name is required") }
    return s.writer.ReplaceCategory(ctx, oldName, newName)
}

func (s *service) UncategorizeAllMatching(ctx context.Context, categoryName string) (int, error) {
    return s.writer.ReplaceCategory(ctx, categoryName, ledger.Uncategorized)
}

func (s *service) RenameAccountEverywhere(ctx context.Context, accountID int, newName string) (int, error) {
    if accountID <= 0 { return 0, errs.Invalid("account_id", errs.ErrInvalid, "must be positive") }
    return s.writer.RenameAccountRefs(ctx, accountID, newName)
}

func (s *service) List(ctx context.Context) ([]ledger.Transaction, error) {
    return s.repo.ListTransactions(ctx)
}

// Query returns matching rows in ledger order (newest first).
func (s *service) Query(ctx context.Context, f Filter) ([]ledger.Transaction, error) {
    if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To.Time) {
        return nil, errs.Invalid("from", errs.ErrInvalidDate, "start date must not be after end date")
    }
    rows, err := s.repo.ListTransactions(ctx)
    if err != nil { return nil, err }
    out := make([]ledger.Transaction, 0, len(rows))
    for _, t := range rows {
        if f.match(t) { out = append(out, t) }
    }
    return out, nil
}
