// Package book orchestrates the account, category and transaction services
// into the compound operations that must keep balances and ledger rows in step.
package book

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "strings"
    "sync"
    "time"

    "github.com/govalues/decimal"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/account"
    "github.com/tinoosan/pocketledger/internal/service/category"
    "github.com/tinoosan/pocketledger/internal/service/journal"
)

// IncomeRequest credits Account by Amount. An empty Category means Uncategorized.
type IncomeRequest struct {
    Date     ledger.Date
    Amount   decimal.Decimal
    Account  string
    Category string
    Note     string
}

// ExpenseRequest debits Account by Amount. AllowOverdraft confirms a debit
// that leaves the account negative.
type ExpenseRequest struct {
    Date           ledger.Date
    Amount         decimal.Decimal
    Account        string
    Category       string
    Note           string
    AllowOverdraft bool
}

// TransferRequest moves Amount from From to To as two linked rows.
type TransferRequest struct {
    Date           ledger.Date
    Amount         decimal.Decimal
    From           string
    To             string
    Note           string
    AllowOverdraft bool
}

// TransferResult holds the two legs of a transfer.
type TransferResult struct {
    Out ledger.Transaction
    In  ledger.Transaction
}

// DeleteAccountResult is the removed account and, when it held a balance, the
// transfer row that moved the balance to Main.
type DeleteAccountResult struct {
    Account  ledger.Account
    Transfer *ledger.Transaction
}

// CategoryChange reports a renamed or deleted category and how many ledger
// rows the cascade rewrote.
type CategoryChange struct {
    Before    ledger.Category
    After     *ledger.Category
    Rewritten int
}

// Drift compares an account's stored balance with the sum of its ledger effects.
type Drift struct {
    AccountID int
    Account   string
    Balance   decimal.Decimal
    Computed  decimal.Decimal
    Drift     decimal.Decimal
}

// Service is the collaborator-facing API of the ledger core.
type Service interface {
    Bootstrap(ctx context.Context) error

    RecordIncome(ctx context.Context, req IncomeRequest) (ledger.Transaction, error)
    RecordExpense(ctx context.Context, req ExpenseRequest) (ledger.Transaction, error)
    RecordTransfer(ctx context.Context, req TransferRequest) (TransferResult, error)
    WouldOverdraw(ctx context.Context, accountName string, amount decimal.Decimal) (bool, error)

    CreateAccount(ctx context.Context, name string, opening decimal.Decimal, note string) (ledger.Account, error)
    CreateGoal(ctx context.Context, name string, goal, opening decimal.Decimal, note string) (ledger.Account, error)
    RenameAccount(ctx context.Context, id int, newName string) (ledger.Account, error)
    DeleteAccount(ctx context.Context, id int) (DeleteAccountResult, error)

    AddCategory(ctx context.Context, t ledger.CategoryType, name string) (ledger.Category, error)
    RenameCategory(ctx context.Context, t ledger.CategoryType, id int, newName string) (CategoryChange, error)
    DeleteCategory(ctx context.Context, t ledger.CategoryType, id int) (CategoryChange, error)

    Accounts(ctx context.Context, f account.Filter) ([]ledger.Account, error)
    Account(ctx context.Context, id int) (ledger.Account, error)
    Balance(ctx context.Context, name string) (decimal.Decimal, error)
    Categories(ctx context.Context, t ledger.CategoryType) ([]ledger.Category, error)
    Transactions(ctx context.Context, f journal.Filter) ([]ledger.Transaction, error)

    Audit(ctx context.Context) ([]Drift, error)
}

// Options tune the facade. Zero values are usable.
type Options struct {
    // AllowOverdraft skips the negative balance refusal for every debit.
    AllowOverdraft bool
    Logger         *slog.Logger
    // Now supplies the date of deletion transfers and of requests without a date.
    Now func() time.Time
}

type service struct {
    store Store
    opts  Options
    log   *slog.Logger
    // mu serialises compound writes.
    mu sync.Mutex
}

func New(store Store, opts Options) Service {
    if opts.Logger == nil { opts.Logger = slog.Default() }
    if opts.Now == nil { opts.Now = time.Now }
    return &service{store: store, opts: opts, log: opts.Logger}
}

// units binds the three services to one Store or Tx.
type units struct {
    accounts   account.Service
    categories category.Service
    journal    journal.Service
}

func bind(s Store) units {
    return units{accounts: account.New(s, s), categories: category.New(s, s), journal: journal.New(s, s)}
}

func (s *service) today() ledger.Date { return ledger.DateOf(s.opts.Now()) }

func (s *service) Bootstrap(ctx context.Context) error {
    return s.run(ctx, "bootstrap", func(u units) ([]any, error) {
        main, err := u.accounts.EnsureMain(ctx)
        if err != nil {
            if !errors.Is(err, errs.ErrMainMissing) { return nil, err }
            s.log.Warn("no Main account; deleting accounts with a balance will fail")
        }
        if err := u.categories.EnsureUncategorized(ctx); err != nil { return nil, err }
        return []any{"main_id", main.ID}, nil
    })
}

func (s *service) RecordIncome(ctx context.Context, req IncomeRequest) (ledger.Transaction, error) {
    var out ledger.Transaction
    err := s.run(ctx, "record_income", func(u units) ([]any, error) {
        if err := ledger.ValidateAmount(req.Amount); err != nil { return nil, err }
        acc, err := u.accounts.ByName(ctx, req.Account)
        if err != nil { return nil, err }
        cat, err := s.resolveCategory(ctx, u, ledger.CategoryTypeIncome, req.Category)
        if err != nil { return nil, err }
        out, err = u.journal.Add(ctx, ledger.Transaction{
            Type:        ledger.TransactionTypeIncome,
            Date:        s.dateOr(req.Date),
            Amount:      req.Amount,
            Category:    cat,
            ToAccountID: acc.ID,
            ToAccount:   acc.Name,
            Note:        req.Note,
        })
        if err != nil { return nil, err }
        if _, err := u.accounts.UpdateBalance(ctx, acc.Name, req.Amount); err != nil { return nil, err }
        return []any{"txn_id", out.ID, "account", acc.Name, "amount", req.Amount.String()}, nil
    })
    return out, err
}

func (s *service) RecordExpense(ctx context.Context, req ExpenseRequest) (ledger.Transaction, error) {
    var out ledger.Transaction
    err := s.run(ctx, "record_expense", func(u units) ([]any, error) {
        if err := ledger.ValidateAmount(req.Amount); err != nil { return nil, err }
        acc, err := u.accounts.ByName(ctx, req.Account)
        if err != nil { return nil, err }
        debit := req.Amount.Neg()
        if err := s.checkOverdraft(ctx, u, acc.Name, debit, req.AllowOverdraft); err != nil { return nil, err }
        cat, err := s.resolveCategory(ctx, u, ledger.CategoryTypeExpense, req.Category)
        if err != nil { return nil, err }
        out, err = u.journal.Add(ctx, ledger.Transaction{
            Type:          ledger.TransactionTypeExpense,
            Date:          s.dateOr(req.Date),
            Amount:        debit,
            Category:      cat,
            FromAccountID: acc.ID,
            FromAccount:   acc.Name,
            Note:          req.Note,
        })
        if err != nil { return nil, err }
        if _, err := u.accounts.UpdateBalance(ctx, acc.Name, debit); err != nil { return nil, err }
        return []any{"txn_id", out.ID, "account", acc.Name, "amount", debit.String()}, nil
    })
    return out, err
}

func (s *service) RecordTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
    var res TransferResult
    err := s.run(ctx, "record_transfer", func(u units) ([]any, error) {
        if err := ledger.ValidateAmount(req.Amount); err != nil { return nil, err }
        from, err := u.accounts.ByName(ctx, req.From)
        if err != nil { return nil, err }
        to, err := u.accounts.ByName(ctx, req.To)
        if err != nil { return nil, err }
        if from.ID == to.ID { return nil, errs.ErrSameAccount }
        debit := req.Amount.Neg()
        if err := s.checkOverdraft(ctx, u, from.Name, debit, req.AllowOverdraft); err != nil { return nil, err }
        date := s.dateOr(req.Date)
        res.Out, err = u.journal.Add(ctx, ledger.Transaction{
            Type: ledger.TransactionTypeTransferOut, Date: date, Amount: debit, Category: ledger.TransferCategory,
            FromAccountID: from.ID, FromAccount: from.Name, Note: req.Note,
        })
        if err != nil { return nil, err }
        res.In, err = u.journal.Add(ctx, ledger.Transaction{
            Type: ledger.TransactionTypeTransferIn, Date: date, Amount: req.Amount, Category: ledger.TransferCategory,
            ToAccountID: to.ID, ToAccount: to.Name, Note: req.Note,
        })
        if err != nil { return nil, err }
        if _, err := u.accounts.UpdateBalance(ctx, from.Name, debit); err != nil { return nil, err }
        if _, err := u.accounts.UpdateBalance(ctx, to.Name, req.Amount); err != nil { return nil, err }
        return []any{"out_id", res.Out.ID, "in_id", res.In.ID, "from", from.Name, "to", to.Name, "amount", req.Amount.String()}, nil
    })
    return res, err
}

func (s *service) WouldOverdraw(ctx context.Context, accountName string, amount decimal.Decimal) (bool, error) {
    return bind(s.store).accounts.WouldGoNegative(ctx, accountName, amount.Abs().Neg())
}

func (s *service) CreateAccount(ctx context.Context, name string, opening decimal.Decimal, note string) (ledger.Account, error) {
    var out ledger.Account
    err := s.run(ctx, "create_account", func(u units) ([]any, error) {
        var err error
        out, err = u.accounts.Create(ctx, ledger.Account{Name: name, Balance: opening, Note: note})
        if err != nil { return nil, err }
        return []any{"account_id", out.ID, "account", out.Name}, nil
    })
    return out, err
}

func (s *service) CreateGoal(ctx context.Context, name string, goal, opening decimal.Decimal, note string) (ledger.Account, error) {
    var out ledger.Account
    err := s.run(ctx, "create_goal", func(u units) ([]any, error) {
        var err error
        out, err = u.accounts.Create(ctx, ledger.Account{Name: name, Balance: opening, IsGoal: true, GoalAmount: &goal, Note: note})
        if err != nil { return nil, err }
        return []any{"account_id", out.ID, "account", out.Name, "goal", goal.String()}, nil
    })
    return out, err
}

func (s *service) RenameAccount(ctx context.Context, id int, newName string) (ledger.Account, error) {
    var out ledger.Account
    err := s.run(ctx, "rename_account", func(u units) ([]any, error) {
        var err error
        out, err = u.accounts.Rename(ctx, id, newName)
        if err != nil { return nil, err }
        n, err := u.journal.RenameAccountEverywhere(ctx, id, out.Name)
        if err != nil { return nil, err }
        return []any{"account_id", id, "account", out.Name, "rows", n}, nil
    })
    return out, err
}

// DeleteAccount moves any balance to Main through a Transfer row and then
// removes the account. A negative balance is settled by a transfer from Main.
func (s *service) DeleteAccount(ctx context.Context, id int) (DeleteAccountResult, error) {
    var res DeleteAccountResult
    err := s.run(ctx, "delete_account", func(u units) ([]any, error) {
        acc, err := u.accounts.Get(ctx, id)
        if err != nil { return nil, err }
        if acc.IsMain() { return nil, errs.ErrMainAccount }
        if !acc.Balance.IsZero() {
            main, err := u.accounts.Main(ctx)
            if err != nil { return nil, err }
            t := ledger.Transaction{
                Type: ledger.TransactionTypeTransfer, Date: s.today(), Amount: acc.Balance,
                Category: ledger.TransferCategory, Note: ledger.DeletionTransferNote,
                FromAccountID: acc.ID, FromAccount: acc.Name, ToAccountID: main.ID, ToAccount: main.Name,
            }
            if acc.Balance.IsNeg() {
                t.Amount = acc.Balance.Neg()
                t.FromAccountID, t.FromAccount, t.ToAccountID, t.ToAccount = main.ID, main.Name, acc.ID, acc.Name
            }
            t, err = u.journal.Add(ctx, t)
            if err != nil { return nil, err }
            res.Transfer = &t
        }
        res.Account, err = u.accounts.Delete(ctx, id)
        if err != nil { return nil, err }
        return []any{"account_id", id, "account", acc.Name, "moved", acc.Balance.String()}, nil
    })
    return res, err
}

func (s *service) AddCategory(ctx context.Context, t ledger.CategoryType, name string) (ledger.Category, error) {
    var out ledger.Category
    err := s.run(ctx, "add_category", func(u units) ([]any, error) {
        var err error
        out, err = u.categories.Add(ctx, t, name)
        if err != nil { return nil, err }
        return []any{"type", t, "category_id", out.ID, "category", out.Name}, nil
    })
    return out, err
}

// RenameCategory renames the entry first so the old name is still known for
// the ledger rewrite.
func (s *service) RenameCategory(ctx context.Context, t ledger.CategoryType, id int, newName string) (CategoryChange, error) {
    var ch CategoryChange
    err := s.run(ctx, "rename_category", func(u units) ([]any, error) {
        var err error
        ch.Before, err = u.categories.Edit(ctx, t, id, newName)
        if err != nil { return nil, err }
        after, err := u.categories.Get(ctx, t, id)
        if err != nil { return nil, err }
        ch.After = &after
        ch.Rewritten, err = u.journal.UpdateCategoryOnAllMatching(ctx, ch.Before.Name, after.Name)
        if err != nil { return nil, err }
        return []any{"type", t, "category_id", id, "from", ch.Before.Name, "to", after.Name, "rows", ch.Rewritten}, nil
    })
    return ch, err
}

func (s *service) DeleteCategory(ctx context.Context, t ledger.CategoryType, id int) (CategoryChange, error) {
    var ch CategoryChange
    err := s.run(ctx, "delete_category", func(u units) ([]any, error) {
        var err error
        ch.Before, err = u.categories.Delete(ctx, t, id)
        if err != nil { return nil, err }
        ch.Rewritten, err = u.journal.UncategorizeAllMatching(ctx, ch.Before.Name)
        if err != nil { return nil, err }
        return []any{"type", t, "category_id", id, "category", ch.Before.Name, "rows", ch.Rewritten}, nil
    })
    return ch, err
}

func (s *service) Accounts(ctx context.Context, f account.Filter) ([]ledger.Account, error) {
    return bind(s.store).accounts.List(ctx, f)
}

func (s *service) Account(ctx context.Context, id int) (ledger.Account, error) {
    return bind(s.store).accounts.Get(ctx, id)
}

func (s *service) Balance(ctx context.Context, name string) (decimal.Decimal, error) {
    return bind(s.store).accounts.Balance(ctx, name)
}

func (s *service) Categories(ctx context.Context, t ledger.CategoryType) ([]ledger.Category, error) {
    return bind(s.store).categories.List(ctx, t)
}

func (s *service) Transactions(ctx context.Context, f journal.Filter) ([]ledger.Transaction, error) {
    return bind(s.store).journal.Query(ctx, f)
}

// Audit recomputes every balance from the ledger. Accounts opened with a
// balance show that opening amount as drift.
func (s *service) Audit(ctx context.Context) ([]Drift, error) {
    u := bind(s.store)
    accs, err := u.accounts.List(ctx, account.All)
    if err != nil { return nil, err }
    rows, err := u.journal.List(ctx)
    if err != nil { return nil, err }
    out := make([]Drift, 0, len(accs))
    for _, a := range accs {
        computed := decimal.Zero
        for _, t := range rows {
            if !t.Touches(a.ID) { continue }
            if computed, err = computed.Add(t.EffectOn(a.ID)); err != nil { return nil, err }
        }
        drift, err := a.Balance.Sub(computed)
        if err != nil { return nil, err }
        out = append(out, Drift{AccountID: a.ID, Account: a.Name, Balance: a.Balance, Computed: computed, Drift: drift})
    }
    return out, nil
}

func (s *service) dateOr(d ledger.Date) ledger.Date {
    if d.IsZero() { return s.today() }
    return d
}

// resolveCategory returns the stored spelling of name within t, or
// Uncategorized when name is empty.
func (s *service) resolveCategory(ctx context.Context, u units, t ledger.CategoryType, name string) (string, error) {
    if strings.TrimSpace(name) == "" { return ledger.Uncategorized, nil }
    c, err := u.categories.ByName(ctx, t, name)
    if err != nil { return "", err }
    return c.Name, nil
}

func (s *service) checkOverdraft(ctx context.Context, u units, name string, debit decimal.Decimal, allow bool) error {
    if allow || s.opts.AllowOverdraft { return nil }
    neg, err := u.accounts.WouldGoNegative(ctx, name, debit)
    if err != nil { return err }
    if neg { return fmt.Errorf("account %q would go below zero: %w", name, errs.ErrOverdraft) }
    return nil
}
