// Package report builds the read-only views over the ledger: overviews by
// type or category, the balance sheet, category distribution, account
// activity and goal progress. Totals are labelled with the configured currency.
package report

import (
    "context"
    "sort"
    "strings"

    "github.com/govalues/decimal"
    "github.com/govalues/money"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/account"
    "github.com/tinoosan/pocketledger/internal/service/journal"
)

// Source is the read side of the ledger the reports draw from.
type Source interface {
    Accounts(ctx context.Context, f account.Filter) ([]ledger.Account, error)
    Account(ctx context.Context, id int) (ledger.Account, error)
    Transactions(ctx context.Context, f journal.Filter) ([]ledger.Transaction, error)
}

// Kind selects the rows of an overview.
type Kind string

const (
    KindIncome   Kind = "income"
    KindExpense  Kind = "expense"
    KindTransfer Kind = "transfer"
)

// Overview lists matching rows and their total.
type Overview struct {
    Kind  Kind
    From  ledger.Date
    To    ledger.Date
    Rows  []ledger.Transaction
    Total money.Amount
}

// BalanceSheet summarises income against expenses. Expenses are negative.
type BalanceSheet struct {
    From     ledger.Date
    To       ledger.Date
    Income   money.Amount
    Expenses money.Amount
    Net      money.Amount
    // Rows are the income and expense rows, oldest first.
    Rows []ledger.Transaction
}

type CategoryTotal struct {
    Category string
    Total    money.Amount
}

// Activity is every row touching one account in a range and their net effect.
type Activity struct {
    Account ledger.Account
    From    ledger.Date
    To      ledger.Date
    Rows    []ledger.Transaction
    Net     money.Amount
}

type GoalProgress struct {
    Account ledger.Account
    Saved   money.Amount
    Target  money.Amount
    // Percent is Saved/Target*100 rounded to two places; it can exceed 100.
    Percent decimal.Decimal
}

type Service interface {
    Overview(ctx context.Context, kind Kind, from, to ledger.Date) (Overview, error)
    CategoryOverview(ctx context.Context, t ledger.CategoryType, category string, from, to ledger.Date) (Overview, error)
    BalanceSheet(ctx context.Context, from, to ledger.Date) (BalanceSheet, error)
    CategoryDistribution(ctx context.Context, t ledger.CategoryType, from, to ledger.Date) ([]CategoryTotal, error)
    AccountActivity(ctx context.Context, accountID int, from, to ledger.Date) (Activity, error)
    GoalProgress(ctx context.Context) ([]GoalProgress, error)
}

type service struct {
    src  Source
    curr money.Currency
}

// New returns a report service labelling totals with currency (an ISO 4217 code).
func New(src Source, currency string) (Service, error) {
    curr, err := money.ParseCurr(currency)
    if err != nil { return nil, errs.Invalid("currency", errs.ErrInvalid, "unknown currency "+currency) }
    return &service{src: src, curr: curr}, nil
}

func (s *service) amount(d decimal.Decimal) (money.Amount, error) {
    return money.ParseAmount(s.curr.Code(), d.String())
}

func (s *service) sum(rows []ledger.Transaction, value func(ledger.Transaction) decimal.Decimal) (money.Amount, error) {
    total := decimal.Zero
    for _, t := range rows {
        var err error
        if total, err = total.Add(value(t)); err != nil { return money.Amount{}, err }
    }
    return s.amount(total)
}

func amountOf(t ledger.Transaction) decimal.Decimal { return t.Amount }

// Overview totals the signed amounts for income and expense. Transfers are
// the rows tagged Transfer and only their positive legs count.
func (s *service) Overview(ctx context.Context, kind Kind, from, to ledger.Date) (Overview, error) {
    f := journal.Filter{From: from, To: to}
    value := amountOf
    switch Kind(strings.ToLower(string(kind))) {
    case KindIncome:
        kind, f.Type = KindIncome, string(ledger.TransactionTypeIncome)
    case KindExpense:
        kind, f.Type = KindExpense, string(ledger.TransactionTypeExpense)
    case KindTransfer:
        kind, f.Category = KindTransfer, ledger.TransferCategory
        value = func(t ledger.Transaction) decimal.Decimal {
            if t.Amount.IsPos() { return t.Amount }
            return decimal.Zero
        }
    default:
        return Overview{}, errs.Invalid("type", errs.ErrInvalid, "overview type must be income, expense or transfer")
    }
    rows, err := s.src.Transactions(ctx, f)
    if err != nil { return Overview{}, err }
    total, err := s.sum(rows, value)
    if err != nil { return Overview{}, err }
    return Overview{Kind: kind, From: from, To: to, Rows: rows, Total: total}, nil
}

func (s *service) CategoryOverview(ctx context.Context, t ledger.CategoryType, category string, from, to ledger.Date) (Overview, error) {
    if strings.TrimSpace(category) == "" { return Overview{}, errs.Invalid("category", errs.ErrInvalid, "category is required") }
    rows, err := s.src.Transactions(ctx, journal.Filter{From: from, To: to, Type: string(t), Category: category})
    if err != nil { return Overview{}, err }
    total, err := s.sum(rows, amountOf)
    if err != nil { return Overview{}, err }
    return Overview{Kind: Kind(strings.ToLower(string(t))), From: from, To: to, Rows: rows, Total: total}, nil
}

func (s *service) BalanceSheet(ctx context.Context, from, to ledger.Date) (BalanceSheet, error) {
    inc, err := s.Overview(ctx, KindIncome, from, to)
    if err != nil { return BalanceSheet{}, err }
    exp, err := s.Overview(ctx, KindExpense, from, to)
    if err != nil { return BalanceSheet{}, err }
    net, err := inc.Total.Add(exp.Total)
    if err != nil { return BalanceSheet{}, err }
    rows := append(append([]ledger.Transaction{}, inc.Rows...), exp.Rows...)
    sort.SliceStable(rows, func(i, j int) bool {
        if !rows[i].Date.Equal(rows[j].Date.Time) { return rows[i].Date.Before(rows[j].Date.Time) }
        return rows[i].ID < rows[j].ID
    })
    return BalanceSheet{From: from, To: to, Income: inc.Total, Expenses: exp.Total, Net: net, Rows: rows}, nil
}

// CategoryDistribution sums each category of type t, smallest total first.
func (s *service) CategoryDistribution(ctx context.Context, t ledger.CategoryType, from, to ledger.Date) ([]CategoryTotal, error) {
    if _, ok := ledger.ParseCategoryType(string(t)); !ok {
        return nil, errs.Invalid("type", errs.ErrInvalid, "category type must be Income or Expense")
    }
    rows, err := s.src.Transactions(ctx, journal.Filter{From: from, To: to, Type: string(t)})
    if err != nil { return nil, err }
    sums := map[string]decimal.Decimal{}
    for _, r := range rows {
        if sums[r.Category], err = sums[r.Category].Add(r.Amount); err != nil { return nil, err }
    }
    out := make([]CategoryTotal, 0, len(sums))
    for name, d := range sums {
        a, err := s.amount(d)
        if err != nil { return nil, err }
        out = append(out, CategoryTotal{Category: name, Total: a})
    }
    sort.Slice(out, func(i, j int) bool {
        if c := out[i].Total.Decimal().Cmp(out[j].Total.Decimal()); c != 0 { return c < 0 }
        return out[i].Category < out[j].Category
    })
    return out, nil
}

func (s *service) AccountActivity(ctx context.Context, accountID int, from, to ledger.Date) (Activity, error) {
    acc, err := s.src.Account(ctx, accountID)
    if err != nil { return Activity{}, err }
    rows, err := s.src.Transactions(ctx, journal.Filter{From: from, To: to, AccountID: accountID})
    if err != nil { return Activity{}, err }
    net, err := s.sum(rows, func(t ledger.Transaction) decimal.Decimal { return t.EffectOn(accountID) })
    if err != nil { return Activity{}, err }
    return Activity{Account: acc, From: from, To: to, Rows: rows, Net: net}, nil
}

func (s *service) GoalProgress(ctx context.Context) ([]GoalProgress, error) {
    goals, err := s.src.Accounts(ctx, account.Goals)
    if err != nil { return nil, err }
    out := make([]GoalProgress, 0, len(goals))
    for _, g := range goals {
        target := decimal.Zero
        if g.GoalAmount != nil { target = *g.GoalAmount }
        p := GoalProgress{Account: g, Percent: decimal.Zero}
        if p.Saved, err = s.amount(g.Balance); err != nil { return nil, err }
        if p.Target, err = s.amount(target); err != nil { return nil, err }
        if target.IsPos() {
            ratio, err := g.Balance.Quo(target)
            if err != nil { return nil, err }
            pct, err := ratio.Mul(decimal.MustNew(100, 0))
            if err != nil { return nil, err }
            p.Percent = pct.Round(2)
        }
        out = append(out, p)
    }
    return out, nil
}
