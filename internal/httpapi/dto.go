package httpapi

import (
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/govalues/decimal"
    "github.com/govalues/money"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/book"
    "github.com/tinoosan/pocketledger/internal/service/report"
)

var validate = newValidator()

// newValidator registers the ledger-specific tags: amount (positive, two
// places), balance (non-negative, two places) and ledgerdate (DD-MM-YYYY).
// Field names in errors follow the json tags.
func newValidator() *validator.Validate {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" { return "" }
        return name
    })
    _ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
        _, err := ledger.ParseAmount(fl.Field().String())
        return err == nil
    })
    _ = v.RegisterValidation("balance", func(fl validator.FieldLevel) bool {
        _, err := parseBalance(fl.Field().String())
        return err == nil
    })
    _ = v.RegisterValidation("ledgerdate", func(fl validator.FieldLevel) bool {
        _, err := ledger.ParseDate(fl.Field().String())
        return err == nil
    })
    return v
}

// parseBalance accepts an opening balance: empty means zero.
func parseBalance(s string) (decimal.Decimal, error) {
    s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
    if s == "" { return decimal.Zero, nil }
    d, err := decimal.Parse(s)
    if err != nil || d.IsNeg() || d.Trim(0).Scale() > ledger.MaxAmountScale {
        return decimal.Decimal{}, errs.Invalid("balance", errs.ErrInvalidAmount, "must be a non-negative amount with at most two decimal places")
    }
    return d, nil
}

// optionalDate parses s, leaving the zero Date for an empty string.
func optionalDate(s string) (ledger.Date, error) {
    if strings.TrimSpace(s) == "" { return ledger.Date{}, nil }
    return ledger.ParseDate(s)
}

// Requests

type createAccountRequest struct {
    Name       string `json:"name" validate:"required,max=100"`
    Balance    string `json:"balance" validate:"omitempty,balance"`
    IsGoal     bool   `json:"is_goal"`
    GoalAmount string `json:"goal_amount" validate:"required_if=IsGoal true,omitempty,amount"`
    Note       string `json:"note" validate:"max=500"`
}

type renameRequest struct {
    Name string `json:"name" validate:"required,max=100"`
}

type categoryRequest struct {
    Name string `json:"name" validate:"required,max=100"`
}

type incomeRequest struct {
    Date     string `json:"date" validate:"omitempty,ledgerdate"`
    Amount   string `json:"amount" validate:"required,amount"`
    Account  string `json:"account" validate:"required"`
    Category string `json:"category"`
    Note     string `json:"note" validate:"max=500"`
}

type expenseRequest struct {
    Date           string `json:"date" validate:"omitempty,ledgerdate"`
    Amount         string `json:"amount" validate:"required,amount"`
    Account        string `json:"account" validate:"required"`
    Category       string `json:"category"`
    Note           string `json:"note" validate:"max=500"`
    AllowOverdraft bool   `json:"allow_overdraft"`
}

type transferRequest struct {
    Date           string `json:"date" validate:"omitempty,ledgerdate"`
    Amount         string `json:"amount" validate:"required,amount"`
    From           string `json:"from" validate:"required"`
    To             string `json:"to" validate:"required"`
    Note           string `json:"note" validate:"max=500"`
    AllowOverdraft bool   `json:"allow_overdraft"`
}

// The validator has already accepted the amount and date strings, so the
// conversions below only fail on values it let through as empty.

func (req incomeRequest) toBook() (book.IncomeRequest, error) {
    amount, err := ledger.ParseAmount(req.Amount)
    if err != nil { return book.IncomeRequest{}, err }
    date, err := optionalDate(req.Date)
    if err != nil { return book.IncomeRequest{}, err }
    return book.IncomeRequest{Date: date, Amount: amount, Account: req.Account, Category: req.Category, Note: req.Note}, nil
}

func (req expenseRequest) toBook() (book.ExpenseRequest, error) {
    amount, err := ledger.ParseAmount(req.Amount)
    if err != nil { return book.ExpenseRequest{}, err }
    date, err := optionalDate(req.Date)
    if err != nil { return book.ExpenseRequest{}, err }
    return book.ExpenseRequest{
        Date: date, Amount: amount, Account: req.Account, Category: req.Category,
        Note: req.Note, AllowOverdraft: req.AllowOverdraft,
    }, nil
}

func (req transferRequest) toBook() (book.TransferRequest, error) {
    amount, err := ledger.ParseAmount(req.Amount)
    if err != nil { return book.TransferRequest{}, err }
    date, err := optionalDate(req.Date)
    if err != nil { return book.TransferRequest{}, err }
    return book.TransferRequest{
        Date: date, Amount: amount, From: req.From, To: req.To,
        Note: req.Note, AllowOverdraft: req.AllowOverdraft,
    }, nil
}

// Responses

type accountResponse struct {
    ID         int     `json:"id"`
    Name       string  `json:"name"`
    Balance    string  `json:"balance"`
    IsGoal     bool    `json:"is_goal"`
    GoalAmount *string `json:"goal_amount,omitempty"`
    Note       string  `json:"note,omitempty"`
}

func toAccountResponse(a ledger.Account) accountResponse {
    out := accountResponse{ID: a.ID, Name: a.Name, Balance: a.Balance.String(), IsGoal: a.IsGoal, Note: a.Note}
    if a.GoalAmount != nil {
        g := a.GoalAmount.String()
        out.GoalAmount = &g
    }
    return out
}

func toAccountResponses(as []ledger.Account) []accountResponse {
    out := make([]accountResponse, 0, len(as))
    for _, a := range as { out = append(out, toAccountResponse(a)) }
    return out
}

type categoryResponse struct {
    ID   int    `json:"id"`
    Name string `json:"name"`
    Type string `json:"type"`
}

func toCategoryResponse(c ledger.Category) categoryResponse {
    return categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type)}
}

type categoryChangeResponse struct {
    Before    categoryResponse  `json:"before"`
    After     *categoryResponse `json:"after,omitempty"`
    Rewritten int               `json:"rewritten"`
}

func toCategoryChangeResponse(c book.CategoryChange) categoryChangeResponse {
    out := categoryChangeResponse{Before: toCategoryResponse(c.Before), Rewritten: c.Rewritten}
    if c.After != nil {
        after := toCategoryResponse(*c.After)
        out.After = &after
    }
    return out
}

type transactionResponse struct {
    ID            int    `json:"id"`
    Type          string `json:"type"`
    Date          string `json:"date"`
    Amount        string `json:"amount"`
    Category      string `json:"category"`
    FromAccountID int    `json:"from_account_id,omitempty"`
    FromAccount   string `json:"from_account,omitempty"`
    ToAccountID   int    `json:"to_account_id,omitempty"`
    ToAccount     string `json:"to_account,omitempty"`
    Note          string `json:"note,omitempty"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
    return transactionResponse{
        ID: t.ID, Type: string(t.Type), Date: t.Date.String(), Amount: t.Amount.String(),
        Category: t.Category, FromAccountID: t.FromAccountID, FromAccount: t.FromAccount,
        ToAccountID: t.ToAccountID, ToAccount: t.ToAccount, Note: t.Note,
    }
}

func toTransactionResponses(ts []ledger.Transaction) []transactionResponse {
    out := make([]transactionResponse, 0, len(ts))
    for _, t := range ts { out = append(out, toTransactionResponse(t)) }
    return out
}

type transferResponse struct {
    Out transactionResponse `json:"out"`
    In  transactionResponse `json:"in"`
}

type deleteAccountResponse struct {
    Account  accountResponse      `json:"account"`
    Transfer *transactionResponse `json:"transfer,omitempty"`
}

type balanceResponse struct {
    Account string `json:"account"`
    Balance string `json:"balance"`
}

type overdrawResponse struct {
    Account       string `json:"account"`
    Amount        string `json:"amount"`
    WouldOverdraw bool   `json:"would_overdraw"`
}

type moneyResponse struct {
    Amount   string `json:"amount"`
    Currency string `json:"currency"`
}

func toMoney(a money.Amount) moneyResponse {
    return moneyResponse{Amount: a.Decimal().String(), Currency: a.Curr().Code()}
}

type overviewResponse struct {
    Kind         string                `json:"kind"`
    From         string                `json:"from"`
    To           string                `json:"to"`
    Total        moneyResponse         `json:"total"`
    Transactions []transactionResponse `json:"transactions"`
}

func toOverviewResponse(o report.Overview) overviewResponse {
    return overviewResponse{
        Kind: string(o.Kind), From: o.From.String(), To: o.To.String(),
        Total: toMoney(o.Total), Transactions: toTransactionResponses(o.Rows),
    }
}

type balanceSheetResponse struct {
    From         string                `json:"from"`
    To           string                `json:"to"`
    Income       moneyResponse         `json:"income"`
    Expenses     moneyResponse         `json:"expenses"`
    Net          moneyResponse         `json:"net"`
    Transactions []transactionResponse `json:"transactions"`
}

type categoryTotalResponse struct {
    Category string        `json:"category"`
    Total    moneyResponse `json:"total"`
}

type activityResponse struct {
    Account      accountResponse       `json:"account"`
    From         string                `json:"from"`
    To           string                `json:"to"`
    Net          moneyResponse         `json:"net"`
    Transactions []transactionResponse `json:"transactions"`
}

type goalProgressResponse struct {
    Account accountResponse `json:"account"`
    Saved   moneyResponse   `json:"saved"`
    Target  moneyResponse   `json:"target"`
    Percent string          `json:"percent"`
}

type driftResponse struct {
    AccountID int    `json:"account_id"`
    Account   string `json:"account"`
    Balance   string `json:"balance"`
    Computed  string `json:"computed"`
    Drift     string `json:"drift"`
}
