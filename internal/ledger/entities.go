package ledger

import (
    "strings"

    "github.com/govalues/decimal"
)

// Reserved names and ids shared across the stores.
const (
    // MainAccountName is the permanent account that receives balances of deleted accounts.
    MainAccountName = "Main"
    // UncategorizedID is the id of the fallback category in both category types.
    UncategorizedID = 0
    // Uncategorized is the name of the fallback category.
    Uncategorized = "Uncategorized"
    // TransferCategory tags both legs of a transfer.
    TransferCategory = "Transfer"
    // DeletionTransferNote is the note on the transfer recorded when an account is deleted.
    DeletionTransferNote = "Transfer due to account deletion"
)

// CategoryType separates the income and expense id spaces.
type CategoryType string

const (
    CategoryTypeIncome  CategoryType = "Income"
    CategoryTypeExpense CategoryType = "Expense"
)

// CategoryTypes lists the category groups in storage order.
var CategoryTypes = []CategoryType{CategoryTypeExpense, CategoryTypeIncome}

// ParseCategoryType matches s case-insensitively against the known types.
func ParseCategoryType(s string) (CategoryType, bool) {
    for _, t := range CategoryTypes {
        if strings.EqualFold(strings.TrimSpace(s), string(t)) { return t, true }
    }
    return "", false
}

// TransactionType enumerates the kinds of ledger rows.
type TransactionType string

const (
    TransactionTypeIncome      TransactionType = "Income"
    TransactionTypeExpense     TransactionType = "Expense"
    TransactionTypeTransferOut TransactionType = "Transfer Out"
    TransactionTypeTransferIn  TransactionType = "Transfer In"
    // TransactionTypeTransfer is the single two-sided row written when an
    // account is deleted and its balance moves to Main.
    TransactionTypeTransfer TransactionType = "Transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
    switch t {
    case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransferOut, TransactionTypeTransferIn, TransactionTypeTransfer:
        return true
    }
    return false
}

// Account is a named pot of money. Goal accounts track progress toward GoalAmount.
type Account struct {
    ID      int
    Name    string
    Balance decimal.Decimal
    IsGoal  bool
    // GoalAmount is set only when IsGoal is true.
    GoalAmount *decimal.Decimal
    Note       string
}

// IsMain reports whether a is the reserved Main account.
func (a Account) IsMain() bool { return strings.EqualFold(strings.TrimSpace(a.Name), MainAccountName) }

// Category is a named bucket within one CategoryType.
type Category struct {
    ID   int
    Name string
    Type CategoryType
}

// IsUncategorized reports whether c is the reserved fallback category.
func (c Category) IsUncategorized() bool { return c.ID == UncategorizedID }

// Transaction is one ledger row. Account references are stored as id+name
// pairs; an id of 0 means the slot is empty.
type Transaction struct {
    ID            int
    Type          TransactionType
    Date          Date
    Amount        decimal.Decimal
    Category      string
    FromAccountID int
    FromAccount   string
    ToAccountID   int
    ToAccount     string
    Note          string
}

// Touches reports whether the row references accountID on either side.
func (t Transaction) Touches(accountID int) bool {
    return accountID != 0 && (t.FromAccountID == accountID || t.ToAccountID == accountID)
}

// EffectOn returns the signed change this row applies to accountID's balance.
// One-sided rows already carry a signed amount. A two-sided row debits the
// source and credits the destination by Amount.
func (t Transaction) EffectOn(accountID int) decimal.Decimal {
    if accountID == 0 { return decimal.Zero }
    twoSided := t.FromAccountID != 0 && t.ToAccountID != 0
    switch {
    case twoSided && t.FromAccountID == accountID:
        return t.Amount.Neg()
    case twoSided && t.ToAccountID == accountID:
        return t.Amount
    case t.FromAccountID == accountID || t.ToAccountID == accountID:
        return t.Amount
    }
    return decimal.Zero
}
