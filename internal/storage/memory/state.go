package memory

import (
    "fmt"
    "sort"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
)

// State is the full content of the three resources. It is exported so the
// file backend can load and dump it without going through the writers.
type State struct {
    // Accounts in creation order.
    Accounts []ledger.Account
    // Categories maps type -> id -> name.
    Categories map[ledger.CategoryType]map[int]string
    // Transactions newest date first; within a date, newest insertion first.
    Transactions []ledger.Transaction
}

// NewState returns the bootstrap content: no rows and the Uncategorized entry
// in both category types. Main is created by the account service.
func NewState() *State {
    st := &State{Categories: map[ledger.CategoryType]map[int]string{}}
    for _, t := range ledger.CategoryTypes {
        st.Categories[t] = map[int]string{ledger.UncategorizedID: ledger.Uncategorized}
    }
    return st
}

// Clone returns a deep copy.
func (st *State) Clone() *State {
    out := &State{
        Accounts:     make([]ledger.Account, len(st.Accounts)),
        Categories:   make(map[ledger.CategoryType]map[int]string, len(st.Categories)),
        Transactions: make([]ledger.Transaction, len(st.Transactions)),
    }
    for i, a := range st.Accounts { out.Accounts[i] = copyAccount(a) }
    for t, m := range st.Categories {
        cp := make(map[int]string, len(m))
        for id, name := range m { cp[id] = name }
        out.Categories[t] = cp
    }
    copy(out.Transactions, st.Transactions)
    return out
}

func copyAccount(a ledger.Account) ledger.Account {
    if a.GoalAmount != nil {
        g := *a.GoalAmount
        a.GoalAmount = &g
    }
    return a
}

func (st *State) listAccounts() []ledger.Account {
    out := make([]ledger.Account, len(st.Accounts))
    for i, a := range st.Accounts { out[i] = copyAccount(a) }
    return out
}

func (st *State) accountIndex(id int) int {
    for i, a := range st.Accounts {
        if a.ID == id { return i }
    }
    return -1
}

func (st *State) getAccount(id int) (ledger.Account, error) {
    i := st.accountIndex(id)
    if i < 0 { return ledger.Account{}, fmt.Errorf("account %d: %w", id, errs.ErrNotFound) }
    return copyAccount(st.Accounts[i]), nil
}

func (st *State) createAccount(a ledger.Account) (ledger.Account, error) {
    if st.accountIndex(a.ID) >= 0 { return ledger.Account{}, fmt.Errorf("account %d: %w", a.ID, errs.ErrConflict) }
    st.Accounts = append(st.Accounts, copyAccount(a))
    return a, nil
}

func (st *State) updateAccount(a ledger.Account) (ledger.Account, error) {
    i := st.accountIndex(a.ID)
    if i < 0 { return ledger.Account{}, fmt.Errorf("account %d: %w", a.ID, errs.ErrNotFound) }
    st.Accounts[i] = copyAccount(a)
    return a, nil
}

func (st *State) deleteAccount(id int) error {
    i := st.accountIndex(id)
    if i < 0 { return fmt.Errorf("account %d: %w", id, errs.ErrNotFound) }
    st.Accounts = append(st.Accounts[:i], st.Accounts[i+1:]...)
    return nil
}

func (st *State) listCategories(t ledger.CategoryType) []ledger.Category {
    m := st.Categories[t]
    out := make([]ledger.Category, 0, len(m))
    for id, name := range m { out = append(out, ledger.Category{ID: id, Name: name, Type: t}) }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out
}

func (st *State) putCategory(c ledger.Category) ledger.Category {
    if st.Categories == nil { st.Categories = map[ledger.CategoryType]map[int]string{} }
    if st.Categories[c.Type] == nil { st.Categories[c.Type] = map[int]string{} }
    st.Categories[c.Type][c.ID] = c.Name
    return c
}

func (st *State) deleteCategory(t ledger.CategoryType, id int) error {
    if _, ok := st.Categories[t][id]; !ok { return fmt.Errorf("%s category %d: %w", t, id, errs.ErrNotFound) }
    delete(st.Categories[t], id)
    return nil
}

func (st *State) listTransactions() []ledger.Transaction {
    out := make([]ledger.Transaction, len(st.Transactions))
    copy(out, st.Transactions)
    return out
}

// createTransaction inserts t ahead of every row on the same or an earlier date.
func (st *State) createTransaction(t ledger.Transaction) ledger.Transaction {
    i := sort.Search(len(st.Transactions), func(i int) bool { return !st.Transactions[i].Date.After(t.Date.Time) })
    st.Transactions = append(st.Transactions, ledger.Transaction{})
    copy(st.Transactions[i+1:], st.Transactions[i:])
    st.Transactions[i] = t
    return t
}

func (st *State) replaceCategory(oldName, newName string) int {
    n := 0
    for i := range st.Transactions {
        if st.Transactions[i].Category == oldName {
            st.Transactions[i].Category = newName
            n++
        }
    }
    return n
}

func (st *State) renameAccountRefs(id int, name string) int {
    n := 0
    for i := range st.Transactions {
        t := &st.Transactions[i]
        touched := false
        if t.FromAccountID == id { t.FromAccount, touched = name, true }
        if t.ToAccountID == id { t.ToAccount, touched = name, true }
        if touched { n++ }
    }
    return n
}
