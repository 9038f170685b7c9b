package memory

import (
    "context"
    "errors"

    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/book"
)

// ErrTxDone is returned by writes on a committed or rolled back transaction.
var ErrTxDone = errors.New("memory: transaction already finished")

// Tx works on a private copy of the store's state and swaps it in on Commit.
// Writers are expected to be serialised by the caller; a Tx committed after a
// concurrent write overwrites that write.
type Tx struct {
    store *Store
    st    *State
    done  bool
    // OnCommit, when set, runs with the committed state while the store lock
    // is held. An error aborts the commit and leaves the store untouched.
    OnCommit func(ctx context.Context, st *State) error
}

// Begin starts a transaction on a snapshot of the current state.
func (s *Store) Begin() *Tx { return &Tx{store: s, st: s.Snapshot()} }

// BeginTx implements book.TxBeginner.
func (s *Store) BeginTx(_ context.Context) (book.Tx, error) { return s.Begin(), nil }

func (t *Tx) Commit(ctx context.Context) error {
    if t.done { return ErrTxDone }
    t.store.mu.Lock(); defer t.store.mu.Unlock()
    if t.OnCommit != nil {
        if err := t.OnCommit(ctx, t.st); err != nil { return err }
    }
    t.store.st = t.st
    t.done = true
    return nil
}

func (t *Tx) Rollback(_ context.Context) error {
    t.done = true
    return nil
}

func (t *Tx) ListAccounts(_ context.Context) ([]ledger.Account, error) { return t.st.listAccounts(), nil }

func (t *Tx) GetAccount(_ context.Context, id int) (ledger.Account, error) { return t.st.getAccount(id) }

func (t *Tx) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
    if t.done { return ledger.Account{}, ErrTxDone }
    return t.st.createAccount(a)
}

func (t *Tx) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
    if t.done { return ledger.Account{}, ErrTxDone }
    return t.st.updateAccount(a)
}

func (t *Tx) DeleteAccount(_ context.Context, id int) error {
    if t.done { return ErrTxDone }
    return t.st.deleteAccount(id)
}

func (t *Tx) ListCategories(_ context.Context, ct ledger.CategoryType) ([]ledger.Category, error) {
    return t.st.listCategories(ct), nil
}

func (t *Tx) PutCategory(_ context.Context, c ledger.Category) (ledger.Category, error) {
    if t.done { return ledger.Category{}, ErrTxDone }
    return t.st.putCategory(c), nil
}

func (t *Tx) DeleteCategory(_ context.Context, ct ledger.CategoryType, id int) error {
    if t.done { return ErrTxDone }
    return t.st.deleteCategory(ct, id)
}

func (t *Tx) ListTransactions(_ context.Context) ([]ledger.Transaction, error) {
    return t.st.listTransactions(), nil
}

func (t *Tx) CreateTransaction(_ context.Context, tr ledger.Transaction) (ledger.Transaction, error) {
    if t.done { return ledger.Transaction{}, ErrTxDone }
    return t.st.createTransaction(tr), nil
}

func (t *Tx) ReplaceCategory(_ context.Context, oldName, newName string) (int, error) {
    if t.done { return 0, ErrTxDone }
    return t.st.replaceCategory(oldName, newName), nil
}

func (t *Tx) RenameAccountRefs(_ context.Context, accountID int, name string) (int, error) {
    if t.done { return 0, ErrTxDone }
    return t.st.renameAccountRefs(accountID, name), nil
}
