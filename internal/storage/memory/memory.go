// Package memory provides an in-memory implementation used for development and tests.
package memory

import (
    "context"
    "sync"

    "github.com/tinoosan/pocketledger/internal/ledger"
)

// Store is an in-memory implementation of the repositories and writers used
// by the services. It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
    mu sync.RWMutex
    st *State
}

// New constructs a store holding the bootstrap state.
func New() *Store { return &Store{st: NewState()} }

// FromState wraps an existing state. The store takes ownership of st.
func FromState(st *State) *Store {
    if st == nil { st = NewState() }
    return &Store{st: st}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *State {
    s.mu.RLock(); defer s.mu.RUnlock()
    return s.st.Clone()
}

// Reset restores the bootstrap state.
func (s *Store) Reset() {
    s.mu.Lock()
    s.st = NewState()
    s.mu.Unlock()
}

// --- Accounts ---

func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    return s.st.listAccounts(), nil
}

func (s *Store) GetAccount(_ context.Context, id int) (ledger.Account, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    return s.st.getAccount(id)
}

func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.createAccount(a)
}

func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.updateAccount(a)
}

func (s *Store) DeleteAccount(_ context.Context, id int) error {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.deleteAccount(id)
}

// --- Categories ---

func (s *Store) ListCategories(_ context.Context, t ledger.CategoryType) ([]ledger.Category, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    return s.st.listCategories(t), nil
}

func (s *Store) PutCategory(_ context.Context, c ledger.Category) (ledger.Category, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.putCategory(c), nil
}

func (s *Store) DeleteCategory(_ context.Context, t ledger.CategoryType, id int) error {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.deleteCategory(t, id)
}

// --- Transactions ---

func (s *Store) ListTransactions(_ context.Context) ([]ledger.Transaction, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    return s.st.listTransactions(), nil
}

func (s *Store) CreateTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.createTransaction(t), nil
}

func (s *Store) ReplaceCategory(_ context.Context, oldName, newName string) (int, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.replaceCategory(oldName, newName), nil
}

func (s *Store) RenameAccountRefs(_ context.Context, accountID int, name string) (int, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.st.renameAccountRefs(accountID, name), nil
}
