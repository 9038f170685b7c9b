// Package file persists the ledger as three files in a data directory:
// accounts.csv, categories.json and transactions.csv. The working set is held
// in memory and each mutation rewrites the resources it touched.
package file

import (
    "context"
    "errors"
    "fmt"
    "io"
    "io/fs"
    "log/slog"
    "os"
    "path/filepath"
    "sync"

    "github.com/govalues/decimal"

    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/book"
    "github.com/tinoosan/pocketledger/internal/storage/memory"
)

type resource int

const (
    accountsRes resource = iota
    categoriesRes
    transactionsRes
)

// Store embeds the memory store for reads. Every writer stages on a snapshot
// and swaps it in once the touched resources are written.
type Store struct {
    *memory.Store
    dir string
    log *slog.Logger
    // mu orders disk writes; it is always taken before the memory store's lock.
    mu sync.Mutex
}

// Open loads the resources in dir. A missing resource is initialised with
// its default content and written straight away.
func Open(dir string, logger *slog.Logger) (*Store, error) {
    if logger == nil { logger = slog.Default() }
    if err := os.MkdirAll(dir, 0o755); err != nil { return nil, err }
    s := &Store{dir: dir, log: logger}
    st := memory.NewState()

    accounts, err := load(s.path(accountsRes), decodeAccounts)
    switch {
    case errors.Is(err, fs.ErrNotExist):
        st.Accounts = []ledger.Account{{ID: 1, Name: ledger.MainAccountName, Balance: decimal.Zero}}
        if err := s.write(st, accountsRes); err != nil { return nil, err }
        logger.Info("initialised resource", "file", AccountsFile)
    case err != nil:
        return nil, err
    default:
        st.Accounts = accounts
    }

    cats, err := load(s.path(categoriesRes), decodeCategories)
    switch {
    case errors.Is(err, fs.ErrNotExist):
        if err := s.write(st, categoriesRes); err != nil { return nil, err }
        logger.Info("initialised resource", "file", CategoriesFile)
    case err != nil:
        return nil, err
    default:
        st.Categories = cats
    }

    rows, err := load(s.path(transactionsRes), decodeTransactions)
    switch {
    case errors.Is(err, fs.ErrNotExist):
        if err := s.write(st, transactionsRes); err != nil { return nil, err }
        logger.Info("initialised resource", "file", TransactionsFile)
    case err != nil:
        return nil, err
    default:
        st.Transactions = rows
    }

    s.Store = memory.FromState(st)
    return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func load[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
    var zero T
    f, err := os.Open(path)
    if err != nil { return zero, err }
    defer f.Close()
    v, err := decode(f)
    if err != nil { return zero, fmt.Errorf("%s: %w", filepath.Base(path), err) }
    return v, nil
}

func (s *Store) path(r resource) string {
    switch r {
    case accountsRes:
        return filepath.Join(s.dir, AccountsFile)
    case categoriesRes:
        return filepath.Join(s.dir, CategoriesFile)
    default:
        return filepath.Join(s.dir, TransactionsFile)
    }
}

// write rewrites the given resources from st.
func (s *Store) write(st *memory.State, which ...resource) error {
    for _, r := range which {
        var err error
        switch r {
        case accountsRes:
            err = writeAtomic(s.path(r), func(w io.Writer) error { return encodeAccounts(w, st.Accounts) })
        case categoriesRes:
            err = writeAtomic(s.path(r), func(w io.Writer) error { return encodeCategories(w, st.Categories) })
        case transactionsRes:
            err = writeAtomic(s.path(r), func(w io.Writer) error { return encodeTransactions(w, st.Transactions) })
        }
        if err != nil {
            s.log.Error("persist failed", "file", filepath.Base(s.path(r)), "err", err)
            return err
        }
    }
    return nil
}

// BeginTx stages writes in memory and rewrites all three resources on Commit.
func (s *Store) BeginTx(_ context.Context) (book.Tx, error) {
    tx := s.Store.Begin()
    tx.OnCommit = func(_ context.Context, st *memory.State) error {
        return s.write(st, accountsRes, categoriesRes, transactionsRes)
    }
    return &fileTx{Tx: tx, s: s}, nil
}

type fileTx struct {
    *memory.Tx
    s *Store
}

func (t *fileTx) Commit(ctx context.Context) error {
    t.s.mu.Lock(); defer t.s.mu.Unlock()
    return t.Tx.Commit(ctx)
}

// --- Writers ---

// apply stages one write on a snapshot and swaps it in only after the
// affected resources are on disk, so a failed write leaves memory untouched.
func (s *Store) apply(ctx context.Context, fn func(tx *memory.Tx) error, which ...resource) error {
    s.mu.Lock(); defer s.mu.Unlock()
    tx := s.Store.Begin()
    defer func() { _ = tx.Rollback(ctx) }()
    if err := fn(tx); err != nil { return err }
    tx.OnCommit = func(_ context.Context, st *memory.State) error { return s.write(st, which...) }
    return tx.Commit(ctx)
}

func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
    var out ledger.Account
    err := s.apply(ctx, func(tx *memory.Tx) (err error) {
        out, err = tx.CreateAccount(ctx, a)
        return err
    }, accountsRes)
    if err != nil { return ledger.Account{}, err }
    return out, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
    var out ledger.Account
    err := s.apply(ctx, func(tx *memory.Tx) (err error) {
        out, err = tx.UpdateAccount(ctx, a)
        return err
    }, accountsRes)
    if err != nil { return ledger.Account{}, err }
    return out, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id int) error {
    return s.apply(ctx, func(tx *memory.Tx) error { return tx.DeleteAccount(ctx, id) }, accountsRes)
}

func (s *Store) PutCategory(ctx context.Context, c ledger.Category) (ledger.Category, error) {
    var out ledger.Category
    err := s.apply(ctx, func(tx *memory.Tx) (err error) {
        out, err = tx.PutCategory(ctx, c)
        return err
    }, categoriesRes)
    if err != nil { return ledger.Category{}, err }
    return out, nil
}

func (s *Store) DeleteCategory(ctx context.Context, t ledger.CategoryType, id int) error {
    return s.apply(ctx, func(tx *memory.Tx) error { return tx.DeleteCategory(ctx, t, id) }, categoriesRes)
}

func (s *Store) CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
    var out ledger.Transaction
    err := s.apply(ctx, func(tx *memory.Tx) (err error) {
        out, err = tx.CreateTransaction(ctx, t)
        return err
    }, transactionsRes)
    if err != nil { return ledger.Transaction{}, err }
    return out, nil
}

func (s *Store) ReplaceCategory(ctx context.Context, oldName, newName string) (int, error) {
    var n int
    err := s.apply(ctx, func(tx *memory.Tx) (err error) {
        n, err = tx.ReplaceCategory(ctx, oldName, newName)
        return err
    }, transactionsRes)
    if err != nil { return 0, err }
    return n, nil
}

func (s *Store) RenameAccountRefs(ctx context.Context, accountID int, name string) (int, error) {
    var n int
    err := s.apply(ctx, func(tx *memory.Tx) (err error) {
        n, err = tx.RenameAccountRefs(ctx, accountID, name)
        return err
    }, transactionsRes)
    if err != nil { return 0, err }
    return n, nil
}
