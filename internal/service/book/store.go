package book

import (
    "context"

    "github.com/tinoosan/pocketledger/internal/service/account"
    "github.com/tinoosan/pocketledger/internal/service/category"
    "github.com/tinoosan/pocketledger/internal/service/journal"
)

// Store is the union of the three resources the facade coordinates.
type Store interface {
    account.Repo
    account.Writer
    category.Repo
    category.Writer
    journal.Repo
    journal.Writer
}

// Tx stages writes against a Store until Commit. Rollback after Commit is a no-op.
type Tx interface {
    Store
    Commit(ctx context.Context) error
    Rollback(ctx context.Context) error
}

// TxBeginner is implemented by backends that can group the writes of one
// compound operation into a single unit of work.
type TxBeginner interface {
    BeginTx(ctx context.Context) (Tx, error)
}
