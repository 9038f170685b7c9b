package memory

import (
    "github.com/tinoosan/pocketledger/internal/service/account"
    "github.com/tinoosan/pocketledger/internal/service/book"
    "github.com/tinoosan/pocketledger/internal/service/category"
    "github.com/tinoosan/pocketledger/internal/service/journal"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
    // Service layer repos and writers
    _ account.Repo    = (*Store)(nil)
    _ account.Writer  = (*Store)(nil)
    _ category.Repo   = (*Store)(nil)
    _ category.Writer = (*Store)(nil)
    _ journal.Repo    = (*Store)(nil)
    _ journal.Writer  = (*Store)(nil)
    // Unit of work
    _ book.Store      = (*Store)(nil)
    _ book.TxBeginner = (*Store)(nil)
    _ book.Tx         = (*Tx)(nil)
)
