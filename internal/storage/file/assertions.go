package file

import "github.com/tinoosan/pocketledger/internal/service/book"

var (
    _ book.Store      = (*Store)(nil)
    _ book.TxBeginner = (*Store)(nil)
    _ book.Tx         = (*fileTx)(nil)
)
