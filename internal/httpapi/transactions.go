package httpapi

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/journal"
)

func (s *Server) recordIncome(w http.ResponseWriter, r *http.Request) {
    var req incomeRequest
    if !decodeJSON(w, r, &req) { return }
    in, err := req.toBook()
    if err != nil { s.serviceError(w, r, err); return }
    t, err := s.book.RecordIncome(r.Context(), in)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) recordExpense(w http.ResponseWriter, r *http.Request) {
    var req expenseRequest
    if !decodeJSON(w, r, &req) { return }
    in, err := req.toBook()
    if err != nil { s.serviceError(w, r, err); return }
    t, err := s.book.RecordExpense(r.Context(), in)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) recordTransfer(w http.ResponseWriter, r *http.Request) {
    var req transferRequest
    if !decodeJSON(w, r, &req) { return }
    in, err := req.toBook()
    if err != nil { s.serviceError(w, r, err); return }
    res, err := s.book.RecordTransfer(r.Context(), in)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusCreated, transferResponse{Out: toTransactionResponse(res.Out), In: toTransactionResponse(res.In)})
}

// listTransactions filters the ledger by optional from, to, type, category
// and account_id query parameters. Rows come back newest first.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    var f journal.Filter
    var err error
    if f.From, err = optionalDate(q.Get("from")); err != nil { s.serviceError(w, r, err); return }
    if f.To, err = optionalDate(q.Get("to")); err != nil { s.serviceError(w, r, err); return }
    if raw := strings.TrimSpace(q.Get("type")); raw != "" {
        t, ok := parseTransactionType(raw)
        if !ok { badRequest(w, "unknown transaction type "+strconv.Quote(raw)); return }
        f.Type = t
    }
    f.Category = strings.TrimSpace(q.Get("category"))
    if raw := q.Get("account_id"); raw != "" {
        id, perr := strconv.Atoi(raw)
        if perr != nil || id <= 0 { badRequest(w, "account_id must be a positive integer"); return }
        f.AccountID = id
    }
    rows, err := s.book.Transactions(r.Context(), f)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toTransactionResponses(rows))
}

// parseTransactionType accepts the stored names case-insensitively, with
// underscores or hyphens in place of spaces ("transfer_out").
func parseTransactionType(s string) (string, bool) {
    norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
    for _, t := range []ledger.TransactionType{
        ledger.TransactionTypeIncome, ledger.TransactionTypeExpense,
        ledger.TransactionTypeTransferOut, ledger.TransactionTypeTransferIn, ledger.TransactionTypeTransfer,
    } {
        if strings.EqualFold(norm, string(t)) { return string(t), true }
    }
    return "", false
}
