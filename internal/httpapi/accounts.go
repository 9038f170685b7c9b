package httpapi

import (
    "net/http"
    "strconv"
    "strings"

    chi "github.com/go-chi/chi/v5"

    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/account"
)

// pathID reads a positive integer URL parameter, writing 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
    id, err := strconv.Atoi(chi.URLParam(r, name))
    if err != nil || id < 0 {
        badRequest(w, name+" must be a non-negative integer")
        return 0, false
    }
    return id, true
}

func parseAccountKind(s string) (account.Filter, bool) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "", "all":
        return account.All, true
    case "regular":
        return account.Regular, true
    case "goal", "goals":
        return account.Goals, true
    }
    return 0, false
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
    kind, ok := parseAccountKind(r.URL.Query().Get("kind"))
    if !ok { badRequest(w, "kind must be all, regular or goal"); return }
    accounts, err := s.book.Accounts(r.Context(), kind)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toAccountResponses(accounts))
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
    var req createAccountRequest
    if !decodeJSON(w, r, &req) { return }
    opening, err := parseBalance(req.Balance)
    if err != nil { s.serviceError(w, r, err); return }

    var acc ledger.Account
    if req.IsGoal {
        goal, perr := ledger.ParseAmount(req.GoalAmount)
        if perr != nil { s.serviceError(w, r, perr); return }
        acc, err = s.book.CreateGoal(r.Context(), req.Name, goal, opening, req.Note)
    } else {
        acc, err = s.book.CreateAccount(r.Context(), req.Name, opening, req.Note)
    }
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusCreated, toAccountResponse(acc))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r, "id")
    if !ok { return }
    acc, err := s.book.Account(r.Context(), id)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (s *Server) renameAccount(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r, "id")
    if !ok { return }
    var req renameRequest
    if !decodeJSON(w, r, &req) { return }
    acc, err := s.book.RenameAccount(r.Context(), id, req.Name)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r, "id")
    if !ok { return }
    res, err := s.book.DeleteAccount(r.Context(), id)
    if err != nil { s.serviceError(w, r, err); return }
    out := deleteAccountResponse{Account: toAccountResponse(res.Account)}
    if res.Transfer != nil {
        t := toTransactionResponse(*res.Transfer)
        out.Transfer = &t
    }
    toJSON(w, http.StatusOK, out)
}

func (s *Server) accountBalance(w http.ResponseWriter, r *http.Request) {
    name := chi.URLParam(r, "name")
    bal, err := s.book.Balance(r.Context(), name)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, balanceResponse{Account: name, Balance: bal.String()})
}

// wouldOverdraw answers the confirmation question a client asks before
// submitting an expense or transfer with allow_overdraft.
func (s *Server) wouldOverdraw(w http.ResponseWriter, r *http.Request) {
    name := chi.URLParam(r, "name")
    amount, err := ledger.ParseAmount(r.URL.Query().Get("amount"))
    if err != nil { s.serviceError(w, r, err); return }
    over, err := s.book.WouldOverdraw(r.Context(), name, amount)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, overdrawResponse{Account: name, Amount: amount.String(), WouldOverdraw: over})
}
