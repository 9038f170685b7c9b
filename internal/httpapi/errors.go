package httpapi

import (
    "errors"
    "net/http"
    "strings"

    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/go-playground/validator/v10"

    "github.com/tinoosan/pocketledger/internal/errs"
)

type errorResponse struct {
    Error string `json:"error"`
    Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
    toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "bad_request") }

// statusBySentinel is checked in order; the first match wins. The code in the
// response body is the sentinel's text.
var statusBySentinel = []struct {
    err    error
    status int
}{
    {errs.ErrNotFound, http.StatusNotFound},
    {errs.ErrConflict, http.StatusConflict},
    {errs.ErrMainAccount, http.StatusConflict},
    {errs.ErrMainMissing, http.StatusConflict},
    {errs.ErrProtectedCategory, http.StatusConflict},
    {errs.ErrSameAccount, http.StatusUnprocessableEntity},
    {errs.ErrOverdraft, http.StatusUnprocessableEntity},
    {errs.ErrInvalidAmount, http.StatusBadRequest},
    {errs.ErrInvalidDate, http.StatusBadRequest},
    {errs.ErrInvalid, http.StatusBadRequest},
}

// serviceError maps a service error to a response. Unknown errors are logged
// and reported as 500 without leaking their text.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
    for _, m := range statusBySentinel {
        if errors.Is(err, m.err) {
            writeErr(w, m.status, err.Error(), m.err.Error())
            return
        }
    }
    s.log.Error("request failed", "req_id", chimw.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
    writeErr(w, http.StatusInternalServerError, "internal error", "internal")
}

// validationFailed reports every failed DTO field in one response.
func validationFailed(w http.ResponseWriter, err error) {
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        badRequest(w, err.Error())
        return
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        msgs = append(msgs, fe.Field()+": failed "+fe.Tag())
    }
    writeErr(w, http.StatusBadRequest, strings.Join(msgs, "; "), "validation_failed")
}
