package httpapi

import (
    "net/http"
    "strings"

    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/report"
)

// reportRange resolves the period query parameter (day, week, month, year)
// or an explicit from/to pair. With neither, the current month is used.
func (s *Server) reportRange(r *http.Request) (ledger.Date, ledger.Date, error) {
    q := r.URL.Query()
    if p := strings.TrimSpace(q.Get("period")); p != "" {
        return report.Period(report.PeriodKind(p), s.now())
    }
    if q.Get("from") == "" && q.Get("to") == "" {
        return report.Period(report.Month, s.now())
    }
    from, err := optionalDate(q.Get("from"))
    if err != nil { return ledger.Date{}, ledger.Date{}, err }
    to, err := optionalDate(q.Get("to"))
    if err != nil { return ledger.Date{}, ledger.Date{}, err }
    return report.Range(from, to)
}

// overview serves the type overview, or the category overview when a
// category is named alongside type=income or type=expense.
func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
    from, to, err := s.reportRange(r)
    if err != nil { s.serviceError(w, r, err); return }
    q := r.URL.Query()
    kind := report.Kind(strings.ToLower(strings.TrimSpace(q.Get("type"))))
    category := strings.TrimSpace(q.Get("category"))

    var o report.Overview
    switch {
    case category != "" && (kind == report.KindIncome || kind == report.KindExpense):
        t, _ := ledger.ParseCategoryType(string(kind))
        o, err = s.reports.CategoryOverview(r.Context(), t, category, from, to)
    case category != "":
        badRequest(w, "category requires type income or expense")
        return
    default:
        o, err = s.reports.Overview(r.Context(), kind, from, to)
    }
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toOverviewResponse(o))
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
    from, to, err := s.reportRange(r)
    if err != nil { s.serviceError(w, r, err); return }
    bs, err := s.reports.BalanceSheet(r.Context(), from, to)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, balanceSheetResponse{
        From: bs.From.String(), To: bs.To.String(),
        Income: toMoney(bs.Income), Expenses: toMoney(bs.Expenses), Net: toMoney(bs.Net),
        Transactions: toTransactionResponses(bs.Rows),
    })
}

// categoryDistribution totals each category of type (default expense) in the range.
func (s *Server) categoryDistribution(w http.ResponseWriter, r *http.Request) {
    raw := r.URL.Query().Get("type")
    if raw == "" { raw = string(ledger.CategoryTypeExpense) }
    t, ok := ledger.ParseCategoryType(raw)
    if !ok { badRequest(w, "type must be income or expense"); return }
    from, to, err := s.reportRange(r)
    if err != nil { s.serviceError(w, r, err); return }
    totals, err := s.reports.CategoryDistribution(r.Context(), t, from, to)
    if err != nil { s.serviceError(w, r, err); return }
    out := make([]categoryTotalResponse, 0, len(totals))
    for _, ct := range totals {
        out = append(out, categoryTotalResponse{Category: ct.Category, Total: toMoney(ct.Total)})
    }
    toJSON(w, http.StatusOK, out)
}

func (s *Server) accountActivity(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r, "id")
    if !ok { return }
    from, to, err := s.reportRange(r)
    if err != nil { s.serviceError(w, r, err); return }
    act, err := s.reports.AccountActivity(r.Context(), id, from, to)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, activityResponse{
        Account: toAccountResponse(act.Account), From: act.From.String(), To: act.To.String(),
        Net: toMoney(act.Net), Transactions: toTransactionResponses(act.Rows),
    })
}

func (s *Server) goalProgress(w http.ResponseWriter, r *http.Request) {
    goals, err := s.reports.GoalProgress(r.Context())
    if err != nil { s.serviceError(w, r, err); return }
    out := make([]goalProgressResponse, 0, len(goals))
    for _, g := range goals {
        out = append(out, goalProgressResponse{
            Account: toAccountResponse(g.Account), Saved: toMoney(g.Saved),
            Target: toMoney(g.Target), Percent: g.Percent.String(),
        })
    }
    toJSON(w, http.StatusOK, out)
}

// audit compares each account's stored balance with the sum of its ledger rows.
func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
    drifts, err := s.book.Audit(r.Context())
    if err != nil { s.serviceError(w, r, err); return }
    out := make([]driftResponse, 0, len(drifts))
    for _, d := range drifts {
        out = append(out, driftResponse{
            AccountID: d.AccountID, Account: d.Account, Balance: d.Balance.String(),
            Computed: d.Computed.String(), Drift: d.Drift.String(),
        })
    }
    toJSON(w, http.StatusOK, out)
}
