package book

import (
    "context"
    "errors"

    "github.com/google/uuid"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"

    "github.com/tinoosan/pocketledger/internal/errs"
)

var operationsTotal = promauto.NewCounterVec(
    prometheus.CounterOpts{
        Namespace: "pocketledger",
        Name:      "book_operations_total",
        Help:      "Compound ledger operations by outcome",
    },
    []string{"op", "outcome"},
)

// refusals are outcomes the caller caused; anything else is a fault.
var refusals = []error{
    errs.ErrNotFound, errs.ErrConflict, errs.ErrInvalid, errs.ErrInvalidAmount, errs.ErrInvalidDate,
    errs.ErrMainAccount, errs.ErrMainMissing, errs.ErrSameAccount, errs.ErrProtectedCategory, errs.ErrOverdraft,
}

func isRefusal(err error) bool {
    for _, r := range refusals {
        if errors.Is(err, r) { return true }
    }
    return false
}

// run executes fn as one unit of work and logs the outcome under a fresh op_id.
// fn returns the log attributes describing what it changed.
func (s *service) run(ctx context.Context, op string, fn func(u units) ([]any, error)) error {
    opID := uuid.New().String()
    attrs, err := s.withTx(ctx, fn)
    switch {
    case err == nil:
        operationsTotal.WithLabelValues(op, "ok").Inc()
        s.log.Info("ledger op", append([]any{"op", op, "op_id", opID}, attrs...)...)
    case isRefusal(err):
        operationsTotal.WithLabelValues(op, "refused").Inc()
        s.log.Warn("ledger op refused", "op", op, "op_id", opID, "err", err)
    default:
        operationsTotal.WithLabelValues(op, "error").Inc()
        s.log.Error("ledger op failed", "op", op, "op_id", opID, "err", err)
    }
    return err
}

// withTx stages fn's writes in a backend transaction when the store offers
// one and commits once. Stores without transactions run fn directly.
func (s *service) withTx(ctx context.Context, fn func(u units) ([]any, error)) ([]any, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    tb, ok := s.store.(TxBeginner)
    if !ok { return fn(bind(s.store)) }
    tx, err := tb.BeginTx(ctx)
    if err != nil { return nil, err }
    defer func() { _ = tx.Rollback(ctx) }()
    attrs, err := fn(bind(tx))
    if err != nil { return nil, err }
    if err := tx.Commit(ctx); err != nil { return nil, err }
    return attrs, nil
}
