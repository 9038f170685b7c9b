package report_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/govalues/decimal"

	"github.com/tinoosan/pocketledger/internal/errs"
	"github.com/tinoosan/pocketledger/internal/ledger"
	"github.com/tinoosan/pocketledger/internal/service/book"
	"github.com/tinoosan/pocketledger/internal/service/report"
	"github.com/tinoosan/pocketledger/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.MustParse(s) }

// seed builds a small ledger in January 2024.
func seed(t *testing.T) (book.Service, report.Service) {
	t.Helper()
	ctx := context.Background()
	b := book.New(memory.New(), book.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := b.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	for _, c := range []struct {
		t    ledger.CategoryType
		name string
	}{{ledger.CategoryTypeIncome, "Salary"}, {ledger.CategoryTypeExpense, "Rent"}, {ledger.CategoryTypeExpense, "Food"}} {
		if _, err := b.AddCategory(ctx, c.t, c.name); err != nil {
			t.Fatalf("category: %v", err)
		}
	}
	if _, err := b.CreateGoal(ctx, "Bike", dec("400"), decimal.Zero, ""); err != nil {
		t.Fatalf("goal: %v", err)
	}
	steps := []func() error{
		func() error {
			_, err := b.RecordIncome(ctx, book.IncomeRequest{Date: ledger.NewDate(2024, 1, 1), Amount: dec("1000"), Account: "Main", Category: "Salary"})
			return err
		},
		func() error {
			_, err := b.RecordExpense(ctx, book.ExpenseRequest{Date: ledger.NewDate(2024, 1, 2), Amount: dec("600"), Account: "Main", Category: "Rent"})
			return err
		},
		func() error {
			_, err := b.RecordExpense(ctx, book.ExpenseRequest{Date: ledger.NewDate(2024, 1, 3), Amount: dec("20.50"), Account: "Main", Category: "Food"})
			return err
		},
		func() error {
			_, err := b.RecordExpense(ctx, book.ExpenseRequest{Date: ledger.NewDate(2024, 1, 20), Amount: dec("9.50"), Account: "Main", Category: "Food"})
			return err
		},
		func() error {
			_, err := b.RecordTransfer(ctx, book.TransferRequest{Date: ledger.NewDate(2024, 1, 15), Amount: dec("100"), From: "Main", To: "Bike"})
			return err
		},
		func() error {
			_, err := b.RecordIncome(ctx, book.IncomeRequest{Date: ledger.NewDate(2024, 2, 1), Amount: dec("5"), Account: "Main"})
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	r, err := report.New(b, "EUR")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	return b, r
}

var (
	jan1  = ledger.NewDate(2024, 1, 1)
	jan31 = ledger.NewDate(2024, 1, 31)
)

func TestOverview(t *testing.T) {
	ctx := context.Background()
	_, r := seed(t)
	cases := []struct {
		kind  report.Kind
		rows  int
		total string
	}{
		{report.KindIncome, 1, "1000"},
		{report.KindExpense, 3, "-630"},
		{report.KindTransfer, 2, "100"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			o, err := r.Overview(ctx, tc.kind, jan1, jan31)
			if err != nil {
				t.Fatalf("overview: %v", err)
			}
			if len(o.Rows) != tc.rows {
				t.Fatalf("want %d rows, got %d", tc.rows, len(o.Rows))
			}
			if o.Total.Decimal().Cmp(dec(tc.total)) != 0 || o.Total.Curr().Code() != "EUR" {
				t.Fatalf("want total EUR %s, got %s", tc.total, o.Total)
			}
		})
	}
	if _, err := r.Overview(ctx, "refund", jan1, jan31); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("want invalid kind, got %v", err)
	}
}

func TestCategoryOverviewAndDistribution(t *testing.T) {
	ctx := context.Background()
	_, r := seed(t)
	o, err := r.CategoryOverview(ctx, ledger.CategoryTypeExpense, "food", jan1, jan31)
	if err != nil {
		t.Fatalf("category overview: %v", err)
	}
	if len(o.Rows) != 2 || o.Total.Decimal().Cmp(dec("-30")) != 0 {
		t.Fatalf("unexpected food overview: %d rows, total %s", len(o.Rows), o.Total)
	}
	dist, err := r.CategoryDistribution(ctx, ledger.CategoryTypeExpense, jan1, jan31)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(dist) != 2 || dist[0].Category != "Rent" || dist[1].Category != "Food" {
		t.Fatalf("want Rent then Food ascending, got %+v", dist)
	}
}

func TestBalanceSheet(t *testing.T) {
	ctx := context.Background()
	_, r := seed(t)
	bs, err := r.BalanceSheet(ctx, jan1, jan31)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	if bs.Income.Decimal().Cmp(dec("1000")) != 0 || bs.Expenses.Decimal().Cmp(dec("-630")) != 0 || bs.Net.Decimal().Cmp(dec("370")) != 0 {
		t.Fatalf("unexpected totals: %s %s %s", bs.Income, bs.Expenses, bs.Net)
	}
	if len(bs.Rows) != 4 || bs.Rows[0].Date != jan1 || bs.Rows[3].Date != ledger.NewDate(2024, 1, 20) {
		t.Fatalf("rows not oldest first: %+v", bs.Rows)
	}
}

func TestAccountActivityAndGoals(t *testing.T) {
	ctx := context.Background()
	_, r := seed(t)
	act, err := r.AccountActivity(ctx, 1, jan1, jan31)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(act.Rows) != 4+1 || act.Net.Decimal().Cmp(dec("270")) != 0 {
		t.Fatalf("unexpected activity: %d rows, net %s", len(act.Rows), act.Net)
	}
	if _, err := r.AccountActivity(ctx, 42, jan1, jan31); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	goals, err := r.GoalProgress(ctx)
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if len(goals) != 1 || goals[0].Percent.Cmp(dec("25")) != 0 || goals[0].Target.Decimal().Cmp(dec("400")) != 0 {
		t.Fatalf("unexpected goal progress: %+v", goals)
	}
}

func TestNew_RejectsUnknownCurrency(t *testing.T) {
	if _, err := report.New(nil, "ZZZ"); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("want invalid currency, got %v", err)
	}
}

func TestPeriod(t *testing.T) {
	wed := time.Date(2024, time.May, 15, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		kind report.PeriodKind
		from ledger.Date
	}{
		{report.Day, ledger.NewDate(2024, time.May, 15)},
		{report.Week, ledger.NewDate(2024, time.May, 13)},
		{report.Month, ledger.NewDate(2024, time.May, 1)},
		{report.Year, ledger.NewDate(2024, time.January, 1)},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			from, to, err := report.Period(tc.kind, wed)
			if err != nil {
				t.Fatalf("period: %v", err)
			}
			if from != tc.from || to != ledger.NewDate(2024, time.May, 15) {
				t.Fatalf("want %s..15-05-2024, got %s..%s", tc.from, from, to)
			}
		})
	}
	sun := time.Date(2024, time.May, 19, 0, 0, 0, 0, time.UTC)
	if from, _, _ := report.Period(report.Week, sun); from != ledger.NewDate(2024, time.May, 13) {
		t.Fatalf("sunday should belong to the week starting monday 13th, got %s", from)
	}
	if _, _, err := report.Period("fortnight", wed); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("want invalid period, got %v", err)
	}
	if _, _, err := report.Range(ledger.NewDate(2024, 2, 1), ledger.NewDate(2024, 1, 1)); !errors.Is(err, errs.ErrInvalidDate) {
		t.Fatalf("want invalid range, got %v", err)
	}
}
