package book_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/govalues/decimal"

	"github.com/tinoosan/pocketledger/internal/errs"
	"github.com/tinoosan/pocketledger/internal/ledger"
	"github.com/tinoosan/pocketledger/internal/service/account"
	"github.com/tinoosan/pocketledger/internal/service/book"
	"github.com/tinoosan/pocketledger/internal/service/journal"
	"github.com/tinoosan/pocketledger/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newBook(t *testing.T, store book.Store) book.Service {
	t.Helper()
	b := book.New(store, book.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return fixedNow },
	})
	if err := b.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return b
}

func dec(s string) decimal.Decimal { return decimal.MustParse(s) }

func date(t *testing.T, s string) ledger.Date {
	t.Helper()
	d, err := ledger.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func mustBalance(t *testing.T, b book.Service, name, want string) {
	t.Helper()
	got, err := b.Balance(context.Background(), name)
	if err != nil {
		t.Fatalf("balance %s: %v", name, err)
	}
	if got.Cmp(dec(want)) != 0 {
		t.Fatalf("balance %s: want %s got %s", name, want, got)
	}
}

func mustNoDrift(t *testing.T, b book.Service) {
	t.Helper()
	drifts, err := b.Audit(context.Background())
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	for _, d := range drifts {
		if !d.Drift.IsZero() {
			t.Fatalf("account %s drifted: stored %s computed %s", d.Account, d.Balance, d.Computed)
		}
	}
}

func TestBootstrap_SeedsMainAndUncategorized(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	accs, err := b.Accounts(ctx, account.All)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accs) != 1 || accs[0].ID != 1 || accs[0].Name != ledger.MainAccountName || !accs[0].Balance.IsZero() {
		t.Fatalf("unexpected accounts after bootstrap: %+v", accs)
	}
	for _, ct := range ledger.CategoryTypes {
		cats, err := b.Categories(ctx, ct)
		if err != nil {
			t.Fatalf("categories %s: %v", ct, err)
		}
		if len(cats) != 1 || cats[0].ID != 0 || cats[0].Name != ledger.Uncategorized {
			t.Fatalf("unexpected %s categories: %+v", ct, cats)
		}
	}
	// A second bootstrap is a no-op.
	if err := b.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if accs, _ := b.Accounts(ctx, account.All); len(accs) != 1 {
		t.Fatalf("second bootstrap added accounts: %+v", accs)
	}
}

func TestScenarios(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := newBook(t, store)

	// 1. income into Main under a new category
	if _, err := b.AddCategory(ctx, ledger.CategoryTypeIncome, "Salary"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	inc, err := b.RecordIncome(ctx, book.IncomeRequest{Date: date(t, "01-01-2024"), Amount: dec("100.00"), Account: "Main", Category: "Salary"})
	if err != nil {
		t.Fatalf("record income: %v", err)
	}
	if inc.ID != 1 || inc.Type != ledger.TransactionTypeIncome || inc.Category != "Salary" || inc.ToAccount != "Main" || inc.Amount.Cmp(dec("100")) != 0 {
		t.Fatalf("unexpected income row: %+v", inc)
	}
	mustBalance(t, b, "Main", "100.00")

	// 2. expense from Main
	exp, err := b.RecordExpense(ctx, book.ExpenseRequest{Date: date(t, "02-01-2024"), Amount: dec("30.00"), Account: "main", Category: "Uncategorized"})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if exp.Amount.Cmp(dec("-30")) != 0 || exp.FromAccount != "Main" || exp.ToAccountID != 0 {
		t.Fatalf("unexpected expense row: %+v", exp)
	}
	mustBalance(t, b, "Main", "70.00")

	// 3. transfer into a new account
	savings, err := b.CreateAccount(ctx, "Savings", decimal.Zero, "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if savings.ID != 2 {
		t.Fatalf("want savings id 2, got %d", savings.ID)
	}
	tr, err := b.RecordTransfer(ctx, book.TransferRequest{Date: date(t, "03-01-2024"), Amount: dec("50.00"), From: "Main", To: "Savings", Note: "rainy day"})
	if err != nil {
		t.Fatalf("record transfer: %v", err)
	}
	if tr.Out.Type != ledger.TransactionTypeTransferOut || tr.Out.Amount.Cmp(dec("-50")) != 0 || tr.Out.FromAccountID != 1 {
		t.Fatalf("unexpected out leg: %+v", tr.Out)
	}
	if tr.In.Type != ledger.TransactionTypeTransferIn || tr.In.Amount.Cmp(dec("50")) != 0 || tr.In.ToAccountID != savings.ID {
		t.Fatalf("unexpected in leg: %+v", tr.In)
	}
	if tr.Out.Date != tr.In.Date || tr.Out.Note != tr.In.Note || tr.Out.Category != ledger.TransferCategory || tr.In.Category != ledger.TransferCategory {
		t.Fatalf("legs are not paired: %+v / %+v", tr.Out, tr.In)
	}
	mustBalance(t, b, "Main", "20.00")
	mustBalance(t, b, "Savings", "50.00")

	// 4. delete Savings; its balance returns to Main
	del, err := b.DeleteAccount(ctx, savings.ID)
	if err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if del.Transfer == nil {
		t.Fatalf("expected a deletion transfer")
	}
	if del.Transfer.Type != ledger.TransactionTypeTransfer || del.Transfer.FromAccount != "Savings" || del.Transfer.ToAccount != "Main" ||
		del.Transfer.Amount.Cmp(dec("50")) != 0 || del.Transfer.Note != ledger.DeletionTransferNote {
		t.Fatalf("unexpected deletion transfer: %+v", *del.Transfer)
	}
	mustBalance(t, b, "Main", "70.00")
	if _, err := b.Balance(ctx, "Savings"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want savings gone, got %v", err)
	}

	// 5. rename category cascades into the ledger
	ch, err := b.RenameCategory(ctx, ledger.CategoryTypeIncome, 1, "Wages")
	if err != nil {
		t.Fatalf("rename category: %v", err)
	}
	if ch.Rewritten != 1 || ch.Before.Name != "Salary" || ch.After.Name != "Wages" {
		t.Fatalf("unexpected change: %+v", ch)
	}
	rows, err := b.Transactions(ctx, journal.Filter{Type: "income"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 || rows[0].Category != "Wages" {
		t.Fatalf("income row not recategorised: %+v", rows)
	}

	// 6. Main cannot be deleted and nothing changes
	before := store.Snapshot()
	if _, err := b.DeleteAccount(ctx, 1); !errors.Is(err, errs.ErrMainAccount) {
		t.Fatalf("want ErrMainAccount, got %v", err)
	}
	if _, err := b.RenameAccount(ctx, 1, "Primary"); !errors.Is(err, errs.ErrMainAccount) {
		t.Fatalf("want ErrMainAccount on rename, got %v", err)
	}
	if !reflect.DeepEqual(before, store.Snapshot()) {
		t.Fatalf("refused Main operations changed state")
	}

	all, _ := b.Transactions(ctx, journal.Filter{})
	if len(all) != 5 {
		t.Fatalf("want 5 rows, got %d", len(all))
	}
	mustNoDrift(t, b)
}

func TestRecordExpense_Overdraft(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	if _, err := b.CreateAccount(ctx, "Wallet", dec("5"), ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	over, err := b.WouldOverdraw(ctx, "Wallet", dec("10"))
	if err != nil || !over {
		t.Fatalf("want overdraw true, got %v %v", over, err)
	}
	_, err = b.RecordExpense(ctx, book.ExpenseRequest{Amount: dec("10"), Account: "Wallet"})
	if !errors.Is(err, errs.ErrOverdraft) {
		t.Fatalf("want ErrOverdraft, got %v", err)
	}
	mustBalance(t, b, "Wallet", "5")

	got, err := b.RecordExpense(ctx, book.ExpenseRequest{Amount: dec("10"), Account: "Wallet", AllowOverdraft: true})
	if err != nil {
		t.Fatalf("confirmed expense: %v", err)
	}
	if got.Date != ledger.DateOf(fixedNow) {
		t.Fatalf("want default date %s, got %s", ledger.DateOf(fixedNow), got.Date)
	}
	if got.Category != ledger.Uncategorized {
		t.Fatalf("want Uncategorized, got %q", got.Category)
	}
	mustBalance(t, b, "Wallet", "-5")
}

func TestAllowOverdraftOption(t *testing.T) {
	ctx := context.Background()
	b := book.New(memory.New(), book.Options{AllowOverdraft: true, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := b.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := b.CreateAccount(ctx, "Wallet", decimal.Zero, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.RecordTransfer(ctx, book.TransferRequest{Amount: dec("1"), From: "Main", To: "Wallet"}); err != nil {
		t.Fatalf("transfer with overdraft allowed: %v", err)
	}
	mustBalance(t, b, "Main", "-1")
}

func TestRecordTransfer_Refusals(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	if _, err := b.CreateAccount(ctx, "Savings", dec("10"), ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	cases := []struct {
		name string
		req  book.TransferRequest
		want error
	}{
		{"same account", book.TransferRequest{Amount: dec("1"), From: "Savings", To: "savings"}, errs.ErrSameAccount},
		{"zero amount", book.TransferRequest{Amount: decimal.Zero, From: "Savings", To: "Main"}, errs.ErrInvalidAmount},
		{"three decimals", book.TransferRequest{Amount: dec("1.005"), From: "Savings", To: "Main"}, errs.ErrInvalidAmount},
		{"unknown source", book.TransferRequest{Amount: dec("1"), From: "Nope", To: "Main"}, errs.ErrNotFound},
		{"overdraft", book.TransferRequest{Amount: dec("11"), From: "Savings", To: "Main"}, errs.ErrOverdraft},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.RecordTransfer(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	rows, _ := b.Transactions(ctx, journal.Filter{})
	if len(rows) != 0 {
		t.Fatalf("refused transfers wrote rows: %+v", rows)
	}
}

func TestRecordIncome_UnknownCategoryAndSuggestion(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	if _, err := b.CreateAccount(ctx, "Savings", decimal.Zero, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("1"), Account: "Main", Category: "Bonus"})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing category, got %v", err)
	}
	_, err = b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("1"), Account: "Savngs"})
	if !errors.Is(err, errs.ErrNotFound) || !strings.Contains(err.Error(), `did you mean "Savings"`) {
		t.Fatalf("want suggestion, got %v", err)
	}
}

func TestDeleteCategory_Uncategorizes(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	food, err := b.AddCategory(ctx, ledger.CategoryTypeExpense, "Food")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("50"), Account: "Main"}); err != nil {
		t.Fatalf("income: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := b.RecordExpense(ctx, book.ExpenseRequest{Amount: dec("5"), Account: "Main", Category: "food"}); err != nil {
			t.Fatalf("expense: %v", err)
		}
	}
	ch, err := b.DeleteCategory(ctx, ledger.CategoryTypeExpense, food.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ch.Rewritten != 2 {
		t.Fatalf("want 2 rows rewritten, got %d", ch.Rewritten)
	}
	if rows, _ := b.Transactions(ctx, journal.Filter{Category: "Food"}); len(rows) != 0 {
		t.Fatalf("rows still reference Food: %+v", rows)
	}
	if _, err := b.DeleteCategory(ctx, ledger.CategoryTypeExpense, 0); !errors.Is(err, errs.ErrProtectedCategory) {
		t.Fatalf("want ErrProtectedCategory, got %v", err)
	}
	if _, err := b.RenameCategory(ctx, ledger.CategoryTypeExpense, 42, "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTransferRowsKeepTheirTag(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	if _, err := b.CreateAccount(ctx, "Savings", decimal.Zero, ""); err != nil {
		t.Fatalf("account: %v", err)
	}
	if _, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("50"), Account: "Main"}); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := b.RecordTransfer(ctx, book.TransferRequest{Amount: dec("20"), From: "Main", To: "Savings"}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := b.AddCategory(ctx, ledger.CategoryTypeExpense, "Transfer"); !errors.Is(err, errs.ErrProtectedCategory) {
		t.Fatalf("want ErrProtectedCategory, got %v", err)
	}
	rows, err := b.Transactions(ctx, journal.Filter{Category: ledger.TransferCategory})
	if err != nil || len(rows) != 2 {
		t.Fatalf("want both legs tagged Transfer, got %+v %v", rows, err)
	}
}

func TestRenameAccount_CascadesToRows(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	acc, err := b.CreateAccount(ctx, "Card", decimal.Zero, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("20"), Account: "Card"}); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := b.RecordTransfer(ctx, book.TransferRequest{Amount: dec("5"), From: "Card", To: "Main"}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := b.CreateAccount(ctx, "Cash", decimal.Zero, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.RenameAccount(ctx, acc.ID, "CASH"); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if _, err := b.RenameAccount(ctx, acc.ID, "Debit Card"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	rows, _ := b.Transactions(ctx, journal.Filter{AccountID: acc.ID})
	if len(rows) != 2 {
		t.Fatalf("want 2 rows touching the card, got %d", len(rows))
	}
	for _, r := range rows {
		if (r.FromAccountID == acc.ID && r.FromAccount != "Debit Card") || (r.ToAccountID == acc.ID && r.ToAccount != "Debit Card") {
			t.Fatalf("row %d not renamed: %+v", r.ID, r)
		}
	}
}

func TestDeleteAccount_NegativeBalanceSettledFromMain(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	acc, err := b.CreateAccount(ctx, "Card", decimal.Zero, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := b.RecordExpense(ctx, book.ExpenseRequest{Amount: dec("12.50"), Account: "Card", AllowOverdraft: true}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	res, err := b.DeleteAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Transfer == nil || res.Transfer.FromAccountID != 1 || res.Transfer.ToAccountID != acc.ID || res.Transfer.Amount.Cmp(dec("12.50")) != 0 {
		t.Fatalf("unexpected settlement: %+v", res.Transfer)
	}
	mustBalance(t, b, "Main", "-12.50")
	mustNoDrift(t, b)
}

func TestDeleteAccount_ZeroBalanceWritesNoRow(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	goal, err := b.CreateGoal(ctx, "Holiday", dec("1000"), decimal.Zero, "")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	res, err := b.DeleteAccount(ctx, goal.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Transfer != nil {
		t.Fatalf("zero balance should not write a transfer")
	}
	if rows, _ := b.Transactions(ctx, journal.Filter{}); len(rows) != 0 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDeleteAccount_MainMissing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	if _, err := store.CreateAccount(ctx, ledger.Account{ID: 1, Name: "Other", Balance: dec("3")}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b := newBook(t, store)
	before := store.Snapshot()
	if _, err := b.DeleteAccount(ctx, 1); !errors.Is(err, errs.ErrMainMissing) {
		t.Fatalf("want ErrMainMissing, got %v", err)
	}
	if !reflect.DeepEqual(before, store.Snapshot()) {
		t.Fatalf("failed delete changed state")
	}
}

// failingTx fails every balance update so the ledger row written before it
// must be discarded.
type failingTx struct{ *memory.Tx }

func (failingTx) UpdateAccount(context.Context, ledger.Account) (ledger.Account, error) {
	return ledger.Account{}, errors.New("disk full")
}

type failingStore struct {
	*memory.Store
	fail bool
}

func (s *failingStore) BeginTx(ctx context.Context) (book.Tx, error) {
	if s.fail {
		return failingTx{s.Begin()}, nil
	}
	return s.Store.BeginTx(ctx)
}

func TestRecordIncome_RollsBackOnBalanceFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New()}
	b := newBook(t, store)
	store.fail = true
	if _, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("10"), Account: "Main"}); err == nil {
		t.Fatalf("expected failure")
	}
	if rows, _ := store.ListTransactions(ctx); len(rows) != 0 {
		t.Fatalf("ledger row survived a failed unit of work: %+v", rows)
	}
	mustBalance(t, b, "Main", "0")
}

// plainStore hides BeginTx so the facade falls back to sequential writes.
type plainStore struct{ book.Store }

func TestCompoundOps_WithoutTransactions(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, plainStore{memory.New()})
	if _, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: dec("8"), Account: "Main"}); err != nil {
		t.Fatalf("income: %v", err)
	}
	mustBalance(t, b, "Main", "8")
	mustNoDrift(t, b)
}

func TestIDsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	b := newBook(t, memory.New())
	a1, _ := b.CreateAccount(ctx, "A", decimal.Zero, "")
	a2, _ := b.CreateAccount(ctx, "B", decimal.Zero, "")
	if _, err := b.DeleteAccount(ctx, a2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	a3, _ := b.CreateAccount(ctx, "C", decimal.Zero, "")
	if !(a1.ID < a2.ID) || a3.ID <= a1.ID {
		t.Fatalf("ids not increasing: %d %d %d", a1.ID, a2.ID, a3.ID)
	}
	c1, _ := b.AddCategory(ctx, ledger.CategoryTypeExpense, "Rent")
	c2, _ := b.AddCategory(ctx, ledger.CategoryTypeExpense, "Food")
	ci, _ := b.AddCategory(ctx, ledger.CategoryTypeIncome, "Salary")
	if c1.ID != 1 || c2.ID != 2 || ci.ID != 1 {
		t.Fatalf("category ids not per-type: %d %d %d", c1.ID, c2.ID, ci.ID)
	}
	t1, _ := b.RecordIncome(ctx, book.IncomeRequest{Date: date(t, "05-05-2024"), Amount: dec("1"), Account: "A"})
	t2, _ := b.RecordIncome(ctx, book.IncomeRequest{Date: date(t, "01-01-2020"), Amount: dec("1"), Account: "A"})
	if t2.ID != t1.ID+1 {
		t.Fatalf("transaction ids not sequential: %d %d", t1.ID, t2.ID)
	}
	rows, _ := b.Transactions(ctx, journal.Filter{})
	if rows[0].ID != t1.ID {
		t.Fatalf("ledger not newest first: %+v", rows)
	}
}
