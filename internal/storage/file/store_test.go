package file

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/govalues/decimal"

	"github.com/tinoosan/pocketledger/internal/ledger"
	"github.com/tinoosan/pocketledger/internal/service/book"
	"github.com/tinoosan/pocketledger/internal/service/journal"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mustOpen(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestOpen_BootstrapsMissingResources(t *testing.T) {
	dir := t.TempDir()
	mustOpen(t, dir)

	if got, want := readFile(t, filepath.Join(dir, AccountsFile)), "Account_ID,Name,Balance,Is_Goal,Goal_Amount,Note\n1,Main,0,No,,\n"; got != want {
		t.Fatalf("accounts.csv:\nwant %q\ngot  %q", want, got)
	}
	if got := readFile(t, filepath.Join(dir, TransactionsFile)); got != strings.Join(transactionColumns, ",")+"\n" {
		t.Fatalf("transactions.csv should hold only the header, got %q", got)
	}
	cats := readFile(t, filepath.Join(dir, CategoriesFile))
	for _, want := range []string{`"Expense": {`, `"Income": {`, `"0": "Uncategorized"`} {
		if !strings.Contains(cats, want) {
			t.Fatalf("categories.json missing %s:\n%s", want, cats)
		}
	}
}

func TestOpen_BootstrapsOnlyWhatIsMissing(t *testing.T) {
	dir := t.TempDir()
	accounts := "Account_ID,Name,Balance,Is_Goal,Goal_Amount,Note\n1,Main,12.5,No,,\n2,Holiday,100.0,Yes,2000.0,Spain\n"
	if err := os.WriteFile(filepath.Join(dir, AccountsFile), []byte(accounts), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := mustOpen(t, dir)
	accs, _ := s.ListAccounts(context.Background())
	if len(accs) != 2 {
		t.Fatalf("want 2 accounts, got %+v", accs)
	}
	h := accs[1]
	if !h.IsGoal || h.GoalAmount == nil || h.GoalAmount.Cmp(decimal.MustParse("2000")) != 0 || h.Note != "Spain" {
		t.Fatalf("goal account not decoded: %+v", h)
	}
	if readFile(t, filepath.Join(dir, AccountsFile)) != accounts {
		t.Fatalf("existing accounts.csv should not be rewritten on open")
	}
	if _, err := os.Stat(filepath.Join(dir, TransactionsFile)); err != nil {
		t.Fatalf("transactions.csv not created: %v", err)
	}
}

func TestDecodeTransactions_SpreadsheetStyleIDs(t *testing.T) {
	in := strings.Join(transactionColumns, ",") + "\n" +
		"1,Income,01-01-2024,100.0,Salary,,,1.0,Main,\n" +
		"2,Expense,05-01-2024,-30.0,Uncategorized,1.0,Main,,,lunch\n"
	rows, err := decodeTransactions(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != 2 || rows[0].FromAccountID != 1 || rows[1].ToAccountID != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Amount.Cmp(decimal.MustParse("-30")) != 0 || rows[0].Note != "lunch" {
		t.Fatalf("unexpected expense row: %+v", rows[0])
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := decodeAccounts(strings.NewReader("Name,Balance\nMain,0\n")); err == nil {
		t.Fatalf("want missing column error")
	}
	in := strings.Join(transactionColumns, ",") + "\n1,Income,2024-01-01,1,,,,1,Main,\n"
	if _, err := decodeTransactions(strings.NewReader(in)); err == nil {
		t.Fatalf("want bad date error")
	}
	if _, err := decodeCategories(strings.NewReader(`{"Savings": {"0": "x"}}`)); err == nil {
		t.Fatalf("want unknown group error")
	}
}

func TestBook_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := mustOpen(t, dir)
	b := book.New(s, book.Options{Logger: quietLogger()})
	if err := b.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := b.AddCategory(ctx, ledger.CategoryTypeIncome, "Salary"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := b.CreateGoal(ctx, "Car", decimal.MustParse("5000"), decimal.Zero, "new car"); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if _, err := b.RecordIncome(ctx, book.IncomeRequest{Amount: decimal.MustParse("250.75"), Account: "Main", Category: "Salary", Note: "March, part 1"}); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := b.RecordTransfer(ctx, book.TransferRequest{Amount: decimal.MustParse("50"), From: "Main", To: "Car"}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := b.RenameAccount(ctx, 2, "Van"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	before := s.Snapshot()

	reopened := mustOpen(t, dir)
	after := reopened.Snapshot()
	if !reflect.DeepEqual(before.Categories, after.Categories) {
		t.Fatalf("categories differ:\n%+v\n%+v", before.Categories, after.Categories)
	}
	if len(before.Accounts) != len(after.Accounts) || len(before.Transactions) != len(after.Transactions) {
		t.Fatalf("row counts differ")
	}
	for i := range before.Accounts {
		x, y := before.Accounts[i], after.Accounts[i]
		if x.ID != y.ID || x.Name != y.Name || x.Balance.Cmp(y.Balance) != 0 || x.IsGoal != y.IsGoal {
			t.Fatalf("account %d differs: %+v vs %+v", i, x, y)
		}
	}
	for i := range before.Transactions {
		x, y := before.Transactions[i], after.Transactions[i]
		if x.ID != y.ID || x.Type != y.Type || x.Amount.Cmp(y.Amount) != 0 || x.Note != y.Note || x.ToAccount != y.ToAccount || x.FromAccount != y.FromAccount {
			t.Fatalf("transaction %d differs: %+v vs %+v", i, x, y)
		}
	}
	rows, _ := book.New(reopened, book.Options{Logger: quietLogger()}).Transactions(ctx, journal.Filter{AccountID: 2})
	if len(rows) != 1 || rows[0].ToAccount != "Van" {
		t.Fatalf("renamed account not persisted: %+v", rows)
	}
}

func TestTx_RollbackLeavesFilesUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := mustOpen(t, dir)
	before := readFile(t, filepath.Join(dir, AccountsFile))
	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.CreateAccount(ctx, ledger.Account{ID: 2, Name: "Temp"}); err != nil {
		t.Fatalf("create in tx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, AccountsFile)); got != before {
		t.Fatalf("rollback wrote accounts.csv: %q", got)
	}
	if accs, _ := s.ListAccounts(ctx); len(accs) != 1 {
		t.Fatalf("rollback leaked into memory: %+v", accs)
	}
}

func TestDecodeAccounts_StripsByteOrderMark(t *testing.T) {
	in := "\ufeffAccount_ID,Name,Balance,Is_Goal,Goal_Amount,Note\n1,Main,5,No,,\n"
	accs, err := decodeAccounts(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(accs) != 1 || accs[0].ID != 1 || accs[0].Name != "Main" {
		t.Fatalf("unexpected accounts: %+v", accs)
	}
}

func TestWriter_FailedWriteLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := mustOpen(t, dir)

	// A non-empty directory where accounts.csv should be makes the rename fail.
	path := filepath.Join(dir, AccountsFile)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := s.CreateAccount(ctx, ledger.Account{ID: 2, Name: "Cash"}); err == nil {
		t.Fatalf("want write error")
	}
	if accs, _ := s.ListAccounts(ctx); len(accs) != 1 || accs[0].Name != ledger.MainAccountName {
		t.Fatalf("failed write leaked into memory: %+v", accs)
	}
}
