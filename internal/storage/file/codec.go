package file

import (
    "encoding/csv"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sort"
    "strconv"
    "strings"

    "github.com/govalues/decimal"

    "github.com/tinoosan/pocketledger/internal/ledger"
)

// Resource file names inside the data directory.
const (
    AccountsFile     = "accounts.csv"
    CategoriesFile   = "categories.json"
    TransactionsFile = "transactions.csv"
)

var (
    accountColumns     = []string{"Account_ID", "Name", "Balance", "Is_Goal", "Goal_Amount", "Note"}
    transactionColumns = []string{"Transaction_ID", "Type", "Date", "Amount", "Category", "From_Account_ID", "From_Account", "To_Account_ID", "To_Account", "Note"}
)

// readTable reads a CSV with a header row and returns rows keyed by column name.
func readTable(r io.Reader, required []string) ([]map[string]string, error) {
    cr := csv.NewReader(r)
    cr.FieldsPerRecord = -1
    records, err := cr.ReadAll()
    if err != nil { return nil, err }
    if len(records) == 0 { return nil, nil }
    header := records[0]
    index := make(map[string]int, len(header))
    for i, h := range header { index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i }
    for _, col := range required {
        if _, ok := index[col]; !ok { return nil, fmt.Errorf("missing column %q", col) }
    }
    out := make([]map[string]string, 0, len(records)-1)
    for _, rec := range records[1:] {
        row := make(map[string]string, len(index))
        for col, i := range index {
            if i < len(rec) { row[col] = rec[i] }
        }
        out = append(out, row)
    }
    return out, nil
}

// parseID accepts "", "3" and the "3.0" spelling spreadsheets write for
// integer columns with gaps. Empty means 0.
func parseID(s string) (int, error) {
    s = strings.TrimSpace(s)
    if s == "" { return 0, nil }
    if n, err := strconv.Atoi(s); err == nil { return n, nil }
    d, err := decimal.Parse(s)
    if err != nil { return 0, fmt.Errorf("bad id %q", s) }
    d = d.Trim(0)
    if d.Scale() != 0 { return 0, fmt.Errorf("bad id %q", s) }
    n, err := strconv.Atoi(d.String())
    if err != nil { return 0, fmt.Errorf("bad id %q", s) }
    return n, nil
}

func formatID(id int) string {
    if id == 0 { return "" }
    return strconv.Itoa(id)
}

func parseDecimal(s string) (decimal.Decimal, error) {
    s = strings.TrimSpace(s)
    if s == "" { return decimal.Zero, nil }
    return decimal.Parse(s)
}

func decodeAccounts(r io.Reader) ([]ledger.Account, error) {
    rows, err := readTable(r, accountColumns[:3])
    if err != nil { return nil, err }
    out := make([]ledger.Account, 0, len(rows))
    for i, row := range rows {
        id, err := parseID(row["Account_ID"])
        if err != nil { return nil, fmt.Errorf("row %d: %w", i+1, err) }
        bal, err := parseDecimal(row["Balance"])
        if err != nil { return nil, fmt.Errorf("row %d: balance: %w", i+1, err) }
        a := ledger.Account{
            ID:      id,
            Name:    row["Name"],
            Balance: bal,
            IsGoal:  strings.EqualFold(strings.TrimSpace(row["Is_Goal"]), "yes"),
            Note:    row["Note"],
        }
        if g := strings.TrimSpace(row["Goal_Amount"]); g != "" {
            goal, err := decimal.Parse(g)
            if err != nil { return nil, fmt.Errorf("row %d: goal amount: %w", i+1, err) }
            a.GoalAmount = &goal
        }
        out = append(out, a)
    }
    return out, nil
}

func encodeAccounts(w io.Writer, accounts []ledger.Account) error {
    cw := csv.NewWriter(w)
    if err := cw.Write(accountColumns); err != nil { return err }
    for _, a := range accounts {
        isGoal, goal := "No", ""
        if a.IsGoal { isGoal = "Yes" }
        if a.GoalAmount != nil { goal = a.GoalAmount.String() }
        if err := cw.Write([]string{strconv.Itoa(a.ID), a.Name, a.Balance.String(), isGoal, goal, a.Note}); err != nil { return err }
    }
    cw.Flush()
    return cw.Error()
}

// decodeCategories reads {"Expense": {"0": "Uncategorized"}, "Income": {...}}.
func decodeCategories(r io.Reader) (map[ledger.CategoryType]map[int]string, error) {
    var raw map[string]map[string]string
    if err := json.NewDecoder(r).Decode(&raw); err != nil { return nil, err }
    out := make(map[ledger.CategoryType]map[int]string, len(ledger.CategoryTypes))
    for _, t := range ledger.CategoryTypes { out[t] = map[int]string{} }
    for group, entries := range raw {
        t, ok := ledger.ParseCategoryType(group)
        if !ok { return nil, fmt.Errorf("unknown category group %q", group) }
        for key, name := range entries {
            id, err := strconv.Atoi(strings.TrimSpace(key))
            if err != nil { return nil, fmt.Errorf("%s: bad category id %q", group, key) }
            out[t][id] = name
        }
    }
    return out, nil
}

func encodeCategories(w io.Writer, cats map[ledger.CategoryType]map[int]string) error {
    raw := make(map[string]map[string]string, len(ledger.CategoryTypes))
    for _, t := range ledger.CategoryTypes {
        group := map[string]string{}
        for id, name := range cats[t] { group[strconv.Itoa(id)] = name }
        raw[string(t)] = group
    }
    enc := json.NewEncoder(w)
    enc.SetIndent("", "    ")
    return enc.Encode(raw)
}

func decodeTransactions(r io.Reader) ([]ledger.Transaction, error) {
    rows, err := readTable(r, transactionColumns[:5])
    if err != nil { return nil, err }
    out := make([]ledger.Transaction, 0, len(rows))
    for i, row := range rows {
        var t ledger.Transaction
        if t.ID, err = parseID(row["Transaction_ID"]); err != nil { return nil, fmt.Errorf("row %d: %w", i+1, err) }
        t.Type = ledger.TransactionType(strings.TrimSpace(row["Type"]))
        if t.Date, err = ledger.ParseDate(row["Date"]); err != nil { return nil, fmt.Errorf("row %d: %w", i+1, err) }
        if t.Amount, err = parseDecimal(row["Amount"]); err != nil { return nil, fmt.Errorf("row %d: amount: %w", i+1, err) }
        t.Category = row["Category"]
        if t.FromAccountID, err = parseID(row["From_Account_ID"]); err != nil { return nil, fmt.Errorf("row %d: %w", i+1, err) }
        if t.ToAccountID, err = parseID(row["To_Account_ID"]); err != nil { return nil, fmt.Errorf("row %d: %w", i+1, err) }
        t.FromAccount = row["From_Account"]
        t.ToAccount = row["To_Account"]
        t.Note = row["Note"]
        out = append(out, t)
    }
    // Files written elsewhere may not be ordered; keep their order within a date.
    sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
    return out, nil
}

func encodeTransactions(w io.Writer, rows []ledger.Transaction) error {
    cw := csv.NewWriter(w)
    if err := cw.Write(transactionColumns); err != nil { return err }
    for _, t := range rows {
        rec := []string{
            strconv.Itoa(t.ID), string(t.Type), t.Date.String(), t.Amount.String(), t.Category,
            formatID(t.FromAccountID), t.FromAccount, formatID(t.ToAccountID), t.ToAccount, t.Note,
        }
        if err := cw.Write(rec); err != nil { return err }
    }
    cw.Flush()
    return cw.Error()
}

// writeAtomic writes through a temp file in the same directory and renames it
// over path.
func writeAtomic(path string, encode func(w io.Writer) error) error {
    tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
    if err != nil { return err }
    defer os.Remove(tmp.Name())
    if err := encode(tmp); err != nil { tmp.Close(); return err }
    if err := tmp.Sync(); err != nil { tmp.Close(); return err }
    if err := tmp.Close(); err != nil { return err }
    return os.Rename(tmp.Name(), path)
}
