// Package postgres provides a pgx-backed storage implementation of the
// repository and writer interfaces used by the services.
//
// Decimal columns are read as text and parsed with govalues/decimal so no
// precision is lost through float conversion. The schema lives in the
// embedded migrations directory and is applied with Migrate.
package postgres

import (
    "context"
    "errors"
    "fmt"

    "github.com/govalues/decimal"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgconn"
    "github.com/jackc/pgx/v5/pgxpool"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
    "github.com/tinoosan/pocketledger/internal/service/book"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
    Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
    Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
    QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements the reads and writes on top of a querier.
type queries struct{ q querier }

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
    queries
    pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    // Verify connection
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    return &Store{queries: queries{q: pool}, pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// BeginTx starts a database transaction covering all three tables.
func (s *Store) BeginTx(ctx context.Context) (book.Tx, error) {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return nil, err }
    return &Tx{queries: queries{q: tx}, tx: tx}, nil
}

// Tx wraps a pgx.Tx.
type Tx struct {
    queries
    tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
    if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) { return err }
    return nil
}

func parseNumeric(s string) (decimal.Decimal, error) {
    d, err := decimal.Parse(s)
    if err != nil { return decimal.Decimal{}, fmt.Errorf("numeric %q: %w", s, err) }
    return d, nil
}

func isUniqueViolation(err error) bool {
    var pgErr *pgconn.PgError
    return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Accounts ---

const accountColumns = `id, name, balance::text, is_goal, goal_amount::text, note`

func scanAccount(row pgx.Row) (ledger.Account, error) {
    var (
        a       ledger.Account
        balance string
        goal    *string
    )
    if err := row.Scan(&a.ID, &a.Name, &balance, &a.IsGoal, &goal, &a.Note); err != nil { return ledger.Account{}, err }
    var err error
    if a.Balance, err = parseNumeric(balance); err != nil { return ledger.Account{}, err }
    if goal != nil {
        g, err := parseNumeric(*goal)
        if err != nil { return ledger.Account{}, err }
        a.GoalAmount = &g
    }
    return a, nil
}

// ListAccounts returns accounts by id, which is creation order since ids only grow.
func (q queries) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
    rows, err := q.q.Query(ctx, `select `+accountColumns+` from accounts order by id`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []ledger.Account
    for rows.Next() {
        a, err := scanAccount(rows)
        if err != nil { return nil, err }
        out = append(out, a)
    }
    return out, rows.Err()
}

func (q queries) GetAccount(ctx context.Context, id int) (ledger.Account, error) {
    a, err := scanAccount(q.q.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1`, id))
    if errors.Is(err, pgx.ErrNoRows) { return ledger.Account{}, fmt.Errorf("account %d: %w", id, errs.ErrNotFound) }
    return a, err
}

func goalArg(a ledger.Account) any {
    if a.GoalAmount == nil { return nil }
    return a.GoalAmount.String()
}

func (q queries) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
    _, err := q.q.Exec(ctx, `
        insert into accounts (id, name, balance, is_goal, goal_amount, note)
        values ($1, $2, $3::numeric, $4, $5::numeric, $6)
    `, a.ID, a.Name, a.Balance.String(), a.IsGoal, goalArg(a), a.Note)
    if isUniqueViolation(err) { return ledger.Account{}, fmt.Errorf("account %q: %w", a.Name, errs.ErrConflict) }
    if err != nil { return ledger.Account{}, err }
    return a, nil
}

func (q queries) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
    tag, err := q.q.Exec(ctx, `
        update accounts set name = $2, balance = $3::numeric, is_goal = $4, goal_amount = $5::numeric, note = $6
        where id = $1
    `, a.ID, a.Name, a.Balance.String(), a.IsGoal, goalArg(a), a.Note)
    if isUniqueViolation(err) { return ledger.Account{}, fmt.Errorf("account %q: %w", a.Name, errs.ErrConflict) }
    if err != nil { return ledger.Account{}, err }
    if tag.RowsAffected() == 0 { return ledger.Account{}, fmt.Errorf("account %d: %w", a.ID, errs.ErrNotFound) }
    return a, nil
}

func (q queries) DeleteAccount(ctx context.Context, id int) error {
    tag, err := q.q.Exec(ctx, `delete from accounts where id = $1`, id)
    if err != nil { return err }
    if tag.RowsAffected() == 0 { return fmt.Errorf("account %d: %w", id, errs.ErrNotFound) }
    return nil
}

// --- Categories ---

func (q queries) ListCategories(ctx context.Context, t ledger.CategoryType) ([]ledger.Category, error) {
    rows, err := q.q.Query(ctx, `select id, name from categories where type = $1 order by id`, string(t))
    if err != nil { return nil, err }
    defer rows.Close()
    var out []ledger.Category
    for rows.Next() {
        c := ledger.Category{Type: t}
        if err := rows.Scan(&c.ID, &c.Name); err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

func (q queries) PutCategory(ctx context.Context, c ledger.Category) (ledger.Category, error) {
    _, err := q.q.Exec(ctx, `
        insert into categories (type, id, name) values ($1, $2, $3)
        on conflict (type, id) do update set name = excluded.name
    `, string(c.Type), c.ID, c.Name)
    if err != nil { return ledger.Category{}, err }
    return c, nil
}

func (q queries) DeleteCategory(ctx context.Context, t ledger.CategoryType, id int) error {
    tag, err := q.q.Exec(ctx, `delete from categories where type = $1 and id = $2`, string(t), id)
    if err != nil { return err }
    if tag.RowsAffected() == 0 { return fmt.Errorf("%s category %d: %w", t, id, errs.ErrNotFound) }
    return nil
}

// --- Transactions ---

// ListTransactions returns rows newest date first; within a date the most
// recently inserted row comes first.
func (q queries) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
    rows, err := q.q.Query(ctx, `
        select id, type, date, amount::text, category,
               coalesce(from_account_id, 0), from_account, coalesce(to_account_id, 0), to_account, note
        from transactions
        order by date desc, id desc
    `)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []ledger.Transaction
    for rows.Next() {
        var (
            t      ledger.Transaction
            typ    string
            amount string
        )
        if err := rows.Scan(&t.ID, &typ, &t.Date.Time, &amount, &t.Category, &t.FromAccountID, &t.FromAccount, &t.ToAccountID, &t.ToAccount, &t.Note); err != nil {
            return nil, err
        }
        t.Type = ledger.TransactionType(typ)
        t.Date = ledger.DateOf(t.Date.Time)
        if t.Amount, err = parseNumeric(amount); err != nil { return nil, err }
        out = append(out, t)
    }
    return out, rows.Err()
}

func (q queries) CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
    _, err := q.q.Exec(ctx, `
        insert into transactions (id, type, date, amount, category, from_account_id, from_account, to_account_id, to_account, note)
        values ($1, $2, $3, $4::numeric, $5, nullif($6, 0), $7, nullif($8, 0), $9, $10)
    `, t.ID, string(t.Type), t.Date.Time, t.Amount.String(), t.Category, t.FromAccountID, t.FromAccount, t.ToAccountID, t.ToAccount, t.Note)
    if isUniqueViolation(err) { return ledger.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, errs.ErrConflict) }
    if err != nil { return ledger.Transaction{}, err }
    return t, nil
}

func (q queries) ReplaceCategory(ctx context.Context, oldName, newName string) (int, error) {
    tag, err := q.q.Exec(ctx, `update transactions set category = $2 where category = $1`, oldName, newName)
    if err != nil { return 0, err }
    return int(tag.RowsAffected()), nil
}

func (q queries) RenameAccountRefs(ctx context.Context, accountID int, name string) (int, error) {
    tag, err := q.q.Exec(ctx, `
        update transactions set
            from_account = case when from_account_id = $1 then $2 else from_account end,
            to_account   = case when to_account_id = $1 then $2 else to_account end
        where from_account_id = $1 or to_account_id = $1
    `, accountID, name)
    if err != nil { return 0, err }
    return int(tag.RowsAffected()), nil
}
