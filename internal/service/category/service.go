// Package category implements the category store rules: per-type id spaces,
// the permanent Uncategorized entry, and case-insensitive unique names.
package category

import (
    "context"
    "fmt"
    "strings"

    "github.com/tinoosan/pocketledger/internal/errs"
    "github.com/tinoosan/pocketledger/internal/ledger"
)

type Repo interface {
    // ListCategories returns the categories of one type ordered by id.
    ListCategories(ctx context.Context, t ledger.CategoryType) ([]ledger.Category, error)
}

type Writer interface {
    // PutCategory inserts c or overwrites the entry with the same (type, id).
    PutCategory(ctx context.Context, c ledger.Category) (ledger.Category, error)
    DeleteCategory(ctx context.Context, t ledger.CategoryType, id int) error
}

type Service interface {
    NewID(ctx context.Context, t ledger.CategoryType) (int, error)
    Add(ctx context.Context, t ledger.CategoryType, name string) (ledger.Category, error)
    // Edit renames the category and returns the record as it was before.
    Edit(ctx context.Context, t ledger.CategoryType, id int, newName string) (ledger.Category, error)
    // Delete removes the category and returns the removed record.
    Delete(ctx context.Context, t ledger.CategoryType, id int) (ledger.Category, error)
    Get(ctx context.Context, t ledger.CategoryType, id int) (ledger.Category, error)
    ByName(ctx context.Context, t ledger.CategoryType, name string) (ledger.Category, error)
    List(ctx context.Context, t ledger.CategoryType) ([]ledger.Category, error)
    EnsureUncategorized(ctx context.Context) error
}

type service struct {
    repo   Repo
    writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// NewID returns 1 for an empty type, otherwise max(id)+1.
func (s *service) NewID(ctx context.Context, t ledger.CategoryType) (int, error) {
    if err := validType(t); err != nil { return 0, err }
    existing, err := s.repo.ListCategories(ctx, t)
    if err != nil { return 0, err }
    if len(existing) == 0 { return 1, nil }
    max := existing[0].ID
    for _, c := range existing {
        if c.ID > max { max = c.ID }
    }
    return max + 1, nil
}

func (s *service) Add(ctx context.Context, t ledger.CategoryType, name string) (ledger.Category, error) {
    name, err := s.checkName(ctx, t, -1, name)
    if err != nil { return ledger.Category{}, err }
    id, err := s.NewID(ctx, t)
    if err != nil { return ledger.Category{}, err }
    return s.writer.PutCategory(ctx, ledger.Category{ID: id, Name: name, Type: t})
}

func (s *service) Edit(ctx context.Context, t ledger.CategoryType, id int, newName string) (ledger.Category, error) {
    current, err := s.Get(ctx, t, id)
    if err != nil { return ledger.Category{}, err }
    if current.IsUncategorized() { return ledger.Category{}, errs.ErrProtectedCategory }
    newName, err = s.checkName(ctx, t, id, newName)
    if err != nil { return ledger.Category{}, err }
    updated := current
    updated.Name = newName
    if _, err := s.writer.PutCategory(ctx, updated); err != nil { return ledger.Category{}, err }
    return current, nil
}

func (s *service) Delete(ctx context.Context, t ledger.CategoryType, id int) (ledger.Category, error) {
    current, err := s.Get(ctx, t, id)
    if err != nil { return ledger.Category{}, err }
    if current.IsUncategorized() { return ledger.Category{}, errs.ErrProtectedCategory }
    if err := s.writer.DeleteCategory(ctx, t, id); err != nil { return ledger.Category{}, err }
    return current, nil
}

func (s *service) Get(ctx context.Context, t ledger.CategoryType, id int) (ledger.Category, error) {
    list, err := s.List(ctx, t)
    if err != nil { return ledger.Category{}, err }
    for _, c := range list {
        if c.ID == id { return c, nil }
    }
    return ledger.Category{}, fmt.Errorf("%s category %d: %w", t, id, errs.ErrNotFound)
}

// ByName looks a category up by exact name first, then case-insensitively.
func (s *service) ByName(ctx context.Context, t ledger.CategoryType, name string) (ledger.Category, error) {
    list, err := s.List(ctx, t)
    if err != nil { return ledger.Category{}, err }
    for _, c := range list {
        if c.Name == name { return c, nil }
    }
    for _, c := range list {
        if strings.EqualFold(c.Name, strings.TrimSpace(name)) { return c, nil }
    }
    return ledger.Category{}, fmt.Errorf("%s category %q: %w", t, name, errs.ErrNotFound)
}

func (s *service) List(ctx context.Context, t ledger.CategoryType) ([]ledger.Category, error) {
    if err := validType(t); err != nil { return nil, err }
    return s.repo.ListCategories(ctx, t)
}

// EnsureUncategorized restores id 0 in any type where it is missing.
func (s *service) EnsureUncategorized(ctx context.Context) error {
    for _, t := range ledger.CategoryTypes {
        if _, err := s.Get(ctx, t, ledger.UncategorizedID); err == nil {
            continue
        }
        if _, err := s.writer.PutCategory(ctx, ledger.Category{ID: ledger.UncategorizedID, Name: ledger.Uncategorized, Type: t}); err != nil {
            return err
        }
    }
    return nil
}

// checkName trims name and rejects empty names, the reserved transfer tag and
// names already used by another category of the same type. selfID is skipped (-1 for new categories).
func (s *service) checkName(ctx context.Context, t ledger.CategoryType, selfID int, name string) (string, error) {
    name = strings.TrimSpace(name)
    if name == "" { return "", errs.Invalid("name", errs.ErrInvalid, "category name is required") }
    if strings.EqualFold(name, ledger.TransferCategory) {
        return "", fmt.Errorf("%q tags transfer rows and cannot be a category: %w", ledger.TransferCategory, errs.ErrProtectedCategory)
    }
    existing, err := s.List(ctx, t)
    if err != nil { return "", err }
    for _, c := range existing {
        if c.ID != selfID && strings.EqualFold(c.Name, name) {
            return "", fmt.Errorf("%s category %q already exists: %w", t, c.Name, errs.ErrConflict)
        }
    }
    return name, nil
}

func validType(t ledger.CategoryType) error {
    if t != ledger.CategoryTypeIncome && t != ledger.CategoryTypeExpense {
        return errs.Invalid("type", errs.ErrInvalid, "category type must be Income or Expense")
    }
    return nil
}
