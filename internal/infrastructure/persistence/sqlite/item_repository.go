package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const itemColumns = `id, kind, name, amount_cents, category, recurrence, created_at, updated_at, version`

var orderColumns = map[string]string{
	domain.OrderByName:           "name",
	domain.OrderByAmount:         "amount_cents",
	domain.OrderByDate:           "ref_date",
	domain.OrderByCategory:       "COALESCE(category, '')",
	domain.OrderByRecurrenceKind: "recurrence_kind",
	domain.OrderByCreatedAt:      "created_at",
	domain.OrderByUpdatedAt:      "updated_at",
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return nil
}

func nullDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// rowArgs returns the column values shared by insert and update, in this order:
// kind, name, amount_cents, category, recurrence_kind, ref_date, anchor_date,
// one_off_date, end_date, recurrence.
func rowArgs(item *domain.FinancialItem) ([]any, error) {
	rec, err := json.Marshal(item.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence: %w", err)
	}
	kind := item.Recurrence.Kind
	if kind == "" {
		kind = recurrence.KindNone
	}
	return []any{
		string(item.Kind),
		item.Name,
		item.Amount.Cents(),
		nullString(item.Category),
		string(kind),
		nullDate(item.Date()),
		nullDate(item.Recurrence.AnchorDate),
		nullDate(item.Recurrence.OneOffDate),
		nullDate(item.Recurrence.EndDate),
		string(rec),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.FinancialItem, error) {
	var (
		item             domain.FinancialItem
		kind, rec        string
		cents            int64
		category         sql.NullString
		created, updated string
	)
	if err := row.Scan(&item.ID, &kind, &item.Name, &cents, &category, &rec, &created, &updated, &item.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rec), &item.Recurrence); err != nil {
		return nil, fmt.Errorf("failed to decode recurrence for item %s: %w", item.ID, err)
	}
	createdAt, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for item %s: %w", item.ID, err)
	}
	updatedAt, err := time.Parse(timeLayout, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for item %s: %w", item.ID, err)
	}

	item.Kind = domain.ItemKind(kind)
	item.Amount = domain.Amount(cents)
	if category.Valid {
		item.Category = &category.String
	}
	item.CreatedAt = createdAt
	item.UpdatedAt = updatedAt
	return &item, nil
}

func (s *Store) findByID(ctx context.Context, q queryer, id string) (*domain.FinancialItem, error) {
	item, err := scanItem(q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM financial_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Create stores a new item with version 1.
func (s *Store) Create(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	args, err := rowArgs(item)
	if err != nil {
		return nil, err
	}
	args = append([]any{item.ID}, args...)
	args = append(args, item.CreatedAt.UTC().Format(timeLayout), item.UpdatedAt.UTC().Format(timeLayout))

	_, err = s.db.ExecContext(ctx, `
INSERT INTO financial_items (
    id, kind, name, amount_cents, category, recurrence_kind,
    ref_date, anchor_date, one_off_date, end_date, recurrence,
    created_at, updated_at, version
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return s.findByID(ctx, s.db, item.ID)
}

// FindByID retrieves a single item by its ID.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.FinancialItem, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.findByID(ctx, s.db, id)
}

// Update replaces the stored item when its version still equals item.Version.
func (s *Store) Update(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	args, err := rowArgs(item)
	if err != nil {
		return nil, err
	}
	args = append(args, item.UpdatedAt.UTC().Format(timeLayout), item.ID, item.Version)

	var updated *domain.FinancialItem
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE financial_items SET
    kind = ?, name = ?, amount_cents = ?, category = ?, recurrence_kind = ?,
    ref_date = ?, anchor_date = ?, one_off_date = ?, end_date = ?, recurrence = ?,
    updated_at = ?, version = version + 1
WHERE id = ? AND version = ?`, args...)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			// Either missing or modified concurrently; findByID tells them apart.
			if _, err := s.findByID(ctx, tx, item.ID); err != nil {
				return err
			}
			return fmt.Errorf("%w: item %s", domain.ErrVersionConflict, item.ID)
		}
		updated, err = s.findByID(ctx, tx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an item.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM financial_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	return nil
}

// List searches for items with filtering, sorting, and pagination.
func (s *Store) List(ctx context.Context, params domain.ListItemsParams) (*domain.PagedItems, error) {
	if err := params.ValidateOrder(); err != nil {
		return nil, err
	}

	var f filter
	f.kind(params.Kind)
	f.query(params.Query)
	f.recurrence(params.Recurrence)
	if params.Window != nil {
		f.window(*params.Window)
	}
	where := f.clause()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM financial_items`+where, f.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	// SQLite requires LIMIT when OFFSET is present; -1 means no limit.
	limit := -1
	if params.Limit > 0 {
		limit = params.Limit
	}
	args := append(f.args, limit, max(params.Offset, 0))
	items, err := s.query(ctx,
		`SELECT `+itemColumns+` FROM financial_items`+where+orderClause(params)+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &domain.PagedItems{
		Items:      items,
		TotalCount: total,
		HasMore:    max(params.Offset, 0)+len(items) < total,
	}, nil
}

// FindActive returns every item that can have occurrences inside window.
func (s *Store) FindActive(ctx context.Context, window recurrence.Window, kind *domain.ItemKind) ([]domain.FinancialItem, error) {
	var f filter
	f.kind(kind)
	f.window(window)
	items, err := s.query(ctx,
		`SELECT `+itemColumns+` FROM financial_items`+f.clause()+` ORDER BY created_at, id`, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find active items: %w", err)
	}
	return items, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.FinancialItem, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.FinancialItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// filter accumulates WHERE conditions and their arguments.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) kind(kind *domain.ItemKind) {
	if kind != nil {
		f.conds = append(f.conds, "kind = ?")
		f.args = append(f.args, string(*kind))
	}
}

func (f *filter) query(q string) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return
	}
	f.conds = append(f.conds, "(instr(lower(name), ?) > 0 OR instr(lower(COALESCE(category, '')), ?) > 0)")
	f.args = append(f.args, q, q)
}

func (f *filter) recurrence(r domain.RecurrenceFilter) {
	switch r {
	case domain.RecurrenceFilterRecurring:
		f.conds = append(f.conds, "recurrence_kind <> 'none'")
	case domain.RecurrenceFilterNonRecurring:
		f.conds = append(f.conds, "recurrence_kind = 'none'")
	}
}

// window mirrors Descriptor.ActiveIn. Include dates are read from the
// recurrence document; they are YYYY-MM-DD strings and compare lexically.
func (f *filter) window(w recurrence.Window) {
	start, end := w.Start.String(), w.End.String()
	f.conds = append(f.conds, `(
    (recurrence_kind = 'none' AND one_off_date BETWEEN ? AND ?)
    OR (recurrence_kind <> 'none'
        AND (anchor_date IS NULL OR anchor_date <= ?)
        AND (end_date IS NULL OR end_date >= ?))
    OR EXISTS (
        SELECT 1 FROM json_each(recurrence, '$.include_dates') AS inc
        WHERE inc.value BETWEEN ? AND ?))`)
	f.args = append(f.args, start, end, end, start, start, end)
}

func (f *filter) clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func orderClause(params domain.ListItemsParams) string {
	col, ok := orderColumns[params.OrderBy]
	if !ok {
		col = orderColumns[domain.DefaultOrderBy]
	}
	if strings.EqualFold(params.OrderDir, "asc") {
		return fmt.Sprintf(" ORDER BY %s ASC NULLS FIRST, id ASC", col)
	}
	return fmt.Sprintf(" ORDER BY %s DESC NULLS LAST, id DESC", col)
}
