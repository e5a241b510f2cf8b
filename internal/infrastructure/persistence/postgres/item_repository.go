package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

const itemColumns = `id, kind, name, amount_cents, category, recurrence, created_at, updated_at, version`

// orderColumns maps listing sort fields to SQL expressions.
var orderColumns = map[string]string{
	domain.OrderByName:           "name",
	domain.OrderByAmount:         "amount_cents",
	domain.OrderByDate:           "ref_date",
	domain.OrderByCategory:       "COALESCE(category, '')",
	domain.OrderByRecurrenceKind: "recurrence_kind",
	domain.OrderByCreatedAt:      "created_at",
	domain.OrderByUpdatedAt:      "updated_at",
}

// checkRowsAffected returns ErrItemNotFound when no rows were affected.
func checkRowsAffected(rowsAffected int64, itemID string) error {
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}
	return nil
}

// isUniqueViolation checks if an error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func scanItem(row pgx.Row) (*domain.FinancialItem, error) {
	var r scannedItem
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.toDomain()
}

func collectItems(rows pgx.Rows) ([]domain.FinancialItem, error) {
	defer rows.Close()
	items := []domain.FinancialItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// Create stores a new item with version 1.
func (s *Store) Create(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	row, err := domainItemToRow(item)
	if err != nil {
		return nil, err
	}

	const q = `
INSERT INTO financial_items (
    id, kind, name, amount_cents, category, recurrence_kind,
    ref_date, anchor_date, one_off_date, end_date, recurrence,
    created_at, updated_at, version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
RETURNING ` + itemColumns

	created, err := scanItem(s.db.QueryRow(ctx, q,
		row.ID, row.Kind, row.Name, row.AmountCents, row.Category, row.RecurrenceKind,
		row.RefDate, row.AnchorDate, row.OneOffDate, row.EndDate, row.Recurrence,
		row.CreatedAt, row.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("item %s already exists: %w", item.ID, err)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single item by its ID.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.FinancialItem, error) {
	pgID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := scanItem(s.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM financial_items WHERE id = $1`, pgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Update replaces the stored item when its version still equals item.Version.
// The version check and the write happen in one transaction.
func (s *Store) Update(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	row, err := domainItemToRow(item)
	if err != nil {
		return nil, err
	}

	var updated *domain.FinancialItem
	err = s.inTx(ctx, "update_item", func(tx *Store) error {
		var current int32
		err := tx.db.QueryRow(ctx,
			`SELECT version FROM financial_items WHERE id = $1 FOR UPDATE`, row.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock item: %w", err)
		}
		if current != row.Version {
			return fmt.Errorf("%w: item %s is at version %d", domain.ErrVersionConflict, item.ID, current)
		}

		const q = `
UPDATE financial_items SET
    kind = $2, name = $3, amount_cents = $4, category = $5, recurrence_kind = $6,
    ref_date = $7, anchor_date = $8, one_off_date = $9, end_date = $10, recurrence = $11,
    updated_at = $12, version = version + 1
WHERE id = $1
RETURNING ` + itemColumns

		updated, err = scanItem(tx.db.QueryRow(ctx, q,
			row.ID, row.Kind, row.Name, row.AmountCents, row.Category, row.RecurrenceKind,
			row.RefDate, row.AnchorDate, row.OneOffDate, row.EndDate, row.Recurrence,
			row.UpdatedAt,
		))
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an item.
func (s *Store) Delete(ctx context.Context, id string) error {
	pgID, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM financial_items WHERE id = $1`, pgID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), id)
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
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM financial_items`+where, f.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	q := `SELECT ` + itemColumns + ` FROM financial_items` + where + orderClause(params)
	args := f.args
	if params.Limit > 0 {
		args = append(args, params.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
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

	rows, err := s.db.Query(ctx,
		`SELECT `+itemColumns+` FROM financial_items`+f.clause()+` ORDER BY created_at, id`, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find active items: %w", err)
	}
	return collectItems(rows)
}

// filter accumulates WHERE conditions with positional arguments.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) arg(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

func (f *filter) kind(kind *domain.ItemKind) {
	if kind != nil {
		f.conds = append(f.conds, "kind = "+f.arg(string(*kind)))
	}
}

func (f *filter) query(q string) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return
	}
	p := f.arg(q)
	f.conds = append(f.conds, fmt.Sprintf(
		"(strpos(lower(name), %s) > 0 OR strpos(lower(COALESCE(category, '')), %s) > 0)", p, p))
}

func (f *filter) recurrence(r domain.RecurrenceFilter) {
	switch r {
	case domain.RecurrenceFilterRecurring:
		f.conds = append(f.conds, "recurrence_kind <> 'none'")
	case domain.RecurrenceFilterNonRecurring:
		f.conds = append(f.conds, "recurrence_kind = 'none'")
	}
}

// window keeps one-off items dated inside w, recurring items whose anchor
// and end dates do not rule out an occurrence inside w, and any item with
// an include date inside w.
func (f *filter) window(w recurrence.Window) {
	start, end := f.arg(dateToPgtype(w.Start)), f.arg(dateToPgtype(w.End))
	f.conds = append(f.conds, fmt.Sprintf(`(
    (recurrence_kind = 'none' AND one_off_date BETWEEN %[1]s AND %[2]s)
    OR (recurrence_kind <> 'none'
        AND (anchor_date IS NULL OR anchor_date <= %[2]s)
        AND (end_date IS NULL OR end_date >= %[1]s))
    OR EXISTS (
        SELECT 1 FROM jsonb_array_elements_text(COALESCE(recurrence->'include_dates', '[]'::jsonb)) AS inc(day)
        WHERE inc.day::date BETWEEN %[1]s AND %[2]s))`, start, end))
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
