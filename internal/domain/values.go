package domain

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rezkam/cashflow/internal/recurrence"
)

// ListItemsParams contains parameters for listing items with filtering, sorting, and pagination.
//
// Common use cases:
//   - "Recurring expenses": Kind=expense, Recurrence=recurring
//   - "Everything due in March": Window=2025-03-01..2025-03-31
//   - Search: Query matches name or category (case-insensitive)
type ListItemsParams struct {
	// Optional filters (nil/empty = no filter applied)
	Kind       *ItemKind
	Query      string
	Recurrence RecurrenceFilter
	Window     *recurrence.Window // Items that can have occurrences inside the window

	// Sorting (empty uses defaults: created_at field, desc direction)
	OrderBy  string
	OrderDir string

	// Pagination
	Limit  int
	Offset int
}

// PagedItems contains items matching the query parameters.
type PagedItems struct {
	Items      []FinancialItem // Items matching the ListItemsParams criteria
	TotalCount int             // Total matching items across all pages
	HasMore    bool            // Whether there are more pages
}

// ValidateOrder checks the sorting parameters.
func (p ListItemsParams) ValidateOrder() error {
	switch p.OrderBy {
	case "", OrderByName, OrderByAmount, OrderByDate, OrderByCategory,
		OrderByRecurrenceKind, OrderByCreatedAt, OrderByUpdatedAt:
	default:
		return ErrInvalidOrderBy
	}
	switch strings.ToLower(p.OrderDir) {
	case "", "asc", "desc":
		return nil
	default:
		return ErrInvalidOrderDir
	}
}

// Matches reports whether item passes the filters in p.
func (p ListItemsParams) Matches(item FinancialItem) bool {
	if p.Kind != nil && item.Kind != *p.Kind {
		return false
	}
	switch p.Recurrence {
	case RecurrenceFilterRecurring:
		if !item.IsRecurring() {
			return false
		}
	case RecurrenceFilterNonRecurring:
		if item.IsRecurring() {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(p.Query)); q != "" {
		inName := strings.Contains(strings.ToLower(item.Name), q)
		inCategory := item.Category != nil && strings.Contains(strings.ToLower(*item.Category), q)
		if !inName && !inCategory {
			return false
		}
	}
	if p.Window != nil && !item.Recurrence.ActiveIn(*p.Window) {
		return false
	}
	return true
}

// ApplyListParams filters, sorts and pages items in memory.
// Object stores without a query engine use it to implement List.
func ApplyListParams(items []FinancialItem, p ListItemsParams) PagedItems {
	matched := make([]FinancialItem, 0, len(items))
	for _, item := range items {
		if p.Matches(item) {
			matched = append(matched, item)
		}
	}

	desc := !strings.EqualFold(p.OrderDir, "asc")
	slices.SortStableFunc(matched, func(a, b FinancialItem) int {
		c := compareItems(a, b, p.OrderBy)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})

	total := len(matched)
	start := min(max(p.Offset, 0), total)
	end := total
	if p.Limit > 0 {
		end = min(start+p.Limit, total)
	}

	return PagedItems{
		Items:      matched[start:end],
		TotalCount: total,
		HasMore:    end < total,
	}
}

func compareItems(a, b FinancialItem, orderBy string) int {
	switch orderBy {
	case OrderByName:
		return strings.Compare(a.Name, b.Name)
	case OrderByAmount:
		return cmp.Compare(a.Amount, b.Amount)
	case OrderByDate:
		return compareOptionalDate(a, b)
	case OrderByCategory:
		return strings.Compare(deref(a.Category), deref(b.Category))
	case OrderByRecurrenceKind:
		return strings.Compare(string(a.Recurrence.Kind), string(b.Recurrence.Kind))
	case OrderByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareOptionalDate(a, b FinancialItem) int {
	da, db := a.Date(), b.Date()
	switch {
	case da == nil && db == nil:
		return 0
	case da == nil:
		return -1
	case db == nil:
		return 1
	default:
		return recurrence.CompareDates(*da, *db)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
