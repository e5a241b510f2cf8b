package domain

// ItemKind tells income from expenses.
// Value object - immutable string enum.
type ItemKind string

const (
	ItemKindIncome  ItemKind = "income"
	ItemKindExpense ItemKind = "expense"
)

// RecurrenceFilter narrows listings to recurring or one-off items.
type RecurrenceFilter string

const (
	RecurrenceFilterAll          RecurrenceFilter = "all"
	RecurrenceFilterRecurring    RecurrenceFilter = "recurring"
	RecurrenceFilterNonRecurring RecurrenceFilter = "non_recurring"
)

// Sortable fields for item listings.
const (
	OrderByName           = "name"
	OrderByAmount         = "amount"
	OrderByDate           = "date"
	OrderByCategory       = "category"
	OrderByRecurrenceKind = "recurrence_kind"
	OrderByCreatedAt      = "created_at"
	OrderByUpdatedAt      = "updated_at"

	DefaultOrderBy  = OrderByCreatedAt
	DefaultOrderDir = "desc"
)
