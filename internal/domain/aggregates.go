package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezkam/cashflow/internal/recurrence"
)

// FinancialItem is an aggregate root representing one income or expense entry.
//
// Its due dates are never stored. They are derived from Recurrence on read,
// so editing the recurrence immediately changes every projection.
type FinancialItem struct {
	ID       string
	Kind     ItemKind
	Name     string
	Amount   Amount
	Category *string

	// Recurrence describes when the item is due. A one-off item uses
	// recurrence.KindNone with OneOffDate set.
	Recurrence recurrence.Descriptor

	// Timestamps (always UTC)
	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection
	Version int
}

// Etag returns the entity tag for this item.
// The etag is based on the version number and is used for optimistic concurrency control.
func (item *FinancialItem) Etag() string {
	return fmt.Sprintf("%d", item.Version)
}

// Date returns the item's reference date: the one-off date, or the anchor of a recurring item.
func (item *FinancialItem) Date() *civil.Date {
	if item.Recurrence.IsRecurring() {
		return item.Recurrence.AnchorDate
	}
	return item.Recurrence.OneOffDate
}

// IsRecurring reports whether the item repeats.
func (item *FinancialItem) IsRecurring() bool {
	return item.Recurrence.IsRecurring()
}

// Occurrence is a single due date of an item.
type Occurrence struct {
	ItemID string
	Kind   ItemKind
	Name   string
	Amount Amount
	Date   civil.Date
}

// DailyTotal aggregates the occurrences due on one day.
type DailyTotal struct {
	Date    civil.Date
	Income  Amount
	Expense Amount
}

// Net returns income minus expense in minor units; it may be negative.
func (d DailyTotal) Net() int64 {
	return d.Income.Cents() - d.Expense.Cents()
}

// Projection is the cash flow of all items over a window.
type Projection struct {
	Window       recurrence.Window
	Occurrences  []Occurrence
	Days         []DailyTotal
	TotalIncome  Amount
	TotalExpense Amount
}
