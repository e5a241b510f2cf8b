package domain

import (
	"fmt"

	"github.com/rezkam/cashflow/internal/recurrence"
)

// UpdateItemParams carries a partial update of a FinancialItem.
// Only the fields named in UpdateMask are applied.
type UpdateItemParams struct {
	ID         string
	Etag       *string // Optional optimistic concurrency check
	UpdateMask []string

	Kind       *ItemKind
	Name       *string
	Amount     *Amount
	Category   *string
	Recurrence *recurrence.Descriptor
}

// Valid fields for UpdateItemParams.
var updateItemValidFields = map[string]struct{}{
	"kind":       {},
	"name":       {},
	"amount":     {},
	"category":   {},
	"recurrence": {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateItemParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	// Check for unknown fields
	for _, field := range p.UpdateMask {
		if _, ok := updateItemValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	// Required field checks (cannot be nil when in mask)
	if maskSet["name"] && p.Name == nil {
		return ErrNameRequired
	}
	if maskSet["kind"] && p.Kind == nil {
		return ErrKindRequired
	}
	if maskSet["amount"] && p.Amount == nil {
		return ErrAmountRequired
	}
	if maskSet["recurrence"] && p.Recurrence == nil {
		return ErrRecurrenceMissing
	}

	return nil
}

// Has reports whether field is in the update mask.
func (p UpdateItemParams) Has(field string) bool {
	for _, f := range p.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}
