package domain

import "errors"

// Domain errors returned by repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrItemNotFound indicates the specified financial item does not exist.
	ErrItemNotFound = errors.New("financial item not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrVersionConflict indicates the item changed since the caller read it.
	ErrVersionConflict = errors.New("version conflict: item was modified")
)

// Validation errors returned by value object constructors.
var (
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name must be at most 255 characters")
	ErrCategoryTooLong   = errors.New("category must be at most 255 characters")
	ErrInvalidAmount     = errors.New("amount must be a non-negative decimal with at most two fractional digits")
	ErrInvalidItemKind   = errors.New("kind must be income or expense")
	ErrInvalidOrderBy    = errors.New("invalid order_by field")
	ErrInvalidOrderDir   = errors.New("order direction must be asc or desc")
	ErrInvalidRecurrence = errors.New("invalid recurrence filter")
	ErrWindowTooLarge    = errors.New("window is too large")
	ErrEmptyUpdateMask   = errors.New("update mask is empty")
	ErrUnknownField      = errors.New("unknown field in update mask")
	ErrAmountRequired    = errors.New("amount is required")
	ErrKindRequired      = errors.New("kind is required")
	ErrRecurrenceMissing = errors.New("recurrence is required")
)
