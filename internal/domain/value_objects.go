package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const maxTextLength = 255

// Name is a validated item name (1-255 characters).
type Name struct {
	value string
}

// NewName creates a new Name, validating the input.
func NewName(s string) (Name, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Name{}, ErrNameRequired
	}

	if len(s) > maxTextLength {
		return Name{}, ErrNameTooLong
	}

	return Name{value: s}, nil
}

// String returns the name value.
func (n Name) String() string {
	return n.value
}

// NewItemKind validates and creates an ItemKind.
func NewItemKind(s string) (ItemKind, error) {
	kind := ItemKind(strings.ToLower(strings.TrimSpace(s)))

	switch kind {
	case ItemKindIncome, ItemKindExpense:
		return kind, nil
	case "":
		return "", ErrKindRequired
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidItemKind, s)
	}
}

// NewCategory trims the category and returns nil when it is blank.
func NewCategory(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxTextLength {
		return nil, ErrCategoryTooLong
	}
	return &trimmed, nil
}

// NewRecurrenceFilter validates a listing filter. Empty means all.
func NewRecurrenceFilter(s string) (RecurrenceFilter, error) {
	switch f := RecurrenceFilter(strings.TrimSpace(s)); f {
	case "", RecurrenceFilterAll:
		return RecurrenceFilterAll, nil
	case RecurrenceFilterRecurring, RecurrenceFilterNonRecurring:
		return f, nil
	case "nonRecurring":
		return RecurrenceFilterNonRecurring, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidRecurrence, s)
	}
}

// Amount is a non-negative money amount stored in minor units (cents).
type Amount int64

// NewAmount parses a decimal string such as "12", "12.3" or "12.34".
func NewAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// DECIMAL(12,2) upper bound.
	if units >= 1e10 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount(units*100 + cents), nil
}

// Cents returns the amount in minor units.
func (a Amount) Cents() int64 {
	return int64(a)
}

// String formats the amount with two fractional digits.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", int64(a)/100, int64(a)%100)
}

// MarshalJSON encodes the amount as a JSON number with two fractional digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
		}
		raw = json.Number(s)
	}
	parsed, err := NewAmount(raw.String())
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
