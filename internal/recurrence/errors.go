package recurrence

import (
	"errors"
	"fmt"
)

// Validation errors. They are deterministic for a given input and are never retried.
var (
	// ErrInvalidPattern indicates a simple pattern is missing or has an out-of-domain field.
	ErrInvalidPattern = errors.New("invalid recurrence pattern")

	// ErrMissingRule indicates a recurring descriptor resolved to empty rule text.
	ErrMissingRule = errors.New("recurrence rule is missing")

	// ErrInvalidWindow indicates a window whose start is after its end.
	ErrInvalidWindow = errors.New("invalid window: start is after end")

	// ErrUnresolvableDescriptor indicates the descriptor kind cannot be resolved to dates.
	ErrUnresolvableDescriptor = errors.New("unresolvable recurrence descriptor")

	// ErrInvalidDescriptor indicates a descriptor field violates its invariants.
	ErrInvalidDescriptor = errors.New("invalid recurrence descriptor")

	// ErrInvalidTimezone indicates the descriptor timezone is not a known IANA zone.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrSubDailyRule indicates rule text that repeats more often than daily.
	ErrSubDailyRule = errors.New("rule repeats more often than daily")

	// ErrInvalidDate indicates a civil date string is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// RuleSyntaxError is returned when the rule evaluator rejects rule text.
// It is kept distinct from the validation errors above.
type RuleSyntaxError struct {
	Rule string
	Err  error
}

func (e *RuleSyntaxError) Error() string {
	return fmt.Sprintf("rule syntax error: %v", e.Err)
}

func (e *RuleSyntaxError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is caused by caller input rather than an internal failure.
func IsValidationError(err error) bool {
	var syntaxErr *RuleSyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return true
	case errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrMissingRule),
		errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrUnresolvableDescriptor),
		errors.Is(err, ErrInvalidDescriptor),
		errors.Is(err, ErrInvalidTimezone),
		errors.Is(err, ErrSubDailyRule),
		errors.Is(err, ErrInvalidDate):
		return true
	default:
		return false
	}
}
