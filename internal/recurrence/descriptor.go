package recurrence

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Kind selects how a descriptor produces dates.
type Kind string

const (
	// KindNone is a one-off item due on OneOffDate.
	KindNone Kind = "none"
	// KindSimple is generated from one of the simple patterns.
	KindSimple Kind = "simple"
	// KindRaw is generated from caller-supplied rule text.
	KindRaw Kind = "raw"
)

// ParseKind parses a kind name. "rrule" is accepted as an alias of raw.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindNone:
		return KindNone, nil
	case KindSimple:
		return KindSimple, nil
	case KindRaw, "rrule":
		return KindRaw, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrUnresolvableDescriptor, s)
	}
}

// Descriptor describes how one item repeats. It is treated as immutable input.
type Descriptor struct {
	Kind          Kind
	AnchorDate    *civil.Date
	OneOffDate    *civil.Date
	Simple        Pattern
	RawRule       string
	EndDate       *civil.Date
	Limit         *int
	Timezone      string
	WeekendPolicy WeekendPolicy
	IncludeDates  []civil.Date
	ExcludeDates  []civil.Date
}

// IsRecurring reports whether the descriptor generates more than a single date.
func (d Descriptor) IsRecurring() bool {
	return d.Kind == KindSimple || d.Kind == KindRaw
}

// Location resolves the descriptor timezone. An empty name means UTC.
func (d Descriptor) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, d.Timezone)
	}
	return loc, nil
}

// Validate checks the descriptor invariants without evaluating any rule.
func (d Descriptor) Validate() error {
	if _, err := d.Location(); err != nil {
		return err
	}
	if _, err := ParseWeekendPolicy(string(d.WeekendPolicy)); err != nil {
		return err
	}
	if d.Limit != nil && *d.Limit < 1 {
		return fmt.Errorf("%w: occurrence limit must be at least 1", ErrInvalidDescriptor)
	}

	for _, date := range append(d.dates(), d.IncludeDates...) {
		if !date.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidDate, date)
		}
	}
	for _, date := range d.ExcludeDates {
		if !date.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidDate, date)
		}
	}

	if d.Simple != nil && d.Kind != KindSimple {
		return fmt.Errorf("%w: pattern is only allowed on simple descriptors", ErrInvalidDescriptor)
	}
	if d.RawRule != "" && d.Kind != KindRaw {
		return fmt.Errorf("%w: rule is only allowed on raw descriptors", ErrInvalidDescriptor)
	}

	switch d.Kind {
	case KindNone:
		if d.OneOffDate == nil {
			return fmt.Errorf("%w: one-off date is required", ErrUnresolvableDescriptor)
		}
		return nil
	case KindSimple:
		if d.AnchorDate == nil {
			return fmt.Errorf("%w: anchor date is required", ErrUnresolvableDescriptor)
		}
		if d.Simple == nil {
			return fmt.Errorf("%w: pattern is required", ErrInvalidPattern)
		}
		if _, err := compileRules(d.Simple, *d.AnchorDate); err != nil {
			return err
		}
	case KindRaw:
		if strings.TrimSpace(d.RawRule) == "" {
			return ErrMissingRule
		}
		if d.AnchorDate == nil && !hasStartLine(d.RawRule) {
			return fmt.Errorf("%w: anchor date is required when the rule has no DTSTART", ErrUnresolvableDescriptor)
		}
		if err := checkRuleFrequency(d.RawRule); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrUnresolvableDescriptor, d.Kind)
	}

	if d.EndDate != nil && d.AnchorDate != nil && CompareDates(*d.EndDate, *d.AnchorDate) < 0 {
		return fmt.Errorf("%w: end date %s is before anchor date %s", ErrInvalidDescriptor, d.EndDate, d.AnchorDate)
	}
	return nil
}

// ActiveIn reports whether the item can have occurrences inside w.
// Stores use it to skip items before expanding them.
func (d Descriptor) ActiveIn(w Window) bool {
	if slices.ContainsFunc(d.IncludeDates, w.Contains) {
		return true
	}
	if !d.IsRecurring() {
		return d.OneOffDate != nil && w.Contains(*d.OneOffDate)
	}
	if d.AnchorDate != nil && CompareDates(*d.AnchorDate, w.End) > 0 {
		return false
	}
	if d.EndDate != nil && CompareDates(*d.EndDate, w.Start) < 0 {
		return false
	}
	return true
}

func (d Descriptor) dates() []civil.Date {
	var out []civil.Date
	for _, p := range []*civil.Date{d.AnchorDate, d.OneOffDate, d.EndDate} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Window is an inclusive range of civil dates.
type Window struct {
	Start civil.Date
	End   civil.Date
}

// NewWindow returns a validated window.
func NewWindow(start, end civil.Date) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate fails with ErrInvalidWindow when Start is after End.
func (w Window) Validate() error {
	if !w.Start.IsValid() || !w.End.IsValid() {
		return fmt.Errorf("%w: window bounds must be valid dates", ErrInvalidWindow)
	}
	if CompareDates(w.Start, w.End) > 0 {
		return fmt.Errorf("%w: %s > %s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Contains reports whether d lies within the window, bounds included.
func (w Window) Contains(d civil.Date) bool {
	return CompareDates(d, w.Start) >= 0 && CompareDates(d, w.End) <= 0
}

// Days returns the number of days covered by the window.
func (w Window) Days() int {
	return w.End.DaysSince(w.Start) + 1
}
