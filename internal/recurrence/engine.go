// Package recurrence expands recurrence descriptors into civil due dates.
//
// Rule iteration is delegated to an Evaluator. Everything else (pattern
// compilation, weekend adjustment, include and exclude dates, windowing)
// happens on civil dates so that zone conversions never move a due date.
package recurrence

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/samber/mo"
)

// Engine expands descriptors. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	evaluator Evaluator
}

// NewEngine returns an engine backed by evaluator, or by RRuleEvaluator when nil.
func NewEngine(evaluator Evaluator) *Engine {
	if evaluator == nil {
		evaluator = RRuleEvaluator{}
	}
	return &Engine{evaluator: evaluator}
}

// Expand returns the sorted, unique due dates of d whose pre-adjustment date
// lies within w. Weekend adjustment may move a date outside w; such dates are kept.
func (e *Engine) Expand(d Descriptor, w Window) ([]civil.Date, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	loc, _ := d.Location()
	policy, _ := ParseWeekendPolicy(string(d.WeekendPolicy))

	var candidates []civil.Date
	if d.Kind == KindNone {
		if w.Contains(*d.OneOffDate) {
			candidates = append(candidates, *d.OneOffDate)
		}
	} else {
		set, err := e.ruleSet(d, loc)
		if err != nil {
			return nil, err
		}
		for _, t := range set.Between(startOfDay(w.Start, loc), endOfDay(w.End, loc), true) {
			if date := DateOf(t, loc); w.Contains(date) && !d.endedBefore(date) {
				candidates = append(candidates, date)
			}
		}
	}

	for _, date := range d.IncludeDates {
		if w.Contains(date) {
			candidates = append(candidates, date)
		}
	}
	candidates = slices.DeleteFunc(candidates, d.excluded)

	for i, date := range candidates {
		candidates[i] = Adjust(date, policy)
	}
	return sortUnique(candidates), nil
}

// NextDue returns the first due date whose occurrence falls on or after from,
// after weekend adjustment. It returns mo.None when the rule is exhausted or a
// one-off date lies before from. Include and exclude dates are honored the same
// way Expand honors them.
func (e *Engine) NextDue(d Descriptor, from civil.Date) (mo.Option[civil.Date], error) {
	if err := d.Validate(); err != nil {
		return mo.None[civil.Date](), err
	}
	if !from.IsValid() {
		return mo.None[civil.Date](), fmt.Errorf("%w: %s", ErrInvalidDate, from)
	}
	loc, _ := d.Location()
	policy, _ := ParseWeekendPolicy(string(d.WeekendPolicy))

	var next *civil.Date
	consider := func(date civil.Date) {
		if CompareDates(date, from) < 0 || d.excluded(date) {
			return
		}
		if next == nil || CompareDates(date, *next) < 0 {
			next = &date
		}
	}

	if d.Kind == KindNone {
		consider(*d.OneOffDate)
	} else {
		set, err := e.ruleSet(d, loc)
		if err != nil {
			return mo.None[civil.Date](), err
		}
		if date, ok := firstOccurrence(set, from, loc, d.excluded); ok && !d.endedBefore(date) {
			consider(date)
		}
	}
	for _, date := range d.IncludeDates {
		consider(date)
	}

	if next == nil {
		return mo.None[civil.Date](), nil
	}
	return mo.Some(Adjust(*next, policy)), nil
}

// RuleText returns the canonical rule text for a recurring descriptor.
func (e *Engine) RuleText(d Descriptor) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	loc, _ := d.Location()
	return resolveRule(d, loc)
}

func (e *Engine) ruleSet(d Descriptor, loc *time.Location) (RuleSet, error) {
	text, err := resolveRule(d, loc)
	if err != nil {
		return nil, err
	}
	return e.evaluator.Parse(text, loc)
}

func resolveRule(d Descriptor, loc *time.Location) (string, error) {
	var (
		text string
		err  error
	)
	switch d.Kind {
	case KindSimple:
		text, err = Compile(d.Simple, *d.AnchorDate, d.EndDate, d.Limit, loc)
	case KindRaw:
		text, err = withStartLine(d.RawRule, d.AnchorDate)
		text = withBounds(text, d.EndDate, d.Limit, loc)
	default:
		return "", fmt.Errorf("%w: kind %q has no rule", ErrUnresolvableDescriptor, d.Kind)
	}
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrMissingRule
	}
	return text, nil
}

// firstOccurrence walks the rule from the start of from until it finds a date
// that is not excluded. The exclusion list is finite, so the walk terminates.
func firstOccurrence(set RuleSet, from civil.Date, loc *time.Location, excluded func(civil.Date) bool) (civil.Date, bool) {
	t, ok := set.After(startOfDay(from, loc), true)
	for ok {
		date := DateOf(t, loc)
		if CompareDates(date, from) >= 0 && !excluded(date) {
			return date, true
		}
		t, ok = set.After(t, false)
	}
	return civil.Date{}, false
}

// endedBefore reports whether EndDate falls before date. Raw rules may carry
// their own UNTIL past the descriptor's end date.
func (d Descriptor) endedBefore(date civil.Date) bool {
	return d.EndDate != nil && CompareDates(date, *d.EndDate) > 0
}

func (d Descriptor) excluded(date civil.Date) bool {
	return slices.Contains(d.ExcludeDates, date)
}

func sortUnique(dates []civil.Date) []civil.Date {
	slices.SortFunc(dates, CompareDates)
	dates = slices.Compact(dates)
	if dates == nil {
		return []civil.Date{}
	}
	return dates
}
