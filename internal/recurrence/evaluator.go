package recurrence

import (
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Evaluator parses canonical rule text into an iterable rule set.
type Evaluator interface {
	Parse(text string, loc *time.Location) (RuleSet, error)
}

// RuleSet yields the instants produced by parsed rule text.
type RuleSet interface {
	// Between returns the occurrences between start and end in ascending order.
	Between(start, end time.Time, inclusive bool) []time.Time
	// After returns the first occurrence after t, reporting false when the rule is exhausted.
	After(t time.Time, inclusive bool) (time.Time, bool)
}

// RRuleEvaluator evaluates RFC 5545 rule text with rrule-go.
//
// An rrule.Set holds a single RRULE, so text with several RRULE lines is split
// into one set per rule. Every set shares the DTSTART, RDATE and EXDATE lines.
type RRuleEvaluator struct{}

var _ Evaluator = RRuleEvaluator{}

// Parse implements Evaluator. Bare "FREQ=..." lines are read as RRULE lines.
// Parse failures are returned as *RuleSyntaxError.
func (RRuleEvaluator) Parse(text string, loc *time.Location) (RuleSet, error) {
	if loc == nil {
		loc = time.UTC
	}

	var header, rules, dates []string
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(upper, dtstartPrefix):
			header = append(header, line)
		case strings.HasPrefix(upper, "RDATE"), strings.HasPrefix(upper, "EXDATE"):
			dates = append(dates, line)
		case strings.HasPrefix(upper, "FREQ="):
			rules = append(rules, rrulePrefix+line)
		default:
			rules = append(rules, line)
		}
	}
	if len(rules) == 0 && len(dates) == 0 {
		return nil, &RuleSyntaxError{Rule: text, Err: ErrMissingRule}
	}
	if len(rules) == 0 {
		rules = []string{""}
	}

	sets := make(rruleSets, 0, len(rules))
	for _, rule := range rules {
		lines := slices.Concat(header, []string{rule}, dates)
		lines = slices.DeleteFunc(lines, func(s string) bool { return s == "" })

		set, err := rrule.StrSliceToRRuleSetInLoc(lines, loc)
		if err != nil {
			return nil, &RuleSyntaxError{Rule: text, Err: err}
		}
		sets = append(sets, set)
	}
	return sets, nil
}

type rruleSets []*rrule.Set

func (s rruleSets) Between(start, end time.Time, inclusive bool) []time.Time {
	var out []time.Time
	for _, set := range s {
		out = append(out, set.Between(start, end, inclusive)...)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

func (s rruleSets) After(t time.Time, inclusive bool) (time.Time, bool) {
	var (
		first time.Time
		found bool
	)
	for _, set := range s {
		next := set.After(t, inclusive)
		if next.IsZero() {
			continue
		}
		if !found || next.Before(first) {
			first, found = next, true
		}
	}
	return first, found
}
