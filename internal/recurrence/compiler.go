package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	minDay   = 1
	maxDay   = 31
	minMonth = 1
	maxMonth = 12

	ruleTimeLayout    = "20060102T150405"
	ruleUTCTimeLayout = "20060102T150405Z"
	dtstartPrefix     = "DTSTART"
	rrulePrefix       = "RRULE:"
	ruleLineSeparator = "\n"
)

var weekdayCodes = [...]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Compile translates a simple pattern into canonical rule text: a DTSTART line
// for the anchor followed by one RRULE line per generated rule. endDate and
// limit, when set, are appended to every rule as UNTIL and COUNT.
func Compile(p Pattern, anchor civil.Date, endDate *civil.Date, limit *int, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}

	rules, err := compileRules(p, anchor)
	if err != nil {
		return "", err
	}

	tail := ruleTail(endDate, limit, loc)

	lines := make([]string, 0, len(rules)+1)
	lines = append(lines, startLine(anchor))
	for _, rule := range rules {
		lines = append(lines, rrulePrefix+rule+tail)
	}
	return strings.Join(lines, ruleLineSeparator), nil
}

func compileRules(p Pattern, anchor civil.Date) ([]string, error) {
	switch p := p.(type) {
	case Weekly:
		days := p.DaysOfWeek
		if len(days) == 0 {
			days = []time.Weekday{Weekday(anchor)}
		}
		byDay, err := weekdayList(days)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("FREQ=WEEKLY;INTERVAL=%d;BYDAY=%s", atLeastOne(p.Interval), byDay)}, nil

	case EveryNDays:
		return []string{fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", atLeastOne(p.N))}, nil

	case Biweekly:
		wd := Weekday(anchor)
		if p.Weekday != nil {
			wd = *p.Weekday
		}
		if !validWeekday(wd) {
			return nil, fmt.Errorf("%w: weekday %d out of range", ErrInvalidPattern, wd)
		}
		return []string{"FREQ=WEEKLY;INTERVAL=2;BYDAY=" + weekdayCodes[wd]}, nil

	case MonthlyByDay:
		return []string{fmt.Sprintf("FREQ=MONTHLY;BYMONTHDAY=%d", clampDay(p.Day))}, nil

	case MonthlyOrdinal:
		if !validOrdinal(p.Ordinal) {
			return nil, fmt.Errorf("%w: ordinal %d not one of 1,2,3,4,-1", ErrInvalidPattern, p.Ordinal)
		}
		if !validWeekday(p.Weekday) {
			return nil, fmt.Errorf("%w: weekday %d out of range", ErrInvalidPattern, p.Weekday)
		}
		return []string{fmt.Sprintf("FREQ=MONTHLY;BYDAY=%s;BYSETPOS=%d", weekdayCodes[p.Weekday], p.Ordinal)}, nil

	case SemiMonthly:
		return []string{
			fmt.Sprintf("FREQ=MONTHLY;BYMONTHDAY=%d", clampDay(p.Day1)),
			fmt.Sprintf("FREQ=MONTHLY;BYMONTHDAY=%d", clampDay(p.Day2)),
		}, nil

	case Quarterly:
		return []string{fmt.Sprintf("FREQ=MONTHLY;INTERVAL=3;BYMONTHDAY=%d", clampDay(p.Day))}, nil

	case Semiannual:
		if len(p.MonthDays) == 0 {
			return nil, fmt.Errorf("%w: semiannual pattern needs at least one month/day pair", ErrInvalidPattern)
		}
		rules := make([]string, 0, len(p.MonthDays))
		for _, md := range p.MonthDays {
			rules = append(rules, yearlyRule(md.Month, md.Day))
		}
		return rules, nil

	case Annual:
		return []string{yearlyRule(p.Month, p.Day)}, nil

	case CustomMonthDays:
		if len(p.Days) == 0 {
			return nil, fmt.Errorf("%w: custom pattern needs at least one day", ErrInvalidPattern)
		}
		days := make([]int, 0, len(p.Days))
		for _, d := range p.Days {
			days = append(days, clampDay(d))
		}
		slices.Sort(days)
		days = slices.Compact(days)
		return []string{"FREQ=MONTHLY;BYMONTHDAY=" + joinInts(days)}, nil

	case nil:
		return nil, fmt.Errorf("%w: pattern is required", ErrInvalidPattern)

	default:
		return nil, fmt.Errorf("%w: unsupported pattern %T", ErrInvalidPattern, p)
	}
}

func yearlyRule(month time.Month, day int) string {
	return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYMONTHDAY=%d", clampMonth(month), clampDay(day))
}

func ruleTail(endDate *civil.Date, limit *int, loc *time.Location) string {
	var b strings.Builder
	if endDate != nil {
		b.WriteString(";UNTIL=")
		b.WriteString(endOfDay(*endDate, loc).UTC().Format(ruleUTCTimeLayout))
	}
	if limit != nil && *limit > 0 {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(*limit))
	}
	return b.String()
}

// startLine returns the floating DTSTART line for anchor.
// The evaluator interprets it in the descriptor's zone.
func startLine(anchor civil.Date) string {
	return dtstartPrefix + ":" + AnchorInstant(anchor, time.UTC).Format(ruleTimeLayout)
}

// withStartLine prepends a DTSTART line for anchor unless the rule already has one.
func withStartLine(rule string, anchor *civil.Date) (string, error) {
	rule = strings.TrimSpace(rule)
	if hasStartLine(rule) {
		return rule, nil
	}
	if anchor == nil {
		return "", fmt.Errorf("%w: anchor date is required when the rule has no DTSTART", ErrUnresolvableDescriptor)
	}
	return startLine(*anchor) + ruleLineSeparator + rule, nil
}

// withBounds appends UNTIL and COUNT from the descriptor to every rule line
// of raw text that does not already carry them.
func withBounds(text string, endDate *civil.Date, limit *int, loc *time.Location) string {
	if endDate == nil && limit == nil {
		return text
	}
	lines := strings.Split(text, ruleLineSeparator)
	for i, line := range lines {
		params, ok := ruleParams(line)
		if !ok {
			continue
		}
		until, count := endDate, limit
		if _, ok := params["UNTIL"]; ok {
			until = nil
		}
		if _, ok := params["COUNT"]; ok {
			count = nil
		}
		lines[i] = strings.TrimSpace(line) + ruleTail(until, count, loc)
	}
	return strings.Join(lines, ruleLineSeparator)
}

// subDailyParts repeat a rule within a day. Occurrences are civil dates,
// so they only multiply instants that collapse onto the same date.
var subDailyParts = []string{"BYHOUR", "BYMINUTE", "BYSECOND"}

// checkRuleFrequency rejects rule lines that repeat more than once a day.
func checkRuleFrequency(text string) error {
	for line := range strings.Lines(text) {
		params, ok := ruleParams(line)
		if !ok {
			continue
		}
		switch freq := params["FREQ"]; freq {
		case "HOURLY", "MINUTELY", "SECONDLY":
			return &RuleSyntaxError{Rule: text, Err: fmt.Errorf("%w: FREQ=%s", ErrSubDailyRule, freq)}
		}
		for _, part := range subDailyParts {
			if _, ok := params[part]; ok {
				return &RuleSyntaxError{Rule: text, Err: fmt.Errorf("%w: %s", ErrSubDailyRule, part)}
			}
		}
	}
	return nil
}

// ruleParams splits an RRULE line, or a bare FREQ line, into upper-cased
// parameter names and values. It reports false for any other line.
func ruleParams(line string) (map[string]string, bool) {
	line = strings.ToUpper(strings.TrimSpace(line))
	line = strings.TrimPrefix(line, rrulePrefix)
	if !strings.HasPrefix(line, "FREQ=") && !strings.Contains(line, ";FREQ=") {
		return nil, false
	}
	params := make(map[string]string)
	for part := range strings.SplitSeq(line, ";") {
		key, value, _ := strings.Cut(part, "=")
		params[key] = value
	}
	return params, true
}

func hasStartLine(rule string) bool {
	for line := range strings.Lines(rule) {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), dtstartPrefix) {
			return true
		}
	}
	return false
}

func weekdayList(days []time.Weekday) (string, error) {
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	codes := make([]string, 0, len(sorted))
	for _, wd := range sorted {
		if !validWeekday(wd) {
			return "", fmt.Errorf("%w: weekday %d out of range", ErrInvalidPattern, wd)
		}
		codes = append(codes, weekdayCodes[wd])
	}
	return strings.Join(codes, ","), nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func validWeekday(wd time.Weekday) bool {
	return wd >= time.Sunday && wd <= time.Saturday
}

func validOrdinal(n int) bool {
	switch n {
	case OrdinalFirst, OrdinalSecond, OrdinalThird, OrdinalFourth, OrdinalLast:
		return true
	default:
		return false
	}
}

func atLeastOne(n int) int {
	return max(n, 1)
}

func clampDay(day int) int {
	return min(max(day, minDay), maxDay)
}

func clampMonth(m time.Month) int {
	return min(max(int(m), minMonth), maxMonth)
}
