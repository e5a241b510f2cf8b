package recurrence

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Variants(t *testing.T) {
	friday := time.Friday

	tests := []struct {
		name    string
		pattern Pattern
		anchor  string
		want    []string
	}{
		{
			name:    "weekly on listed days",
			pattern: Weekly{Interval: 1, DaysOfWeek: []time.Weekday{time.Friday, time.Monday, time.Wednesday}},
			anchor:  "2025-01-06",
			want:    []string{"FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE,FR"},
		},
		{
			name:    "weekly defaults to anchor weekday and interval one",
			pattern: Weekly{Interval: 0},
			anchor:  "2025-01-03",
			want:    []string{"FREQ=WEEKLY;INTERVAL=1;BYDAY=FR"},
		},
		{
			name:    "every n days clamps to one",
			pattern: EveryNDays{N: 0},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=DAILY;INTERVAL=1"},
		},
		{
			name:    "biweekly on anchor weekday",
			pattern: Biweekly{},
			anchor:  "2025-01-06",
			want:    []string{"FREQ=WEEKLY;INTERVAL=2;BYDAY=MO"},
		},
		{
			name:    "biweekly on explicit weekday",
			pattern: Biweekly{Weekday: &friday},
			anchor:  "2025-01-06",
			want:    []string{"FREQ=WEEKLY;INTERVAL=2;BYDAY=FR"},
		},
		{
			name:    "monthly day clamps high",
			pattern: MonthlyByDay{Day: 40},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=MONTHLY;BYMONTHDAY=31"},
		},
		{
			name:    "monthly day clamps low",
			pattern: MonthlyByDay{Day: -3},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=MONTHLY;BYMONTHDAY=1"},
		},
		{
			name:    "last friday of the month",
			pattern: MonthlyOrdinal{Ordinal: OrdinalLast, Weekday: time.Friday},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=MONTHLY;BYDAY=FR;BYSETPOS=-1"},
		},
		{
			name:    "semi-monthly emits two rules",
			pattern: SemiMonthly{Day1: 1, Day2: 15},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=MONTHLY;BYMONTHDAY=1", "FREQ=MONTHLY;BYMONTHDAY=15"},
		},
		{
			name:    "quarterly",
			pattern: Quarterly{Day: 15},
			anchor:  "2025-01-15",
			want:    []string{"FREQ=MONTHLY;INTERVAL=3;BYMONTHDAY=15"},
		},
		{
			name:    "semiannual emits one rule per pair",
			pattern: Semiannual{MonthDays: []MonthDay{{Month: time.January, Day: 1}, {Month: 13, Day: 0}}},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1", "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=1"},
		},
		{
			name:    "annual",
			pattern: Annual{Month: time.December, Day: 25},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"},
		},
		{
			name:    "custom days are clamped and deduplicated",
			pattern: CustomMonthDays{Days: []int{15, 1, 15, 40}},
			anchor:  "2025-01-01",
			want:    []string{"FREQ=MONTHLY;BYMONTHDAY=1,15,31"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor := mustDate(t, tt.anchor)
			text, err := Compile(tt.pattern, anchor, nil, nil, time.UTC)
			require.NoError(t, err)

			want := []string{startLine(anchor)}
			for _, rule := range tt.want {
				want = append(want, "RRULE:"+rule)
			}
			assert.Equal(t, want, splitLines(text))
		})
	}
}

func TestCompile_StartLine(t *testing.T) {
	text, err := Compile(EveryNDays{N: 2}, mustDate(t, "2025-01-06"), nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "DTSTART:20250106T120000", splitLines(text)[0])
}

func TestCompile_TailIsAppendedToEveryRule(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name  string
		end   string
		limit *int
		loc   *time.Location
		tail  string
	}{
		{name: "until only", end: "2025-01-22", loc: time.UTC, tail: ";UNTIL=20250122T235959Z"},
		{name: "count only", limit: intPtr(3), loc: time.UTC, tail: ";COUNT=3"},
		{name: "until and count", end: "2025-01-22", limit: intPtr(2), loc: time.UTC, tail: ";UNTIL=20250122T235959Z;COUNT=2"},
		{name: "until in zone", end: "2025-01-22", loc: newYork, tail: ";UNTIL=20250123T045959Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var end *civil.Date
			if tt.end != "" {
				end = datePtr(t, tt.end)
			}

			text, err := Compile(SemiMonthly{Day1: 1, Day2: 15}, mustDate(t, "2025-01-01"), end, tt.limit, tt.loc)
			require.NoError(t, err)

			lines := splitLines(text)
			require.Len(t, lines, 3)
			assert.Equal(t, "RRULE:FREQ=MONTHLY;BYMONTHDAY=1"+tt.tail, lines[1])
			assert.Equal(t, "RRULE:FREQ=MONTHLY;BYMONTHDAY=15"+tt.tail, lines[2])
		})
	}
}

func TestCompile_InvalidPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
	}{
		{name: "nil pattern", pattern: nil},
		{name: "weekday out of range", pattern: Weekly{DaysOfWeek: []time.Weekday{7}}},
		{name: "negative weekday", pattern: MonthlyOrdinal{Ordinal: 1, Weekday: -1}},
		{name: "ordinal out of domain", pattern: MonthlyOrdinal{Ordinal: 5, Weekday: time.Monday}},
		{name: "zero ordinal", pattern: MonthlyOrdinal{Ordinal: 0, Weekday: time.Monday}},
		{name: "empty semiannual pairs", pattern: Semiannual{}},
		{name: "empty custom days", pattern: CustomMonthDays{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.pattern, mustDate(t, "2025-01-01"), nil, nil, time.UTC)
			assert.ErrorIs(t, err, ErrInvalidPattern)
		})
	}
}

func TestWithStartLine(t *testing.T) {
	anchor := datePtr(t, "2025-01-06")

	t.Run("prepends anchor when missing", func(t *testing.T) {
		rule, err := withStartLine("RRULE:FREQ=DAILY", anchor)
		require.NoError(t, err)
		assert.Equal(t, "DTSTART:20250106T120000\nRRULE:FREQ=DAILY", rule)
	})

	t.Run("keeps embedded start", func(t *testing.T) {
		rule, err := withStartLine("DTSTART;TZID=Europe/Berlin:20250101T090000\nRRULE:FREQ=DAILY", anchor)
		require.NoError(t, err)
		assert.Equal(t, "DTSTART;TZID=Europe/Berlin:20250101T090000\nRRULE:FREQ=DAILY", rule)
	})

	t.Run("requires anchor without start", func(t *testing.T) {
		_, err := withStartLine("RRULE:FREQ=DAILY", nil)
		assert.ErrorIs(t, err, ErrUnresolvableDescriptor)
	})
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

func TestWithBounds(t *testing.T) {
	end := datePtr(t, "2025-01-22")

	tests := []struct {
		name  string
		text  string
		end   *civil.Date
		limit *int
		want  string
	}{
		{
			name: "no bounds",
			text: "DTSTART:20250101T120000\nRRULE:FREQ=WEEKLY",
			want: "DTSTART:20250101T120000\nRRULE:FREQ=WEEKLY",
		},
		{
			name:  "bounds every rule line",
			text:  "DTSTART:20250101T120000\nRRULE:FREQ=WEEKLY\nFREQ=MONTHLY\nRDATE:20250120T120000",
			end:   end,
			limit: intPtr(4),
			want:  "DTSTART:20250101T120000\nRRULE:FREQ=WEEKLY;UNTIL=20250122T235959Z;COUNT=4\nFREQ=MONTHLY;UNTIL=20250122T235959Z;COUNT=4\nRDATE:20250120T120000",
		},
		{
			name:  "keeps existing until and count",
			text:  "RRULE:FREQ=WEEKLY;until=20250301T000000Z\nRRULE:FREQ=DAILY;COUNT=2",
			end:   end,
			limit: intPtr(4),
			want:  "RRULE:FREQ=WEEKLY;until=20250301T000000Z;COUNT=4\nRRULE:FREQ=DAILY;COUNT=2;UNTIL=20250122T235959Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withBounds(tt.text, tt.end, tt.limit, time.UTC))
		})
	}
}
