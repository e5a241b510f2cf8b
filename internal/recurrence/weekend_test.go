package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust_WeekendTable(t *testing.T) {
	saturday := "2025-02-01"
	sunday := "2025-02-02"

	tests := []struct {
		date   string
		policy WeekendPolicy
		want   string
	}{
		{saturday, WeekendNone, "2025-02-01"},
		{sunday, WeekendNone, "2025-02-02"},
		{saturday, WeekendNext, "2025-02-03"},
		{sunday, WeekendNext, "2025-02-03"},
		{saturday, WeekendPrevious, "2025-01-31"},
		{sunday, WeekendPrevious, "2025-01-31"},
		{saturday, WeekendNearest, "2025-01-31"},
		{sunday, WeekendNearest, "2025-02-03"},
	}

	for _, tt := range tests {
		t.Run(tt.date+"_"+string(tt.policy), func(t *testing.T) {
			assert.Equal(t, mustDate(t, tt.want), Adjust(mustDate(t, tt.date), tt.policy))
		})
	}
}

func TestAdjust_Totality(t *testing.T) {
	policies := []WeekendPolicy{WeekendNone, WeekendNext, WeekendPrevious, WeekendNearest}
	monday := mustDate(t, "2025-01-06")

	for _, policy := range policies {
		for offset := range 7 {
			d := monday.AddDays(offset)
			got := Adjust(d, policy)

			if wd := Weekday(d); wd != time.Saturday && wd != time.Sunday {
				assert.Equal(t, d, got, "weekday %s must not move under %s", d, policy)
				continue
			}
			if policy == WeekendNone {
				assert.Equal(t, d, got)
				continue
			}
			wd := Weekday(got)
			assert.NotEqual(t, time.Saturday, wd, "%s under %s", d, policy)
			assert.NotEqual(t, time.Sunday, wd, "%s under %s", d, policy)
		}
	}
}

func TestParseWeekendPolicy(t *testing.T) {
	tests := map[string]WeekendPolicy{
		"":         WeekendNone,
		"none":     WeekendNone,
		"next":     WeekendNext,
		"prev":     WeekendPrevious,
		"Previous": WeekendPrevious,
		"nearest":  WeekendNearest,
	}
	for in, want := range tests {
		got, err := ParseWeekendPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWeekendPolicy("closest")
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}
