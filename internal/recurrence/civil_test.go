package recurrence

import (
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorInstant_StableAcrossZones(t *testing.T) {
	d := civil.Date{Year: 2025, Month: time.March, Day: 9}

	for _, name := range []string{"UTC", "America/Los_Angeles", "Pacific/Kiritimati", "Pacific/Pago_Pago", "Asia/Kolkata"} {
		t.Run(name, func(t *testing.T) {
			loc, err := time.LoadLocation(name)
			require.NoError(t, err)

			instant := AnchorInstant(d, loc)
			assert.Equal(t, 12, instant.Hour())
			assert.Equal(t, d, DateOf(instant, loc))
		})
	}
}

func TestDateOf_ProjectsIntoZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	instant := time.Date(2025, time.January, 31, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, civil.Date{Year: 2025, Month: time.January, Day: 31}, DateOf(instant, time.UTC))
	assert.Equal(t, civil.Date{Year: 2025, Month: time.February, Day: 1}, DateOf(instant, tokyo))
}

func TestCompareDates(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2025-01-01", "2025-01-01", 0},
		{"2024-12-31", "2025-01-01", -1},
		{"2025-02-01", "2025-01-31", 1},
		{"2025-01-09", "2025-01-10", -1},
		{"2026-01-01", "2025-12-31", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareDates(mustDate(t, tt.a), mustDate(t, tt.b)))
		})
	}
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, time.Monday, Weekday(mustDate(t, "2025-01-06")))
	assert.Equal(t, time.Friday, Weekday(mustDate(t, "2025-01-03")))
	assert.Equal(t, time.Saturday, Weekday(mustDate(t, "2025-02-01")))
	assert.Equal(t, time.Sunday, Weekday(mustDate(t, "2025-03-09")))
}

func TestParseDate_RejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"", "2025-1-6", "2025/01/06", "2025-02-30", "20250106", "2025-01-06T00:00:00Z"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseDate(s)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}
