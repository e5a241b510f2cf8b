package recurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_UnmarshalJSON(t *testing.T) {
	payload := `{
		"kind": "simple",
		"anchor_date": "2025-01-06",
		"pattern": {"type": "weekly", "interval": 2, "days_of_week": [1, 3, 5]},
		"end_date": "2025-06-30",
		"count": 10,
		"timezone": "Europe/Berlin",
		"weekend_policy": "nearest",
		"include_dates": ["2025-02-01"],
		"exclude_dates": ["2025-01-08"]
	}`

	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(payload), &d))

	assert.Equal(t, KindSimple, d.Kind)
	assert.Equal(t, mustDate(t, "2025-01-06"), *d.AnchorDate)
	assert.Equal(t, Weekly{Interval: 2, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}, d.Simple)
	assert.Equal(t, mustDate(t, "2025-06-30"), *d.EndDate)
	assert.Equal(t, 10, *d.Limit)
	assert.Equal(t, "Europe/Berlin", d.Timezone)
	assert.Equal(t, WeekendNearest, d.WeekendPolicy)
	assert.Equal(t, mustDates(t, "2025-02-01"), d.IncludeDates)
	assert.Equal(t, mustDates(t, "2025-01-08"), d.ExcludeDates)
	assert.NoError(t, d.Validate())
}

func TestDescriptor_UnmarshalJSON_Aliases(t *testing.T) {
	payload := `{
		"kind": "rrule",
		"anchor_date": "2025-01-01",
		"rule": "RRULE:FREQ=MONTHLY;BYMONTHDAY=1",
		"weekend_policy": "prev"
	}`

	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	assert.Equal(t, KindRaw, d.Kind)
	assert.Equal(t, WeekendPrevious, d.WeekendPolicy)

	pattern, err := UnmarshalPattern([]byte(`{"type": "monthlyDay", "day": 15}`))
	require.NoError(t, err)
	assert.Equal(t, MonthlyByDay{Day: 15}, pattern)

	pattern, err = UnmarshalPattern([]byte(`{"type": "semiMonthly", "days": [1, 15]}`))
	require.NoError(t, err)
	assert.Equal(t, SemiMonthly{Day1: 1, Day2: 15}, pattern)
}

func TestDescriptor_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{name: "unknown kind", payload: `{"kind": "hourly"}`, want: ErrUnresolvableDescriptor},
		{name: "unknown pattern type", payload: `{"kind": "simple", "pattern": {"type": "fortnightly"}}`, want: ErrInvalidPattern},
		{name: "ordinal without weekday", payload: `{"kind": "simple", "pattern": {"type": "monthly_ordinal", "ordinal": 2}}`, want: ErrInvalidPattern},
		{name: "semi-monthly with one day", payload: `{"kind": "simple", "pattern": {"type": "semi_monthly", "days": [1]}}`, want: ErrInvalidPattern},
		{name: "bad weekend policy", payload: `{"kind": "none", "weekend_policy": "sometimes"}`, want: ErrInvalidDescriptor},
		{name: "malformed date", payload: `{"kind": "none", "one_off_date": "03/10/2025"}`, want: ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Descriptor
			err := json.Unmarshal([]byte(tt.payload), &d)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDescriptor_MarshalJSON(t *testing.T) {
	tuesday := time.Tuesday
	d := Descriptor{
		Kind:          KindSimple,
		AnchorDate:    datePtr(t, "2025-01-07"),
		Simple:        Biweekly{Weekday: &tuesday},
		WeekendPolicy: WeekendNone,
		Limit:         intPtr(4),
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "simple",
		"anchor_date": "2025-01-07",
		"pattern": {"type": "biweekly", "weekday": 2},
		"count": 4,
		"weekend_policy": "none"
	}`, string(data))

	var decoded Descriptor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)
}
