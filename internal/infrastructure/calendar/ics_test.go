package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/cashflow/internal/domain"
)

var stamp = time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

func occurrences() []domain.Occurrence {
	return []domain.Occurrence{
		{
			ItemID: "0190f3c4-7a1e-7b2c-9d3e-4f5a6b7c8d9e",
			Kind:   domain.ItemKindExpense,
			Name:   "Rent",
			Amount: 150000,
			Date:   civil.Date{Year: 2025, Month: time.January, Day: 31},
		},
		{
			ItemID: "0190f3c4-7a1e-7b2c-9d3e-4f5a6b7c8d9e",
			Kind:   domain.ItemKindExpense,
			Name:   "Rent",
			Amount: 150000,
			Date:   civil.Date{Year: 2025, Month: time.February, Day: 28},
		},
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "Rent", occurrences(), stamp))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, out, "PRODID:"+productID)
	assert.Contains(t, out, "VERSION:2.0")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250131")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250201")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250228")
	assert.Contains(t, out, "SUMMARY:Rent (expense 1500.00)")
	assert.Contains(t, out, "UID:0190f3c4-7a1e-7b2c-9d3e-4f5a6b7c8d9e-2025-01-31@cashflow")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestEncode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "", occurrences(), stamp))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	start, err := events[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), start)

	dtstamp, err := events[1].Props.DateTime(ical.PropDateTimeStamp, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, stamp, dtstamp)
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "Nothing due", nil, stamp))
	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")
	assert.Contains(t, buf.String(), "END:VCALENDAR")
}

func TestSummaryAndUID(t *testing.T) {
	bare := domain.Occurrence{Date: civil.Date{Year: 2025, Month: time.March, Day: 10}}
	assert.Equal(t, "Due", summary(bare))
	assert.Equal(t, "preview-2025-03-10@cashflow", uid(bare))
}
