package recurrence

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// anchorHour pins civil dates to noon so zone conversions never move the calendar day.
const anchorHour = 12

// AnchorInstant returns the instant of d at the anchor hour in loc.
func AnchorInstant(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, anchorHour, 0, 0, 0, loc)
}

// DateOf returns the calendar day of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(t.In(loc))
}

// CompareDates orders two civil dates by (year, month, day).
// It returns -1, 0 or +1.
func CompareDates(a, b civil.Date) int {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(int(a.Month) - int(b.Month))
	default:
		return sign(a.Day - b.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Weekday returns the day of the week of d.
func Weekday(d civil.Date) time.Weekday {
	return AnchorInstant(d, time.UTC).Weekday()
}

// ParseDate parses a strict YYYY-MM-DD civil date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

func startOfDay(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func endOfDay(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, loc)
}
