package recurrence

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// WeekendPolicy moves occurrences that fall on a Saturday or Sunday.
type WeekendPolicy string

const (
	WeekendNone     WeekendPolicy = "none"
	WeekendNext     WeekendPolicy = "next"
	WeekendPrevious WeekendPolicy = "previous"
	WeekendNearest  WeekendPolicy = "nearest"
)

type weekendShift struct {
	policy  WeekendPolicy
	weekday time.Weekday
}

// weekendShifts is the complete adjustment table. Nearest breaks the
// Saturday tie towards Friday.
var weekendShifts = map[weekendShift]int{
	{WeekendNext, time.Saturday}:     2,
	{WeekendNext, time.Sunday}:       1,
	{WeekendPrevious, time.Saturday}: -1,
	{WeekendPrevious, time.Sunday}:   -2,
	{WeekendNearest, time.Saturday}:  -1,
	{WeekendNearest, time.Sunday}:    1,
}

// ParseWeekendPolicy parses a policy name. The empty string means none.
func ParseWeekendPolicy(s string) (WeekendPolicy, error) {
	switch WeekendPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeekendNone:
		return WeekendNone, nil
	case WeekendNext:
		return WeekendNext, nil
	case WeekendPrevious, "prev":
		return WeekendPrevious, nil
	case WeekendNearest:
		return WeekendNearest, nil
	default:
		return "", fmt.Errorf("%w: unknown weekend policy %q", ErrInvalidDescriptor, s)
	}
}

// Adjust applies the weekend policy to d. Weekdays are returned unchanged.
func Adjust(d civil.Date, policy WeekendPolicy) civil.Date {
	shift, ok := weekendShifts[weekendShift{policy: policy, weekday: Weekday(d)}]
	if !ok {
		return d
	}
	return d.AddDays(shift)
}
