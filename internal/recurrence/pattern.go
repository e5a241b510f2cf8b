package recurrence

import "time"

// Pattern is one of the closed set of simple recurrence variants.
// The unexported method keeps the set sealed to this package.
type Pattern interface {
	// Type returns the wire name of the variant.
	Type() PatternType
	isPattern()
}

// PatternType is the discriminator used when a pattern is serialized.
type PatternType string

const (
	PatternWeekly          PatternType = "weekly"
	PatternEveryNDays      PatternType = "every_n_days"
	PatternBiweekly        PatternType = "biweekly"
	PatternMonthlyByDay    PatternType = "monthly_day"
	PatternMonthlyOrdinal  PatternType = "monthly_ordinal"
	PatternSemiMonthly     PatternType = "semi_monthly"
	PatternQuarterly       PatternType = "quarterly"
	PatternSemiannual      PatternType = "semiannual"
	PatternAnnual          PatternType = "annual"
	PatternCustomMonthDays PatternType = "custom_days"
)

// Ordinals accepted by MonthlyOrdinal. OrdinalLast selects the last matching weekday.
const (
	OrdinalFirst  = 1
	OrdinalSecond = 2
	OrdinalThird  = 3
	OrdinalFourth = 4
	OrdinalLast   = -1
)

// Weekly repeats every Interval weeks on DaysOfWeek.
// An empty DaysOfWeek means the anchor's weekday.
type Weekly struct {
	Interval   int
	DaysOfWeek []time.Weekday
}

// EveryNDays repeats every N days starting at the anchor.
type EveryNDays struct {
	N int
}

// Biweekly repeats every other week on Weekday, or on the anchor's weekday when nil.
type Biweekly struct {
	Weekday *time.Weekday
}

// MonthlyByDay repeats on a fixed day of every month.
// Months without that day are skipped.
type MonthlyByDay struct {
	Day int
}

// MonthlyOrdinal repeats on the n-th (or last) given weekday of every month.
type MonthlyOrdinal struct {
	Ordinal int
	Weekday time.Weekday
}

// SemiMonthly repeats on two days of every month.
type SemiMonthly struct {
	Day1 int
	Day2 int
}

// Quarterly repeats on Day every third month counted from the anchor.
type Quarterly struct {
	Day int
}

// MonthDay is a month and day pair within a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// Semiannual repeats yearly on each of MonthDays.
type Semiannual struct {
	MonthDays []MonthDay
}

// Annual repeats once a year on Month/Day.
type Annual struct {
	Month time.Month
	Day   int
}

// CustomMonthDays repeats on every listed day of every month.
type CustomMonthDays struct {
	Days []int
}

func (Weekly) Type() PatternType          { return PatternWeekly }
func (EveryNDays) Type() PatternType      { return PatternEveryNDays }
func (Biweekly) Type() PatternType        { return PatternBiweekly }
func (MonthlyByDay) Type() PatternType    { return PatternMonthlyByDay }
func (MonthlyOrdinal) Type() PatternType  { return PatternMonthlyOrdinal }
func (SemiMonthly) Type() PatternType     { return PatternSemiMonthly }
func (Quarterly) Type() PatternType       { return PatternQuarterly }
func (Semiannual) Type() PatternType      { return PatternSemiannual }
func (Annual) Type() PatternType          { return PatternAnnual }
func (CustomMonthDays) Type() PatternType { return PatternCustomMonthDays }

func (Weekly) isPattern()          {}
func (EveryNDays) isPattern()      {}
func (Biweekly) isPattern()        {}
func (MonthlyByDay) isPattern()    {}
func (MonthlyOrdinal) isPattern()  {}
func (SemiMonthly) isPattern()     {}
func (Quarterly) isPattern()       {}
func (Semiannual) isPattern()      {}
func (Annual) isPattern()          {}
func (CustomMonthDays) isPattern() {}
