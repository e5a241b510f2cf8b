package recurrence

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// patternAliases maps the camelCase names used by older clients to wire names.
var patternAliases = map[string]PatternType{
	"everyNDays":     PatternEveryNDays,
	"monthlyDay":     PatternMonthlyByDay,
	"monthlyOrdinal": PatternMonthlyOrdinal,
	"semiMonthly":    PatternSemiMonthly,
	"customDays":     PatternCustomMonthDays,
}

type monthDayJSON struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

type patternJSON struct {
	Type       string         `json:"type"`
	Interval   int            `json:"interval,omitempty"`
	DaysOfWeek []int          `json:"days_of_week,omitempty"`
	N          int            `json:"n,omitempty"`
	Weekday    *int           `json:"weekday,omitempty"`
	Day        int            `json:"day,omitempty"`
	Ordinal    int            `json:"ordinal,omitempty"`
	Days       []int          `json:"days,omitempty"`
	Month      int            `json:"month,omitempty"`
	MonthDays  []monthDayJSON `json:"month_days,omitempty"`
}

// MarshalPattern encodes p as a JSON object with a "type" discriminator.
func MarshalPattern(p Pattern) ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	out := patternJSON{Type: string(p.Type())}

	switch p := p.(type) {
	case Weekly:
		out.Interval = p.Interval
		for _, wd := range p.DaysOfWeek {
			out.DaysOfWeek = append(out.DaysOfWeek, int(wd))
		}
	case EveryNDays:
		out.N = p.N
	case Biweekly:
		if p.Weekday != nil {
			wd := int(*p.Weekday)
			out.Weekday = &wd
		}
	case MonthlyByDay:
		out.Day = p.Day
	case MonthlyOrdinal:
		wd := int(p.Weekday)
		out.Ordinal = p.Ordinal
		out.Weekday = &wd
	case SemiMonthly:
		out.Days = []int{p.Day1, p.Day2}
	case Quarterly:
		out.Day = p.Day
	case Semiannual:
		for _, md := range p.MonthDays {
			out.MonthDays = append(out.MonthDays, monthDayJSON{Month: int(md.Month), Day: md.Day})
		}
	case Annual:
		out.Month = int(p.Month)
		out.Day = p.Day
	case CustomMonthDays:
		out.Days = p.Days
	default:
		return nil, fmt.Errorf("%w: unsupported pattern %T", ErrInvalidPattern, p)
	}
	return json.Marshal(out)
}

// UnmarshalPattern decodes a pattern object. A JSON null yields a nil pattern.
func UnmarshalPattern(data []byte) (Pattern, error) {
	var in *patternJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	if in == nil {
		return nil, nil
	}

	typ := PatternType(in.Type)
	if alias, ok := patternAliases[in.Type]; ok {
		typ = alias
	}

	switch typ {
	case PatternWeekly:
		p := Weekly{Interval: in.Interval}
		for _, wd := range in.DaysOfWeek {
			p.DaysOfWeek = append(p.DaysOfWeek, time.Weekday(wd))
		}
		return p, nil
	case PatternEveryNDays:
		return EveryNDays{N: in.N}, nil
	case PatternBiweekly:
		p := Biweekly{}
		if in.Weekday != nil {
			wd := time.Weekday(*in.Weekday)
			p.Weekday = &wd
		}
		return p, nil
	case PatternMonthlyByDay:
		return MonthlyByDay{Day: in.Day}, nil
	case PatternMonthlyOrdinal:
		if in.Weekday == nil {
			return nil, fmt.Errorf("%w: monthly_ordinal requires weekday", ErrInvalidPattern)
		}
		return MonthlyOrdinal{Ordinal: in.Ordinal, Weekday: time.Weekday(*in.Weekday)}, nil
	case PatternSemiMonthly:
		if len(in.Days) != 2 {
			return nil, fmt.Errorf("%w: semi_monthly requires exactly two days", ErrInvalidPattern)
		}
		return SemiMonthly{Day1: in.Days[0], Day2: in.Days[1]}, nil
	case PatternQuarterly:
		return Quarterly{Day: in.Day}, nil
	case PatternSemiannual:
		p := Semiannual{}
		for _, md := range in.MonthDays {
			p.MonthDays = append(p.MonthDays, MonthDay{Month: time.Month(md.Month), Day: md.Day})
		}
		return p, nil
	case PatternAnnual:
		return Annual{Month: time.Month(in.Month), Day: in.Day}, nil
	case PatternCustomMonthDays:
		return CustomMonthDays{Days: in.Days}, nil
	default:
		return nil, fmt.Errorf("%w: unknown pattern type %q", ErrInvalidPattern, in.Type)
	}
}

type descriptorJSON struct {
	Kind          string          `json:"kind"`
	AnchorDate    *civil.Date     `json:"anchor_date,omitempty"`
	OneOffDate    *civil.Date     `json:"one_off_date,omitempty"`
	Pattern       json.RawMessage `json:"pattern,omitempty"`
	Rule          string          `json:"rule,omitempty"`
	EndDate       *civil.Date     `json:"end_date,omitempty"`
	Count         *int            `json:"count,omitempty"`
	Timezone      string          `json:"timezone,omitempty"`
	WeekendPolicy string          `json:"weekend_policy,omitempty"`
	IncludeDates  []civil.Date    `json:"include_dates,omitempty"`
	ExcludeDates  []civil.Date    `json:"exclude_dates,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	out := descriptorJSON{
		Kind:          string(d.Kind),
		AnchorDate:    d.AnchorDate,
		OneOffDate:    d.OneOffDate,
		Rule:          d.RawRule,
		EndDate:       d.EndDate,
		Count:         d.Limit,
		Timezone:      d.Timezone,
		WeekendPolicy: string(d.WeekendPolicy),
		IncludeDates:  d.IncludeDates,
		ExcludeDates:  d.ExcludeDates,
	}
	if out.Kind == "" {
		out.Kind = string(KindNone)
	}
	if d.Simple != nil {
		raw, err := MarshalPattern(d.Simple)
		if err != nil {
			return nil, err
		}
		out.Pattern = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Kind and weekend policy aliases
// are normalized; field invariants are left to Validate.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var in descriptorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	policy, err := ParseWeekendPolicy(in.WeekendPolicy)
	if err != nil {
		return err
	}

	var pattern Pattern
	if len(in.Pattern) > 0 {
		if pattern, err = UnmarshalPattern(in.Pattern); err != nil {
			return err
		}
	}

	*d = Descriptor{
		Kind:          kind,
		AnchorDate:    in.AnchorDate,
		OneOffDate:    in.OneOffDate,
		Simple:        pattern,
		RawRule:       in.Rule,
		EndDate:       in.EndDate,
		Limit:         in.Count,
		Timezone:      in.Timezone,
		WeekendPolicy: policy,
		IncludeDates:  in.IncludeDates,
		ExcludeDates:  in.ExcludeDates,
	}
	return nil
}
