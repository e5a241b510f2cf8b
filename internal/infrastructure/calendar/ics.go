// Package calendar renders occurrences as an iCalendar (RFC 5545) feed.
package calendar

import (
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/emersion/go-ical"

	"github.com/rezkam/cashflow/internal/domain"
)

const (
	// ContentType is the media type of an encoded feed.
	ContentType = "text/calendar; charset=utf-8"

	productID = "-//cashflow//Recurrence Feed//EN"
	uidDomain = "cashflow"
)

// Build returns a calendar with one all-day VEVENT per occurrence.
// stamp becomes the DTSTAMP of every event.
func Build(name string, occurrences []domain.Occurrence, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if name != "" {
		cal.Props.SetText(ical.PropName, name)
	}

	for _, occ := range occurrences {
		cal.Children = append(cal.Children, event(occ, stamp.UTC()))
	}
	return cal
}

// Encode writes occurrences to w as an iCalendar feed.
func Encode(w io.Writer, name string, occurrences []domain.Occurrence, stamp time.Time) error {
	if err := ical.NewEncoder(w).Encode(Build(name, occurrences, stamp)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func event(occ domain.Occurrence, stamp time.Time) *ical.Component {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid(occ))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ev.Props.Set(dateProp(ical.PropDateTimeStart, occ.Date))
	ev.Props.Set(dateProp(ical.PropDateTimeEnd, occ.Date.AddDays(1)))
	ev.Props.SetText(ical.PropSummary, summary(occ))
	if occ.Kind != "" {
		ev.Props.SetText(ical.PropCategories, string(occ.Kind))
	}
	ev.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	return ev.Component
}

// dateProp builds a VALUE=DATE property; all-day events carry no time or zone.
func dateProp(name string, d civil.Date) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Params.Set(ical.ParamValue, string(ical.ValueDate))
	prop.Value = fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
	return prop
}

func uid(occ domain.Occurrence) string {
	id := occ.ItemID
	if id == "" {
		id = "preview"
	}
	return fmt.Sprintf("%s-%s@%s", id, occ.Date.String(), uidDomain)
}

func summary(occ domain.Occurrence) string {
	name := occ.Name
	if name == "" {
		name = "Due"
	}
	if occ.Kind == "" {
		return name
	}
	return fmt.Sprintf("%s (%s %s)", name, occ.Kind, occ.Amount)
}
