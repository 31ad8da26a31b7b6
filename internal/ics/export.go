package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/i474232898/calendar-reminders/internal/reminder"
)

const (
	productID = "-//calendar-reminders//EN"
	// floatingLayout is an iCalendar local time without a zone: reminders
	// carry wall-clock times, not instants.
	floatingLayout = "20060102T150405"
	eventLength    = 30 * time.Minute
)

// Export renders every reminder in idx as a VEVENT of a published calendar,
// in day and time order.
func Export(idx reminder.Index, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, day := range idx.Days() {
		for _, r := range idx[day] {
			addEvent(cal, r, stamp)
		}
	}
	return cal.Serialize()
}

func addEvent(cal *ical.Calendar, r reminder.Reminder, stamp time.Time) {
	start := r.Date
	if clock, err := time.Parse("15:04", r.Time); err == nil {
		start = start.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	}

	ev := cal.AddEvent(r.ID)
	ev.SetDtStampTime(stamp)
	ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))
	ev.SetProperty(ical.ComponentPropertyDtEnd, start.Add(eventLength).Format(floatingLayout))
	ev.SetSummary(r.Text)
	ev.SetLocation(r.City)
	if r.Color != "" {
		ev.SetProperty(ical.ComponentProperty("COLOR"), r.Color)
	}
	ev.SetDescription(description(r))
}

func description(r reminder.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s", r.Time, r.City)
	if r.Weather != nil {
		fmt.Fprintf(&b, " - %s", *r.Weather)
	} else {
		b.WriteString(" - no weather data")
	}
	return b.String()
}
