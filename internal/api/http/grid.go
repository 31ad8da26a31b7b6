package httpapi

import (
	"time"

	"github.com/i474232898/calendar-reminders/internal/reminder"
)

// dayCell is one day of a month grid. Padding cells are nil.
type dayCell struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// monthGrid lays out the month starting at first as Sunday-first weeks,
// padded with nil cells before the 1st and after the last day so every
// week has seven entries.
func monthGrid(first time.Time, counts map[string]int) [][]*dayCell {
	first = reminder.MonthStart(first)
	last := first.AddDate(0, 1, -1).Day()

	cells := make([]*dayCell, int(first.Weekday()), 42)
	for d := 1; d <= last; d++ {
		key := reminder.DayKey(first.AddDate(0, 0, d-1))
		cells = append(cells, &dayCell{Day: key, Count: counts[key]})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*dayCell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}
