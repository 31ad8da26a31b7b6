package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// DayLayout is the layout of a day key.
const DayLayout = "2006-01-02"

// Reminder is a short note pinned to a calendar day.
type Reminder struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color"`
	City  string `json:"city"`
	// Date is the canonical date: midnight UTC of the reminder's calendar day.
	Date time.Time `json:"dateISO"`
	// Time is the time of day as zero-padded "HH:MM".
	Time string `json:"time"`
	// Weather is the category resolved when the reminder was saved; nil
	// means no data was available.
	Weather *string `json:"weather"`
}

// DayKey returns the day this reminder is grouped under.
func (r Reminder) DayKey() string {
	return DayKey(r.Date)
}

// UnmarshalJSON accepts both full ISO-8601 instants and bare dates for
// dateISO, normalizing either to the canonical date.
func (r *Reminder) UnmarshalJSON(data []byte) error {
	type alias Reminder
	aux := struct {
		*alias
		Date string `json:"dateISO"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	d, err := ParseDate(aux.Date)
	if err != nil {
		return err
	}
	r.Date = d
	return nil
}

// DayKey formats t as a day key using t's own wall clock date.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// CanonicalDate drops the time of day from t, keeping the calendar date as
// seen in t's own offset, and returns it as midnight UTC.
func CanonicalDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

var dateLayouts = []string{
	DayLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var errInvalidDate = errors.New("invalid date")

// ParseDate parses a day key or an ISO-8601 timestamp into a canonical date.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CanonicalDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q: use YYYY-MM-DD or an ISO-8601 timestamp", errInvalidDate, s)
}

// decodeStored decodes one persisted reminder filed under day. A missing or
// unreadable dateISO falls back to the day it is filed under.
func decodeStored(day string, raw json.RawMessage) (Reminder, error) {
	var r Reminder
	err := json.Unmarshal(raw, &r)
	if err != nil {
		if !errors.Is(err, errInvalidDate) {
			return Reminder{}, err
		}
		d, dayErr := ParseDate(day)
		if dayErr != nil {
			return Reminder{}, err
		}
		r.Date = d
	}
	if r.ID == "" {
		return Reminder{}, errors.New("reminder without id")
	}
	return r, nil
}

// Index maps day keys to that day's reminders, ordered by time of day.
type Index map[string][]Reminder

// Days returns the day keys in ascending order.
func (idx Index) Days() []string {
	days := make([]string, 0, len(idx))
	for k := range idx {
		days = append(days, k)
	}
	sort.Strings(days)
	return days
}

// Len returns the total number of reminders.
func (idx Index) Len() int {
	n := 0
	for _, rs := range idx {
		n += len(rs)
	}
	return n
}

// find scans every day for id.
func (idx Index) find(id string) (day string, pos int, ok bool) {
	for k, rs := range idx {
		for i, r := range rs {
			if r.ID == id {
				return k, i, true
			}
		}
	}
	return "", -1, false
}

func (idx Index) clone() Index {
	out := make(Index, len(idx))
	for k, rs := range idx {
		out[k] = append([]Reminder(nil), rs...)
	}
	return out
}

// insert appends r to its day and restores time order. The day's slice must
// not be shared with another Index.
func (idx Index) insert(r Reminder) string {
	k := r.DayKey()
	idx[k] = sortByTime(append(idx[k], r))
	return k
}

// remove drops the reminder at pos from day, deleting the day once empty.
func (idx Index) remove(day string, pos int) {
	rs := idx[day]
	rest := make([]Reminder, 0, len(rs)-1)
	rest = append(rest, rs[:pos]...)
	rest = append(rest, rs[pos+1:]...)
	if len(rest) == 0 {
		delete(idx, day)
		return
	}
	idx[day] = rest
}

// normalize drops empty days and sorts each day, for data read from storage.
func (idx Index) normalize() {
	for k, rs := range idx {
		if len(rs) == 0 {
			delete(idx, k)
			continue
		}
		idx[k] = sortByTime(rs)
	}
}

// sortByTime orders reminders by their "HH:MM" time, keeping the relative
// order of equal times.
func sortByTime(rs []Reminder) []Reminder {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Time < rs[j].Time
	})
	return rs
}
