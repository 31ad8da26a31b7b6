package reminder

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"
)

// memStorage is a Storage that counts writes per key.
type memStorage struct {
	mu     sync.Mutex
	data   map[string]string
	writes map[string]int
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}, writes: map[string]int{}}
}

func (m *memStorage) Read(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memStorage) Write(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.writes[key]++
}

func strptr(s string) *string { return &s }

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func newReminder(t *testing.T, id, date, hhmm string) Reminder {
	t.Helper()
	return Reminder{
		ID:    id,
		Text:  "note " + id,
		Color: "#3b82f6",
		City:  "London",
		Date:  mustDate(t, date),
		Time:  hhmm,
	}
}

func times(rs []Reminder) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Time
	}
	return out
}

func ids(rs []Reminder) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestAddStoresReminderWithWeather(t *testing.T) {
	repo := NewRepository(newMemStorage())

	r := Reminder{
		ID:      "a",
		Text:    "Buy milk",
		City:    "London",
		Date:    mustDate(t, "2024-03-01"),
		Time:    "07:30",
		Weather: strptr("Rain"),
	}
	repo.Add(r)

	day := repo.Day("2024-03-01")
	if len(day) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(day))
	}
	if day[0].Time != "07:30" || day[0].Weather == nil || *day[0].Weather != "Rain" {
		t.Fatalf("unexpected reminder %+v", day[0])
	}
}

func TestAddKeepsDaySortedAndStable(t *testing.T) {
	repo := NewRepository(newMemStorage())

	repo.Add(newReminder(t, "a", "2024-03-01", "09:00"))
	repo.Add(newReminder(t, "b", "2024-03-01", "07:30"))
	if got := times(repo.Day("2024-03-01")); !reflect.DeepEqual(got, []string{"07:30", "09:00"}) {
		t.Fatalf("unexpected order %v", got)
	}

	// Equal times keep insertion order.
	repo.Add(newReminder(t, "c", "2024-03-01", "07:30"))
	repo.Add(newReminder(t, "d", "2024-03-01", "23:59"))
	repo.Add(newReminder(t, "e", "2024-03-01", "00:00"))
	if got := ids(repo.Day("2024-03-01")); !reflect.DeepEqual(got, []string{"e", "b", "c", "a", "d"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestAddGroupsByDayOnly(t *testing.T) {
	repo := NewRepository(newMemStorage())

	late := newReminder(t, "late", "2024-03-01", "23:30")
	late.Date = mustDate(t, "2024-03-01T23:30:00+05:00")
	repo.Add(late)
	repo.Add(newReminder(t, "next", "2024-03-02", "00:10"))

	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-01", "2024-03-02"}) {
		t.Fatalf("unexpected days %v", got)
	}
}

func TestUpdateMovesReminderAcrossDays(t *testing.T) {
	st := newMemStorage()
	repo := NewRepository(st)

	repo.Add(newReminder(t, "a", "2024-03-01", "09:00"))
	repo.Add(newReminder(t, "b", "2024-03-02", "10:00"))
	repo.Add(newReminder(t, "c", "2024-03-02", "08:00"))
	before := st.writes[RemindersKey]

	moved := newReminder(t, "a", "2024-03-02", "09:00")
	moved.Text = "moved"
	if !repo.Update(moved) {
		t.Fatalf("expected update to find reminder")
	}

	if got := st.writes[RemindersKey] - before; got != 1 {
		t.Fatalf("expected a single write, got %d", got)
	}
	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-02"}) {
		t.Fatalf("old day should be dropped, days=%v", got)
	}
	if got := ids(repo.Day("2024-03-02")); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if r, _ := repo.Get("a"); r.Text != "moved" {
		t.Fatalf("expected replaced reminder, got %+v", r)
	}
}

func TestUpdateSameDayResorts(t *testing.T) {
	repo := NewRepository(newMemStorage())
	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))
	repo.Add(newReminder(t, "b", "2024-03-01", "08:00"))

	repo.Update(newReminder(t, "a", "2024-03-01", "09:00"))
	if got := ids(repo.Day("2024-03-01")); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	st := newMemStorage()
	repo := NewRepository(st)
	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))
	before := st.data[RemindersKey]

	if repo.Update(newReminder(t, "ghost", "2024-03-05", "07:00")) {
		t.Fatalf("expected unknown id to report false")
	}
	if st.data[RemindersKey] != before {
		t.Fatalf("storage changed on no-op update")
	}
	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-01"}) {
		t.Fatalf("unexpected days %v", got)
	}
}

func TestDeleteDropsEmptyDays(t *testing.T) {
	st := newMemStorage()
	repo := NewRepository(st)
	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))
	repo.Add(newReminder(t, "b", "2024-03-02", "07:00"))
	repo.Add(newReminder(t, "c", "2024-03-02", "08:00"))

	if !repo.Delete("a") {
		t.Fatalf("expected delete to find reminder")
	}
	repo.Delete("b")

	if _, ok := repo.Get("a"); ok {
		t.Fatalf("deleted reminder still present")
	}
	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-02"}) {
		t.Fatalf("unexpected days %v", got)
	}

	var stored map[string][]json.RawMessage
	if err := json.Unmarshal([]byte(st.data[RemindersKey]), &stored); err != nil {
		t.Fatalf("decode stored index: %v", err)
	}
	if _, ok := stored["2024-03-01"]; ok {
		t.Fatalf("stored index kept an empty day")
	}

	if repo.Delete("a") {
		t.Fatalf("second delete should be a no-op")
	}
}

func TestClearDay(t *testing.T) {
	repo := NewRepository(newMemStorage())
	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))
	repo.Add(newReminder(t, "b", "2024-03-01", "08:00"))
	repo.Add(newReminder(t, "c", "2024-03-02", "08:00"))

	repo.ClearDay(mustDate(t, "2024-03-01T15:00:00Z"))
	if got := repo.Day("2024-03-01"); len(got) != 0 {
		t.Fatalf("expected empty day, got %v", got)
	}
	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-02"}) {
		t.Fatalf("unexpected days %v", got)
	}

	// Clearing an empty day is harmless.
	repo.ClearDay(mustDate(t, "2024-12-25"))
}

func TestPersistReloadRoundTrip(t *testing.T) {
	st := newMemStorage()
	repo := NewRepository(st)
	repo.Add(newReminder(t, "a", "2024-03-01", "09:00"))
	repo.Add(newReminder(t, "b", "2024-03-01", "07:30"))
	withWeather := newReminder(t, "c", "2024-04-10", "12:00")
	withWeather.Weather = strptr("Snow showers")
	repo.Add(withWeather)

	reloaded := NewRepository(st)
	if !reflect.DeepEqual(repo.Snapshot(), reloaded.Snapshot()) {
		t.Fatalf("round trip mismatch:\n%v\n%v", repo.Snapshot(), reloaded.Snapshot())
	}
}

func TestLoadTreatsCorruptDataAsEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"garbage":   "{not json",
		"null":      "null",
		"wrongType": `["2024-03-01"]`,
	} {
		t.Run(name, func(t *testing.T) {
			st := newMemStorage()
			st.data[RemindersKey] = raw
			st.data[MonthStartKey] = "not a date"

			now := time.Date(2024, 5, 17, 13, 0, 0, 0, time.UTC)
			repo := NewRepository(st, WithClock(func() time.Time { return now }))
			if got := repo.Days(); len(got) != 0 {
				t.Fatalf("expected empty index, got %v", got)
			}
			if got := repo.MonthStart(); !got.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected default month %v", got)
			}
		})
	}
}

func TestLoadKeepsGoodEntriesNextToBadOnes(t *testing.T) {
	st := newMemStorage()
	st.data[RemindersKey] = `{
		"2024-03-01": [
			{"id":"a","text":"Gym","city":"Paris","dateISO":"2024-03-01T00:00:00.000Z","time":"18:00","weather":null},
			{"id":"b","text":"Call","city":"Paris","dateISO":"","time":"08:00","weather":null},
			{"id":"c","text":"Post","city":"Paris","dateISO":null,"time":"09:00","weather":"Clear"},
			{"id":"d","text":"Bank","city":"Paris","dateISO":"next tuesday","time":"10:00","weather":null},
			{"id":"e","text":42,"city":"Paris","dateISO":"2024-03-01","time":"11:00"},
			null
		],
		"someday": [
			{"id":"f","text":"Lost","city":"Paris","dateISO":"","time":"12:00"}
		]
	}`

	repo := NewRepository(st)
	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-01"}) {
		t.Fatalf("unexpected days %v", got)
	}
	day := repo.Day("2024-03-01")
	if got := ids(day); !reflect.DeepEqual(got, []string{"b", "c", "d", "a"}) {
		t.Fatalf("expected readable entries to survive, got %v", got)
	}
	for _, r := range day {
		if r.DayKey() != "2024-03-01" {
			t.Fatalf("reminder %s: expected date from its day, got %s", r.ID, r.DayKey())
		}
	}

	repo.Add(newReminder(t, "g", "2024-03-02", "07:00"))

	reloaded := NewRepository(st)
	if got := ids(reloaded.Day("2024-03-01")); !reflect.DeepEqual(got, []string{"b", "c", "d", "a"}) {
		t.Fatalf("expected the next write to keep existing reminders, got %v", got)
	}
	if got := ids(reloaded.Day("2024-03-02")); !reflect.DeepEqual(got, []string{"g"}) {
		t.Fatalf("unexpected new day %v", got)
	}
}

func TestLoadReadsMillisecondTimestampsAndEmptyDays(t *testing.T) {
	st := newMemStorage()
	st.data[RemindersKey] = `{
		"2024-03-01": [
			{"id":"x","text":"Gym","color":"#f00","city":"Paris","dateISO":"2024-03-01T00:00:00.000Z","time":"18:00","weather":null},
			{"id":"y","text":"Call","color":"#0f0","city":"Paris","dateISO":"2024-03-01T00:00:00.000Z","time":"08:00","weather":"Clear"}
		],
		"2024-03-02": []
	}`
	st.data[MonthStartKey] = "2024-02-29T23:00:00.000Z"

	repo := NewRepository(st)
	if got := repo.Days(); !reflect.DeepEqual(got, []string{"2024-03-01"}) {
		t.Fatalf("unexpected days %v", got)
	}
	day := repo.Day("2024-03-01")
	if got := ids(day); !reflect.DeepEqual(got, []string{"y", "x"}) {
		t.Fatalf("expected loaded day to be time ordered, got %v", got)
	}
	if day[1].Weather != nil {
		t.Fatalf("expected null weather to load as no data")
	}
	if got := repo.MonthStart(); !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected month start %v", got)
	}
}

func TestSetMonthStart(t *testing.T) {
	st := newMemStorage()
	repo := NewRepository(st)
	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))
	index := st.data[RemindersKey]

	got := repo.SetMonthStart(time.Date(2024, 7, 19, 8, 0, 0, 0, time.UTC))
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || !repo.MonthStart().Equal(want) {
		t.Fatalf("unexpected month start %v", repo.MonthStart())
	}
	if st.data[RemindersKey] != index {
		t.Fatalf("month change must not touch the reminder index")
	}
	if got := NewRepository(st).MonthStart(); !got.Equal(want) {
		t.Fatalf("month start not persisted, reloaded %v", got)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	repo := NewRepository(newMemStorage())

	var got []Event
	unsubscribe := repo.Subscribe(func(ev Event) { got = append(got, ev) })

	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))
	repo.Update(newReminder(t, "a", "2024-03-02", "07:00"))
	repo.Update(newReminder(t, "ghost", "2024-03-02", "07:00"))
	repo.Delete("a")
	repo.Delete("a")
	repo.ClearDay(mustDate(t, "2024-03-03"))

	want := []Event{
		{Op: OpAdd, Day: "2024-03-01", ID: "a"},
		{Op: OpUpdate, Day: "2024-03-02", ID: "a"},
		{Op: OpDelete, Day: "2024-03-02", ID: "a"},
		{Op: OpClearDay, Day: "2024-03-03"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected events:\n got %v\nwant %v", got, want)
	}

	unsubscribe()
	repo.Add(newReminder(t, "b", "2024-03-01", "07:00"))
	if len(got) != len(want) {
		t.Fatalf("unsubscribed observer still notified")
	}
}

func TestDayReturnsCopy(t *testing.T) {
	repo := NewRepository(newMemStorage())
	repo.Add(newReminder(t, "a", "2024-03-01", "07:00"))

	day := repo.Day("2024-03-01")
	day[0].Text = "mutated"
	if r, _ := repo.Get("a"); r.Text == "mutated" {
		t.Fatalf("Day leaked internal state")
	}
}
