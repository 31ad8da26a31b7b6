package reminder

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Storage keys of the two persisted documents.
const (
	RemindersKey  = "calendar-reminders"
	MonthStartKey = "calendar-month-start"
)

// Storage is the best-effort durable store the Repository writes through to.
// Reads report absence instead of errors and writes never fail.
type Storage interface {
	Read(key string) (string, bool)
	Write(key, value string)
}

// Repository owns the reminder index and the displayed month. It is loaded
// once from Storage and every mutation writes the whole affected document
// back before returning.
type Repository struct {
	mu         sync.RWMutex
	storage    Storage
	index      Index
	monthStart time.Time

	now    func() time.Time
	events broadcaster
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used to pick the default month.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository loads the index and month anchor from storage. Missing or
// unreadable documents start out empty (index) or as the current month.
func NewRepository(storage Storage, opts ...Option) *Repository {
	r := &Repository{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.index = r.loadIndex()
	r.monthStart = r.loadMonthStart()
	return r
}

func (r *Repository) loadIndex() Index {
	raw, ok := r.storage.Read(RemindersKey)
	if !ok || raw == "" {
		return Index{}
	}

	var stored map[string][]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("ERROR: discarding unreadable %s document: %v", RemindersKey, err)
		return Index{}
	}

	// A bad entry costs only itself; the rest of the document is kept.
	idx := make(Index, len(stored))
	for day, entries := range stored {
		for _, entry := range entries {
			rem, err := decodeStored(day, entry)
			if err != nil {
				log.Printf("ERROR: dropping unreadable reminder filed under %q: %v", day, err)
				continue
			}
			idx[day] = append(idx[day], rem)
		}
	}
	idx.normalize()
	return idx
}

func (r *Repository) loadMonthStart() time.Time {
	raw, ok := r.storage.Read(MonthStartKey)
	if ok {
		var s string
		// Accept both a JSON string and the bare timestamp.
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			s = raw
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return MonthStart(t)
		}
		log.Printf("ERROR: discarding unreadable %s value %q", MonthStartKey, raw)
	}
	return MonthStart(r.now())
}

// persist must be called with r.mu held.
func (r *Repository) persist(idx Index) {
	data, err := json.Marshal(idx)
	if err != nil {
		log.Printf("ERROR: encoding %s: %v", RemindersKey, err)
		return
	}
	r.storage.Write(RemindersKey, string(data))
}

// commit persists next, installs it and returns the event to publish.
func (r *Repository) commit(next Index, ev Event) Event {
	r.persist(next)
	r.index = next
	return ev
}

// Subscribe registers fn to be called after every applied mutation. The
// returned function removes the subscription.
func (r *Repository) Subscribe(fn func(Event)) func() {
	return r.events.subscribe(fn)
}

// Add inserts rem into its day, keeping the day ordered by time. The
// reminder is stored as given; callers validate it beforehand.
func (r *Repository) Add(rem Reminder) {
	r.mu.Lock()
	next := r.index.clone()
	day := next.insert(rem)
	ev := r.commit(next, Event{Op: OpAdd, Day: day, ID: rem.ID})
	r.mu.Unlock()

	r.events.publish(ev)
}

// Update replaces the stored reminder with the same id, moving it to another
// day when its date changed. It reports whether the id was found; an unknown
// id leaves everything untouched.
func (r *Repository) Update(rem Reminder) bool {
	r.mu.Lock()
	prevDay, pos, ok := r.index.find(rem.ID)
	if !ok {
		r.mu.Unlock()
		return false
	}

	next := r.index.clone()
	next.remove(prevDay, pos)
	day := next.insert(rem)
	ev := r.commit(next, Event{Op: OpUpdate, Day: day, ID: rem.ID})
	r.mu.Unlock()

	r.events.publish(ev)
	return true
}

// Delete removes the reminder with id from whichever day holds it and
// reports whether it existed.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	day, pos, ok := r.index.find(id)
	if !ok {
		r.mu.Unlock()
		return false
	}

	next := r.index.clone()
	next.remove(day, pos)
	ev := r.commit(next, Event{Op: OpDelete, Day: day, ID: id})
	r.mu.Unlock()

	r.events.publish(ev)
	return true
}

// ClearDay removes every reminder on date's day.
func (r *Repository) ClearDay(date time.Time) {
	day := DayKey(date)

	r.mu.Lock()
	next := r.index.clone()
	delete(next, day)
	ev := r.commit(next, Event{Op: OpClearDay, Day: day})
	r.mu.Unlock()

	r.events.publish(ev)
}

// SetMonthStart moves the displayed month to the month containing t.
func (r *Repository) SetMonthStart(t time.Time) time.Time {
	ms := MonthStart(t)

	r.mu.Lock()
	r.storage.Write(MonthStartKey, ms.Format(time.RFC3339Nano))
	r.monthStart = ms
	r.mu.Unlock()

	r.events.publish(Event{Op: OpSetMonth, Day: DayKey(ms)})
	return ms
}

// MonthStart returns the displayed month anchor.
func (r *Repository) MonthStart() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.monthStart
}

// Day returns a copy of the reminders stored under the day key. A day
// without reminders yields an empty slice.
func (r *Repository) Day(key string) []Reminder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Reminder{}, r.index[key]...)
}

// Days returns every day key holding at least one reminder, ascending.
func (r *Repository) Days() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Days()
}

// Get looks a reminder up by id.
func (r *Repository) Get(id string) (Reminder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day, pos, ok := r.index.find(id)
	if !ok {
		return Reminder{}, false
	}
	return r.index[day][pos], true
}

// Snapshot returns a deep copy of the whole index.
func (r *Repository) Snapshot() Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.clone()
}
