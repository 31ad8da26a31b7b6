package reminder

import "sync"

// Op names a state change published by the Repository.
type Op string

const (
	OpAdd      Op = "add"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpClearDay Op = "clear_day"
	OpSetMonth Op = "set_month"
)

// Event describes a mutation that has already been applied and persisted.
// Day is the affected day key (the destination day for updates); ID is empty
// for day- and month-level operations.
type Event struct {
	Op  Op
	Day string
	ID  string
}

type subscriber struct {
	id int
	fn func(Event)
}

type broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

func (b *broadcaster) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
