package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/i474232898/calendar-reminders/internal/reminder"
	"github.com/i474232898/calendar-reminders/internal/weather"
)

// Defaults applied to empty input fields.
const (
	DefaultColor = "#3b82f6"
	DefaultTime  = "09:00"
)

var (
	ErrInvalid  = errors.New("invalid reminder")
	ErrNotFound = errors.New("reminder not found")
	// ErrStale is returned when a newer edit of the same reminder started
	// while this one was waiting for its weather lookup.
	ErrStale = errors.New("reminder was edited again before this edit completed")
)

// Summarizer resolves the weather annotation for a reminder.
type Summarizer interface {
	Summarize(ctx context.Context, city string, date time.Time, hhmm string) (weather.Category, bool)
}

// Input is what a user submits from the reminder form.
type Input struct {
	Text  string `json:"text" validate:"required,max=30"`
	Color string `json:"color"`
	City  string `json:"city" validate:"required"`
	// Date is a day key or an ISO-8601 timestamp; empty means today.
	Date string `json:"dateISO"`
	Time string `json:"time" validate:"datetime=15:04"`
}

// Editor validates form input, annotates it with weather and stores it.
type Editor struct {
	repo     *reminder.Repository
	weather  Summarizer
	validate *validator.Validate
	timeout  time.Duration

	now   func() time.Time
	newID func() string

	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// New creates an Editor. timeout bounds each weather lookup; zero disables
// the bound.
func New(repo *reminder.Repository, weather Summarizer, timeout time.Duration) *Editor {
	return &Editor{
		repo:     repo,
		weather:  weather,
		validate: validator.New(),
		timeout:  timeout,
		now:      time.Now,
		newID:    uuid.NewString,
		latest:   make(map[string]uint64),
	}
}

// normalize trims and defaults in, validates it and builds the reminder
// fields it describes (everything but ID and Weather).
func (e *Editor) normalize(in Input) (reminder.Reminder, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.City = strings.TrimSpace(in.City)
	in.Time = strings.TrimSpace(in.Time)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if in.Time == "" {
		in.Time = DefaultTime
	}

	if err := e.validate.Struct(in); err != nil {
		return reminder.Reminder{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	date := reminder.CanonicalDate(e.now())
	if in.Date != "" {
		d, err := reminder.ParseDate(in.Date)
		if err != nil {
			return reminder.Reminder{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		date = d
	}

	clock, err := time.Parse("15:04", in.Time)
	if err != nil {
		return reminder.Reminder{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return reminder.Reminder{
		Text:  in.Text,
		Color: in.Color,
		City:  in.City,
		Date:  date,
		Time:  clock.Format("15:04"),
	}, nil
}

func (e *Editor) annotate(ctx context.Context, r *reminder.Reminder) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	r.Weather = nil
	if cat, ok := e.weather.Summarize(ctx, r.City, r.Date, r.Time); ok {
		s := string(cat)
		r.Weather = &s
	}
}

// Create stores a new reminder built from in. A failed weather lookup still
// saves the reminder, without weather data.
func (e *Editor) Create(ctx context.Context, in Input) (reminder.Reminder, error) {
	r, err := e.normalize(in)
	if err != nil {
		return reminder.Reminder{}, err
	}
	r.ID = e.newID()

	e.annotate(ctx, &r)
	e.repo.Add(r)
	return r, nil
}

// Edit replaces the reminder id with one built from in, re-resolving its
// weather. If another edit of id starts before this one finishes, this one
// is dropped with ErrStale.
func (e *Editor) Edit(ctx context.Context, id string, in Input) (reminder.Reminder, error) {
	if _, ok := e.repo.Get(id); !ok {
		return reminder.Reminder{}, ErrNotFound
	}

	r, err := e.normalize(in)
	if err != nil {
		return reminder.Reminder{}, err
	}
	r.ID = id

	token := e.begin(id)
	e.annotate(ctx, &r)
	if !e.isLatest(id, token) {
		return reminder.Reminder{}, ErrStale
	}

	if !e.repo.Update(r) {
		return reminder.Reminder{}, ErrNotFound
	}
	return r, nil
}

func (e *Editor) begin(id string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.latest[id] = e.seq
	return e.seq
}

func (e *Editor) isLatest(id string, token uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest[id] == token
}
