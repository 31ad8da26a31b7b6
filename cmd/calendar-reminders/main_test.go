package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/calendar-reminders/internal/reminder"
	"github.com/i474232898/calendar-reminders/internal/storage"
	"github.com/i474232898/calendar-reminders/internal/weather"
)

func TestFormatReminder(t *testing.T) {
	rain := "Rain"
	r := reminder.Reminder{
		ID:      "a1",
		Text:    "Buy milk",
		City:    "London",
		Date:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Time:    "07:30",
		Weather: &rain,
	}

	want := `2024-03-01  07:30  a1  "Buy milk"  London  ` + weather.CategoryRain.Icon() + " Rain"
	if got := formatReminder(r); got != want {
		t.Fatalf("formatReminder() = %q, want %q", got, want)
	}

	r.Weather = nil
	want = `2024-03-01  07:30  a1  "Buy milk"  London  ` + weather.CategoryUnknown.Icon() + " no data"
	if got := formatReminder(r); got != want {
		t.Fatalf("formatReminder() = %q, want %q", got, want)
	}
}

func TestBuildWithMemoryStorage(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("GOOGLE_GEOCODER_API_KEY", "")
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	_, comps, release, err := setup(true)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer release()
	if comps.repo == nil || comps.editor == nil || comps.weather == nil || comps.metrics == nil {
		t.Fatalf("incomplete wiring: %+v", comps)
	}

	comps.repo.ClearDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if days := comps.repo.Days(); len(days) != 0 {
		t.Fatal("expected an empty repository")
	}
}

func TestWritesFailWhileStoreIsLocked(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("STORAGE_PATH", dir)
	t.Setenv("GOOGLE_GEOCODER_API_KEY", "")
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	// A running server holds the store for its whole lifetime.
	held, err := storage.LockDir(dir)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer held.Unlock()

	for _, args := range [][]string{
		{"calendar-reminders", "add", "--text", "Buy milk", "--city", "London", "--date", "2024-03-01"},
		{"calendar-reminders", "delete", "some-id"},
		{"calendar-reminders", "clear-day", "2024-03-01"},
	} {
		err := newApp().Run(args)
		if !errors.Is(err, storage.ErrLocked) {
			t.Fatalf("%v: expected ErrLocked, got %v", args[1:], err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, reminder.RemindersKey)); !os.IsNotExist(err) {
		t.Fatalf("expected no reminders document to be written, stat err = %v", err)
	}

	if err := newApp().Run([]string{"calendar-reminders", "list"}); err != nil {
		t.Fatalf("list should not need the lock: %v", err)
	}
}

func TestWriteReleasesLock(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("STORAGE_PATH", dir)
	t.Setenv("REDIS_ADDR", "")

	if err := newApp().Run([]string{"calendar-reminders", "clear-day", "2024-03-01"}); err != nil {
		t.Fatalf("clear-day: %v", err)
	}

	lock, err := storage.LockDir(dir)
	if err != nil {
		t.Fatalf("expected the lock to be free after the command, got %v", err)
	}
	lock.Unlock()
}
