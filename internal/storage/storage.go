package storage

import (
	"errors"
	"log"
)

var (
	// ErrNotFound is returned by a Backend when nothing is stored under a key.
	ErrNotFound = errors.New("storage: key not found")

	errInvalidKey = errors.New("storage: invalid key")
)

// Backend is a raw durable key/value store. Implementations report failures
// as errors; Adapter is what hides them from the rest of the application.
type Backend interface {
	Get(key string) (string, error)
	Put(key, value string) error
}

// Adapter is a best-effort view over a Backend: reads that fail for any
// reason come back absent and failed writes are dropped. Callers never see
// an error or a panic from the underlying store.
type Adapter struct {
	backend Backend
}

// NewAdapter wraps b. A nil backend yields an adapter that stores nothing.
func NewAdapter(b Backend) *Adapter {
	return &Adapter{backend: b}
}

// Read returns the value stored under key and whether one was present.
func (a *Adapter) Read(key string) (value string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: storage read %q panicked: %v", key, r)
			value, ok = "", false
		}
	}()

	if a == nil || a.backend == nil {
		return "", false
	}

	v, err := a.backend.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("ERROR: storage read %q failed: %v", key, err)
		}
		return "", false
	}
	return v, true
}

// Write stores value under key, logging and discarding any failure.
func (a *Adapter) Write(key, value string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: storage write %q panicked: %v", key, r)
		}
	}()

	if a == nil || a.backend == nil {
		return
	}

	if err := a.backend.Put(key, value); err != nil {
		log.Printf("ERROR: storage write %q failed: %v", key, err)
	}
}
