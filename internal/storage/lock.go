package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFile = ".calendar.lock"

// ErrLocked is returned by LockDir while another process holds the store.
var ErrLocked = errors.New("storage: store is in use by another process")

// Lock is an exclusive, advisory lock on a storage directory. The operating
// system releases it when the holding process exits.
type Lock struct {
	fl *flock.Flock
}

// LockDir takes the lock for dir without waiting.
func LockDir(dir string) (*Lock, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(dir, lockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

func (l *Lock) Unlock() error {
	return l.fl.Unlock()
}
