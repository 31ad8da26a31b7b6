package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/i474232898/calendar-reminders/internal/common"
)

// FileBackend keeps one file per key inside a directory. Writes go to a temp
// file in the same directory which is then renamed over the target, so a
// reader sees either the old document or the new one.
type FileBackend struct {
	dir string
}

// DefaultDir is used when no directory is configured.
const DefaultDir = "./var/calendar"

// NewFileBackend creates a FileBackend rooted at dir. The directory is
// created lazily on the first write.
func NewFileBackend(dir string) *FileBackend {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileBackend{dir: dir}
}

func (f *FileBackend) path(key string) (string, error) {
	if key == "" || common.HasAny(key, "/", `\`, "..") {
		return "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	return filepath.Join(f.dir, key), nil
}

func (f *FileBackend) Get(key string) (string, error) {
	p, err := f.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (f *FileBackend) Put(key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".calendar-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, p)
}
