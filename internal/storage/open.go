package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Drivers understood by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Open builds the Backend selected by driver. path is the directory for the
// file driver and the database directory for sqlite; redisAddr is only used
// by the redis driver.
func Open(driver, path, redisAddr string) (Backend, error) {
	switch driver {
	case DriverFile, "":
		return NewFileBackend(path), nil
	case DriverSQLite:
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, err
		}
		return OpenSQLite(filepath.Join(path, "calendar.db"))
	case DriverRedis:
		if redisAddr == "" {
			return nil, fmt.Errorf("redis driver requires REDIS_ADDR")
		}
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		return NewRedisBackend(client, "calendar:"), nil
	case DriverMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
