package storage

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is a single stored document.
type kvEntry struct {
	Name      string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLBackend stores documents in a kv_entries table through gorm.
type SQLBackend struct {
	db *gorm.DB
}

// NewSQLBackend migrates the kv_entries table on db and returns a backend
// using it.
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, err
	}
	return &SQLBackend{db: db}, nil
}

// OpenSQLite opens (or creates) an sqlite database at path.
func OpenSQLite(path string) (*SQLBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewSQLBackend(db)
}

func (s *SQLBackend) Get(key string) (string, error) {
	var e kvEntry
	err := s.db.First(&e, "name = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return e.Value, nil
}

func (s *SQLBackend) Put(key, value string) error {
	e := kvEntry{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}
