// Package sqlstore provides a SQLite-backed BlobStore built on gorm.
//
// Blobs are rows of the cache_entries table, keyed by name. It is the
// structured tier of the trieidx cache: indexed lookups, cheap listing and
// per-row sizes without touching the payloads.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/trieidx/blobstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type entry struct {
	Name      string `gorm:"primaryKey;column:name"`
	Value     []byte `gorm:"column:value"`
	Size      int64  `gorm:"column:size"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "cache_entries" }

// Store implements blobstore.BlobStore on a gorm database.
type Store struct {
	db *gorm.DB
}

var _ blobstore.BlobStore = (*Store)(nil)

// Open opens (or creates) the SQLite database at dsn, e.g. a file path or
// "file::memory:?cache=shared".
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dsn, err)
	}
	return New(db)
}

// New uses an existing gorm connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the content of a blob.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).Select("value").Where("name = ?", name).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, name)
		}
		return nil, err
	}
	if e.Value == nil {
		return []byte{}, nil
	}
	return e.Value, nil
}

// Put inserts or replaces a blob.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	e := entry{
		Name:      name,
		Value:     data,
		Size:      int64(len(data)),
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "size", "updated_at"}),
	}).Create(&e).Error
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Where("name = ?", name).Delete(&entry{}).Error
}

// List returns the sorted names of all blobs with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&entry{}).
		Where(`name LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Size returns the size of a blob without reading it.
func (s *Store) Size(ctx context.Context, name string) (int64, error) {
	var e entry
	err := s.db.WithContext(ctx).Select("size").Where("name = ?", name).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %s", blobstore.ErrNotFound, name)
		}
		return 0, err
	}
	return e.Size, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
