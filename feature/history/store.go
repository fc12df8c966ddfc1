package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"locafix/core/database"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a run is not in the journal.
var ErrNotFound = errors.New("run not found")

// Store persists run records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the journal table and verifies its columns.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate run journal: %w", err)
	}

	missing, err := database.MissingColumns(s.db.WithContext(ctx), Record{}.TableName(), recordColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("run journal is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Create inserts a record.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return records, nil
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &rec, nil
}
