// Package sqlite persists the sync ledger. The PRIMARY KEY on
// (universal_event_id, provider) is the single source of truth for "has this
// event been synced", including across concurrent retries of one batch.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"calbridge/internal/model"
)

const DriverName = "sqlite3"

type Storage struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Storage, error) {
	db, err := sqlx.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return NewStorage(db)
}

// NewStorage wraps an existing connection and runs migrations.
func NewStorage(db *sqlx.DB) (*Storage, error) {
	s := &Storage{db: db}
	if err := s.RunMigrations(); err != nil {
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Get returns the sync record for an event/provider pair, or nil when the
// event has not been synced to that provider.
func (s *Storage) Get(ctx context.Context, universalEventID string, p model.Provider) (*model.SyncRecord, error) {
	var rec syncRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT universal_event_id, provider, provider_event_id, calendar_id, synced_at
		FROM sync_records
		WHERE universal_event_id = ? AND provider = ?
	`, universalEventID, p.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Convert()
}

// Put inserts a sync record. A primary-key violation means another run
// already recorded this pair and surfaces as model.ErrDuplicateRecord.
func (s *Storage) Put(ctx context.Context, rec *model.SyncRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_records (universal_event_id, provider, provider_event_id, calendar_id, synced_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.UniversalEventID, rec.Provider.String(), rec.ProviderEventID, rec.CalendarID, rec.SyncedAt.UTC().Format(timeLayout))

	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return model.ErrDuplicateRecord
	}
	return err
}
