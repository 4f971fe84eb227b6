package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var _ credentials.Repo = (*Store)(nil)

// Store keeps the credential record in a SQLite key-value table under a single key.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path. Use ":memory:" for a throwaway store.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("SQLite credential store initialised")
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (*credentials.Record, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, credentials.StorageKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore load: %w", err)
	}
	return credentials.Decode([]byte(value))
}

func (s *Store) Save(ctx context.Context, record credentials.Record) error {
	data, err := credentials.Encode(record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		credentials.StorageKey, string(data))
	if err != nil {
		return fmt.Errorf("sqlitestore save: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, credentials.StorageKey); err != nil {
		return fmt.Errorf("sqlitestore delete: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
