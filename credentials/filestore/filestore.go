package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
)

var _ credentials.Repo = (*Store)(nil)

// Store persists the credential record in a JSON file that behaves like a small
// key-value storage: {"AUTH_STORAGE_V1": {"token": "...", "refreshToken": "..."}}.
// Writes go to a temp file in the same directory and are renamed into place, so readers
// see either the old pair or the new pair.
type Store struct {
	path   string
	sealer *sealer
	lock   sync.Mutex
}

type Option func(*Store)

// WithPassphrase seals the file contents with a key derived from passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		if passphrase != "" {
			s.sealer = newSealer([]byte(passphrase))
		}
	}
}

// New creates a file store at path, creating the parent directory if needed.
func New(path string, options ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("filestore.New MkdirAll: %w", err)
	}
	s := &Store{path: path}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(_ context.Context) (*credentials.Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		return nil, err
	}
	raw, ok := entries[credentials.StorageKey]
	if !ok {
		return nil, apperrors.ErrNoCredentials
	}
	return credentials.Decode(raw)
}

func (s *Store) Save(_ context.Context, record credentials.Record) error {
	data, err := credentials.Encode(record)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		// An unreadable file is replaced rather than blocking a fresh login.
		entries = map[string]json.RawMessage{}
	}
	entries[credentials.StorageKey] = data
	return s.writeEntries(entries)
}

func (s *Store) Delete(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoCredentials) {
			return nil
		}
		// Corrupt content cannot hold a usable record, drop the file.
		return removeIfExists(s.path)
	}
	if _, ok := entries[credentials.StorageKey]; !ok {
		return nil
	}
	delete(entries, credentials.StorageKey)
	if len(entries) == 0 {
		return removeIfExists(s.path)
	}
	return s.writeEntries(entries)
}

func (s *Store) readEntries() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNoCredentials
		}
		return nil, fmt.Errorf("filestore read: %w", err)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrNoCredentials
	}
	if s.sealer != nil {
		if data, err = s.sealer.open(data); err != nil {
			return nil, err
		}
	}
	entries := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("filestore parse: %w", err)
	}
	return entries, nil
}

func (s *Store) writeEntries(entries map[string]json.RawMessage) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("filestore marshal: %w", err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.seal(data); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".auth-*.tmp")
	if err != nil {
		return fmt.Errorf("filestore temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("filestore chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("filestore rename: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore remove: %w", err)
	}
	return nil
}
