package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-rag-admin/credentials"
	"github.com/jrsteele09/go-rag-admin/credentials/filestore"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, options ...filestore.Option) *filestore.Store {
	t.Helper()
	s, err := filestore.New(filepath.Join(t.TempDir(), "nested", "auth.json"), options...)
	require.NoError(t, err)
	return s
}

func TestFileStore_LoadEmpty(t *testing.T) {
	s := newStore(t)
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNoCredentials)
}

func TestFileStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "a1", RefreshToken: "r1"}))
	record, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.Record{AccessToken: "a1", RefreshToken: "r1"}, *record)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.JSONEq(t, `{"AUTH_STORAGE_V1":{"token":"a1","refreshToken":"r1"}}`, string(data))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Delete(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoCredentials)
	require.NoError(t, s.Delete(ctx), "delete is idempotent")
}

func TestFileStore_RejectsPartialRecord(t *testing.T) {
	s := newStore(t)
	err := s.Save(context.Background(), credentials.Record{AccessToken: "a1"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not-json"), 0o600))

	_, err := s.Load(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, apperrors.ErrNoCredentials)

	// A fresh login overwrites the unreadable content.
	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "a", RefreshToken: "r"}))
	record, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", record.AccessToken)
}

func TestFileStore_ReplaceIsWholeRecord(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "a0", RefreshToken: "r0"}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			suffix := string(rune('a' + i))
			_ = s.Save(ctx, credentials.Record{AccessToken: "access-" + suffix, RefreshToken: "refresh-" + suffix})
		}(i)
	}
	for i := 0; i < 50; i++ {
		record, err := s.Load(ctx)
		require.NoError(t, err)
		if record.AccessToken == "a0" {
			require.Equal(t, "r0", record.RefreshToken)
			continue
		}
		require.Equal(t, strings.TrimPrefix(record.AccessToken, "access-"), strings.TrimPrefix(record.RefreshToken, "refresh-"))
	}
	wg.Wait()
}

func TestFileStore_Sealed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.sealed")

	s, err := filestore.New(path, filestore.WithPassphrase("correct horse"))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "secret-access", RefreshToken: "secret-refresh"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret-access")

	reopened, err := filestore.New(path, filestore.WithPassphrase("correct horse"))
	require.NoError(t, err)
	record, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "secret-refresh", record.RefreshToken)

	wrong, err := filestore.New(path, filestore.WithPassphrase("wrong"))
	require.NoError(t, err)
	_, err = wrong.Load(ctx)
	require.Error(t, err)
}
