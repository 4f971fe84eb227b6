package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-rag-admin/credentials"
	"github.com/jrsteele09/go-rag-admin/credentials/sqlitestore"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_SingleKeyUpsert(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth.db")
	s, err := sqlitestore.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoCredentials)

	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "a2", RefreshToken: "r2"}))

	record, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.Record{AccessToken: "a2", RefreshToken: "r2"}, *record)

	require.NoError(t, s.Delete(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoCredentials)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth.db")

	s, err := sqlitestore.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, credentials.Record{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, s.Close())

	reopened, err := sqlitestore.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	record, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "r", record.RefreshToken)
}

func TestSQLiteStore_RejectsPartialRecord(t *testing.T) {
	s, err := sqlitestore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.ErrorIs(t, s.Save(context.Background(), credentials.Record{RefreshToken: "r"}), apperrors.ErrInvalidCredential)
}
