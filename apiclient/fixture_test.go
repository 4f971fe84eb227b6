package apiclient_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-rag-admin/apiclient"
	credentialrepofake "github.com/jrsteele09/go-rag-admin/credentials/repofake"
	"github.com/jrsteele09/go-rag-admin/internal/fakebackend"
	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/stretchr/testify/require"
)

const (
	adminUser     = "admin@acme.test"
	adminPassword = "admin-password"
)

type testFixture struct {
	backend *fakebackend.Server
	repo    *credentialrepofake.FakeCredentialRepo
	manager *sessions.Manager
	client  *apiclient.Client
}

func setupTestFixture(t *testing.T, options ...fakebackend.Option) *testFixture {
	t.Helper()
	opts := append([]fakebackend.Option{
		fakebackend.WithUser(adminUser, adminPassword, users.RoleAdmin, "acme"),
	}, options...)
	backend, err := fakebackend.New(opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	f := &testFixture{backend: backend, repo: credentialrepofake.NewFakeCredentialRepo()}
	authAPI := apiclient.NewAuthAPI(apiclient.New(srv.URL))
	f.manager = sessions.New(f.repo, authAPI)
	t.Cleanup(f.manager.Close)
	f.client = apiclient.NewAuthenticated(srv.URL, f.repo, f.manager)
	return f
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.manager.Login(context.Background(), adminUser, adminPassword))
}
