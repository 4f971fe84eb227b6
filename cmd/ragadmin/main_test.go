package main

import (
	"bufio"
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-rag-admin/internal/fakebackend"
	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) *fakebackend.Server {
	t.Helper()
	backend, err := fakebackend.New(
		fakebackend.WithUser(fakebackend.DefaultSuperAdminUsername, fakebackend.DefaultSuperAdminPassword, users.RoleSuperAdmin, ""),
		fakebackend.WithUser("admin@acme.test", "admin-password", users.RoleAdmin, "acme"),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	t.Setenv("RAGADMIN_CONFIG", "")
	t.Setenv("API_BASE", srv.URL)
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	return backend
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := &cli{}
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	c.close()
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	setupTestFixture(t)

	out, err := execute(t, "admin-password\n", "login", "-u", "admin@acme.test", "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as admin@acme.test")

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "admin@acme.test")
	require.Contains(t, out, "admin")

	out, err = execute(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Refreshable")

	_, err = execute(t, "", "logout")
	require.NoError(t, err)

	_, err = execute(t, "", "whoami")
	require.Error(t, err)
}

func TestLoginRejected(t *testing.T) {
	setupTestFixture(t)
	_, err := execute(t, "wrong\n", "login", "-u", "admin@acme.test", "--password-stdin")
	require.ErrorContains(t, err, "Incorrect username or password")
}

func TestRoleGating(t *testing.T) {
	setupTestFixture(t)
	_, err := execute(t, "admin-password\n", "login", "-u", "admin@acme.test", "--password-stdin")
	require.NoError(t, err)

	_, err = execute(t, "", "companies", "list")
	require.ErrorContains(t, err, "not available to the admin role")

	out, err := execute(t, "", "docs", "list")
	require.NoError(t, err)
	require.Contains(t, out, "(none)")

	out, err = execute(t, "", "websites", "scrape", "https://acme.test")
	require.NoError(t, err)
	require.Contains(t, out, "https://acme.test")

	out, err = execute(t, "", "ask", "what", "is", "acme?")
	require.NoError(t, err)
	require.Contains(t, out, `"what is acme?"`)
}

func TestSuperAdminCompanies(t *testing.T) {
	setupTestFixture(t)
	_, err := execute(t, fakebackend.DefaultSuperAdminPassword+"\n", "login", "-u", fakebackend.DefaultSuperAdminUsername, "--password-stdin")
	require.NoError(t, err)

	out, err := execute(t, "", "companies", "create", "--name", "Globex", "--tenant", "globex")
	require.NoError(t, err)
	require.Contains(t, out, "Created company Globex (globex)")

	out, err = execute(t, "", "companies", "admin", "--tenant", "globex", "--name", "Globex Admin", "--user-code", "globex_admin")
	require.NoError(t, err)
	require.Contains(t, out, "API key")

	out, err = execute(t, "", "companies", "list")
	require.NoError(t, err)
	require.Contains(t, out, "globex")
	require.Contains(t, out, "acme")
}

func TestRefreshOnUnauthorizedWithMetrics(t *testing.T) {
	backend := setupTestFixture(t)
	_, err := execute(t, "admin-password\n", "login", "-u", "admin@acme.test", "--password-stdin")
	require.NoError(t, err)
	backend.ExpireAccessTokens()

	out, err := execute(t, "", "--metrics", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "admin@acme.test")
	require.Contains(t, out, `ragadmin_token_refresh_total{result="success",source="unauthorized"} 1`)
	require.Equal(t, 1, backend.RefreshCalls())
}

func TestSQLiteStore(t *testing.T) {
	setupTestFixture(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := execute(t, "admin-password\n", "login", "-u", "admin@acme.test", "--password-stdin")
	require.NoError(t, err)
	out, err := execute(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "admin@acme.test")
}

func TestShell(t *testing.T) {
	setupTestFixture(t)
	_, err := execute(t, "admin-password\n", "login", "-u", "admin@acme.test", "--password-stdin")
	require.NoError(t, err)

	out, err := execute(t, "whoami\n\nshell\nlogout\nexit\n", "shell")
	require.NoError(t, err)
	require.Contains(t, out, shellPrompt)
	require.Contains(t, out, "admin@acme.test")
	require.Contains(t, out, "Already in the shell")
	require.Contains(t, out, "Logged out")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, Version)
}

// TestReadLines_StopsWhenDone tests that the reader exits while holding an undelivered line
func TestReadLines_StopsWhenDone(t *testing.T) {
	more := make(chan struct{}, 1)
	done := make(chan struct{})
	lines := readLines(bufio.NewReader(strings.NewReader("whoami\nstatus\n")), more, done)

	more <- struct{}{}
	require.Equal(t, "whoami", <-lines)

	more <- struct{}{}
	close(done)

	closed := make(chan struct{})
	go func() {
		for range lines {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("line reader did not exit after done was closed")
	}
}
