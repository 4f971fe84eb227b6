package sessions_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-rag-admin/credentials"
	credentialrepofake "github.com/jrsteele09/go-rag-admin/credentials/repofake"
	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/stretchr/testify/require"
)

var errRefreshRejected = errors.New("refresh rejected")

// fakeTokenAPI mints unsigned-looking HS256 tokens with a configurable lifetime.
type fakeTokenAPI struct {
	now      func() time.Time
	ttl      time.Duration
	delay    time.Duration
	fail     atomic.Bool
	refreshN atomic.Int32
	loginN   atomic.Int32

	mu         sync.Mutex
	refreshAt  []time.Time
	lastIssued credentials.Record
	seq        int
}

func (f *fakeTokenAPI) mint(t time.Time) credentials.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	access, _ := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "alice",
		"exp": t.Add(f.ttl).Unix(),
		"jti": fmt.Sprintf("access-%d", f.seq),
	}).SignedString([]byte("test"))
	f.lastIssued = credentials.Record{AccessToken: access, RefreshToken: fmt.Sprintf("refresh-%d", f.seq)}
	return f.lastIssued
}

func (f *fakeTokenAPI) Login(_ context.Context, username, password string) (credentials.Record, error) {
	f.loginN.Add(1)
	if password != "secret" {
		return credentials.Record{}, errors.New("bad credentials")
	}
	return f.mint(f.now()), nil
}

func (f *fakeTokenAPI) Refresh(_ context.Context, _ string) (credentials.Record, error) {
	f.refreshN.Add(1)
	f.mu.Lock()
	f.refreshAt = append(f.refreshAt, time.Now())
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail.Load() {
		return credentials.Record{}, errRefreshRejected
	}
	return f.mint(f.now()), nil
}

func (f *fakeTokenAPI) issued() credentials.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastIssued
}

func (f *fakeTokenAPI) refreshTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.refreshAt...)
}

type testFixture struct {
	repo    *credentialrepofake.FakeCredentialRepo
	api     *fakeTokenAPI
	manager *sessions.Manager
	now     time.Time
}

func setupTestFixture(t *testing.T, options ...sessions.ManagerOption) *testFixture {
	t.Helper()
	now := time.Unix(1_800_000_000, 0)
	f := &testFixture{
		repo: credentialrepofake.NewFakeCredentialRepo(),
		now:  now,
	}
	f.api = &fakeTokenAPI{now: func() time.Time { return now }, ttl: time.Hour}

	opts := append([]sessions.ManagerOption{
		sessions.WithNowFunc(func() time.Time { return now }),
		sessions.WithInactivityLimit(time.Hour),
	}, options...)
	f.manager = sessions.New(f.repo, f.api, opts...)
	t.Cleanup(f.manager.Close)
	return f
}

// seedToken stores a token pair whose access token expires at exp.
func (f *testFixture) seedToken(t *testing.T, exp time.Time) credentials.Record {
	t.Helper()
	access, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "alice", "exp": exp.Unix()}).
		SignedString([]byte("test"))
	require.NoError(t, err)
	record := credentials.Record{AccessToken: access, RefreshToken: "seed-refresh"}
	f.repo.Seed(record)
	return record
}

func (f *testFixture) stored(t *testing.T) *credentials.Record {
	t.Helper()
	record, err := f.repo.Load(context.Background())
	if err != nil {
		return nil
	}
	return record
}

// pausingRepo holds the next Load call after it has read the record, until released.
type pausingRepo struct {
	*credentialrepofake.FakeCredentialRepo
	armed   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func newPausingRepo() *pausingRepo {
	return &pausingRepo{
		FakeCredentialRepo: credentialrepofake.NewFakeCredentialRepo(),
		paused:             make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (r *pausingRepo) Load(ctx context.Context) (*credentials.Record, error) {
	record, err := r.FakeCredentialRepo.Load(ctx)
	if r.armed.CompareAndSwap(true, false) {
		close(r.paused)
		<-r.release
	}
	return record, err
}

// setupPausingFixture is setupTestFixture with a repo that can hold one caller after its Load.
func setupPausingFixture(t *testing.T) (*testFixture, *pausingRepo) {
	t.Helper()
	now := time.Unix(1_800_000_000, 0)
	repo := newPausingRepo()
	f := &testFixture{repo: repo.FakeCredentialRepo, now: now}
	f.api = &fakeTokenAPI{now: func() time.Time { return now }, ttl: time.Hour}
	f.manager = sessions.New(repo, f.api,
		sessions.WithNowFunc(func() time.Time { return now }),
		sessions.WithInactivityLimit(time.Hour),
	)
	t.Cleanup(f.manager.Close)
	return f, repo
}
