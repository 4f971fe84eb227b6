package sessions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/stretchr/testify/require"
)

func TestLogin_PersistsPairAndClearsSignal(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.manager.Expire(sessions.ReasonInactivity)
	require.True(t, f.manager.Broadcaster().Expired())

	require.NoError(t, f.manager.Login(ctx, "alice", "secret"))
	require.Equal(t, f.api.issued(), *f.stored(t))
	require.False(t, f.manager.Broadcaster().Expired())
}

func TestLogin_FailureLeavesNoRecord(t *testing.T) {
	f := setupTestFixture(t)
	f.seedToken(t, f.now.Add(time.Hour))

	err := f.manager.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, apperrors.ErrLoginFailed)
	require.Nil(t, f.stored(t))
}

// TestRecoverUnauthorized_RotatesPair tests that the stored record is replaced as a whole
func TestRecoverUnauthorized_RotatesPair(t *testing.T) {
	f := setupTestFixture(t)
	seeded := f.seedToken(t, f.now.Add(time.Hour))

	record, err := f.manager.RecoverUnauthorized(context.Background(), seeded.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int32(1), f.api.refreshN.Load())
	require.Equal(t, f.api.issued(), record)
	require.Equal(t, f.api.issued(), *f.stored(t))
}

// TestRecoverUnauthorized_ConcurrentCallersShareOneRefresh tests the dedup slot
func TestRecoverUnauthorized_ConcurrentCallersShareOneRefresh(t *testing.T) {
	f := setupTestFixture(t)
	f.api.delay = 50 * time.Millisecond
	seeded := f.seedToken(t, f.now.Add(time.Hour))

	const callers = 8
	results := make([]credentials.Record, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.manager.RecoverUnauthorized(context.Background(), seeded.AccessToken)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), f.api.refreshN.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, f.api.issued(), results[i])
	}
}

func TestRecoverUnauthorized_AlreadyRotated(t *testing.T) {
	f := setupTestFixture(t)
	current := f.seedToken(t, f.now.Add(time.Hour))

	record, err := f.manager.RecoverUnauthorized(context.Background(), "an-older-access-token")
	require.NoError(t, err)
	require.Equal(t, current, record)
	require.Zero(t, f.api.refreshN.Load())
}

func TestRecoverUnauthorized_NoRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed(credentials.Record{AccessToken: "access-only"})

	_, err := f.manager.RecoverUnauthorized(context.Background(), "access-only")
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.Zero(t, f.api.refreshN.Load())

	event, expired := f.manager.Broadcaster().Last()
	require.True(t, expired)
	require.Equal(t, sessions.ReasonNoRefreshToken, event.Reason)
	require.Nil(t, f.stored(t))
}

func TestRecoverUnauthorized_RefreshFailureExpires(t *testing.T) {
	f := setupTestFixture(t)
	seeded := f.seedToken(t, f.now.Add(time.Hour))
	f.api.fail.Store(true)

	_, err := f.manager.RecoverUnauthorized(context.Background(), seeded.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorIs(t, err, errRefreshRejected)

	event, expired := f.manager.Broadcaster().Last()
	require.True(t, expired)
	require.Equal(t, sessions.ReasonRefreshFailed, event.Reason)
	require.Nil(t, f.stored(t))
}

// TestRefresh_SettlingAfterLogoutIsDiscarded tests that a late refresh cannot revive a session
func TestRefresh_SettlingAfterLogoutIsDiscarded(t *testing.T) {
	f := setupTestFixture(t)
	f.api.delay = 100 * time.Millisecond
	seeded := f.seedToken(t, f.now.Add(time.Hour))

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.RecoverUnauthorized(context.Background(), seeded.AccessToken)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.api.refreshN.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, f.manager.Logout(context.Background()))

	require.ErrorIs(t, <-done, apperrors.ErrSessionExpired)
	require.Nil(t, f.stored(t))
	require.False(t, f.manager.Broadcaster().Expired())
}

func TestExpire_IsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	events, unsubscribe := f.manager.Broadcaster().Subscribe()
	defer unsubscribe()

	require.True(t, f.manager.Expire(sessions.ReasonInactivity))
	require.False(t, f.manager.Expire(sessions.ReasonRefreshFailed))

	event := <-events
	require.Equal(t, sessions.ReasonInactivity, event.Reason)
	select {
	case extra := <-events:
		t.Fatalf("unexpected second event %v", extra)
	default:
	}
}

func TestAcknowledge_ClearsRecordAndSignal(t *testing.T) {
	f := setupTestFixture(t)
	f.seedToken(t, f.now.Add(time.Hour))
	f.manager.Broadcaster().Expire(sessions.ReasonRefreshFailed)

	require.NoError(t, f.manager.Acknowledge(context.Background()))
	require.Nil(t, f.stored(t))
	require.False(t, f.manager.Broadcaster().Expired())
}

// TestLogout_ClearsState tests that no record and no armed timer survive a logout
func TestLogout_ClearsState(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))
	require.NoError(t, f.manager.Login(ctx, "alice", "secret"))
	require.True(t, f.manager.Scheduler().Armed())
	require.True(t, f.manager.Monitor().Running())

	require.NoError(t, f.manager.Logout(ctx))
	require.Nil(t, f.stored(t))
	require.False(t, f.manager.Scheduler().Armed())
	require.False(t, f.manager.Monitor().Running())
	require.False(t, f.manager.Notify(sessions.EventKeyPress))
}

// TestStart_ExpiredOnLoad tests exp = now+50s with a 60s lead expires at once
func TestStart_ExpiredOnLoad(t *testing.T) {
	f := setupTestFixture(t)
	f.seedToken(t, f.now.Add(50*time.Second))

	require.NoError(t, f.manager.Start(context.Background()))

	event, expired := f.manager.Broadcaster().Last()
	require.True(t, expired)
	require.Equal(t, sessions.ReasonTokenExpired, event.Reason)
	require.Zero(t, f.api.refreshN.Load())
	require.Nil(t, f.stored(t))
	require.False(t, f.manager.Scheduler().Armed())
}

func TestStart_PastExpiry(t *testing.T) {
	f := setupTestFixture(t)
	f.seedToken(t, f.now.Add(-time.Minute))

	require.NoError(t, f.manager.Start(context.Background()))
	require.True(t, f.manager.Broadcaster().Expired())
	require.Zero(t, f.api.refreshN.Load())
}

func TestStart_UndecodableToken(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed(credentials.Record{AccessToken: "garbage", RefreshToken: "r"})

	require.NoError(t, f.manager.Start(context.Background()))
	event, expired := f.manager.Broadcaster().Last()
	require.True(t, expired)
	require.Equal(t, sessions.ReasonTokenUndecodable, event.Reason)
}

func TestStart_NoRecordIsNoop(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.manager.Start(context.Background()))
	require.False(t, f.manager.Broadcaster().Expired())
	require.False(t, f.manager.Scheduler().Armed())
}

// TestScheduler_ArmsAtExpiryMinusLead tests exp = now+120s arms the refresh 60s out
func TestScheduler_ArmsAtExpiryMinusLead(t *testing.T) {
	f := setupTestFixture(t)
	f.seedToken(t, f.now.Add(120*time.Second))

	require.NoError(t, f.manager.Start(context.Background()))
	require.True(t, f.manager.Scheduler().Armed())
	require.Equal(t, 60*time.Second, f.manager.Scheduler().Next())
	require.Zero(t, f.api.refreshN.Load())
}

// TestScheduler_FiresAndRearms tests that the proactive refresh fires near exp-lead and
// re-arms from the new token
func TestScheduler_FiresAndRearms(t *testing.T) {
	f := setupTestFixture(t, sessions.WithLeadTime(1900*time.Millisecond))
	f.seedToken(t, f.now.Add(2*time.Second))

	started := time.Now()
	require.NoError(t, f.manager.Start(context.Background()))
	require.Equal(t, 100*time.Millisecond, f.manager.Scheduler().Next())

	require.Eventually(t, func() bool {
		record := f.stored(t)
		return record != nil && record.RefreshToken == f.api.issued().RefreshToken && f.api.refreshN.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	fired := f.api.refreshTimes()[0].Sub(started)
	require.GreaterOrEqual(t, fired, 100*time.Millisecond)
	require.Less(t, fired, time.Second)

	require.Eventually(t, func() bool {
		return f.manager.Scheduler().Next() == time.Hour-1900*time.Millisecond
	}, time.Second, 5*time.Millisecond)
	require.True(t, f.manager.Scheduler().Armed())
}

func TestStatus(t *testing.T) {
	f := setupTestFixture(t)
	f.seedToken(t, f.now.Add(time.Hour))

	status, err := f.manager.Status(context.Background())
	require.NoError(t, err)
	require.True(t, status.LoggedIn)
	require.True(t, status.CanRefresh)
	require.True(t, f.now.Add(time.Hour).Equal(status.ExpiresAt))

	tok, err := f.manager.Token()
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.Type())
	require.Equal(t, f.now.Add(time.Hour).Unix(), tok.Expiry.Unix())
}

// TestRecoverUnauthorized_StaleReadAfterRotation tests a caller that read the old pair
// before another caller's refresh saved the new one and reaches the slot after it settled
func TestRecoverUnauthorized_StaleReadAfterRotation(t *testing.T) {
	f, repo := setupPausingFixture(t)
	seeded := f.seedToken(t, f.now.Add(time.Hour))
	ctx := context.Background()

	type outcome struct {
		record credentials.Record
		err    error
	}
	late := make(chan outcome, 1)
	repo.armed.Store(true)
	go func() {
		record, err := f.manager.RecoverUnauthorized(ctx, seeded.AccessToken)
		late <- outcome{record, err}
	}()
	<-repo.paused

	first, err := f.manager.RecoverUnauthorized(ctx, seeded.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.api.issued(), first)

	close(repo.release)
	got := <-late
	require.NoError(t, got.err)
	require.Equal(t, first, got.record)

	require.Equal(t, int32(1), f.api.refreshN.Load())
	require.False(t, f.manager.Broadcaster().Expired())
	require.Equal(t, first, *f.stored(t))
}

// TestRefreshNow_StaleReadAfterRotation tests the proactive path against the same interleave
func TestRefreshNow_StaleReadAfterRotation(t *testing.T) {
	f, repo := setupPausingFixture(t)
	seeded := f.seedToken(t, f.now.Add(time.Hour))
	ctx := context.Background()

	late := make(chan error, 1)
	repo.armed.Store(true)
	go func() {
		late <- f.manager.RefreshNow(ctx)
	}()
	<-repo.paused

	first, err := f.manager.RecoverUnauthorized(ctx, seeded.AccessToken)
	require.NoError(t, err)

	close(repo.release)
	require.NoError(t, <-late)

	require.Equal(t, int32(1), f.api.refreshN.Load())
	require.False(t, f.manager.Broadcaster().Expired())
	require.Equal(t, first, *f.stored(t))
}
