package sessions_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/stretchr/testify/require"
)

func TestEventKind_Valid(t *testing.T) {
	for _, kind := range []sessions.EventKind{
		sessions.EventPointerMove, sessions.EventKeyPress, sessions.EventClick,
		sessions.EventScroll, sessions.EventTouchStart,
	} {
		require.True(t, kind.Valid(), kind)
	}
	require.False(t, sessions.EventKind("focus").Valid())
}

// TestInactivityMonitor_FiresWhenIdle tests that silence for the limit calls onIdle once
func TestInactivityMonitor_FiresWhenIdle(t *testing.T) {
	var fired atomic.Int32
	m := sessions.NewInactivityMonitor(50*time.Millisecond, func() { fired.Add(1) })
	m.Start()

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, m.Running())
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load())
}

// TestInactivityMonitor_ActivityKeepsAlive tests that regular events prevent expiry
func TestInactivityMonitor_ActivityKeepsAlive(t *testing.T) {
	var fired atomic.Int32
	m := sessions.NewInactivityMonitor(150*time.Millisecond, func() { fired.Add(1) })
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.True(t, m.Notify(sessions.EventKeyPress))
		time.Sleep(20 * time.Millisecond)
	}
	require.Zero(t, fired.Load())
}

func TestInactivityMonitor_UnknownKindIgnored(t *testing.T) {
	var fired atomic.Int32
	m := sessions.NewInactivityMonitor(80*time.Millisecond, func() { fired.Add(1) })
	m.Start()

	for i := 0; i < 5; i++ {
		require.False(t, m.Notify("resize"))
		time.Sleep(20 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestInactivityMonitor_StopReleasesTimer(t *testing.T) {
	var fired atomic.Int32
	m := sessions.NewInactivityMonitor(30*time.Millisecond, func() { fired.Add(1) })
	m.Start()
	m.Stop()

	require.False(t, m.Notify(sessions.EventClick))
	time.Sleep(80 * time.Millisecond)
	require.Zero(t, fired.Load())
}

func TestInactivityMonitor_Attach(t *testing.T) {
	var fired atomic.Int32
	m := sessions.NewInactivityMonitor(150*time.Millisecond, func() { fired.Add(1) })
	m.Start()
	defer m.Stop()

	events := make(chan sessions.EventKind)
	detach := m.Attach(events)
	defer detach()

	for i := 0; i < 15; i++ {
		events <- sessions.EventScroll
		time.Sleep(20 * time.Millisecond)
	}
	require.Zero(t, fired.Load())
}

// TestManager_InactivityExpiresSession tests that an idle session is expired and cleared
func TestManager_InactivityExpiresSession(t *testing.T) {
	f := setupTestFixture(t, sessions.WithInactivityLimit(50*time.Millisecond))
	f.seedToken(t, f.now.Add(time.Hour))

	require.NoError(t, f.manager.Start(t.Context()))
	require.Eventually(t, f.manager.Broadcaster().Expired, time.Second, 5*time.Millisecond)

	event, _ := f.manager.Broadcaster().Last()
	require.Equal(t, sessions.ReasonInactivity, event.Reason)
	require.Nil(t, f.stored(t))
	require.False(t, f.manager.Scheduler().Armed())
}
