package sessions

import (
	"sync"
	"time"
)

// EventKind is a user interaction that counts as activity.
type EventKind string

const (
	EventPointerMove EventKind = "pointer_move"
	EventKeyPress    EventKind = "key_press"
	EventClick       EventKind = "click"
	EventScroll      EventKind = "scroll"
	EventTouchStart  EventKind = "touch_start"
)

// Valid reports whether k is one of the qualifying interaction kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventPointerMove, EventKeyPress, EventClick, EventScroll, EventTouchStart:
		return true
	}
	return false
}

// InactivityMonitor calls onIdle once no qualifying event has been seen for limit.
// Every qualifying event restarts the countdown.
type InactivityMonitor struct {
	limit  time.Duration
	onIdle func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	running bool
}

// NewInactivityMonitor returns a stopped monitor. A limit of zero or less disables it.
func NewInactivityMonitor(limit time.Duration, onIdle func()) *InactivityMonitor {
	return &InactivityMonitor{limit: limit, onIdle: onIdle}
}

// Start arms the first countdown. Calling Start on a running monitor restarts it.
func (m *InactivityMonitor) Start() {
	if m.limit <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.resetLocked()
}

// Notify records an interaction. It returns false for unknown kinds or when stopped.
func (m *InactivityMonitor) Notify(kind EventKind) bool {
	if !kind.Valid() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return false
	}
	m.resetLocked()
	return true
}

// Attach feeds events into the monitor until the channel closes or detach is called.
func (m *InactivityMonitor) Attach(events <-chan EventKind) (detach func()) {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case kind, ok := <-events:
				if !ok {
					return
				}
				m.Notify(kind)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Stop cancels the countdown. Later notifications are ignored until Start.
func (m *InactivityMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Running reports whether a countdown is armed.
func (m *InactivityMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *InactivityMonitor) resetLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(m.limit, func() { m.fire(gen) })
}

func (m *InactivityMonitor) fire(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.timer = nil
	m.mu.Unlock()

	if m.onIdle != nil {
		m.onIdle()
	}
}
