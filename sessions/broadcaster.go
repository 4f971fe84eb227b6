package sessions

import (
	"sync"
	"time"
)

// Broadcaster owns the process-wide session expiry signal. Raising it is idempotent:
// only the false to true transition notifies subscribers.
type Broadcaster struct {
	mu      sync.Mutex
	expired bool
	last    ExpiryEvent
	subs    map[int]chan ExpiryEvent
	nextID  int
	nowFunc func() time.Time
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:    make(map[int]chan ExpiryEvent),
		nowFunc: time.Now,
	}
}

// Expire raises the signal. It returns true only if the signal was not already raised.
func (b *Broadcaster) Expire(reason Reason) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.expired {
		return false
	}
	b.expired = true
	b.last = ExpiryEvent{Reason: reason, At: b.nowFunc()}

	for _, ch := range b.subs {
		select {
		case ch <- b.last:
		default:
			// subscriber has an undelivered event already
		}
	}
	return true
}

func (b *Broadcaster) Expired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expired
}

// Last returns the event that raised the signal, if it is raised.
func (b *Broadcaster) Last() (ExpiryEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.expired
}

// Clear lowers the signal so a later expiry is delivered again.
func (b *Broadcaster) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expired = false
	b.last = ExpiryEvent{}
}

// Subscribe returns a channel receiving each expiry and a function that unsubscribes.
func (b *Broadcaster) Subscribe() (<-chan ExpiryEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan ExpiryEvent, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}
