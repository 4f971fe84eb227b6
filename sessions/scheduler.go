package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/token"
	"github.com/rs/zerolog/log"
)

// Scheduler arms a one-shot timer that refreshes the access token lead before it expires.
type Scheduler struct {
	repo    credentials.Repo
	lead    time.Duration
	nowFunc func() time.Time
	refresh func(ctx context.Context) error
	expire  func(Reason) bool

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	active bool
	next   time.Duration
}

func newScheduler(repo credentials.Repo, lead time.Duration, now func() time.Time, refresh func(context.Context) error, expire func(Reason) bool) *Scheduler {
	return &Scheduler{
		repo:    repo,
		lead:    lead,
		nowFunc: now,
		refresh: refresh,
		expire:  expire,
	}
}

// Start activates the scheduler and arms it from the stored access token.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	return s.Arm(ctx)
}

// Arm reads the stored access token and schedules the refresh. With no stored record it
// does nothing. An undecodable or already expiring token raises the expiry signal
// without a refresh attempt.
func (s *Scheduler) Arm(ctx context.Context) error {
	if !s.Active() {
		return nil
	}

	record, err := s.repo.Load(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoCredentials) {
			return nil
		}
		return apperrors.Wrapf(err, "scheduler load")
	}

	remaining, err := token.Remaining(record.AccessToken, s.nowFunc(), s.lead)
	if err != nil {
		log.Err(err).Msg("Access token could not be decoded")
		s.expire(ReasonTokenUndecodable)
		return nil
	}
	if remaining <= 0 {
		s.expire(ReasonTokenExpired)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.next = remaining
	s.timer = time.AfterFunc(remaining, func() { s.fire(gen) })
	log.Debug().Dur("in", remaining).Msg("Proactive token refresh scheduled")
	return nil
}

// Stop deactivates the scheduler and cancels any armed timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.stopTimerLocked()
	s.gen++
}

func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Armed reports whether a refresh timer is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Next returns the delay used by the most recent Arm.
func (s *Scheduler) Next() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if err := s.refresh(context.Background()); err != nil {
		log.Err(err).Msg("Proactive token refresh failed")
	}
}
