package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/internal/metrics"
	"github.com/jrsteele09/go-rag-admin/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLeadTime        = 60 * time.Second
	DefaultInactivityLimit = 15 * time.Minute
)

// TokenAPI performs the unauthenticated login and refresh calls.
type TokenAPI interface {
	Login(ctx context.Context, username, password string) (credentials.Record, error)
	Refresh(ctx context.Context, refreshToken string) (credentials.Record, error)
}

var _ oauth2.TokenSource = (*Manager)(nil)

// Manager owns the token lifecycle of one logged-in user: the stored credential record,
// the refresh slot shared by every refresh trigger, the proactive refresh scheduler, the
// inactivity monitor and the expiry signal.
type Manager struct {
	repo            credentials.Repo
	api             TokenAPI
	leadTime        time.Duration
	inactivityLimit time.Duration
	nowFunc         func() time.Time
	metrics         *metrics.Recorder
	broadcaster     *Broadcaster

	scheduler *Scheduler
	monitor   *InactivityMonitor
	flight    singleflight.Group

	// stateMu orders credential writes against session transitions. epoch changes on
	// every login, logout and expiry so a refresh that settles afterwards is discarded.
	stateMu sync.Mutex
	epoch   uint64
	running bool
}

type ManagerOption func(*Manager)

func WithLeadTime(lead time.Duration) ManagerOption {
	return func(m *Manager) {
		m.leadTime = lead
	}
}

func WithInactivityLimit(limit time.Duration) ManagerOption {
	return func(m *Manager) {
		m.inactivityLimit = limit
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithMetrics(r *metrics.Recorder) ManagerOption {
	return func(m *Manager) {
		m.metrics = r
	}
}

func WithBroadcaster(b *Broadcaster) ManagerOption {
	return func(m *Manager) {
		m.broadcaster = b
	}
}

// New creates a stopped manager. Call Start to run the scheduler and inactivity monitor.
func New(repo credentials.Repo, api TokenAPI, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:            repo,
		api:             api,
		leadTime:        DefaultLeadTime,
		inactivityLimit: DefaultInactivityLimit,
		nowFunc:         time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.broadcaster == nil {
		m.broadcaster = NewBroadcaster()
	}
	m.broadcaster.nowFunc = m.nowFunc
	m.scheduler = newScheduler(repo, m.leadTime, m.nowFunc, m.RefreshNow, m.Expire)
	m.monitor = NewInactivityMonitor(m.inactivityLimit, func() { m.Expire(ReasonInactivity) })
	return m
}

func (m *Manager) Broadcaster() *Broadcaster {
	return m.broadcaster
}

func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}

func (m *Manager) Monitor() *InactivityMonitor {
	return m.monitor
}

// Notify forwards a user interaction to the inactivity monitor.
func (m *Manager) Notify(kind EventKind) bool {
	return m.monitor.Notify(kind)
}

// Start runs the timers for an already persisted session. Without a stored record it
// only marks the manager running so the next Login starts them.
func (m *Manager) Start(ctx context.Context) error {
	m.stateMu.Lock()
	m.running = true
	m.stateMu.Unlock()
	return m.startTimers(ctx)
}

// Close stops every timer. The stored record is left in place.
func (m *Manager) Close() {
	m.stateMu.Lock()
	m.running = false
	m.stateMu.Unlock()
	m.stopTimers()
}

func (m *Manager) startTimers(ctx context.Context) error {
	if _, err := m.repo.Load(ctx); err != nil {
		if apperrors.Is(err, apperrors.ErrNoCredentials) {
			return nil
		}
		return apperrors.Wrapf(err, "session start")
	}
	m.monitor.Start()
	return m.scheduler.Start(ctx)
}

func (m *Manager) stopTimers() {
	m.scheduler.Stop()
	m.monitor.Stop()
}

func (m *Manager) isRunning() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.running
}

func (m *Manager) currentEpoch() uint64 {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.epoch
}

// Login clears any stored record, exchanges the credentials for a token pair and
// persists it.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.stopTimers()
	m.stateMu.Lock()
	m.epoch++
	err := m.repo.Delete(ctx)
	m.stateMu.Unlock()
	if err != nil {
		return apperrors.Wrapf(err, "clearing credentials")
	}

	record, err := m.api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrLoginFailed, err)
	}
	if !record.Valid() {
		return fmt.Errorf("%w: response is missing a token", apperrors.ErrLoginFailed)
	}

	m.stateMu.Lock()
	m.epoch++
	err = m.repo.Save(ctx, record)
	m.stateMu.Unlock()
	if err != nil {
		return apperrors.Wrapf(err, "saving credentials")
	}

	m.broadcaster.Clear()
	log.Info().Str("user", username).Msg("Logged in")

	if m.isRunning() {
		return m.startTimers(ctx)
	}
	return nil
}

// Logout stops every timer and removes the stored record.
func (m *Manager) Logout(ctx context.Context) error {
	m.stopTimers()
	m.stateMu.Lock()
	m.epoch++
	err := m.repo.Delete(ctx)
	m.stateMu.Unlock()
	if err != nil {
		return apperrors.Wrapf(err, "logout")
	}
	m.broadcaster.Clear()
	log.Info().Msg("Logged out")
	return nil
}

// Expire ends the session: timers stop, the record is removed and the expiry signal is
// raised. It returns true if this call raised the signal.
func (m *Manager) Expire(reason Reason) bool {
	m.stopTimers()
	m.stateMu.Lock()
	m.epoch++
	err := m.repo.Delete(context.Background())
	m.stateMu.Unlock()
	if err != nil {
		log.Err(err).Msg("Failed to clear credentials on expiry")
	}

	if !m.broadcaster.Expire(reason) {
		return false
	}
	m.metrics.SessionExpired(string(reason))
	log.Warn().Str("reason", string(reason)).Msg("Session expired")
	return true
}

// Acknowledge is the user's confirmation of an expired session. The record is removed
// and the signal lowered so the next Login starts clean.
func (m *Manager) Acknowledge(ctx context.Context) error {
	m.stopTimers()
	m.stateMu.Lock()
	m.epoch++
	err := m.repo.Delete(ctx)
	m.stateMu.Unlock()
	if err != nil {
		return apperrors.Wrapf(err, "acknowledge")
	}
	m.broadcaster.Clear()
	return nil
}

// RecoverUnauthorized obtains fresh credentials after a request sent with usedAccessToken
// was rejected. If another caller already rotated the tokens the current record is
// returned without a network call.
func (m *Manager) RecoverUnauthorized(ctx context.Context, usedAccessToken string) (credentials.Record, error) {
	record, err := m.repo.Load(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("No credentials to refresh")
		m.Expire(ReasonNoRefreshToken)
		return credentials.Record{}, apperrors.ErrNoRefreshToken
	}
	if usedAccessToken != "" && record.AccessToken != usedAccessToken && record.Valid() {
		m.metrics.RefreshAttempt(metrics.SourceUnauthorized, metrics.ResultSkipped)
		return *record, nil
	}
	if !record.CanRefresh() {
		m.Expire(ReasonNoRefreshToken)
		return credentials.Record{}, apperrors.ErrNoRefreshToken
	}
	return m.refresh(ctx, record.RefreshToken, metrics.SourceUnauthorized)
}

// RefreshNow rotates the stored token pair. It is what the proactive scheduler calls.
func (m *Manager) RefreshNow(ctx context.Context) error {
	record, err := m.repo.Load(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoCredentials) {
			return nil
		}
		return apperrors.Wrapf(err, "refresh load")
	}
	if !record.CanRefresh() {
		m.Expire(ReasonNoRefreshToken)
		return apperrors.ErrNoRefreshToken
	}
	_, err = m.refresh(ctx, record.RefreshToken, metrics.SourceProactive)
	return err
}

// refresh joins or starts the single in-flight rotation of refreshToken.
func (m *Manager) refresh(ctx context.Context, refreshToken, source string) (credentials.Record, error) {
	epoch := m.currentEpoch()
	result := m.flight.DoChan(refreshToken, func() (any, error) {
		return m.rotate(context.WithoutCancel(ctx), refreshToken, epoch, source)
	})

	select {
	case <-ctx.Done():
		return credentials.Record{}, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return credentials.Record{}, res.Err
		}
		return res.Val.(credentials.Record), nil
	}
}

func (m *Manager) rotate(ctx context.Context, refreshToken string, epoch uint64, source string) (credentials.Record, error) {
	if current, done, err := m.alreadyRotated(ctx, refreshToken, epoch); done {
		if err == nil {
			m.metrics.RefreshAttempt(source, metrics.ResultSkipped)
			log.Debug().Str("source", source).Msg("Refresh token already rotated, using stored credentials")
		}
		return current, err
	}

	log.Debug().Str("source", source).Msg("Refreshing access token")

	record, err := m.api.Refresh(ctx, refreshToken)
	if err == nil && !record.Valid() {
		err = fmt.Errorf("response is missing a token")
	}
	if err != nil {
		m.metrics.RefreshAttempt(source, metrics.ResultFailure)
		log.Err(err).Str("source", source).Msg("Token refresh failed")
		if m.currentEpoch() == epoch {
			m.Expire(ReasonRefreshFailed)
		}
		return credentials.Record{}, fmt.Errorf("%w: %w: %w", apperrors.ErrSessionExpired, apperrors.ErrRefreshFailed, err)
	}

	m.stateMu.Lock()
	if m.epoch != epoch {
		m.stateMu.Unlock()
		log.Debug().Msg("Discarding refresh that settled after the session ended")
		return credentials.Record{}, apperrors.ErrSessionExpired
	}
	err = m.repo.Save(ctx, record)
	m.stateMu.Unlock()
	if err != nil {
		m.metrics.RefreshAttempt(source, metrics.ResultFailure)
		return credentials.Record{}, apperrors.Wrapf(err, "saving refreshed credentials")
	}

	m.metrics.RefreshAttempt(source, metrics.ResultSuccess)
	log.Info().Str("source", source).Msg("Access token refreshed")

	if err := m.scheduler.Arm(ctx); err != nil {
		log.Err(err).Msg("Failed to re-arm proactive refresh")
	}
	return record, nil
}

// alreadyRotated reports whether refreshToken is no longer the stored one. A caller may
// have read the record just before another flight saved a new pair, so its key can be
// stale by the time its own flight starts. done is true when no network call must be made.
func (m *Manager) alreadyRotated(ctx context.Context, refreshToken string, epoch uint64) (credentials.Record, bool, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.epoch != epoch {
		return credentials.Record{}, true, apperrors.ErrSessionExpired
	}
	stored, err := m.repo.Load(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoCredentials) {
			return credentials.Record{}, true, apperrors.ErrSessionExpired
		}
		// Unreadable store: fall through to the network call with the caller's token.
		return credentials.Record{}, false, nil
	}
	if stored.RefreshToken != refreshToken && stored.Valid() {
		return *stored, true, nil
	}
	return credentials.Record{}, false, nil
}

// Token returns the stored access token. The expiry is zero when the token cannot be
// decoded.
func (m *Manager) Token() (*oauth2.Token, error) {
	record, err := m.repo.Load(context.Background())
	if err != nil {
		return nil, err
	}
	exp, _ := token.ExpiresAt(record.AccessToken)
	return record.OAuth2Token(exp), nil
}

// Status reports the stored session and the expiry signal.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	var status Status
	if event, expired := m.broadcaster.Last(); expired {
		status.Expired = true
		status.Reason = event.Reason
	}
	status.NextRefresh = m.scheduler.Next()

	record, err := m.repo.Load(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoCredentials) {
			return status, nil
		}
		return status, err
	}
	status.LoggedIn = true
	status.CanRefresh = record.CanRefresh()
	status.ExpiresAt, _ = token.ExpiresAt(record.AccessToken)
	return status, nil
}
