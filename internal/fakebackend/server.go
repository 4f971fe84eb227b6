package fakebackend

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/jrsteele09/go-rag-admin/tenants"
	tenantrepofakes "github.com/jrsteele09/go-rag-admin/tenants/repofakes"
	"github.com/jrsteele09/go-rag-admin/users"
	fakeuserrepo "github.com/jrsteele09/go-rag-admin/users/repofake"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	DefaultSuperAdminUsername = "superadmin@rag.local"
	DefaultSuperAdminPassword = "superadmin-password"
)

// Server is an in-memory implementation of the RAG admin backend contract: form login,
// rotating refresh tokens, bearer protected admin endpoints and a canned query answer.
type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	nowFunc func() time.Time

	tokens    *tokenIssuer
	revoked   *revokedTokens
	companies tenants.Repo
	accounts  users.UserRepo
	library   *library

	seeds        []seedUser
	secret       []byte
	accessTTL    time.Duration
	refreshDelay atomic.Int64

	loginCalls   atomic.Int32
	refreshCalls atomic.Int32

	failMu   sync.Mutex
	failures map[string][]int // path to statuses returned for the next requests
}

type seedUser struct {
	username, password string
	role               users.Role
	tenantCode         string
}

type Option func(*Server)

// WithUser seeds an account. The username is used as the email; a tenant code is
// required for admin and user roles.
func WithUser(username, password string, role users.Role, tenantCode string) Option {
	return func(s *Server) {
		s.seeds = append(s.seeds, seedUser{username: username, password: password, role: role, tenantCode: tenantCode})
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

// WithEnv enables route and request logging when env is "DEV".
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func New(options ...Option) (*Server, error) {
	s := &Server{
		mux:       http.NewServeMux(),
		nowFunc:   time.Now,
		revoked:   newRevokedTokens(),
		companies: tenantrepofakes.NewFakeTenantRepo(),
		accounts:  fakeuserrepo.NewFakeUserRepo(),
		library:   newLibrary(),
		secret:    []byte("fake-backend-signing-secret"),
		accessTTL: DefaultAccessTokenTTL,
		failures:  make(map[string][]int),
	}
	for _, opt := range options {
		opt(s)
	}
	s.tokens = newTokenIssuer(s.secret, s.accessTTL, DefaultRefreshTokenTTL, s.nowFunc)

	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("[fakebackend New] failed to seed accounts: %w", err)
	}
	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) seed() error {
	seeds := s.seeds
	if len(seeds) == 0 {
		seeds = []seedUser{{username: DefaultSuperAdminUsername, password: DefaultSuperAdminPassword, role: users.RoleSuperAdmin}}
	}
	for _, seed := range seeds {
		if seed.tenantCode != "" {
			if _, err := s.companies.Get(seed.tenantCode); err != nil {
				if err := s.companies.Upsert(&tenants.Company{Name: seed.tenantCode, TenantCode: seed.tenantCode, SlugURL: seed.tenantCode}); err != nil {
					return err
				}
			}
		}
		hash, err := users.HashPassword(seed.password)
		if err != nil {
			return err
		}
		account := &users.Account{
			User:         users.User{DisplayName: seed.username, UserCode: seed.username, Role: seed.role},
			TenantCode:   seed.tenantCode,
			Email:        seed.username,
			PasswordHash: hash,
		}
		if err := s.accounts.Upsert(account); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// LoginCalls returns how many login requests were received.
func (s *Server) LoginCalls() int {
	return int(s.loginCalls.Load())
}

// RefreshCalls returns how many refresh requests were received.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// ExpireAccessTokens revokes every access token issued so far, as if they had expired.
func (s *Server) ExpireAccessTokens() {
	for jti, exp := range s.tokens.issuedAccess() {
		s.revoked.Add(jti, exp)
	}
}

// RevokeRefreshTokens invalidates every outstanding refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.tokens.revokeAllRefresh()
}

// SetRefreshDelay makes the refresh endpoint wait before answering.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.refreshDelay.Store(int64(d))
}

// FailPath makes the next len(statuses) requests to path answer with those statuses.
func (s *Server) FailPath(path string, statuses ...int) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

func (s *Server) nextFailure(path string) (int, bool) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	queue := s.failures[path]
	if len(queue) == 0 {
		return 0, false
	}
	s.failures[path] = queue[1:]
	return queue[0], true
}

var methodColors = map[string]*color.Color{
	http.MethodGet:    color.New(color.FgGreen),
	http.MethodPost:   color.New(color.FgBlue),
	http.MethodPut:    color.New(color.FgCyan),
	http.MethodDelete: color.New(color.FgYellow),
	http.MethodPatch:  color.New(color.FgMagenta),
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	c, ok := methodColors[method]
	if !ok {
		c = color.New(color.FgHiBlack)
	}
	log.Info().Msgf("[%s] %s", c.Sprint(paddedMethod), path)
}
