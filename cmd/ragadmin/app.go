package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-rag-admin/apiclient"
	"github.com/jrsteele09/go-rag-admin/credentials"
	"github.com/jrsteele09/go-rag-admin/credentials/filestore"
	"github.com/jrsteele09/go-rag-admin/credentials/sqlitestore"
	"github.com/jrsteele09/go-rag-admin/internal/config"
	"github.com/jrsteele09/go-rag-admin/internal/metrics"
	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/jrsteele09/go-rag-admin/tenants"
	"github.com/jrsteele09/go-rag-admin/token"
	"github.com/jrsteele09/go-rag-admin/training"
	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app wires the credential store, session manager and API services from configuration.
type app struct {
	cfg      config.Config
	store    credentials.Repo
	closers  []io.Closer
	registry *prometheus.Registry

	manager   *sessions.Manager
	client    *apiclient.Client
	companies *tenants.Service
	users     *users.Service
	training  *training.Service
}

func newApp(configPath, logLevel string) (*app, error) {
	cfg, err := config.New(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.GetLogLevel()
	}
	setupLogging(logLevel)

	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	if err := a.openStore(); err != nil {
		return nil, err
	}
	recorder, err := metrics.New(a.registry)
	if err != nil {
		a.Close()
		return nil, err
	}

	base := cfg.GetAPIBase()
	clientOptions := []apiclient.Option{
		apiclient.WithTimeout(cfg.GetHTTPTimeout()),
		apiclient.WithMetrics(recorder),
		apiclient.WithHeader("User-Agent", appName+"/"+Version),
	}
	public := apiclient.New(base, clientOptions...)
	a.manager = sessions.New(a.store, apiclient.NewAuthAPI(public),
		sessions.WithLeadTime(cfg.GetRefreshLeadTime()),
		sessions.WithInactivityLimit(cfg.GetInactivityLimit()),
		sessions.WithMetrics(recorder),
	)
	a.client = apiclient.NewAuthenticated(base, a.store, a.manager, clientOptions...)
	a.companies = tenants.NewService(a.client)
	a.users = users.NewService(a.client)
	a.training = training.NewService(a.client)

	log.Debug().Str("api_base", base).Str("store", cfg.GetStoreDriver()).Msg("Client configured")
	return a, nil
}

func (a *app) openStore() error {
	path := a.cfg.GetStorePath()
	switch a.cfg.GetStoreDriver() {
	case config.StoreDriverSQLite:
		store, err := sqlitestore.New(path)
		if err != nil {
			return fmt.Errorf("opening credential store: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store)
	default:
		store, err := filestore.New(path, filestore.WithPassphrase(a.cfg.GetStorePassphrase()))
		if err != nil {
			return fmt.Errorf("opening credential store: %w", err)
		}
		a.store = store
	}
	return nil
}

func (a *app) Close() {
	if a.manager != nil {
		a.manager.Close()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Msg("Closing credential store")
		}
	}
}

// role reads the role claim of the stored access token without contacting the backend.
func (a *app) role(ctx context.Context) (users.Role, error) {
	record, err := a.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("not logged in, run `%s login`", appName)
	}
	info, err := token.Inspect(record.AccessToken)
	if err != nil || len(info.Roles) == 0 {
		return "", fmt.Errorf("stored token carries no role: %w", err)
	}
	return users.Role(info.Roles[0]), nil
}

// requireRole stops a command early when the stored token's role cannot use it. The
// backend enforces the same rule; this only gives a clearer message.
func (a *app) requireRole(ctx context.Context, allowed func(users.Role) bool, what string) error {
	role, err := a.role(ctx)
	if err != nil {
		return err
	}
	if !allowed(role) {
		return fmt.Errorf("%s is not available to the %s role", what, role)
	}
	return nil
}

// writeMetrics prints the counters gathered from the app's registry as name{labels} value.
func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", family.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "no metrics recorded")
		return err
	}
	sort.Strings(lines)
	_, err = fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
