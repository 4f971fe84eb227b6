package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-rag-admin/internal/config"
	"github.com/jrsteele09/go-rag-admin/internal/fakebackend"
	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running dev backend")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Dev backend stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New("")
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName() + " dev")

	backend, err := fakebackend.New(backendOptions(c)...)
	if err != nil {
		return err
	}
	server := &http.Server{Addr: c.GetPort(), Handler: backend}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(server) }()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// backendOptions seeds a super-admin plus a tenant admin and user so every CLI command
// has an account to try it with.
func backendOptions(c config.Config) []fakebackend.Option {
	options := []fakebackend.Option{
		fakebackend.WithEnv(c.GetEnv()),
		fakebackend.WithUser(
			config.GetEnv("DEV_SUPERADMIN_USERNAME", fakebackend.DefaultSuperAdminUsername),
			config.GetEnv("DEV_SUPERADMIN_PASSWORD", fakebackend.DefaultSuperAdminPassword),
			users.RoleSuperAdmin, ""),
		fakebackend.WithUser("admin@demo.local", "admin-password", users.RoleAdmin, "demo"),
		fakebackend.WithUser("user@demo.local", "user-password", users.RoleUser, "demo"),
	}
	if secret := config.GetEnv("DEV_JWT_SECRET", ""); secret != "" {
		options = append(options, fakebackend.WithSecret(secret))
	}
	if raw := config.GetEnv("DEV_ACCESS_TOKEN_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("Ignoring invalid DEV_ACCESS_TOKEN_TTL")
		} else {
			options = append(options, fakebackend.WithAccessTokenTTL(ttl))
		}
	}
	return options
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Dev backend listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
