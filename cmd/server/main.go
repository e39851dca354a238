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
	"github.com/jrsteele09/go-session-server/auth"
	"github.com/jrsteele09/go-session-server/internal/config"
	"github.com/jrsteele09/go-session-server/internal/metrics"
	"github.com/jrsteele09/go-session-server/internal/storage"
	"github.com/jrsteele09/go-session-server/server"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/users/password"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %s\n", err)
		os.Exit(1)
	}

	c := config.New()
	setupLogging(c)

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	if err := config.Validate(c); err != nil {
		return err
	}

	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.New(ctx, c)
	if err != nil {
		return fmt.Errorf("storage.New: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	if err := seedUsers(ctx, c, store); err != nil {
		return err
	}

	codec, err := token.NewCodec(token.Config{
		SigningKey: []byte(c.GetSigningKey()),
		Issuer:     c.GetIssuer(),
		AccessTTL:  c.GetAccessTokenTTL(),
		RefreshTTL: c.GetRefreshTokenTTL(),
	})
	if err != nil {
		return fmt.Errorf("token.NewCodec: %w", err)
	}

	m := metrics.New()
	authService, err := auth.NewService(store.Users, codec, auth.WithMetrics(m), auth.WithLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	handler, err := server.New(c, authService, m)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func seedUsers(ctx context.Context, c config.Config, store *storage.Store) error {
	var seeds []storage.SeedUser
	if file := c.GetSeedUsersFile(); file != "" {
		loaded, err := storage.LoadSeedFile(file)
		if err != nil {
			return fmt.Errorf("storage.LoadSeedFile: %w", err)
		}
		seeds = loaded
	} else if c.GetEnv() == config.EnvDev {
		seeds = storage.DevSeedUsers
	}
	if len(seeds) == 0 {
		return nil
	}

	hasher, err := password.NewHasher(c.GetPasswordHasher())
	if err != nil {
		return fmt.Errorf("password.NewHasher: %w", err)
	}
	added, err := storage.Seed(ctx, store.Users, hasher, seeds)
	if err != nil {
		return fmt.Errorf("storage.Seed: %w", err)
	}
	log.Info().Int("added", added).Int("seeds", len(seeds)).Str("driver", store.Driver).Msg("Seeded users")
	return nil
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.GetEnv() == config.EnvDev {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
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
