package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslib/library-console/internal/api"
	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
	"github.com/campuslib/library-console/internal/core/service"
	"github.com/campuslib/library-console/internal/infrastructure/audit"
	"github.com/campuslib/library-console/internal/infrastructure/backend"
	mongodb "github.com/campuslib/library-console/internal/infrastructure/db/mongo"
	redisdb "github.com/campuslib/library-console/internal/infrastructure/db/redis"
	"github.com/campuslib/library-console/internal/infrastructure/store"
	"github.com/campuslib/library-console/internal/pkg/config"
	"github.com/campuslib/library-console/internal/pkg/metrics"
	"github.com/campuslib/library-console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "library-console",
	})

	creds, closeStore, err := openCredentialStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder, closeAudit, err := openAuditRecorder(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	dispatcher := audit.NewDispatcher(0, recorder, log)
	// Workers outlive the signal so the deferred Close can flush the last events.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	client := backend.New(cfg.API.BaseURL, cfg.API.Timeout)
	validator := service.NewSessionValidator(creds, client, log)
	provider := service.NewAuthProvider(creds, validator, log,
		service.WithEventSink(dispatcher),
		service.WithValidationTimeout(cfg.API.Timeout),
	)
	login := service.NewLoginService(client, provider, log)

	e := api.NewRouter(api.Deps{
		Sessions:       provider,
		Login:          login,
		Store:          creds,
		Log:            logger.For("http"),
		LoginRateLimit: cfg.LoginRateLimit,
	})

	states, unsubscribe := provider.Subscribe()
	defer unsubscribe()
	go trackSession(states, log)

	// Navigations answer "loading" until this resolves.
	go provider.Initialize(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.API.BaseURL).Msg("library console listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// trackSession mirrors provider transitions into the session_phase gauge.
func trackSession(states <-chan domain.AuthState, log zerolog.Logger) {
	for st := range states {
		metrics.SetSessionPhase(string(st.Phase()))
		log.Debug().Str("phase", string(st.Phase())).Msg("session phase")
	}
}

func openCredentialStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, func(), error) {
	switch cfg.Credentials.Backend {
	case config.BackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("credential store: redis")
		return store.NewRedisStore(rdb, cfg.Credentials.Namespace), func() { _ = rdb.Close() }, nil
	case config.BackendMemory:
		log.Warn().Msg("credential store: memory, sessions will not survive a restart")
		return store.NewMemoryStore(), func() {}, nil
	default:
		s, err := store.OpenSQLite(ctx, cfg.Credentials.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Credentials.Path).Msg("credential store: sqlite")
		return s, func() { _ = s.Close() }, nil
	}
}

func openAuditRecorder(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.SessionEventRecorder, func(), error) {
	if cfg.Mongo.URI == "" {
		return audit.NewLogRecorder(log), func() {}, nil
	}
	conn, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, err
	}
	repo := mongodb.NewSessionEventRepository(conn.DB)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = conn.Close(context.WithoutCancel(ctx))
		return nil, nil, err
	}
	log.Info().Str("db", cfg.Mongo.Database).Msg("session audit: mongo")
	return repo, func() { _ = conn.Close(context.Background()) }, nil
}
