package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/myao0007/shetalks/internal/config"
	"github.com/myao0007/shetalks/internal/database"
	"github.com/myao0007/shetalks/internal/handler"
	"github.com/myao0007/shetalks/internal/lock"
	"github.com/myao0007/shetalks/internal/moderation"
	"github.com/myao0007/shetalks/internal/repository"
	"github.com/myao0007/shetalks/internal/service"
)

// runServer wires all layers and serves until SIGINT or SIGTERM.
func runServer(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Storage ───────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, migrate, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// ── 2. Booking locks ─────────────────────────────────────────────────
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rl := lock.NewRedisLocker(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rl.Ping(ctx); err != nil {
			_ = rl.Close()
			return fmt.Errorf("redis: %w", err)
		}
		defer rl.Close()
		locker = rl
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis booking locks")
	}

	// ── 3. Moderation ────────────────────────────────────────────────────
	var (
		primary moderation.Analyzer
		gemini  *moderation.GeminiAnalyzer
	)
	if cfg.Gemini.APIKey != "" {
		gemini, err = moderation.NewGeminiAnalyzer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			log.Warn().Err(err).Msg("gemini unavailable, moderation uses keyword analysis only")
		} else {
			defer gemini.Close()
			primary = gemini
			log.Info().Str("model", cfg.Gemini.Model).Msg("gemini moderation enabled")
		}
	}

	// ── 4. Wire up layers ────────────────────────────────────────────────
	h := handler.NewHandler(
		service.NewEventService(store),
		service.NewBookingService(store, locker, cfg.LockTTL, log),
		service.NewTreeHoleService(moderation.NewModerator(primary, log), store, log),
		gemini,
		log,
	)

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(h, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore returns the configured repository.Store.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) (repository.Store, error) {
	if cfg.Store != config.StorePostgres {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("schema applied")
	}
	log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("connected to postgres")
	return repository.NewPostgresStore(pool), nil
}
