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

	"georesponse_backend/internal/auth"
	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/events"
	"georesponse_backend/internal/facilities"
	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/geocoding"
	apphttp "georesponse_backend/internal/http"
	"georesponse_backend/internal/http/router"
	"georesponse_backend/internal/search"
	"georesponse_backend/internal/search/orchestrator"
	"georesponse_backend/platform/cache"
	"georesponse_backend/platform/config"
	"georesponse_backend/platform/db"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	repo, health, closeDB := openRegistry(ctx, cfg, log)
	if closeDB != nil {
		defer closeDB()
	}

	store, closeCache := openCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	directoryClient := directory.New(cfg, store, log)
	directoryClient.RegisterHandlers(eventBus)

	geocoder := geocoding.New(cfg, store, log)
	if err := geocoder.Initialize(ctx, cfg.GetGoogleMapsAPIKey()); err != nil {
		log.Warn("google places unavailable; serving suggestions from nominatim", "error", err)
	}

	regions, err := geocoding.OpenRegionResolver(cfg)
	if err != nil {
		log.Warn("failed to open geoip database; region hints disabled", "error", err, "path", cfg.GetGeoIPDBPath())
		regions = nil
	}
	defer regions.Close()

	settings := orchestrator.Settings{
		Debounce:       cfg.GetSearchDebounce(),
		NearbyRadiusKm: cfg.GetSearchNearbyRadiusKm(),
		NearbyLimit:    cfg.GetSearchNearbyLimit(),
		ClosestLimit:   cfg.GetSearchClosestLimit(),
		Region:         geocoder.DefaultRegion(),
	}
	registry := orchestrator.NewRegistry(directoryClient, geocoder, settings, cfg.GetSearchSessionTTL(), log)
	defer registry.Close()

	authModule := auth.NewModule(cfg, eventBus, val, log)
	facilitiesModule, err := facilities.NewModule(repo, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize facilities module", "error", err)
		panic("failed to initialize facilities module: " + err.Error())
	}
	geocodingModule := geocoding.NewModule(geocoder, regions, val)
	searchModule, err := search.NewModule(registry, directoryClient, regions, settings, val, log)
	if err != nil {
		log.Error("failed to initialize search module", "error", err)
		panic("failed to initialize search module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			facilitiesModule,
			geocodingModule,
			searchModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// openRegistry connects the facility registry to PostgreSQL when
// DATABASE_URL is set and falls back to an in-memory registry otherwise.
func openRegistry(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Repository, apphttp.HealthChecker, func()) {
	if cfg.GetDatabaseURL() == "" {
		log.Warn("DATABASE_URL not configured; facility registry is in-memory")
		return repository.NewMemory(), nil, nil
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	applied, err := db.RunMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete", "applied", applied)

	return repository.New(pool, log), pool, pool.Close
}

func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (*cache.Store, func()) {
	if !cfg.IsCacheEnabled() {
		log.Warn("REDIS_URL not configured; upstream responses are not cached")
		return nil, nil
	}

	var rdb *redis.Client
	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		c, err := cache.Open(ctx, cfg)
		if err != nil {
			return err
		}
		rdb = c
		return nil
	}); err != nil {
		log.Warn("redis unavailable; upstream responses are not cached", "error", err)
		return nil, nil
	}

	return cache.New(rdb, "georesponse:"), func() {
		_ = rdb.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
