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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/prism-crm/internal/api/router"
	"github.com/wolfman30/prism-crm/internal/app/bootstrap"
	"github.com/wolfman30/prism-crm/internal/auth"
	"github.com/wolfman30/prism-crm/internal/bookings"
	appconfig "github.com/wolfman30/prism-crm/internal/config"
	"github.com/wolfman30/prism-crm/internal/database"
	"github.com/wolfman30/prism-crm/internal/health"
	httpmiddleware "github.com/wolfman30/prism-crm/internal/http/middleware"
	"github.com/wolfman30/prism-crm/internal/leads"
	"github.com/wolfman30/prism-crm/internal/observability/metrics"
	"github.com/wolfman30/prism-crm/internal/rentsync"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

// storage bundles the stores one process uses. pool is nil when running on
// the in-memory driver.
type storage struct {
	leads    leads.Repository
	bookings bookings.Store
	pool     *pgxpool.Pool
}

func (s *storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *storage) pinger() health.Pinger {
	if s.pool == nil {
		return nil
	}
	return health.PingFunc(s.pool.Ping)
}

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting prism-crm API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage", cfg.StorageDriver,
	)

	ctx := context.Background()
	store, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	metricsHandler, ingestionMetrics := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	archiveStore := bootstrap.BuildArchiveStore(ctx, cfg, logger)

	serviceOpts := []bookings.ServiceOption{bookings.WithMetrics(ingestionMetrics)}
	if cache := bootstrap.BuildSlotCache(redisClient, cfg); cache != nil {
		serviceOpts = append(serviceOpts, bookings.WithSlotCache(cache))
		logger.Info("slot cache enabled", "ttl", cfg.SlotCacheTTL.String())
	}
	bookingService := bookings.NewService(store.bookings, store.leads, logger, serviceOpts...)

	webhookOpts := []rentsync.HandlerOption{rentsync.WithMetrics(ingestionMetrics)}
	if archiveStore != nil {
		webhookOpts = append(webhookOpts, rentsync.WithArchive(archiveStore, cfg.ArchiveAllWebhooks))
	}

	loginLimiter := httpmiddleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginRateBurst)
	defer loginLimiter.Close()

	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, dashboard endpoints are unauthenticated")
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		HealthHandler:       health.NewHandler(store.pinger(), logger),
		AuthHandler:         auth.NewHandler(auth.NewFileUserStore(cfg.UsersFile), auth.NewTokenIssuer(cfg.AuthJWTSecret, cfg.AuthTokenTTL), logger),
		LeadsHandler:        leads.NewHandler(store.leads, logger),
		BookingsHandler:     bookings.NewHandler(bookingService, logger),
		RentSyncHandler:     rentsync.NewHandler(store.leads, logger, webhookOpts...),
		MetricsHandler:      metricsHandler,
		DashboardAuthSecret: cfg.AuthJWTSecret,
		LoginLimiter:        loginLimiter,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupStorage opens Postgres (migrating first when configured) or builds
// the in-memory stores.
func setupStorage(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*storage, error) {
	if cfg.UseMemoryStore() {
		logger.Warn("using in-memory storage, data is lost on restart")
		repo := leads.NewInMemoryRepository()
		return &storage{leads: repo, bookings: bookings.NewMemoryStore(repo)}, nil
	}

	if cfg.MigrateOnStart {
		if err := database.MigrateUp(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres", "max_conns", cfg.DBMaxConns)

	return &storage{
		leads:    leads.NewPostgresRepository(pool),
		bookings: bookings.NewPostgresStore(pool),
		pool:     pool,
	}, nil
}

// setupMetrics registers ingestion metrics on a dedicated registry together
// with the Go and process collectors.
func setupMetrics() (http.Handler, *metrics.IngestionMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewIngestionMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m
}
