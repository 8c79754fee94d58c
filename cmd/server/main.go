package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/user/tenant-gateway/internal/adapter/api"
	"github.com/user/tenant-gateway/internal/adapter/api/middleware"
	"github.com/user/tenant-gateway/internal/adapter/auth"
	"github.com/user/tenant-gateway/internal/adapter/metrics"
	"github.com/user/tenant-gateway/internal/adapter/repository/postgres"
	"github.com/user/tenant-gateway/internal/adapter/repository/rediscache"
	"github.com/user/tenant-gateway/internal/adapter/repository/spool"
	"github.com/user/tenant-gateway/internal/pkg/config"
	"github.com/user/tenant-gateway/internal/pkg/logger"
	"github.com/user/tenant-gateway/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

const auditReplayInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	slog.SetDefault(log)

	m := metrics.NewGatewayMetrics()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.IsDevelopment() {
		// Production schemas are migrated out of band and assumed applied.
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("failed to apply development schema", "error", err)
			os.Exit(1)
		}
		log.Info("development schema applied")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, tenant resolution will fall through to postgres", "error", err)
	}
	defer redisClient.Close()

	// --- Repositories ---
	cache := rediscache.New(redisClient, cfg.RedisKeyPrefix, log)
	tenantRepo := rediscache.NewTenantCache(
		postgres.NewTenantRepository(db), cache, cfg.TenantCacheTTL, log, m)
	demoRepo := postgres.NewDemoRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	auditSpool, err := spool.NewAuditSpool(cfg.AuditSpoolPath, log)
	if err != nil {
		log.Error("failed to open audit spool", "error", err)
		os.Exit(1)
	}
	defer auditSpool.Close()

	// --- Use Cases ---
	resolver := usecase.NewTenantResolver(tenantRepo, cfg.MultitenancyEnabled, log)
	demoService := usecase.NewDemoService(demoRepo, log)
	tenantAdmin := usecase.NewTenantAdminService(tenantRepo, log)
	auditService := usecase.NewAuditService(auditRepo, auditSpool, log, m)
	go auditService.StartReplayLoop(ctx, auditReplayInterval)

	// --- Auth Gate ---
	gate, schemaCfg := buildAuthGate(ctx, cfg, log)

	// --- Admin Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.Handle("/", api.NewAdminRouter(tenantAdmin, log, cfg.IsDevelopment()))

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- API Server ---
	router := api.NewRouter(api.RouterDeps{
		Cfg:      cfg,
		Logger:   log,
		Metrics:  m,
		Gate:     gate,
		Resolver: resolver,
		Demos:    demoService,
		Audit:    auditService,
		Schema:   schemaCfg,
	})

	apiServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting api server", "addr", apiServer.Addr, "path_base", cfg.PathBase)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("api server shutdown failed", "error", err)
	}

	log.Info("servers shut down gracefully")
}

// buildAuthGate wires the token validator. A configured shared secret
// selects HS256; otherwise signing keys are discovered from the issuer.
func buildAuthGate(ctx context.Context, cfg *config.Config, log *slog.Logger) (middleware.TokenAuthenticator, api.SchemaConfig) {
	schemaCfg := api.SchemaConfig{
		Title:         "Tenant Gateway API",
		Version:       "v1",
		PathBase:      cfg.PathBase,
		Issuer:        cfg.AuthIssuer,
		RequiredScope: cfg.AuthRequiredScope,
	}

	var keys auth.KeyProvider
	if cfg.AuthSecret != "" {
		keys = auth.NewStaticKeyProvider(cfg.AuthSecret)
	} else {
		remote := auth.NewRemoteKeyProvider(cfg.AuthIssuer, cfg.SigningKeyTTL, log)
		if tokenURL, authURL, err := remote.Discovery(ctx); err != nil {
			log.Warn("issuer discovery failed at startup, will retry lazily", "error", err)
		} else {
			schemaCfg.TokenURL = tokenURL
			schemaCfg.AuthorizationURL = authURL
		}
		keys = remote
	}

	gate := auth.NewGate(cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthClockSkew,
		auth.DefaultClaimMapping(), keys, log)
	return gate, schemaCfg
}
