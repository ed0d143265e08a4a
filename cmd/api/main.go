package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profile-mapper-backend/config"
	_ "profile-mapper-backend/docs" // Important for Swagger
	v1 "profile-mapper-backend/internal/delivery/http/v1"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/repository/memory"
	"profile-mapper-backend/internal/repository/postgres"
	redisrepo "profile-mapper-backend/internal/repository/redis"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/auth"
	"profile-mapper-backend/pkg/database"
	"profile-mapper-backend/pkg/logger"
	"profile-mapper-backend/pkg/redis"
	"profile-mapper-backend/pkg/security"

	"github.com/jackc/pgx/v5/pgxpool"
)

// @title           Profile Mapper API
// @version         1.0
// @description     Browsable directory of people profiles with search, a map view and an admin area.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting profile mapper backend", "port", cfg.Port, "env", cfg.Environment)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Profile source
	var (
		dbPool *pgxpool.Pool
		source domain.ProfileSource
	)
	if cfg.ProfileSource == "postgres" {
		dbPool, err = database.NewPostgresConnection(rootCtx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		source = postgres.NewProfileSource(dbPool)
	} else {
		source = memory.NewSeedSource(memory.SampleProfiles(), cfg.SeedLatency)
	}

	// 4. Redis (optional)
	var tokens domain.MapTokenStore
	if cfg.RedisURL != "" {
		if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
			logger.Log.Warn("Redis unavailable, using in-memory fallback", "error", err)
		}
	}
	if client := redis.Client(); client != nil {
		tokens = redisrepo.NewMapTokenStore(client, cfg.MapTokenTTL)
		defer redis.Close()
	} else {
		tokens = memory.NewMapTokenStore()
	}

	// 5. Identity provider
	identity, err := auth.NewFromConfig(cfg)
	if err != nil {
		logger.Log.Error("Failed to configure identity provider", "error", err)
		os.Exit(1)
	}

	// 6. Setup UseCases
	catalog := usecase.NewCatalog(source, memory.NewDelayedCommitter(cfg.CommitLatency))
	go func() {
		if err := catalog.Load(rootCtx); err != nil {
			logger.Log.Warn("Initial profile load did not complete", "error", err)
		}
	}()

	sessions := usecase.NewSessionRegistry(catalog, identity.Provider, cfg.SessionIdleTTL)
	if err := sessions.Start(); err != nil {
		os.Exit(1)
	}

	if cfg.AdminPolicy == "authenticated" {
		logger.Log.Warn("Admin policy admits every signed-in user; set ADMIN_EMAILS to restrict the admin area")
	}
	guard := usecase.NewRouteGuard(usecase.NewAdminPolicy(cfg.AdminPolicy, cfg.AdminEmails))

	audit := security.NewAuditLogger("profile-mapper-backend", cfg.Environment)
	defer func() { _ = audit.Sync() }()
	tracker := security.NewLoginTracker(security.LoginTrackerConfig{
		MaxAttempts:   cfg.LoginMaxAttempts,
		AttemptWindow: cfg.LoginBlockWindow,
		BlockDuration: cfg.LoginBlockWindow,
		UseIPTracking: true,
	}, redis.Client(), audit)
	if !tracker.Enabled() {
		logger.Log.Warn("Sign-in lockout disabled: Redis not configured")
	}

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		Sessions:        sessions,
		Guard:           guard,
		Verifier:        identity.Verifier,
		AdminUC:         usecase.NewAdminUsecase(),
		MapUC:           usecase.NewMapUsecase(tokens),
		HealthUC:        usecase.NewHealthUsecase(catalog, dbPool, redis.Client()),
		Redis:           redis.Client(),
		LoginTracker:    tracker,
		Audit:           audit,
		CORSOrigins:     cfg.CORSOrigins,
		Production:      cfg.IsProduction(),
		EnableCSRF:      cfg.CSRFEnabled,
		SessionMaxAge:   int(cfg.SessionIdleTTL.Seconds()),
		RateLimitWindow: time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		AuthRateLimit:   cfg.RateLimitAuthThreshold,
		GlobalRateLimit: cfg.RateLimitGlobalThreshold,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}
	stop()
	sessions.Stop(ctx)

	logger.Log.Info("Server exiting")
}
