package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbox38/cignite/app/api"
	"github.com/kbox38/cignite/app/cache"
	"github.com/kbox38/cignite/app/cfg"
	"github.com/kbox38/cignite/app/database"
	"github.com/kbox38/cignite/app/domaincfg"
	"github.com/kbox38/cignite/app/linkedin"
	"github.com/kbox38/cignite/app/post"
	"github.com/kbox38/cignite/app/suggest"
	postsync "github.com/kbox38/cignite/app/sync"
	"github.com/kbox38/cignite/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Cignite server", "version", appCfg.Version)

	// Database connection and migrations
	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	// Optional Redis cache; the service runs without it.
	redisCache, err := cache.NewCache(appCfg.RedisAddr)
	if err != nil {
		slog.Warn("Redis unavailable, continuing without short-TTL cache", "error", err)
		redisCache = nil
	}

	// Snapshot domain configurations
	domainConfigs, err := domaincfg.NewLoader(appCfg.DomainsDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load domain configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded domain configurations", "count", len(domainConfigs))

	// Repositories
	userRepo := database.NewUserRepository(db)
	cacheRepo := database.NewPostCacheRepository(db)
	partnerRepo := database.NewPartnerRepository(db)

	// Provider client and OAuth
	client := linkedin.NewClient(appCfg.LinkedInAPIBase, appCfg.UserAgent)
	oauthConf := linkedin.NewOAuthConfig(appCfg.LinkedInClientID, appCfg.LinkedInClientSecret,
		appCfg.LinkedInRedirectURL)

	// Normalizer with per-domain alias overrides
	normalizer := post.NewNormalizer(nil)
	syncThreshold := time.Duration(appCfg.SyncThresholdHours) * time.Hour
	maxPosts := 0
	if dc, ok := domainConfigs[linkedin.DomainMemberShareInfo]; ok {
		dc.ApplyAliases(normalizer)
		syncThreshold = dc.Settings.GetStalenessThreshold(syncThreshold)
		maxPosts = dc.Settings.MaxPosts
	}

	orchestrator := postsync.NewOrchestrator(client, cacheRepo, normalizer,
		linkedin.DomainMemberShareInfo, syncThreshold, maxPosts, nil)

	generator := suggest.NewGenerator(appCfg.LLMAPIBase, appCfg.LLMAPIKey, appCfg.LLMModel, redisCache)

	// Background scheduler
	scheduler := tasks.NewScheduler(userRepo, orchestrator, client, redisCache)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount,
		"interval_seconds", appCfg.SchedulerInterval)

	// HTTP server
	handler := api.NewHandler(userRepo, cacheRepo, partnerRepo, orchestrator, client,
		generator, oauthConf, redisCache, appCfg.JWTSecret, appCfg.DMAThresholdMinutes,
		appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
