package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"honeytrap-lab/internal/api"
	"honeytrap-lab/internal/api/handlers"
	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/domain/services/ai"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/internal/infrastructure/database/repository"
	"honeytrap-lab/internal/streaming"
	"honeytrap-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Honeytrap Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure (all optional)
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		}
	}
	defer func() {
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	var db *database.PostgresDB
	var reports *repository.ReportRepository
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without report archive")
		} else {
			reports = repository.NewReportRepository(db.Pool())
			if err := reports.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to ensure report schema")
			}
		}
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event streaming")
		}
	}
	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// Completion callback dispatcher
	var dispatcher *services.CallbackDispatcher
	var sink services.CompletionSink
	if cfg.Callback.Enabled && cfg.Callback.URL != "" {
		dispatcher = services.NewCallbackDispatcher(services.CallbackDispatcherConfig{
			URL:        cfg.Callback.URL,
			AuthHeader: cfg.Callback.AuthHeader,
			Workers:    cfg.Callback.Workers,
			MaxRetries: cfg.Callback.MaxRetries,
			Timeout:    cfg.Callback.Timeout,
		}, log)
		dispatcher.Start()
		defer dispatcher.Stop()
		sink = dispatcher
		log.Info().Str("url", cfg.Callback.URL).Msg("completion callback enabled")
	} else {
		log.Warn().Msg("completion callback disabled, final results will only be logged")
	}

	// Session store with finalize hook: publish the completion event and
	// archive the final report off the request path.
	store := services.NewSessionStore(services.SessionStoreConfig{
		Timeout:         cfg.Session.Timeout,
		MaxMessages:     cfg.Session.MaxMessages,
		CleanupInterval: cfg.Session.CleanupInterval,
	}, log, sink)
	store.OnFinalize(func(session *models.Session) {
		eventBus.SessionCompleted(session)

		archiveCtx, archiveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer archiveCancel()

		if reports != nil {
			if _, err := reports.Save(archiveCtx, session); err != nil {
				log.Error().Err(err).Str("session_id", session.ID).Msg("failed to archive session report")
			}
		}
		if redisCache != nil {
			if err := redisCache.CacheFinalReport(archiveCtx, session.ID, session.FinalPayload(), 24*time.Hour); err != nil {
				log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to cache final report")
			}
		}
	})
	store.StartJanitor()
	defer store.Stop()

	// LLM providers in fallback order
	providers := []ai.Provider{
		ai.NewGeminiProvider(cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.Model),
		ai.NewGroqProvider(cfg.Providers.Groq.APIKey, cfg.Providers.Groq.Model),
		ai.NewCohereProvider(cfg.Providers.Cohere.APIKey, cfg.Providers.Cohere.Model),
	}
	orchestrator := ai.NewOrchestrator(log, cfg.Providers.Timeout, providers...)
	agent := ai.NewAgent(log, orchestrator)

	// Core engagement pipeline
	detector := services.NewDetector(log, cfg.Detection.Threshold)
	extractor := services.NewExtractor(log)
	engagement := services.NewEngagementService(store, detector, extractor, agent, eventBus, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Engagement: engagement,
		Cache:      redisCache,
		DB:         db,
		Reports:    reports,
		NATS:       natsPublisher,
		Logger:     log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
