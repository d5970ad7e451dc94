package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/calloway-legal/caseflow/internal/actions"
	"github.com/calloway-legal/caseflow/internal/api/rest"
	"github.com/calloway-legal/caseflow/internal/api/rest/handlers"
	"github.com/calloway-legal/caseflow/internal/backoffice"
	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/repository"
	"github.com/calloway-legal/caseflow/internal/repository/postgres"
	"github.com/calloway-legal/caseflow/internal/services"
	"github.com/calloway-legal/caseflow/pkg/config"
	"github.com/calloway-legal/caseflow/pkg/database"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting Caseflow API",
		logger.String("version", cfg.App.Version),
		logger.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL
	db, err := database.NewPostgresDB(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis
	redis, err := database.NewRedisClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()

	// Initialize metrics
	m := metrics.New()

	// Rule store: PostgreSQL wrapped with a Redis read-through cache for
	// the active-rule lookups on the event hot path
	ruleRepo := postgres.NewRuleRepository(db.DB)
	var ruleStore repository.RuleStore = repository.NewCachedRuleStore(ruleRepo, redis, cfg.Engine.RuleCacheTTL, log, m)

	// Initialize engine components
	evaluator := engine.NewEvaluator(log, m)
	dispatcher := engine.NewDispatcher(cfg.Engine.ActionTimeout, log, m)
	eng := engine.New(ruleStore, evaluator, dispatcher, log, m)

	// Register built-in action handlers
	notificationService := services.NewNotificationService(&cfg.Notification, log)
	backofficeClient := backoffice.NewClient(cfg.Backoffice, log)
	if err := actions.RegisterBuiltins(dispatcher, notificationService, backofficeClient); err != nil {
		return fmt.Errorf("failed to register action handlers: %w", err)
	}

	// Initialize services
	ruleService := services.NewRuleService(ruleStore, evaluator, log)

	// Initialize handlers
	h := handlers.NewHandlers(
		log,
		ruleService,
		eng,
		&handlers.HealthCheckers{
			DB:    db,
			Redis: redis,
		},
		cfg.App.Version,
	)

	// Initialize router
	router := rest.NewRouter(log, h, m, &cfg.Server)
	router.SetupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("API server listening", logger.String("address", addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", logger.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
