package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/querylens/querylens/internal/backend"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/events"
	"github.com/querylens/querylens/internal/history"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/queue"
	"github.com/querylens/querylens/internal/recommend"
	"github.com/querylens/querylens/internal/router"
	"github.com/querylens/querylens/internal/services"
	"github.com/querylens/querylens/internal/session"
	"github.com/querylens/querylens/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("querylens starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Connect to Queue when query events or queued recommendations are on
	var (
		queueClient queue.Queue
		publisher   events.Publisher = events.Nop{}
	)
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", config.RedactedURL(cfg.Queue.URL))
		queueClient, err = queue.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()
		publisher = events.NewQueuePublisher(queueClient, cfg.Queue.EventsSubject, logger)
		logger.Info("Queue connection established", "events_subject", cfg.Queue.EventsSubject)
	}

	// History store
	historyStore, err := history.NewStore(cfg.History)
	if err != nil {
		logger.Fatal("Failed to initialize history store", "error", err, "store", cfg.History.Store)
	}
	defer func() { _ = historyStore.Close() }()
	logger.Info("History store initialized", "store", cfg.History.Store)

	sessions := session.NewManager(cfg.Session, logger)
	defer sessions.Close()

	backendClient := backend.NewClient(cfg.Backend, logger)
	logger.Info("Query backend configured", "url", config.RedactedURL(cfg.Backend.BaseURL))

	recommender, closeRecommender, err := recommend.New(cfg.Recommendation, backendClient, queueClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize recommender", "error", err, "mode", cfg.Recommendation.Mode)
	}
	defer func() { _ = closeRecommender() }()
	logger.Info("Recommendations configured", "mode", cfg.Recommendation.Mode, "cache_ttl", cfg.Recommendation.CacheTTL)

	// Answer queued recommendation requests through the backend
	var responder *recommend.Responder
	if cfg.Recommendation.Serve {
		if queueClient == nil {
			logger.Fatal("recommendation.serve requires queue.enabled")
		}
		upstream := recommend.WithTimeout(recommend.NewHTTPRecommender(backendClient), cfg.Recommendation.Timeout)
		responder = recommend.NewResponder(queueClient, cfg.Recommendation.RequestSubject, upstream, logger)
		if err := responder.Start(); err != nil {
			logger.Fatal("Failed to start recommendation responder", "error", err)
		}
	}

	interpretService := services.NewInterpretService(logger, cfg.Views.MaxChartPoints)
	viewService := services.NewViewService(interpretService, cfg.Views)
	queryService := services.NewQueryService(logger, backendClient, sessions, historyStore,
		publisher, recommender, interpretService, viewService)

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, router.Services{
		Sessions:  sessions,
		Query:     queryService,
		Interpret: interpretService,
		Views:     viewService,
	}, *cfg)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if responder != nil {
		if err := responder.Stop(); err != nil {
			logger.Warn("Failed to stop recommendation responder", "error", err)
		}
	}

	// Let in-flight recommendations and events finish
	queryService.Close()

	logger.Info("Server exited")
}
