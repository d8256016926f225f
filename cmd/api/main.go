package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/actionengine"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/bootstrap"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/execution"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/server"
)

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	logger := bootstrap.NewLogger()

	cfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	tracing, err := bootstrap.Tracing(ctx, cfg, "cardano-adaptive-ui-api", logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up tracing")
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("tracing shutdown")
		}
	}()

	registryStore, err := bootstrap.OpenRegistry(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open registry")
	}
	defer registryStore.Close()

	rclient, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	if rclient != nil {
		defer rclient.Close()
	}

	chainStore, err := bootstrap.ChainStore(rclient, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create chain store")
	}

	publisher, err := bootstrap.Publisher(cfg, rclient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create event publisher")
	}
	defer publisher.Close()

	sink := bootstrap.Analytics(ctx, cfg, logger)
	defer sink.Close()

	orch, classifier, err := bootstrap.Orchestrator(cfg, registryStore, chainStore, publisher, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create orchestrator")
	}

	scheduler, err := bootstrap.Scheduler(cfg, registryStore, sink, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create indexer scheduler")
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Orchestrator: orch,
		Registry:     registryStore,
		Chains:       chainStore,
		Engine: actionengine.Deps{
			Boundary:  execution.NewMockBoundary(0),
			Store:     chainStore,
			Publisher: publisher,
			Analytics: sink,
			Logger:    logger,
			Timeout:   cfg.ExecutionTimeout,
			OnComplete: func(c models.ActionChain) {
				logger.WithFields(logrus.Fields{
					"chain_id": c.ID,
					"intent":   c.IntentText,
				}).Info("chain finished")
			},
		},
		Indexer:    scheduler,
		Classifier: classifier.Available,
		DevMode:    cfg.DevMode,
		Logger:     logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	logger.WithFields(logrus.Fields{
		"addr":       cfg.APIAddr,
		"classifier": classifier.Available(),
		"registry":   cfg.RegistryDBDriver,
		"events":     cfg.EventsBackend,
	}).Info("api server starting")
	if err := srv.Start(); err != nil {
		// http.ErrServerClosed is expected during graceful shutdown
		if errors.Is(err, http.ErrServerClosed) {
			if err := srv.WaitClosed(context.Background()); err != nil {
				fmt.Println(err)
			}
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}
}
