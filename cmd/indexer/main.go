package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/bootstrap"
)

func main() {
	once := flag.Bool("once", false, "Run a single indexing pass and exit")
	flag.Parse()

	logger := bootstrap.NewLogger()

	cfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down indexer")
		cancel()
	}()

	registryStore, err := bootstrap.OpenRegistry(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open registry")
	}
	defer registryStore.Close()

	sink := bootstrap.Analytics(ctx, cfg, logger)
	defer sink.Close()

	scheduler, err := bootstrap.Scheduler(cfg, registryStore, sink, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create scheduler")
	}

	if *once {
		report, err := scheduler.RunOnce(ctx)
		if err != nil {
			logger.WithError(err).Fatal("indexing failed")
		}
		logger.WithFields(logrus.Fields{
			"indexed":  report.Indexed,
			"failed":   report.Failed,
			"duration": report.Duration,
		}).Info("indexing pass finished")
		return
	}

	logger.WithField("interval", cfg.IndexInterval).Info("indexer running. Press Ctrl+C to stop.")
	if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("indexer stopped")
	}
}
