// Package bootstrap wires the shared infrastructure used by the binaries
// under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/ai"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/analytics"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/chains"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/config"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/database"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/events"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/indexer"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/intent"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/registry"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/telemetry"
)

// NewLogger returns the text logger every binary uses.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// LoadEnv reads .env from the project root. A missing file is not an error.
func LoadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// LoadConfig loads .env and the environment, then validates the result.
func LoadConfig(logger *logrus.Logger) (*config.Config, error) {
	LoadEnv(logger)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenRegistry connects to the registry database and applies its schema.
func OpenRegistry(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*database.RegistryStore, error) {
	return database.Open(ctx, database.Config{
		Driver: cfg.RegistryDBDriver,
		DSN:    cfg.RegistryDBDSN,
		Logger: logger,
	})
}

// OpenRedis returns nil when no Redis address is configured.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// ChainStore keeps chains in Redis when a client is available and in memory
// otherwise.
func ChainStore(client redis.UniversalClient, cfg *config.Config, logger *logrus.Logger) (storage.ChainStore, error) {
	if client == nil {
		logger.Warn("redis is not configured; action chains are kept in memory")
		return chains.NewMemoryStore(), nil
	}
	return chains.NewRedisStore(client, cfg.ChainTTL)
}

// Publisher builds the chain event publisher for the configured backend.
func Publisher(cfg *config.Config, client redis.UniversalClient, logger *logrus.Logger) (storage.EventPublisher, error) {
	switch cfg.EventsBackend {
	case config.EventsRedis:
		if client == nil {
			return nil, fmt.Errorf("events backend %q needs REDIS_ADDR", cfg.EventsBackend)
		}
		return events.NewRedisPubSub(client, logger), nil
	case config.EventsRabbitMQ:
		return events.NewRabbitMQ(events.RabbitMQConfig{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue, Durable: true})
	default:
		return events.Nop{}, nil
	}
}

// Analytics connects to ClickHouse. It falls back to discarding rows when
// no address is configured or the connection fails.
func Analytics(ctx context.Context, cfg *config.Config, logger *logrus.Logger) storage.AnalyticsSink {
	if cfg.ClickHouseAddr == "" {
		return analytics.Discard{}
	}
	store, err := analytics.NewClickHouseStore(ctx, analytics.Config{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Warn("clickhouse unavailable; analytics disabled")
		return analytics.Discard{}
	}
	return store
}

// Tracing installs the global tracer provider for service. Spans are
// exported over OTLP when an endpoint is configured.
func Tracing(ctx context.Context, cfg *config.Config, service string, logger *logrus.Logger) (*telemetry.Provider, error) {
	return telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  service,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
		SampleRate:   cfg.TraceSampleRate,
		Logger:       logger,
	})
}

// Orchestrator builds the classifier and the orchestrator on top of the
// registry. Without an LLM credential the classifier reports unavailable and
// every intent fails with ClassificationUnavailable.
func Orchestrator(cfg *config.Config, store registry.Finder, chainStore storage.ChainStore, pub storage.EventPublisher, logger *logrus.Logger) (*intent.Orchestrator, *ai.Classifier, error) {
	classifier, err := ai.NewClassifier(ai.ClassifierConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey(),
		Model:    cfg.LLMModel,
		Timeout:  cfg.ClassifierTimeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create classifier: %w", err)
	}
	resolver, err := registry.NewResolver(registry.ResolverConfig{
		Store:          store,
		CandidateLimit: cfg.ResolveCandidateLimit,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create resolver: %w", err)
	}
	orch, err := intent.New(intent.Config{
		Classifier: classifier,
		Resolver:   resolver,
		Chains:     chainStore,
		Publisher:  pub,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create orchestrator: %w", err)
	}
	return orch, classifier, nil
}

// Scheduler builds the indexing scheduler with the default indexers.
func Scheduler(cfg *config.Config, store indexer.Store, sink storage.AnalyticsSink, logger *logrus.Logger) (*indexer.Scheduler, error) {
	client := indexer.NewClient(indexer.ClientConfig{
		Timeout:      cfg.IndexFetchTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	return indexer.NewScheduler(indexer.SchedulerConfig{
		Store:     store,
		Registry:  indexer.DefaultRegistry(client),
		Analytics: sink,
		Interval:  cfg.IndexInterval,
		Logger:    logger,
	})
}
