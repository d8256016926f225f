package bootstrap

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/analytics"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/chains"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/config"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/events"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestFallbacksWithoutInfrastructure(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{EventsBackend: config.EventsNone}

	client, err := OpenRedis(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, client)

	store, err := ChainStore(nil, cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &chains.MemoryStore{}, store)

	pub, err := Publisher(cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, events.Nop{}, pub)

	assert.Equal(t, analytics.Discard{}, Analytics(ctx, cfg, quietLogger()))
}

func TestPublisher_RedisNeedsClient(t *testing.T) {
	_, err := Publisher(&config.Config{EventsBackend: config.EventsRedis}, nil, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestOpenRegistry_SQLite(t *testing.T) {
	cfg := &config.Config{RegistryDBDriver: "sqlite", RegistryDBDSN: ":memory:"}
	store, err := OpenRegistry(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(context.Background()))
}

func TestOrchestrator_WithoutCredential(t *testing.T) {
	cfg := &config.Config{LLMProvider: "openrouter", RegistryDBDriver: "sqlite", RegistryDBDSN: ":memory:"}
	store, err := OpenRegistry(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer store.Close()

	orch, classifier, err := Orchestrator(cfg, store, chains.NewMemoryStore(), events.Nop{}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, orch)
	assert.False(t, classifier.Available())

	sched, err := Scheduler(cfg, store, analytics.Discard{}, quietLogger())
	require.NoError(t, err)
	st, err := sched.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalDApps)
}

func TestTracing_InstallsSampledProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	cfg := config.Load()
	cfg.TraceSampleRate = 1
	cfg.OTLPEndpoint = ""

	p, err := Tracing(ctx, cfg, "bootstrap-test", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	rec := tracetest.NewSpanRecorder()
	p.TracerProvider().RegisterSpanProcessor(rec)

	_, span := otel.Tracer("intent").Start(ctx, "intent.Orchestrate")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "intent.Orchestrate", ended[0].Name())
	assert.True(t, ended[0].SpanContext().IsSampled())
}
