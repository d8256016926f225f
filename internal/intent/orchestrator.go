// Package intent turns free text into enriched, executable actions.
package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/events"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/registry"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

const defaultConcurrency = 4

type Classifier interface {
	Classify(ctx context.Context, text string) (*models.IntentResult, error)
}

type Resolver interface {
	Resolve(ctx context.Context, actionType models.ActionType, params models.Params) (*registry.Resolution, error)
}

// Config holds the orchestrator's collaborators.
type Config struct {
	Classifier Classifier
	Resolver   Resolver
	Chains     storage.ChainStore
	Publisher  storage.EventPublisher

	// Concurrency bounds simultaneous registry lookups.
	Concurrency int

	Logger *logrus.Logger

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Orchestrator combines classification and registry resolution.
type Orchestrator struct {
	classifier  Classifier
	resolver    Resolver
	chains      storage.ChainStore
	publisher   storage.EventPublisher
	concurrency int
	logger      *logrus.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// Result is what the caller presents to the user. ChainID is set only when
// more than one action was classified.
type Result struct {
	ChainID       string                  `json:"chainId,omitempty"`
	ExecutionMode models.ExecutionMode    `json:"executionMode"`
	Actions       []models.EnrichedAction `json:"actions"`
	Intent        *models.IntentResult    `json:"intent"`
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("resolver is nil")
	}
	if cfg.Chains == nil {
		return nil, fmt.Errorf("chain store is nil")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	return &Orchestrator{
		classifier:  cfg.Classifier,
		resolver:    cfg.Resolver,
		chains:      cfg.Chains,
		publisher:   cfg.Publisher,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		tracer:      cfg.TracerProvider.Tracer("intent"),
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Orchestrate classifies text and enriches every resulting action.
// Classifier errors are returned unchanged.
func (o *Orchestrator) Orchestrate(ctx context.Context, text string) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "intent.Orchestrate")
	defer span.End()

	classified, err := o.classifier.Classify(ctx, text)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res, err := o.Enrich(ctx, text, classified)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("actions", len(res.Actions)),
		attribute.String("execution_mode", string(res.ExecutionMode)),
		attribute.String("chain.id", res.ChainID),
	)
	return res, nil
}

// Enrich resolves a dApp for each classified action, concurrently, keeping
// the classified order. The first action (by order) that fails to resolve
// aborts the whole request. Multi-action results are persisted as a
// pending chain.
func (o *Orchestrator) Enrich(ctx context.Context, text string, classified *models.IntentResult) (*Result, error) {
	parsed := classified.Actions()
	if len(parsed) == 0 {
		return nil, apperr.New(apperr.MalformedResponse, "classifier returned no actions")
	}

	enriched := make([]models.EnrichedAction, len(parsed))
	errs := make([]error, len(parsed))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, a := range parsed {
		g.Go(func() error {
			enriched[i], errs[i] = o.resolveAction(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, o.resolutionError(classified, parsed[i], err)
		}
	}

	mode := classified.Mode()
	res := &Result{ExecutionMode: mode, Actions: enriched, Intent: classified}
	if len(enriched) == 1 {
		return res, nil
	}

	now := o.now()
	chain := &models.ActionChain{
		ID:            uuid.NewString(),
		IntentText:    text,
		Actions:       enriched,
		Status:        models.ChainPending,
		ExecutionMode: mode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.chains.Create(ctx, chain); err != nil {
		return nil, fmt.Errorf("persist action chain: %w", err)
	}
	if err := o.publisher.Publish(ctx, storage.ChainEvent{
		Type:      storage.EventChainCreated,
		ChainID:   chain.ID,
		Status:    models.StatusPending,
		Timestamp: now,
	}); err != nil {
		o.logger.WithError(err).WithField("chain_id", chain.ID).Warn("publish chain event failed")
	}

	o.logger.WithFields(logrus.Fields{
		"chain_id": chain.ID,
		"actions":  len(enriched),
		"mode":     mode,
	}).Info("created action chain")

	res.ChainID = chain.ID
	return res, nil
}

func (o *Orchestrator) resolveAction(ctx context.Context, a models.ParsedAction) (models.EnrichedAction, error) {
	ctx, span := o.tracer.Start(ctx, "intent.resolveAction", trace.WithAttributes(
		attribute.Int("action.order", a.Order),
		attribute.String("action.type", string(a.Type)),
	))
	defer span.End()

	r, err := o.resolver.Resolve(ctx, a.Type, a.Parameters)
	if err != nil {
		span.RecordError(err)
		return models.EnrichedAction{}, err
	}
	span.SetAttributes(attribute.String("dapp.id", r.DApp.ID))

	return models.EnrichedAction{
		Order:        a.Order,
		Type:         a.Type,
		DAppID:       r.DApp.ID,
		DAppName:     r.DApp.Name,
		Parameters:   a.Parameters,
		Confidence:   a.Confidence,
		DependsOn:    a.DependsOn,
		OutputUsedBy: a.OutputUsedBy,
		UISchema:     r.UISchema,
		Quote:        r.Quote,
		Alternatives: r.Alternatives,
		Status:       models.StatusPending,
	}, nil
}

// resolutionError names the failing action type and carries the
// classifier's suggestion and external platform so the caller can redirect
// the user.
func (o *Orchestrator) resolutionError(classified *models.IntentResult, a models.ParsedAction, err error) error {
	if !apperr.Is(err, apperr.NoProviderFound) {
		return fmt.Errorf("resolve action %d (%s): %w", a.Order, a.Type, err)
	}
	e := apperr.Wrap(apperr.ActionResolutionFailed, err, "no dApp available for action %q", a.Type).
		WithDetail("actionType", string(a.Type)).
		WithDetail("order", a.Order)
	if s := classified.Single; s != nil {
		if s.Suggestion != "" {
			e.WithDetail("suggestion", s.Suggestion)
		}
		if s.ExternalPlatform != nil {
			e.WithDetail("externalPlatform", s.ExternalPlatform)
		}
	}
	return e
}
