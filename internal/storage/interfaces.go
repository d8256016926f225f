package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// DAppFilter narrows ListDApps.
type DAppFilter struct {
	Category   models.Category
	ActiveOnly bool
}

// RegistryStore is the relational dApp registry.
type RegistryStore interface {
	// FindByActionType returns active dApps with an interface for actionType,
	// in query order, capped at limit. When tokens are given, only pools
	// referencing one of them are attached.
	FindByActionType(ctx context.Context, actionType models.ActionType, limit int, tokens ...string) ([]models.Candidate, error)

	// GetDApp returns a dApp by id or ErrNotFound.
	GetDApp(ctx context.Context, id string) (*models.DApp, error)

	// GetInterface returns the interface a dApp declares for actionType or ErrNotFound.
	GetInterface(ctx context.Context, dappID string, actionType models.ActionType) (*models.DAppInterface, error)

	// ListDApps lists dApps ordered by id.
	ListDApps(ctx context.Context, filter DAppFilter) ([]models.DApp, error)

	// Stats summarises the registry.
	Stats(ctx context.Context) (*models.RegistryStats, error)

	UpsertDApp(ctx context.Context, d models.DApp) error
	UpsertInterface(ctx context.Context, iface models.DAppInterface) error
	UpsertPool(ctx context.Context, p models.Pool) error

	// UpdateMetrics records the outcome of an indexing run.
	UpdateMetrics(ctx context.Context, dappID string, tvl, volume *float64, indexedAt time.Time) error

	Ping(ctx context.Context) error
	io.Closer
}

// ChainStore persists action chains.
type ChainStore interface {
	// Create stores a new chain.
	Create(ctx context.Context, chain *models.ActionChain) error

	// Get returns a chain by id or ErrNotFound.
	Get(ctx context.Context, id string) (*models.ActionChain, error)

	// SaveAction replaces one action of a chain and recomputes the chain
	// status atomically with respect to other SaveAction calls on the same
	// chain. It returns the updated chain.
	SaveAction(ctx context.Context, chainID string, action models.EnrichedAction) (*models.ActionChain, error)

	// List returns stored chains, newest first.
	List(ctx context.Context) ([]*models.ActionChain, error)
}

// EventType names a chain lifecycle event.
type EventType string

const (
	EventChainCreated   EventType = "chain.created"
	EventActionStarted  EventType = "action.started"
	EventActionDeferred EventType = "action.deferred"
	EventActionDone     EventType = "action.completed"
	EventActionFailed   EventType = "action.failed"
	EventChainCompleted EventType = "chain.completed"
)

// ChainEvent is published on every chain transition.
type ChainEvent struct {
	Type       EventType           `json:"type"`
	ChainID    string              `json:"chainId"`
	Order      int                 `json:"order,omitempty"`
	ActionType models.ActionType   `json:"actionType,omitempty"`
	Status     models.ActionStatus `json:"status,omitempty"`
	Error      string              `json:"error,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// EventPublisher fans chain events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, ev ChainEvent) error
	io.Closer
}

// ExecutionRecord is one row of the execution analytics log.
type ExecutionRecord struct {
	ExecutionID string
	ChainID     string
	Order       int
	DAppID      string
	ActionType  string
	Status      string
	Error       string
	DurationMs  int64
	ExecutedAt  time.Time
}

// IndexSnapshot is one row of the indexer analytics log.
type IndexSnapshot struct {
	DAppID    string
	Category  string
	TVL       float64
	Volume24h float64
	Pools     int
	Healthy   bool
	IndexedAt time.Time
}

// AnalyticsSink receives append-only analytics rows.
type AnalyticsSink interface {
	InsertExecution(ctx context.Context, rec ExecutionRecord) error
	InsertIndexSnapshot(ctx context.Context, snap IndexSnapshot) error
	io.Closer
}
