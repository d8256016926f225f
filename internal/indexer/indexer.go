// Package indexer refreshes registry metrics (TVL, volume, pools) from the
// dApps' own endpoints on a schedule.
package indexer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Result is the outcome of indexing one dApp. Nil metrics leave the stored
// values unchanged.
type Result struct {
	TVL       *float64
	Volume24h *float64
	Pools     []models.Pool
	Healthy   bool
}

// Indexer refreshes one dApp.
type Indexer interface {
	Name() string
	Index(ctx context.Context, d models.DApp) (*Result, error)
}

// Registry maps dApp categories to indexers. Categories without an entry
// use the fallback.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[models.Category]Indexer
	fallback   Indexer
}

func NewRegistry(fallback Indexer) *Registry {
	return &Registry{byCategory: make(map[models.Category]Indexer), fallback: fallback}
}

// DefaultRegistry uses the DEX indexer for exchanges and the generic
// indexer for everything else.
func DefaultRegistry(client *Client) *Registry {
	r := NewRegistry(NewGenericIndexer(client))
	r.Register(models.CategoryDEX, NewDEXIndexer(client))
	return r
}

func (r *Registry) Register(c models.Category, idx Indexer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCategory[c] = idx
}

// For returns the indexer for a category.
func (r *Registry) For(c models.Category) Indexer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx, ok := r.byCategory[c]; ok {
		return idx
	}
	return r.fallback
}

// firstNumber returns the first key of m holding a number.
func firstNumber(m map[string]json.RawMessage, keys ...string) *float64 {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return &f
		}
		var s json.Number
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := s.Float64(); err == nil {
				return &f
			}
		}
	}
	return nil
}
