package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// MemoryStore is a process-local ChainStore used when Redis is not
// configured and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	chains map[string][]byte
	now    func() time.Time
}

var _ storage.ChainStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chains: make(map[string][]byte), now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) Create(_ context.Context, chain *models.ActionChain) error {
	if chain == nil {
		return fmt.Errorf("chain is nil")
	}
	if err := ValidateID(chain.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chains[chain.ID]; ok {
		return fmt.Errorf("create chain %s: already exists", chain.ID)
	}
	now := s.now()
	if chain.CreatedAt.IsZero() {
		chain.CreatedAt = now
	}
	chain.UpdatedAt = now
	if chain.Status == "" {
		chain.Status = models.ChainPending
	}
	b, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}
	s.chains[chain.ID] = b
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.ActionChain, error) {
	s.mu.Lock()
	b, ok := s.chains[id]
	s.mu.Unlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return decode(string(b))
}

func (s *MemoryStore) SaveAction(_ context.Context, chainID string, action models.EnrichedAction) (*models.ActionChain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.chains[chainID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	chain, err := decode(string(b))
	if err != nil {
		return nil, err
	}
	if err := apply(chain, action, s.now()); err != nil {
		return nil, err
	}
	nb, err := json.Marshal(chain)
	if err != nil {
		return nil, fmt.Errorf("marshal chain: %w", err)
	}
	s.chains[chainID] = nb
	return chain, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.ActionChain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ActionChain, 0, len(s.chains))
	for _, b := range s.chains {
		c, err := decode(string(b))
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	sortNewestFirst(out)
	return out, nil
}
