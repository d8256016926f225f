// Package chains persists action chains.
package chains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// maxWatchRetries bounds optimistic retries when concurrent writers touch
// the same chain.
const maxWatchRetries = 16

var idRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateID checks a chain id before it is used as a key.
func ValidateID(id string) error {
	if !idRe.MatchString(id) {
		return fmt.Errorf("invalid chain id")
	}
	return nil
}

// RedisStore keeps each chain as one JSON value plus an index set.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

var _ storage.ChainStore = (*RedisStore)(nil)

// NewRedisStore creates a store. A zero ttl keeps chains forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *RedisStore) Create(ctx context.Context, chain *models.ActionChain) error {
	if chain == nil {
		return fmt.Errorf("chain is nil")
	}
	if err := ValidateID(chain.ID); err != nil {
		return err
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

	pipe := s.client.TxPipeline()
	pipe.SetNX(ctx, chainKey(chain.ID), b, s.ttl)
	pipe.SAdd(ctx, constants.RedisKeyChainIndex, chain.ID)
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("create chain: %w", err)
	}
	if ok, _ := cmds[0].(*redis.BoolCmd).Result(); !ok {
		return fmt.Errorf("create chain %s: already exists", chain.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.ActionChain, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, chainKey(id)).Result()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chain: %w", err)
	}
	return decode(val)
}

func (s *RedisStore) SaveAction(ctx context.Context, chainID string, action models.EnrichedAction) (*models.ActionChain, error) {
	if err := ValidateID(chainID); err != nil {
		return nil, err
	}
	key := chainKey(chainID)

	var out *models.ActionChain
	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get chain: %w", err)
		}
		chain, err := decode(val)
		if err != nil {
			return err
		}
		if err := apply(chain, action, s.now()); err != nil {
			return err
		}
		b, err := json.Marshal(chain)
		if err != nil {
			return fmt.Errorf("marshal chain: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = chain
		return nil
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("save action: too many concurrent updates on chain %s", chainID)
}

// List returns all indexed chains that have not expired.
func (s *RedisStore) List(ctx context.Context) ([]*models.ActionChain, error) {
	ids, err := s.client.SMembers(ctx, constants.RedisKeyChainIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list chains index: %w", err)
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if ValidateID(id) == nil {
			keys = append(keys, chainKey(id))
		}
	}
	if len(keys) == 0 {
		return []*models.ActionChain{}, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget chains: %w", err)
	}
	out := make([]*models.ActionChain, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		c, err := decode(str)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(chains []*models.ActionChain) {
	sort.Slice(chains, func(i, j int) bool { return chains[i].CreatedAt.After(chains[j].CreatedAt) })
}

func chainKey(id string) string {
	return constants.RedisKeyChainPrefix + id
}

func decode(val string) (*models.ActionChain, error) {
	var c models.ActionChain
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("unmarshal chain: %w", err)
	}
	return &c, nil
}

// apply replaces one action and refreshes the chain status.
func apply(chain *models.ActionChain, action models.EnrichedAction, now time.Time) error {
	a := chain.Action(action.Order)
	if a == nil {
		return fmt.Errorf("chain %s has no action %d", chain.ID, action.Order)
	}
	*a = action
	chain.Refresh(now)
	return nil
}
