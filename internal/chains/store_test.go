package chains

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// dialTestRedis returns nil when no server is reachable.
func dialTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   2, // keep away from the application database
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

func setupTestRedis(t *testing.T) *redis.Client {
	client := dialTestRedis(t)
	if client == nil {
		t.Skip("Redis not available on localhost:6379")
	}
	return client
}

func newChain(n int) *models.ActionChain {
	c := &models.ActionChain{ID: uuid.NewString(), IntentText: "swap then stake", ExecutionMode: models.ModeSequential}
	for i := 1; i <= n; i++ {
		c.Actions = append(c.Actions, models.EnrichedAction{Order: i, Type: models.ActionSwap, Status: models.StatusPending, Parameters: models.Params{"amount": models.Number(float64(i))}})
	}
	return c
}

// each backend runs the same contract tests
func backends(t *testing.T) map[string]storage.ChainStore {
	out := map[string]storage.ChainStore{"memory": NewMemoryStore()}
	if client := dialTestRedis(t); client != nil {
		rs, err := NewRedisStore(client, time.Hour)
		require.NoError(t, err)
		out["redis"] = rs
	}
	return out
}

func TestChainStore_CreateGet(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newChain(2)
			require.NoError(t, store.Create(ctx, c))
			assert.Error(t, store.Create(ctx, c), "duplicate id")

			got, err := store.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ChainPending, got.Status)
			assert.Len(t, got.Actions, 2)
			assert.Equal(t, models.Number(2), got.Actions[1].Parameters["amount"])

			_, err = store.Get(ctx, uuid.NewString())
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestChainStore_SaveActionRecomputesStatus(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newChain(2)
			require.NoError(t, store.Create(ctx, c))

			a1 := c.Actions[0]
			a1.Status = models.StatusCompleted
			a1.Result = &models.ActionResult{Success: true, Fields: models.Params{"outputAmount": models.String("151.544000")}}
			got, err := store.SaveAction(ctx, c.ID, a1)
			require.NoError(t, err)
			assert.Equal(t, models.ChainInProgress, got.Status)
			assert.Nil(t, got.CompletedAt)

			a2 := c.Actions[1]
			a2.Status = models.StatusCompleted
			got, err = store.SaveAction(ctx, c.ID, a2)
			require.NoError(t, err)
			assert.Equal(t, models.ChainCompleted, got.Status)
			require.NotNil(t, got.CompletedAt)

			// a late writer cannot pull a completed chain back
			a2.Status = models.StatusInProgress
			got, err = store.SaveAction(ctx, c.ID, a2)
			require.NoError(t, err)
			assert.Equal(t, models.ChainCompleted, got.Status)

			stored, err := store.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, models.String("151.544000"), stored.Actions[0].Result.Fields["outputAmount"])

			_, err = store.SaveAction(ctx, c.ID, models.EnrichedAction{Order: 9})
			assert.Error(t, err)
			_, err = store.SaveAction(ctx, uuid.NewString(), a1)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestChainStore_ConcurrentSaveKeepsEveryAction(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newChain(6)
			require.NoError(t, store.Create(ctx, c))

			var wg sync.WaitGroup
			for _, a := range c.Actions {
				wg.Add(1)
				go func(a models.EnrichedAction) {
					defer wg.Done()
					a.Status = models.StatusCompleted
					_, err := store.SaveAction(ctx, c.ID, a)
					assert.NoError(t, err)
				}(a)
			}
			wg.Wait()

			got, err := store.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ChainCompleted, got.Status)
			for _, a := range got.Actions {
				assert.Equal(t, models.StatusCompleted, a.Status, "action %d", a.Order)
			}
		})
	}
}

func TestRedisStore_List(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewRedisStore(client, 0)
	require.NoError(t, err)
	ctx := context.Background()

	a, b := newChain(1), newChain(2)
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older, newer := newChain(1), newChain(1)
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, newer))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID(uuid.NewString()))
	assert.Error(t, ValidateID(""))
	assert.Error(t, ValidateID("chains:index"))
}

func TestNewRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil, 0)
	assert.Error(t, err)
}
