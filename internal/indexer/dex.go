package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// PoolSource reads the liquidity pools of an exchange.
type PoolSource interface {
	Pools(ctx context.Context, d models.DApp) ([]models.Pool, error)
}

// DEXIndexer indexes exchanges. Volume comes from the dApp's API. Pools
// come from an optional PoolSource and TVL is the sum of their liquidity;
// without a source TVL is left unknown.
type DEXIndexer struct {
	client *Client
	pools  PoolSource
}

func NewDEXIndexer(client *Client) *DEXIndexer {
	return &DEXIndexer{client: client}
}

// WithPoolSource sets the pool reader.
func (x *DEXIndexer) WithPoolSource(src PoolSource) *DEXIndexer {
	x.pools = src
	return x
}

func (x *DEXIndexer) Name() string { return "dex" }

func (x *DEXIndexer) Index(ctx context.Context, d models.DApp) (*Result, error) {
	res := &Result{Healthy: true, Volume24h: x.volume(ctx, d)}
	if x.pools == nil {
		return res, nil
	}

	pools, err := x.pools.Pools(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("query pools for %s: %w", d.ID, err)
	}
	tvl := decimal.Zero
	for i := range pools {
		pools[i].DAppID = d.ID
		if l, err := decimal.NewFromString(pools[i].Liquidity); err == nil {
			tvl = tvl.Add(l)
		}
	}
	total := tvl.InexactFloat64()
	res.Pools = pools
	res.TVL = &total
	return res, nil
}

// volume is best effort: an unreachable API leaves the volume unknown.
func (x *DEXIndexer) volume(ctx context.Context, d models.DApp) *float64 {
	if d.APIEndpoint == "" {
		return nil
	}
	var body map[string]json.RawMessage
	url := strings.TrimRight(d.APIEndpoint, "/") + "/volume"
	if err := x.client.GetJSON(ctx, url, &body); err != nil {
		x.client.logger.WithError(err).WithField("dapp", d.ID).Warn("could not fetch volume")
		return nil
	}
	return firstNumber(body, "volume24h", "volume_24h")
}
