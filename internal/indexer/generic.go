package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// GenericIndexer health-checks the dApp's website and reads TVL and volume
// from the first stats endpoint that answers.
type GenericIndexer struct {
	client *Client
}

func NewGenericIndexer(client *Client) *GenericIndexer {
	return &GenericIndexer{client: client}
}

func (x *GenericIndexer) Name() string { return "generic" }

func (x *GenericIndexer) Index(ctx context.Context, d models.DApp) (*Result, error) {
	if !x.client.Reachable(ctx, d.WebsiteURL) {
		return &Result{Healthy: false}, fmt.Errorf("%s appears to be down or unreachable", d.Name)
	}

	res := &Result{Healthy: true}
	if d.APIEndpoint == "" {
		return res, nil
	}

	base := strings.TrimRight(d.APIEndpoint, "/")
	for _, url := range []string{base + "/stats", base + "/v1/stats", base + "/api/stats", base} {
		var body map[string]json.RawMessage
		if err := x.client.GetJSON(ctx, url, &body); err != nil {
			continue
		}
		res.TVL = firstNumber(body, "tvl", "totalValueLocked", "total_value_locked")
		res.Volume24h = firstNumber(body, "volume24h", "volume_24h", "dailyVolume")
		break
	}
	return res, nil
}
