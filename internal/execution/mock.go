package execution

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Handler produces the result fields for one action type.
type Handler func(ctx context.Context, req Request) (models.Params, error)

// MockBoundary simulates execution with one handler per action type.
type MockBoundary struct {
	mu       sync.RWMutex
	handlers map[models.ActionType]Handler
	fallback Handler
	latency  time.Duration
	now      func() time.Time
}

// NewMockBoundary registers the built-in simulated handlers. latency is
// slept before every call to mimic block confirmation.
func NewMockBoundary(latency time.Duration) *MockBoundary {
	m := &MockBoundary{
		handlers: make(map[models.ActionType]Handler),
		latency:  latency,
		now:      func() time.Time { return time.Now().UTC() },
	}
	m.fallback = m.generic
	m.Register(models.ActionSwap, m.swap)
	m.Register(models.ActionStake, m.stake)
	m.Register(models.ActionUnstake, m.unstake)
	m.Register(models.ActionLend, m.lend)
	m.Register(models.ActionBorrow, m.borrow)
	m.Register(models.ActionBuyNFT, m.buyNFT)
	m.Register(models.ActionNFTBuy, m.buyNFT)
	return m
}

// Register installs or replaces the handler for an action type.
func (m *MockBoundary) Register(t models.ActionType, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[t] = h
}

func (m *MockBoundary) Execute(ctx context.Context, req Request) (*models.ActionResult, error) {
	if m.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.latency):
		}
	}

	m.mu.RLock()
	h, ok := m.handlers[req.ActionType]
	m.mu.RUnlock()
	if !ok {
		h = m.fallback
	}

	fields, err := h(ctx, req)
	if err != nil {
		return &models.ActionResult{Success: false, Error: err.Error()}, nil
	}
	if _, ok := fields["transactionHash"]; !ok {
		fields["transactionHash"] = models.String(txHash())
	}
	if _, ok := fields["timestamp"]; !ok {
		fields["timestamp"] = models.String(m.now().Format(time.RFC3339))
	}
	return &models.ActionResult{Success: true, Fields: fields}, nil
}

func (m *MockBoundary) swap(_ context.Context, req Request) (models.Params, error) {
	amount, err := amountOf(req.Params, "amount")
	if err != nil {
		return nil, err
	}
	rate := decimal.NewFromFloat(constants.MockSwapRate)
	fee := decimal.NewFromFloat(constants.MockSwapFee)
	out := amount.Mul(rate).Mul(decimal.NewFromInt(1).Sub(fee))

	return models.Params{
		"fromToken":    models.String(req.Params.Text("fromToken")),
		"toToken":      models.String(req.Params.Text("toToken")),
		"inputAmount":  models.String(amount.String()),
		"outputAmount": models.String(out.StringFixed(6)),
		"rate":         models.Number(constants.MockSwapRate),
		"fee":          models.Number(amount.Mul(fee).InexactFloat64()),
		"slippage":     models.Number(constants.MockSwapSlippage),
	}, nil
}

func (m *MockBoundary) stake(_ context.Context, req Request) (models.Params, error) {
	amount, err := amountOf(req.Params, "amount")
	if err != nil {
		return nil, err
	}
	daily := amount.Mul(decimal.NewFromFloat(constants.MockStakeAPY / 100)).Div(decimal.NewFromInt(365))
	return models.Params{
		"amount":           models.String(amount.String()),
		"stakedAmount":     models.String(amount.String()),
		"apy":              models.Number(constants.MockStakeAPY),
		"estimatedRewards": models.String(daily.StringFixed(6)),
	}, nil
}

func (m *MockBoundary) unstake(_ context.Context, req Request) (models.Params, error) {
	amount, err := amountOf(req.Params, "amount")
	if err != nil {
		return nil, err
	}
	return models.Params{
		"amount":         models.String(amount.String()),
		"unstakedAmount": models.String(amount.String()),
		"rewards":        models.String("0"),
	}, nil
}

func (m *MockBoundary) lend(_ context.Context, req Request) (models.Params, error) {
	amount, err := amountOf(req.Params, "amount")
	if err != nil {
		return nil, err
	}
	return models.Params{
		"amount":         models.String(amount.String()),
		"suppliedAmount": models.String(amount.String()),
		"apy":            models.Number(constants.MockLendAPY),
	}, nil
}

func (m *MockBoundary) borrow(_ context.Context, req Request) (models.Params, error) {
	amount, err := amountOf(req.Params, "amount")
	if err != nil {
		return nil, err
	}
	return models.Params{
		"amount":         models.String(amount.String()),
		"borrowedAmount": models.String(amount.String()),
		"apr":            models.Number(constants.MockBorrowAPR),
	}, nil
}

func (m *MockBoundary) buyNFT(_ context.Context, req Request) (models.Params, error) {
	nft := firstText(req.Params, "nftId", "tokenId", "collection", "nft")
	if nft == "" {
		return nil, fmt.Errorf("an nft identifier is required")
	}
	return models.Params{
		"nftId": models.String(nft),
		"price": models.String(firstText(req.Params, "price", "maxPrice", "amount")),
	}, nil
}

func (m *MockBoundary) generic(_ context.Context, req Request) (models.Params, error) {
	return models.Params{
		"status":     models.String("submitted"),
		"actionType": models.String(string(req.ActionType)),
		"dappId":     models.String(req.DAppID),
	}, nil
}

func amountOf(p models.Params, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(p.Text(key))
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be numeric, got %q", key, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func firstText(p models.Params, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(p.Text(k)); s != "" {
			return s
		}
	}
	return ""
}

func txHash() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
