package constants

import "time"

// Redis keys
const (
	RedisKeyChainPrefix = "chains:"
	RedisKeyChainIndex  = "chains:index"
)

// Redis Pub/Sub channels
const (
	PubSubChannelChainEvents = "chains:events"
	PubSubChainPrefix        = "chains:events:"
)

// RabbitMQ
const (
	DefaultEventsQueue = "adaptive-ui.chain-events"
)

// Limits
const (
	MaxResolveCandidates = 5
	MaxIntentTextLength  = 2000
	MaxClassifierTokens  = 1024
)

// Timeouts
const (
	DefaultClassifierTimeout = 8 * time.Second
	DefaultExecutionTimeout  = 30 * time.Second
	DefaultIndexFetchTimeout = 5 * time.Second
	DefaultIndexInterval     = 15 * time.Minute
	DefaultChainTTL          = 7 * 24 * time.Hour
)

// LLM providers
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"

	OpenRouterBaseURL      = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "anthropic/claude-3.5-sonnet"
	DefaultAnthropicModel  = "claude-3-5-sonnet-20241022"
)

// Mock execution figures used until a chain-backed boundary is wired.
const (
	MockSwapRate     = 1.52
	MockSwapFee      = 0.003
	MockSwapSlippage = 0.5
	MockStakeAPY     = 4.5
	MockLendAPY      = 6.2
	MockBorrowAPR    = 8.5
)
