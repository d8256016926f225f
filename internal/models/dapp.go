package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Category classifies a dApp.
type Category string

const (
	CategoryDEX            Category = "dex"
	CategoryNFTMarketplace Category = "nft_marketplace"
	CategoryLending        Category = "lending"
	CategoryStaking        Category = "staking"
	CategoryBridge         Category = "bridge"
	CategoryLaunchpad      Category = "launchpad"
	CategoryGaming         Category = "gaming"
	CategoryWallet         Category = "wallet"
	CategoryExplorer       Category = "explorer"
	CategoryIdentity       Category = "identity"
	CategoryOracle         Category = "oracle"
	CategoryOther          Category = "other"
)

var categories = map[Category]struct{}{
	CategoryDEX: {}, CategoryNFTMarketplace: {}, CategoryLending: {}, CategoryStaking: {},
	CategoryBridge: {}, CategoryLaunchpad: {}, CategoryGaming: {}, CategoryWallet: {},
	CategoryExplorer: {}, CategoryIdentity: {}, CategoryOracle: {}, CategoryOther: {},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// DApp is a registered decentralized application.
type DApp struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Category          Category   `json:"category" yaml:"category"`
	Description       string     `json:"description" yaml:"description"`
	ContractAddresses []string   `json:"contractAddresses" yaml:"contractAddresses"`
	WebsiteURL        string     `json:"websiteUrl" yaml:"websiteUrl"`
	APIEndpoint       string     `json:"apiEndpoint,omitempty" yaml:"apiEndpoint"`
	TVL               *float64   `json:"tvl,omitempty" yaml:"tvl"`
	Volume24h         *float64   `json:"volume24h,omitempty" yaml:"volume24h"`
	IsActive          bool       `json:"isActive" yaml:"isActive"`
	LastIndexed       *time.Time `json:"lastIndexed,omitempty" yaml:"-"`
}

// DAppInterface describes one action a dApp supports. The schema fields are
// kept as raw JSON objects so descriptor order survives storage.
type DAppInterface struct {
	ID                string          `json:"id"`
	DAppID            string          `json:"dappId"`
	ActionType        ActionType      `json:"actionType"`
	InputSchema       json.RawMessage `json:"inputSchema"`
	OutputSchema      json.RawMessage `json:"outputSchema"`
	ContractInterface json.RawMessage `json:"contractInterface,omitempty"`
	ExampleUsage      string          `json:"exampleUsage,omitempty"`
}

// Pool is a DEX liquidity pool.
type Pool struct {
	ID          string    `json:"id"`
	DAppID      string    `json:"dappId"`
	PoolAddress string    `json:"poolAddress"`
	Token0      string    `json:"token0"`
	Token1      string    `json:"token1"`
	Reserve0    string    `json:"reserve0"`
	Reserve1    string    `json:"reserve1"`
	Fee         float64   `json:"fee"`
	Liquidity   string    `json:"liquidity,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// References reports whether the pool trades either of the given tokens.
func (p Pool) References(tokens ...string) bool {
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if strings.EqualFold(p.Token0, t) || strings.EqualFold(p.Token1, t) {
			return true
		}
	}
	return false
}

// Candidate is a dApp returned by a registry lookup together with the
// interfaces and pools that matched the query.
type Candidate struct {
	DApp       DApp            `json:"dapp"`
	Interfaces []DAppInterface `json:"interfaces"`
	Pools      []Pool          `json:"pools,omitempty"`
}

// Alternative is the short projection of a candidate dApp.
type Alternative struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type Category `json:"type"`
}

// Quote is attached to swap resolutions. OutputEstimate is not computed from
// pool reserves; IsPlaceholder is always true until a pricing source exists.
type Quote struct {
	Provider       string  `json:"provider"`
	PoolAddress    string  `json:"poolAddress"`
	Fee            float64 `json:"fee"`
	OutputEstimate string  `json:"outputEstimate"`
	IsPlaceholder  bool    `json:"isPlaceholder"`
}

// RegistryStats summarises the registry.
type RegistryStats struct {
	TotalDApps     int              `json:"totalDapps"`
	ActiveDApps    int              `json:"activeDapps"`
	ByCategory     map[Category]int `json:"byCategory"`
	TotalTVL       float64          `json:"totalTvl"`
	TotalVolume24h float64          `json:"totalVolume24h"`
	TotalPools     int              `json:"totalPools"`
}
