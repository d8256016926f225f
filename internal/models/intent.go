package models

// ActionType names an operation a user wants to perform. The set is open;
// the constants below are the ones the classifier and the seeded registry use.
type ActionType string

const (
	ActionSwap      ActionType = "swap"
	ActionStake     ActionType = "stake"
	ActionUnstake   ActionType = "unstake"
	ActionLend      ActionType = "lend"
	ActionBorrow    ActionType = "borrow"
	ActionBuyNFT    ActionType = "buy_nft"
	ActionNFTBrowse ActionType = "nft-browse"
	ActionNFTBuy    ActionType = "nft-buy"
	ActionPayment   ActionType = "payment"
	ActionBalance   ActionType = "balance"
	ActionUnknown   ActionType = "unknown"
)

// ExecutionMode controls how a chain's actions are scheduled.
type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
	ModeMixed      ExecutionMode = "mixed"
)

// Valid reports whether m is a known mode.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeSequential, ModeParallel, ModeMixed:
		return true
	}
	return false
}

// OrDefault returns m, or sequential when m is empty or unknown.
func (m ExecutionMode) OrDefault() ExecutionMode {
	if m.Valid() {
		return m
	}
	return ModeSequential
}

// ExternalPlatform redirects the user to a platform outside the registry.
type ExternalPlatform struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Reason string `json:"reason,omitempty"`
}

// ParsedIntent is a single-action classification.
type ParsedIntent struct {
	Type             ActionType        `json:"type"`
	Confidence       float64           `json:"confidence"`
	Parameters       Params            `json:"parameters"`
	Suggestion       string            `json:"suggestion,omitempty"`
	ExternalPlatform *ExternalPlatform `json:"externalPlatform,omitempty"`
}

// ParsedAction is one step of a multi-action classification.
type ParsedAction struct {
	Order        int        `json:"order"`
	Type         ActionType `json:"type"`
	Confidence   float64    `json:"confidence"`
	Parameters   Params     `json:"parameters"`
	DependsOn    *int       `json:"dependsOn,omitempty"`
	OutputUsedBy []int      `json:"outputUsedBy,omitempty"`
}

// MultiActionIntent is an ordered list of actions.
type MultiActionIntent struct {
	Actions       []ParsedAction `json:"actions"`
	ExecutionMode ExecutionMode  `json:"executionMode"`
	TotalActions  int            `json:"totalActions"`
}

// IntentResult is what the classifier returns: exactly one of Single or
// Multi is set.
type IntentResult struct {
	Single *ParsedIntent      `json:"single,omitempty"`
	Multi  *MultiActionIntent `json:"multi,omitempty"`
}

// Actions normalises the result into an ordered action list. A single
// intent becomes a one-element list with order 1.
func (r *IntentResult) Actions() []ParsedAction {
	if r == nil {
		return nil
	}
	if r.Multi != nil {
		return r.Multi.Actions
	}
	if r.Single == nil {
		return nil
	}
	return []ParsedAction{{
		Order:      1,
		Type:       r.Single.Type,
		Confidence: r.Single.Confidence,
		Parameters: r.Single.Parameters,
	}}
}

// Mode returns the declared execution mode, defaulting to sequential.
func (r *IntentResult) Mode() ExecutionMode {
	if r == nil || r.Multi == nil {
		return ModeSequential
	}
	return r.Multi.ExecutionMode.OrDefault()
}
