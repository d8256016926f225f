package models

import "time"

// ActionStatus is the lifecycle state of one action.
type ActionStatus string

const (
	StatusPending    ActionStatus = "pending"
	StatusInProgress ActionStatus = "in_progress"
	StatusCompleted  ActionStatus = "completed"
	StatusFailed     ActionStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s ActionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ChainStatus is the aggregate state of an action chain.
type ChainStatus string

const (
	ChainPending    ChainStatus = "pending"
	ChainInProgress ChainStatus = "in_progress"
	ChainCompleted  ChainStatus = "completed"
)

// ActionResult is the output of the execution boundary for one action.
type ActionResult struct {
	Success bool   `json:"success"`
	Fields  Params `json:"fields,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EnrichedAction is a parsed action bound to a concrete dApp.
type EnrichedAction struct {
	Order        int           `json:"order"`
	Type         ActionType    `json:"type"`
	DAppID       string        `json:"dappId"`
	DAppName     string        `json:"dappName"`
	Parameters   Params        `json:"parameters"`
	Confidence   float64       `json:"confidence"`
	DependsOn    *int          `json:"dependsOn,omitempty"`
	OutputUsedBy []int         `json:"outputUsedBy,omitempty"`
	UISchema     *UISchema     `json:"uiSchema,omitempty"`
	Quote        *Quote        `json:"quote,omitempty"`
	Alternatives []Alternative `json:"alternatives"`
	Status       ActionStatus  `json:"status"`
	Result       *ActionResult `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// ActionChain is a persisted multi-action execution.
type ActionChain struct {
	ID            string           `json:"id"`
	IntentText    string           `json:"intentText"`
	Actions       []EnrichedAction `json:"actions"`
	Status        ChainStatus      `json:"status"`
	ExecutionMode ExecutionMode    `json:"executionMode"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

// Action returns a pointer to the action with the given order.
func (c *ActionChain) Action(order int) *EnrichedAction {
	if c == nil {
		return nil
	}
	for i := range c.Actions {
		if c.Actions[i].Order == order {
			return &c.Actions[i]
		}
	}
	return nil
}

// AggregateStatus derives a chain status from its actions: completed when
// every action completed, pending when none has started, otherwise in
// progress.
func AggregateStatus(actions []EnrichedAction) ChainStatus {
	if len(actions) == 0 {
		return ChainPending
	}
	completed, started := 0, 0
	for _, a := range actions {
		if a.Status == StatusCompleted {
			completed++
		}
		if a.Status != StatusPending && a.Status != "" {
			started++
		}
	}
	switch {
	case completed == len(actions):
		return ChainCompleted
	case started > 0:
		return ChainInProgress
	default:
		return ChainPending
	}
}

// Refresh recomputes the chain status. A completed chain stays completed.
// It reports whether the chain became completed by this call.
func (c *ActionChain) Refresh(now time.Time) bool {
	c.UpdatedAt = now
	if c.Status == ChainCompleted {
		return false
	}
	c.Status = AggregateStatus(c.Actions)
	if c.Status == ChainCompleted {
		t := now
		c.CompletedAt = &t
		return true
	}
	return false
}
