package server

import (
	"encoding/json"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error    string `json:"error"`              // Human-readable error message
	Code     int    `json:"code"`               // HTTP status code
	Category string `json:"category,omitempty"` // Machine-readable error kind
	Details  any    `json:"details,omitempty"`  // Structured context for the client
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK         bool `json:"ok"`
	Classifier bool `json:"classifier"` // false when no LLM credential is configured
}

// IntentRequest carries the user's natural-language instruction
type IntentRequest struct {
	Input string `json:"input"`
}

// ExecuteRequest asks for one action to be executed. ChainID and ActionOrder
// address an action of a stored chain; without them the action runs
// standalone.
type ExecuteRequest struct {
	ChainID     string            `json:"chainId,omitempty"`
	ActionOrder *int              `json:"actionOrder,omitempty"`
	DAppID      string            `json:"dappId"`
	ActionType  models.ActionType `json:"actionType"`
	Parameters  models.Params     `json:"parameters"`
}

// ExecuteResponse reports the outcome of an execution
type ExecuteResponse struct {
	ChainID     string               `json:"chainId,omitempty"`
	ActionOrder int                  `json:"actionOrder"`
	Status      models.ActionStatus  `json:"status"`
	Result      *models.ActionResult `json:"result"`
	ChainStatus models.ChainStatus   `json:"chainStatus,omitempty"`
}

// RunChainRequest carries optional form values keyed by action order.
type RunChainRequest struct {
	Forms map[int]models.Params `json:"forms,omitempty"`
}

// ListResponse wraps collection endpoints
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// SchemaResponse is the compiled form for one dApp action
type SchemaResponse struct {
	DAppID      string            `json:"dappId"`
	ActionType  models.ActionType `json:"actionType"`
	UISchema    *models.UISchema  `json:"uiSchema"`
	DefaultData models.Params     `json:"defaultData"`
}

// ValidateRequest validates form data against either an inline UI schema or
// the interface registered for dappId and actionType.
type ValidateRequest struct {
	UISchema   json.RawMessage   `json:"uiSchema,omitempty"`
	DAppID     string            `json:"dappId,omitempty"`
	ActionType models.ActionType `json:"actionType,omitempty"`
	Data       models.Params     `json:"data"`
}
