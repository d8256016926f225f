// Package execution is the boundary between the chain executor and
// whatever actually performs an action.
package execution

import (
	"context"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Request is what the executor hands to the boundary.
type Request struct {
	ActionType models.ActionType
	DAppID     string
	DAppName   string
	Params     models.Params
}

// Boundary performs one action. A returned error means the boundary could
// not be reached; an action that ran and failed is reported through a
// result with Success false.
type Boundary interface {
	Execute(ctx context.Context, req Request) (*models.ActionResult, error)
}
