// Package registry picks the dApp that will serve an action.
package registry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/uischema"
)

// DefaultCandidateLimit caps how many dApps one lookup considers.
const DefaultCandidateLimit = 5

// placeholderEstimate is reported until quotes are priced from pool reserves.
const placeholderEstimate = "0"

// Finder is the registry query the resolver depends on.
type Finder interface {
	FindByActionType(ctx context.Context, actionType models.ActionType, limit int, tokens ...string) ([]models.Candidate, error)
}

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	Store          Finder
	CandidateLimit int
	Logger         *logrus.Logger
}

// Resolver selects a provider dApp and compiles its UI schema.
type Resolver struct {
	store  Finder
	limit  int
	logger *logrus.Logger
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	DApp         models.DApp
	Interface    models.DAppInterface
	UISchema     *models.UISchema
	Quote        *models.Quote
	Alternatives []models.Alternative
}

// NewResolver creates a resolver over the given store.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("registry store is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}
	return &Resolver{store: cfg.Store, limit: cfg.CandidateLimit, logger: cfg.Logger}, nil
}

// Resolve finds the dApp that serves actionType. Swaps naming both tokens
// prefer the first candidate with a pool trading either token; everything
// else takes the first candidate in query order.
func (r *Resolver) Resolve(ctx context.Context, actionType models.ActionType, params models.Params) (*Resolution, error) {
	var tokens []string
	from, to := params.Text("fromToken"), params.Text("toToken")
	pairQuery := actionType == models.ActionSwap && from != "" && to != ""
	if pairQuery {
		tokens = []string{from, to}
	}

	candidates, err := r.store.FindByActionType(ctx, actionType, r.limit, tokens...)
	if err != nil {
		return nil, fmt.Errorf("find providers for %s: %w", actionType, err)
	}
	if len(candidates) > r.limit {
		candidates = candidates[:r.limit]
	}
	if len(candidates) == 0 {
		return nil, apperr.New(apperr.NoProviderFound, "no provider found for action type %q", actionType).
			WithDetail("actionType", actionType)
	}

	selected := candidates[0]
	var quote *models.Quote
	if pairQuery {
	search:
		for _, c := range candidates {
			for _, p := range c.Pools {
				if p.References(from, to) {
					selected = c
					quote = &models.Quote{
						Provider:       c.DApp.Name,
						PoolAddress:    p.PoolAddress,
						Fee:            p.Fee,
						OutputEstimate: placeholderEstimate,
						IsPlaceholder:  true,
					}
					break search
				}
			}
		}
	}

	iface, ok := interfaceFor(selected, actionType)
	if !ok {
		return nil, apperr.New(apperr.NoInterfaceFound, "%s has no interface for action type %q", selected.DApp.Name, actionType).
			WithDetail("dappId", selected.DApp.ID).
			WithDetail("actionType", actionType)
	}

	alternatives := make([]models.Alternative, 0, len(candidates))
	for _, c := range candidates {
		alternatives = append(alternatives, models.Alternative{ID: c.DApp.ID, Name: c.DApp.Name, Type: c.DApp.Category})
	}

	r.logger.WithFields(logrus.Fields{
		"action_type": actionType,
		"dapp":        selected.DApp.ID,
		"candidates":  len(candidates),
		"quoted":      quote != nil,
	}).Debug("resolved provider")

	return &Resolution{
		DApp:         selected.DApp,
		Interface:    iface,
		UISchema:     uischema.Compile(iface, selected.DApp.Name),
		Quote:        quote,
		Alternatives: alternatives,
	}, nil
}

func interfaceFor(c models.Candidate, actionType models.ActionType) (models.DAppInterface, bool) {
	for _, i := range c.Interfaces {
		if i.ActionType == actionType {
			return i, true
		}
	}
	return models.DAppInterface{}, false
}
