package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/actionengine"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/chains"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/indexer"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/intent"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/uischema"
)

// Orchestrator turns user text into enriched actions.
type Orchestrator interface {
	Orchestrate(ctx context.Context, text string) (*intent.Result, error)
}

// Registry is the read side of the dApp registry used by the API.
type Registry interface {
	GetDApp(ctx context.Context, id string) (*models.DApp, error)
	GetInterface(ctx context.Context, dappID string, actionType models.ActionType) (*models.DAppInterface, error)
	ListDApps(ctx context.Context, filter storage.DAppFilter) ([]models.DApp, error)
	Stats(ctx context.Context) (*models.RegistryStats, error)
}

// IndexerControl exposes the indexing scheduler.
type IndexerControl interface {
	RunOnce(ctx context.Context) (*indexer.RunReport, error)
	Status(ctx context.Context) (*indexer.Status, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Orchestrator Orchestrator       // Classifier + registry resolution
	Registry     Registry           // dApp registry reads
	Chains       storage.ChainStore // Persisted action chains
	Engine       actionengine.Deps  // Collaborators for every chain runner
	Indexer      IndexerControl     // Optional; indexer endpoints return 503 without it
	Classifier   func() bool        // Reports classifier availability for /health
	DevMode      bool               // Enable detailed error responses in development
	Logger       *logrus.Logger     // Structured logger
}

// fail renders err in the standard error format.
func (h *Handlers) fail(c echo.Context, err error) error {
	code, resp := errorResponse(err, h.DevMode)
	if code >= http.StatusInternalServerError {
		h.logger().WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.JSON(code, resp)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Classifier != nil {
		resp.Classifier = h.Classifier()
	}
	return c.JSON(http.StatusOK, resp)
}

// ParseIntent classifies the user's text and resolves a dApp for every action.
// Multi-action intents come back with the id of the persisted chain.
func (h *Handlers) ParseIntent(c echo.Context) error {
	var req IntentRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid json"))
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return h.fail(c, apperr.New(apperr.InvalidInput, "input is required").WithDetail("input", "required"))
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	res, err := h.Orchestrator.Orchestrate(ctx, req.Input)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Execute runs one action, either as part of a stored chain or standalone.
func (h *Handlers) Execute(c echo.Context) error {
	var req ExecuteRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid json"))
	}
	req.DAppID = strings.TrimSpace(req.DAppID)
	req.ActionType = models.ActionType(strings.ToLower(strings.TrimSpace(string(req.ActionType))))
	if req.DAppID == "" {
		return h.fail(c, apperr.New(apperr.InvalidInput, "dappId is required").WithDetail("dappId", "required"))
	}
	if req.ActionType == "" {
		return h.fail(c, apperr.New(apperr.InvalidInput, "actionType is required").WithDetail("actionType", "required"))
	}

	timeout := h.Engine.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), timeout+5*time.Second)
	defer cancel()

	dapp, err := h.Registry.GetDApp(ctx, req.DAppID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.fail(c, apperr.New(apperr.NotFound, "dApp %q not found", req.DAppID))
		}
		return h.fail(c, err)
	}

	var chain *models.ActionChain
	order := 1
	if req.ChainID != "" {
		if req.ActionOrder == nil {
			return h.fail(c, apperr.New(apperr.InvalidInput, "actionOrder is required with chainId").WithDetail("actionOrder", "required"))
		}
		order = *req.ActionOrder
		chain, err = h.chainAction(ctx, req, dapp, order)
	} else {
		chain, err = h.standalone(ctx, req, dapp)
	}
	if err != nil {
		return h.fail(c, err)
	}

	runner, err := actionengine.NewRunner(chain, h.Engine)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := runner.ExecuteAction(ctx, order, req.Parameters)
	if err != nil && !apperr.Is(err, apperr.ExecutionFailed) {
		return h.fail(c, err)
	}

	snap := runner.Chain()
	resp := ExecuteResponse{ChainID: snap.ID, ActionOrder: order, Result: result}
	if a := snap.Action(order); a != nil {
		resp.Status = a.Status
	}
	if snap.ID != "" {
		resp.ChainStatus = snap.Status
	}
	if err != nil {
		// the failure is recorded on the action; report it with the result
		code, body := errorResponse(err, h.DevMode)
		if body.Details == nil {
			body.Details = map[string]any{}
		}
		if m, ok := body.Details.(map[string]any); ok {
			m["execution"] = resp
		}
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, resp)
}

// chainAction loads the stored chain and points the addressed action at the
// requested dApp, which may be one of the alternatives offered at resolution.
func (h *Handlers) chainAction(ctx context.Context, req ExecuteRequest, dapp *models.DApp, order int) (*models.ActionChain, error) {
	if err := chains.ValidateID(req.ChainID); err != nil {
		return nil, apperr.New(apperr.InvalidInput, "invalid chain id").WithDetail("chainId", req.ChainID)
	}
	chain, err := h.Chains.Get(ctx, req.ChainID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "chain %q not found", req.ChainID)
		}
		return nil, err
	}
	a := chain.Action(order)
	if a == nil {
		return nil, apperr.New(apperr.NotFound, "chain %s has no action %d", req.ChainID, order)
	}
	if a.Type != req.ActionType {
		return nil, apperr.New(apperr.InvalidInput, "action %d is a %s action, not %s", order, a.Type, req.ActionType).
			WithDetail("actionType", a.Type)
	}
	if a.DAppID != dapp.ID {
		iface, err := h.iface(ctx, dapp, req.ActionType)
		if err != nil {
			return nil, err
		}
		a.DAppID = dapp.ID
		a.DAppName = dapp.Name
		a.UISchema = uischema.Compile(*iface, dapp.Name)
		a.Quote = nil
	}
	return chain, nil
}

// standalone wraps a single action in an unpersisted chain.
func (h *Handlers) standalone(ctx context.Context, req ExecuteRequest, dapp *models.DApp) (*models.ActionChain, error) {
	iface, err := h.iface(ctx, dapp, req.ActionType)
	if err != nil {
		return nil, err
	}
	params := req.Parameters
	if params == nil {
		params = models.Params{}
	}
	return &models.ActionChain{
		ExecutionMode: models.ModeSequential,
		Status:        models.ChainPending,
		Actions: []models.EnrichedAction{{
			Order:        1,
			Type:         req.ActionType,
			DAppID:       dapp.ID,
			DAppName:     dapp.Name,
			Parameters:   params,
			UISchema:     uischema.Compile(*iface, dapp.Name),
			Alternatives: []models.Alternative{},
			Status:       models.StatusPending,
		}},
	}, nil
}

func (h *Handlers) iface(ctx context.Context, dapp *models.DApp, actionType models.ActionType) (*models.DAppInterface, error) {
	iface, err := h.Registry.GetInterface(ctx, dapp.ID, actionType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.NoInterfaceFound, "%s has no interface for action type %q", dapp.Name, actionType).
				WithDetail("dappId", dapp.ID).
				WithDetail("actionType", actionType)
		}
		return nil, err
	}
	return iface, nil
}

// ListChains returns stored chains, newest first.
func (h *Handlers) ListChains(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Chains.List(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

// GetChain returns one chain with the current status of every action.
func (h *Handlers) GetChain(c echo.Context) error {
	id := c.Param("id")
	if err := chains.ValidateID(id); err != nil {
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid chain id"))
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	chain, err := h.Chains.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.fail(c, apperr.New(apperr.NotFound, "chain %q not found", id))
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, chain)
}

// RunChain executes every remaining action of a stored chain in its
// execution mode. Forms override the classified parameters per action order.
func (h *Handlers) RunChain(c echo.Context) error {
	id := c.Param("id")
	if err := chains.ValidateID(id); err != nil {
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid chain id"))
	}
	var req RunChainRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid json"))
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	chain, err := h.Chains.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.fail(c, apperr.New(apperr.NotFound, "chain %q not found", id))
		}
		return h.fail(c, err)
	}
	for order := range req.Forms {
		if chain.Action(order) == nil {
			return h.fail(c, apperr.New(apperr.InvalidInput, "chain %s has no action %d", id, order).WithDetail("forms", order))
		}
	}

	runner, err := actionengine.NewRunner(chain, h.Engine)
	if err != nil {
		return h.fail(c, err)
	}
	runErr := runner.Run(ctx, func(a models.EnrichedAction) models.Params {
		if form, ok := req.Forms[a.Order]; ok {
			return form
		}
		return actionengine.DefaultForm(a)
	})

	snap := runner.Chain()
	if runErr != nil {
		code, body := errorResponse(runErr, h.DevMode)
		if body.Details == nil {
			body.Details = map[string]any{}
		}
		if m, ok := body.Details.(map[string]any); ok {
			m["chain"] = snap
		}
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, snap)
}

// ListDApps lists registered dApps. Accepts category and active query
// parameters.
func (h *Handlers) ListDApps(c echo.Context) error {
	var filter storage.DAppFilter
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		filter.Category = models.Category(strings.ToLower(v))
		if !filter.Category.Valid() {
			return h.fail(c, apperr.New(apperr.InvalidInput, "invalid category").WithDetail("category", v))
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.QueryParam("active"))) {
	case "", "false":
	case "true", "1":
		filter.ActiveOnly = true
	default:
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid active flag").WithDetail("active", "must be boolean"))
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Registry.ListDApps(ctx, filter)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

// DAppStats summarises the registry.
func (h *Handlers) DAppStats(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Registry.Stats(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetDApp returns one dApp by id.
func (h *Handlers) GetDApp(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	dapp, err := h.Registry.GetDApp(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.fail(c, apperr.New(apperr.NotFound, "dApp %q not found", id))
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dapp)
}

// Schema compiles the form for a dApp action together with its default data.
func (h *Handlers) Schema(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	actionType := models.ActionType(strings.ToLower(strings.TrimSpace(c.Param("actionType"))))

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	dapp, err := h.Registry.GetDApp(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.fail(c, apperr.New(apperr.NotFound, "dApp %q not found", id))
		}
		return h.fail(c, err)
	}
	iface, err := h.iface(ctx, dapp, actionType)
	if err != nil {
		return h.fail(c, err)
	}

	schema := uischema.Compile(*iface, dapp.Name)
	return c.JSON(http.StatusOK, SchemaResponse{
		DAppID:      dapp.ID,
		ActionType:  actionType,
		UISchema:    schema,
		DefaultData: uischema.DefaultData(schema, nil),
	})
}

// ValidateForm checks form data against a UI schema.
func (h *Handlers) ValidateForm(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, apperr.New(apperr.InvalidInput, "invalid json"))
	}

	var schema *models.UISchema
	switch {
	case len(req.UISchema) > 0:
		schema = &models.UISchema{}
		if err := json.Unmarshal(req.UISchema, schema); err != nil {
			return h.fail(c, apperr.New(apperr.InvalidInput, "invalid uiSchema").WithDetail("uiSchema", err.Error()))
		}
	case req.DAppID != "" && req.ActionType != "":
		ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		dapp, err := h.Registry.GetDApp(ctx, req.DAppID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return h.fail(c, apperr.New(apperr.NotFound, "dApp %q not found", req.DAppID))
			}
			return h.fail(c, err)
		}
		iface, err := h.iface(ctx, dapp, req.ActionType)
		if err != nil {
			return h.fail(c, err)
		}
		schema = uischema.Compile(*iface, dapp.Name)
	default:
		return h.fail(c, apperr.New(apperr.InvalidInput, "uiSchema or dappId and actionType are required"))
	}

	return c.JSON(http.StatusOK, uischema.Validate(req.Data, schema))
}

// IndexerStatus reports the last indexing run and per-dApp freshness.
func (h *Handlers) IndexerStatus(c echo.Context) error {
	if h.Indexer == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "indexer is not configured", Code: http.StatusServiceUnavailable})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Indexer.Status(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// IndexerRun triggers one indexing pass and waits for it.
func (h *Handlers) IndexerRun(c echo.Context) error {
	if h.Indexer == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "indexer is not configured", Code: http.StatusServiceUnavailable})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	report, err := h.Indexer.RunOnce(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
