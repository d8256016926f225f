package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/actionengine"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/chains"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/execution"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/indexer"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/intent"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

type fakeOrchestrator struct {
	res *intent.Result
	err error
}

func (f *fakeOrchestrator) Orchestrate(context.Context, string) (*intent.Result, error) {
	return f.res, f.err
}

type fakeRegistry struct {
	dapps  map[string]models.DApp
	ifaces map[string]models.DAppInterface
}

func (f *fakeRegistry) GetDApp(_ context.Context, id string) (*models.DApp, error) {
	d, ok := f.dapps[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &d, nil
}

func (f *fakeRegistry) GetInterface(_ context.Context, dappID string, actionType models.ActionType) (*models.DAppInterface, error) {
	iface, ok := f.ifaces[dappID+":"+string(actionType)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &iface, nil
}

func (f *fakeRegistry) ListDApps(_ context.Context, filter storage.DAppFilter) ([]models.DApp, error) {
	var out []models.DApp
	for _, id := range []string{"liqwid-mainnet", "minswap-mainnet"} {
		d := f.dapps[id]
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRegistry) Stats(context.Context) (*models.RegistryStats, error) {
	return &models.RegistryStats{TotalDApps: len(f.dapps), ActiveDApps: len(f.dapps), ByCategory: map[models.Category]int{models.CategoryDEX: 1, models.CategoryLending: 1}}, nil
}

type fakeIndexer struct{}

func (fakeIndexer) RunOnce(context.Context) (*indexer.RunReport, error) {
	return &indexer.RunReport{Indexed: 2}, nil
}

func (fakeIndexer) Status(context.Context) (*indexer.Status, error) {
	return &indexer.Status{Interval: "1h0m0s", TotalDApps: 2}, nil
}

func newRegistry() *fakeRegistry {
	return &fakeRegistry{
		dapps: map[string]models.DApp{
			"minswap-mainnet": {ID: "minswap-mainnet", Name: "Minswap", Category: models.CategoryDEX, IsActive: true},
			"liqwid-mainnet":  {ID: "liqwid-mainnet", Name: "Liqwid", Category: models.CategoryLending, IsActive: true},
		},
		ifaces: map[string]models.DAppInterface{
			"minswap-mainnet:swap": {
				DAppID:       "minswap-mainnet",
				ActionType:   models.ActionSwap,
				InputSchema:  json.RawMessage(`{"fromToken":{"type":"token-selector","label":"From","required":true},"toToken":{"type":"token-selector","label":"To","required":true},"amount":{"type":"number","label":"Amount","required":true,"min":0}}`),
				OutputSchema: json.RawMessage(`{"outputAmount":"number"}`),
			},
			"liqwid-mainnet:stake": {
				DAppID:      "liqwid-mainnet",
				ActionType:  models.ActionStake,
				InputSchema: json.RawMessage(`{"token":{"type":"token-selector","required":true},"amount":{"type":"number","required":true,"min":0}}`),
			},
		},
	}
}

type testEnv struct {
	srv      *Server
	orch     *fakeOrchestrator
	chains   *chains.MemoryStore
	boundary *execution.MockBoundary
	handlers *Handlers
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newEnv(t *testing.T, cfg ServerConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		orch:     &fakeOrchestrator{},
		chains:   chains.NewMemoryStore(),
		boundary: execution.NewMockBoundary(0),
	}
	env.handlers = &Handlers{
		Orchestrator: env.orch,
		Registry:     newRegistry(),
		Chains:       env.chains,
		Engine: actionengine.Deps{
			Boundary: env.boundary,
			Store:    env.chains,
			Logger:   quietLogger(),
		},
		Classifier: func() bool { return true },
		DevMode:    cfg.DevMode,
		Logger:     quietLogger(),
	}
	srv, err := NewServer(ServerDeps{Handlers: env.handlers, Config: cfg})
	require.NoError(t, err)
	env.srv = srv
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestHealth(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	code, body := env.do(t, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["classifier"])
}

func TestParseIntent_EmptyInput(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	code, body := env.do(t, http.MethodPost, "/v1/intents", map[string]string{"input": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", body["category"])
}

func TestParseIntent_InvalidJSON(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	code, body := env.do(t, http.MethodPost, "/v1/intents", `{"input":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid json", body["error"])
}

func TestParseIntent_Success(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	env.orch.res = &intent.Result{
		ChainID:       "chain-1",
		ExecutionMode: models.ModeSequential,
		Actions: []models.EnrichedAction{
			{Order: 1, Type: models.ActionSwap, DAppID: "minswap-mainnet", Status: models.StatusPending, Alternatives: []models.Alternative{}},
			{Order: 2, Type: models.ActionStake, DAppID: "liqwid-mainnet", Status: models.StatusPending, Alternatives: []models.Alternative{}},
		},
	}

	code, body := env.do(t, http.MethodPost, "/v1/intents", map[string]string{"input": "swap 100 ADA to MIN then stake it"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "chain-1", body["chainId"])
	assert.Equal(t, "sequential", body["executionMode"])
	assert.Len(t, body["actions"], 2)
}

func TestParseIntent_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     int
		category string
		details  bool
	}{
		{
			name:     "resolution failure keeps suggestion",
			err:      apperr.New(apperr.ActionResolutionFailed, "no dApp available for action \"payment\"").WithDetail("suggestion", "Try Strike"),
			code:     http.StatusUnprocessableEntity,
			category: "action_resolution_failed",
			details:  true,
		},
		{
			name:     "classifier down",
			err:      apperr.Wrap(apperr.ClassificationUnavailable, errors.New("dial tcp"), "llm call failed"),
			code:     http.StatusServiceUnavailable,
			category: "classification_unavailable",
		},
		{
			name:     "malformed model output",
			err:      apperr.New(apperr.MalformedResponse, "classifier response is not valid JSON").WithDetail("raw", "nope"),
			code:     http.StatusBadGateway,
			category: "malformed_response",
		},
		{
			name:     "plain error",
			err:      errors.New("redis: connection refused"),
			code:     http.StatusInternalServerError,
			category: "internal",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv(t, ServerConfig{})
			env.orch.err = tc.err

			code, body := env.do(t, http.MethodPost, "/v1/intents", map[string]string{"input": "do something"})
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.category, body["category"])
			if tc.details {
				require.Contains(t, body, "details")
				assert.Equal(t, "Try Strike", body["details"].(map[string]any)["suggestion"])
			} else {
				assert.NotContains(t, body, "details", "causes stay hidden outside dev mode")
			}
		})
	}
}

func TestParseIntent_DevModeShowsCause(t *testing.T) {
	env := newEnv(t, ServerConfig{DevMode: true})
	env.orch.err = apperr.Wrap(apperr.ClassificationUnavailable, errors.New("dial tcp"), "llm call failed")

	code, body := env.do(t, http.MethodPost, "/v1/intents", map[string]string{"input": "swap"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "dial tcp", body["details"].(map[string]any)["cause"])
}

func TestExecute_Standalone(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	code, body := env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{
		"dappId":     "minswap-mainnet",
		"actionType": "swap",
		"parameters": map[string]any{"fromToken": "ADA", "toToken": "MIN", "amount": 100},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "completed", body["status"])
	assert.NotContains(t, body, "chainId")

	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "151.544000", result["fields"].(map[string]any)["outputAmount"])

	stored, err := env.chains.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "standalone actions are not persisted")
}

func TestExecute_InvalidForm(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	code, body := env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{
		"dappId":     "minswap-mainnet",
		"actionType": "swap",
		"parameters": map[string]any{"fromToken": "ADA", "toToken": "MIN", "amount": -5},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := body["details"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "Amount must be at least 0", fields["amount"])
}

func TestExecute_UnknownDAppAndInterface(t *testing.T) {
	env := newEnv(t, ServerConfig{})

	code, body := env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"dappId": "nope", "actionType": "swap"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["category"])

	code, body = env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"dappId": "liqwid-mainnet", "actionType": "swap"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "no_interface_found", body["category"])

	code, _ = env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"actionType": "swap"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func storedChain(t *testing.T, store *chains.MemoryStore) {
	t.Helper()
	one := 1
	require.NoError(t, store.Create(context.Background(), &models.ActionChain{
		ID:            "chain-1",
		IntentText:    "swap 100 ADA to MIN then stake it",
		ExecutionMode: models.ModeSequential,
		Status:        models.ChainPending,
		Actions: []models.EnrichedAction{
			{
				Order: 1, Type: models.ActionSwap, DAppID: "minswap-mainnet", DAppName: "Minswap",
				Parameters:   models.Params{"fromToken": models.String("ADA"), "toToken": models.String("MIN"), "amount": models.Number(100)},
				OutputUsedBy: []int{2}, Status: models.StatusPending, Alternatives: []models.Alternative{},
			},
			{
				Order: 2, Type: models.ActionStake, DAppID: "liqwid-mainnet", DAppName: "Liqwid",
				Parameters: models.Params{"token": models.String("MIN"), "amount": models.Ref{Action: 1}},
				DependsOn:  &one, Status: models.StatusPending, Alternatives: []models.Alternative{},
			},
		},
	}))
}

func TestExecute_ChainInOrder(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)

	stake := map[string]any{
		"chainId":     "chain-1",
		"actionOrder": 2,
		"dappId":      "liqwid-mainnet",
		"actionType":  "stake",
		"parameters":  map[string]any{"token": "MIN", "amount": map[string]any{"ref": map[string]any{"action": 1}}},
	}

	code, body := env.do(t, http.MethodPost, "/v1/actions/execute", stake)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "dependency_not_resolved", body["category"])

	code, body = env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{
		"chainId":     "chain-1",
		"actionOrder": 1,
		"dappId":      "minswap-mainnet",
		"actionType":  "swap",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "in_progress", body["chainStatus"])

	code, body = env.do(t, http.MethodPost, "/v1/actions/execute", stake)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "completed", body["chainStatus"])
	assert.Equal(t, "151.544", body["result"].(map[string]any)["fields"].(map[string]any)["stakedAmount"])

	code, body = env.do(t, http.MethodGet, "/v1/chains/chain-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", body["status"])
}

func TestExecute_ChainRequestErrors(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)

	code, _ := env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"chainId": "chain-1", "dappId": "minswap-mainnet", "actionType": "swap"})
	assert.Equal(t, http.StatusBadRequest, code, "actionOrder is required")

	code, _ = env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"chainId": "missing", "actionOrder": 1, "dappId": "minswap-mainnet", "actionType": "swap"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"chainId": "chain-1", "actionOrder": 9, "dappId": "minswap-mainnet", "actionType": "swap"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body := env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"chainId": "chain-1", "actionOrder": 1, "dappId": "minswap-mainnet", "actionType": "stake"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "swap", body["details"].(map[string]any)["actionType"])
}

func TestExecute_FailureIsRecorded(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)
	env.boundary.Register(models.ActionSwap, func(context.Context, execution.Request) (models.Params, error) {
		return nil, errors.New("pool drained")
	})

	code, body := env.do(t, http.MethodPost, "/v1/actions/execute", map[string]any{"chainId": "chain-1", "actionOrder": 1, "dappId": "minswap-mainnet", "actionType": "swap"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "execution_failed", body["category"])
	exec := body["details"].(map[string]any)["execution"].(map[string]any)
	assert.Equal(t, "failed", exec["status"])

	chain, err := env.chains.Get(context.Background(), "chain-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, chain.Action(1).Status)
	assert.Equal(t, "pool drained", chain.Action(1).Error)
}

func TestRunChain_CompletesInOrder(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)

	code, body := env.do(t, http.MethodPost, "/v1/chains/chain-1/run", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "completed", body["status"])

	actions := body["actions"].([]any)
	require.Len(t, actions, 2)
	stake := actions[1].(map[string]any)
	assert.Equal(t, "completed", stake["status"])
	assert.Equal(t, "151.544", stake["result"].(map[string]any)["fields"].(map[string]any)["stakedAmount"])

	chain, err := env.chains.Get(context.Background(), "chain-1")
	require.NoError(t, err)
	assert.Equal(t, models.ChainCompleted, chain.Status)

	code, body = env.do(t, http.MethodPost, "/v1/chains/chain-1/run", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "completed", body["status"])
}

func TestRunChain_FormOverridesParameters(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)
	var amounts []models.Value
	env.boundary.Register(models.ActionSwap, func(_ context.Context, req execution.Request) (models.Params, error) {
		amounts = append(amounts, req.Params["amount"])
		return models.Params{"outputAmount": models.String("10")}, nil
	})

	code, body := env.do(t, http.MethodPost, "/v1/chains/chain-1/run", map[string]any{
		"forms": map[string]any{"1": map[string]any{"fromToken": "ADA", "toToken": "MIN", "amount": 7}},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, []models.Value{models.Number(7)}, amounts)
}

func TestRunChain_HaltsOnFailure(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)
	env.boundary.Register(models.ActionSwap, func(context.Context, execution.Request) (models.Params, error) {
		return nil, errors.New("pool drained")
	})

	code, body := env.do(t, http.MethodPost, "/v1/chains/chain-1/run", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "execution_failed", body["category"])
	actions := body["details"].(map[string]any)["chain"].(map[string]any)["actions"].([]any)
	assert.Equal(t, "failed", actions[0].(map[string]any)["status"])
	assert.Equal(t, "pending", actions[1].(map[string]any)["status"])
}

func TestRunChain_RequestErrors(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)

	code, _ := env.do(t, http.MethodPost, "/v1/chains/bad.id/run", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/v1/chains/unknown/run", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, "/v1/chains/chain-1/run", map[string]any{"forms": map[string]any{"9": map[string]any{}}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/v1/chains/chain-1/run", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChains_ListAndGet(t *testing.T) {
	env := newEnv(t, ServerConfig{})
	storedChain(t, env.chains)

	code, body := env.do(t, http.MethodGet, "/v1/chains", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, _ = env.do(t, http.MethodGet, "/v1/chains/bad.id", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/v1/chains/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["category"])
}

func TestDApps(t *testing.T) {
	env := newEnv(t, ServerConfig{})

	code, body := env.do(t, http.MethodGet, "/v1/dapps?category=dex", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, _ = env.do(t, http.MethodGet, "/v1/dapps?category=casino", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/v1/dapps?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/v1/dapps/stats", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["totalDapps"])

	code, body = env.do(t, http.MethodGet, "/v1/dapps/minswap-mainnet", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Minswap", body["name"])

	code, _ = env.do(t, http.MethodGet, "/v1/dapps/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSchema(t *testing.T) {
	env := newEnv(t, ServerConfig{})

	code, body := env.do(t, http.MethodGet, "/v1/dapps/minswap-mainnet/schema/swap", nil)
	require.Equal(t, http.StatusOK, code)
	schema := body["uiSchema"].(map[string]any)
	assert.Equal(t, "Swap on Minswap", schema["title"])
	fields := schema["fields"].([]any)
	require.Len(t, fields, 3)
	assert.Equal(t, "fromToken", fields[0].(map[string]any)["name"])
	assert.Equal(t, map[string]any{"fromToken": "", "toToken": "", "amount": float64(0)}, body["defaultData"])

	code, body = env.do(t, http.MethodGet, "/v1/dapps/minswap-mainnet/schema/stake", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "no_interface_found", body["category"])
}

func TestValidateForm(t *testing.T) {
	env := newEnv(t, ServerConfig{})

	code, body := env.do(t, http.MethodPost, "/v1/schemas/validate", map[string]any{
		"dappId":     "minswap-mainnet",
		"actionType": "swap",
		"data":       map[string]any{"fromToken": "ADA", "amount": "abc"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["valid"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "To is required", errs["toToken"])
	assert.Equal(t, "Amount must be a valid number", errs["amount"])

	code, body = env.do(t, http.MethodPost, "/v1/schemas/validate", map[string]any{
		"uiSchema": map[string]any{
			"title":  "Inline",
			"fields": []any{map[string]any{"name": "note", "type": "text", "label": "Note", "required": true}},
		},
		"data": map[string]any{"note": "hi"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["valid"])

	code, _ = env.do(t, http.MethodPost, "/v1/schemas/validate", map[string]any{"data": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestIndexerEndpoints(t *testing.T) {
	env := newEnv(t, ServerConfig{})

	code, _ := env.do(t, http.MethodGet, "/v1/indexer/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	env.handlers.Indexer = fakeIndexer{}
	code, body := env.do(t, http.MethodGet, "/v1/indexer/status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1h0m0s", body["interval"])

	code, body = env.do(t, http.MethodPost, "/v1/indexer/run", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["indexed"])
}

func TestAPIKeyAndNotFound(t *testing.T) {
	env := newEnv(t, ServerConfig{APIKey: "secret"})

	code, _ := env.do(t, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, code, "health is public")

	code, body := env.do(t, http.MethodGet, "/v1/dapps", nil)
	assert.Equal(t, http.StatusBadRequest, code, "missing key header")
	assert.Equal(t, "http", body["category"])

	code, _ = env.do(t, http.MethodGet, "/v1/dapps", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodGet, "/v1/dapps", nil, "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodGet, "/v2/nothing", nil, "X-API-Key", "secret")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not found", body["error"])
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(ServerDeps{Handlers: &Handlers{}})
	require.Error(t, err)
	_, err = NewServer(ServerDeps{})
	require.Error(t, err)
}
