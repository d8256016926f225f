// Package actionengine executes the actions of a chain in dependency order,
// substituting references to earlier outputs and tracking status.
package actionengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/analytics"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/events"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/execution"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/uischema"
)

// Deps are the collaborators shared by every runner. Only Boundary is
// required.
type Deps struct {
	Boundary  execution.Boundary
	Store     storage.ChainStore
	Publisher storage.EventPublisher
	Analytics storage.AnalyticsSink
	Logger    *logrus.Logger

	// Timeout bounds a single boundary call.
	Timeout time.Duration

	// OnComplete is called once when the chain completes.
	OnComplete func(models.ActionChain)

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// FormFunc supplies the form values used when Run executes an action.
type FormFunc func(a models.EnrichedAction) models.Params

// Runner drives one action chain. It is safe for concurrent use.
type Runner struct {
	deps   Deps
	tracer trace.Tracer
	now    func() time.Time

	mu    sync.Mutex
	chain models.ActionChain

	done chan struct{}
	once sync.Once
}

// NewRunner takes ownership of a copy of chain. A chain with an empty ID is
// executed without persistence.
func NewRunner(chain *models.ActionChain, deps Deps) (*Runner, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain is nil")
	}
	if deps.Boundary == nil {
		return nil, fmt.Errorf("execution boundary is required")
	}
	if len(chain.Actions) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "chain has no actions")
	}

	nodes := make([]models.DependencyNode, 0, len(chain.Actions))
	for _, a := range chain.Actions {
		nodes = append(nodes, a.Node())
	}
	if err := models.ValidateDependencies(nodes); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid action chain")
	}

	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Analytics == nil {
		deps.Analytics = analytics.Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = constants.DefaultExecutionTimeout
	}
	if deps.TracerProvider == nil {
		deps.TracerProvider = otel.GetTracerProvider()
	}

	r := &Runner{
		deps:   deps,
		tracer: deps.TracerProvider.Tracer("actionengine"),
		now:    func() time.Time { return time.Now().UTC() },
		chain:  *chain,
		done:   make(chan struct{}),
	}
	r.chain.Actions = append([]models.EnrichedAction(nil), chain.Actions...)
	r.chain.ExecutionMode = r.chain.ExecutionMode.OrDefault()
	for i := range r.chain.Actions {
		if r.chain.Actions[i].Status == "" {
			r.chain.Actions[i].Status = models.StatusPending
		}
	}
	if r.chain.Status == models.ChainCompleted {
		r.once.Do(func() { close(r.done) })
	}
	return r, nil
}

// Done is closed when every action of the chain has completed.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Chain returns a snapshot of the chain.
func (r *Runner) Chain() models.ActionChain {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.chain
	c.Actions = append([]models.EnrichedAction(nil), r.chain.Actions...)
	return c
}

// ExecuteAction runs the action with the given order using form as its
// parameters; a nil form falls back to the classified parameters.
//
// When a dependency has not completed the action is returned to pending and
// a DependencyNotResolved error is returned. Invalid input likewise leaves
// the action pending. A boundary error or unsuccessful result marks the
// action failed.
func (r *Runner) ExecuteAction(ctx context.Context, order int, form models.Params) (*models.ActionResult, error) {
	ctx, span := r.tracer.Start(ctx, "actionengine.ExecuteAction", trace.WithAttributes(
		attribute.String("chain.id", r.chain.ID),
		attribute.Int("action.order", order),
	))
	defer span.End()

	started, err := r.start(order, form)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if form == nil {
		form = started.Parameters
	}
	r.record(ctx, started, storage.EventActionStarted, "")

	resolved, err := r.resolve(order, form)
	if err == nil && started.UISchema != nil {
		if v := uischema.Validate(resolved, started.UISchema); !v.Valid {
			err = apperr.New(apperr.InvalidInput, "action %d has invalid input", order).WithDetail("fields", v.Errors)
		}
	}
	if err != nil {
		r.revert(ctx, order, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	begin := r.now()
	callCtx, cancel := context.WithTimeout(ctx, r.deps.Timeout)
	result, callErr := r.deps.Boundary.Execute(callCtx, execution.Request{
		ActionType: started.Type,
		DAppID:     started.DAppID,
		DAppName:   started.DAppName,
		Params:     resolved,
	})
	cancel()
	if callErr == nil && (result == nil || !result.Success) {
		msg := "execution failed"
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		callErr = errors.New(msg)
	}

	finished, completedNow := r.finish(order, resolved, result, callErr)
	if callErr != nil {
		r.record(ctx, finished, storage.EventActionFailed, callErr.Error())
	} else {
		r.record(ctx, finished, storage.EventActionDone, "")
	}
	r.track(ctx, finished, time.Since(begin))
	if completedNow {
		r.complete(ctx)
	}

	if callErr != nil {
		span.RecordError(callErr)
		span.SetStatus(codes.Error, callErr.Error())
		return result, apperr.Wrap(apperr.ExecutionFailed, callErr, "action %d (%s) failed", order, started.Type)
	}
	return result, nil
}

// start moves the action to in_progress.
func (r *Runner) start(order int, form models.Params) (models.EnrichedAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.chain.Action(order)
	if a == nil {
		return models.EnrichedAction{}, apperr.New(apperr.NotFound, "chain has no action %d", order)
	}
	switch {
	case a.Status.Terminal():
		return models.EnrichedAction{}, apperr.New(apperr.Conflict, "action %d is already %s", order, a.Status)
	case a.Status == models.StatusInProgress:
		return models.EnrichedAction{}, apperr.New(apperr.Conflict, "action %d is already running", order)
	}
	a.Status = models.StatusInProgress
	a.Error = ""
	r.chain.Refresh(r.now())
	return *a, nil
}

// revert returns an action to pending after a pre-execution check failed.
func (r *Runner) revert(ctx context.Context, order int, cause error) {
	r.mu.Lock()
	a := r.chain.Action(order)
	a.Status = models.StatusPending
	a.Error = cause.Error()
	r.chain.Refresh(r.now())
	snap := *a
	r.mu.Unlock()

	r.record(ctx, snap, storage.EventActionDeferred, cause.Error())
}

func (r *Runner) finish(order int, params models.Params, result *models.ActionResult, err error) (models.EnrichedAction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.chain.Action(order)
	a.Parameters = params
	a.Result = result
	if err != nil {
		a.Status = models.StatusFailed
		a.Error = err.Error()
	} else {
		a.Status = models.StatusCompleted
		a.Error = ""
	}
	return *a, r.chain.Refresh(r.now())
}

// record persists the action and publishes the matching event. Both are
// best effort: failures are logged and execution continues.
func (r *Runner) record(ctx context.Context, a models.EnrichedAction, typ storage.EventType, msg string) {
	if r.chain.ID == "" {
		return
	}
	if r.deps.Store != nil {
		if _, err := r.deps.Store.SaveAction(ctx, r.chain.ID, a); err != nil {
			r.deps.Logger.WithError(err).WithFields(logrus.Fields{
				"chain_id": r.chain.ID,
				"order":    a.Order,
			}).Warn("persist action failed")
		}
	}
	r.publish(ctx, storage.ChainEvent{
		Type:       typ,
		ChainID:    r.chain.ID,
		Order:      a.Order,
		ActionType: a.Type,
		Status:     a.Status,
		Error:      msg,
		Timestamp:  r.now(),
	})
}

func (r *Runner) publish(ctx context.Context, ev storage.ChainEvent) {
	if err := r.deps.Publisher.Publish(ctx, ev); err != nil {
		r.deps.Logger.WithError(err).WithField("event", ev.Type).Warn("publish chain event failed")
	}
}

func (r *Runner) track(ctx context.Context, a models.EnrichedAction, took time.Duration) {
	rec := storage.ExecutionRecord{
		ExecutionID: uuid.NewString(),
		ChainID:     r.chain.ID,
		Order:       a.Order,
		DAppID:      a.DAppID,
		ActionType:  string(a.Type),
		Status:      string(a.Status),
		Error:       a.Error,
		DurationMs:  took.Milliseconds(),
		ExecutedAt:  r.now(),
	}
	if err := r.deps.Analytics.InsertExecution(ctx, rec); err != nil {
		r.deps.Logger.WithError(err).Warn("record execution failed")
	}
}

func (r *Runner) complete(ctx context.Context) {
	r.once.Do(func() {
		close(r.done)
		snap := r.Chain()
		r.deps.Logger.WithFields(logrus.Fields{
			"chain_id": snap.ID,
			"actions":  len(snap.Actions),
		}).Info("action chain completed")
		if snap.ID != "" {
			r.publish(ctx, storage.ChainEvent{
				Type:      storage.EventChainCompleted,
				ChainID:   snap.ID,
				Timestamp: r.now(),
			})
		}
		if r.deps.OnComplete != nil {
			r.deps.OnComplete(snap)
		}
	})
}

// Next returns the action a sequential chain would execute next. It reports
// false when the chain is finished, an action is running, or a failure has
// halted progress.
func (r *Runner) Next() (models.EnrichedAction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i <= len(r.chain.Actions); i++ {
		a := r.chain.Action(i)
		switch a.Status {
		case models.StatusCompleted:
			continue
		case models.StatusPending:
			return *a, true
		default:
			return models.EnrichedAction{}, false
		}
	}
	return models.EnrichedAction{}, false
}

// Ready returns the pending actions whose dependencies have all completed.
// In sequential mode that is at most the next action.
func (r *Runner) Ready() []models.EnrichedAction {
	if r.chain.ExecutionMode == models.ModeSequential {
		if a, ok := r.Next(); ok {
			return []models.EnrichedAction{a}
		}
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EnrichedAction
	for _, a := range r.chain.Actions {
		if a.Status != models.StatusPending {
			continue
		}
		if r.dependenciesMetLocked(a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *Runner) dependenciesMetLocked(a models.EnrichedAction) bool {
	for _, d := range a.Node().Dependencies() {
		if dep := r.chain.Action(d); dep == nil || dep.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}

// Run executes every remaining action. Sequential chains run strictly in
// order and stop at the first error. Parallel and mixed chains run each
// wave of ready actions concurrently; a failure only blocks the actions
// that depend on it. Each action is attempted at most once per call.
func (r *Runner) Run(ctx context.Context, forms FormFunc) error {
	if forms == nil {
		forms = DefaultForm
	}

	if r.chain.ExecutionMode == models.ModeSequential {
		for {
			a, ok := r.Next()
			if !ok {
				return nil
			}
			if _, err := r.ExecuteAction(ctx, a.Order, forms(a)); err != nil {
				return err
			}
		}
	}

	attempted := make(map[int]bool)
	var (
		mu   sync.Mutex
		errs []error
	)
	for {
		var wave []models.EnrichedAction
		for _, a := range r.Ready() {
			if !attempted[a.Order] {
				wave = append(wave, a)
				attempted[a.Order] = true
			}
		}
		if len(wave) == 0 {
			break
		}

		var g errgroup.Group
		for _, a := range wave {
			g.Go(func() error {
				if _, err := r.ExecuteAction(ctx, a.Order, forms(a)); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return errors.Join(errs...)
}

// DefaultForm is the classified parameters with per-kind defaults filled in
// for schema fields the classifier did not provide.
func DefaultForm(a models.EnrichedAction) models.Params {
	form := a.Parameters.Clone()
	if a.UISchema == nil {
		return form
	}
	for k, v := range uischema.DefaultData(a.UISchema, a.Parameters) {
		if _, ok := form[k]; !ok {
			form[k] = v
		}
	}
	return form
}
