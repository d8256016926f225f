package actionengine

import (
	"encoding/json"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Result fields consulted, in order, when a reference names no field.
var outputFields = []string{"outputAmount", "amount"}

// resolve checks that the action's dependencies have completed and returns
// form with every reference replaced by the referenced output.
func (r *Runner) resolve(order int, form models.Params) (models.Params, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.chain.Action(order)
	if a.DependsOn != nil {
		if _, err := r.completedLocked(order, *a.DependsOn); err != nil {
			return nil, err
		}
	}
	if r.chain.ExecutionMode == models.ModeSequential && order > 1 {
		if _, err := r.completedLocked(order, order-1); err != nil {
			return nil, err
		}
	}

	out := form.Clone()
	for name, ref := range form.Refs() {
		v, err := r.referenceLocked(order, ref)
		if err != nil {
			return nil, err.WithDetail("parameter", name)
		}
		out[name] = v
	}
	return out, nil
}

func (r *Runner) completedLocked(order, target int) (*models.EnrichedAction, *apperr.Error) {
	if target >= order {
		return nil, apperr.New(apperr.DependencyNotResolved, "action %d cannot depend on later action %d", order, target)
	}
	t := r.chain.Action(target)
	if t == nil {
		return nil, apperr.New(apperr.DependencyNotResolved, "action %d depends on unknown action %d", order, target)
	}
	if t.Status != models.StatusCompleted || t.Result == nil {
		return nil, apperr.New(apperr.DependencyNotResolved, "action %d depends on action %d which is %s", order, target, t.Status).
			WithDetail("dependsOn", target)
	}
	return t, nil
}

func (r *Runner) referenceLocked(order int, ref models.Ref) (models.Value, *apperr.Error) {
	t, err := r.completedLocked(order, ref.Action)
	if err != nil {
		return nil, err
	}
	return OutputValue(t.Result, ref.Field), nil
}

// OutputValue picks the value a reference resolves to: the named field when
// present, else outputAmount, else amount, else the whole result as JSON.
func OutputValue(res *models.ActionResult, field string) models.Value {
	if res == nil {
		return models.String("")
	}
	if field != "" {
		if v, ok := res.Fields[field]; ok && v != nil {
			return v
		}
	}
	for _, f := range outputFields {
		if v, ok := res.Fields[f]; ok && v != nil {
			return v
		}
	}
	raw, err := json.Marshal(res.Fields)
	if err != nil {
		return models.String("")
	}
	return models.String(raw)
}
