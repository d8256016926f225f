package uischema

import "github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"

// DefaultData returns initial form values: the caller's value when given,
// otherwise a per-kind default.
func DefaultData(schema *models.UISchema, initial models.Params) models.Params {
	out := make(models.Params)
	if schema == nil {
		return out
	}
	for _, f := range schema.Fields {
		if v, ok := initial[f.Name]; ok && v != nil {
			out[f.Name] = v
			continue
		}
		out[f.Name] = defaultValue(f)
	}
	return out
}

func defaultValue(f models.Field) models.Value {
	switch f.Kind {
	case models.KindCheckbox:
		return models.Bool(false)
	case models.KindNumber:
		if f.Validation != nil && f.Validation.Min != nil {
			return models.Number(*f.Validation.Min)
		}
		return models.Number(0)
	case models.KindSelect:
		if len(f.Options) > 0 {
			return models.String(f.Options[0])
		}
	}
	return models.String("")
}
