// Package uischema turns a dApp interface's declarative input and output
// schemas into a renderable form description, validates submitted form
// data against it and produces default form values.
package uischema

import (
	"strings"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Compile builds the UI schema for one dApp interface. It never fails:
// descriptors it cannot read degrade to a required text field.
func Compile(iface models.DAppInterface, dappName string) *models.UISchema {
	action := HumanizeAction(string(iface.ActionType))
	title := action
	if dappName != "" {
		title = action + " on " + dappName
	}

	schema := &models.UISchema{
		Title:            title,
		Description:      iface.ExampleUsage,
		Fields:           []models.Field{},
		SubmitButtonText: action,
		OutputDisplay:    models.OutputDisplay{Fields: []models.OutputField{}},
	}

	for _, e := range orderedEntries(iface.InputSchema) {
		schema.Fields = append(schema.Fields, compileField(e.name, parseDescriptor(e.raw)))
	}
	for _, e := range orderedEntries(iface.OutputSchema) {
		d := parseDescriptor(e.raw)
		label := d.label
		if label == "" {
			label = Humanize(e.name)
		}
		schema.OutputDisplay.Fields = append(schema.OutputDisplay.Fields, models.OutputField{
			Name:   e.name,
			Label:  label,
			Format: outputFormat(d.format),
		})
	}
	return schema
}

func compileField(name string, d descriptor) models.Field {
	kind := fieldKind(name, d)

	f := models.Field{
		Name:        name,
		Kind:        kind,
		Label:       d.label,
		Required:    true,
		Placeholder: d.placeholder,
		HelpText:    d.helpText,
	}
	if f.Label == "" {
		f.Label = Humanize(name)
	}
	if d.required != nil {
		f.Required = *d.required
	}
	if f.HelpText == "" {
		f.HelpText = d.description
	}
	// enforced only on select fields
	f.Options = d.options

	var v *models.Validation
	if d.declared {
		c := *d.validation
		v = &c
	} else {
		v = inferValidation(kind, d)
	}
	if kind == models.KindNumber && injectsMin(name, d) && (v == nil || v.Min == nil) {
		if v == nil {
			v = &models.Validation{}
		}
		zero := 0.0
		v.Min = &zero
	}
	if !v.IsZero() {
		f.Validation = v
	}
	return f
}

// fieldKind applies the declared kind first and falls back to the field name.
func fieldKind(name string, d descriptor) models.FieldKind {
	switch strings.ToLower(strings.TrimSpace(d.kind)) {
	case "number", "amount":
		return models.KindNumber
	case "select":
		if len(d.options) > 0 {
			return models.KindSelect
		}
	case "boolean", "checkbox":
		return models.KindCheckbox
	case "address":
		return models.KindAddress
	case "token", "token-selector":
		return models.KindTokenSelector
	}

	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "token"):
		return models.KindTokenSelector
	case strings.Contains(lower, "address"):
		return models.KindAddress
	}
	return models.KindText
}

func isAmount(name string, d descriptor) bool {
	return strings.EqualFold(strings.TrimSpace(d.kind), "amount") || strings.EqualFold(name, "amount")
}

// injectsMin reports whether a missing minimum becomes 0. Declared
// validation objects are kept verbatim except on a field named amount.
func injectsMin(name string, d descriptor) bool {
	if strings.EqualFold(name, "amount") {
		return true
	}
	return !d.declared && isAmount(name, d)
}

// inferValidation lifts top-level bounds that apply to the field's kind.
func inferValidation(kind models.FieldKind, d descriptor) *models.Validation {
	switch kind {
	case models.KindNumber:
		return &models.Validation{Min: d.min, Max: d.max}
	case models.KindText, models.KindAddress:
		return &models.Validation{MinLength: d.minLength, MaxLength: d.maxLength, Pattern: d.pattern}
	}
	return nil
}

func outputFormat(s string) models.OutputFormat {
	switch f := models.OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case models.FormatCurrency, models.FormatPercentage, models.FormatDate:
		return f
	}
	return models.FormatPlain
}
