package models

// FieldKind is how an input field is rendered.
type FieldKind string

const (
	KindText          FieldKind = "text"
	KindNumber        FieldKind = "number"
	KindSelect        FieldKind = "select"
	KindTokenSelector FieldKind = "token-selector"
	KindAddress       FieldKind = "address"
	KindCheckbox      FieldKind = "checkbox"
)

// OutputFormat is the display format of an output field. Empty means plain.
type OutputFormat string

const (
	FormatPlain      OutputFormat = ""
	FormatCurrency   OutputFormat = "currency"
	FormatPercentage OutputFormat = "percentage"
	FormatDate       OutputFormat = "date"
)

// Validation holds the bounds applied to a field.
type Validation struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// IsZero reports whether no bound is set.
func (v *Validation) IsZero() bool {
	return v == nil || (v.Min == nil && v.Max == nil && v.MinLength == nil && v.MaxLength == nil && v.Pattern == "")
}

// Field is one input of a UI schema.
type Field struct {
	Name        string      `json:"name"`
	Kind        FieldKind   `json:"type"`
	Label       string      `json:"label"`
	Required    bool        `json:"required"`
	Placeholder string      `json:"placeholder,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Validation  *Validation `json:"validation,omitempty"`
	HelpText    string      `json:"helpText,omitempty"`
}

// OutputField is one entry of the output display.
type OutputField struct {
	Name   string       `json:"name"`
	Label  string       `json:"label"`
	Format OutputFormat `json:"format,omitempty"`
}

// OutputDisplay lists the result fields to show after execution.
type OutputDisplay struct {
	Fields []OutputField `json:"fields"`
}

// UISchema is the renderable description of one dApp action.
type UISchema struct {
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	Fields           []Field       `json:"fields"`
	SubmitButtonText string        `json:"submitButtonText"`
	OutputDisplay    OutputDisplay `json:"outputDisplay"`
}

// FieldByName returns the named field, if any.
func (s *UISchema) FieldByName(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ValidationResult is the outcome of validating form data. Errors holds at
// most one message per field.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}
