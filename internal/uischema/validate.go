package uischema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Validate checks form data against a compiled schema. Each field keeps at
// most one message; a later check overwrites an earlier one. Reference
// values are not checked since they only hold a value once resolved.
func Validate(form models.Params, schema *models.UISchema) models.ValidationResult {
	errs := make(map[string]string)
	if schema == nil {
		return models.ValidationResult{Valid: true, Errors: errs}
	}

	for _, f := range schema.Fields {
		v := form[f.Name]
		if isAbsent(v) {
			if f.Required {
				errs[f.Name] = f.Label + " is required"
			}
			continue
		}
		if _, ok := v.(models.Ref); ok {
			continue
		}

		switch f.Kind {
		case models.KindNumber:
			n, ok := numeric(v)
			if !ok {
				errs[f.Name] = f.Label + " must be a valid number"
				continue
			}
			if b := f.Validation; b != nil {
				if b.Min != nil && n.LessThan(decimal.NewFromFloat(*b.Min)) {
					errs[f.Name] = fmt.Sprintf("%s must be at least %s", f.Label, formatBound(*b.Min))
				}
				if b.Max != nil && n.GreaterThan(decimal.NewFromFloat(*b.Max)) {
					errs[f.Name] = fmt.Sprintf("%s must be at most %s", f.Label, formatBound(*b.Max))
				}
			}

		case models.KindText, models.KindAddress:
			b := f.Validation
			if b == nil {
				continue
			}
			s := v.Text()
			n := utf8.RuneCountInString(s)
			if b.MinLength != nil && *b.MinLength > 0 && n < *b.MinLength {
				errs[f.Name] = fmt.Sprintf("%s must be at least %d characters", f.Label, *b.MinLength)
			}
			if b.MaxLength != nil && *b.MaxLength > 0 && n > *b.MaxLength {
				errs[f.Name] = fmt.Sprintf("%s must be at most %d characters", f.Label, *b.MaxLength)
			}
			if b.Pattern != "" {
				// an uncompilable pattern is treated as no constraint
				if re, err := regexp.Compile(b.Pattern); err == nil && !re.MatchString(s) {
					errs[f.Name] = f.Label + " format is invalid"
				}
			}

		case models.KindSelect:
			if len(f.Options) > 0 && !contains(f.Options, v.Text()) {
				errs[f.Name] = fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
			}
		}
	}

	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func isAbsent(v models.Value) bool {
	if v == nil {
		return true
	}
	s, ok := v.(models.String)
	return ok && s == ""
}

func numeric(v models.Value) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case models.Number:
		return decimal.NewFromFloat(float64(t)), true
	case models.String:
		d, err := decimal.NewFromString(strings.TrimSpace(string(t)))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
