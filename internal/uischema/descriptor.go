package uischema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// entry is one key of a schema object in document order.
type entry struct {
	name string
	raw  json.RawMessage
}

// orderedEntries walks a JSON object without losing key order. Anything that
// is not an object yields no entries.
func orderedEntries(raw json.RawMessage) []entry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var out []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		key, ok := tok.(string)
		if !ok {
			return out
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out
		}
		out = append(out, entry{name: key, raw: v})
	}
	return out
}

// descriptor is the lenient reading of one field descriptor. Values of the
// wrong JSON type are ignored rather than rejected.
type descriptor struct {
	kind        string
	label       string
	required    *bool
	placeholder string
	options     []string
	validation  *models.Validation
	declared    bool // validation object present
	min, max    *float64
	minLength   *int
	maxLength   *int
	pattern     string
	helpText    string
	description string
	format      string
}

func parseDescriptor(raw json.RawMessage) descriptor {
	raw = bytes.TrimSpace(raw)
	var d descriptor
	if len(raw) == 0 {
		return d
	}
	// "rate": "number" is shorthand for {"type": "number"}.
	if raw[0] == '"' {
		_ = json.Unmarshal(raw, &d.kind)
		return d
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return d
	}

	d.kind = str(m["type"])
	d.label = str(m["label"])
	d.required = boolPtr(m["required"])
	d.placeholder = str(m["placeholder"])
	d.options = stringSlice(m["options"])
	d.min = floatPtr(m["min"])
	d.max = floatPtr(m["max"])
	d.minLength = intPtr(m["minLength"])
	d.maxLength = intPtr(m["maxLength"])
	d.pattern = str(m["pattern"])
	d.helpText = str(m["helpText"])
	d.description = str(m["description"])
	d.format = str(m["format"])

	if v, ok := m["validation"]; ok {
		var vm map[string]json.RawMessage
		if err := json.Unmarshal(v, &vm); err == nil {
			d.declared = true
			d.validation = &models.Validation{
				Min:       floatPtr(vm["min"]),
				Max:       floatPtr(vm["max"]),
				MinLength: intPtr(vm["minLength"]),
				MaxLength: intPtr(vm["maxLength"]),
				Pattern:   str(vm["pattern"]),
			}
		}
	}
	return d
}

func str(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func boolPtr(raw json.RawMessage) *bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	return &b
}

func floatPtr(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	if s := str(raw); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

func intPtr(raw json.RawMessage) *int {
	f := floatPtr(raw)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func stringSlice(raw json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
