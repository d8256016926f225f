package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Value is a parameter value. The set of implementations is closed:
// String, Number, Bool and Ref.
type Value interface {
	isValue()
	// Text is the value as a user would type it into a form field.
	Text() string
}

type (
	String string
	Number float64
	Bool   bool
)

// Ref points at a field of a previous action's result in the same chain.
type Ref struct {
	Action int    `json:"action"`
	Field  string `json:"field,omitempty"`
}

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (Ref) isValue()    {}

func (s String) Text() string { return string(s) }
func (n Number) Text() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }
func (b Bool) Text() string   { return strconv.FormatBool(bool(b)) }
func (r Ref) Text() string {
	if r.Field == "" {
		return fmt.Sprintf("action %d output", r.Action)
	}
	return fmt.Sprintf("action %d %s", r.Action, r.Field)
}

// Params maps parameter names to values.
type Params map[string]Value

// Text returns the string form of key, or "" when absent.
func (p Params) Text(key string) string {
	if v, ok := p[key]; ok && v != nil {
		return v.Text()
	}
	return ""
}

// Refs returns the references contained in p keyed by parameter name.
func (p Params) Refs() map[string]Ref {
	out := make(map[string]Ref)
	for k, v := range p {
		if r, ok := v.(Ref); ok {
			out[k] = r
		}
	}
	return out
}

// Clone returns a shallow copy. Values are immutable so this is a full copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

type refEnvelope struct {
	Ref *Ref `json:"ref"`
}

// MarshalJSON encodes refs as {"ref": {"action": N, "field": "..."}} and
// primitives as plain JSON.
func (p Params) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch t := v.(type) {
		case String:
			out[k] = string(t)
		case Number:
			out[k] = float64(t)
		case Bool:
			out[k] = bool(t)
		case Ref:
			r := t
			out[k] = refEnvelope{Ref: &r}
		case nil:
			continue
		default:
			return nil, fmt.Errorf("unsupported parameter value %T", v)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an object of primitives. Nulls are dropped, nested
// arrays and objects other than a ref envelope are kept as their compact
// JSON text.
func (p *Params) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parameters must be an object: %w", err)
	}
	out := make(Params, len(raw))
	for k, msg := range raw {
		v, err := DecodeValue(msg)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", k, err)
		}
		if v != nil {
			out[k] = v
		}
	}
	*p = out
	return nil
}

// DecodeValue converts one JSON value into a Value. It returns nil for null.
func DecodeValue(msg json.RawMessage) (Value, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil, nil
	}
	switch c := msg[0]; {
	case c == 'n':
		return nil, nil
	case c == '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(msg, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case c == '-' || unicode.IsDigit(rune(c)):
		f, err := strconv.ParseFloat(string(msg), 64)
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case c == '{':
		var env refEnvelope
		if err := json.Unmarshal(msg, &env); err == nil && env.Ref != nil && env.Ref.Action > 0 {
			return Ref{Action: env.Ref.Action, Field: strings.TrimSpace(env.Ref.Field)}, nil
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, msg); err != nil {
		return nil, err
	}
	return String(buf.String()), nil
}

// FromAny converts a decoded JSON value (as produced by encoding/json into
// interface{}) into a Value.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return String(fmt.Sprint(t))
		}
		return String(string(b))
	}
}
