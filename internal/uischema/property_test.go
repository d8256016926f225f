package uischema

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// buildInput encodes names as an input schema object, keeping their order.
func buildInput(names []string, descriptor string) json.RawMessage {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(n)
		b.Write(k)
		b.WriteByte(':')
		b.WriteString(descriptor)
	}
	b.WriteByte('}')
	return b.Bytes()
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func TestCompileProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("compiled fields keep descriptor order", prop.ForAll(
		func(names []string) bool {
			names = unique(names)
			s := Compile(models.DAppInterface{ActionType: "swap", InputSchema: buildInput(names, `{"type":"text"}`)}, "X")
			return reflect.DeepEqual(fieldNames(s), names)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("compile is deterministic", prop.ForAll(
		func(names []string, kind string) bool {
			iface := models.DAppInterface{ActionType: "stake", InputSchema: buildInput(unique(names), `{"type":"`+kind+`"}`)}
			return reflect.DeepEqual(Compile(iface, "Liqwid"), Compile(iface, "Liqwid"))
		},
		gen.SliceOf(gen.Identifier()),
		gen.OneConstOf("number", "amount", "select", "checkbox", "address", "token", "text", "weird"),
	))

	properties.Property("labels are never empty", prop.ForAll(
		func(names []string) bool {
			s := Compile(models.DAppInterface{ActionType: "swap", InputSchema: buildInput(unique(names), `{}`)}, "")
			for _, f := range s.Fields {
				if f.Label == "" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("empty form reports every required field", prop.ForAll(
		func(names []string) bool {
			names = unique(names)
			s := Compile(models.DAppInterface{ActionType: "swap", InputSchema: buildInput(names, `{"type":"text"}`)}, "")
			res := Validate(models.Params{}, s)
			if len(names) == 0 {
				return res.Valid
			}
			for _, f := range s.Fields {
				if res.Errors[f.Name] != f.Label+" is required" {
					return false
				}
			}
			return !res.Valid
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("amount number fields never go below zero", prop.ForAll(
		func(max float64) bool {
			in := json.RawMessage(`{"amount":{"type":"number","max":` + formatBound(max) + `}}`)
			s := Compile(models.DAppInterface{ActionType: "swap", InputSchema: in}, "")
			f := s.Fields[0]
			return f.Validation != nil && f.Validation.Min != nil && *f.Validation.Min == 0
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}
