package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_UnmarshalVariants(t *testing.T) {
	var p Params
	err := json.Unmarshal([]byte(`{
		"fromToken": "ADA",
		"amount": 100.5,
		"confirm": true,
		"skip": null,
		"stakeAmount": {"ref": {"action": 1, "field": "outputAmount"}},
		"route": ["a", "b"],
		"note": "from_action_1"
	}`), &p)
	require.NoError(t, err)

	assert.Equal(t, String("ADA"), p["fromToken"])
	assert.Equal(t, Number(100.5), p["amount"])
	assert.Equal(t, Bool(true), p["confirm"])
	assert.NotContains(t, p, "skip")
	assert.Equal(t, Ref{Action: 1, Field: "outputAmount"}, p["stakeAmount"])
	assert.Equal(t, String(`["a","b"]`), p["route"])
	// a literal string that looks like a sentinel stays a string
	assert.Equal(t, String("from_action_1"), p["note"])
	assert.Len(t, p.Refs(), 1)
}

func TestParams_MarshalKeepsRefEnvelope(t *testing.T) {
	p := Params{
		"amount": Number(10),
		"token":  String("MIN"),
		"stake":  Ref{Action: 2},
	}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":10,"token":"MIN","stake":{"ref":{"action":2}}}`, string(b))

	var back Params
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, p, back)
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "100", Number(100).Text())
	assert.Equal(t, "0.25", Number(0.25).Text())
	assert.Equal(t, "false", Bool(false).Text())
	assert.Equal(t, "action 1 outputAmount", Ref{Action: 1, Field: "outputAmount"}.Text())
	assert.Equal(t, "", Params{}.Text("missing"))
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, String("x"), FromAny("x"))
	assert.Equal(t, Number(3), FromAny(3))
	assert.Equal(t, Number(2.5), FromAny(json.Number("2.5")))
	assert.Nil(t, FromAny(nil))
	assert.Equal(t, String(`{"a":1}`), FromAny(map[string]any{"a": 1}))
}
