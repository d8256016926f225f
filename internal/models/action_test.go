package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ActionStatus
		want     ChainStatus
	}{
		{"empty", nil, ChainPending},
		{"all pending", []ActionStatus{StatusPending, StatusPending}, ChainPending},
		{"one running", []ActionStatus{StatusInProgress, StatusPending}, ChainInProgress},
		{"one failed", []ActionStatus{StatusCompleted, StatusFailed}, ChainInProgress},
		{"all completed", []ActionStatus{StatusCompleted, StatusCompleted}, ChainCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := make([]EnrichedAction, len(tt.statuses))
			for i, s := range tt.statuses {
				actions[i] = EnrichedAction{Order: i + 1, Status: s}
			}
			assert.Equal(t, tt.want, AggregateStatus(actions))
		})
	}
}

func TestActionChain_RefreshNeverRegresses(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := &ActionChain{Actions: []EnrichedAction{
		{Order: 1, Status: StatusCompleted},
		{Order: 2, Status: StatusCompleted},
	}}

	assert.True(t, c.Refresh(now))
	assert.Equal(t, ChainCompleted, c.Status)
	assert.Equal(t, now, *c.CompletedAt)

	c.Actions[1].Status = StatusInProgress
	assert.False(t, c.Refresh(now.Add(time.Minute)))
	assert.Equal(t, ChainCompleted, c.Status)
	assert.Equal(t, now, *c.CompletedAt)
}

func TestIntentResult_Actions(t *testing.T) {
	single := &IntentResult{Single: &ParsedIntent{Type: ActionSwap, Confidence: 0.9, Parameters: Params{"amount": Number(1)}}}
	acts := single.Actions()
	assert.Len(t, acts, 1)
	assert.Equal(t, 1, acts[0].Order)
	assert.Equal(t, ActionSwap, acts[0].Type)
	assert.Equal(t, ModeSequential, single.Mode())

	multi := &IntentResult{Multi: &MultiActionIntent{ExecutionMode: "bogus", Actions: []ParsedAction{{Order: 1}, {Order: 2}}}}
	assert.Len(t, multi.Actions(), 2)
	assert.Equal(t, ModeSequential, multi.Mode())
}

func TestPool_References(t *testing.T) {
	p := Pool{Token0: "ADA", Token1: "MIN"}
	assert.True(t, p.References("ada", "SUNDAE"))
	assert.True(t, p.References("", "MIN"))
	assert.False(t, p.References("HOSKY"))
}
