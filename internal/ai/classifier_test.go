package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

type fakeLLM struct {
	reply    string
	err      error
	delay    time.Duration
	messages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func newTestClassifier(t *testing.T, llm Model) *Classifier {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c, err := NewClassifier(ClassifierConfig{LLM: llm, Timeout: 50 * time.Millisecond, Logger: logger})
	require.NoError(t, err)
	return c
}

func TestClassify_SingleSwap(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n" + `{"type":"swap","confidence":0.95,"parameters":{"fromToken":"ADA","toToken":"DJED","amount":"100"}}` + "\n```"}
	c := newTestClassifier(t, llm)

	res, err := c.Classify(context.Background(), "swap 100 ADA for DJED")
	require.NoError(t, err)
	require.NotNil(t, res.Single)
	assert.Nil(t, res.Multi)
	assert.Equal(t, models.ActionSwap, res.Single.Type)
	assert.Equal(t, 0.95, res.Single.Confidence)
	assert.Equal(t, models.String("100"), res.Single.Parameters["amount"])

	require.Len(t, llm.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, llm.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.messages[1].Role)
	human, ok := llm.messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, human.Text, `"swap 100 ADA for DJED"`)
}

func TestClassify_MultiActionWithReference(t *testing.T) {
	reply := `{
	  "actions": [
	    {"order": 2, "type": "stake", "confidence": 0.8, "parameters": {"amount": {"ref": {"action": 1, "field": "outputAmount"}}}, "dependsOn": 1},
	    {"order": 1, "type": "Swap", "confidence": 0.9, "parameters": {"fromToken": "ADA", "toToken": "MIN", "amount": 100}, "outputUsedBy": [2]}
	  ],
	  "totalActions": 2
	}`
	c := newTestClassifier(t, &fakeLLM{reply: reply})

	res, err := c.Classify(context.Background(), "swap 100 ADA to MIN and stake it")
	require.NoError(t, err)
	require.NotNil(t, res.Multi)
	assert.Equal(t, models.ModeSequential, res.Multi.ExecutionMode)
	assert.Equal(t, 2, res.Multi.TotalActions)

	actions := res.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, 1, actions[0].Order)
	assert.Equal(t, models.ActionSwap, actions[0].Type)
	assert.Equal(t, models.Number(100), actions[0].Parameters["amount"])
	assert.Equal(t, models.Ref{Action: 1, Field: "outputAmount"}, actions[1].Parameters["amount"])
	require.NotNil(t, actions[1].DependsOn)
	assert.Equal(t, 1, *actions[1].DependsOn)
}

func TestClassify_ExternalPlatform(t *testing.T) {
	reply := `{"type":"nft-buy","confidence":0.7,"parameters":{},"suggestion":"Use an NFT marketplace","externalPlatform":{"name":"JPG Store","url":"https://www.jpg.store","reason":"For NFT purchases"}}`
	res, err := newTestClassifier(t, &fakeLLM{reply: reply}).Classify(context.Background(), "buy a spacebud")
	require.NoError(t, err)
	require.NotNil(t, res.Single.ExternalPlatform)
	assert.Equal(t, "JPG Store", res.Single.ExternalPlatform.Name)
	assert.Equal(t, "Use an NFT marketplace", res.Single.Suggestion)
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name string
		llm  Model
		text string
		kind apperr.Kind
	}{
		{name: "empty text", llm: &fakeLLM{}, text: "  ", kind: apperr.InvalidInput},
		{name: "no credential", llm: nil, text: "swap", kind: apperr.ClassificationUnavailable},
		{name: "upstream error", llm: &fakeLLM{err: errors.New("401 unauthorized")}, text: "swap", kind: apperr.ClassificationUnavailable},
		{name: "timeout", llm: &fakeLLM{delay: time.Second, reply: `{"type":"swap"}`}, text: "swap", kind: apperr.ClassificationUnavailable},
		{name: "prose", llm: &fakeLLM{reply: "Sure! You want to swap."}, text: "swap", kind: apperr.MalformedResponse},
		{name: "missing type", llm: &fakeLLM{reply: `{"confidence":0.5}`}, text: "swap", kind: apperr.MalformedResponse},
		{name: "confidence out of range", llm: &fakeLLM{reply: `{"type":"swap","confidence":7}`}, text: "swap", kind: apperr.MalformedResponse},
		{name: "bad mode", llm: &fakeLLM{reply: `{"actions":[{"order":1,"type":"swap"}],"executionMode":"whenever"}`}, text: "swap", kind: apperr.MalformedResponse},
		{name: "empty actions", llm: &fakeLLM{reply: `{"actions":[]}`}, text: "swap", kind: apperr.MalformedResponse},
		{name: "forward dependency", llm: &fakeLLM{reply: `{"actions":[{"order":1,"type":"swap","dependsOn":2},{"order":2,"type":"stake"}]}`}, text: "swap", kind: apperr.MalformedResponse},
		{name: "nested parameter", llm: &fakeLLM{reply: `{"type":"swap","parameters":{"route":["ADA","MIN"]}}`}, text: "swap", kind: apperr.MalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(t, nil)
			if tt.llm != nil {
				c = newTestClassifier(t, tt.llm)
			}
			res, err := c.Classify(context.Background(), tt.text)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err), err.Error())
		})
	}
}

func TestNewClassifier_WithoutCredential(t *testing.T) {
	c, err := NewClassifier(ClassifierConfig{Provider: "openrouter"})
	require.NoError(t, err)
	assert.False(t, c.Available())

	_, err = NewClassifier(ClassifierConfig{Provider: "carrier-pigeon", APIKey: "k"})
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                   `{"a":1}`,
		"```json\n{\"a\":1}\n```":   `{"a":1}`,
		"```\n{\"a\":1}\n```":       `{"a":1}`,
		"  ```JSON\n{\"a\":1}```  ": `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in), in)
	}
}
