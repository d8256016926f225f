// Package ai turns free text into a structured intent using a language
// model.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

// Model is the part of a langchaingo model the classifier uses.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ClassifierConfig holds configuration for the intent classifier.
type ClassifierConfig struct {
	// Provider is "openrouter" (OpenAI-compatible API) or "anthropic".
	Provider string
	APIKey   string
	Model    string

	Timeout   time.Duration
	MaxTokens int

	// LLM overrides the provider client.
	LLM Model

	Logger *logrus.Logger
}

// Classifier implements intent classification.
type Classifier struct {
	llm       Model
	model     string
	timeout   time.Duration
	maxTokens int
	logger    *logrus.Logger
}

// NewClassifier builds the LLM client for the configured provider. A
// missing credential is not an error here: the classifier is created and
// every Classify call reports ClassificationUnavailable.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultClassifierTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = constants.MaxClassifierTokens
	}
	if cfg.Provider == "" {
		cfg.Provider = constants.ProviderOpenRouter
	}

	c := &Classifier{
		llm:       cfg.LLM,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}
	if c.llm != nil || cfg.APIKey == "" {
		if c.llm == nil {
			cfg.Logger.Warn("no language model credential configured, intent classification is unavailable")
		}
		return c, nil
	}

	switch cfg.Provider {
	case constants.ProviderOpenRouter:
		if cfg.Model == "" {
			cfg.Model = constants.DefaultOpenRouterModel
		}
		llm, err := openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(constants.OpenRouterBaseURL),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
		}
		c.llm = llm
	case constants.ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = constants.DefaultAnthropicModel
		}
		llm, err := anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic LLM: %w", err)
		}
		c.llm = llm
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	c.model = cfg.Model

	cfg.Logger.WithFields(logrus.Fields{
		"provider": cfg.Provider,
		"model":    cfg.Model,
	}).Info("initialized intent classifier")
	return c, nil
}

// Available reports whether a model is configured.
func (c *Classifier) Available() bool { return c.llm != nil }

// Classify sends text to the model and parses the reply. Upstream failures
// are reported as ClassificationUnavailable and replies that do not match
// the response contract as MalformedResponse; neither is retried.
func (c *Classifier) Classify(ctx context.Context, text string) (*models.IntentResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.InvalidInput, "intent text is required")
	}
	if len(text) > constants.MaxIntentTextLength {
		return nil, apperr.New(apperr.InvalidInput, "intent text exceeds %d characters", constants.MaxIntentTextLength)
	}
	if c.llm == nil {
		return nil, apperr.New(apperr.ClassificationUnavailable, "language model credential is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemInstruction),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt(text)),
	},
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(0),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.ClassificationUnavailable, err, "language model request failed")
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, apperr.New(apperr.MalformedResponse, "language model returned no choices")
	}

	raw := resp.Choices[0].Content
	result, err := Parse(raw)
	if err != nil {
		c.logger.WithError(err).WithField("raw", raw).Warn("unparseable classifier response")
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"model":   c.model,
		"actions": len(result.Actions()),
		"mode":    result.Mode(),
		"took":    time.Since(start).String(),
	}).Debug("classified intent")
	return result, nil
}

type wireResponse struct {
	Type             models.ActionType        `json:"type"`
	Confidence       float64                  `json:"confidence"`
	Parameters       models.Params            `json:"parameters"`
	Suggestion       string                   `json:"suggestion"`
	ExternalPlatform *models.ExternalPlatform `json:"externalPlatform"`

	Actions       []models.ParsedAction `json:"actions"`
	ExecutionMode models.ExecutionMode  `json:"executionMode"`
}

// Parse strips code fences from a model reply and decodes it against the
// response contract.
func Parse(raw string) (*models.IntentResult, error) {
	body := StripFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, apperr.Wrap(apperr.MalformedResponse, err, "classifier response is not valid JSON").
			WithDetail("raw", raw)
	}
	if err := contract.Validate(doc); err != nil {
		return nil, apperr.Wrap(apperr.MalformedResponse, err, "classifier response does not match the intent contract").
			WithDetail("raw", raw)
	}

	var w wireResponse
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, apperr.Wrap(apperr.MalformedResponse, err, "decode classifier response").
			WithDetail("raw", raw)
	}

	if _, multi := doc.(map[string]any)["actions"]; !multi {
		return &models.IntentResult{Single: &models.ParsedIntent{
			Type:             normalizeType(w.Type),
			Confidence:       w.Confidence,
			Parameters:       nonNil(w.Parameters),
			Suggestion:       w.Suggestion,
			ExternalPlatform: w.ExternalPlatform,
		}}, nil
	}

	actions := w.Actions
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Order < actions[j].Order })
	nodes := make([]models.DependencyNode, 0, len(actions))
	for i := range actions {
		actions[i].Type = normalizeType(actions[i].Type)
		actions[i].Parameters = nonNil(actions[i].Parameters)
		nodes = append(nodes, actions[i].Node())
	}
	if err := models.ValidateDependencies(nodes); err != nil {
		return nil, apperr.Wrap(apperr.MalformedResponse, err, "classifier returned an invalid action chain").
			WithDetail("raw", raw)
	}

	return &models.IntentResult{Multi: &models.MultiActionIntent{
		Actions:       actions,
		ExecutionMode: w.ExecutionMode.OrDefault(),
		TotalActions:  len(actions),
	}}, nil
}

func normalizeType(t models.ActionType) models.ActionType {
	return models.ActionType(strings.ToLower(strings.TrimSpace(string(t))))
}

func nonNil(p models.Params) models.Params {
	if p == nil {
		return models.Params{}
	}
	return p
}
