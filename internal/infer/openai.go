package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mzhdanov/finsent/internal/model"
)

// OpenAIProvider classifies sentences zero-shot through the OpenAI chat
// API. It is a no-fine-tune baseline for comparing the fine-tuned model
// against, not a replacement for it.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

const classifySystemPrompt = `You classify the sentiment of financial news sentences from an investor's perspective.
Respond with a single JSON object: {"label": "<neutral|positive|negative>", "confidence": <0..1>}.
No other text.`

// NewOpenAIProvider creates the zero-shot baseline provider.
func NewOpenAIProvider(cfg model.InferenceConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   mdl,
		timeout: timeout,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks the API with a lightweight call.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Classify asks the model for a label and confidence and validates the
// label against the shared mapping.
func (p *OpenAIProvider) Classify(ctx context.Context, text string) (*model.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   64,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parsePrediction(resp.Choices[0].Message.Content)
}

// parsePrediction extracts the JSON object from the model reply, tolerating
// code fences, and validates it.
func parsePrediction(reply string) (*model.Prediction, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var parsed struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable classification reply %q: %w", reply, err)
	}

	label, err := model.ParseLabel(strings.ToLower(strings.TrimSpace(parsed.Label)))
	if err != nil {
		return nil, err
	}

	conf := parsed.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return &model.Prediction{
		Label:      label.String(),
		Confidence: conf,
	}, nil
}
