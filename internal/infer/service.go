package infer

import (
	"context"
	"fmt"
	"time"

	"github.com/mzhdanov/finsent/internal/encode"
	"github.com/mzhdanov/finsent/internal/metrics"
	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/train"
)

// ServiceProvider classifies through the fine-tuned model service. The
// sentence is tokenized locally with the same tokenizer used for training
// (unpadded; the single example needs no fixed length) and the returned raw
// scores are softmaxed into a confidence.
type ServiceProvider struct {
	client  *train.Client
	encoder *encode.Encoder
}

// NewServiceProvider creates a provider backed by the model service.
func NewServiceProvider(baseURL string, timeout time.Duration, tok encode.Tokenizer, maxLength int) (*ServiceProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("model service URL is required")
	}
	enc, err := encode.NewEncoder(tok, maxLength)
	if err != nil {
		return nil, err
	}
	return &ServiceProvider{
		client:  train.NewClient(baseURL, timeout, 0),
		encoder: enc,
	}, nil
}

// Name returns the provider name.
func (p *ServiceProvider) Name() string {
	return "service"
}

// IsAvailable checks the model service health endpoint.
func (p *ServiceProvider) IsAvailable(ctx context.Context) bool {
	health, err := p.client.Health(ctx)
	if err != nil {
		return false
	}
	return health.ModelLoaded
}

// Classify encodes the text, scores it, and maps the winning class id back
// to its label name through the shared mapping.
func (p *ServiceProvider) Classify(ctx context.Context, text string) (*model.Prediction, error) {
	ex, err := p.encoder.EncodeText(text)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	scores, err := p.client.Scores(ctx, []model.EncodedExample{ex})
	if err != nil {
		return nil, err
	}

	row := scores[0]
	if len(row) != model.NumLabels {
		return nil, fmt.Errorf("service returned %d class scores, expected %d", len(row), model.NumLabels)
	}

	best, err := metrics.Argmax(row)
	if err != nil {
		return nil, err
	}

	return &model.Prediction{
		Label:      model.Label(best).String(),
		Confidence: metrics.Softmax(row)[best],
	}, nil
}
