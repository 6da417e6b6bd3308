package infer

import (
	"context"

	"github.com/mzhdanov/finsent/internal/model"
)

// Provider classifies a single sentence into a sentiment label with a
// confidence in [0,1]. Providers hold no state across calls.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Classify returns the highest-scoring label for the text.
	Classify(ctx context.Context, text string) (*model.Prediction, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}
