package infer

import (
	"fmt"
	"strings"
	"time"

	"github.com/mzhdanov/finsent/internal/encode"
	"github.com/mzhdanov/finsent/internal/model"
)

// NewProvider builds an inference provider from configuration. The
// tokenizer is only needed by the service provider and may be nil for LLM
// baselines.
func NewProvider(cfg model.InferenceConfig, tok encode.Tokenizer, maxLength int) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "service":
		if tok == nil {
			return nil, fmt.Errorf("service provider requires a tokenizer vocabulary")
		}
		timeout := time.Duration(cfg.Timeout) * time.Second
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		return NewServiceProvider(cfg.ServiceURL, timeout, tok, maxLength)

	case "openai":
		return NewOpenAIProvider(cfg)

	default:
		return nil, fmt.Errorf("unknown inference provider: %s (supported: service, openai)", cfg.Provider)
	}
}
