package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzhdanov/finsent/internal/encode"
	"github.com/mzhdanov/finsent/internal/infer"
	"github.com/mzhdanov/finsent/internal/tokenize"
	"github.com/mzhdanov/finsent/internal/worker"
)

var (
	predictProvider string
	predictModel    string
	predictFile     string
	predictJSON     string
	predictWorkers  int
	predictTimeout  time.Duration
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Classify financial sentences",
	Long: `Predict classifies sentences as neutral, positive or negative.

A single sentence is passed as the argument; --file classifies one
sentence per line concurrently. The default provider is the fine-tuned
model service; --provider openai uses a zero-shot LLM baseline instead
(requires OPENAI_API_KEY).

Example:
  finsent predict "Operating profit rose to EUR 13.1 mn" --vocab vocab.txt
  finsent predict --file sentences.txt --vocab vocab.txt --workers 8
  finsent predict "Sales fell 10 %" --provider openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictProvider, "provider", "", "inference provider: service or openai (default from config)")
	predictCmd.Flags().StringVar(&predictModel, "model", "", "model name for LLM providers")
	predictCmd.Flags().StringVar(&vocabPath, "vocab", "", "WordPiece vocabulary file (required for the service provider)")
	predictCmd.Flags().IntVar(&maxLength, "max-length", 0, "fixed sequence length (default from config)")
	predictCmd.Flags().BoolVar(&keepCase, "keep-case", false, "skip lowercasing (for cased vocabularies)")
	predictCmd.Flags().StringVar(&serviceURL, "service-url", "", "model service URL (default from config)")
	predictCmd.Flags().StringVarP(&predictFile, "file", "f", "", "classify one sentence per line from this file")
	predictCmd.Flags().StringVar(&predictJSON, "json", "", "write predictions as JSON to this path")
	predictCmd.Flags().IntVar(&predictWorkers, "workers", 0, "concurrent classification workers (default from config)")
	predictCmd.Flags().DurationVar(&predictTimeout, "timeout", 5*time.Minute, "overall prediction timeout")
}

func runPredict(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && predictFile == "" {
		return fmt.Errorf("provide a sentence or --file")
	}
	if len(args) == 1 && predictFile != "" {
		return fmt.Errorf("provide either a sentence or --file, not both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if predictProvider != "" {
		cfg.Inference.Provider = predictProvider
	}
	if predictModel != "" {
		cfg.Inference.Model = predictModel
	}
	if serviceURL != "" {
		cfg.Inference.ServiceURL = serviceURL
	}
	if maxLength > 0 {
		cfg.Encode.MaxLength = maxLength
	}
	if keepCase {
		cfg.Encode.Lowercase = false
	}
	if predictWorkers > 0 {
		cfg.Concurrency.PredictWorkers = predictWorkers
	}
	cfg.Inference.APIKey = os.Getenv("OPENAI_API_KEY")

	// The service provider tokenizes locally with the training vocabulary;
	// LLM baselines send raw text.
	var tok encode.Tokenizer
	if vocabPath != "" {
		wp, err := tokenize.Load(vocabPath, cfg.Encode.Lowercase)
		if err != nil {
			return fmt.Errorf("load vocabulary: %w", err)
		}
		tok = wp
	}

	provider, err := infer.NewProvider(cfg.Inference, tok, cfg.Encode.MaxLength)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), predictTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s\n", provider.Name())
	}

	if predictFile == "" {
		pred, err := provider.Classify(ctx, args[0])
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}
		fmt.Printf("%s (%.4f)\n", pred.Label, pred.Confidence)
		return nil
	}

	classifier := worker.NewBatchClassifier(provider, cfg.Concurrency.PredictWorkers)
	results, err := classifier.ClassifyFile(ctx, predictFile)
	if err != nil {
		return err
	}

	failures := 0
	for _, res := range results {
		if res.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Text, res.Error)
			continue
		}
		fmt.Printf("%s\t%.4f\t%s\n", res.Prediction.Label, res.Prediction.Confidence, res.Text)
	}
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d sentences failed\n", failures, len(results))
	}

	if predictJSON != "" {
		if err := writePredictionsJSON(results, predictJSON); err != nil {
			return err
		}
	}
	return nil
}

// predictionRow is the JSON form of one batch prediction.
type predictionRow struct {
	Text       string  `json:"text"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func writePredictionsJSON(results []*worker.PredictResult, path string) error {
	rows := make([]predictionRow, 0, len(results))
	for _, res := range results {
		row := predictionRow{Text: res.Text}
		if res.Error != nil {
			row.Error = res.Error.Error()
		} else {
			row.Label = res.Prediction.Label
			row.Confidence = res.Prediction.Confidence
		}
		rows = append(rows, row)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}
