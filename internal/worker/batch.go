package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mzhdanov/finsent/internal/infer"
	"github.com/mzhdanov/finsent/internal/model"
)

// PredictJob classifies one sentence through an inference provider.
type PredictJob struct {
	Index    int
	Text     string
	Provider infer.Provider
}

// Execute runs the classification.
func (j *PredictJob) Execute(ctx context.Context) Result {
	pred, err := j.Provider.Classify(ctx, j.Text)
	return &PredictResult{
		Index:      j.Index,
		Text:       j.Text,
		Prediction: pred,
		Error:      err,
	}
}

// PredictResult is the outcome of one classification.
type PredictResult struct {
	Index      int
	Text       string
	Prediction *model.Prediction
	Error      error
}

// GetError returns the classification error, if any.
func (r *PredictResult) GetError() error {
	return r.Error
}

// BatchClassifier classifies many sentences concurrently.
type BatchClassifier struct {
	provider    infer.Provider
	concurrency int
}

// NewBatchClassifier creates a batch classifier.
func NewBatchClassifier(provider infer.Provider, concurrency int) *BatchClassifier {
	return &BatchClassifier{
		provider:    provider,
		concurrency: concurrency,
	}
}

// ClassifyAll classifies every text concurrently and returns results in
// input order.
func (b *BatchClassifier) ClassifyAll(ctx context.Context, texts []string) []*PredictResult {
	if len(texts) == 0 {
		return []*PredictResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	collector := Collect(pool)

	for i, text := range texts {
		pool.Submit(&PredictJob{
			Index:    i,
			Text:     text,
			Provider: b.provider,
		})
	}
	pool.Wait()

	results := collector.Results()

	predictions := make([]*PredictResult, 0, len(results))
	for _, result := range results {
		predictions = append(predictions, result.(*PredictResult))
	}
	sort.Slice(predictions, func(a, b int) bool {
		return predictions[a].Index < predictions[b].Index
	})
	return predictions
}

// ClassifyFile reads one sentence per line and classifies them all.
func (b *BatchClassifier) ClassifyFile(ctx context.Context, path string) ([]*PredictResult, error) {
	texts, err := ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("read sentences: %w", err)
	}
	return b.ClassifyAll(ctx, texts), nil
}

// ReadLines reads non-empty, non-comment lines from a file.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return lines, nil
}
