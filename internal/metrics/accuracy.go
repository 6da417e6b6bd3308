package metrics

import (
	"fmt"
	"math"

	"github.com/mzhdanov/finsent/internal/model"
)

// Argmax returns the index of the maximum score. Ties break to the first
// occurrence, the standard convention for class prediction.
func Argmax(scores []float64) (int, error) {
	if len(scores) == 0 {
		return 0, fmt.Errorf("argmax of empty score vector")
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, nil
}

// Predictions maps each score vector to its predicted class index.
func Predictions(scores [][]float64) ([]int, error) {
	preds := make([]int, len(scores))
	for i, row := range scores {
		p, err := Argmax(row)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		preds[i] = p
	}
	return preds, nil
}

// Accuracy computes the fraction of examples whose predicted class equals
// the true label. Empty input is an explicit error, never a NaN or a
// silent zero.
func Accuracy(scores [][]float64, labels []model.Label) (float64, error) {
	if len(scores) == 0 {
		return 0, fmt.Errorf("accuracy over zero examples is undefined")
	}
	if len(scores) != len(labels) {
		return 0, fmt.Errorf("score/label length mismatch: %d vs %d", len(scores), len(labels))
	}

	preds, err := Predictions(scores)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i, p := range preds {
		if p == int(labels[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

// Compute produces the metric record for one evaluation pass.
func Compute(scores [][]float64, labels []model.Label) (map[string]float64, error) {
	acc, err := Accuracy(scores, labels)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		"accuracy": acc,
		"examples": float64(len(labels)),
	}, nil
}

// Softmax normalizes raw scores into a probability distribution. Used to
// turn model logits into a confidence in [0,1].
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
