package metrics

import (
	"math"
	"testing"

	"github.com/mzhdanov/finsent/internal/model"
)

func TestAccuracy_PerfectScore(t *testing.T) {
	scores := [][]float64{
		{0.1, 0.7, 0.2},
		{0.8, 0.1, 0.1},
	}
	labels := []model.Label{model.LabelPositive, model.LabelNeutral}

	acc, err := Accuracy(scores, labels)
	if err != nil {
		t.Fatalf("Accuracy failed: %v", err)
	}
	if acc != 1.0 {
		t.Errorf("expected accuracy 1.0, got %v", acc)
	}
}

func TestAccuracy_Partial(t *testing.T) {
	scores := [][]float64{
		{0.9, 0.05, 0.05}, // predicts 0, true 0
		{0.9, 0.05, 0.05}, // predicts 0, true 2
		{0.1, 0.1, 0.8},   // predicts 2, true 2
		{0.2, 0.7, 0.1},   // predicts 1, true 0
	}
	labels := []model.Label{
		model.LabelNeutral, model.LabelNegative,
		model.LabelNegative, model.LabelNeutral,
	}

	acc, err := Accuracy(scores, labels)
	if err != nil {
		t.Fatalf("Accuracy failed: %v", err)
	}
	if acc != 0.5 {
		t.Errorf("expected accuracy 0.5, got %v", acc)
	}
}

func TestAccuracy_EmptyInputIsError(t *testing.T) {
	if _, err := Accuracy(nil, nil); err == nil {
		t.Fatal("expected explicit error for empty inputs, got nil")
	}
	if _, err := Accuracy([][]float64{}, []model.Label{}); err == nil {
		t.Fatal("expected explicit error for empty slices, got nil")
	}
}

func TestAccuracy_LengthMismatch(t *testing.T) {
	scores := [][]float64{{1, 0, 0}}
	labels := []model.Label{model.LabelNeutral, model.LabelPositive}
	if _, err := Accuracy(scores, labels); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestArgmax_TieBreaksToFirst(t *testing.T) {
	idx, err := Argmax([]float64{0.4, 0.4, 0.2})
	if err != nil {
		t.Fatalf("Argmax failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("tie must break to first occurrence, got %d", idx)
	}
}

func TestArgmax_Empty(t *testing.T) {
	if _, err := Argmax(nil); err == nil {
		t.Fatal("expected error for empty score vector")
	}
}

func TestCompute_NamedMetrics(t *testing.T) {
	scores := [][]float64{{0.1, 0.7, 0.2}}
	labels := []model.Label{model.LabelPositive}

	m, err := Compute(scores, labels)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if m["accuracy"] != 1.0 {
		t.Errorf("expected accuracy 1.0, got %v", m["accuracy"])
	}
	if m["examples"] != 1 {
		t.Errorf("expected 1 example, got %v", m["examples"])
	}
}

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float64{2.0, 1.0, 0.1})

	var sum float64
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability %v outside [0,1]", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("probabilities sum to %v, expected 1", sum)
	}
	if !(probs[0] > probs[1] && probs[1] > probs[2]) {
		t.Errorf("softmax must preserve order, got %v", probs)
	}
}
