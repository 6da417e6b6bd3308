package encode

import (
	"strings"
	"testing"

	"github.com/mzhdanov/finsent/internal/model"
)

// wordTokenizer assigns ids by whitespace token position; enough to test
// the encoder contract without a real vocabulary.
type wordTokenizer struct{}

func (wordTokenizer) Tokenize(text string) ([]int, error) {
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i := range fields {
		ids[i] = 1000 + i
	}
	return ids, nil
}

func (wordTokenizer) Specials() Specials {
	return Specials{Pad: 0, Cls: 101, Sep: 102}
}

func TestEncodeRecord_FixedLength(t *testing.T) {
	enc, err := NewEncoder(wordTokenizer{}, 10)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	ex, err := enc.EncodeRecord(model.Record{Text: "profit rose sharply", Label: model.LabelPositive})
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}

	for name, seq := range map[string][]int{
		"input_ids":      ex.InputIDs,
		"token_type_ids": ex.TokenTypeIDs,
		"attention_mask": ex.AttentionMask,
	} {
		if len(seq) != 10 {
			t.Errorf("%s has length %d, expected 10", name, len(seq))
		}
	}
	if ex.Label != model.LabelPositive {
		t.Errorf("label must pass through unchanged, got %v", ex.Label)
	}
}

func TestEncodeRecord_MaskMarksRealPositions(t *testing.T) {
	enc, _ := NewEncoder(wordTokenizer{}, 8)

	// 3 words -> [CLS] w w w [SEP] = 5 real positions, 3 padded.
	ex, err := enc.EncodeRecord(model.Record{Text: "sales were flat", Label: model.LabelNeutral})
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}

	for i, m := range ex.AttentionMask {
		attended := m == 1
		padded := ex.InputIDs[i] == 0 && i >= 5
		if attended == padded {
			t.Errorf("position %d: mask %d disagrees with content (id %d)", i, m, ex.InputIDs[i])
		}
	}
	for i := 0; i < 5; i++ {
		if ex.AttentionMask[i] != 1 {
			t.Errorf("real position %d not attended", i)
		}
	}
	for i := 5; i < 8; i++ {
		if ex.AttentionMask[i] != 0 {
			t.Errorf("padded position %d attended", i)
		}
		if ex.InputIDs[i] != 0 {
			t.Errorf("padded position %d has id %d, expected pad id", i, ex.InputIDs[i])
		}
	}
}

func TestEncodeRecord_TruncatesKeepingSep(t *testing.T) {
	enc, _ := NewEncoder(wordTokenizer{}, 5)

	long := strings.Repeat("word ", 20)
	ex, err := enc.EncodeRecord(model.Record{Text: long, Label: model.LabelNegative})
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}

	if len(ex.InputIDs) != 5 {
		t.Fatalf("expected length 5, got %d", len(ex.InputIDs))
	}
	if ex.InputIDs[0] != 101 {
		t.Errorf("expected [CLS] at position 0, got %d", ex.InputIDs[0])
	}
	if ex.InputIDs[4] != 102 {
		t.Errorf("expected [SEP] at final position, got %d", ex.InputIDs[4])
	}
	for i, m := range ex.AttentionMask {
		if m != 1 {
			t.Errorf("truncated sequence has no padding, position %d must be attended", i)
		}
	}
}

func TestEncodePartition(t *testing.T) {
	enc, _ := NewEncoder(wordTokenizer{}, 6)

	records := []model.Record{
		{Text: "one", Label: model.LabelNeutral},
		{Text: "two words", Label: model.LabelPositive},
	}
	set, err := enc.EncodePartition(model.PartitionTrain, records)
	if err != nil {
		t.Fatalf("EncodePartition failed: %v", err)
	}

	if set.Partition != model.PartitionTrain {
		t.Errorf("expected train partition, got %s", set.Partition)
	}
	if set.MaxLength != 6 {
		t.Errorf("expected max length 6, got %d", set.MaxLength)
	}
	if len(set.Examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(set.Examples))
	}
}

func TestEncodeText_NoPadding(t *testing.T) {
	enc, _ := NewEncoder(wordTokenizer{}, 128)

	ex, err := enc.EncodeText("margins improved")
	if err != nil {
		t.Fatalf("EncodeText failed: %v", err)
	}
	if len(ex.InputIDs) != 4 { // [CLS] w w [SEP]
		t.Fatalf("expected 4 ids, got %d", len(ex.InputIDs))
	}
	for i, m := range ex.AttentionMask {
		if m != 1 {
			t.Errorf("unpadded position %d must be attended", i)
		}
	}
}

func TestNewEncoder_RejectsTinyLength(t *testing.T) {
	if _, err := NewEncoder(wordTokenizer{}, 2); err == nil {
		t.Fatal("expected error for max length 2")
	}
}
