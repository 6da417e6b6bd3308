package split

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/mzhdanov/finsent/internal/model"
)

func makeRecords(labels ...model.Label) []model.Record {
	records := make([]model.Record, len(labels))
	for i, l := range labels {
		records[i] = model.Record{
			Text:  fmt.Sprintf("sentence %d", i),
			Label: l,
		}
	}
	return records
}

func TestSplit_FiveRowScenario(t *testing.T) {
	// 5 rows at test fraction 0.1 must hold out exactly 1 test record,
	// leaving 4 across train+validation.
	records := makeRecords(
		model.LabelNeutral, model.LabelNeutral,
		model.LabelNegative,
		model.LabelPositive, model.LabelPositive,
	)

	s, err := New(model.SplitConfig{TestFraction: 0.1, ValidationFraction: 0, Seed: 42})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ds, err := s.Split(records)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(ds.Test) != 1 {
		t.Errorf("expected exactly 1 test record, got %d", len(ds.Test))
	}
	if len(ds.Train)+len(ds.Validation) != 4 {
		t.Errorf("expected 4 remaining records, got %d", len(ds.Train)+len(ds.Validation))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	records := makeRecords(
		model.LabelNeutral, model.LabelPositive, model.LabelNegative,
		model.LabelNeutral, model.LabelPositive, model.LabelNegative,
		model.LabelNeutral, model.LabelPositive, model.LabelNegative,
		model.LabelNeutral, model.LabelPositive, model.LabelNegative,
	)

	cfg := model.SplitConfig{TestFraction: 0.2, ValidationFraction: 0.25, Seed: 7}
	s1, _ := New(cfg)
	s2, _ := New(cfg)

	ds1, err := s1.Split(records)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	ds2, err := s2.Split(records)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if !reflect.DeepEqual(ds1, ds2) {
		t.Error("same records and seed must produce identical partitions")
	}
}

func TestSplit_DisjointAndComplete(t *testing.T) {
	var labels []model.Label
	for i := 0; i < 60; i++ {
		labels = append(labels, model.Label(i%model.NumLabels))
	}
	records := makeRecords(labels...)

	s, _ := New(model.SplitConfig{TestFraction: 0.15, ValidationFraction: 0.1, Seed: 1})
	ds, err := s.Split(records)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if ds.Size() != len(records) {
		t.Fatalf("partition sizes sum to %d, expected %d", ds.Size(), len(records))
	}

	seen := make(map[string]model.Partition)
	for _, p := range []model.Partition{model.PartitionTrain, model.PartitionValidation, model.PartitionTest} {
		for _, rec := range ds.ByPartition(p) {
			key := rec.Text
			if prev, dup := seen[key]; dup {
				t.Errorf("record %q appears in both %s and %s", key, prev, p)
			}
			seen[key] = p
		}
	}
	if len(seen) != len(records) {
		t.Errorf("union covers %d records, expected %d", len(seen), len(records))
	}
}

func TestSplit_Stratification(t *testing.T) {
	// 100 records: 60 neutral, 25 positive, 15 negative.
	var labels []model.Label
	for i := 0; i < 60; i++ {
		labels = append(labels, model.LabelNeutral)
	}
	for i := 0; i < 25; i++ {
		labels = append(labels, model.LabelPositive)
	}
	for i := 0; i < 15; i++ {
		labels = append(labels, model.LabelNegative)
	}
	records := makeRecords(labels...)

	s, _ := New(model.SplitConfig{TestFraction: 0.2, ValidationFraction: 0.125, Seed: 3})
	ds, err := s.Split(records)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	fullProps := []float64{0.60, 0.25, 0.15}
	for _, p := range []model.Partition{model.PartitionTrain, model.PartitionValidation, model.PartitionTest} {
		recs := ds.ByPartition(p)
		if len(recs) == 0 {
			t.Fatalf("partition %s is empty", p)
		}
		counts := make([]int, model.NumLabels)
		for _, rec := range recs {
			counts[rec.Label]++
		}
		for class, prop := range fullProps {
			// Within one record of the ideal count for this partition size.
			ideal := prop * float64(len(recs))
			if math.Abs(float64(counts[class])-ideal) > 1.0 {
				t.Errorf("partition %s class %s: got %d, ideal %.1f (off by more than 1)",
					p, model.Label(class), counts[class], ideal)
			}
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	s, _ := New(model.SplitConfig{TestFraction: 0.1, ValidationFraction: 0.1, Seed: 1})
	if _, err := s.Split(nil); err == nil {
		t.Fatal("expected error for empty record set")
	}
}

func TestNew_RejectsBadFractions(t *testing.T) {
	cases := []model.SplitConfig{
		{TestFraction: -0.1},
		{TestFraction: 1.0},
		{TestFraction: 0.1, ValidationFraction: 1.2},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("expected error for config %+v", cfg)
		}
	}
}
