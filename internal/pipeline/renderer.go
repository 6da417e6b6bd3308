package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mzhdanov/finsent/internal/model"
)

// Renderer writes JSON artifacts and prints run summaries to stdout.
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer.
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// RenderJSON writes v as indented JSON, creating parent directories.
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if r.verbose {
		fmt.Printf("✓ Wrote %s\n", path)
	}
	return nil
}

// RenderEncodedSets writes each encoded partition as <partition>.json
// under dir.
func (r *Renderer) RenderEncodedSets(dir string, sets ...*model.EncodedSet) error {
	for _, set := range sets {
		if set == nil {
			continue
		}
		path := filepath.Join(dir, string(set.Partition)+".json")
		if err := r.RenderJSON(set, path); err != nil {
			return err
		}
	}
	return nil
}

// RenderPrepareSummary prints the ingestion and partition summary.
func (r *Renderer) RenderPrepareSummary(rep *model.PrepareReport) {
	fmt.Printf("Dataset: %s\n", rep.Source)
	fmt.Printf("  rows read:          %d\n", rep.RowsRead)
	fmt.Printf("  dropped malformed:  %d\n", rep.DroppedMalformed)
	fmt.Printf("  dropped duplicates: %d\n", rep.DroppedDuplicates)
	fmt.Printf("  retained:           %d\n", rep.Retained)
	fmt.Printf("  max length: %d  seed: %d\n", rep.MaxLength, rep.Seed)
	for _, ps := range rep.Partitions {
		fmt.Printf("  %-11s %5d examples", ps.Partition, ps.Examples)
		for _, name := range model.LabelNames() {
			fmt.Printf("  %s=%d", name, ps.ClassCounts[name])
		}
		fmt.Println()
	}
}

// RenderTrainSummary prints per-epoch progress and the job identity.
func (r *Renderer) RenderTrainSummary(rep *model.TrainReport) {
	fmt.Printf("Training job %s finished in %s\n", rep.JobID, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second))
	if rep.Distributed.WorldSize > 1 {
		fmt.Printf("  distributed: rank %d of %d (master %s:%d)\n",
			rep.Distributed.Rank, rep.Distributed.WorldSize,
			rep.Distributed.MasterAddr, rep.Distributed.MasterPort)
	}
	for _, ep := range rep.Epochs {
		fmt.Printf("  epoch %d: train_loss=%.4f val_loss=%.4f val_accuracy=%.4f\n",
			ep.Epoch, ep.TrainLoss, ep.ValLoss, ep.ValAccuracy)
	}
}

// RenderEvalSummary prints the metrics of one evaluation pass.
func (r *Renderer) RenderEvalSummary(rep *model.EvalReport) {
	fmt.Printf("Evaluation on %s (%d examples):\n", rep.Partition, rep.Examples)
	fmt.Printf("  accuracy: %.4f\n", rep.Metrics["accuracy"])
}
