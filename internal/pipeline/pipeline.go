package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/mzhdanov/finsent/internal/encode"
	"github.com/mzhdanov/finsent/internal/ingest"
	"github.com/mzhdanov/finsent/internal/metrics"
	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/split"
	"github.com/mzhdanov/finsent/internal/tokenize"
	"github.com/mzhdanov/finsent/internal/train"
)

// Pipeline orchestrates the full fine-tuning flow: ingest the corpus,
// partition it, encode each partition, hand the encoded sets to the
// training service and evaluate the result.
type Pipeline struct {
	cfg      *model.Config
	encoder  *encode.Encoder
	splitter *split.Splitter
	trainer  train.Trainer
	renderer *Renderer
}

// New creates a pipeline from the configuration, loading the WordPiece
// vocabulary and wiring the training service client.
func New(cfg *model.Config) (*Pipeline, error) {
	tok, err := tokenize.Load(cfg.Encode.VocabPath, cfg.Encode.Lowercase)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	trainer := train.NewClient(cfg.Training.ServiceURL, cfg.Training.Timeout.Std(), cfg.Training.PollInterval.Std())
	return newPipeline(cfg, tok, trainer)
}

// newPipeline wires the stages around an already-built tokenizer and
// trainer.
func newPipeline(cfg *model.Config, tok encode.Tokenizer, trainer train.Trainer) (*Pipeline, error) {
	splitter, err := split.New(cfg.Split)
	if err != nil {
		return nil, fmt.Errorf("configure split: %w", err)
	}
	encoder, err := encode.NewEncoder(tok, cfg.Encode.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("configure encoder: %w", err)
	}
	return &Pipeline{
		cfg:      cfg,
		encoder:  encoder,
		splitter: splitter,
		trainer:  trainer,
		renderer: NewRenderer(cfg.Output.Verbose),
	}, nil
}

// Renderer exposes the pipeline's report renderer.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// PrepareResult holds everything one preparation pass produces: the raw
// partitions, their encoded forms and the ingestion report.
type PrepareResult struct {
	Dataset    *model.Dataset
	Train      *model.EncodedSet
	Validation *model.EncodedSet
	Test       *model.EncodedSet
	Report     *model.PrepareReport
}

// Prepare ingests the corpus at path, partitions it and encodes each
// partition to the fixed target length.
func (p *Pipeline) Prepare(path string) (*PrepareResult, error) {
	ing, err := ingest.ReadFile(path, ingest.Options{
		Separator: p.cfg.Dataset.Separator,
		Encoding:  p.cfg.Dataset.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	ds, err := p.splitter.Split(ing.Records)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	trainSet, err := p.encoder.EncodePartition(model.PartitionTrain, ds.Train)
	if err != nil {
		return nil, err
	}
	valSet, err := p.encoder.EncodePartition(model.PartitionValidation, ds.Validation)
	if err != nil {
		return nil, err
	}
	testSet, err := p.encoder.EncodePartition(model.PartitionTest, ds.Test)
	if err != nil {
		return nil, err
	}

	report := &model.PrepareReport{
		Source:            path,
		PreparedAt:        time.Now().UTC(),
		RowsRead:          ing.RowsRead,
		DroppedMalformed:  ing.DroppedMalformed,
		DroppedDuplicates: ing.DroppedDuplicates,
		Retained:          len(ing.Records),
		MaxLength:         p.encoder.MaxLength(),
		Seed:              p.cfg.Split.Seed,
		Partitions: []model.PartitionStats{
			partitionStats(model.PartitionTrain, ds.Train),
			partitionStats(model.PartitionValidation, ds.Validation),
			partitionStats(model.PartitionTest, ds.Test),
		},
	}

	return &PrepareResult{
		Dataset:    ds,
		Train:      trainSet,
		Validation: valSet,
		Test:       testSet,
		Report:     report,
	}, nil
}

// TrainResult is the outcome of a full training run.
type TrainResult struct {
	Prepare *PrepareResult
	Report  *model.TrainReport
	Eval    *model.EvalReport
}

// Train runs the full flow: prepare the corpus, fine-tune through the
// training service and evaluate on the held-out test partition.
func (p *Pipeline) Train(ctx context.Context, datasetPath string) (*TrainResult, error) {
	prep, err := p.Prepare(datasetPath)
	if err != nil {
		return nil, err
	}

	report, err := p.trainer.Train(ctx, prep.Train, prep.Validation, p.cfg.Training)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	result := &TrainResult{Prepare: prep, Report: report}
	if len(prep.Test.Examples) > 0 {
		eval, err := p.Evaluate(ctx, prep.Test)
		if err != nil {
			return nil, fmt.Errorf("evaluate test partition: %w", err)
		}
		result.Eval = eval
	}
	return result, nil
}

// Evaluate scores an encoded partition through the training service and
// computes its metrics. An empty partition is an explicit error.
func (p *Pipeline) Evaluate(ctx context.Context, set *model.EncodedSet) (*model.EvalReport, error) {
	if set == nil || len(set.Examples) == 0 {
		return nil, fmt.Errorf("cannot evaluate an empty partition")
	}

	scores, err := p.trainer.Scores(ctx, set.Examples)
	if err != nil {
		return nil, fmt.Errorf("score %s partition: %w", set.Partition, err)
	}

	m, err := metrics.Compute(scores, set.Labels())
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	return &model.EvalReport{
		Partition: set.Partition,
		Examples:  len(set.Examples),
		Metrics:   m,
	}, nil
}

func partitionStats(p model.Partition, records []model.Record) model.PartitionStats {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Label.String()]++
	}
	return model.PartitionStats{
		Partition:   p,
		Examples:    len(records),
		ClassCounts: counts,
	}
}
