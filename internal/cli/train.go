package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/pipeline"
)

var (
	serviceURL   string
	learningRate float64
	batchSize    int
	epochs       int
	weightDecay  float64
	warmupSteps  int
	pollInterval time.Duration
	trainTimeout time.Duration
	noBF16       bool
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train <dataset>",
	Short: "Fine-tune the sentiment model on a labeled corpus",
	Long: `Train runs the full pipeline: prepare the corpus, submit the
encoded train/validation partitions to the training service, poll the
job to completion and evaluate on the held-out test partition.

Epochs, batching, device placement and gradient synchronization all
live in the training service; this command supplies data and
hyperparameters and collects metrics.

For multi-process training the external launcher sets MASTER_ADDR,
MASTER_PORT, WORLD_SIZE and RANK in the environment; they are forwarded
to the service unchanged.

Example:
  finsent train Sentences_AllAgree.txt --vocab vocab.txt
  finsent train corpus.txt --vocab vocab.txt --epochs 5 --batch-size 16`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&vocabPath, "vocab", "", "WordPiece vocabulary file (required)")
	trainCmd.Flags().IntVar(&maxLength, "max-length", 0, "fixed sequence length (default from config)")
	trainCmd.Flags().BoolVar(&keepCase, "keep-case", false, "skip lowercasing (for cased vocabularies)")
	trainCmd.Flags().StringVar(&separator, "separator", "", "sentence/label separator (default from config)")
	trainCmd.Flags().StringVar(&fileEncoding, "encoding", "", "corpus character encoding (default from config)")
	trainCmd.Flags().Float64Var(&testFraction, "test-fraction", -1, "test partition fraction (default from config)")
	trainCmd.Flags().Float64Var(&validationFraction, "validation-fraction", -1, "validation partition fraction (default from config)")
	trainCmd.Flags().Int64Var(&splitSeed, "seed", -1, "split shuffle seed (default from config)")
	trainCmd.Flags().StringVar(&outputDir, "output-dir", "", "artifact output directory (default from config)")
	_ = trainCmd.MarkFlagRequired("vocab")

	trainCmd.Flags().StringVar(&serviceURL, "service-url", "", "training service URL (default from config)")
	trainCmd.Flags().Float64Var(&learningRate, "learning-rate", 0, "peak learning rate (default from config)")
	trainCmd.Flags().IntVar(&batchSize, "batch-size", 0, "per-process batch size (default from config)")
	trainCmd.Flags().IntVar(&epochs, "epochs", 0, "training epochs (default from config)")
	trainCmd.Flags().Float64Var(&weightDecay, "weight-decay", -1, "weight decay (default from config)")
	trainCmd.Flags().IntVar(&warmupSteps, "warmup-steps", -1, "scheduler warmup steps (default from config)")
	trainCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "job status polling interval (default from config)")
	trainCmd.Flags().DurationVar(&trainTimeout, "timeout", 0, "overall training timeout (default from config)")
	trainCmd.Flags().BoolVar(&noBF16, "no-bf16", false, "disable bf16 mixed precision")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDataFlags(cfg)

	if serviceURL != "" {
		cfg.Training.ServiceURL = serviceURL
		cfg.Inference.ServiceURL = serviceURL
	}
	if learningRate > 0 {
		cfg.Training.LearningRate = learningRate
	}
	if batchSize > 0 {
		cfg.Training.BatchSize = batchSize
	}
	if epochs > 0 {
		cfg.Training.Epochs = epochs
	}
	if weightDecay >= 0 {
		cfg.Training.WeightDecay = weightDecay
	}
	if warmupSteps >= 0 {
		cfg.Training.WarmupSteps = warmupSteps
	}
	if pollInterval > 0 {
		cfg.Training.PollInterval = model.Duration(pollInterval)
	}
	if trainTimeout > 0 {
		cfg.Training.Timeout = model.Duration(trainTimeout)
	}
	if noBF16 {
		cfg.Training.MixedPrecision.Enabled = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Training.Timeout.Std())
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Training via %s (rank %d of %d)\n",
			cfg.Training.ServiceURL, cfg.Training.Distributed.Rank, cfg.Training.Distributed.WorldSize)
	}

	result, err := p.Train(ctx, args[0])
	if err != nil {
		return err
	}

	renderer := p.Renderer()
	if err := renderer.RenderJSON(result.Prepare.Report, filepath.Join(cfg.Output.Dir, "prepare_report.json")); err != nil {
		return err
	}
	if err := renderer.RenderJSON(result.Report, filepath.Join(cfg.Output.Dir, "train_report.json")); err != nil {
		return err
	}
	if result.Eval != nil {
		if err := renderer.RenderJSON(result.Eval, filepath.Join(cfg.Output.Dir, "eval_report.json")); err != nil {
			return err
		}
	}

	renderer.RenderPrepareSummary(result.Prepare.Report)
	renderer.RenderTrainSummary(result.Report)
	if result.Eval != nil {
		renderer.RenderEvalSummary(result.Eval)
	}
	return nil
}
