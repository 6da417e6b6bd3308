package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/pipeline"
)

var (
	evalPartition string
	evalTimeout   time.Duration
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <dataset>",
	Short: "Evaluate the fine-tuned model on a held-out partition",
	Long: `Evaluate re-derives the deterministic partitions from the corpus,
scores the chosen held-out partition through the model service and
reports accuracy.

The same corpus and seed reproduce the exact partitions used during
training, so the evaluated examples were never seen by the model.

Example:
  finsent evaluate Sentences_AllAgree.txt --vocab vocab.txt
  finsent evaluate corpus.txt --vocab vocab.txt --partition validation`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&vocabPath, "vocab", "", "WordPiece vocabulary file (required)")
	evaluateCmd.Flags().IntVar(&maxLength, "max-length", 0, "fixed sequence length (default from config)")
	evaluateCmd.Flags().BoolVar(&keepCase, "keep-case", false, "skip lowercasing (for cased vocabularies)")
	evaluateCmd.Flags().StringVar(&separator, "separator", "", "sentence/label separator (default from config)")
	evaluateCmd.Flags().StringVar(&fileEncoding, "encoding", "", "corpus character encoding (default from config)")
	evaluateCmd.Flags().Float64Var(&testFraction, "test-fraction", -1, "test partition fraction (default from config)")
	evaluateCmd.Flags().Float64Var(&validationFraction, "validation-fraction", -1, "validation partition fraction (default from config)")
	evaluateCmd.Flags().Int64Var(&splitSeed, "seed", -1, "split shuffle seed (default from config)")
	evaluateCmd.Flags().StringVar(&outputDir, "output-dir", "", "artifact output directory (default from config)")
	_ = evaluateCmd.MarkFlagRequired("vocab")

	evaluateCmd.Flags().StringVar(&serviceURL, "service-url", "", "model service URL (default from config)")
	evaluateCmd.Flags().StringVar(&evalPartition, "partition", "test", "partition to evaluate: test or validation")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 10*time.Minute, "evaluation timeout")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDataFlags(cfg)
	if serviceURL != "" {
		cfg.Training.ServiceURL = serviceURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	prep, err := p.Prepare(args[0])
	if err != nil {
		return err
	}

	var set *model.EncodedSet
	switch model.Partition(evalPartition) {
	case model.PartitionTest:
		set = prep.Test
	case model.PartitionValidation:
		set = prep.Validation
	default:
		return fmt.Errorf("unknown partition %q (supported: test, validation)", evalPartition)
	}

	eval, err := p.Evaluate(ctx, set)
	if err != nil {
		return err
	}

	renderer := p.Renderer()
	if err := renderer.RenderJSON(eval, filepath.Join(cfg.Output.Dir, "eval_report.json")); err != nil {
		return err
	}
	renderer.RenderEvalSummary(eval)
	return nil
}
