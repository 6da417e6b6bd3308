package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/pipeline"
)

var (
	vocabPath          string
	maxLength          int
	keepCase           bool
	separator          string
	fileEncoding       string
	testFraction       float64
	validationFraction float64
	splitSeed          int64
	outputDir          string
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare <dataset>",
	Short: "Ingest, partition and encode a labeled corpus",
	Long: `Prepare runs the data side of the pipeline without training:
- Parse delimiter-separated sentence@label rows
- Drop malformed rows and exact duplicates (counted, reported)
- Split into train/validation/test, stratified by class
- Encode each partition with the WordPiece vocabulary

The same corpus and seed always produce identical partitions. The
encoded partitions and the preparation report are written as JSON.

Example:
  finsent prepare Sentences_AllAgree.txt --vocab vocab.txt
  finsent prepare corpus.txt --vocab vocab.txt --max-length 64 --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringVar(&vocabPath, "vocab", "", "WordPiece vocabulary file, one token per line (required)")
	prepareCmd.Flags().IntVar(&maxLength, "max-length", 0, "fixed sequence length (default from config)")
	prepareCmd.Flags().BoolVar(&keepCase, "keep-case", false, "skip lowercasing (for cased vocabularies)")
	prepareCmd.Flags().StringVar(&separator, "separator", "", "sentence/label separator (default from config)")
	prepareCmd.Flags().StringVar(&fileEncoding, "encoding", "", "corpus character encoding (default from config)")
	prepareCmd.Flags().Float64Var(&testFraction, "test-fraction", -1, "test partition fraction (default from config)")
	prepareCmd.Flags().Float64Var(&validationFraction, "validation-fraction", -1, "validation partition fraction (default from config)")
	prepareCmd.Flags().Int64Var(&splitSeed, "seed", -1, "split shuffle seed (default from config)")
	prepareCmd.Flags().StringVar(&outputDir, "output-dir", "", "artifact output directory (default from config)")
	_ = prepareCmd.MarkFlagRequired("vocab")
}

// applyDataFlags overlays prepare/train/evaluate shared flags on cfg.
func applyDataFlags(cfg *model.Config) {
	cfg.Encode.VocabPath = vocabPath
	if maxLength > 0 {
		cfg.Encode.MaxLength = maxLength
	}
	if keepCase {
		cfg.Encode.Lowercase = false
	}
	if separator != "" {
		cfg.Dataset.Separator = separator
	}
	if fileEncoding != "" {
		cfg.Dataset.Encoding = fileEncoding
	}
	if testFraction >= 0 {
		cfg.Split.TestFraction = testFraction
	}
	if validationFraction >= 0 {
		cfg.Split.ValidationFraction = validationFraction
	}
	if splitSeed >= 0 {
		cfg.Split.Seed = splitSeed
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDataFlags(cfg)

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	prep, err := p.Prepare(args[0])
	if err != nil {
		return err
	}

	renderer := p.Renderer()
	if err := renderer.RenderJSON(prep.Report, filepath.Join(cfg.Output.Dir, "prepare_report.json")); err != nil {
		return err
	}
	if err := renderer.RenderEncodedSets(cfg.Output.Dir, prep.Train, prep.Validation, prep.Test); err != nil {
		return err
	}

	renderer.RenderPrepareSummary(prep.Report)
	return nil
}
