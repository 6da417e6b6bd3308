package model

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that serializes to its human-readable form
// ("2h0m0s", "5s") in YAML instead of raw nanoseconds.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts "2h30m" style strings, and raw nanosecond integers
// for config files written before the string form.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Config is the complete configuration bundle. It is built once by the CLI
// and passed into each pipeline stage; stages never share mutable state.
type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Split       SplitConfig       `yaml:"split"`
	Encode      EncodeConfig      `yaml:"encode"`
	Training    TrainingConfig    `yaml:"training"`
	Inference   InferenceConfig   `yaml:"inference"`
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// DatasetConfig describes the raw corpus file.
type DatasetConfig struct {
	Path      string `yaml:"path"`      // dataset file path
	Separator string `yaml:"separator"` // field separator between sentence and label
	Encoding  string `yaml:"encoding"`  // character encoding: latin-1, windows-1252, utf-8
}

// SplitConfig controls stratified partitioning.
type SplitConfig struct {
	TestFraction       float64 `yaml:"test_fraction"`       // held out from the full set
	ValidationFraction float64 `yaml:"validation_fraction"` // held out from the remainder
	Seed               int64   `yaml:"seed"`                // fixed seed, same seed => same partitions
}

// EncodeConfig controls tokenization and fixed-length encoding.
type EncodeConfig struct {
	VocabPath string `yaml:"vocab_path"` // WordPiece vocabulary, one token per line
	MaxLength int    `yaml:"max_length"` // fixed sequence length after padding/truncation
	Lowercase bool   `yaml:"lowercase"`  // uncased vocabularies expect lowercased input
}

// TrainingConfig is the configuration bundle handed to the external
// training service. The pipeline supplies these values and consumes
// metrics; epochs, batching, device placement and gradient synchronization
// all belong to the service.
type TrainingConfig struct {
	ServiceURL   string   `yaml:"service_url"`
	LearningRate float64  `yaml:"learning_rate"`
	BatchSize    int      `yaml:"batch_size"`
	Epochs       int      `yaml:"epochs"`
	WeightDecay  float64  `yaml:"weight_decay"`
	WarmupSteps  int      `yaml:"warmup_steps"`
	PollInterval Duration `yaml:"poll_interval"` // job status polling cadence
	Timeout      Duration `yaml:"timeout"`       // overall training timeout

	MixedPrecision MixedPrecisionConfig `yaml:"mixed_precision"`
	Distributed    DistributedConfig    `yaml:"distributed"`
}

// MixedPrecisionConfig lists the ops the accelerator runtime may execute in
// reduced precision. The lists are consumed opaquely by the service.
type MixedPrecisionConfig struct {
	Enabled    bool     `yaml:"enabled"`
	AllowedOps []string `yaml:"allowed_ops"` // run in bf16
	BlockedOps []string `yaml:"blocked_ops"` // keep in fp32
}

// DistributedConfig identifies this process within a multi-process training
// group. The launcher that spawns the processes is external; this pipeline
// only forwards the rendezvous coordinates.
type DistributedConfig struct {
	MasterAddr string `yaml:"master_addr"`
	MasterPort int    `yaml:"master_port"`
	WorldSize  int    `yaml:"world_size"`
	Rank       int    `yaml:"rank"`
}

// InferenceConfig selects and configures an inference provider.
type InferenceConfig struct {
	Provider   string `yaml:"provider"`    // "service" or "openai"
	ServiceURL string `yaml:"service_url"` // model service endpoint
	Model      string `yaml:"model"`       // model name for LLM providers
	APIKey     string `yaml:"-"`           // never persisted, env only
	BaseURL    string `yaml:"base_url"`    // custom endpoint for LLM providers
	Timeout    int    `yaml:"timeout"`     // seconds
}

// HTTPConfig configures outbound HTTP (dataset downloads).
type HTTPConfig struct {
	Timeout      Duration `yaml:"timeout"`
	UserAgent    string   `yaml:"user_agent"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	HTTPProxy    string   `yaml:"http_proxy"`
	HTTPSProxy   string   `yaml:"https_proxy"`
	SocksProxy   string   `yaml:"socks_proxy"`
	RatePerHost  float64  `yaml:"rate_per_host"` // requests per second per host
}

// CacheConfig configures the download cache.
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	Dir     string   `yaml:"dir"`
	TTL     Duration `yaml:"ttl"`
}

// ConcurrencyConfig sets worker counts for batch prediction.
type ConcurrencyConfig struct {
	PredictWorkers int `yaml:"predict_workers"`
}

// OutputConfig controls reporting.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose"`
	Dir     string `yaml:"dir"` // artifact output directory
}

// DefaultConfig returns the built-in defaults. The dataset defaults match
// the Financial PhraseBank distribution: sentence@label rows in Latin-1.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Separator: "@",
			Encoding:  "latin-1",
		},
		Split: SplitConfig{
			TestFraction:       0.1,
			ValidationFraction: 0.1,
			Seed:               42,
		},
		Encode: EncodeConfig{
			MaxLength: 128,
			Lowercase: true,
		},
		Training: TrainingConfig{
			ServiceURL:   "http://localhost:8090",
			LearningRate: 3e-5,
			BatchSize:    32,
			Epochs:       3,
			WeightDecay:  0.01,
			WarmupSteps:  0,
			PollInterval: Duration(5 * time.Second),
			Timeout:      Duration(2 * time.Hour),
			MixedPrecision: MixedPrecisionConfig{
				Enabled:    true,
				AllowedOps: []string{"add", "addmm", "bmm", "div", "dropout", "gelu", "linear", "layer_norm", "matmul", "mm", "softmax"},
				BlockedOps: []string{"embedding", "nll_loss", "log_softmax"},
			},
			Distributed: DistributedFromEnv(),
		},
		Inference: InferenceConfig{
			Provider:   "service",
			ServiceURL: "http://localhost:8090",
			Timeout:    30,
		},
		HTTP: HTTPConfig{
			Timeout:      Duration(2 * time.Minute),
			UserAgent:    "finsent/0.1 (+https://github.com/mzhdanov/finsent)",
			MaxBodyBytes: 50_000_000,
			RatePerHost:  1.0,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     defaultCacheDir(),
			TTL:     Duration(7 * 24 * time.Hour),
		},
		Concurrency: ConcurrencyConfig{
			PredictWorkers: 4,
		},
		Output: OutputConfig{
			Dir: "./finsent-artifacts",
		},
	}
}

// DistributedFromEnv reads the process-group rendezvous coordinates set by
// the external launcher. Absent variables yield a single-process group.
func DistributedFromEnv() DistributedConfig {
	cfg := DistributedConfig{
		MasterAddr: "127.0.0.1",
		MasterPort: 12355,
		WorldSize:  1,
		Rank:       0,
	}
	if v := os.Getenv("MASTER_ADDR"); v != "" {
		cfg.MasterAddr = v
	}
	if v := os.Getenv("MASTER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MasterPort = port
		}
	}
	if v := os.Getenv("WORLD_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorldSize = n
		}
	}
	if v := os.Getenv("RANK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Rank = n
		}
	}
	return cfg
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".finsent-cache"
	}
	return home + "/.finsent/cache"
}
