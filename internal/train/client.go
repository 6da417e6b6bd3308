package train

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mzhdanov/finsent/internal/model"
)

// Client talks to the training service over its JSON API. It implements
// Trainer. Errors from the service surface unchanged: a torn training run
// cannot be resumed at this level, so there is no retry here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	poll       time.Duration
}

// NewClient creates a training service client.
func NewClient(baseURL string, timeout, pollInterval time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		poll: pollInterval,
	}
}

type trainConfigPayload struct {
	LearningRate   float64  `json:"learning_rate"`
	BatchSize      int      `json:"batch_size"`
	Epochs         int      `json:"epochs"`
	WeightDecay    float64  `json:"weight_decay"`
	WarmupSteps    int      `json:"warmup_steps"`
	NumLabels      int      `json:"num_labels"`
	MaxLength      int      `json:"max_length"`
	MixedPrecision bool     `json:"mixed_precision"`
	BF16AllowedOps []string `json:"bf16_allowed_ops,omitempty"`
	BF16BlockedOps []string `json:"bf16_blocked_ops,omitempty"`
	MasterAddr     string   `json:"master_addr"`
	MasterPort     int      `json:"master_port"`
	WorldSize      int      `json:"world_size"`
	Rank           int      `json:"rank"`
}

type trainRequest struct {
	Config     trainConfigPayload     `json:"config"`
	Train      []model.EncodedExample `json:"train"`
	Validation []model.EncodedExample `json:"validation"`
}

type trainResponse struct {
	JobID string `json:"job_id"`
}

type jobStatus struct {
	State  string             `json:"state"` // pending, running, completed, failed
	Epochs []model.EpochStats `json:"epochs"`
	Error  string             `json:"error,omitempty"`
}

type scoresRequest struct {
	Examples []model.EncodedExample `json:"examples"`
}

type scoresResponse struct {
	Scores [][]float64 `json:"scores"`
}

// HealthResponse is the service health report.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
}

// Train submits a fine-tuning job and polls it to completion.
func (c *Client) Train(ctx context.Context, trainSet, valSet *model.EncodedSet, cfg model.TrainingConfig) (*model.TrainReport, error) {
	if trainSet == nil || len(trainSet.Examples) == 0 {
		return nil, fmt.Errorf("train partition is empty")
	}
	if valSet == nil || len(valSet.Examples) == 0 {
		return nil, fmt.Errorf("validation partition is empty")
	}

	req := trainRequest{
		Config: trainConfigPayload{
			LearningRate:   cfg.LearningRate,
			BatchSize:      cfg.BatchSize,
			Epochs:         cfg.Epochs,
			WeightDecay:    cfg.WeightDecay,
			WarmupSteps:    cfg.WarmupSteps,
			NumLabels:      model.NumLabels,
			MaxLength:      trainSet.MaxLength,
			MixedPrecision: cfg.MixedPrecision.Enabled,
			BF16AllowedOps: cfg.MixedPrecision.AllowedOps,
			BF16BlockedOps: cfg.MixedPrecision.BlockedOps,
			MasterAddr:     cfg.Distributed.MasterAddr,
			MasterPort:     cfg.Distributed.MasterPort,
			WorldSize:      cfg.Distributed.WorldSize,
			Rank:           cfg.Distributed.Rank,
		},
		Train:      trainSet.Examples,
		Validation: valSet.Examples,
	}

	started := time.Now().UTC()
	var submitted trainResponse
	if err := c.post(ctx, "/api/v1/train", req, &submitted); err != nil {
		return nil, fmt.Errorf("submit training job: %w", err)
	}

	status, err := c.waitForJob(ctx, submitted.JobID)
	if err != nil {
		return nil, err
	}

	return &model.TrainReport{
		JobID:       submitted.JobID,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Epochs:      status.Epochs,
		Distributed: cfg.Distributed,
	}, nil
}

// waitForJob polls job status until the service reports a terminal state.
func (c *Client) waitForJob(ctx context.Context, jobID string) (*jobStatus, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		var status jobStatus
		if err := c.get(ctx, "/api/v1/train/"+jobID, &status); err != nil {
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		switch status.State {
		case "completed":
			return &status, nil
		case "failed":
			return nil, fmt.Errorf("training job %s failed: %s", jobID, status.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scores requests raw per-class score vectors for encoded examples.
func (c *Client) Scores(ctx context.Context, examples []model.EncodedExample) ([][]float64, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("no examples to score")
	}

	var resp scoresResponse
	if err := c.post(ctx, "/api/v1/scores", scoresRequest{Examples: examples}, &resp); err != nil {
		return nil, fmt.Errorf("score examples: %w", err)
	}
	if len(resp.Scores) != len(examples) {
		return nil, fmt.Errorf("service returned %d score vectors for %d examples", len(resp.Scores), len(examples))
	}
	return resp.Scores, nil
}

// Health checks the training service.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/v1/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("training service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("training service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
