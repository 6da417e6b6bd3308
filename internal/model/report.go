package model

import "time"

// PrepareReport summarizes one ingestion + partitioning + encoding pass.
type PrepareReport struct {
	Source            string           `json:"source"`
	PreparedAt        time.Time        `json:"prepared_at"`
	RowsRead          int              `json:"rows_read"`
	DroppedMalformed  int              `json:"dropped_malformed"`
	DroppedDuplicates int              `json:"dropped_duplicates"`
	Retained          int              `json:"retained"`
	MaxLength         int              `json:"max_length"`
	Seed              int64            `json:"seed"`
	Partitions        []PartitionStats `json:"partitions"`
}

// PartitionStats is the per-partition class histogram.
type PartitionStats struct {
	Partition   Partition      `json:"partition"`
	Examples    int            `json:"examples"`
	ClassCounts map[string]int `json:"class_counts"`
}

// EpochStats is one epoch of training progress as reported by the
// training service.
type EpochStats struct {
	Epoch        int     `json:"epoch"`
	TrainLoss    float64 `json:"train_loss"`
	ValLoss      float64 `json:"val_loss"`
	ValAccuracy  float64 `json:"val_accuracy"`
	LearningRate float64 `json:"learning_rate,omitempty"`
}

// TrainReport is the outcome of a fine-tuning run.
type TrainReport struct {
	JobID       string            `json:"job_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Epochs      []EpochStats      `json:"epochs"`
	Distributed DistributedConfig `json:"distributed"`
}

// EvalReport is the metric record of one evaluation pass over a held-out
// partition. It has no identity beyond the pass that produced it.
type EvalReport struct {
	Partition Partition          `json:"partition"`
	Examples  int                `json:"examples"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Prediction is a single inference result: the winning class name and its
// confidence in [0,1]. Ephemeral, never persisted.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
