package train

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mzhdanov/finsent/internal/model"
)

func testSets() (*model.EncodedSet, *model.EncodedSet) {
	ex := model.EncodedExample{
		InputIDs:      []int{101, 5, 102, 0},
		TokenTypeIDs:  []int{0, 0, 0, 0},
		AttentionMask: []int{1, 1, 1, 0},
		Label:         model.LabelPositive,
	}
	trainSet := &model.EncodedSet{Partition: model.PartitionTrain, MaxLength: 4, Examples: []model.EncodedExample{ex, ex}}
	valSet := &model.EncodedSet{Partition: model.PartitionValidation, MaxLength: 4, Examples: []model.EncodedExample{ex}}
	return trainSet, valSet
}

func TestClient_Train_PollsToCompletion(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/train":
			var req trainRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad train request: %v", err)
			}
			if req.Config.NumLabels != model.NumLabels {
				t.Errorf("expected num_labels %d, got %d", model.NumLabels, req.Config.NumLabels)
			}
			if req.Config.WorldSize != 2 || req.Config.Rank != 1 {
				t.Errorf("rendezvous not forwarded: %+v", req.Config)
			}
			if len(req.Train) != 2 || len(req.Validation) != 1 {
				t.Errorf("dataset sizes not forwarded: %d/%d", len(req.Train), len(req.Validation))
			}
			_ = json.NewEncoder(w).Encode(trainResponse{JobID: "job-1"})

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v1/train/"):
			n := polls.Add(1)
			status := jobStatus{State: "running"}
			if n >= 2 {
				status = jobStatus{
					State: "completed",
					Epochs: []model.EpochStats{
						{Epoch: 1, TrainLoss: 0.9, ValLoss: 0.8, ValAccuracy: 0.61},
						{Epoch: 2, TrainLoss: 0.5, ValLoss: 0.6, ValAccuracy: 0.78},
					},
				}
			}
			_ = json.NewEncoder(w).Encode(status)

		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, time.Millisecond)
	trainSet, valSet := testSets()

	cfg := model.TrainingConfig{
		LearningRate: 3e-5,
		BatchSize:    32,
		Epochs:       2,
		Distributed:  model.DistributedConfig{MasterAddr: "10.0.0.1", MasterPort: 12355, WorldSize: 2, Rank: 1},
	}
	report, err := client.Train(context.Background(), trainSet, valSet, cfg)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if report.JobID != "job-1" {
		t.Errorf("expected job-1, got %s", report.JobID)
	}
	if len(report.Epochs) != 2 {
		t.Fatalf("expected 2 epochs, got %d", len(report.Epochs))
	}
	if report.Epochs[1].ValAccuracy != 0.78 {
		t.Errorf("expected final val accuracy 0.78, got %v", report.Epochs[1].ValAccuracy)
	}
}

func TestClient_Train_FailedJobSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(trainResponse{JobID: "job-2"})
			return
		}
		_ = json.NewEncoder(w).Encode(jobStatus{State: "failed", Error: "device out of memory"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, time.Millisecond)
	trainSet, valSet := testSets()

	_, err := client.Train(context.Background(), trainSet, valSet, model.TrainingConfig{})
	if err == nil {
		t.Fatal("expected error for failed job")
	}
	if !strings.Contains(err.Error(), "device out of memory") {
		t.Errorf("service error must surface unchanged, got: %v", err)
	}
}

func TestClient_Train_RejectsEmptyPartitions(t *testing.T) {
	client := NewClient("http://unused", time.Second, time.Millisecond)
	trainSet, _ := testSets()
	empty := &model.EncodedSet{Partition: model.PartitionValidation}

	if _, err := client.Train(context.Background(), trainSet, empty, model.TrainingConfig{}); err == nil {
		t.Fatal("expected error for empty validation partition")
	}
	if _, err := client.Train(context.Background(), nil, trainSet, model.TrainingConfig{}); err == nil {
		t.Fatal("expected error for nil train partition")
	}
}

func TestClient_Scores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/scores" {
			http.NotFound(w, r)
			return
		}
		var req scoresRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := scoresResponse{Scores: make([][]float64, len(req.Examples))}
		for i := range resp.Scores {
			resp.Scores[i] = []float64{0.1, 0.7, 0.2}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, time.Millisecond)
	trainSet, _ := testSets()

	scores, err := client.Scores(context.Background(), trainSet.Examples)
	if err != nil {
		t.Fatalf("Scores failed: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 score vectors, got %d", len(scores))
	}
	if len(scores[0]) != model.NumLabels {
		t.Errorf("expected %d classes, got %d", model.NumLabels, len(scores[0]))
	}
}

func TestClient_Scores_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(scoresResponse{Scores: [][]float64{{1, 0, 0}}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, time.Millisecond)
	trainSet, _ := testSets()

	if _, err := client.Scores(context.Background(), trainSet.Examples); err == nil {
		t.Fatal("expected error for score count mismatch")
	}
}

func TestClient_ServiceErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "hpu runtime unavailable")
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, time.Millisecond)
	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected error from unhealthy service")
	}
	if !strings.Contains(err.Error(), "hpu runtime unavailable") {
		t.Errorf("service body must surface in error, got: %v", err)
	}
}
