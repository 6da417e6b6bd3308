package train

import (
	"context"

	"github.com/mzhdanov/finsent/internal/model"
)

// Trainer is the capability surface of the external fine-tuning runtime.
// The pipeline supplies encoded datasets and a configuration bundle and
// consumes metrics; epochs, batching, device placement and multi-process
// gradient synchronization all happen on the other side of this interface.
type Trainer interface {
	// Train runs supervised fine-tuning over the encoded train set,
	// validating each epoch against the validation set.
	Train(ctx context.Context, trainSet, valSet *model.EncodedSet, cfg model.TrainingConfig) (*model.TrainReport, error)

	// Scores runs the current model over encoded examples and returns one
	// raw per-class score vector per example.
	Scores(ctx context.Context, examples []model.EncodedExample) ([][]float64, error)
}
