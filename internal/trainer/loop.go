package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"knn/internal/linalg"
	"knn/internal/metrics"
	"knn/internal/model"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Model    model.Model
	Examples []model.Example
	// Holdout, if set, is predicted once after the last epoch.
	Holdout  linalg.Vector
	Epochs   int
	LogEvery int
	RunID    string
	// OnEpoch is called after every epoch.
	OnEpoch func(EpochStats)
}

// EpochStats describes one finished epoch.
type EpochStats struct {
	Epoch    int
	LastLoss float64
	MeanLoss float64
	Duration time.Duration
}

// Result is the outcome of a run.
type Result struct {
	RunID string
	// Losses holds the loss of the last example of every epoch.
	Losses     []float64
	MeanLosses []float64
	Prediction linalg.Vector
}

// Run trains cfg.Model online: every epoch visits the examples in order and
// takes one step per example. ctx is only checked between epochs.
func Run(ctx context.Context, cfg RunConfig) (Result, error) {
	if cfg.Model == nil {
		return Result{}, errors.New("trainer: model is nil")
	}
	if cfg.Epochs <= 0 {
		return Result{}, errors.New("trainer: epochs must be > 0")
	}
	if len(cfg.Examples) == 0 {
		return Result{}, errors.New("trainer: no training examples")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 1
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}

	res := Result{
		RunID:      cfg.RunID,
		Losses:     make([]float64, 0, cfg.Epochs),
		MeanLosses: make([]float64, 0, cfg.Epochs),
	}
	var window metrics.Window

	log.Printf("run=%s examples=%d epochs=%d", cfg.RunID, len(cfg.Examples), cfg.Epochs)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		start := time.Now()
		var sum, last float64
		for i, ex := range cfg.Examples {
			loss, err := cfg.Model.TrainStep(ex)
			if err != nil {
				return res, fmt.Errorf("epoch %d example %d: %w", epoch, i, err)
			}
			sum += loss
			last = loss
		}
		elapsed := time.Since(start)

		mean := sum / float64(len(cfg.Examples))
		res.Losses = append(res.Losses, last)
		res.MeanLosses = append(res.MeanLosses, mean)
		window.Record(len(cfg.Examples), elapsed, sum, last)

		if cfg.OnEpoch != nil {
			cfg.OnEpoch(EpochStats{Epoch: epoch, LastLoss: last, MeanLoss: mean, Duration: elapsed})
		}
		if (epoch+1)%cfg.LogEvery == 0 || epoch == cfg.Epochs-1 {
			snap := window.Snapshot()
			log.Printf("run=%s epoch=%d loss=%.6f mean_loss=%.6f examples_per_sec=%.1f epoch_ms=%.3f",
				cfg.RunID,
				epoch,
				snap.LastLoss,
				snap.MeanLoss,
				snap.ExamplesPerSec,
				snap.AvgEpochMS,
			)
		}
	}

	if final := res.MeanLosses[len(res.MeanLosses)-1]; math.IsNaN(final) || math.IsInf(final, 0) {
		log.Printf("run=%s warning: training diverged, final mean loss %v", cfg.RunID, final)
	}

	if cfg.Holdout != nil {
		pred, err := cfg.Model.Predict(cfg.Holdout)
		if err != nil {
			return res, fmt.Errorf("predict holdout: %w", err)
		}
		res.Prediction = pred
		log.Printf("run=%s prediction=%v", cfg.RunID, pred)
	}
	return res, nil
}

// ArgMax returns the index of the largest element, or -1 for an empty vector.
func ArgMax(v linalg.Vector) int {
	best := -1
	for i, x := range v {
		if best < 0 || x > v[best] {
			best = i
		}
	}
	return best
}

// Accuracy reports the share of examples whose predicted class matches the
// one-hot expected class.
func Accuracy(m model.Model, examples []model.Example) (float64, error) {
	if len(examples) == 0 {
		return 0, nil
	}
	hits := 0
	for i, ex := range examples {
		pred, err := m.Predict(ex.Input)
		if err != nil {
			return 0, fmt.Errorf("example %d: %w", i, err)
		}
		if ArgMax(pred) == ArgMax(ex.Expected) {
			hits++
		}
	}
	return float64(hits) / float64(len(examples)), nil
}
