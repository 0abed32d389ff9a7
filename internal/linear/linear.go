// Package linear fits a single weight vector to a scalar target by plain
// gradient descent on a linear model.
package linear

import (
	"github.com/pkg/errors"

	"knn/internal/linalg"
)

const (
	// DefaultTries bounds the number of descent iterations.
	DefaultTries = 400
	// DefaultThreshold is the squared error below which descent stops.
	DefaultThreshold = 1e-4
)

// Data describes one fitting problem. Zero Tries or Threshold select the
// defaults.
type Data struct {
	Alpha     float64
	Weights   linalg.Vector
	Inputs    linalg.Vector
	Goal      float64
	Tries     int
	Threshold float64
}

// Result holds the fitted weights and the error measured on the last try.
type Result struct {
	Weights linalg.Vector
	Error   float64
	Tries   int
}

// Observer receives the state after every iteration.
type Observer func(try int, err float64, weights linalg.Vector)

// ManyToOne repeats prediction = inputs·w, delta = prediction - goal,
// w -= alpha*delta*inputs until the squared error drops below the threshold
// or the tries run out. data.Weights is not modified.
func ManyToOne(data Data, observe Observer) (Result, error) {
	if data.Tries <= 0 {
		data.Tries = DefaultTries
	}
	if data.Threshold <= 0 {
		data.Threshold = DefaultThreshold
	}
	if len(data.Inputs) != len(data.Weights) {
		return Result{}, errors.Wrapf(linalg.ErrShapeMismatch, "linear: %d inputs, %d weights", len(data.Inputs), len(data.Weights))
	}

	weights := data.Weights.Clone()
	res := Result{Error: 1}
	for res.Error >= data.Threshold && res.Tries < data.Tries {
		prediction, err := linalg.Dot(data.Inputs, weights)
		if err != nil {
			return Result{}, err
		}
		delta := prediction - data.Goal
		res.Error = delta * delta
		weights, err = linalg.ApplyGradientVector(weights, linalg.Scale(data.Inputs, delta), -data.Alpha)
		if err != nil {
			return Result{}, err
		}
		if observe != nil {
			observe(res.Tries, res.Error, weights)
		}
		res.Tries++
	}
	res.Weights = weights
	return res, nil
}

// ManyToManyResult holds one fitted row per goal.
type ManyToManyResult struct {
	Weights     linalg.Matrix
	Predictions linalg.Vector
	Rows        []Result
}

// ManyToMany fits weights[i] to goals[i] independently. Alpha, Inputs, Tries
// and Threshold come from base; its Weights and Goal are ignored. Every weight
// row must have len(base.Inputs) entries. The observer, if set, is called with
// the row index before each row is fitted.
func ManyToMany(base Data, goals linalg.Vector, weights linalg.Matrix, observe func(row int) Observer) (ManyToManyResult, error) {
	if len(weights) != len(goals) {
		return ManyToManyResult{}, errors.Wrapf(linalg.ErrShapeMismatch, "linear: %d weight rows, %d goals", len(weights), len(goals))
	}
	out := ManyToManyResult{
		Weights:     make(linalg.Matrix, len(goals)),
		Predictions: make(linalg.Vector, len(goals)),
		Rows:        make([]Result, len(goals)),
	}
	for row, goal := range goals {
		var obs Observer
		if observe != nil {
			obs = observe(row)
		}
		data := base
		data.Weights = weights[row]
		data.Goal = goal
		res, err := ManyToOne(data, obs)
		if err != nil {
			return ManyToManyResult{}, errors.WithMessagef(err, "row %d", row)
		}
		pred, err := linalg.Dot(res.Weights, base.Inputs)
		if err != nil {
			return ManyToManyResult{}, err
		}
		out.Weights[row] = res.Weights
		out.Predictions[row] = pred
		out.Rows[row] = res
	}
	return out, nil
}
