package model

import "knn/internal/linalg"

// Example pairs an input vector with its expected output.
type Example struct {
	Input    linalg.Vector
	Expected linalg.Vector
}

// Model defines the training functionality required by the trainer.
type Model interface {
	TrainStep(ex Example) (float64, error)
	Predict(input linalg.Vector) (linalg.Vector, error)
}
