package dataset

import (
	"github.com/pkg/errors"

	"knn/internal/linalg"
	"knn/internal/model"
)

// DigitClasses is the number of labels in the handwritten-digit set.
const DigitClasses = 10

// Examples pairs images with one-hot encoded labels.
func Examples(images []Image, labels []uint8, classes int) ([]model.Example, error) {
	if len(images) != len(labels) {
		return nil, errors.Wrapf(ErrFormat, "%d images, %d labels", len(images), len(labels))
	}
	out := make([]model.Example, len(images))
	for i, img := range images {
		if int(labels[i]) >= classes {
			return nil, errors.Wrapf(ErrFormat, "label %d at %d exceeds %d classes", labels[i], i, classes)
		}
		expected := make(linalg.Vector, classes)
		expected[labels[i]] = 1
		out[i] = model.Example{Input: img.Vector(), Expected: expected}
	}
	return out, nil
}

// LoadPair reads both files of p and converts them into examples.
func LoadPair(p Pair, limit int) ([]model.Example, error) {
	images, err := LoadImages(p.Images, limit)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabels(p.Labels, limit)
	if err != nil {
		return nil, err
	}
	return Examples(images, labels, DigitClasses)
}

// StreetLights is the five-example worked dataset: three lamp states in, walk
// or stop out.
func StreetLights() []model.Example {
	inputs := []linalg.Vector{
		{1, 0, 1},
		{0, 1, 1},
		{0, 0, 1},
		{1, 1, 1},
		{1, 1, 0},
	}
	targets := []float64{1, 1, 0, 0, 1}
	out := make([]model.Example, len(inputs))
	for i := range inputs {
		out[i] = model.Example{Input: inputs[i], Expected: linalg.Vector{targets[i]}}
	}
	return out
}

// StreetLightsHoldout is the input predicted after training.
func StreetLightsHoldout() linalg.Vector {
	return linalg.Vector{1, 1, 0}
}

// WorkedWeights returns the fixed initial weights of the 3-4-1 worked example.
func WorkedWeights() []linalg.Matrix {
	return []linalg.Matrix{
		{
			{-0.16595599, 0.44064899, -0.99977125, -0.39533485},
			{-0.70648822, -0.81532281, -0.62747958, -0.30887855},
			{-0.20646505, 0.07763347, -0.16161097, 0.370439},
		},
		{
			{-0.5910955},
			{0.75623487},
			{-0.94522481},
			{0.34093502},
		},
	}
}
