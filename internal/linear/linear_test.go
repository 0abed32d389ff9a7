package linear

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knn/internal/linalg"
)

func TestManyToOneWorkedExample(t *testing.T) {
	var errs []float64
	data := Data{Alpha: 0.7, Weights: linalg.Vector{0.1}, Inputs: linalg.Vector{1}, Goal: 14}
	res, err := ManyToOne(data, func(try int, e float64, _ linalg.Vector) {
		assert.Equal(t, len(errs), try)
		errs = append(errs, e)
	})
	require.NoError(t, err)

	assert.Less(t, res.Tries, DefaultTries)
	assert.Equal(t, 8, res.Tries)
	assert.Less(t, res.Error, DefaultThreshold)
	require.Len(t, errs, res.Tries)
	assert.InDelta(t, 193.21, errs[0], 1e-9)
	for i := 1; i < len(errs); i++ {
		assert.Less(t, errs[i], errs[i-1], "error did not decrease at try %d", i)
	}
	assert.InDelta(t, 14.0, res.Weights[0], 0.01)
	assert.Equal(t, linalg.Vector{0.1}, data.Weights, "input weights must not change")
}

func TestManyToOneStopsAtTries(t *testing.T) {
	res, err := ManyToOne(Data{Alpha: 1e-6, Weights: linalg.Vector{0}, Inputs: linalg.Vector{1}, Goal: 5, Tries: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Tries)
	assert.Greater(t, res.Error, DefaultThreshold)
}

func TestManyToOneShapeMismatch(t *testing.T) {
	_, err := ManyToOne(Data{Alpha: 0.1, Weights: linalg.Vector{0, 1}, Inputs: linalg.Vector{1}}, nil)
	assert.True(t, errors.Is(err, linalg.ErrShapeMismatch))
}

func TestManyToManyFitsEachRow(t *testing.T) {
	inputs := linalg.Vector{0.1, -0.2, 0.4}
	goals := linalg.Vector{1, 3, -1}
	weights := linalg.Matrix{
		{0.5, -0.3, 0.2},
		{0.5, -0.3, 0.2},
		{0.5, -0.3, 0.2},
	}
	seen := map[int]int{}
	res, err := ManyToMany(Data{Alpha: 2, Inputs: inputs}, goals, weights, func(row int) Observer {
		return func(int, float64, linalg.Vector) { seen[row]++ }
	})
	require.NoError(t, err)
	require.Len(t, res.Predictions, 3)
	for i, g := range goals {
		assert.InDelta(t, g, res.Predictions[i], 0.01, "row %d", i)
		assert.Equal(t, res.Rows[i].Tries, seen[i])
	}
	assert.Equal(t, linalg.Vector{0.5, -0.3, 0.2}, weights[0])
}

func TestManyToManyShapeMismatch(t *testing.T) {
	_, err := ManyToMany(Data{Alpha: 0.1, Inputs: linalg.Vector{1, 2}}, linalg.Vector{1}, linalg.Matrix{{1, 2}, {3, 4}}, nil)
	assert.True(t, errors.Is(err, linalg.ErrShapeMismatch))

	_, err = ManyToMany(Data{Alpha: 0.1, Inputs: linalg.Vector{1, 2}}, linalg.Vector{1}, linalg.Matrix{{1, 2, 3}}, nil)
	assert.True(t, errors.Is(err, linalg.ErrShapeMismatch))
}

func TestManyToManyHonorsTriesAndThreshold(t *testing.T) {
	inputs := linalg.Vector{0.1, -0.2, 0.4}
	goals := linalg.Vector{1, 3}
	weights := linalg.Matrix{{0, 0, 0}, {0, 0, 0}}

	res, err := ManyToMany(Data{Alpha: 0.004, Inputs: inputs, Tries: 7}, goals, weights, nil)
	require.NoError(t, err)
	for i, row := range res.Rows {
		assert.Equal(t, 7, row.Tries, "row %d", i)
	}

	res, err = ManyToMany(Data{Alpha: 2, Inputs: inputs, Threshold: 1}, goals, weights, nil)
	require.NoError(t, err)
	full, err := ManyToMany(Data{Alpha: 2, Inputs: inputs}, goals, weights, nil)
	require.NoError(t, err)
	for i := range goals {
		assert.Less(t, res.Rows[i].Tries, full.Rows[i].Tries, "row %d", i)
	}
}
