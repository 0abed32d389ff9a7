// Package layer defines the dense ReLU layers that make up a network.
//
// A layer owns its current activations and its outgoing weights. Forward
// computes the activations of the next layer. Back takes the delta arriving
// from downstream and returns an Update holding this layer's new weights and
// the delta for the layer upstream; it never mutates the layer, so callers
// apply Update.Weights explicitly.
package layer

import (
	"github.com/pkg/errors"

	"knn/internal/linalg"
)

// Kind identifies the position of a layer in the network.
type Kind int

const (
	KindInput Kind = iota
	KindHidden
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindHidden:
		return "hidden"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Update is the result of a backward step.
type Update struct {
	// Weights replaces the layer's weights. Nil for the output layer.
	Weights linalg.Matrix
	// Delta is the error signal for the upstream layer. Nil for the input layer.
	Delta linalg.Matrix
}

// Layer is implemented by Input, Hidden and Output.
type Layer interface {
	Kind() Kind
	Forward() (linalg.Matrix, error)
	Back(deltas linalg.Matrix) (Update, error)
	Values() linalg.Matrix
	SetValues(values linalg.Matrix)
	Weights() linalg.Matrix
	SetWeights(weights linalg.Matrix)
}

type state struct {
	values  linalg.Matrix
	weights linalg.Matrix
}

func (s *state) Values() linalg.Matrix      { return s.values }
func (s *state) SetValues(v linalg.Matrix)  { s.values = v }
func (s *state) Weights() linalg.Matrix     { return s.weights }
func (s *state) SetWeights(w linalg.Matrix) { s.weights = w }

// descend returns weights + alpha*transpose(values)·deltas.
func (s *state) descend(deltas linalg.Matrix, alpha float64) (linalg.Matrix, error) {
	grad, err := linalg.OuterGradient(s.values, deltas)
	if err != nil {
		return nil, err
	}
	return linalg.ApplyGradient(s.weights, grad, alpha)
}

// Input is the first layer. Its values are the raw example features.
type Input struct {
	state
	Alpha float64
}

// NewInput returns an input layer owning weights.
func NewInput(weights linalg.Matrix, alpha float64) *Input {
	return &Input{state: state{weights: weights}, Alpha: alpha}
}

func (l *Input) Kind() Kind { return KindInput }

// Forward returns ReLU(values·weights).
func (l *Input) Forward() (linalg.Matrix, error) {
	out, err := linalg.MatMul(l.values, l.weights)
	if err != nil {
		return nil, errors.WithMessage(err, "input forward")
	}
	return linalg.ReLUMatrix(out), nil
}

// Back returns the updated weights. There is no upstream delta.
func (l *Input) Back(deltas linalg.Matrix) (Update, error) {
	w, err := l.descend(deltas, l.Alpha)
	if err != nil {
		return Update{}, errors.WithMessage(err, "input back")
	}
	return Update{Weights: w}, nil
}

// Hidden sits between the input and output layers.
type Hidden struct {
	state
	Alpha float64
	// Activate applies ReLU to the forward output. It is set on every hidden
	// layer except the one that feeds the output layer.
	Activate bool
	// ReLUWeights reproduces the legacy forward pass values·ReLU(weights).
	// The backward pass still uses the raw weights.
	ReLUWeights bool
}

// NewHidden returns a hidden layer owning weights.
func NewHidden(weights linalg.Matrix, alpha float64, activate bool) *Hidden {
	return &Hidden{state: state{weights: weights}, Alpha: alpha, Activate: activate}
}

func (l *Hidden) Kind() Kind { return KindHidden }

// Forward returns values·weights, passed through ReLU when Activate is set.
func (l *Hidden) Forward() (linalg.Matrix, error) {
	w := l.weights
	if l.ReLUWeights {
		w = linalg.ReLUMatrix(w)
	}
	out, err := linalg.MatMul(l.values, w)
	if err != nil {
		return nil, errors.WithMessage(err, "hidden forward")
	}
	if l.Activate {
		out = linalg.ReLUMatrix(out)
	}
	return out, nil
}

// Back propagates deltas·transpose(weights) gated by values > 0, and updates
// the weights with the incoming deltas.
func (l *Hidden) Back(deltas linalg.Matrix) (Update, error) {
	wt, err := linalg.Transpose(l.weights)
	if err != nil {
		return Update{}, errors.WithMessage(err, "hidden back")
	}
	upstream, err := linalg.MatMul(deltas, wt)
	if err != nil {
		return Update{}, errors.WithMessage(err, "hidden back")
	}
	gated, err := linalg.ReLUGate(upstream, l.values)
	if err != nil {
		return Update{}, errors.WithMessage(err, "hidden back")
	}
	w, err := l.descend(deltas, l.Alpha)
	if err != nil {
		return Update{}, errors.WithMessage(err, "hidden back")
	}
	return Update{Weights: w, Delta: gated}, nil
}

// Output is the terminal layer. It holds the expected values of the current
// example and seeds backpropagation.
type Output struct {
	state
	expected linalg.Matrix
}

// NewOutput returns an empty output layer.
func NewOutput() *Output {
	return &Output{}
}

func (l *Output) Kind() Kind { return KindOutput }

// SetExpected sets the target for the current example.
func (l *Output) SetExpected(expected linalg.Matrix) { l.expected = expected }

// Expected returns the current target.
func (l *Output) Expected() linalg.Matrix { return l.expected }

// Forward is a no-op for the terminal layer.
func (l *Output) Forward() (linalg.Matrix, error) { return nil, nil }

// Back ignores deltas and returns expected - values as the first delta.
func (l *Output) Back(linalg.Matrix) (Update, error) {
	d, err := linalg.SubMatrix(l.expected, l.values)
	if err != nil {
		return Update{}, errors.WithMessage(err, "output back")
	}
	return Update{Delta: d}, nil
}

// Error returns the sum of squared differences between values and expected.
func (l *Output) Error() (float64, error) {
	d, err := linalg.SubMatrix(l.values, l.expected)
	if err != nil {
		return 0, errors.WithMessage(err, "output error")
	}
	var sum float64
	for _, row := range d {
		sum += linalg.SumSquares(row)
	}
	return sum, nil
}
