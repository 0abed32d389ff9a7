package model

import (
	"math/rand"

	"github.com/pkg/errors"

	"knn/internal/layer"
	"knn/internal/linalg"
)

// Options tunes the layers built by New and NewWithWeights.
type Options struct {
	Alpha float64
	// ReLUWeights switches hidden layers to the legacy values·ReLU(weights)
	// forward pass.
	ReLUWeights bool
}

// Network is a dense ReLU network trained online, one example at a time.
type Network struct {
	topology []int
	layers   []layer.Layer
	input    *layer.Input
	output   *layer.Output
}

// New builds a network for topology with weights drawn uniformly from [-1, 1).
// topology lists layer sizes from input to output and needs at least three
// entries.
func New(topology []int, opts Options, rng *rand.Rand) (*Network, error) {
	if len(topology) < 3 {
		return nil, errors.Errorf("model: topology needs at least 3 layers, got %d", len(topology))
	}
	weights := make([]linalg.Matrix, len(topology)-1)
	for i := range weights {
		if topology[i] <= 0 || topology[i+1] <= 0 {
			return nil, errors.Errorf("model: layer sizes must be > 0 (got %v)", topology)
		}
		weights[i] = linalg.RandomMatrix(topology[i], topology[i+1], rng)
	}
	return NewWithWeights(weights, opts)
}

// NewWithWeights builds a network owning the given weight matrices, one per
// connection. Each matrix has rows = inputs and cols = outputs, and the
// matrices must chain.
func NewWithWeights(weights []linalg.Matrix, opts Options) (*Network, error) {
	if len(weights) < 2 {
		return nil, errors.Errorf("model: need at least 2 weight matrices, got %d", len(weights))
	}
	topology := make([]int, 0, len(weights)+1)
	for i, w := range weights {
		if err := w.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "weights %d", i)
		}
		rows, cols := w.Shape()
		if rows == 0 || cols == 0 {
			return nil, errors.Wrapf(linalg.ErrShapeMismatch, "weights %d are empty", i)
		}
		if i > 0 && rows != topology[i] {
			return nil, errors.Wrapf(linalg.ErrShapeMismatch, "weights %d have %d rows, previous layer has %d outputs", i, rows, topology[i])
		}
		if i == 0 {
			topology = append(topology, rows)
		}
		topology = append(topology, cols)
	}

	n := &Network{topology: topology}
	n.input = layer.NewInput(weights[0].Clone(), opts.Alpha)
	n.layers = append(n.layers, n.input)
	for i := 1; i < len(weights); i++ {
		h := layer.NewHidden(weights[i].Clone(), opts.Alpha, i < len(weights)-1)
		h.ReLUWeights = opts.ReLUWeights
		n.layers = append(n.layers, h)
	}
	n.output = layer.NewOutput()
	n.layers = append(n.layers, n.output)
	return n, nil
}

// Topology returns the layer sizes from input to output.
func (n *Network) Topology() []int {
	return append([]int(nil), n.topology...)
}

// Layers exposes the ordered layers.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Weights returns copies of the current weight matrices.
func (n *Network) Weights() []linalg.Matrix {
	out := make([]linalg.Matrix, 0, len(n.layers)-1)
	for _, l := range n.layers[:len(n.layers)-1] {
		out = append(out, l.Weights().Clone())
	}
	return out
}

// TrainStep runs one forward pass, records the loss, then runs one backward
// pass that updates every weight matrix.
func (n *Network) TrainStep(ex Example) (float64, error) {
	if len(ex.Expected) != n.topology[len(n.topology)-1] {
		return 0, errors.Wrapf(linalg.ErrShapeMismatch, "expected length %d, output layer has %d units", len(ex.Expected), n.topology[len(n.topology)-1])
	}
	if err := n.forward(ex.Input); err != nil {
		return 0, err
	}
	n.output.SetExpected(linalg.ToMatrix(ex.Expected))
	loss, err := n.output.Error()
	if err != nil {
		return 0, err
	}
	if err := n.backward(); err != nil {
		return 0, err
	}
	return loss, nil
}

// Predict runs a forward pass only.
func (n *Network) Predict(input linalg.Vector) (linalg.Vector, error) {
	if err := n.forward(input); err != nil {
		return nil, err
	}
	return linalg.ToVector(n.output.Values())
}

func (n *Network) forward(input linalg.Vector) error {
	if len(input) != n.topology[0] {
		return errors.Wrapf(linalg.ErrShapeMismatch, "input length %d, input layer has %d units", len(input), n.topology[0])
	}
	n.input.SetValues(linalg.ToMatrix(input))
	for i := 0; i < len(n.layers)-1; i++ {
		out, err := n.layers[i].Forward()
		if err != nil {
			return errors.WithMessagef(err, "layer %d", i)
		}
		n.layers[i+1].SetValues(out)
	}
	return nil
}

func (n *Network) backward() error {
	var delta linalg.Matrix
	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]
		upd, err := l.Back(delta)
		if err != nil {
			return errors.WithMessagef(err, "layer %d", i)
		}
		if upd.Weights != nil {
			l.SetWeights(upd.Weights)
		}
		delta = upd.Delta
	}
	return nil
}
