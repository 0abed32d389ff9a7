package linalg

import "github.com/pkg/errors"

// ApplyGradientVector returns w + alpha*g.
func ApplyGradientVector(w, g Vector, alpha float64) (Vector, error) {
	out, err := Sum(w, Scale(g, alpha))
	if err != nil {
		return nil, errors.WithMessage(err, "apply gradient")
	}
	return out, nil
}

// ApplyGradient returns weights + alpha*gradient without touching either
// argument.
func ApplyGradient(weights, gradient Matrix, alpha float64) (Matrix, error) {
	if len(weights) != len(gradient) {
		return nil, errors.Wrapf(ErrShapeMismatch, "apply gradient: %d rows vs %d rows", len(weights), len(gradient))
	}
	out := make(Matrix, len(weights))
	for i := range weights {
		row, err := ApplyGradientVector(weights[i], gradient[i], alpha)
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", i)
		}
		out[i] = row
	}
	return out, nil
}

// OuterGradient computes transpose(values)·deltas, the weight gradient of a
// dense connection whose input activations are values.
func OuterGradient(values, deltas Matrix) (Matrix, error) {
	vt, err := Transpose(values)
	if err != nil {
		return nil, err
	}
	g, err := MatMul(vt, deltas)
	if err != nil {
		return nil, errors.WithMessage(err, "gradient")
	}
	return g, nil
}
