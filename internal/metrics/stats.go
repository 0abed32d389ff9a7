package metrics

import "time"

// Window accumulates loss and timing stats across multiple epochs.
type Window struct {
	examples int
	compute  time.Duration
	epochs   int
	lossSum  float64
	lastLoss float64
}

// Record adds one epoch's measurement to the window. lossSum is the summed
// loss over the epoch's examples; lastLoss is the loss of its final example.
func (w *Window) Record(examples int, computeTime time.Duration, lossSum, lastLoss float64) {
	w.examples += examples
	w.compute += computeTime
	w.epochs++
	w.lossSum += lossSum
	w.lastLoss = lastLoss
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{}
	if w.compute > 0 {
		snap.ExamplesPerSec = float64(w.examples) / w.compute.Seconds()
	}
	if w.epochs > 0 {
		snap.AvgEpochMS = (w.compute.Seconds() * 1000) / float64(w.epochs)
	}
	if w.examples > 0 {
		snap.MeanLoss = w.lossSum / float64(w.examples)
	}
	snap.LastLoss = w.lastLoss

	w.examples = 0
	w.compute = 0
	w.epochs = 0
	w.lossSum = 0
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	ExamplesPerSec float64
	AvgEpochMS     float64
	MeanLoss       float64
	LastLoss       float64
}
