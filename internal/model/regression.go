package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RegressionConfig sizes a RegressionNetwork.
type RegressionConfig struct {
	Inputs  int
	Hidden1 int
	Hidden2 int
	Outputs int
}

// DefaultRegressionConfig returns the 9-70-70-1 topology.
func DefaultRegressionConfig() RegressionConfig {
	return RegressionConfig{Inputs: 9, Hidden1: 70, Hidden2: 70, Outputs: 1}
}

func (c RegressionConfig) withDefaults() RegressionConfig {
	d := DefaultRegressionConfig()
	if c.Inputs <= 0 {
		c.Inputs = d.Inputs
	}
	if c.Hidden1 <= 0 {
		c.Hidden1 = d.Hidden1
	}
	if c.Hidden2 <= 0 {
		c.Hidden2 = d.Hidden2
	}
	if c.Outputs <= 0 {
		c.Outputs = d.Outputs
	}
	return c
}

// RegressionNetwork maps a feature row to an unbounded output through two
// ReLU hidden layers.
type RegressionNetwork struct {
	FC1 *Linear
	FC2 *Linear
	Out *Linear

	h1 *mat.Dense
	h2 *mat.Dense
}

// NewRegressionNetwork constructs the network with random initialization.
// Non-positive sizes fall back to the defaults.
func NewRegressionNetwork(cfg RegressionConfig, rng *rand.Rand) *RegressionNetwork {
	cfg = cfg.withDefaults()
	return &RegressionNetwork{
		FC1: NewLinear(cfg.Inputs, cfg.Hidden1, rng),
		FC2: NewLinear(cfg.Hidden1, cfg.Hidden2, rng),
		Out: NewLinear(cfg.Hidden2, cfg.Outputs, rng),
	}
}

// Forward computes out(relu(fc2(relu(fc1(x))))).
func (n *RegressionNetwork) Forward(x mat.Matrix) *mat.Dense {
	h := relu(n.FC1.Forward(x))
	h = relu(n.FC2.Forward(h))
	return n.Out.Forward(h)
}

// Inputs returns the expected feature width.
func (n *RegressionNetwork) Inputs() int {
	in, _ := n.FC1.Dims()
	return in
}

// Params exposes the live parameter matrices keyed by layer.
func (n *RegressionNetwork) Params() Params {
	return collectParams(map[string]*Linear{"fc1": n.FC1, "fc2": n.FC2, "out": n.Out})
}

// Clone returns an independent deep copy of the network parameters.
func (n *RegressionNetwork) Clone() *RegressionNetwork {
	return &RegressionNetwork{
		FC1: n.FC1.clone(),
		FC2: n.FC2.clone(),
		Out: n.Out.clone(),
	}
}

func (n *RegressionNetwork) forwardTrain(x *mat.Dense) *mat.Dense {
	n.h1 = relu(n.FC1.forwardTrain(x))
	n.h2 = relu(n.FC2.forwardTrain(n.h1))
	return n.Out.forwardTrain(n.h2)
}

func (n *RegressionNetwork) backward(grad *mat.Dense) {
	g := n.Out.backward(grad)
	g = n.FC2.backward(reluBackward(n.h2, g))
	n.FC1.backward(reluBackward(n.h1, g))
}

func (n *RegressionNetwork) layers() []*Linear {
	return []*Linear{n.FC1, n.FC2, n.Out}
}
