package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func TestRegressionForwardMatchesManualComposition(t *testing.T) {
	net := NewRegressionNetwork(RegressionConfig{Inputs: 2, Hidden1: 2, Hidden2: 2, Outputs: 1}, rand.New(rand.NewSource(1)))
	net.FC1.Weight = mat.NewDense(2, 2, []float64{1, -1, 2, 0.5})
	net.FC2.Weight = mat.NewDense(2, 2, []float64{0.5, -2, 1, 1})
	net.Out.Weight = mat.NewDense(2, 1, []float64{3, -1})
	for _, l := range []*Linear{net.FC1, net.FC2, net.Out} {
		l.Bias.Zero()
	}

	x := mat.NewDense(1, 2, []float64{1, 2})
	// fc1: [1*1+2*2, 1*-1+2*0.5] = [5, 0] -> relu [5, 0]
	// fc2: [5*0.5+0*1, 5*-2+0*1] = [2.5, -10] -> relu [2.5, 0]
	// out: 2.5*3 + 0*-1 = 7.5
	got := net.Forward(x)
	r, c := got.Dims()
	require.Equal(t, 1, r)
	require.Equal(t, 1, c)
	assert.InDelta(t, 7.5, got.At(0, 0), 1e-12)
}

func TestRegressionOutputIsUnbounded(t *testing.T) {
	net := NewRegressionNetwork(RegressionConfig{Inputs: 1, Hidden1: 1, Hidden2: 1, Outputs: 1}, rand.New(rand.NewSource(1)))
	net.FC1.Weight = mat.NewDense(1, 1, []float64{1})
	net.FC2.Weight = mat.NewDense(1, 1, []float64{1})
	net.Out.Weight = mat.NewDense(1, 1, []float64{-4})
	for _, l := range []*Linear{net.FC1, net.FC2, net.Out} {
		l.Bias.Zero()
	}
	got := net.Forward(mat.NewDense(1, 1, []float64{2}))
	assert.InDelta(t, -8, got.At(0, 0), 1e-12)
}

func TestRegressionDefaults(t *testing.T) {
	net := NewRegressionNetwork(RegressionConfig{}, rand.New(rand.NewSource(3)))
	assert.Equal(t, 9, net.Inputs())
	in, out := net.FC2.Dims()
	assert.Equal(t, 70, in)
	assert.Equal(t, 70, out)
	_, out = net.Out.Dims()
	assert.Equal(t, 1, out)
	assert.Len(t, net.Params(), 6)
}

func TestAutoencoderZeroWeightsGiveZeroOutput(t *testing.T) {
	ae := NewAutoencoder(AutoencoderConfig{Inputs: 4, Hidden: 3, Code: 2}, rand.New(rand.NewSource(1)))
	for _, l := range ae.layers() {
		l.Weight.Zero()
		l.Bias.Zero()
	}
	x := mat.NewDense(1, 4, nil)
	z := ae.Encode(x)
	_, zc := z.Dims()
	assert.Equal(t, 2, zc)
	out := ae.Decode(z)
	_, oc := out.Dims()
	require.Equal(t, 4, oc)
	for j := 0; j < oc; j++ {
		assert.Zero(t, out.At(0, j))
	}
	assert.True(t, mat.Equal(out, ae.Forward(x)))
}

func TestCloneDoesNotAlias(t *testing.T) {
	net := NewRegressionNetwork(RegressionConfig{Inputs: 3, Hidden1: 4, Hidden2: 4, Outputs: 1}, rand.New(rand.NewSource(5)))
	snap := net.Clone()
	before := snap.FC1.Weight.At(0, 0)

	net.FC1.Weight.Set(0, 0, before+10)
	assert.Equal(t, before, snap.FC1.Weight.At(0, 0))

	params := net.Params().Clone()
	net.Out.Bias.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, params["out.bias"].At(0, 0))
}

func TestSmoothL1(t *testing.T) {
	pred := mat.NewDense(2, 1, []float64{0.5, 3})
	target := mat.NewDense(2, 1, []float64{0, 0})
	loss := SmoothL1{}.Compute(pred, target)
	// (0.5*0.25 + (3-0.5)) / 2
	assert.InDelta(t, (0.125+2.5)/2, loss, 1e-12)

	g := SmoothL1{}.Gradient(pred, target)
	assert.InDelta(t, 0.25, g.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, g.At(1, 0), 1e-12)
}

func TestMSE(t *testing.T) {
	pred := mat.NewDense(1, 2, []float64{1, 3})
	target := mat.NewDense(1, 2, []float64{0, 1})
	assert.InDelta(t, 2.5, MSE{}.Compute(pred, target), 1e-12)
	g := MSE{}.Gradient(pred, target)
	assert.InDelta(t, 1, g.At(0, 0), 1e-12)
	assert.InDelta(t, 2, g.At(0, 1), 1e-12)
}

func TestRegressionGradientMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	net := NewRegressionNetwork(RegressionConfig{Inputs: 3, Hidden1: 5, Hidden2: 4, Outputs: 1}, rng)
	x := mat.NewDense(4, 3, []float64{
		0.1, -0.2, 0.3,
		0.5, 0.4, -0.1,
		-0.3, 0.2, 0.9,
		0.7, -0.6, 0.2,
	})
	y := mat.NewDense(4, 1, []float64{0.5, -1, 2, 0.1})
	loss := SmoothL1{}

	pred := net.forwardTrain(x)
	net.backward(loss.Gradient(pred, y))

	for _, layer := range net.layers() {
		w := layer.Weight.RawMatrix().Data
		orig := append([]float64(nil), w...)
		numeric := fd.Gradient(nil, func(p []float64) float64 {
			copy(w, p)
			return loss.Compute(net.Forward(x), y)
		}, orig, &fd.Settings{Formula: fd.Central, Step: 1e-6})
		copy(w, orig)

		analytic := layer.gradW.RawMatrix().Data
		for i := range numeric {
			assert.InDelta(t, numeric[i], analytic[i], 1e-5, "weight %d", i)
		}
	}
}

func TestLearnerReducesLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := NewRegressionNetwork(RegressionConfig{Inputs: 2, Hidden1: 8, Hidden2: 8, Outputs: 1}, rng)
	learner := NewLearner(net, NewAdam(AdamConfig{LR: 0.01}), SmoothL1{})
	batch := Batch{
		Inputs:  mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1}),
		Targets: mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
	}
	first := learner.TrainStep(batch)
	last := first
	for i := 0; i < 200; i++ {
		last = learner.TrainStep(batch)
	}
	assert.Less(t, last, first)
	assert.False(t, math.IsNaN(last))
}

func TestAutoencoderLearnerReducesLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ae := NewAutoencoder(AutoencoderConfig{Inputs: 3, Hidden: 6, Code: 2}, rng)
	learner := NewLearner(ae, NewAdam(AdamConfig{LR: 0.01}), MSE{})
	x := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	batch := Batch{Inputs: x, Targets: x}
	first := learner.TrainStep(batch)
	last := first
	for i := 0; i < 300; i++ {
		last = learner.TrainStep(batch)
	}
	assert.Less(t, last, first)
}

func TestEmptyBatchIsNoop(t *testing.T) {
	net := NewRegressionNetwork(RegressionConfig{}, rand.New(rand.NewSource(1)))
	learner := NewLearner(net, NewAdam(AdamConfig{}), SmoothL1{})
	assert.Zero(t, learner.TrainStep(Batch{}))
}
