package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear is an affine layer computing x·W + b for a batch of row vectors.
type Linear struct {
	Weight *mat.Dense // in × out
	Bias   *mat.Dense // 1 × out

	gradW *mat.Dense
	gradB *mat.Dense
	input *mat.Dense
}

// NewLinear draws weights and biases uniformly from ±1/sqrt(in).
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	bound := 1 / math.Sqrt(float64(in))
	w := make([]float64, in*out)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * bound
	}
	b := make([]float64, out)
	for i := range b {
		b[i] = (rng.Float64()*2 - 1) * bound
	}
	return &Linear{
		Weight: mat.NewDense(in, out, w),
		Bias:   mat.NewDense(1, out, b),
	}
}

// Dims returns the input and output widths.
func (l *Linear) Dims() (in, out int) {
	return l.Weight.Dims()
}

// Forward applies the layer without caching anything for backprop.
func (l *Linear) Forward(x mat.Matrix) *mat.Dense {
	rows, _ := x.Dims()
	_, out := l.Weight.Dims()
	y := mat.NewDense(rows, out, nil)
	y.Mul(x, l.Weight)
	bias := l.Bias.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := y.RawRowView(i)
		for j := range row {
			row[j] += bias[j]
		}
	}
	return y
}

func (l *Linear) forwardTrain(x *mat.Dense) *mat.Dense {
	l.input = x
	return l.Forward(x)
}

// backward stores dW and db and returns the gradient w.r.t. the layer input.
func (l *Linear) backward(grad *mat.Dense) *mat.Dense {
	in, out := l.Weight.Dims()
	if l.gradW == nil {
		l.gradW = mat.NewDense(in, out, nil)
		l.gradB = mat.NewDense(1, out, nil)
	}
	l.gradW.Mul(l.input.T(), grad)

	db := l.gradB.RawRowView(0)
	for j := range db {
		db[j] = 0
	}
	rows, _ := grad.Dims()
	for i := 0; i < rows; i++ {
		for j, g := range grad.RawRowView(i) {
			db[j] += g
		}
	}

	dx := mat.NewDense(rows, in, nil)
	dx.Mul(grad, l.Weight.T())
	return dx
}

func (l *Linear) clone() *Linear {
	return &Linear{
		Weight: mat.DenseCopyOf(l.Weight),
		Bias:   mat.DenseCopyOf(l.Bias),
	}
}

func relu(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, x)
	return out
}

// reluBackward masks grad where the activation output was clamped to zero.
func reluBackward(activated, grad *mat.Dense) *mat.Dense {
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, g float64) float64 {
		if activated.At(i, j) > 0 {
			return g
		}
		return 0
	}, grad)
	return out
}
