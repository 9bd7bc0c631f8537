package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Loss computes a mean-reduced scalar loss and its gradient with respect to
// the predictions.
type Loss interface {
	Compute(pred, target mat.Matrix) float64
	Gradient(pred, target mat.Matrix) *mat.Dense
}

// SmoothL1 is quadratic for residuals below Beta and linear above it.
type SmoothL1 struct {
	Beta float64
}

func (s SmoothL1) beta() float64 {
	if s.Beta <= 0 {
		return 1
	}
	return s.Beta
}

func (s SmoothL1) Compute(pred, target mat.Matrix) float64 {
	beta := s.beta()
	r, c := pred.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := math.Abs(pred.At(i, j) - target.At(i, j))
			if d < beta {
				sum += 0.5 * d * d / beta
			} else {
				sum += d - 0.5*beta
			}
		}
	}
	return sum / float64(r*c)
}

func (s SmoothL1) Gradient(pred, target mat.Matrix) *mat.Dense {
	beta := s.beta()
	r, c := pred.Dims()
	scale := 1 / float64(r*c)
	g := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := pred.At(i, j) - target.At(i, j)
			switch {
			case math.Abs(d) < beta:
				g.Set(i, j, scale*d/beta)
			case d > 0:
				g.Set(i, j, scale)
			default:
				g.Set(i, j, -scale)
			}
		}
	}
	return g
}

// MSE is the mean squared error over every element.
type MSE struct{}

func (MSE) Compute(pred, target mat.Matrix) float64 {
	r, c := pred.Dims()
	diff := mat.NewDense(r, c, nil)
	diff.Sub(pred, target)
	d := diff.RawMatrix().Data
	return floats.Dot(d, d) / float64(r*c)
}

func (MSE) Gradient(pred, target mat.Matrix) *mat.Dense {
	r, c := pred.Dims()
	g := mat.NewDense(r, c, nil)
	g.Sub(pred, target)
	g.Scale(2/float64(r*c), g)
	return g
}
