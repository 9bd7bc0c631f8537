package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AdamConfig holds the optimizer hyperparameters.
type AdamConfig struct {
	LR      float64
	Beta1   float64
	Beta2   float64
	Epsilon float64
}

// DefaultAdamConfig returns lr=0.001, β1=0.9, β2=0.999, ε=1e-8.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{LR: 0.001, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8}
}

// Adam applies bias-corrected adaptive moment updates.
type Adam struct {
	cfg AdamConfig
	m   [][]float64
	v   [][]float64
	t   int
}

// NewAdam builds an optimizer; zero fields take their defaults.
func NewAdam(cfg AdamConfig) *Adam {
	d := DefaultAdamConfig()
	if cfg.LR <= 0 {
		cfg.LR = d.LR
	}
	if cfg.Beta1 <= 0 {
		cfg.Beta1 = d.Beta1
	}
	if cfg.Beta2 <= 0 {
		cfg.Beta2 = d.Beta2
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = d.Epsilon
	}
	return &Adam{cfg: cfg}
}

// Step updates params in place from grads. Both slices must be index-aligned
// and stable across calls.
func (a *Adam) Step(params, grads []*mat.Dense) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			n := len(p.RawMatrix().Data)
			a.m[i] = make([]float64, n)
			a.v[i] = make([]float64, n)
		}
	}
	a.t++
	bc1 := 1 - math.Pow(a.cfg.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.cfg.Beta2, float64(a.t))

	for i, p := range params {
		w := p.RawMatrix().Data
		g := grads[i].RawMatrix().Data
		m, v := a.m[i], a.v[i]

		floats.Scale(a.cfg.Beta1, m)
		floats.AddScaled(m, 1-a.cfg.Beta1, g)
		for j, gj := range g {
			v[j] = a.cfg.Beta2*v[j] + (1-a.cfg.Beta2)*gj*gj
		}
		for j := range w {
			mHat := m[j] / bc1
			vHat := v[j] / bc2
			w[j] -= a.cfg.LR * mHat / (math.Sqrt(vHat) + a.cfg.Epsilon)
		}
	}
}
