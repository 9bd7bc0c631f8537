package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// AutoencoderConfig sizes a DenoisingAutoencoder. Hidden is the width
// between input and code, Code is the bottleneck width.
type AutoencoderConfig struct {
	Inputs int
	Hidden int
	Code   int
}

// DefaultAutoencoderConfig returns the 9-6-3 topology.
func DefaultAutoencoderConfig() AutoencoderConfig {
	return AutoencoderConfig{Inputs: 9, Hidden: 6, Code: 3}
}

// DenoisingAutoencoder compresses a feature row to a code and expands it
// back to the input width. Neither stage has an output activation.
type DenoisingAutoencoder struct {
	EncHidden *Linear
	EncCode   *Linear
	DecHidden *Linear
	DecOut    *Linear

	encAct *mat.Dense
	decAct *mat.Dense
}

// NewAutoencoder constructs the autoencoder with random initialization.
func NewAutoencoder(cfg AutoencoderConfig, rng *rand.Rand) *DenoisingAutoencoder {
	d := DefaultAutoencoderConfig()
	if cfg.Inputs <= 0 {
		cfg.Inputs = d.Inputs
	}
	if cfg.Hidden <= 0 {
		cfg.Hidden = d.Hidden
	}
	if cfg.Code <= 0 {
		cfg.Code = d.Code
	}
	return &DenoisingAutoencoder{
		EncHidden: NewLinear(cfg.Inputs, cfg.Hidden, rng),
		EncCode:   NewLinear(cfg.Hidden, cfg.Code, rng),
		DecHidden: NewLinear(cfg.Code, cfg.Hidden, rng),
		DecOut:    NewLinear(cfg.Hidden, cfg.Inputs, rng),
	}
}

// Encode maps feature rows to bottleneck codes.
func (a *DenoisingAutoencoder) Encode(x mat.Matrix) *mat.Dense {
	return a.EncCode.Forward(relu(a.EncHidden.Forward(x)))
}

// Decode maps bottleneck codes back to feature rows.
func (a *DenoisingAutoencoder) Decode(z mat.Matrix) *mat.Dense {
	return a.DecOut.Forward(relu(a.DecHidden.Forward(z)))
}

// Forward is Decode(Encode(x)).
func (a *DenoisingAutoencoder) Forward(x mat.Matrix) *mat.Dense {
	return a.Decode(a.Encode(x))
}

// Inputs returns the expected feature width.
func (a *DenoisingAutoencoder) Inputs() int {
	in, _ := a.EncHidden.Dims()
	return in
}

func (a *DenoisingAutoencoder) Params() Params {
	return collectParams(map[string]*Linear{
		"enc.hidden": a.EncHidden,
		"enc.code":   a.EncCode,
		"dec.hidden": a.DecHidden,
		"dec.out":    a.DecOut,
	})
}

// Clone returns an independent deep copy of the autoencoder parameters.
func (a *DenoisingAutoencoder) Clone() *DenoisingAutoencoder {
	return &DenoisingAutoencoder{
		EncHidden: a.EncHidden.clone(),
		EncCode:   a.EncCode.clone(),
		DecHidden: a.DecHidden.clone(),
		DecOut:    a.DecOut.clone(),
	}
}

func (a *DenoisingAutoencoder) forwardTrain(x *mat.Dense) *mat.Dense {
	a.encAct = relu(a.EncHidden.forwardTrain(x))
	z := a.EncCode.forwardTrain(a.encAct)
	a.decAct = relu(a.DecHidden.forwardTrain(z))
	return a.DecOut.forwardTrain(a.decAct)
}

func (a *DenoisingAutoencoder) backward(grad *mat.Dense) {
	g := a.DecOut.backward(grad)
	g = a.DecHidden.backward(reluBackward(a.decAct, g))
	g = a.EncCode.backward(g)
	a.EncHidden.backward(reluBackward(a.encAct, g))
}

func (a *DenoisingAutoencoder) layers() []*Linear {
	return []*Linear{a.EncHidden, a.EncCode, a.DecHidden, a.DecOut}
}
