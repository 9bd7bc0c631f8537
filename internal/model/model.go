package model

import "gonum.org/v1/gonum/mat"

// Batch represents a minibatch of features and regression targets.
type Batch struct {
	Inputs  *mat.Dense
	Targets *mat.Dense
}

// Size reports the number of examples in the batch.
func (b Batch) Size() int {
	if b.Inputs == nil {
		return 0
	}
	r, _ := b.Inputs.Dims()
	return r
}

// Model defines the minimal training functionality required by the trainer.
type Model interface {
	TrainStep(batch Batch) float64
}

// Network is a fixed feed-forward topology whose layers can be trained.
type Network interface {
	Forward(x mat.Matrix) *mat.Dense
	Params() Params

	forwardTrain(x *mat.Dense) *mat.Dense
	backward(grad *mat.Dense)
	layers() []*Linear
}

// Params maps a layer identifier to its weight and bias matrices.
type Params map[string]*mat.Dense

// Clone returns a deep copy that shares no storage with p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = mat.DenseCopyOf(v)
	}
	return out
}

func collectParams(named map[string]*Linear) Params {
	p := make(Params, 2*len(named))
	for name, l := range named {
		p[name+".weight"] = l.Weight
		p[name+".bias"] = l.Bias
	}
	return p
}
