package model

import "gonum.org/v1/gonum/mat"

// Learner couples a network with its optimizer and loss. It implements Model.
type Learner struct {
	net  Network
	opt  *Adam
	loss Loss
}

// NewLearner wires net to a fresh optimizer state.
func NewLearner(net Network, opt *Adam, loss Loss) *Learner {
	return &Learner{net: net, opt: opt, loss: loss}
}

// TrainStep runs forward, backward and one optimizer update, returning the
// batch loss measured before the update.
func (l *Learner) TrainStep(batch Batch) float64 {
	if batch.Size() == 0 {
		return 0
	}
	pred := l.net.forwardTrain(batch.Inputs)
	loss := l.loss.Compute(pred, batch.Targets)
	l.net.backward(l.loss.Gradient(pred, batch.Targets))

	layers := l.net.layers()
	params := make([]*mat.Dense, 0, 2*len(layers))
	grads := make([]*mat.Dense, 0, 2*len(layers))
	for _, ly := range layers {
		params = append(params, ly.Weight, ly.Bias)
		grads = append(grads, ly.gradW, ly.gradB)
	}
	l.opt.Step(params, grads)
	return loss
}

// Network returns the network being trained.
func (l *Learner) Network() Network {
	return l.net
}
