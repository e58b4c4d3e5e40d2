package brain

import (
	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
	"gorgonia.org/vecf32"
)

// stratum is one layer of the network. The input layer carries no
// incoming weights and only ever has its activations written to;
// every other layer is a *Layer or a *RecurrentLayer.
type stratum interface {
	forward(prev []float32) []float32
	backpropOutput(expected []float32)
	backpropHidden(nextGrad []float32, nextWeights [][]float32)
	updateWeights(rewardFactor, learningRate float32)
	initWeights(u *rng.UniformGenerator, conf Config)
	reset()

	acts() []float32
	grad() []float32
	weightRows() [][]float32
	ordinary() *Layer
}

// Layer owns the weight matrix from the preceding layer into itself,
// its activation vector, and the scratch buffers for one step of
// forward and backward computation. The last neuron is the bias unit:
// it is pinned to 1, is never a destination of any weight, and only
// feeds signal downstream.
type Layer struct {
	numInputs  int
	numNeurons int

	weights *tensor.Dense // numNeurons × numInputs
	deltas  *tensor.Dense // staged gradient contributions, same shape

	w  [][]float32 // native row views into weights
	dw [][]float32 // native row views into deltas

	activations []float32
	prevIn      []float32 // owned copy of the preceding activations at forward time
	errSignal   []float32
	errGrad     []float32
}

func newLayer(numInputs, numNeurons int) (*Layer, error) {
	l := &Layer{
		numInputs:   numInputs,
		numNeurons:  numNeurons,
		activations: make([]float32, numNeurons),
		errSignal:   make([]float32, numNeurons),
		errGrad:     make([]float32, numNeurons),
	}
	l.activations[l.bias()] = 1

	if numInputs == 0 {
		return l, nil // input layer: activations only
	}

	var err error
	l.weights = tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(numNeurons, numInputs))
	l.deltas = tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(numNeurons, numInputs))
	if l.w, err = native.MatrixF32(l.weights); err != nil {
		return nil, errors.Wrapf(err, "weight view of %d×%d layer", numNeurons, numInputs)
	}
	if l.dw, err = native.MatrixF32(l.deltas); err != nil {
		return nil, errors.Wrapf(err, "delta view of %d×%d layer", numNeurons, numInputs)
	}
	l.prevIn = make([]float32, numInputs)
	return l, nil
}

func (l *Layer) bias() int { return l.numNeurons - 1 }

// initWeights fills the weight matrix with independent uniform draws
// over the symmetric volatility range. The row into the bias unit
// stays zero.
func (l *Layer) initWeights(u *rng.UniformGenerator, conf Config) {
	if l.weights == nil {
		return
	}
	r := conf.WeightInitRange
	for i := 0; i < l.bias(); i++ {
		row := l.w[i]
		for j := range row {
			row[j] = u.Float32Range(-r, r)
		}
	}
}

// forward keeps a copy of the preceding activations for backprop, then
// recomputes every non-bias activation as tanh of the weighted sum.
func (l *Layer) forward(prev []float32) []float32 {
	if l.weights == nil {
		return l.activations
	}
	copy(l.prevIn, prev)
	for i := 0; i < l.bias(); i++ {
		var sum float32
		row := l.w[i]
		for j, p := range prev {
			sum += row[j] * p
		}
		l.activations[i] = math32.Tanh(sum)
	}
	return l.activations
}

// tanhDeriv is the derivative of tanh expressed in terms of the tanh
// value itself, clamped against float32 overshoot.
func tanhDeriv(t float32) float32 {
	return clamp(1-t*t, -1, 1)
}

// backpropOutput stages the gradient for the output layer. The error
// sign is actual minus expected; updateWeights subtracts, so together
// they descend toward expected. Weights are not touched here.
func (l *Layer) backpropOutput(expected []float32) {
	for i := 0; i < l.bias(); i++ {
		l.errSignal[i] = l.activations[i] - expected[i]
		l.errGrad[i] = l.errSignal[i] * tanhDeriv(l.activations[i])
	}
	l.errSignal[l.bias()] = 0
	l.errGrad[l.bias()] = 0
	l.stageDeltas()
}

// backpropHidden propagates the next layer's gradient back through its
// weights, which must not have been updated yet this step.
func (l *Layer) backpropHidden(nextGrad []float32, nextWeights [][]float32) {
	for i := 0; i < l.bias(); i++ {
		var sum float32
		for j := range nextGrad {
			sum += nextGrad[j] * nextWeights[j][i]
		}
		l.errSignal[i] = sum
		l.errGrad[i] = sum * tanhDeriv(l.activations[i])
	}
	l.errSignal[l.bias()] = 0
	l.errGrad[l.bias()] = 0
	l.stageDeltas()
}

func (l *Layer) stageDeltas() {
	for i := 0; i < l.bias(); i++ {
		g := l.errGrad[i]
		row := l.dw[i]
		for j, p := range l.prevIn {
			row[j] = g * p
		}
	}
}

// updateWeights applies the staged deltas, scaled by the learning rate
// and the per-call reward factor. A negative reward reinforces away
// from the target; zero leaves the weights untouched.
func (l *Layer) updateWeights(rewardFactor, learningRate float32) {
	if l.weights == nil {
		return
	}
	d := l.deltas.Data().([]float32)
	vecf32.Scale(d, learningRate*rewardFactor)
	vecf32.Sub(l.weights.Data().([]float32), d)
}

func (l *Layer) reset() {
	zero(l.activations)
	l.activations[l.bias()] = 1
	zero(l.errSignal)
	zero(l.errGrad)
	if l.weights != nil {
		zero(l.prevIn)
		l.deltas.Zero()
	}
}

func (l *Layer) acts() []float32         { return l.activations }
func (l *Layer) grad() []float32         { return l.errGrad }
func (l *Layer) weightRows() [][]float32 { return l.w }
func (l *Layer) ordinary() *Layer        { return l }
