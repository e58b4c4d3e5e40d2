package brain

import (
	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
	"gorgonia.org/vecf32"
)

// RecurrentLayer is a Layer with one tick of memory: a second weight
// matrix feeds the layer's previous activations back into this tick's
// pre-activation sums. This is a plain Elman recurrence, no gating.
type RecurrentLayer struct {
	Layer

	recurrents *tensor.Dense // numNeurons × numNeurons
	rdeltas    *tensor.Dense

	rw  [][]float32
	rdw [][]float32

	prevActs []float32 // last tick's activations, snapshotted at the top of forward
}

func newRecurrentLayer(numInputs, numNeurons int) (*RecurrentLayer, error) {
	base, err := newLayer(numInputs, numNeurons)
	if err != nil {
		return nil, err
	}
	r := &RecurrentLayer{Layer: *base}
	r.recurrents = tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(numNeurons, numNeurons))
	r.rdeltas = tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(numNeurons, numNeurons))
	if r.rw, err = native.MatrixF32(r.recurrents); err != nil {
		return nil, errors.Wrapf(err, "recurrent weight view of %d×%d layer", numNeurons, numNeurons)
	}
	if r.rdw, err = native.MatrixF32(r.rdeltas); err != nil {
		return nil, errors.Wrapf(err, "recurrent delta view of %d×%d layer", numNeurons, numNeurons)
	}
	r.prevActs = make([]float32, numNeurons)
	return r, nil
}

// initWeights draws the ordinary weights as usual and the recurrent
// weights from the one-sided range [0, r). The asymmetry is deliberate:
// early recurrent dynamics start out reinforcing, never suppressing.
func (r *RecurrentLayer) initWeights(u *rng.UniformGenerator, conf Config) {
	r.Layer.initWeights(u, conf)
	for i := 0; i < r.bias(); i++ {
		row := r.rw[i]
		for k := 0; k < r.bias(); k++ {
			row[k] = u.Float32Range(0, conf.RecurrentWeightInitRange)
		}
	}
}

// forward snapshots the current activations before overwriting them:
// the snapshot is this tick's recurrent input and backprop's cache.
// On the very first tick the snapshot is all zero except the bias
// slot, since no prior tick exists.
func (r *RecurrentLayer) forward(prev []float32) []float32 {
	copy(r.prevActs, r.activations)
	copy(r.prevIn, prev)
	for i := 0; i < r.bias(); i++ {
		var sum float32
		row := r.w[i]
		for j, p := range prev {
			sum += row[j] * p
		}
		// the bias slot feeds the ordinary weights only, so the very
		// first tick sees no recurrent contribution at all
		rrow := r.rw[i]
		for k := 0; k < r.bias(); k++ {
			sum += rrow[k] * r.prevActs[k]
		}
		r.activations[i] = math32.Tanh(sum)
	}
	return r.activations
}

func (r *RecurrentLayer) backpropOutput(expected []float32) {
	r.Layer.backpropOutput(expected)
	r.stageRecurrentDeltas()
}

func (r *RecurrentLayer) backpropHidden(nextGrad []float32, nextWeights [][]float32) {
	r.Layer.backpropHidden(nextGrad, nextWeights)
	r.stageRecurrentDeltas()
}

func (r *RecurrentLayer) stageRecurrentDeltas() {
	for i := 0; i < r.bias(); i++ {
		g := r.errGrad[i]
		row := r.rdw[i]
		for k := 0; k < r.bias(); k++ {
			row[k] = g * r.prevActs[k]
		}
	}
}

func (r *RecurrentLayer) updateWeights(rewardFactor, learningRate float32) {
	r.Layer.updateWeights(rewardFactor, learningRate)
	d := r.rdeltas.Data().([]float32)
	vecf32.Scale(d, learningRate*rewardFactor)
	vecf32.Sub(r.recurrents.Data().([]float32), d)
}

func (r *RecurrentLayer) reset() {
	r.Layer.reset()
	zero(r.prevActs)
	r.rdeltas.Zero()
}
