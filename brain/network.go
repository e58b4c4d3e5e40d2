package brain

import (
	"bytes"
	"encoding/gob"
	"log"
	"time"

	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrNotReady is returned when outputs are read before the network has
// completed its first forward pass.
var ErrNotReady = errors.New("network has not completed a forward pass")

// Network is an ordered stack of layers driven once per simulation
// tick: the collaborator writes perceptions in, calls Think, reads the
// actions out, and now and then supplies a target vector plus a reward
// factor to train on. One Network belongs to exactly one agent and is
// never shared across goroutines.
type Network struct {
	Config

	layers       []stratum
	rewardFactor float32
	lastOutput   []float32
	ready        bool
}

// New returns a new, uninitialized *Network.
func New(conf Config) *Network {
	return &Network{Config: conf}
}

// Init builds the layer stack: index 0 is the input layer, the first
// hidden layer is the recurrent one, everything else including the
// output layer is plain.
func (n *Network) Init() error {
	if !n.IsValid() {
		return errors.Errorf("invalid network configuration %+v", n.Config)
	}
	seed := n.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	u := rng.NewUniformGenerator(seed)

	sizes := n.LayerSizes
	last := len(sizes) - 1
	n.layers = make([]stratum, len(sizes))
	for i, size := range sizes {
		var l stratum
		var err error
		switch {
		case i == 0:
			l, err = newLayer(0, size)
		case i == 1 && i != last:
			l, err = newRecurrentLayer(sizes[i-1], size)
		default:
			l, err = newLayer(sizes[i-1], size)
		}
		if err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		n.layers[i] = l
	}
	for _, l := range n.layers {
		l.initWeights(u, n.Config)
	}
	n.lastOutput = make([]float32, sizes[last])
	n.ready = false
	return nil
}

// Perceive writes one normalized perception value into an input slot.
// Unwritten slots keep their previous value between ticks.
func (n *Network) Perceive(index int, value float32) error {
	in := n.layers[0].acts()
	if index < 0 || index >= len(in) {
		return errors.Errorf("perception slot %d out of range [0, %d)", index, len(in))
	}
	if index == len(in)-1 {
		return errors.Errorf("perception slot %d is the bias unit", index)
	}
	in[index] = value
	return nil
}

// Think runs the forward pass across every layer in order and returns
// the output activations. Cost is one multiply-add per weight.
func (n *Network) Think() []float32 {
	out := n.layers[0].acts()
	for _, l := range n.layers[1:] {
		out = l.forward(out)
	}
	copy(n.lastOutput, out)
	n.ready = true
	return n.lastOutput
}

// Output returns the output activations of the most recent Think. If
// no forward pass has run yet there is nothing to report: a zeroed
// buffer comes back together with ErrNotReady.
func (n *Network) Output() ([]float32, error) {
	if !n.ready {
		log.Printf("brain: output read before the first forward pass")
		return make([]float32, n.LayerSizes[len(n.LayerSizes)-1]), ErrNotReady
	}
	return n.lastOutput, nil
}

// Ready reports whether at least one forward pass has completed.
func (n *Network) Ready() bool { return n.ready }

// BackPropagate runs one training step toward expected, with every
// weight delta scaled by rewardFactor. Gradients are staged for all
// layers output-to-input before any weight moves, since each hidden
// gradient reads its successor's weights as they were this tick.
func (n *Network) BackPropagate(expected []float32, rewardFactor float32) error {
	last := len(n.layers) - 1
	out := n.layers[last]
	if len(expected) != len(out.acts()) {
		return errors.Errorf("expected vector has length %d, output layer has %d neurons", len(expected), len(out.acts()))
	}
	n.rewardFactor = rewardFactor

	out.backpropOutput(expected)
	for i := last - 1; i >= 1; i-- {
		n.layers[i].backpropHidden(n.layers[i+1].grad(), n.layers[i+1].weightRows())
	}
	for _, l := range n.layers[1:] {
		l.updateWeights(n.rewardFactor, n.LearningRate)
	}
	return nil
}

// Reset clears activations, recurrent state and staged gradients back
// to the post-construction state. Weights are kept.
func (n *Network) Reset() {
	for _, l := range n.layers {
		l.reset()
	}
	zero(n.lastOutput)
	n.ready = false
}

// NumLayers returns the depth of the stack, input layer included.
func (n *Network) NumLayers() int { return len(n.layers) }

// WeightMatrix is one layer's weight block, addressed as destination
// row by source column.
type WeightMatrix struct {
	Layer      int
	Recurrent  bool
	Rows, Cols int
	Data       []float32 // row-major
}

// WeightMatrices returns live views of every weight matrix, ordered by
// layer, for renderers and persistence layers. Mutating the data
// mutates the network.
func (n *Network) WeightMatrices() []WeightMatrix {
	var retVal []WeightMatrix
	for i, l := range n.layers[1:] {
		base := l.ordinary()
		retVal = append(retVal, WeightMatrix{
			Layer: i + 1,
			Rows:  base.numNeurons,
			Cols:  base.numInputs,
			Data:  base.weights.Data().([]float32),
		})
		if rl, ok := l.(*RecurrentLayer); ok {
			retVal = append(retVal, WeightMatrix{
				Layer:     i + 1,
				Recurrent: true,
				Rows:      rl.numNeurons,
				Cols:      rl.numNeurons,
				Data:      rl.recurrents.Data().([]float32),
			})
		}
	}
	return retVal
}

// WeightAt returns the ordinary weight into neuron dst of layer from
// neuron src of the preceding layer.
func (n *Network) WeightAt(layer, dst, src int) (float32, error) {
	w, err := n.weightRowsAt(layer, dst, src)
	if err != nil {
		return 0, err
	}
	return w[dst][src], nil
}

// SetWeightAt overwrites a single ordinary weight, so an external
// persistence layer can restore state exactly.
func (n *Network) SetWeightAt(layer, dst, src int, value float32) error {
	w, err := n.weightRowsAt(layer, dst, src)
	if err != nil {
		return err
	}
	w[dst][src] = value
	return nil
}

func (n *Network) weightRowsAt(layer, dst, src int) ([][]float32, error) {
	if layer < 1 || layer >= len(n.layers) {
		return nil, errors.Errorf("layer %d out of range [1, %d)", layer, len(n.layers))
	}
	w := n.layers[layer].weightRows()
	if dst < 0 || dst >= len(w) {
		return nil, errors.Errorf("destination neuron %d out of range [0, %d)", dst, len(w))
	}
	if src < 0 || src >= len(w[dst]) {
		return nil, errors.Errorf("source neuron %d out of range [0, %d)", src, len(w[dst]))
	}
	return w, nil
}

// WalkWeights visits every weight by (layer, destination, source)
// coordinate, recurrent matrices included.
func (n *Network) WalkWeights(fn func(layer, dst, src int, recurrent bool, w float32)) {
	for _, m := range n.WeightMatrices() {
		for i := 0; i < m.Rows; i++ {
			for j := 0; j < m.Cols; j++ {
				fn(m.Layer, i, j, m.Recurrent, m.Data[i*m.Cols+j])
			}
		}
	}
}

// Clone builds an independent network with identical configuration and
// weights but fresh activations and recurrent state.
func (n *Network) Clone() (*Network, error) {
	n2 := New(n.Config)
	if err := n2.Init(); err != nil {
		return nil, err
	}
	model := n.model()
	model2 := n2.model()
	for i, d := range model {
		copy(model2[i].Data().([]float32), d.Data().([]float32))
	}
	return n2, nil
}

func (n *Network) model() []*tensor.Dense {
	var retVal []*tensor.Dense
	for _, l := range n.layers[1:] {
		switch lt := l.(type) {
		case *RecurrentLayer:
			retVal = append(retVal, lt.weights, lt.recurrents)
		case *Layer:
			retVal = append(retVal, lt.weights)
		}
	}
	return retVal
}

func (n *Network) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, d := range n.model() {
		if err := enc.Encode(d); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return buf.Bytes(), nil
}

func (n *Network) GobDecode(p []byte) error {
	if n.layers == nil {
		if err := n.Init(); err != nil {
			return err
		}
	}
	dec := gob.NewDecoder(bytes.NewBuffer(p))
	for _, d := range n.model() {
		var v tensor.Dense
		if err := dec.Decode(&v); err != nil {
			return errors.WithStack(err)
		}
		dst := d.Data().([]float32)
		src := v.Data().([]float32)
		if len(dst) != len(src) {
			return errors.Errorf("weight matrix has %d values, encoded form has %d", len(dst), len(src))
		}
		copy(dst, src)
	}
	return nil
}
