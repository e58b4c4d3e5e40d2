package brain

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func newTestNetwork(t *testing.T, conf Config) *Network {
	t.Helper()
	n := New(conf)
	if err := n.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	return n
}

func seededConf(seed int64, sizes ...int) Config {
	conf := DefaultConf(sizes...)
	conf.Seed = seed
	return conf
}

// absError measures distance to the target over the real output slots,
// bias excluded.
func absError(out, want []float32) float32 {
	var retVal float32
	for i := 0; i < len(out)-1; i++ {
		retVal += math32.Abs(out[i] - want[i])
	}
	return retVal
}

func snapshotWeights(n *Network) [][]float32 {
	var retVal [][]float32
	for _, m := range n.WeightMatrices() {
		retVal = append(retVal, append([]float32(nil), m.Data...))
	}
	return retVal
}

func TestBiasUnitsStayPinned(t *testing.T) {
	n := newTestNetwork(t, seededConf(3, 4, 5, 3, 2))

	check := func(when string) {
		for i, l := range n.layers {
			acts := l.acts()
			if acts[len(acts)-1] != 1 {
				t.Fatalf("Expected layer %d bias to be 1 %s, got %v", i, when, acts[len(acts)-1])
			}
		}
	}
	check("after construction")

	n.Perceive(0, 0.3)
	n.Perceive(1, -0.8)
	n.Think()
	check("after Think")

	n.BackPropagate([]float32{0.5, 1}, 1)
	n.Think()
	check("after BackPropagate")
}

func TestOutputBeforeThink(t *testing.T) {
	assert := assert.New(t)
	n := newTestNetwork(t, seededConf(5, 3, 4, 2))

	out, err := n.Output()
	assert.Equal(ErrNotReady, err)
	assert.Equal([]float32{0, 0}, out, "the defensive fallback is a zeroed buffer")
	assert.False(n.Ready())

	n.Think()
	out, err = n.Output()
	assert.NoError(err)
	assert.True(n.Ready())
	assert.Len(out, 2)
}

func TestPerceiveBounds(t *testing.T) {
	n := newTestNetwork(t, seededConf(5, 3, 4, 2))

	if err := n.Perceive(-1, 0); err == nil {
		t.Error("Expected a negative slot to be rejected")
	}
	if err := n.Perceive(3, 0); err == nil {
		t.Error("Expected an out of range slot to be rejected")
	}
	if err := n.Perceive(2, 0); err == nil {
		t.Error("Expected a write to the bias slot to be rejected")
	}
	if err := n.Perceive(0, 0.5); err != nil {
		t.Errorf("Expected a valid write to succeed: %v", err)
	}
}

func TestPerceiveRetainsUnwrittenSlots(t *testing.T) {
	n := newTestNetwork(t, seededConf(5, 4, 5, 2))
	n.Perceive(0, 0.7)
	n.Perceive(1, -0.2)
	n.Think()

	n.Perceive(0, 0.1) // slot 1 is not rewritten
	in := n.layers[0].acts()
	assert.Equal(t, []float32{0.1, -0.2, 0, 1}, in)
}

func TestBackPropagateShapeMismatch(t *testing.T) {
	n := newTestNetwork(t, seededConf(5, 3, 4, 2))
	n.Think()

	if err := n.BackPropagate([]float32{1}, 1); err == nil {
		t.Error("Expected a short expected vector to be rejected")
	}
	if err := n.BackPropagate([]float32{1, 0, 0}, 1); err == nil {
		t.Error("Expected a long expected vector to be rejected")
	}
	if err := n.BackPropagate([]float32{1, 0}, 1); err != nil {
		t.Errorf("Expected a well shaped vector to be accepted: %v", err)
	}
}

// A two layer net (no recurrence, no hidden layers) is plain gradient
// descent: every step with a positive reward must move the output
// strictly closer to the target.
func TestGradientDescendsTowardTarget(t *testing.T) {
	conf := seededConf(21, 3, 2)
	conf.LearningRate = 0.05
	n := newTestNetwork(t, conf)

	n.Perceive(0, 0.5)
	n.Perceive(1, -0.5)
	want := []float32{0.8, 1}

	prev := absError(n.Think(), want)
	for step := 0; step < 10; step++ {
		if err := n.BackPropagate(want, 1); err != nil {
			t.Fatalf("%+v", err)
		}
		cur := absError(n.Think(), want)
		if cur >= prev {
			t.Fatalf("Expected error to shrink at step %d: %v -> %v", step, prev, cur)
		}
		prev = cur
	}
}

func TestRewardScaling(t *testing.T) {
	assert := assert.New(t)
	conf := seededConf(33, 3, 2)
	conf.LearningRate = 0.05
	want := []float32{0.8, 1}

	// zero reward must leave every weight untouched
	n := newTestNetwork(t, conf)
	n.Perceive(0, 0.5)
	n.Perceive(1, -0.5)
	n.Think()
	before := snapshotWeights(n)
	if err := n.BackPropagate(want, 0); err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(before, snapshotWeights(n)); diff != "" {
		t.Errorf("Expected weights to be untouched at reward 0:\n%s", diff)
	}

	// negative reward reinforces away from the target
	baseline := absError(n.Think(), want)
	if err := n.BackPropagate(want, -1); err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Greater(absError(n.Think(), want), baseline)
}

// The end to end scenario: one recurrent hidden layer between a four
// slot perception vector and a two slot action vector.
func TestOnlineLearningEndToEnd(t *testing.T) {
	assert := assert.New(t)
	n := newTestNetwork(t, seededConf(1337, 4, 5, 2))

	n.Perceive(0, 0.5)
	n.Perceive(1, -0.5)
	out := n.Think()
	assert.Len(out, 2)
	assert.Greater(float64(out[0]), -1.0)
	assert.Less(float64(out[0]), 1.0)
	assert.Equal(float32(1), out[1], "the trailing slot is the bias unit")

	want := []float32{1, -1}
	first := absError(out, want)
	if err := n.BackPropagate(want, 1); err != nil {
		t.Fatalf("%+v", err)
	}

	// rewind the recurrent state so both measurements see the same
	// one-tick-ago context
	n.Reset()
	n.Perceive(0, 0.5)
	n.Perceive(1, -0.5)
	assert.Less(absError(n.Think(), want), first)
}

func TestWeightEnumeration(t *testing.T) {
	assert := assert.New(t)
	n := newTestNetwork(t, seededConf(5, 3, 4, 2))

	var visited int
	n.WalkWeights(func(layer, dst, src int, recurrent bool, w float32) {
		visited++
		if recurrent {
			return
		}
		got, err := n.WeightAt(layer, dst, src)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		assert.Equal(w, got)
	})
	// 4×3 ordinary + 4×4 recurrent + 2×4 ordinary
	assert.Equal(12+16+8, visited)

	if err := n.SetWeightAt(1, 0, 0, 0.123); err != nil {
		t.Fatalf("%+v", err)
	}
	got, err := n.WeightAt(1, 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(float32(0.123), got)

	if _, err := n.WeightAt(0, 0, 0); err == nil {
		t.Error("Expected the input layer to have no weights")
	}
	if _, err := n.WeightAt(1, 9, 0); err == nil {
		t.Error("Expected an out of range destination to be rejected")
	}
}

func TestClone(t *testing.T) {
	n := newTestNetwork(t, seededConf(77, 4, 5, 2))
	n.Perceive(0, 0.4)
	n.Think()
	n.BackPropagate([]float32{0.5, 1}, 0.7)

	n2, err := n.Clone()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(snapshotWeights(n), snapshotWeights(n2)); diff != "" {
		t.Errorf("Expected the clone to carry identical weights:\n%s", diff)
	}

	// the clone is independent
	n2.SetWeightAt(1, 0, 0, 42)
	if w, _ := n.WeightAt(1, 0, 0); w == 42 {
		t.Error("Expected the original to be unaffected by the clone")
	}
	if n2.Ready() {
		t.Error("Expected the clone to start with fresh state")
	}
}

func TestEncodeDecode(t *testing.T) {
	n := newTestNetwork(t, seededConf(101, 4, 5, 3, 2))
	n.Perceive(0, 0.9)
	n.Think()
	n.BackPropagate([]float32{0, 1}, 1)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(n); err != nil {
		t.Fatalf("Encoding failure %+v", err)
	}

	n2 := New(seededConf(202, 4, 5, 3, 2)) // different seed: decode must overwrite
	if err := gob.NewDecoder(&buf).Decode(n2); err != nil {
		t.Fatalf("Decoding failure %+v", err)
	}
	if diff := cmp.Diff(snapshotWeights(n), snapshotWeights(n2)); diff != "" {
		t.Errorf("Expected the decoded network to carry identical weights:\n%s", diff)
	}
}

func TestToDot(t *testing.T) {
	n := newTestNetwork(t, seededConf(5, 3, 4, 2))
	dot := n.ToDot()
	assert.Contains(t, dot, "layer0")
	assert.Contains(t, dot, "layer2")
	assert.Contains(t, dot, "recurrent")
}
