package instinct

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func constantSensors(values ...float32) SensorFunc {
	return func(tick int) []float32 { return values }
}

func TestSessionRunTrainsOnline(t *testing.T) {
	assert := assert.New(t)
	target := []float32{0.5, 1}
	conf := Config{
		Name:      "fixed target",
		BrainConf: testBrainConf(1337, 3, 5, 2),
		Sensors:   constantSensors(0.5, -0.5),
		Critic: func(tick int, actions []float32) ([]float32, float32, bool) {
			return target, 1, true
		},
	}

	s := New(conf)
	if err := s.Run(200); err != nil {
		t.Fatalf("%+v", err)
	}

	series := s.Errors[s.Student.Name()]
	assert.Len(series, 200)
	assert.Less(series[len(series)-1], series[0], "online training must close in on a fixed target")
	assert.Equal(200, s.Student.TrainedSteps)
	assert.Equal(float32(1), s.Reward())
}

func TestSessionImitation(t *testing.T) {
	assert := assert.New(t)
	sensors := constantSensors(0.3, 0.7)

	// a feedforward exemplar holds perfectly still on a constant
	// sensor stream, which makes it an easy peer to imitate
	exemplar, err := NewAgent(testBrainConf(99, 3, 2), "exemplar")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	exemplar.Sensors = sensors

	conf := Config{
		Name:      "imitation",
		BrainConf: testBrainConf(7, 3, 5, 2),
		Sensors:   sensors,
	}
	s := New(conf)
	if err := s.Imitate(exemplar, 200, nil); err != nil {
		t.Fatalf("%+v", err)
	}

	series := s.Errors[s.Student.Name()]
	assert.Len(series, 200)
	assert.Less(series[len(series)-1], series[0], "the student must drift toward the exemplar")
}

func TestSessionInterestScalesImitation(t *testing.T) {
	sensors := constantSensors(0.3, 0.7)
	exemplar, err := NewAgent(testBrainConf(99, 3, 2), "exemplar")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	exemplar.Sensors = sensors

	conf := Config{
		Name:      "bored student",
		BrainConf: testBrainConf(7, 3, 5, 2),
		Sensors:   sensors,
	}
	s := New(conf)
	before := snapshot(s)
	// zero interest means zero learning
	err = s.Imitate(exemplar, 10, func(tick int, model []float32) float32 { return 0 })
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(before, snapshot(s)); diff != "" {
		t.Errorf("Expected an uninterested student to keep its weights:\n%s", diff)
	}
}

func TestSessionSaveLoad(t *testing.T) {
	conf := Config{
		Name:      "heredity",
		BrainConf: testBrainConf(55, 3, 4, 2),
		Sensors:   constantSensors(0.1, 0.2),
		Critic: func(tick int, actions []float32) ([]float32, float32, bool) {
			return []float32{0.9, 1}, 0.5, true
		},
	}

	parent := New(conf)
	if err := parent.Run(20); err != nil {
		t.Fatalf("%+v", err)
	}
	filename := filepath.Join(t.TempDir(), "parent.brain")
	if err := parent.Save(filename); err != nil {
		t.Fatalf("%+v", err)
	}

	child := New(conf)
	if err := child.Load(filename); err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(snapshot(parent), snapshot(child)); diff != "" {
		t.Errorf("Expected the child to inherit the parent's weights:\n%s", diff)
	}
}

func snapshot(s *Session) [][]float32 {
	var retVal [][]float32
	for _, m := range s.Student.NN.WeightMatrices() {
		retVal = append(retVal, append([]float32(nil), m.Data...))
	}
	return retVal
}
