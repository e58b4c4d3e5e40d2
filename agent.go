package instinct

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/liminalsoft/instinct/brain"
)

// An Agent is one embodied actor. It owns exactly one brain and is
// driven from a single tick loop: no part of it may be shared across
// workers.
type Agent struct {
	NN *brain.Network

	Sensors   SensorFunc
	Actuators ActuatorFunc
	Critic    CriticFunc

	// Statistics
	Steps        int
	TrainedSteps int
	SkippedTicks int

	name string
}

// NewAgent constructs an agent with a freshly initialized brain.
func NewAgent(conf brain.Config, name string) (*Agent, error) {
	nn := brain.New(conf)
	if err := nn.Init(); err != nil {
		return nil, errors.WithMessage(err, "unable to initialize agent brain")
	}
	return &Agent{NN: nn, name: name}, nil
}

// Brain implements Brainer.
func (a *Agent) Brain() *brain.Network { return a.NN }

func (a *Agent) Name() string { return a.name }

// Step runs one tick: sense, think, act. It returns the action vector,
// or nil when the tick produced nothing usable — a degenerate output
// skips actuation instead of leaking NaNs into the world.
func (a *Agent) Step(tick int) ([]float32, error) {
	if a.Sensors != nil {
		for i, v := range a.Sensors(tick) {
			if err := a.NN.Perceive(i, v); err != nil {
				return nil, errors.WithMessage(err, "perceive")
			}
		}
	}

	out := a.NN.Think()
	a.Steps++
	if !validActions(out) {
		a.SkippedTicks++
		return nil, nil
	}

	if a.Actuators != nil {
		buf := borrowVector(len(out))
		copy(buf, out)
		a.Actuators(tick, buf)
		returnVector(len(out), buf)
	}
	return out, nil
}

// Learn runs one reward-scaled training step toward expected.
func (a *Agent) Learn(expected []float32, reward float32) error {
	if err := a.NN.BackPropagate(expected, reward); err != nil {
		return err
	}
	a.TrainedSteps++
	return nil
}

func (a *Agent) resetStats() {
	a.Steps = 0
	a.TrainedSteps = 0
	a.SkippedTicks = 0
}

func validActions(actions []float32) bool {
	for _, v := range actions {
		if math32.IsInf(v, 0) {
			return false
		}
		if math32.IsNaN(v) {
			return false
		}
	}
	return true
}
