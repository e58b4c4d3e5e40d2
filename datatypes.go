package instinct

import (
	"github.com/liminalsoft/instinct/brain"
)

type Config struct {
	Name      string
	BrainConf brain.Config

	// collaborator hooks
	Sensors   SensorFunc
	Actuators ActuatorFunc
	Critic    CriticFunc

	// extensions
	OutputEncoder OutputEncoder
	EncodeEvery   int // ticks between frames; 0 disables encoding
}

// SensorFunc produces one tick's normalized perception values. The
// returned slice is written into the brain's input slots in order, so
// it must be no longer than the input layer minus the bias slot.
type SensorFunc func(tick int) []float32

// ActuatorFunc applies one tick's action vector to the world. The
// slice is only valid for the duration of the call.
type ActuatorFunc func(tick int, actions []float32)

// CriticFunc decides whether to train on a tick. When train is true,
// expected is the target output vector and reward scales the weight
// update: negative reward reinforces away from the target, zero
// leaves the weights untouched.
type CriticFunc func(tick int, actions []float32) (expected []float32, reward float32, train bool)

// InterestFunc rates how interesting an exemplar's behaviour is on one
// tick. The rating becomes the reward factor when imitating it.
type InterestFunc func(tick int, exemplar []float32) float32

// Brainer is anything that allows getting out a *brain.Network.
type Brainer interface {
	Brain() *brain.Network
}

// OutputEncoder encodes the state of a training run as whatever.
//
// An example OutputEncoder is the gif Encoder. Another example would be a logger.
type OutputEncoder interface {
	Encode(ms MetaState) error
	Flush() error
}

// MetaState is what an OutputEncoder gets to see about a run.
type MetaState interface {
	Name() string
	Tick() int
	Reward() float32
	Brainer
}
