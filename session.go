package instinct

import (
	"bytes"
	"encoding/gob"
	"log"
	"os"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/liminalsoft/instinct/brain"
)

// Session is the top level structure and the entry point of the API.
// It drives one student agent through its tick loop, trains it online
// from its critic or from an exemplar it imitates, and records
// statistics along the way.
type Session struct {
	Student *Agent
	Statistics

	// config
	conf Config

	// state
	tick       int
	lastReward float32
	buf        bytes.Buffer
	logger     *log.Logger

	// io
	outEnc OutputEncoder
}

// New Session. It takes a configuration carrying the brain layout and
// the collaborator hooks that stand in for the world.
func New(conf Config) *Session {
	if !conf.BrainConf.IsValid() {
		panic("BrainConf is not valid. Unable to proceed")
	}

	student, err := NewAgent(conf.BrainConf, "student")
	if err != nil {
		panic(errors.WithMessage(err, "unable to build student"))
	}
	student.Sensors = conf.Sensors
	student.Actuators = conf.Actuators
	student.Critic = conf.Critic

	retVal := &Session{
		Student:    student,
		Statistics: makeStatistics(),
		conf:       conf,
		outEnc:     conf.OutputEncoder,
	}
	retVal.logger = log.New(&retVal.buf, "", log.Ltime)
	return retVal
}

// Name implements MetaState.
func (s *Session) Name() string { return s.conf.Name }

// Tick implements MetaState.
func (s *Session) Tick() int { return s.tick }

// Reward implements MetaState.
func (s *Session) Reward() float32 { return s.lastReward }

// Brain implements MetaState.
func (s *Session) Brain() *brain.Network { return s.Student.NN }

// Run drives the student for a number of ticks. Each tick the student
// senses, thinks and acts; when its critic asks for training, one
// reward-scaled backprop step follows.
func (s *Session) Run(ticks int) error {
	for i := 0; i < ticks; i++ {
		out, err := s.Student.Step(s.tick)
		if err != nil {
			return errors.WithMessagef(err, "tick %d", s.tick)
		}
		if out != nil && s.Student.Critic != nil {
			if expected, reward, train := s.Student.Critic(s.tick, out); train {
				if err := s.Student.Learn(expected, reward); err != nil {
					return errors.WithMessagef(err, "tick %d", s.tick)
				}
				s.lastReward = reward
				s.Statistics.update(s.Student, meanAbsError(out, expected), reward)
			}
		}
		s.encode()
		s.tick++
	}
	return s.flush()
}

// Imitate trains the student toward whatever the exemplar does, tick
// by tick. The interest hook rates the exemplar's behaviour and the
// rating becomes the reward factor, so more interesting peers are
// imitated harder and negative interest pushes the student away.
func (s *Session) Imitate(exemplar *Agent, ticks int, interest InterestFunc) error {
	for i := 0; i < ticks; i++ {
		model, err := exemplar.Step(s.tick)
		if err != nil {
			return errors.WithMessagef(err, "exemplar, tick %d", s.tick)
		}
		out, err := s.Student.Step(s.tick)
		if err != nil {
			return errors.WithMessagef(err, "student, tick %d", s.tick)
		}

		if model != nil && out != nil {
			reward := float32(1)
			if interest != nil {
				reward = interest(s.tick, model)
			}
			if err := s.Student.Learn(model, reward); err != nil {
				return errors.WithMessagef(err, "tick %d", s.tick)
			}
			s.lastReward = reward
			s.Statistics.update(s.Student, meanAbsError(out, model), reward)
		}
		s.encode()
		s.tick++
	}
	return s.flush()
}

func (s *Session) encode() {
	if s.outEnc == nil || s.conf.EncodeEvery <= 0 {
		return
	}
	if s.tick%s.conf.EncodeEvery != 0 {
		return
	}
	if err := s.outEnc.Encode(s); err != nil {
		s.logger.Printf("encode tick %d: %v", s.tick, err)
	}
}

func (s *Session) flush() error {
	if s.outEnc == nil {
		return nil
	}
	return s.outEnc.Flush()
}

// Save the student's brain into filename.
func (s *Session) Save(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0544)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	return errors.WithStack(enc.Encode(s.Student.NN))
}

// Load a previously saved brain into the student.
func (s *Session) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	nn := brain.New(s.conf.BrainConf)
	dec := gob.NewDecoder(f)
	if err := dec.Decode(nn); err != nil {
		return errors.WithStack(err)
	}
	s.Student.NN = nn
	s.Student.resetStats()
	return nil
}

// meanAbsError measures distance between the action vector and the
// target over the real output slots, bias excluded.
func meanAbsError(out, want []float32) float32 {
	n := len(out) - 1
	if n < 1 {
		return 0
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += math32.Abs(out[i] - want[i])
	}
	return sum / float32(n)
}
