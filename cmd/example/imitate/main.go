package main

import (
	"fmt"
	"log"
	"math"

	"github.com/liminalsoft/instinct"
	"github.com/liminalsoft/instinct/brain"
)

// A student watches a seasoned exemplar react to the same sensor
// stream and imitates it, learning harder on the ticks it finds
// interesting.
func main() {
	sensors := func(tick int) []float32 {
		t := float64(tick) / 40
		return []float32{float32(math.Sin(t)), float32(math.Cos(t))}
	}

	exemplar, err := instinct.NewAgent(brain.DefaultConf(3, 6, 2), "exemplar")
	if err != nil {
		log.Fatalf("%+v", err)
	}
	exemplar.Sensors = sensors

	conf := instinct.Config{
		Name:      "apprenticeship",
		BrainConf: brain.DefaultConf(3, 6, 2),
		Sensors:   sensors,
	}
	s := instinct.New(conf)

	// bold behaviour is more interesting to copy
	interest := func(tick int, model []float32) float32 {
		if model[0] > 0.5 || model[0] < -0.5 {
			return 1
		}
		return 0.25
	}

	if err := s.Imitate(exemplar, 2000, interest); err != nil {
		log.Fatalf("%+v", err)
	}

	series := s.Errors[s.Student.Name()]
	fmt.Printf("imitation error: %.4f at tick 0, %.4f at tick %d\n",
		series[0], series[len(series)-1], len(series)-1)
}
