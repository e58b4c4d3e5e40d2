package main

import (
	"flag"
	"log"
	"math"
	"net/http"
	"os"

	"github.com/liminalsoft/instinct"
	"github.com/liminalsoft/instinct/brain"
	"github.com/liminalsoft/instinct/encoding/gif"
	"github.com/liminalsoft/instinct/encoding/mjpeg"

	_ "net/http/pprof"
)

var (
	ticks    = flag.Int("ticks", 5000, "number of simulation ticks to train for")
	hidden   = flag.Int("hidden", 9, "hidden layer size, bias included")
	rate     = flag.Float64("rate", 0.1, "learning rate")
	model    = flag.String("model", "roamer.brain", "where to save the trained brain")
	stats    = flag.String("stats", "training.csv", "where to dump the training statistics")
	anim     = flag.String("gif", "", "optional weight heatmap gif")
	addr     = flag.String("http", ":8080", "address to watch the run on")
	dotDump  = flag.Bool("dot", false, "print the network topology as graphviz dot and exit")
	interval = flag.Int("every", 25, "ticks between encoded frames")
)

// The toy task: three sensors trace slow sine waves, the two actions
// must reproduce sensor 0 delayed by one tick and the sign of sensor
// 1. The delay is only solvable through the recurrent state.
func sensorsAt(tick int) []float32 {
	t := float64(tick) / 50
	return []float32{
		float32(math.Sin(t)),
		float32(math.Cos(t / 3)),
		float32(math.Sin(t / 7)),
	}
}

func targetAt(tick int) []float32 {
	prev := sensorsAt(tick - 1)
	sign := float32(1)
	if sensorsAt(tick)[1] < 0 {
		sign = -1
	}
	return []float32{prev[0], sign, 1}
}

func main() {
	flag.Parse()

	conf := instinct.Config{
		Name:        "roamer",
		BrainConf:   brain.DefaultConf(4, *hidden, 3),
		Sensors:     sensorsAt,
		EncodeEvery: *interval,
	}
	conf.BrainConf.LearningRate = float32(*rate)
	conf.Critic = func(tick int, actions []float32) ([]float32, float32, bool) {
		return targetAt(tick), 1, true
	}

	if *dotDump {
		nn := brain.New(conf.BrainConf)
		if err := nn.Init(); err != nil {
			log.Fatalf("%+v", err)
		}
		os.Stdout.WriteString(nn.ToDot())
		return
	}

	outEnc := mjpeg.NewEncoder()
	go func(h http.Handler) {
		mux := http.NewServeMux()
		mux.Handle("/brain", h)

		log.Printf("watch the run on http://localhost%s/brain", *addr)
		http.ListenAndServe(*addr, mux)
	}(outEnc)
	conf.OutputEncoder = outEnc

	var gifEnc *gif.Encoder
	if *anim != "" {
		f, err := os.Create(*anim)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		defer f.Close()
		gifEnc = gif.NewGifEncoder(f)
		conf.OutputEncoder = tee{outEnc, gifEnc}
	}

	s := instinct.New(conf)
	if err := s.Run(*ticks); err != nil {
		log.Fatalf("%+v", err)
	}

	if err := s.Save(*model); err != nil {
		log.Fatalf("%+v", err)
	}
	if err := s.Dump(*stats); err != nil {
		log.Fatalf("%+v", err)
	}
	log.Printf("trained for %d ticks, skipped %d, model in %s", s.Student.Steps, s.Student.SkippedTicks, *model)
}

// tee fans one MetaState out to several encoders.
type tee []instinct.OutputEncoder

func (t tee) Encode(ms instinct.MetaState) error {
	for _, enc := range t {
		if err := enc.Encode(ms); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Flush() error {
	for _, enc := range t {
		if err := enc.Flush(); err != nil {
			return err
		}
	}
	return nil
}
