package brain

// Config configures the neural network
type Config struct {
	// LayerSizes is the neuron count of each layer, input layer first.
	// The last slot of every layer is the always-on bias unit.
	LayerSizes []int

	WeightInitRange          float32 // ordinary weights are drawn from [-r, r)
	RecurrentWeightInitRange float32 // recurrent weights are drawn from [0, r)
	LearningRate             float32

	Seed int64 // 0 seeds from the clock
}

// DefaultConf returns a workable configuration for the given layer sizes.
func DefaultConf(sizes ...int) Config {
	return Config{
		LayerSizes:               sizes,
		WeightInitRange:          0.5,
		RecurrentWeightInitRange: 0.5,
		LearningRate:             0.1,
	}
}

func (conf Config) IsValid() bool {
	if len(conf.LayerSizes) < 2 {
		return false
	}
	for _, size := range conf.LayerSizes {
		if size < 1 {
			return false
		}
	}
	return conf.WeightInitRange > 0 &&
		conf.RecurrentWeightInitRange > 0 &&
		conf.LearningRate > 0
}
