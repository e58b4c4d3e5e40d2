package brain

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}

// matStats returns min, mean and max over a flat weight slice.
func matStats(a []float32) (min, mean, max float32) {
	if len(a) == 0 {
		return 0, 0, 0
	}
	min, max = a[0], a[0]
	var sum float32
	for _, v := range a {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, sum / float32(len(a)), max
}
