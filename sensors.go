package instinct

import (
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"
)

// Normalize maps value from [lo, hi] onto the [-1, 1] range the brain
// expects, saturating outside it.
func Normalize(value, lo, hi float32) float32 {
	if hi <= lo {
		return 0
	}
	v := 2*(value-lo)/(hi-lo) - 1
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// EncodeBipolar encodes truth values as 1 and -1 perception slots.
func EncodeBipolar(a []bool, prealloc []float32) []float32 {
	if len(prealloc) != len(a) {
		prealloc = make([]float32, len(a))
	}

	for i := range a {
		if a[i] {
			prealloc[i] = 1
		} else {
			prealloc[i] = -1
		}
	}
	return prealloc
}

// Invert flips the sign of every slot in place. Useful for encoding
// the same reading from the opposing point of view.
func Invert(a []float32) []float32 {
	vecf32.Scale(a, -1)
	return a
}

// EncodeOneHot writes a one-hot encoding of hot into a vector of n
// slots.
func EncodeOneHot(hot, n int, prealloc []float32) ([]float32, error) {
	if hot < 0 || hot >= n {
		return nil, errors.Errorf("cannot one-hot encode %d into %d slots", hot, n)
	}
	if len(prealloc) != n {
		prealloc = make([]float32, n)
	}
	for i := range prealloc {
		prealloc[i] = 0
	}
	prealloc[hot] = 1
	return prealloc, nil
}
