package instinct

import (
	"sync"
)

var vecPool = make(map[int]*sync.Pool)

func borrowVector(n int) []float32 {
	if p, ok := vecPool[n]; ok {
		return p.Get().([]float32)
	}
	return make([]float32, n)
}

func returnVector(n int, v []float32) {
	if _, ok := vecPool[n]; !ok {
		vecPool[n] = &sync.Pool{
			New: func() interface{} {
				return make([]float32, n)
			},
		}
	}
	vecPool[n].Put(v)
}
