package sim

import "sync"

// SpeedPool recycles per-frame speed buffers of one ensemble size.
type SpeedPool struct {
	pool sync.Pool
	size int
}

func NewSpeedPool(count int) *SpeedPool {
	return &SpeedPool{
		size: count,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float64, count)
			},
		},
	}
}

func (p *SpeedPool) Get() []float64 {
	return p.pool.Get().([]float64)
}

func (p *SpeedPool) Put(s []float64) {
	if len(s) == p.size {
		for i := range s {
			s[i] = 0
		}
		p.pool.Put(s)
	}
}
