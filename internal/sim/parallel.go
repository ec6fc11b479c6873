package sim

import (
	"context"
	"fmt"
	"sync"
)

// Builder constructs an independent, initialized simulator for one seed.
type Builder func(seed int64) (*Simulator, error)

// Ensemble runs one simulator per seed concurrently.
type Ensemble struct {
	build     Builder
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Builder, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// Run returns results indexed by run; result i used seed seedStart+i.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			s, err := e.build(seed)
			if err != nil {
				errs[idx] = fmt.Errorf("seed %d: %w", seed, err)
				return
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
