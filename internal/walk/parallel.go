package walk

import (
	"context"
	"fmt"
	"sync"
)

// RunParallel runs independent engines with derived seeds over the same
// immutable table and configuration, and keeps the best-ever candidate across
// walkers. Walkers share no mutable state; ties on energy resolve to the
// lowest walker index so the result stays deterministic.
func RunParallel(ctx context.Context, cfg Config, walkers int) (Result, error) {
	if walkers <= 1 {
		engine, err := New(cfg)
		if err != nil {
			return Result{}, err
		}
		return engine.Run(ctx)
	}

	results := make([]Result, walkers)
	errs := make([]error, walkers)

	var wg sync.WaitGroup
	wg.Add(walkers)
	for w := 0; w < walkers; w++ {
		go func(w int) {
			defer wg.Done()
			walkerCfg := cfg
			walkerCfg.Seed = cfg.Seed + int64(w)
			engine, err := New(walkerCfg)
			if err != nil {
				errs[w] = err
				return
			}
			results[w], errs[w] = engine.Run(ctx)
		}(w)
	}
	wg.Wait()

	for w, err := range errs {
		if err != nil {
			return Result{}, fmt.Errorf("walker %d: %w", w, err)
		}
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.BestEnergy < best.BestEnergy {
			best = res
		}
	}
	return best, nil
}
