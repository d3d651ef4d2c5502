package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// fanOut runs fn for every item in items, at most maxConcurrent at a time,
// spacing each worker's successive calls by at least ratePerWorker. Results
// are collected in item order; fn is responsible for its own per-item error
// handling (a non-fatal failure should be recorded in T, not returned).
func fanOut[T any](ctx context.Context, items []string, maxConcurrent int, ratePerWorker time.Duration, fn func(ctx context.Context, item string) T) []T {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	results := make([]T, len(items))
	sem := make(chan struct{}, maxConcurrent)

	limiters := make([]*rate.Limiter, maxConcurrent)
	for i := range limiters {
		limiters[i] = rate.NewLimiter(rate.Every(ratePerWorker), 1)
	}

	var wg sync.WaitGroup
	var slot int
	var slotMu sync.Mutex

	for i, item := range items {
		wg.Add(1)
		go func(i int, item string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			slotMu.Lock()
			lim := limiters[slot%len(limiters)]
			slot++
			slotMu.Unlock()

			if err := lim.Wait(ctx); err != nil {
				return
			}
			results[i] = fn(ctx, item)
		}(i, item)
	}

	wg.Wait()
	return results
}
