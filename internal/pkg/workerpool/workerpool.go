// Package workerpool provides a bounded-concurrency helper shared by every
// phase that fans work out across a pool of a fixed width: adapter
// fan-out, OG-image scraping, keyword enrichment, and lightweight
// persistence inserts.
package workerpool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Run executes fn once per item in tasks, at most width goroutines running
// concurrently, and blocks until every task has completed. width <= 0 is
// treated as 1 (fully sequential). Bounded with golang.org/x/sync/semaphore
// rather than a hand-rolled buffered-channel gate.
func Run[T any](tasks []T, width int, fn func(T)) {
	if width <= 0 {
		width = 1
	}

	ctx := context.Background()
	sem := semaphore.NewWeighted(int64(width))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, t := range tasks {
		_ = sem.Acquire(ctx, 1)
		go func(item T) {
			defer wg.Done()
			defer sem.Release(1)
			fn(item)
		}(t)
	}
	wg.Wait()
}
