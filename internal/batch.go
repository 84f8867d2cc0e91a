package internal

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of concurrent acquisitions in a batch
const DefaultWorkers = 5

// BatchResult pairs a request with its outcome
type BatchResult struct {
	Index   int
	Request AcquisitionRequest
	Outcome Outcome
}

// AcquireAll runs acquisitions on a bounded worker pool. Results are delivered in
// completion order and the channel is closed once every request has finished.
func (e *Engine) AcquireAll(ctx context.Context, reqs []AcquisitionRequest, workers int) <-chan BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make(chan BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		defer close(results)
		for i, req := range reqs {
			g.Go(func() error {
				outcome := e.Acquire(gctx, req)
				results <- BatchResult{Index: i, Request: req, Outcome: outcome}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results
}
