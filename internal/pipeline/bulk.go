package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/dealcard/internal/types"
)

// ProcessMany runs urls in fixed-size batches. URLs within a batch run
// concurrently; batches run one after another with a delay between them.
// Results keep submission order and every URL gets exactly one result,
// including those skipped after ctx is cancelled.
func (p *Processor) ProcessMany(ctx context.Context, urls []string, opts Options) types.BulkProcessingResult {
	start := p.now()
	m := p.deps.Metrics
	m.BulkRuns.Add(1)

	results := make([]types.ProcessingResult, len(urls))
	batches := (len(urls) + p.batchSize - 1) / p.batchSize

	p.logger.Info("bulk run started", "urls", len(urls), "batches", batches, "batch_size", p.batchSize)

	next := 0
	for b := 0; b < batches; b++ {
		if b > 0 && !p.wait(ctx) {
			break
		}

		lo := b * p.batchSize
		hi := min(lo+p.batchSize, len(urls))

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				results[i] = p.ProcessURL(ctx, urls[i], opts)
				return nil
			})
		}
		g.Wait()

		m.BulkBatches.Add(1)
		next = hi
		p.logger.Debug("batch complete", "batch", b+1, "of", batches, "urls", hi-lo)
	}

	for i := next; i < len(urls); i++ {
		results[i] = types.ProcessingResult{
			Success:     false,
			OriginalURL: urls[i],
			Error:       fmt.Sprintf("Processing failed: %v", ctx.Err()),
		}
	}

	out := types.BulkProcessingResult{
		TotalURLs: len(urls),
		Results:   results,
	}
	for _, r := range results {
		if r.Success {
			out.SuccessfullyProcessed++
		} else {
			out.Failed++
		}
	}
	out.ProcessingTime = p.now().Sub(start).Milliseconds()

	p.logger.Info("bulk run complete",
		"total", out.TotalURLs,
		"success", out.SuccessfullyProcessed,
		"failed", out.Failed,
		"elapsed_ms", out.ProcessingTime,
	)
	return out
}

// wait sleeps for the batch delay. It reports false if ctx ends first.
func (p *Processor) wait(ctx context.Context) bool {
	if p.batchDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(p.batchDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
