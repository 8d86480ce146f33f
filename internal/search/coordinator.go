package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// branchPoolSize is the number of retrieval branches run side by side.
const branchPoolSize = 2

// maxBranchFetch caps how many candidates each branch retrieves before
// fusion.
const maxBranchFetch = 20

// BranchResults carries both branch lists plus per-branch timings.
type BranchResults struct {
	Vector     []*Result
	BM25       []*Result
	VectorTime time.Duration
	BM25Time   time.Duration
}

// Coordinator runs the vector and keyword branches over a bounded
// worker pool. A failing branch degrades to an empty list; it never
// fails the query.
type Coordinator struct {
	vector   Index
	bm25     Index
	pool     *ants.Pool
	timeout  time.Duration
	parallel bool
	logger   *slog.Logger

	closeOnce sync.Once
}

// NewCoordinator creates a coordinator over the two branches. timeout
// bounds each branch; zero disables the deadline.
func NewCoordinator(vector, bm25 Index, parallel bool, timeout time.Duration, logger *slog.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		vector:   vector,
		bm25:     bm25,
		timeout:  timeout,
		parallel: parallel,
		logger:   logger,
	}
	if parallel {
		pool, err := ants.NewPool(branchPoolSize)
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}
	return c, nil
}

// fetchWidth over-fetches per branch so fusion has candidates beyond
// the requested page.
func fetchWidth(topK int) int {
	width := topK * 3
	if width > maxBranchFetch {
		width = maxBranchFetch
	}
	if width < 1 {
		width = 1
	}
	return width
}

// Retrieve runs both branches and always returns, even when one or both
// branches fail.
func (c *Coordinator) Retrieve(ctx context.Context, query string, topK int) BranchResults {
	width := fetchWidth(topK)

	if !c.parallel || c.pool == nil {
		var br BranchResults
		br.Vector, br.VectorTime = c.runBranch(ctx, "vector", c.vector, query, width)
		br.BM25, br.BM25Time = c.runBranch(ctx, "bm25", c.bm25, query, width)
		return br
	}

	var br BranchResults
	var wg sync.WaitGroup
	wg.Add(2)

	submit := func(name string, idx Index, assign func([]*Result, time.Duration)) {
		task := func() {
			defer wg.Done()
			results, elapsed := c.runBranch(ctx, name, idx, query, width)
			assign(results, elapsed)
		}
		if err := c.pool.Submit(task); err != nil {
			// Pool is released or overloaded; run inline so the
			// query still completes.
			c.logger.Warn("branch pool submit failed, running inline",
				slog.String("branch", name),
				slog.Any("error", err))
			task()
		}
	}

	submit("vector", c.vector, func(r []*Result, d time.Duration) {
		br.Vector, br.VectorTime = r, d
	})
	submit("bm25", c.bm25, func(r []*Result, d time.Duration) {
		br.BM25, br.BM25Time = r, d
	})

	wg.Wait()
	return br
}

// runBranch executes one branch under the configured deadline. Errors
// are logged and mapped to an empty list.
func (c *Coordinator) runBranch(ctx context.Context, name string, idx Index, query string, topK int) ([]*Result, time.Duration) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := idx.Search(ctx, query, topK)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("retrieval branch failed",
			slog.String("branch", name),
			slog.String("query", query),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return []*Result{}, elapsed
	}
	if results == nil {
		results = []*Result{}
	}
	return results, elapsed
}

// Close releases the worker pool. Safe to call more than once.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		if c.pool != nil {
			c.pool.Release()
		}
	})
}
