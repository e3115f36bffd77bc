// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover fans a query out to external paper sources in parallel
// and merges the results into one deduplicated, ranked list.
package discover

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Source searches a single external discovery API. Implementations are
// registered on the Coordinator; adding a source means adding an
// implementation, not changing the fan-out.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Paper, error)
}

// retryBase controls the base duration for exponential backoff between
// per-source retry attempts. Tests override this to avoid real sleeps.
var retryBase = 500 * time.Millisecond

// Coordinator fans out queries to the configured sources, applying the
// shared rate limiter and a per-source retry budget.
type Coordinator struct {
	sources    []Source
	limiter    *RateLimiter
	maxRetries int
	log        *zap.Logger
}

// NewCoordinator creates a coordinator over the given sources.
func NewCoordinator(sources []Source, limiter *RateLimiter, cfg types.DiscoveryConfig, log *zap.Logger) *Coordinator {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Coordinator{
		sources:    sources,
		limiter:    limiter,
		maxRetries: maxRetries,
		log:        log,
	}
}

// Discover queries all sources concurrently and returns the merged ranked
// list plus the per-source failures that were absorbed. maxItems is split
// evenly across sources with the remainder going to the first source, in
// declaration order.
//
// Partial success is acceptable: one source succeeding is enough to
// proceed. Only when every source fails does Discover return an error.
func (c *Coordinator) Discover(ctx context.Context, query string, maxItems int) ([]types.Paper, []string, error) {
	if len(c.sources) == 0 {
		return nil, nil, fmt.Errorf("no discovery sources configured")
	}
	if maxItems <= 0 {
		maxItems = 20
	}

	quotas := partition(maxItems, len(c.sources))

	var (
		mu         sync.Mutex
		all        []types.Paper
		sourceErrs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		src := src
		quota := quotas[i]
		g.Go(func() error {
			papers, err := c.searchWithBudget(gctx, src, query, quota)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.log.Warn("discovery source excluded",
					zap.String("source", src.Name()),
					zap.Error(err))
				sourceErrs = append(sourceErrs, err.Error())
				return nil
			}
			all = append(all, papers...)
			return nil
		})
	}
	// Goroutines never return errors; partial failure is recorded, not
	// propagated. Wait only joins them.
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, sourceErrs, err
	}
	if len(all) == 0 && len(sourceErrs) > 0 {
		return nil, sourceErrs, fmt.Errorf("all discovery sources failed: %d errors", len(sourceErrs))
	}

	ranked := Rank(all, maxItems)
	c.log.Info("discovery complete",
		zap.String("query", query),
		zap.Int("raw", len(all)),
		zap.Int("merged", len(ranked)),
		zap.Int("source_errors", len(sourceErrs)))
	return ranked, sourceErrs, nil
}

// searchWithBudget runs one source through the rate limiter with the
// per-source retry budget. The budget exhausting wraps the last error in a
// SourceUnavailableError so the caller can tell absorbed degradation from
// coordinator faults.
func (c *Coordinator) searchWithBudget(ctx context.Context, src Source, query string, limit int) ([]types.Paper, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBase
			select {
			case <-ctx.Done():
				return nil, &types.SourceUnavailableError{Source: src.Name(), Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx, src.Name()); err != nil {
			return nil, &types.SourceUnavailableError{Source: src.Name(), Err: err}
		}

		papers, err := src.Search(ctx, query, limit)
		if err == nil {
			return papers, nil
		}
		lastErr = err
	}
	return nil, &types.SourceUnavailableError{Source: src.Name(), Err: lastErr}
}

// partition splits n into parts equal shares, remainder to the first part.
func partition(n, parts int) []int {
	quotas := make([]int, parts)
	share := n / parts
	for i := range quotas {
		quotas[i] = share
	}
	quotas[0] += n % parts
	return quotas
}
