// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// SufficiencyChecker decides whether the knowledge store already answers a
// query well enough to skip live discovery. Pure read; safe to call
// repeatedly.
type SufficiencyChecker struct {
	store     KnowledgeStore
	k         int
	threshold int
	cutoff    float64
}

// NewSufficiencyChecker creates a checker with the workflow thresholds.
func NewSufficiencyChecker(store KnowledgeStore, cfg types.WorkflowConfig) *SufficiencyChecker {
	return &SufficiencyChecker{
		store:     store,
		k:         cfg.SufficiencyK,
		threshold: cfg.SufficiencyThreshold,
		cutoff:    cfg.MinRelevance,
	}
}

// Check searches the store and counts hits at or above the relevance
// cutoff. It returns the relevant hits so a sufficient result can feed
// synthesis directly.
func (c *SufficiencyChecker) Check(ctx context.Context, query string) (bool, []types.SearchHit, error) {
	hits, err := c.store.Search(ctx, query, c.k)
	if err != nil {
		return false, nil, err
	}

	var relevant []types.SearchHit
	for _, h := range hits {
		if h.Score >= c.cutoff {
			relevant = append(relevant, h)
		}
	}
	return len(relevant) >= c.threshold, relevant, nil
}
