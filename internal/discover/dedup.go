// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"sort"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Rank merges multi-source results into one ordered, deduplicated list.
//
// Papers sharing a dedup key (normalized title + first-author surname) are
// collapsed to the entry with the highest citation count; provenance
// survives the merge because every source name is kept in Sources. The
// final ordering is relevance descending, citation count descending, then
// external ID ascending, so the output is identical for any permutation of
// the input. The list is truncated to max when max is positive.
func Rank(papers []types.Paper, max int) []types.Paper {
	byKey := make(map[string]types.Paper)
	for _, p := range papers {
		key := p.DedupKey()
		cur, ok := byKey[key]
		if !ok {
			p.Sources = sortedUnion(nil, p.Sources)
			byKey[key] = p
			continue
		}
		sources := sortedUnion(cur.Sources, p.Sources)
		if betterCandidate(p, cur) {
			cur = p
		}
		cur.Sources = sources
		byKey[key] = cur
	}

	merged := make([]types.Paper, 0, len(byKey))
	for _, p := range byKey {
		merged = append(merged, p)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.CitationCount != b.CitationCount {
			return a.CitationCount > b.CitationCount
		}
		return a.ExternalID < b.ExternalID
	})

	if max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

// betterCandidate reports whether a should replace b as the representative
// of a dedup group: higher citation count wins, ties go to the lower
// external ID so the winner does not depend on input order.
func betterCandidate(a, b types.Paper) bool {
	if a.CitationCount != b.CitationCount {
		return a.CitationCount > b.CitationCount
	}
	return a.ExternalID < b.ExternalID
}

// sortedUnion merges two source lists without duplicates, sorted for
// deterministic output.
func sortedUnion(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
