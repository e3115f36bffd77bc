// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// stopwords are excluded from cluster terms. The list only needs to cover
// words common in paper titles, not full English.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"based": true, "by": true, "for": true, "from": true, "in": true,
	"is": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"toward": true, "towards": true, "using": true, "via": true, "with": true,
}

// Clusters groups indexed documents by the most frequent title terms and
// returns up to n clusters ordered by size. It is a coarse topic summary,
// not a trained topic model.
func (s *Store) Clusters(ctx context.Context, n int) ([]types.TopicCluster, error) {
	if n <= 0 {
		n = 5
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("reading titles: %w", err)
	}
	defer rows.Close()

	// term → set of document ids containing it.
	termDocs := make(map[string]map[string]bool)
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		for _, term := range titleTerms(title) {
			if termDocs[term] == nil {
				termDocs[term] = make(map[string]bool)
			}
			termDocs[term][id] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	terms := make([]string, 0, len(termDocs))
	for t := range termDocs {
		if len(termDocs[t]) >= 2 {
			terms = append(terms, t)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(termDocs[terms[i]]) != len(termDocs[terms[j]]) {
			return len(termDocs[terms[i]]) > len(termDocs[terms[j]])
		}
		return terms[i] < terms[j]
	})

	var clusters []types.TopicCluster
	claimed := make(map[string]bool)
	for _, label := range terms {
		if len(clusters) >= n {
			break
		}

		members := make(map[string]bool)
		for id := range termDocs[label] {
			if !claimed[id] {
				members[id] = true
			}
		}
		if len(members) < 2 {
			continue
		}
		for id := range members {
			claimed[id] = true
		}

		clusters = append(clusters, types.TopicCluster{
			Label:     label,
			Terms:     relatedTerms(label, members, termDocs, 5),
			Documents: len(members),
		})
	}

	return clusters, nil
}

// titleTerms tokenizes a title into lowercased terms, dropping stopwords
// and short tokens.
func titleTerms(title string) []string {
	var terms []string
	for _, f := range strings.Fields(types.NormalizeTitle(title)) {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// relatedTerms returns up to max terms that co-occur with label inside the
// member document set, ordered by overlap then alphabetically.
func relatedTerms(label string, members map[string]bool, termDocs map[string]map[string]bool, max int) []string {
	type overlap struct {
		term  string
		count int
	}
	var candidates []overlap
	for term, docs := range termDocs {
		if term == label {
			continue
		}
		n := 0
		for id := range docs {
			if members[id] {
				n++
			}
		}
		if n > 0 {
			candidates = append(candidates, overlap{term: term, count: n})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].term < candidates[j].term
	})

	terms := []string{label}
	for _, c := range candidates {
		if len(terms) >= max {
			break
		}
		terms = append(terms, c.term)
	}
	return terms
}
