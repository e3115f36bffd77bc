// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns extracted paper content into a structured
// research summary via a language model, and scores the quality of the
// overall result.
package synthesis

import (
	"context"
	"encoding/json"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Service produces a synthesis payload for a query from the extracted
// content of the discovered papers.
type Service interface {
	Synthesize(ctx context.Context, query string, contents []types.ExtractedContent) (types.SynthesisResult, error)
}

// payload is the JSON shape the model is asked to produce. The workflow
// treats the result as opaque; only quality scoring looks inside.
type payload struct {
	Summary     string   `json:"summary"`
	KeyFindings []string `json:"key_findings"`
	Themes      []string `json:"themes"`
}

// QualityScore rates a completed result from 0 to 100. Four independent
// checks contribute 25 points each: enough papers found, a reasonable
// extraction ratio, a substantive summary, and enough key findings.
func QualityScore(papersFound, contentExtracted int, synthesis types.SynthesisResult) int {
	score := 0

	if papersFound >= 5 {
		score += 25
	}
	if papersFound > 0 && float64(contentExtracted)/float64(papersFound) >= 0.3 {
		score += 25
	}

	var p payload
	if err := json.Unmarshal(synthesis, &p); err == nil {
		if len(p.Summary) > 200 {
			score += 25
		}
		if len(p.KeyFindings) > 3 {
			score += 25
		}
	}
	return score
}
