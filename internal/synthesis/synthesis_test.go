// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func mkSynthesis(t *testing.T, summaryLen, findings int) types.SynthesisResult {
	t.Helper()
	p := payload{Summary: strings.Repeat("a", summaryLen)}
	for i := 0; i < findings; i++ {
		p.KeyFindings = append(p.KeyFindings, "finding")
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name      string
		found     int
		extracted int
		synthesis types.SynthesisResult
		want      int
	}{
		{
			name:      "all criteria met",
			found:     8,
			extracted: 6,
			synthesis: mkSynthesis(t, 300, 5),
			want:      100,
		},
		{
			name:      "too few papers",
			found:     3,
			extracted: 3,
			synthesis: mkSynthesis(t, 300, 5),
			want:      75,
		},
		{
			name:      "poor extraction ratio",
			found:     10,
			extracted: 2,
			synthesis: mkSynthesis(t, 300, 5),
			want:      75,
		},
		{
			name:      "short summary and few findings",
			found:     8,
			extracted: 6,
			synthesis: mkSynthesis(t, 50, 2),
			want:      50,
		},
		{
			name:      "invalid synthesis payload",
			found:     8,
			extracted: 6,
			synthesis: types.SynthesisResult("not json"),
			want:      50,
		},
		{
			name:      "nothing found",
			found:     0,
			extracted: 0,
			synthesis: mkSynthesis(t, 10, 0),
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityScore(tt.found, tt.extracted, tt.synthesis))
		})
	}
}

func TestQualityScoreBoundaries(t *testing.T) {
	// Exactly 5 papers and a 0.4 extraction ratio count; a summary of
	// exactly 200 chars and exactly 3 findings do not.
	s := mkSynthesis(t, 200, 3)
	assert.Equal(t, 50, QualityScore(5, 2, s))
}

func TestNormalizeResultValidJSON(t *testing.T) {
	got := normalizeResult(`{"summary":"fine"}`)
	assert.JSONEq(t, `{"summary":"fine"}`, string(got))
}

func TestNormalizeResultPlainText(t *testing.T) {
	got := normalizeResult("the model ignored instructions")
	var p payload
	assert.NoError(t, json.Unmarshal(got, &p))
	assert.Equal(t, "the model ignored instructions", p.Summary)
}

func TestBuildPromptTruncatesExcerpts(t *testing.T) {
	contents := []types.ExtractedContent{
		{Title: "Long Paper", RawText: strings.Repeat("x", maxExcerptChars*2)},
		{Title: "Short Paper", RawText: "short body"},
	}
	prompt := buildPrompt("what is attention", contents)
	assert.Contains(t, prompt, "what is attention")
	assert.Contains(t, prompt, "Long Paper")
	assert.Contains(t, prompt, "short body")
	assert.Less(t, len(prompt), maxExcerptChars+2000)
}
