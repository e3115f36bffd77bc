// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := retryBase
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = orig })
}

// chatFixture builds a minimal chat completion response wrapping content.
func chatFixture(t *testing.T, content string) []byte {
	t.Helper()
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

func newTestService(t *testing.T, handler http.HandlerFunc) *OpenAIService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIService(types.SynthesisConfig{
		Model:      "gpt-4o-mini",
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		MaxRetries: 2,
	})
}

func testContents() []types.ExtractedContent {
	return []types.ExtractedContent{
		{PaperID: "p1", Title: "Paper One", RawText: "body one"},
		{PaperID: "p2", Title: "Paper Two", RawText: "body two"},
	}
}

func TestSynthesizeReturnsPayload(t *testing.T) {
	fastBackoff(t)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatFixture(t, `{"summary":"a summary","key_findings":["f1"],"themes":["t1"]}`))
	})

	result, err := svc.Synthesize(context.Background(), "query", testContents())
	require.NoError(t, err)

	var p payload
	require.NoError(t, json.Unmarshal(result, &p))
	assert.Equal(t, "a summary", p.Summary)
	assert.Equal(t, []string{"f1"}, p.KeyFindings)
}

func TestSynthesizeRetriesTransientFailure(t *testing.T) {
	fastBackoff(t)
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatFixture(t, `{"summary":"recovered"}`))
	})

	result, err := svc.Synthesize(context.Background(), "query", testContents())
	require.NoError(t, err)
	assert.Contains(t, string(result), "recovered")
	assert.Equal(t, 2, calls)
}

func TestSynthesizeBudgetExhausted(t *testing.T) {
	fastBackoff(t)
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Synthesize(context.Background(), "query", testContents())
	var synthErr *types.SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, 3, calls)
}

func TestSynthesizeNoContent(t *testing.T) {
	svc := NewOpenAIService(types.SynthesisConfig{Model: "gpt-4o-mini", APIKey: "k"})
	_, err := svc.Synthesize(context.Background(), "query", nil)
	var synthErr *types.SynthesisError
	assert.ErrorAs(t, err, &synthErr)
}

func TestSynthesizeNonJSONContentWrapped(t *testing.T) {
	fastBackoff(t)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatFixture(t, "plain prose answer"))
	})

	result, err := svc.Synthesize(context.Background(), "query", testContents())
	require.NoError(t, err)

	var p payload
	require.NoError(t, json.Unmarshal(result, &p))
	assert.Equal(t, "plain prose answer", p.Summary)
}
