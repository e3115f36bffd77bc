// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// retryBase controls the base duration for exponential backoff between
// completion attempts. Tests override this to avoid real sleeps.
var retryBase = time.Second

// Cap on per-paper text sent to the model; full papers would blow the
// context window long before they improve the summary.
const maxExcerptChars = 4000

// OpenAIService synthesizes summaries through the OpenAI chat completion
// API (or any compatible endpoint via the base URL override).
type OpenAIService struct {
	client     *openai.Client
	model      string
	maxRetries int
}

// NewOpenAIService creates a synthesis service from the configuration.
func NewOpenAIService(cfg types.SynthesisConfig) *OpenAIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	return &OpenAIService{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		maxRetries: maxRetries,
	}
}

// Synthesize prompts the model with the query and per-paper excerpts and
// returns the structured JSON payload. Transient API failures are retried
// with exponential backoff; exhausting the budget is fatal to the request.
func (s *OpenAIService) Synthesize(ctx context.Context, query string, contents []types.ExtractedContent) (types.SynthesisResult, error) {
	if len(contents) == 0 {
		return nil, &types.SynthesisError{Err: fmt.Errorf("no content to synthesize")}
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(query, contents),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBase
			select {
			case <-ctx.Done():
				return nil, &types.SynthesisError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices")
			continue
		}
		return normalizeResult(resp.Choices[0].Message.Content), nil
	}
	return nil, &types.SynthesisError{Err: lastErr}
}

const systemPrompt = "You are a research assistant. Given excerpts from academic papers, " +
	"produce a JSON object with fields: summary (string), key_findings (array of strings), " +
	"themes (array of strings). Ground every statement in the provided excerpts."

// buildPrompt assembles the user message: the query followed by one
// truncated excerpt per paper.
func buildPrompt(query string, contents []types.ExtractedContent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research question: %s\n\n", query)
	for i, c := range contents {
		text := c.RawText
		if len(text) > maxExcerptChars {
			text = text[:maxExcerptChars]
		}
		fmt.Fprintf(&sb, "--- Paper %d: %s ---\n%s\n\n", i+1, c.Title, text)
	}
	return sb.String()
}

// normalizeResult keeps valid JSON as-is; anything else is wrapped into a
// payload so callers always hold well-formed JSON.
func normalizeResult(content string) types.SynthesisResult {
	trimmed := strings.TrimSpace(content)
	if json.Valid([]byte(trimmed)) {
		return types.SynthesisResult(trimmed)
	}
	wrapped, _ := json.Marshal(payload{Summary: trimmed})
	return wrapped
}
