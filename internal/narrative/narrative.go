// Package narrative turns pre-computed analytics into a short summary. The
// model only ever sees analytics text, never raw observations.
package narrative

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"econstats/internal/cache"
	"econstats/internal/llm"
	"econstats/internal/metrics"
	"econstats/internal/transform"
)

// Unavailable is returned when there is nothing to summarize.
const Unavailable = "Economic data summary not available."

// Summary cache defaults
const (
	DefaultCacheTTL     = time.Hour
	DefaultCacheEntries = 500

	maxSummaryTokens = 300
	summaryDeadline  = 20 * time.Second
)

const summaryPrompt = `You are an expert economist providing clear, insightful explanations of economic data.

USER QUESTION: %q

CURRENT DATA:
%s

Provide a 2-3 sentence summary that:
1. Directly answers the user's question
2. References specific numbers from the data
3. Explains what the trends MEAN (not just describe them)
4. Uses plain language accessible to non-economists

Use only the numbers given above. Be concise and informative. Do not use bullet points.`

// Summarizer writes summaries with a model, falling back to deterministic
// prose built from the analytics.
type Summarizer struct {
	client llm.Completer
	cache  *cache.Cache[string]
	logger *slog.Logger
}

// NewSummaryCache creates the default summary cache.
func NewSummaryCache() *cache.Cache[string] {
	return cache.New[string](DefaultCacheTTL, DefaultCacheEntries, cache.WithName("summaries"))
}

// New creates a summarizer. client may be nil; c may be nil for no caching.
func New(client llm.Completer, c *cache.Cache[string], logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{client: client, cache: c, logger: logger}
}

// Summarize returns prose for query over the given analytics.
func (s *Summarizer) Summarize(ctx context.Context, query string, analytics []transform.Analytics) string {
	if len(analytics) == 0 {
		return Unavailable
	}
	lines := make([]string, len(analytics))
	for i, a := range analytics {
		lines[i] = "- " + a.Text()
	}
	data := strings.Join(lines, "\n")

	if s.client == nil {
		return Fallback(analytics)
	}

	key := cacheKey(query, data)
	if s.cache != nil {
		if text, ok := s.cache.Get(key); ok {
			return text
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, summaryDeadline)
	defer cancel()
	resp, err := s.client.Complete(callCtx, llm.Request{
		Prompt:    fmt.Sprintf(summaryPrompt, query, data),
		MaxTokens: maxSummaryTokens,
	})
	if err != nil {
		metrics.RecordLLMCall("narrative", "error")
		s.logger.Warn("Summary generation failed", "query", query, "error", err)
		return Fallback(analytics)
	}
	metrics.RecordLLMCall("narrative", "ok")

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return Fallback(analytics)
	}
	if s.cache != nil {
		s.cache.Set(key, text)
	}
	return text
}

// Fallback renders the analytics as plain sentences.
func Fallback(analytics []transform.Analytics) string {
	if len(analytics) == 0 {
		return Unavailable
	}
	sentences := make([]string, len(analytics))
	for i, a := range analytics {
		sentences[i] = a.Text() + "."
	}
	return strings.Join(sentences, " ")
}

func cacheKey(query, data string) string {
	sum := sha256.Sum256([]byte(data))
	return "summary:" + strings.ToLower(strings.TrimSpace(query)) + ":" + hex.EncodeToString(sum[:8])
}
