// Package plancatalog renders the curated plan keys as a compact,
// bucketed index that fits in an LLM prompt.
package plancatalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Budget defaults
const (
	DefaultTokenBudget = 3500
	charsPerToken      = 4
	minShownPerBucket  = 8
)

// dedupSuffixes are trailing fillers ignored when comparing keys.
var dedupSuffixes = []string{
	" doing", " looking", " trending", " changed",
	" right now", " today", " currently", " these days",
}

// KeySource lists plan keys. *registry.Registry satisfies it.
type KeySource interface {
	AllPlanKeys() []string
}

// Catalog is the built, immutable plan index.
type Catalog struct {
	buckets map[Bucket][]string
	plans   int
	text    string
}

type options struct {
	tokenBudget int
	logger      *slog.Logger
}

// Option configures Build.
type Option func(*options)

// WithTokenBudget sets the target size of the catalog text in tokens.
func WithTokenBudget(tokens int) Option {
	return func(o *options) {
		o.tokenBudget = tokens
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Build classifies every plan key from src and renders the catalog text.
func Build(src KeySource, opts ...Option) *Catalog {
	o := options{tokenBudget: DefaultTokenBudget, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	keys := src.AllPlanKeys()
	c := &Catalog{
		buckets: make(map[Bucket][]string),
		plans:   len(keys),
	}
	for _, k := range keys {
		b := Classify(k)
		c.buckets[b] = append(c.buckets[b], k)
	}
	c.text = render(c.buckets, o.tokenBudget)

	o.logger.Info("Built plan catalog",
		"plans", c.plans,
		"buckets", len(c.buckets),
		"tokens", EstimateTokens(c.text),
	)
	return c
}

// Text returns the catalog text for the routing prompt.
func (c *Catalog) Text() string {
	if c == nil {
		return ""
	}
	return c.text
}

// Keys returns the plan keys classified into b.
func (c *Catalog) Keys(b Bucket) []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.buckets[b]...)
}

// Buckets returns the non-empty buckets in display order.
func (c *Catalog) Buckets() []Bucket {
	if c == nil {
		return nil
	}
	var out []Bucket
	for _, b := range displayOrder {
		if len(c.buckets[b]) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the number of plans classified.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return c.plans
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Dedupe drops keys sharing a root with a shorter key, where the root is
// the key without a trailing filler such as " doing" or " today".
func Dedupe(keys []string) []string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) < len(sorted[j])
	})

	seen := make(map[string]bool, len(sorted))
	var out []string
	for _, k := range sorted {
		root := strings.ToLower(strings.TrimSpace(k))
		for _, s := range dedupSuffixes {
			root = strings.TrimSuffix(root, s)
		}
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, k)
	}
	return out
}

func render(buckets map[Bucket][]string, budget int) string {
	shown := make(map[Bucket][]string, len(buckets))
	for b, keys := range buckets {
		shown[b] = Dedupe(keys)
	}

	text := format(buckets, shown)
	for budget > 0 && EstimateTokens(text) > budget {
		b, ok := longest(shown)
		if !ok {
			break
		}
		n := len(shown[b])
		cut := max(n/10, 1)
		shown[b] = shown[b][:max(n-cut, minShownPerBucket)]
		text = format(buckets, shown)
	}
	return text
}

// longest returns the bucket with the most displayed keys that can still
// be trimmed. STATES is never listed so it never qualifies.
func longest(shown map[Bucket][]string) (Bucket, bool) {
	var best Bucket
	n := minShownPerBucket
	for _, b := range displayOrder {
		if b == States {
			continue
		}
		if len(shown[b]) > n {
			best, n = b, len(shown[b])
		}
	}
	return best, best != ""
}

func format(buckets, shown map[Bucket][]string) string {
	var sb strings.Builder
	for _, b := range displayOrder {
		all := buckets[b]
		if len(all) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s (%d plans):\n", b, len(all))
		if b == States {
			sb.WriteString("  For any US state: \"{state} economy\", \"{state} unemployment\", \"{state} jobs\"\n")
			sb.WriteString("  Examples: california economy, new york unemployment, texas jobs\n")
			sb.WriteString("  All 50 states + DC covered.\n")
			continue
		}
		keys := shown[b]
		sb.WriteString("  ")
		sb.WriteString(strings.Join(keys, ", "))
		if hidden := len(Dedupe(all)) - len(keys); hidden > 0 {
			fmt.Fprintf(&sb, " (+%d more)", hidden)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
