package llmrouter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"econstats/internal/llm"
	"econstats/internal/metrics"
)

// maxClassifierTopics caps how many plan keys the classifier prompt lists.
const maxClassifierTopics = 150

const classifierPrompt = `You route economic data queries. Pick the best topic AND decide how to display data.

Question: %q

Available topics: %s

DISPLAY RULES (show_yoy):
- RATES (unemployment %%, interest rates, P/E ratios) -> show_yoy: false (already meaningful)
- INDEXES (CPI, home price index) -> show_yoy: true (raw index meaningless, show inflation rate)
- LEVELS (GDP dollars, employment count) -> show_yoy: false usually
- GROWTH questions ("how fast", "growth rate") -> show_yoy: true

Reply in format: topic_name|show_yoy
Examples: "inflation|true" or "unemployment|false" or "none|false"`

// Classification is the fallback classifier's answer.
type Classification struct {
	Topic   string
	ShowYoY *bool
}

// Classifier is the secondary routing model: a short prompt listing plan
// keys and a one-line "topic|show_yoy" reply.
type Classifier struct {
	client   llm.Completer
	topics   []string
	byLower  map[string]string
	deadline time.Duration
	logger   *slog.Logger
}

// NewClassifier creates a classifier over the given plan keys. A nil
// client makes it unavailable.
func NewClassifier(client llm.Completer, topics []string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		client:   client,
		byLower:  make(map[string]string, len(topics)),
		deadline: DefaultDeadline,
		logger:   logger,
	}
	for _, t := range topics {
		c.byLower[strings.ToLower(t)] = t
	}
	c.topics = make([]string, 0, len(c.byLower))
	for _, t := range c.byLower {
		c.topics = append(c.topics, t)
	}
	sort.Strings(c.topics)
	return c
}

// Available reports whether a model client is configured.
func (c *Classifier) Available() bool {
	return c != nil && c.client != nil
}

// Classify asks the model for a topic. It returns false when the model is
// unavailable, fails, says "none", or names an unknown topic.
func (c *Classifier) Classify(ctx context.Context, query string) (Classification, bool) {
	if !c.Available() {
		return Classification{}, false
	}

	listed := c.topics
	if len(listed) > maxClassifierTopics {
		listed = listed[:maxClassifierTopics]
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deadline)
	defer cancel()

	resp, err := c.client.Complete(callCtx, llm.Request{
		Prompt:    fmt.Sprintf(classifierPrompt, query, strings.Join(listed, ", ")),
		MaxTokens: 100,
	})
	if err != nil {
		metrics.RecordLLMCall("classifier", "error")
		c.logger.Warn("Fallback classification failed", "query", query, "error", err)
		return Classification{}, false
	}
	metrics.RecordLLMCall("classifier", "ok")

	cls, ok := c.parse(resp.Content)
	c.logger.Debug("Fallback classification", "query", query, "reply", resp.Content, "matched", ok)
	return cls, ok
}

func (c *Classifier) parse(reply string) (Classification, bool) {
	reply = strings.ToLower(strings.TrimSpace(reply))
	reply = strings.Trim(reply, "\"'`")
	if i := strings.IndexByte(reply, '\n'); i >= 0 {
		reply = reply[:i]
	}

	topic, yoy, hasYoY := strings.Cut(reply, "|")
	topic = strings.TrimSpace(topic)
	if topic == "" || topic == "none" {
		return Classification{}, false
	}

	canonical, ok := c.byLower[topic]
	if !ok {
		return Classification{}, false
	}

	cls := Classification{Topic: canonical}
	if hasYoY {
		v := strings.TrimSpace(yoy) == "true"
		cls.ShowYoY = &v
	}
	return cls, true
}
