// Package llm provides text completion clients for the routing and
// narrative layers: a Gemini REST client and an Anthropic SDK client,
// both with bounded retries.
package llm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 2 * 1024 * 1024

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 15 * time.Second

var tracer = otel.Tracer("econstats/internal/llm")

// Completer produces text for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request defines an LLM completion request.
type Request struct {
	// System is an optional system instruction.
	System string

	// Prompt is the user turn.
	Prompt string

	// Temperature controls randomness. nil uses the model default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the client default.
	MaxTokens int
}

// Response contains the completion result.
type Response struct {
	// RequestID uniquely identifies this call in logs.
	RequestID string

	// Content is the generated text.
	Content string

	// Model is the model that answered.
	Model string
}

// Temperature returns a pointer to t, for Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

type clientConfig struct {
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
	endpoint    string
	model       string
	timeout     time.Duration
	maxTokens   int
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		retryConfig: DefaultRetryConfig(),
		logger:      slog.Default(),
		timeout:     DefaultTimeout,
		maxTokens:   400,
	}
}

// ClientOption configures a client.
type ClientOption func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(rc RetryConfig) ClientOption {
	return func(cfg *clientConfig) {
		cfg.retryConfig = rc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithEndpoint overrides the API base URL.
func WithEndpoint(url string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.endpoint = url
	}
}

// WithModel sets the model name.
func WithModel(model string) ClientOption {
	return func(cfg *clientConfig) {
		if model != "" {
			cfg.model = model
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithMaxTokens sets the default response length.
func WithMaxTokens(n int) ClientOption {
	return func(cfg *clientConfig) {
		if n > 0 {
			cfg.maxTokens = n
		}
	}
}

// traced wraps a completion in a span named after the provider.
func traced(ctx context.Context, provider, model string, fn func(context.Context) (*Response, error)) (*Response, error) {
	ctx, span := tracer.Start(ctx, provider+".complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)

	resp, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(resp.Content)))
	return resp, nil
}
