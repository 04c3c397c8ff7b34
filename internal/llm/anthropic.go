package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
)

// DefaultAnthropicModel is the model used for the fallback classifier.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicClient calls the Anthropic Messages API through the official SDK.
type AnthropicClient struct {
	client *anthropic.Client
	cfg    clientConfig
}

// NewAnthropic creates an Anthropic client. An empty apiKey yields a
// client whose calls fail with ErrNoCredentials.
func NewAnthropic(apiKey string, opts ...ClientOption) *AnthropicClient {
	cfg := defaultClientConfig()
	cfg.model = DefaultAnthropicModel
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &AnthropicClient{cfg: cfg}
	if apiKey == "" {
		return a
	}

	// Retries are handled by withRetry so errors are classified the same
	// way for both providers.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.timeout),
	}
	if cfg.endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.endpoint))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}
	client := anthropic.NewClient(reqOpts...)
	a.client = &client
	return a
}

// Available reports whether the client has credentials.
func (a *AnthropicClient) Available() bool {
	return a != nil && a.client != nil
}

// Model returns the configured model name.
func (a *AnthropicClient) Model() string {
	return a.cfg.model
}

// Complete sends req to the Messages API with bounded retries.
func (a *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if !a.Available() {
		return nil, ErrNoCredentials
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, NewFatalError(fmt.Errorf("prompt is required"))
	}

	requestID := uuid.New().String()
	return traced(ctx, "anthropic", a.cfg.model, func(ctx context.Context) (*Response, error) {
		resp, err := withRetry(ctx, a.cfg.retryConfig, a.cfg.logger, func(ctx context.Context) (*Response, error) {
			return a.doRequest(ctx, req)
		})
		if err != nil {
			a.cfg.logger.Warn("Anthropic request failed", "request_id", requestID, "model", a.cfg.model, "error", err)
			return nil, err
		}
		resp.RequestID = requestID
		return resp, nil
	})
}

func (a *AnthropicClient) doRequest(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.cfg.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, NewFatalError(ErrEmptyResponse)
	}
	return &Response{Content: sb.String(), Model: string(message.Model)}, nil
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode >= 500:
			return NewTransientError(fmt.Errorf("anthropic API error: %w", err))
		default:
			return NewFatalError(fmt.Errorf("anthropic API error: %w", err))
		}
	}
	// Network failures and timeouts
	return NewTransientError(fmt.Errorf("anthropic request failed: %w", err))
}
