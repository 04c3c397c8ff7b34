package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Gemini defaults
const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey string
	cfg    clientConfig
}

// geminiRequest is the Gemini API request body.
type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// geminiResponse is the Gemini API response body.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewGemini creates a Gemini client. An empty apiKey yields a client whose
// calls fail with ErrNoCredentials.
func NewGemini(apiKey string, opts ...ClientOption) *GeminiClient {
	cfg := defaultClientConfig()
	cfg.endpoint = DefaultGeminiEndpoint
	cfg.model = DefaultGeminiModel
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return &GeminiClient{apiKey: apiKey, cfg: cfg}
}

// Available reports whether the client has credentials.
func (g *GeminiClient) Available() bool {
	return g != nil && g.apiKey != ""
}

// Model returns the configured model name.
func (g *GeminiClient) Model() string {
	return g.cfg.model
}

// Complete sends req to Gemini with bounded retries.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if !g.Available() {
		return nil, ErrNoCredentials
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, NewFatalError(fmt.Errorf("prompt is required"))
	}

	requestID := uuid.New().String()
	return traced(ctx, "gemini", g.cfg.model, func(ctx context.Context) (*Response, error) {
		resp, err := withRetry(ctx, g.cfg.retryConfig, g.cfg.logger, func(ctx context.Context) (*Response, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.timeout)
			defer cancel()
			return g.doRequest(attemptCtx, req)
		})
		if err != nil {
			g.cfg.logger.Warn("Gemini request failed", "request_id", requestID, "model", g.cfg.model, "error", err)
			return nil, err
		}
		resp.RequestID = requestID
		return resp, nil
	})
}

func (g *GeminiClient) doRequest(ctx context.Context, req Request) (*Response, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.cfg.endpoint, g.cfg.model, g.apiKey)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.cfg.maxTokens
	}
	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.cfg.httpClient.Do(httpReq)
	if err != nil {
		// Network errors and timeouts are transient
		return nil, NewTransientError(fmt.Errorf("gemini request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("failed to read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError("gemini", httpResp.StatusCode, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewFatalError(fmt.Errorf("failed to parse gemini response: %w", err))
	}
	if parsed.Error != nil {
		return nil, NewFatalError(fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, NewFatalError(ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return &Response{Content: sb.String(), Model: g.cfg.model}, nil
}
