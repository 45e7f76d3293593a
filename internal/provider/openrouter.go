// Package provider implements the backend client against the
// OpenRouter chat completions API. OpenRouter fronts many model
// vendors behind one endpoint, so a single client serves every
// council participant.
package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"council/internal/council"
	"council/internal/logging"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout = 120 * time.Second

	maxResponseSize = 10 * 1024 * 1024
)

// Config configures the OpenRouter client.
type Config struct {
	// BaseURL is the chat completions endpoint. Defaults to the public
	// OpenRouter endpoint.
	BaseURL string

	// APIKey authenticates every request. Required.
	APIKey string

	// Timeout bounds each backend call, including connection time and
	// body read. Defaults to 120s.
	Timeout time.Duration

	// SiteURL and SiteName populate OpenRouter's optional attribution
	// headers.
	SiteURL  string
	SiteName string

	// Logger receives per-call logs. Defaults to a nop logger.
	Logger *logging.Logger
}

// OpenRouterClient implements council.Client over the OpenRouter HTTP
// API. It is safe for concurrent use.
type OpenRouterClient struct {
	baseURL    string
	apiKey     string
	siteURL    string
	siteName   string
	httpClient *http.Client
	logger     *logging.Logger
}

var _ council.Client = (*OpenRouterClient)(nil)

// NewOpenRouterClient creates a client from cfg, applying defaults for
// unset fields.
func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &OpenRouterClient{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		siteURL:  cfg.SiteURL,
		siteName: cfg.SiteName,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Wire types for the chat completions API.

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []council.Message `json:"messages"`
	Stream   bool              `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message *chatMessage `json:"message,omitempty"`
	Delta   *chatMessage `json:"delta,omitempty"`
}

type chatMessage struct {
	Content          string          `json:"content"`
	ReasoningDetails json.RawMessage `json:"reasoning_details,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// Generate requests one completion. Transport errors, non-200
// statuses, API-level errors and empty completions all come back as a
// failed ModelResponse rather than an error; the deliberation decides
// what a failure means.
func (c *OpenRouterClient) Generate(ctx context.Context, backend string, messages []council.Message) council.ModelResponse {
	log := c.logger.WithBackend(backend)
	start := time.Now()

	body, failure := c.post(ctx, log, chatRequest{Model: backend, Messages: messages})
	if failure != "" {
		return failed(backend, failure)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failed(backend, fmt.Sprintf("malformed response: %v", err))
	}
	if parsed.Error != nil {
		return failed(backend, fmt.Sprintf("API error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return failed(backend, "no completion returned")
	}

	msg := parsed.Choices[0].Message
	log.Debug("completion received", "duration", time.Since(start).String(), "length", len(msg.Content))
	return council.ModelResponse{
		Backend:   backend,
		Content:   msg.Content,
		Reasoning: string(msg.ReasoningDetails),
	}
}

// GenerateStream requests one completion with server-sent events,
// invoking onToken for each content delta in arrival order. The
// returned response carries the accumulated content. A stream that
// errors mid-way fails the whole call; partial content is not
// delivered as a success.
func (c *OpenRouterClient) GenerateStream(ctx context.Context, backend string, messages []council.Message, onToken func(token string)) council.ModelResponse {
	log := c.logger.WithBackend(backend)
	start := time.Now()

	resp, failure := c.send(ctx, log, chatRequest{Model: backend, Messages: messages, Stream: true}, "text/event-stream")
	if failure != "" {
		return failed(backend, failure)
	}
	defer resp.Body.Close()

	var content strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return failed(backend, fmt.Sprintf("API error: %s", chunk.Error.Message))
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				content.WriteString(delta)
				onToken(delta)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return failed(backend, fmt.Sprintf("stream error: %v", err))
	}

	log.Debug("stream complete", "duration", time.Since(start).String(), "length", content.Len())
	return council.ModelResponse{Backend: backend, Content: content.String()}
}

// post sends the request and reads the full body.
func (c *OpenRouterClient) post(ctx context.Context, log *logging.Logger, reqBody chatRequest) ([]byte, string) {
	resp, failure := c.send(ctx, log, reqBody, "application/json")
	if failure != "" {
		return nil, failure
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Sprintf("reading response: %v", err)
	}
	return body, ""
}

// send issues the HTTP request once. Any failure, rate limits
// included, settles immediately as a failed call; retry policy is not
// the client's to decide. The caller owns the returned body.
func (c *OpenRouterClient) send(ctx context.Context, log *logging.Logger, reqBody chatRequest, accept string) (*http.Response, string) {
	if c.apiKey == "" {
		return nil, "API key not configured"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Sprintf("encoding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Sprintf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", accept)
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err().Error()
		}
		log.Warn("request failed", "error", err)
		return nil, fmt.Sprintf("request failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			log.Warn("rate limited")
			return nil, fmt.Sprintf("rate limit exceeded (429): %s", strings.TrimSpace(string(body)))
		}
		return nil, fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, ""
}

func failed(backend, detail string) council.ModelResponse {
	return council.ModelResponse{Backend: backend, Failed: true, FailureDetail: detail}
}
