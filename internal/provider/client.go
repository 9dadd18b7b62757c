// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/multichat-tui/internal/model"
)

// Configuration constants for provider requests.
const (
	// DefaultTimeout is the default timeout for chat requests.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens caps generated output length.
	DefaultMaxTokens = 4096

	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.7

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared transport serves all providers.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// Result is the normalized outcome of a chat exchange.
type Result struct {
	Content string

	// Usage is nil when the provider response carried no usage block at
	// all; callers then fall back to character-based estimation. When a
	// usage block is present but partial, missing fields are zero.
	Usage *model.Usage
}

// chatMessage is the wire form of a message: internal bookkeeping fields
// (IDs, timestamps, model attribution) are stripped before send.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// wireHistory converts a conversation history to wire messages.
func wireHistory(msgs []model.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatMessage{Role: m.Role.String(), Content: m.Content})
	}
	return out
}

// apiErrorResponse is the common {"error":{"message":...}} error shape
// shared by every supported backend.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client dispatches chat requests to the owning provider adapter.
type Client struct {
	endpoints   Endpoints
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxTokens   int
	temperature float64
}

// NewClient creates a provider client with default generation settings.
func NewClient(endpoints Endpoints) *Client {
	return &Client{
		endpoints:  endpoints,
		httpClient: sharedHTTPClient,
		// Client-side pacing: bursts of 4, sustained 2 req/s across all
		// providers. Generous for interactive use, keeps accidental
		// loops from hammering paid APIs.
		limiter:     rate.NewLimiter(rate.Limit(2), 4),
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
}

// WithGeneration overrides the max token and temperature defaults.
func (c *Client) WithGeneration(maxTokens int, temperature float64) *Client {
	if maxTokens > 0 {
		c.maxTokens = maxTokens
	}
	if temperature >= 0 {
		c.temperature = temperature
	}
	return c
}

// WithHTTPClient substitutes the HTTP client, used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Send dispatches a chat request to the given provider. The history is
// the full conversation so far, ending with the newest user message.
// systemPrompt is injected in the provider's native way and omitted
// entirely when empty.
func (c *Client) Send(ctx context.Context, p Provider, modelID string, history []model.Message, systemPrompt string, keys Keys) (*Result, error) {
	if p.RequiresKey() && !keys.Configured(p) {
		return nil, &RequestError{Provider: p, Message: fmt.Sprintf("%s: %v", p.DisplayName(), ErrNoKey), Cause: ErrNoKey}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newTransportError(p, err)
	}

	switch p {
	case Anthropic:
		return c.sendAnthropic(ctx, modelID, history, systemPrompt, keys.Get(Anthropic))
	case OpenAI:
		return c.sendOpenAI(ctx, modelID, history, systemPrompt, keys.Get(OpenAI))
	case Gemini:
		return c.sendGemini(ctx, modelID, history, systemPrompt, keys.Get(Gemini))
	case DeepSeek:
		return c.sendOpenAICompat(ctx, DeepSeek, modelID, history, systemPrompt, keys.Get(DeepSeek))
	case Grok:
		return c.sendOpenAICompat(ctx, Grok, modelID, history, systemPrompt, keys.Get(Grok))
	case Ollama:
		return c.sendOpenAICompat(ctx, Ollama, modelID, history, systemPrompt, "")
	default:
		return nil, fmt.Errorf("unknown provider: %s", p)
	}
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// postJSON marshals body, posts it, and returns the response payload.
// Non-2xx responses and transport failures both surface as *RequestError.
func (c *Client) postJSON(ctx context.Context, p Provider, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(p, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, newTransportError(p, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiErrorResponse
		if jsonErr := json.Unmarshal(data, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return nil, newHTTPError(p, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, newHTTPError(p, resp.StatusCode, "")
	}

	return data, nil
}

// readResponse reads a response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
