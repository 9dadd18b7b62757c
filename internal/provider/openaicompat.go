// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/multichat-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// openAIRequest is the OpenAI chat completions request body. OpenAI
// proper takes max_completion_tokens; the compatible backends (DeepSeek,
// Grok, Ollama) still use max_tokens plus temperature, so the two
// variants are separate structs rather than one with conditional fields.
type openAIRequest struct {
	Model               string        `json:"model"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
	Messages            []chatMessage `json:"messages"`
}

type openAICompatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

// openAIResponse is the chat completions response shape shared by all
// four OpenAI-style backends.
type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// =============================================================================
// ADAPTERS
// =============================================================================

// withSystemMessage prepends a synthetic system message when a prompt is
// set; OpenAI-style APIs have no dedicated system field.
func withSystemMessage(msgs []chatMessage, systemPrompt string) []chatMessage {
	if systemPrompt == "" {
		return msgs
	}
	out := make([]chatMessage, 0, len(msgs)+1)
	out = append(out, chatMessage{Role: "system", Content: systemPrompt})
	return append(out, msgs...)
}

// sendOpenAI posts a chat completions request to OpenAI proper.
func (c *Client) sendOpenAI(ctx context.Context, modelID string, history []model.Message, systemPrompt, key string) (*Result, error) {
	body := openAIRequest{
		Model:               modelID,
		MaxCompletionTokens: c.maxTokens,
		Messages:            withSystemMessage(wireHistory(history), systemPrompt),
	}

	headers := map[string]string{"Authorization": "Bearer " + key}

	data, err := c.postJSON(ctx, OpenAI, c.endpoints.ChatURL(OpenAI), headers, body)
	if err != nil {
		return nil, err
	}
	return parseOpenAIResponse(OpenAI, data)
}

// sendOpenAICompat posts a chat completions request to an
// OpenAI-compatible backend (DeepSeek, Grok, Ollama). Ollama is local
// and sends no Authorization header.
func (c *Client) sendOpenAICompat(ctx context.Context, p Provider, modelID string, history []model.Message, systemPrompt, key string) (*Result, error) {
	body := openAICompatRequest{
		Model:       modelID,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    withSystemMessage(wireHistory(history), systemPrompt),
	}

	headers := map[string]string{}
	if key != "" {
		headers["Authorization"] = "Bearer " + key
	}

	data, err := c.postJSON(ctx, p, c.endpoints.ChatURL(p), headers, body)
	if err != nil {
		return nil, err
	}
	return parseOpenAIResponse(p, data)
}

// parseOpenAIResponse normalizes a chat completions response.
func parseOpenAIResponse(p Provider, data []byte) (*Result, error) {
	var resp openAIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", p, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &RequestError{Provider: p, Message: ErrEmptyResponse.Error(), Cause: ErrEmptyResponse}
	}

	result := &Result{Content: resp.Choices[0].Message.Content}
	if resp.Usage != nil {
		result.Usage = &model.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}
	return result, nil
}
