// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/multichat-tui/internal/model"
)

// anthropicVersion is the dated API version header required by the
// Messages API.
const anthropicVersion = "2023-06-01"

// =============================================================================
// WIRE TYPES
// =============================================================================

// anthropicRequest is the Messages API request body. The system prompt
// rides in the top-level system field, never in the messages array.
type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
	System    string        `json:"system,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// =============================================================================
// ADAPTER
// =============================================================================

// sendAnthropic posts a Messages API request. Auth is via the x-api-key
// header plus the anthropic-version header.
func (c *Client) sendAnthropic(ctx context.Context, modelID string, history []model.Message, systemPrompt, key string) (*Result, error) {
	body := anthropicRequest{
		Model:     modelID,
		MaxTokens: c.maxTokens,
		Messages:  wireHistory(history),
		System:    systemPrompt,
	}

	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": anthropicVersion,
	}

	data, err := c.postJSON(ctx, Anthropic, c.endpoints.ChatURL(Anthropic), headers, body)
	if err != nil {
		return nil, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, &RequestError{Provider: Anthropic, Message: ErrEmptyResponse.Error(), Cause: ErrEmptyResponse}
	}

	result := &Result{Content: resp.Content[0].Text}
	if resp.Usage != nil {
		result.Usage = &model.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
	}
	return result, nil
}
