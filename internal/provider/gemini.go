// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jeranaias/multichat-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// geminiRequest is the generateContent request body. The system prompt
// travels in systemInstruction, omitted when empty.
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// =============================================================================
// ADAPTER
// =============================================================================

// sendGemini posts a generateContent request. The URL is composed per
// model and carries the API key as a query parameter; assistant turns
// map to role "model" on the wire.
func (c *Client) sendGemini(ctx context.Context, modelID string, history []model.Message, systemPrompt, key string) (*Result, error) {
	contents := make([]geminiContent, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == model.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	body := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: c.maxTokens,
			Temperature:     c.temperature,
		},
	}
	if systemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	requestURL := fmt.Sprintf("%s/%s:generateContent?key=%s",
		c.endpoints.ChatURL(Gemini), modelID, url.QueryEscape(key))

	data, err := c.postJSON(ctx, Gemini, requestURL, nil, body)
	if err != nil {
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &RequestError{Provider: Gemini, Message: ErrEmptyResponse.Error(), Cause: ErrEmptyResponse}
	}

	result := &Result{Content: resp.Candidates[0].Content.Parts[0].Text}
	if resp.UsageMetadata != nil {
		result.Usage = &model.Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return result, nil
}
