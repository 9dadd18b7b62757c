// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// USAGE ACCOUNTING
// =============================================================================

// Usage holds token counts for a single exchange with a provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TotalTokens returns the combined input and output token count.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// ModelUsage accumulates per-model token totals within a conversation.
type ModelUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// titleMaxChars is the number of characters of the first user message
// used to derive a conversation title.
const titleMaxChars = 40

// DefaultTitle is the title given to a conversation before its first
// user message.
const DefaultTitle = "New Chat"

// Conversation is a single chat thread: an append-only message history
// plus running token and cost accumulators.
//
// Invariant: TotalInputTokens + TotalOutputTokens always equals the sum
// of TotalTokens across all ModelUsage buckets. Both are updated only by
// AppendAssistantResult, in the same step.
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	TotalCost         float64                `json:"total_cost"`
	TotalInputTokens  int                    `json:"total_input_tokens"`
	TotalOutputTokens int                    `json:"total_output_tokens"`
	ModelUsage        map[string]*ModelUsage `json:"model_usage"`

	CreatedAt time.Time `json:"created_at"`
}

// NewConversation creates an empty conversation using the given default model.
func NewConversation(defaultModel string) *Conversation {
	return &Conversation{
		ID:         generateConversationID(),
		Title:      DefaultTitle,
		Model:      defaultModel,
		Messages:   []Message{},
		ModelUsage: make(map[string]*ModelUsage),
		CreatedAt:  time.Now(),
	}
}

// AppendUserMessage appends a user message to the history. If this is the
// first message of the conversation, the title is derived from it: the
// first 40 characters of the trimmed text, with "..." appended only when
// the text is longer than 40 characters.
func (c *Conversation) AppendUserMessage(text string) Message {
	msg := NewUserMessage(text)
	if len(c.Messages) == 0 {
		c.Title = DeriveTitle(text)
	}
	c.Messages = append(c.Messages, msg)
	return msg
}

// AppendAssistantResult appends an assistant message and updates the
// conversation accumulators: total cost, total input/output tokens, and
// the per-model usage bucket for modelID (created on first use).
func (c *Conversation) AppendAssistantResult(content, modelID, systemPromptID string, usage Usage, cost float64) Message {
	msg := NewAssistantMessage(content, modelID, systemPromptID)
	c.Messages = append(c.Messages, msg)

	c.TotalCost += cost
	c.TotalInputTokens += usage.InputTokens
	c.TotalOutputTokens += usage.OutputTokens

	if c.ModelUsage == nil {
		c.ModelUsage = make(map[string]*ModelUsage)
	}
	bucket, ok := c.ModelUsage[modelID]
	if !ok {
		bucket = &ModelUsage{}
		c.ModelUsage[modelID] = bucket
	}
	bucket.InputTokens += usage.InputTokens
	bucket.OutputTokens += usage.OutputTokens
	bucket.TotalTokens += usage.TotalTokens()

	return msg
}

// TotalTokens returns the conversation-wide token count.
func (c *Conversation) TotalTokens() int {
	return c.TotalInputTokens + c.TotalOutputTokens
}

// LastMessage returns the most recent message, or nil for an empty history.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// DeriveTitle builds a conversation title from the first user message:
// the first 40 characters of the trimmed text, plus "..." only when the
// trimmed text exceeds 40 characters. Rune-safe.
func DeriveTitle(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= titleMaxChars {
		return trimmed
	}
	return string(runes[:titleMaxChars]) + "..."
}

// generateConversationID creates a unique, stable conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
