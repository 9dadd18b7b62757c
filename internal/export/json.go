// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/multichat-tui/internal/model"
)

// =============================================================================
// JSON TABLE OUTPUT
// =============================================================================

// TableToJSON serializes extracted tabular data as an indented JSON
// array of objects, preserving the table's column order.
func TableToJSON(table *Table) ([]byte, error) {
	if table == nil || len(table.Headers) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	// Build the objects by hand so the key order matches the headers;
	// marshaling a map would sort them alphabetically.
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, rec := range table.Rows {
		buf.WriteString("  {")
		for j, h := range table.Headers {
			if j > 0 {
				buf.WriteString(", ")
			}
			key, err := json.Marshal(h)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(rec[h])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("}")
		if i < len(table.Rows)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

// =============================================================================
// JSON CONVERSATION EXPORTER
// =============================================================================

// JSONExporter exports conversations to a machine-readable JSON format.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// jsonConversation is the serialized form of an exported conversation.
type jsonConversation struct {
	Title        string                      `json:"title"`
	Model        string                      `json:"model"`
	CreatedAt    time.Time                   `json:"created_at"`
	ExportedAt   time.Time                   `json:"exported_at"`
	TotalCost    float64                     `json:"total_cost"`
	InputTokens  int                         `json:"input_tokens"`
	OutputTokens int                         `json:"output_tokens"`
	ModelUsage   map[string]model.ModelUsage `json:"model_usage,omitempty"`
	Messages     []jsonMessage               `json:"messages"`
}

type jsonMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Export converts a conversation to JSON.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	out := jsonConversation{
		Title:        conv.Title,
		Model:        conv.Model,
		CreatedAt:    conv.CreatedAt,
		ExportedAt:   time.Now(),
		TotalCost:    conv.TotalCost,
		InputTokens:  conv.TotalInputTokens,
		OutputTokens: conv.TotalOutputTokens,
	}
	if len(conv.ModelUsage) > 0 {
		out.ModelUsage = make(map[string]model.ModelUsage, len(conv.ModelUsage))
		for id, mu := range conv.ModelUsage {
			if mu != nil {
				out.ModelUsage[id] = *mu
			}
		}
	}
	for _, msg := range conv.Messages {
		jm := jsonMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
			Model:   msg.Model,
		}
		if e.options.IncludeTimestamps {
			jm.Timestamp = msg.Timestamp
		}
		out.Messages = append(out.Messages, jm)
	}

	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }
