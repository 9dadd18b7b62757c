// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/pricing"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(conv.Title)))
		sb.WriteString(fmt.Sprintf("model: %s\n", conv.Model))
		sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(conv.Messages)))
		if conv.TotalTokens() > 0 {
			sb.WriteString(fmt.Sprintf("tokens: %d\n", conv.TotalTokens()))
			sb.WriteString(fmt.Sprintf("cost: %s\n", pricing.FormatCost(conv.TotalCost)))
		}
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: multichat-tui\n")
		sb.WriteString("---\n\n")
	}

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(conv.Title)))

	// Metadata section
	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Model**: %s\n", conv.Model))
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(conv.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(conv.Messages)))
		if conv.TotalTokens() > 0 {
			sb.WriteString(fmt.Sprintf("- **Tokens**: %d in / %d out\n",
				conv.TotalInputTokens, conv.TotalOutputTokens))
			sb.WriteString(fmt.Sprintf("- **Cost**: %s\n", pricing.FormatCost(conv.TotalCost)))
		}
		if len(conv.ModelUsage) > 1 {
			sb.WriteString("- **Models Used**:\n")
			for id, mu := range conv.ModelUsage {
				sb.WriteString(fmt.Sprintf("  - %s: %d tokens\n", id, mu.TotalTokens))
			}
		}
		sb.WriteString("\n---\n\n")
	}

	// Conversation messages
	sb.WriteString("## Conversation\n\n")

	for i, msg := range conv.Messages {
		roleLabel := msg.Role.DisplayName()
		if msg.Role == model.RoleAssistant && msg.Model != "" {
			roleLabel = fmt.Sprintf("%s (%s)", roleLabel, msg.Model)
		}
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				roleLabel,
				formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel))
		}

		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the Markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// escapeYAML quotes a YAML scalar when it contains characters that
// would break the frontmatter.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#\"'\n[]{}") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// escapeMarkdown escapes heading-breaking characters in a title.
func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
