// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant message text into terminal output.
// Content is rendered, never executed; the raw text is always kept
// alongside for copying and export.
package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer converts message text to terminal markup.
type Renderer interface {
	// Render returns the terminal form of text at the given width.
	Render(text string, width int) string
}

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders assistant responses as styled markdown via glamour,
// with chroma-highlighted fenced code blocks.
type Markdown struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	style    string
}

// NewMarkdown creates a markdown renderer. style is a glamour style
// name ("dark", "light") or empty for auto-detection.
func NewMarkdown(style string) *Markdown {
	return &Markdown{style: style}
}

// rendererFor returns a term renderer for the width, rebuilding only on
// width changes (glamour renderers are expensive to construct).
func (m *Markdown) rendererFor(width int) *glamour.TermRenderer {
	if width <= 0 {
		width = 80
	}
	if m.renderer != nil && m.width == width {
		return m.renderer
	}

	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	}
	if m.style != "" {
		opts = append(opts, glamour.WithStandardStyle(m.style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	m.renderer = r
	m.width = width
	return r
}

// Render implements Renderer. On any rendering failure the raw text is
// returned unchanged; a send must never be lost to a styling bug.
func (m *Markdown) Render(text string, width int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.rendererFor(width)
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

// =============================================================================
// PLAIN RENDERER
// =============================================================================

// Plain passes text through unchanged, for dumb terminals and piped
// output.
type Plain struct{}

// Render implements Renderer.
func (Plain) Render(text string, _ int) string {
	return text
}
