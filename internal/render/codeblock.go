// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// CODE HIGHLIGHTING
// =============================================================================

// HighlightCode applies chroma syntax highlighting for standalone code
// display (the copy-block view and CLI code output). language may be
// empty, in which case it is detected from the content.
// USABILITY: Syntax highlighting for better code readability
func HighlightCode(code, language string) string {
	code = strings.TrimSpace(code)

	var lexer = lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return code
	}
	return sb.String()
}

// ExtractCodeBlocks returns the fenced code blocks in a markdown
// message, in order, as (language, code) pairs. Used by the copy-code
// command.
func ExtractCodeBlocks(text string) []CodeBlock {
	var blocks []CodeBlock
	lines := strings.Split(text, "\n")

	inBlock := false
	var language string
	var body []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, CodeBlock{
					Language: language,
					Code:     strings.Join(body, "\n"),
				})
				inBlock = false
				body = nil
				continue
			}
			inBlock = true
			language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	return blocks
}

// CodeBlock is one fenced code block from a message.
type CodeBlock struct {
	Language string
	Code     string
}
