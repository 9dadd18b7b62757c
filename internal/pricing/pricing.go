// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pricing holds the per-model price table and cost accounting
// helpers used for conversation cost tracking.
package pricing

import "fmt"

// =============================================================================
// PRICE TABLE
// =============================================================================

// ModelPricing holds a model's rates in dollars per one million tokens.
type ModelPricing struct {
	Input  float64 // $ per 1M input tokens
	Output float64 // $ per 1M output tokens
}

// table maps model ids to their published rates (2025/2026, per 1M tokens).
// Models absent from the table (every Ollama, DeepSeek, and Grok model)
// are costed at zero.
var table = map[string]ModelPricing{
	// Anthropic
	"claude-3-5-sonnet-20241022": {Input: 3.00, Output: 15.00},
	"claude-3-5-haiku-20241022":  {Input: 0.80, Output: 4.00},
	"claude-sonnet-4-20250514":   {Input: 3.00, Output: 15.00},
	"claude-opus-4-20250514":     {Input: 15.00, Output: 75.00},

	// OpenAI
	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4o-mini": {Input: 0.15, Output: 0.60},
	"o1":          {Input: 15.00, Output: 60.00},
	"gpt-5.2":     {Input: 5.00, Output: 20.00},
	"gpt-5-mini":  {Input: 0.10, Output: 0.40},
	"gpt-5-nano":  {Input: 0.05, Output: 0.20},

	// Google Gemini
	"gemini-1.5-pro":         {Input: 1.25, Output: 5.00},
	"gemini-1.5-flash":       {Input: 0.075, Output: 0.30},
	"gemini-2.0-flash":       {Input: 0.10, Output: 0.40},
	"gemini-3-flash-preview": {Input: 0.075, Output: 0.30},
	"gemini-3-pro-preview":   {Input: 1.25, Output: 5.00},
}

// Lookup returns the pricing entry for a model and whether one exists.
func Lookup(modelID string) (ModelPricing, bool) {
	p, ok := table[modelID]
	return p, ok
}

// Cost computes the dollar cost of an exchange:
//
//	(inputTokens/1e6)*Input + (outputTokens/1e6)*Output
//
// An unknown model costs exactly 0. This is deliberate: local and
// flat-free models carry no per-token price, and a silently-wrong
// estimate would be worse than an honest zero. Displays still show the
// token counts for unpriced models.
func Cost(inputTokens, outputTokens int, modelID string) float64 {
	p, ok := table[modelID]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1e6)*p.Input + (float64(outputTokens)/1e6)*p.Output
}

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// EstimateTokens approximates a token count as ceil(len(text)/4).
// Used only when a provider response carries no usage block.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// =============================================================================
// DISPLAY FORMATTING
// =============================================================================

// FormatCost renders a dollar amount with four decimal places, e.g. "$0.0123".
func FormatCost(cost float64) string {
	return fmt.Sprintf("$%.4f", cost)
}

// FormatTokenCount renders a token count compactly: 1234 -> "1.2K",
// 2500000 -> "2.50M", values below 1000 unchanged.
func FormatTokenCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
