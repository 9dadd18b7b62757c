// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import "github.com/jeranaias/multichat-tui/internal/provider"

// DefaultCatalog returns the built-in model lists used when neither a
// live fetch nor the cache produced anything for a provider. The result
// is a fresh copy on every call.
func DefaultCatalog() Catalog {
	return Catalog{
		provider.Ollama: {
			{ID: "nemotron-3-nano:30b", Label: "Nemotron 3 Nano 30B"},
			{ID: "qwen3-coder:30b", Label: "Qwen 3 Coder 30B"},
			{ID: "ministral-3:8b", Label: "Ministral 3 8B"},
			{ID: "volvi/TARS3.3-3B:latest", Label: "TARS 3.3 3B"},
			{ID: "deepseek-r1:1.5b", Label: "DeepSeek R1 1.5B"},
			{ID: "gpt-oss:latest", Label: "GPT OSS"},
			{ID: "qwen2.5-coder:1.5b", Label: "Qwen 2.5 Coder 1.5B"},
			{ID: "codellama:latest", Label: "CodeLlama"},
			{ID: "qwen3:8b", Label: "Qwen 3 8B"},
		},
		provider.DeepSeek: {
			{ID: "deepseek-chat", Label: "DeepSeek Chat"},
			{ID: "deepseek-reasoner", Label: "DeepSeek Reasoner"},
		},
		provider.Grok: {
			{ID: "grok-2-latest", Label: "Grok 2 (Latest)"},
			{ID: "grok-2", Label: "Grok 2"},
		},
		provider.Anthropic: {
			{ID: "claude-3-5-sonnet-20241022", Label: "Claude 3.5 Sonnet"},
			{ID: "claude-3-5-haiku-20241022", Label: "Claude 3.5 Haiku"},
			{ID: "claude-sonnet-4-20250514", Label: "Claude 4 Sonnet"},
			{ID: "claude-opus-4-20250514", Label: "Claude 4 Opus"},
		},
		provider.OpenAI: {
			{ID: "gpt-5.2", Label: "GPT-5.2"},
			{ID: "gpt-5-mini", Label: "GPT-5 Mini"},
			{ID: "gpt-5-nano", Label: "GPT-5 Nano"},
			{ID: "gpt-4o", Label: "GPT-4o"},
			{ID: "gpt-4o-mini", Label: "GPT-4o Mini"},
		},
		provider.Gemini: {
			{ID: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"},
			{ID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
			{ID: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"},
			{ID: "gemini-3-flash-preview", Label: "Gemini 3.5 Flash Preview"},
			{ID: "gemini-3-pro-preview", Label: "Gemini 3.5 Pro Preview"},
		},
	}
}
