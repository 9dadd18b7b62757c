// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the chat adapters for the supported LLM
// backends. Each adapter builds the provider's native request shape,
// parses its native response, and normalizes the result to a common
// content-plus-usage form. Adapters are pure request/response: no
// retries, no streaming, at most one attempt per call.
package provider

import "strings"

// =============================================================================
// PROVIDER ENUM
// =============================================================================

// Provider identifies one of the supported LLM backends.
type Provider string

const (
	Ollama    Provider = "ollama"
	DeepSeek  Provider = "deepseek"
	Grok      Provider = "grok"
	Anthropic Provider = "anthropic"
	OpenAI    Provider = "openai"
	Gemini    Provider = "gemini"
)

// Order lists all providers in canonical display order.
var Order = []Provider{Ollama, DeepSeek, Grok, Anthropic, OpenAI, Gemini}

// DisplayName returns a human-readable provider name.
func (p Provider) DisplayName() string {
	switch p {
	case Ollama:
		return "Ollama"
	case DeepSeek:
		return "DeepSeek"
	case Grok:
		return "Grok (xAI)"
	case Anthropic:
		return "Anthropic"
	case OpenAI:
		return "OpenAI"
	case Gemini:
		return "Google Gemini"
	default:
		return string(p)
	}
}

// RequiresKey returns true for providers that need an API key.
// Ollama is local and unauthenticated.
func (p Provider) RequiresKey() bool {
	return p != Ollama
}

// PlaceholderKey returns the sentinel value that marks an unconfigured
// key for this provider, e.g. "YOUR_OPENAI_API_KEY".
func (p Provider) PlaceholderKey() string {
	return "YOUR_" + strings.ToUpper(string(p)) + "_API_KEY"
}

// =============================================================================
// API KEYS
// =============================================================================

// Keys holds the per-provider API keys.
type Keys map[Provider]string

// Configured reports whether a usable key is present for the provider.
// A key equal to the placeholder sentinel counts as absent. Ollama never
// needs a key and is always considered configured.
func (k Keys) Configured(p Provider) bool {
	if !p.RequiresKey() {
		return true
	}
	key := strings.TrimSpace(k[p])
	return key != "" && key != p.PlaceholderKey()
}

// Get returns the raw key for a provider.
func (k Keys) Get(p Provider) string {
	return k[p]
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Endpoints holds the chat and model-list URLs for every provider.
// Zero-value fields fall back to the defaults at request time.
type Endpoints struct {
	AnthropicChat   string
	AnthropicModels string
	OpenAIChat      string
	OpenAIModels    string
	GeminiBase      string
	DeepSeekChat    string
	DeepSeekModels  string
	GrokChat        string
	GrokModels      string
	OllamaChat      string
	OllamaModels    string
}

// DefaultEndpoints returns the production API endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		AnthropicChat:   "https://api.anthropic.com/v1/messages",
		AnthropicModels: "https://api.anthropic.com/v1/models",
		OpenAIChat:      "https://api.openai.com/v1/chat/completions",
		OpenAIModels:    "https://api.openai.com/v1/models",
		GeminiBase:      "https://generativelanguage.googleapis.com/v1beta/models",
		DeepSeekChat:    "https://api.deepseek.com/v1/chat/completions",
		DeepSeekModels:  "https://api.deepseek.com/v1/models",
		GrokChat:        "https://api.x.ai/v1/chat/completions",
		GrokModels:      "https://api.x.ai/v1/models",
		OllamaChat:      "http://localhost:11434/v1/chat/completions",
		OllamaModels:    "http://localhost:11434/v1/models",
	}
}

// ChatURL returns the chat endpoint for a provider. Gemini composes its
// URL per model, so GeminiBase is returned and the adapter appends the
// model path and key.
func (e Endpoints) ChatURL(p Provider) string {
	defaults := DefaultEndpoints()
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	switch p {
	case Anthropic:
		return pick(e.AnthropicChat, defaults.AnthropicChat)
	case OpenAI:
		return pick(e.OpenAIChat, defaults.OpenAIChat)
	case Gemini:
		return pick(e.GeminiBase, defaults.GeminiBase)
	case DeepSeek:
		return pick(e.DeepSeekChat, defaults.DeepSeekChat)
	case Grok:
		return pick(e.GrokChat, defaults.GrokChat)
	case Ollama:
		return pick(e.OllamaChat, defaults.OllamaChat)
	default:
		return ""
	}
}

// ModelsURL returns the model-list endpoint for a provider.
func (e Endpoints) ModelsURL(p Provider) string {
	defaults := DefaultEndpoints()
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	switch p {
	case Anthropic:
		return pick(e.AnthropicModels, defaults.AnthropicModels)
	case OpenAI:
		return pick(e.OpenAIModels, defaults.OpenAIModels)
	case Gemini:
		return pick(e.GeminiBase, defaults.GeminiBase)
	case DeepSeek:
		return pick(e.DeepSeekModels, defaults.DeepSeekModels)
	case Grok:
		return pick(e.GrokModels, defaults.GrokModels)
	case Ollama:
		return pick(e.OllamaModels, defaults.OllamaModels)
	default:
		return ""
	}
}
