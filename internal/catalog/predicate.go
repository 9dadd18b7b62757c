// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"regexp"
	"strings"

	"github.com/jeranaias/multichat-tui/internal/provider"
)

// textOnlyExclude matches capability markers for models that cannot do
// plain text chat (realtime, audio, vision, embeddings, ...). Any model
// id carrying one of these suffixes is filtered from the catalog.
var textOnlyExclude = regexp.MustCompile(`(?i)-(realtime|audio|vision|image|embedding|transcribe|tts|speech|search|computer|cu)`)

// openAIChatPrefixes is the allow-list of OpenAI model families known to
// speak the chat completions endpoint. OpenAI's /v1/models also lists
// embeddings, TTS, and legacy completion models, so OpenAI is filtered
// by allow-list where other providers are filtered by prefix alone.
var openAIChatPrefixes = []string{
	"gpt-5.2",
	"gpt-5-mini",
	"gpt-5-nano",
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4-turbo",
	"gpt-4",
	"gpt-3.5-turbo",
}

// isOpenAIChatCompletionsModel reports whether an OpenAI model id is a
// chat completions text model.
func isOpenAIChatCompletionsModel(modelID string) bool {
	if !strings.HasPrefix(modelID, "gpt-") {
		return false
	}
	if textOnlyExclude.MatchString(modelID) {
		return false
	}
	for _, p := range openAIChatPrefixes {
		if strings.HasPrefix(modelID, p) {
			return true
		}
	}
	return false
}

// IsChatModel reports whether a model id is a usable text chat model
// for the given provider.
func IsChatModel(p provider.Provider, modelID string) bool {
	if modelID == "" {
		return false
	}
	switch p {
	case provider.Ollama:
		return !textOnlyExclude.MatchString(modelID)
	case provider.DeepSeek:
		return strings.HasPrefix(modelID, "deepseek") && !textOnlyExclude.MatchString(modelID)
	case provider.Grok:
		return strings.HasPrefix(modelID, "grok") && !textOnlyExclude.MatchString(modelID)
	case provider.Anthropic:
		return strings.HasPrefix(modelID, "claude") && !textOnlyExclude.MatchString(modelID)
	case provider.OpenAI:
		return isOpenAIChatCompletionsModel(modelID)
	case provider.Gemini:
		return strings.HasPrefix(modelID, "gemini") && !textOnlyExclude.MatchString(modelID)
	default:
		return false
	}
}
