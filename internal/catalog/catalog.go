// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog resolves the set of selectable models per provider.
// Resolution is three-tier: live API fetches where keys allow, a cached
// catalog with a TTL, and built-in defaults as the floor.
package catalog

import (
	"strings"

	"github.com/jeranaias/multichat-tui/internal/provider"
)

// =============================================================================
// CATALOG TYPES
// =============================================================================

// ModelEntry is one selectable model.
type ModelEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Catalog maps each provider to its selectable models. A nil Catalog
// means resolution produced nothing and callers should fall back.
type Catalog map[provider.Provider][]ModelEntry

// Normalize filters every provider's list through the chat-model
// predicate and fills in missing labels. Unknown providers are dropped.
func (c Catalog) Normalize() Catalog {
	out := Catalog{}
	for _, p := range provider.Order {
		var kept []ModelEntry
		for _, m := range c[p] {
			if !IsChatModel(p, m.ID) {
				continue
			}
			if m.Label == "" {
				m.Label = DisplayName(m.ID, c)
			}
			kept = append(kept, m)
		}
		out[p] = kept
	}
	return out
}

// IsEmpty reports whether no provider has any models.
func (c Catalog) IsEmpty() bool {
	for _, models := range c {
		if len(models) > 0 {
			return false
		}
	}
	return true
}

// Contains reports whether any provider lists the model id.
func (c Catalog) Contains(modelID string) bool {
	for _, models := range c {
		for _, m := range models {
			if m.ID == modelID {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// PROVIDER INFERENCE
// =============================================================================

// OwningProvider returns the provider that serves modelID: a catalog
// scan first, then a prefix heuristic, defaulting to Ollama (local
// models have arbitrary names).
func OwningProvider(c Catalog, modelID string) provider.Provider {
	if c != nil {
		for _, p := range provider.Order {
			for _, m := range c[p] {
				if m.ID == modelID {
					return p
				}
			}
		}
	}
	switch {
	case strings.HasPrefix(modelID, "deepseek"):
		return provider.DeepSeek
	case strings.HasPrefix(modelID, "grok"):
		return provider.Grok
	case strings.HasPrefix(modelID, "claude"):
		return provider.Anthropic
	case strings.HasPrefix(modelID, "gpt"), isOSeriesModel(modelID):
		return provider.OpenAI
	case strings.HasPrefix(modelID, "gemini"):
		return provider.Gemini
	default:
		return provider.Ollama
	}
}

// isOSeriesModel matches OpenAI reasoning model names: "o" followed by
// a digit (o1, o3-mini, ...).
func isOSeriesModel(modelID string) bool {
	return len(modelID) >= 2 && modelID[0] == 'o' && modelID[1] >= '0' && modelID[1] <= '9'
}

// =============================================================================
// DISPLAY NAMES
// =============================================================================

// DisplayName returns a human-readable label for a model id: the
// catalog's label if one exists, then the built-in label table, then a
// prettified form of the id itself.
func DisplayName(modelID string, c Catalog) string {
	if modelID == "" {
		return "None"
	}
	if c != nil {
		for _, models := range c {
			for _, m := range models {
				if m.ID == modelID && m.Label != "" {
					return m.Label
				}
			}
		}
	}
	for _, models := range DefaultCatalog() {
		for _, m := range models {
			if m.ID == modelID {
				return m.Label
			}
		}
	}
	return prettifyModelID(modelID)
}

// prettifyModelID turns "models/gemini-exp_1206" into "Gemini Exp 1206".
func prettifyModelID(modelID string) string {
	s := strings.ReplaceAll(modelID, "models/", "")
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// =============================================================================
// SELECTABLE MODELS
// =============================================================================

// Selectable flattens the catalog into one list in canonical provider
// order, honoring the Ollama visibility toggle and skipping providers
// without a configured key.
func Selectable(c Catalog, keys provider.Keys, showOllama bool) []ModelEntry {
	var out []ModelEntry
	for _, p := range provider.Order {
		if p == provider.Ollama && !showOllama {
			continue
		}
		if !keys.Configured(p) {
			continue
		}
		out = append(out, c[p]...)
	}
	return out
}
