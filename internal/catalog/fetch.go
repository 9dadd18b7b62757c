// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/multichat-tui/internal/provider"
)

// OllamaTimeout bounds the local Ollama probe so a stopped daemon never
// stalls catalog resolution.
const OllamaTimeout = 2 * time.Second

// =============================================================================
// FETCHER
// =============================================================================

// Fetcher performs the live model-list fetches.
type Fetcher struct {
	endpoints  provider.Endpoints
	httpClient *http.Client
}

// NewFetcher creates a fetcher against the given endpoints.
func NewFetcher(endpoints provider.Endpoints) *Fetcher {
	return &Fetcher{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient substitutes the HTTP client, used by tests.
func (f *Fetcher) WithHTTPClient(hc *http.Client) *Fetcher {
	f.httpClient = hc
	return f
}

// Fetch queries every eligible provider's model-list endpoint and
// returns the merged catalog, or nil when nothing was reachable.
//
// Failure isolation: each provider is fetched in its own goroutine with
// its own error handling, so one dead endpoint costs only its own slot.
// Ollama is always attempted (short timeout, built-in defaults on
// failure); the keyed providers are skipped without a configured key. A
// keyed provider that answers with an empty list still gets its built-in
// defaults in the merge step.
func (f *Fetcher) Fetch(ctx context.Context, keys provider.Keys) Catalog {
	catalog := Catalog{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	fetch := func(p provider.Provider, fn func(context.Context) []ModelEntry) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			models := fn(ctx)
			mu.Lock()
			catalog[p] = models
			mu.Unlock()
		}()
	}

	fetch(provider.Ollama, f.fetchOllama)
	if keys.Configured(provider.DeepSeek) {
		fetch(provider.DeepSeek, func(ctx context.Context) []ModelEntry {
			return f.fetchOpenAIStyle(ctx, provider.DeepSeek, keys.Get(provider.DeepSeek), nil)
		})
	}
	if keys.Configured(provider.Grok) {
		fetch(provider.Grok, func(ctx context.Context) []ModelEntry {
			return f.fetchOpenAIStyle(ctx, provider.Grok, keys.Get(provider.Grok), nil)
		})
	}
	if keys.Configured(provider.Anthropic) {
		fetch(provider.Anthropic, func(ctx context.Context) []ModelEntry {
			return f.fetchAnthropic(ctx, keys.Get(provider.Anthropic))
		})
	}
	if keys.Configured(provider.OpenAI) {
		fetch(provider.OpenAI, func(ctx context.Context) []ModelEntry {
			return f.fetchOpenAIStyle(ctx, provider.OpenAI, keys.Get(provider.OpenAI), isOpenAIChatCompletionsModel)
		})
	}
	if keys.Configured(provider.Gemini) {
		fetch(provider.Gemini, func(ctx context.Context) []ModelEntry {
			return f.fetchGemini(ctx, keys.Get(provider.Gemini))
		})
	}

	wg.Wait()

	if catalog.IsEmpty() {
		return nil
	}

	// Keyed providers that produced nothing live still get defaults.
	defaults := DefaultCatalog()
	for _, p := range provider.Order {
		if keys.Configured(p) && len(catalog[p]) == 0 {
			catalog[p] = defaults[p]
		}
	}
	return catalog
}

// =============================================================================
// PER-PROVIDER FETCHES
// =============================================================================

// getJSON fetches url and decodes the body into dst. Any failure
// (transport, status, decode) returns an error; callers treat all
// failures alike.
func (f *Fetcher) getJSON(ctx context.Context, rawURL string, headers map[string]string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// ollamaListResponse accepts both response shapes Ollama serves: the
// OpenAI-compatible {"data":[{"id":...}]} and the native
// {"models":[{"name":...}]}.
type ollamaListResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
	Models []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"models"`
}

// fetchOllama lists local models. Always attempted; on any failure the
// built-in Ollama defaults stand in, since a local daemon being down is
// routine rather than exceptional.
func (f *Fetcher) fetchOllama(ctx context.Context) []ModelEntry {
	ctx, cancel := context.WithTimeout(ctx, OllamaTimeout)
	defer cancel()

	var resp ollamaListResponse
	if err := f.getJSON(ctx, f.endpoints.ModelsURL(provider.Ollama), nil, &resp); err != nil {
		return DefaultCatalog()[provider.Ollama]
	}

	list := resp.Data
	if len(list) == 0 {
		list = resp.Models
	}
	var models []ModelEntry
	for _, m := range list {
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id != "" {
			models = append(models, ModelEntry{ID: id, Label: id})
		}
	}
	if len(models) == 0 {
		return DefaultCatalog()[provider.Ollama]
	}
	return models
}

// openAIListResponse is the {"data":[{"id":...}]} list shape served by
// OpenAI, DeepSeek, and Grok.
type openAIListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// fetchOpenAIStyle lists models from an OpenAI-style /v1/models
// endpoint. filter, when non-nil, drops ids it rejects.
func (f *Fetcher) fetchOpenAIStyle(ctx context.Context, p provider.Provider, key string, filter func(string) bool) []ModelEntry {
	var resp openAIListResponse
	headers := map[string]string{"Authorization": "Bearer " + key}
	if err := f.getJSON(ctx, f.endpoints.ModelsURL(p), headers, &resp); err != nil {
		return nil
	}

	var models []ModelEntry
	for _, m := range resp.Data {
		if m.ID == "" {
			continue
		}
		if filter != nil && !filter(m.ID) {
			continue
		}
		label := m.ID
		if p == provider.OpenAI {
			label = DisplayName(m.ID, nil)
		}
		models = append(models, ModelEntry{ID: m.ID, Label: label})
	}
	return models
}

// anthropicListResponse is the Anthropic /v1/models list shape.
type anthropicListResponse struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

// fetchAnthropic lists Claude models, keeping only claude-prefixed ids
// and preferring the API's display names as labels.
func (f *Fetcher) fetchAnthropic(ctx context.Context, key string) []ModelEntry {
	var resp anthropicListResponse
	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": "2023-06-01",
	}
	if err := f.getJSON(ctx, f.endpoints.ModelsURL(provider.Anthropic), headers, &resp); err != nil {
		return nil
	}

	var models []ModelEntry
	for _, m := range resp.Data {
		if !strings.HasPrefix(m.ID, "claude") {
			continue
		}
		label := m.DisplayName
		if label == "" {
			label = m.ID
		}
		models = append(models, ModelEntry{ID: m.ID, Label: label})
	}
	return models
}

// geminiListResponse is the Gemini ListModels shape. Model names arrive
// as "models/<id>" with a capability list.
type geminiListResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		DisplayName                string   `json:"displayName"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// fetchGemini lists Gemini models that support generateContent,
// stripping the "models/" prefix and keeping only gemini-prefixed ids.
func (f *Fetcher) fetchGemini(ctx context.Context, key string) []ModelEntry {
	listURL := fmt.Sprintf("%s?key=%s", f.endpoints.ModelsURL(provider.Gemini), url.QueryEscape(key))

	var resp geminiListResponse
	if err := f.getJSON(ctx, listURL, nil, &resp); err != nil {
		return nil
	}

	var models []ModelEntry
	for _, m := range resp.Models {
		supported := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				supported = true
				break
			}
		}
		if !supported {
			continue
		}
		id := strings.TrimPrefix(m.Name, "models/")
		if id == "" || !strings.HasPrefix(id, "gemini") {
			continue
		}
		label := m.DisplayName
		if label == "" {
			label = id
		}
		models = append(models, ModelEntry{ID: id, Label: label})
	}
	return models
}
