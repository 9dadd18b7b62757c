// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/multichat-tui/internal/provider"
	"github.com/jeranaias/multichat-tui/internal/store"
)

func newFileKV(t *testing.T) store.KV {
	t.Helper()
	kv, err := store.NewFileKV(t.TempDir())
	require.NoError(t, err)
	return kv
}

func TestFetchOllamaBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			"openai compatible shape",
			`{"data": [{"id": "llama3.2:latest"}, {"id": "qwen3:8b"}]}`,
			[]string{"llama3.2:latest", "qwen3:8b"},
		},
		{
			"native shape",
			`{"models": [{"name": "codellama:latest"}]}`,
			[]string{"codellama:latest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewFetcher(provider.Endpoints{OllamaModels: srv.URL})
			got := f.fetchOllama(context.Background())
			require.Len(t, got, len(tt.want))
			for i, id := range tt.want {
				assert.Equal(t, id, got[i].ID)
				assert.Equal(t, id, got[i].Label, "ollama labels are the raw id")
			}
		})
	}
}

func TestFetchOllamaFailureFallsBackToDefaults(t *testing.T) {
	// Unreachable daemon: defaults stand in.
	f := NewFetcher(provider.Endpoints{OllamaModels: "http://127.0.0.1:1/v1/models"})
	got := f.fetchOllama(context.Background())
	assert.Equal(t, DefaultCatalog()[provider.Ollama], got)
}

func TestFetchOllamaSlowDaemonTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(OllamaTimeout + 500*time.Millisecond)
		w.Write([]byte(`{"data": [{"id": "never-seen"}]}`))
	}))
	defer srv.Close()

	f := NewFetcher(provider.Endpoints{OllamaModels: srv.URL})
	start := time.Now()
	got := f.fetchOllama(context.Background())
	assert.Less(t, time.Since(start), OllamaTimeout+time.Second, "probe must abort at the timeout")
	assert.Equal(t, DefaultCatalog()[provider.Ollama], got)
}

func TestFetchAnthropicFiltersAndLabels(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Write([]byte(`{"data": [
			{"id": "claude-3-5-sonnet-20241022", "display_name": "Claude 3.5 Sonnet"},
			{"id": "claude-3-5-haiku-20241022"},
			{"id": "other-model", "display_name": "Not Claude"}
		]}`))
	}))
	defer srv.Close()

	f := NewFetcher(provider.Endpoints{AnthropicModels: srv.URL})
	got := f.fetchAnthropic(context.Background(), "sk-ant-x")

	assert.Equal(t, "sk-ant-x", gotHeaders.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", gotHeaders.Get("anthropic-version"))
	require.Len(t, got, 2, "non-claude ids are dropped")
	assert.Equal(t, "Claude 3.5 Sonnet", got[0].Label)
	assert.Equal(t, "claude-3-5-haiku-20241022", got[1].Label, "missing display_name falls back to id")
}

func TestFetchOpenAIAppliesAllowList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
			{"id": "gpt-4o"},
			{"id": "gpt-4o-audio-preview"},
			{"id": "text-embedding-3-small"},
			{"id": "whisper-1"},
			{"id": "gpt-5-mini"}
		]}`))
	}))
	defer srv.Close()

	f := NewFetcher(provider.Endpoints{OpenAIModels: srv.URL})
	got := f.fetchOpenAIStyle(context.Background(), provider.OpenAI, "sk-x", isOpenAIChatCompletionsModel)
	require.Len(t, got, 2)
	assert.Equal(t, "gpt-4o", got[0].ID)
	assert.Equal(t, "GPT-4o", got[0].Label)
	assert.Equal(t, "gpt-5-mini", got[1].ID)
}

func TestFetchGeminiFiltersByCapability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gm-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"models": [
			{"name": "models/gemini-1.5-pro", "displayName": "Gemini 1.5 Pro",
			 "supportedGenerationMethods": ["generateContent", "countTokens"]},
			{"name": "models/gemini-embedding-001",
			 "supportedGenerationMethods": ["embedContent"]},
			{"name": "models/imagen-3.0",
			 "supportedGenerationMethods": ["generateContent"]}
		]}`))
	}))
	defer srv.Close()

	f := NewFetcher(provider.Endpoints{GeminiBase: srv.URL})
	got := f.fetchGemini(context.Background(), "gm-key")
	require.Len(t, got, 1)
	assert.Equal(t, "gemini-1.5-pro", got[0].ID, "models/ prefix stripped, non-gemini and non-chat dropped")
	assert.Equal(t, "Gemini 1.5 Pro", got[0].Label)
}

func TestFetchMergesDefaultsForKeyedEmptyProviders(t *testing.T) {
	// DeepSeek answers with an empty list; Ollama answers with one model.
	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer deepseek.Close()
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "qwen3:8b"}]}`))
	}))
	defer ollama.Close()

	f := NewFetcher(provider.Endpoints{
		DeepSeekModels: deepseek.URL,
		OllamaModels:   ollama.URL,
	})
	keys := provider.Keys{provider.DeepSeek: "ds-x"}
	got := f.Fetch(context.Background(), keys)

	require.NotNil(t, got)
	assert.Equal(t, DefaultCatalog()[provider.DeepSeek], got[provider.DeepSeek],
		"keyed provider with no live models gets its defaults")
	require.Len(t, got[provider.Ollama], 1)
	assert.Empty(t, got[provider.OpenAI], "unkeyed providers stay empty")
}

func TestFetchAllEmptyReturnsNil(t *testing.T) {
	// No keys and no local daemon... but Ollama failure falls back to
	// defaults, so force the empty case through an Ollama server that
	// answers with an empty list.
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer ollama.Close()

	f := NewFetcher(provider.Endpoints{OllamaModels: ollama.URL})
	got := f.Fetch(context.Background(), provider.Keys{})
	// Empty list still falls back to ollama defaults: catalog is not nil.
	require.NotNil(t, got)
	assert.Equal(t, DefaultCatalog()[provider.Ollama], got[provider.Ollama])
}

func TestCacheTTL(t *testing.T) {
	kv := newFileKV(t)
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewCache(kv).WithClock(clock)

	cat := Catalog{provider.OpenAI: {{ID: "gpt-4o", Label: "GPT-4o"}}}
	require.NoError(t, c.Store(cat))

	// Fresh within the TTL.
	now = now.Add(CacheTTL - time.Minute)
	got := c.Load()
	require.NotNil(t, got)
	assert.Equal(t, "gpt-4o", got[provider.OpenAI][0].ID)

	// A moment past the TTL is a miss.
	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.Load())
}

func TestCacheCorruptIsMiss(t *testing.T) {
	kv := newFileKV(t)
	c := NewCache(kv)

	require.NoError(t, kv.Set(store.KeyModelCatalog, []byte("{broken")))
	assert.Nil(t, c.Load())

	require.NoError(t, kv.Set(store.KeyModelCatalog, []byte(`{"timestamp": 0, "catalog": null}`)))
	assert.Nil(t, c.Load())
}

func TestResolveTiers(t *testing.T) {
	t.Run("live wins and refreshes cache", func(t *testing.T) {
		kv := newFileKV(t)
		cache := NewCache(kv)
		live := Catalog{provider.Anthropic: {{ID: "claude-3-5-sonnet-20241022"}}}

		got := Resolve(func() Catalog { return live }, cache)
		require.Len(t, got[provider.Anthropic], 1)

		cached := cache.Load()
		require.NotNil(t, cached, "live result must be written back to cache")
	})

	t.Run("cache serves when live fails", func(t *testing.T) {
		kv := newFileKV(t)
		cache := NewCache(kv)
		require.NoError(t, cache.Store(Catalog{provider.Grok: {{ID: "grok-2"}}}))

		got := Resolve(func() Catalog { return nil }, cache)
		require.Len(t, got[provider.Grok], 1)
	})

	t.Run("defaults are the floor", func(t *testing.T) {
		kv := newFileKV(t)
		cache := NewCache(kv)

		got := Resolve(func() Catalog { return nil }, cache)
		assert.Len(t, got[provider.Ollama], 9)
		assert.Len(t, got[provider.OpenAI], 5)
	})
}
