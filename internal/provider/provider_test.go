// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/multichat-tui/internal/model"
)

func history(texts ...string) []model.Message {
	var msgs []model.Message
	for i, text := range texts {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, model.NewMessage(role, text))
	}
	return msgs
}

func testKeys() Keys {
	return Keys{
		Anthropic: "sk-ant-test",
		OpenAI:    "sk-test",
		Gemini:    "gm-test",
		DeepSeek:  "ds-test",
		Grok:      "xai-test",
	}
}

func TestSendAnthropicWireShape(t *testing.T) {
	var gotBody map[string]any
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "hello back"}],
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Endpoints{AnthropicChat: srv.URL})
	res, err := c.Send(context.Background(), Anthropic, "claude-3-5-sonnet-20241022",
		history("hi", "hey", "how are you"), "be brief", testKeys())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotHeaders.Get("x-api-key") != "sk-ant-test" {
		t.Errorf("x-api-key = %q", gotHeaders.Get("x-api-key"))
	}
	if gotHeaders.Get("anthropic-version") != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotHeaders.Get("anthropic-version"))
	}
	if gotBody["model"] != "claude-3-5-sonnet-20241022" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(4096) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
	if gotBody["system"] != "be brief" {
		t.Errorf("system = %v", gotBody["system"])
	}
	msgs := gotBody["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("messages len = %d", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "hi" {
		t.Errorf("first message = %v", first)
	}
	// Only role and content go on the wire.
	if len(first) != 2 {
		t.Errorf("wire message carries extra fields: %v", first)
	}

	if res.Content != "hello back" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Usage == nil || res.Usage.InputTokens != 12 || res.Usage.OutputTokens != 7 {
		t.Errorf("usage = %+v", res.Usage)
	}
}

func TestSendAnthropicOmitsEmptySystem(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Endpoints{AnthropicChat: srv.URL})
	res, err := c.Send(context.Background(), Anthropic, "claude-3-5-haiku-20241022",
		history("hi"), "", testKeys())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, present := raw["system"]; present {
		t.Error("empty system prompt must be omitted from the request body")
	}
	// No usage block at all: Usage must be nil so the caller estimates.
	if res.Usage != nil {
		t.Errorf("usage = %+v, want nil", res.Usage)
	}
}

func TestSendOpenAIWireShape(t *testing.T) {
	var gotBody map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "pong"}}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 4}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Endpoints{OpenAIChat: srv.URL})
	res, err := c.Send(context.Background(), OpenAI, "gpt-4o", history("ping"), "helpful", testKeys())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if gotBody["max_completion_tokens"] != float64(4096) {
		t.Errorf("max_completion_tokens = %v", gotBody["max_completion_tokens"])
	}
	if _, present := gotBody["max_tokens"]; present {
		t.Error("openai request must not carry max_tokens")
	}
	if _, present := gotBody["temperature"]; present {
		t.Error("openai request must not carry temperature")
	}

	// System prompt becomes a synthetic leading system message.
	msgs := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages len = %d", len(msgs))
	}
	sys := msgs[0].(map[string]any)
	if sys["role"] != "system" || sys["content"] != "helpful" {
		t.Errorf("leading system message = %v", sys)
	}

	if res.Content != "pong" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Usage == nil || res.Usage.InputTokens != 9 || res.Usage.OutputTokens != 4 {
		t.Errorf("usage = %+v", res.Usage)
	}
}

func TestSendOpenAICompatWireShape(t *testing.T) {
	tests := []struct {
		name     string
		p        Provider
		wantAuth string
	}{
		{"deepseek", DeepSeek, "Bearer ds-test"},
		{"grok", Grok, "Bearer xai-test"},
		{"ollama no auth", Ollama, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody map[string]any
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				json.NewDecoder(r.Body).Decode(&gotBody)
				w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
			}))
			defer srv.Close()

			eps := Endpoints{DeepSeekChat: srv.URL, GrokChat: srv.URL, OllamaChat: srv.URL}
			c := NewClient(eps)
			if _, err := c.Send(context.Background(), tt.p, "some-model", history("hi"), "", testKeys()); err != nil {
				t.Fatalf("Send failed: %v", err)
			}

			if auth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", auth, tt.wantAuth)
			}
			if gotBody["max_tokens"] != float64(4096) {
				t.Errorf("max_tokens = %v", gotBody["max_tokens"])
			}
			if gotBody["temperature"] != 0.7 {
				t.Errorf("temperature = %v", gotBody["temperature"])
			}
			// No system prompt: no synthetic message.
			msgs := gotBody["messages"].([]any)
			if len(msgs) != 1 {
				t.Errorf("messages len = %d, want 1", len(msgs))
			}
		})
	}
}

func TestSendGeminiWireShape(t *testing.T) {
	var gotBody map[string]any
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "bonjour"}]}}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 3}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Endpoints{GeminiBase: srv.URL})
	res, err := c.Send(context.Background(), Gemini, "gemini-1.5-pro",
		history("hello", "hi there", "translate hello"), "speak french", testKeys())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotURL != "/gemini-1.5-pro:generateContent?key=gm-test" {
		t.Errorf("url = %q", gotURL)
	}

	contents := gotBody["contents"].([]any)
	if len(contents) != 3 {
		t.Fatalf("contents len = %d", len(contents))
	}
	// Assistant turns map to role "model".
	second := contents[1].(map[string]any)
	if second["role"] != "model" {
		t.Errorf("assistant wire role = %v, want model", second["role"])
	}

	genCfg := gotBody["generationConfig"].(map[string]any)
	if genCfg["maxOutputTokens"] != float64(4096) || genCfg["temperature"] != 0.7 {
		t.Errorf("generationConfig = %v", genCfg)
	}

	sysInstr := gotBody["systemInstruction"].(map[string]any)
	parts := sysInstr["parts"].([]any)
	if parts[0].(map[string]any)["text"] != "speak french" {
		t.Errorf("systemInstruction = %v", sysInstr)
	}

	if res.Content != "bonjour" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Usage == nil || res.Usage.InputTokens != 5 || res.Usage.OutputTokens != 3 {
		t.Errorf("usage = %+v", res.Usage)
	}
}

func TestSendErrorMessages(t *testing.T) {
	t.Run("provider error message preferred", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"message": "invalid x-api-key"}}`))
		}))
		defer srv.Close()

		c := NewClient(Endpoints{AnthropicChat: srv.URL})
		_, err := c.Send(context.Background(), Anthropic, "claude-3-5-sonnet-20241022", history("hi"), "", testKeys())
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("error type = %T", err)
		}
		if reqErr.Message != "invalid x-api-key" {
			t.Errorf("message = %q", reqErr.Message)
		}
		if reqErr.Status != http.StatusUnauthorized {
			t.Errorf("status = %d", reqErr.Status)
		}
	})

	t.Run("unparseable body falls back to status line", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("<html>gateway error</html>"))
		}))
		defer srv.Close()

		c := NewClient(Endpoints{OpenAIChat: srv.URL})
		_, err := c.Send(context.Background(), OpenAI, "gpt-4o", history("hi"), "", testKeys())
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("error type = %T", err)
		}
		if reqErr.Message != "HTTP 503: Service Unavailable" {
			t.Errorf("message = %q", reqErr.Message)
		}
	})

	t.Run("connection failure wraps as request error", func(t *testing.T) {
		c := NewClient(Endpoints{OllamaChat: "http://127.0.0.1:1/v1/chat/completions"})
		_, err := c.Send(context.Background(), Ollama, "llama3.2", history("hi"), "", testKeys())
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("error type = %T", err)
		}
		if reqErr.Cause == nil {
			t.Error("transport error should carry a cause")
		}
	})
}

func TestSendMissingKey(t *testing.T) {
	c := NewClient(DefaultEndpoints())

	// Placeholder sentinel counts as unconfigured.
	keys := Keys{OpenAI: "YOUR_OPENAI_API_KEY"}
	_, err := c.Send(context.Background(), OpenAI, "gpt-4o", history("hi"), "", keys)
	if !errors.Is(err, ErrNoKey) {
		t.Errorf("err = %v, want ErrNoKey", err)
	}
}

func TestKeysConfigured(t *testing.T) {
	keys := Keys{
		Anthropic: "sk-ant-real",
		OpenAI:    "YOUR_OPENAI_API_KEY",
		Gemini:    "  ",
	}
	if !keys.Configured(Anthropic) {
		t.Error("real key should be configured")
	}
	if keys.Configured(OpenAI) {
		t.Error("placeholder sentinel is not a configured key")
	}
	if keys.Configured(Gemini) {
		t.Error("blank key is not configured")
	}
	if !keys.Configured(Ollama) {
		t.Error("ollama never requires a key")
	}
}

func TestPlaceholderKey(t *testing.T) {
	if got := DeepSeek.PlaceholderKey(); got != "YOUR_DEEPSEEK_API_KEY" {
		t.Errorf("PlaceholderKey = %q", got)
	}
}
