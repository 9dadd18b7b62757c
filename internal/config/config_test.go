// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/multichat-tui/internal/provider"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Generation.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("temperature = %g", cfg.Generation.Temperature)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if !cfg.UI.ShowOllamaModels {
		t.Error("ollama models shown by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
default_model = "claude-opus-4-5"

[keys]
anthropic = "sk-ant-test"

[endpoints]
ollama = "http://rig:11434/"

[generation]
max_tokens = 2048

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultModel != "claude-opus-4-5" {
		t.Errorf("default_model = %q", cfg.DefaultModel)
	}
	if cfg.Keys.Anthropic != "sk-ant-test" {
		t.Errorf("anthropic key = %q", cfg.Keys.Anthropic)
	}
	if cfg.Generation.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d", cfg.Generation.MaxTokens)
	}
	// Unset fields get defaults.
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("temperature default not filled: %g", cfg.Generation.Temperature)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFixesInsecurePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`default_model = "gpt-4o"`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative max_tokens", func(c *Config) { c.Generation.MaxTokens = -1 }, "generation.max_tokens"},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 3 }, "generation.temperature"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
		{"bad endpoint URL", func(c *Config) { c.Endpoints.Ollama = "not a url" }, "endpoints.ollama"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q does not name field %q", err, tc.field)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MULTICHAT_MODEL", "deepseek-chat")
	t.Setenv("MULTICHAT_DEEPSEEK_KEY", "sk-deep")
	t.Setenv("MULTICHAT_PLAIN", "true")
	t.Setenv("MULTICHAT_MAX_TOKENS", "1234")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.DefaultModel != "deepseek-chat" {
		t.Errorf("default_model = %q", cfg.DefaultModel)
	}
	if cfg.Keys.DeepSeek != "sk-deep" {
		t.Errorf("deepseek key = %q", cfg.Keys.DeepSeek)
	}
	if !cfg.UI.Plain {
		t.Error("plain mode not set")
	}
	if cfg.Generation.MaxTokens != 1234 {
		t.Errorf("max_tokens = %d", cfg.Generation.MaxTokens)
	}
}

func TestProviderKeysSkipsEmpty(t *testing.T) {
	cfg := Default()
	cfg.Keys.OpenAI = "sk-openai"
	cfg.Keys.Grok = "   "

	keys := cfg.ProviderKeys()
	if !keys.Configured(provider.OpenAI) {
		t.Error("openai key must be configured")
	}
	if keys.Configured(provider.Grok) {
		t.Error("whitespace key must not be configured")
	}
	if !keys.Configured(provider.Ollama) {
		t.Error("ollama never needs a key")
	}
}

func TestProviderEndpointsOverrides(t *testing.T) {
	cfg := Default()
	cfg.Endpoints.Ollama = "http://rig:11434/"
	cfg.Endpoints.Anthropic = "https://proxy.example/v1/messages"

	eps := cfg.ProviderEndpoints()
	if got := eps.ChatURL(provider.Ollama); got != "http://rig:11434/v1/chat/completions" {
		t.Errorf("ollama chat = %q", got)
	}
	if got := eps.ModelsURL(provider.Ollama); got != "http://rig:11434/v1/models" {
		t.Errorf("ollama models = %q", got)
	}
	if got := eps.ChatURL(provider.Anthropic); got != "https://proxy.example/v1/messages" {
		t.Errorf("anthropic chat = %q", got)
	}
	// Untouched providers keep the defaults.
	if got := eps.ChatURL(provider.DeepSeek); got != "https://api.deepseek.com/v1/chat/completions" {
		t.Errorf("deepseek chat = %q", got)
	}
}

func TestStringRedactsKeys(t *testing.T) {
	cfg := Default()
	cfg.Keys.Anthropic = "sk-ant-secret"

	out := cfg.String()
	if strings.Contains(out, "sk-ant-secret") {
		t.Error("String must not leak API keys")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("set keys must show as redacted")
	}
}

func TestSaveRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.DefaultModel = "gemini-3-flash"
	cfg.Keys.Gemini = "g-key"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("saved permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DefaultModel != "gemini-3-flash" || loaded.Keys.Gemini != "g-key" {
		t.Errorf("roundtrip lost data: %+v", loaded)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`default_model = "one"`), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(`default_model = "two"`), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.DefaultModel != "two" {
			t.Errorf("reloaded model = %q", cfg.DefaultModel)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}
}
