// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for multichat.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location:
//   - ~/.multichat/config.toml
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/multichat-tui/internal/provider"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete multichat configuration.
type Config struct {
	// General settings
	Version      string `toml:"version" json:"version"`
	DefaultModel string `toml:"default_model" json:"default_model"`

	// Provider API keys
	Keys KeysConfig `toml:"keys" json:"keys"`

	// Endpoint overrides (empty = built-in provider URLs)
	Endpoints EndpointsConfig `toml:"endpoints" json:"endpoints"`

	// Generation parameters
	Generation GenerationConfig `toml:"generation" json:"generation"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// KeysConfig contains per-provider API keys.
// SECURITY: These are secrets; the config file must stay 0600.
type KeysConfig struct {
	Anthropic string `toml:"anthropic" json:"anthropic"`
	OpenAI    string `toml:"openai" json:"openai"`
	Gemini    string `toml:"gemini" json:"gemini"`
	DeepSeek  string `toml:"deepseek" json:"deepseek"`
	Grok      string `toml:"grok" json:"grok"`
}

// EndpointsConfig contains chat endpoint overrides per provider.
// Mostly useful for pointing Ollama at a remote daemon or routing a
// provider through a proxy.
type EndpointsConfig struct {
	Anthropic string `toml:"anthropic" json:"anthropic"`
	OpenAI    string `toml:"openai" json:"openai"`
	Gemini    string `toml:"gemini" json:"gemini"`
	DeepSeek  string `toml:"deepseek" json:"deepseek"`
	Grok      string `toml:"grok" json:"grok"`
	Ollama    string `toml:"ollama" json:"ollama"`
}

// GenerationConfig contains request parameters sent to providers.
type GenerationConfig struct {
	// MaxTokens is the per-response token cap
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// Temperature is the sampling temperature (ignored by providers
	// that do not accept it)
	Temperature float64 `toml:"temperature" json:"temperature"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// StorageConfig contains conversation storage configuration.
type StorageConfig struct {
	// Backend is the storage backend: "file" or "sqlite"
	Backend string `toml:"backend" json:"backend"`
	// Dir is the data directory (empty = ~/.multichat)
	Dir string `toml:"dir" json:"dir"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// ShowCost displays cost information in the status bar
	ShowCost bool `toml:"show_cost" json:"show_cost"`
	// ShowTokens displays token counts in the status bar
	ShowTokens bool `toml:"show_tokens" json:"show_tokens"`
	// ShowOllamaModels lists local Ollama models in the model picker
	ShowOllamaModels bool `toml:"show_ollama_models" json:"show_ollama_models"`
	// Plain forces the line-mode REPL instead of the full-screen TUI
	Plain bool `toml:"plain" json:"plain"`
	// ExportDir is where exported conversations and data files land
	// (empty = current working directory)
	ExportDir string `toml:"export_dir" json:"export_dir"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Generation: GenerationConfig{
			MaxTokens:   provider.DefaultMaxTokens,
			Temperature: provider.DefaultTemperature,
			TimeoutSecs: 120,
		},

		Storage: StorageConfig{
			Backend: "file",
		},

		UI: UIConfig{
			Theme:            "dark",
			ShowCost:         true,
			ShowTokens:       true,
			ShowOllamaModels: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the multichat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".multichat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# multichat configuration file")
	fmt.Fprintln(file, "# Generated by multichat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Generation.MaxTokens < 1 {
		errs = append(errs, ValidationError{
			Field:   "generation.max_tokens",
			Message: fmt.Sprintf("must be positive, got %d", c.Generation.MaxTokens),
		})
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "generation.temperature",
			Message: fmt.Sprintf("must be between 0.0 and 2.0, got %g", c.Generation.Temperature),
		})
	}
	if c.Generation.TimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "generation.timeout_secs",
			Message: fmt.Sprintf("must be positive, got %d", c.Generation.TimeoutSecs),
		})
	}

	validBackends := map[string]bool{"file": true, "sqlite": true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.Storage.Backend),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	for field, raw := range map[string]string{
		"endpoints.anthropic": c.Endpoints.Anthropic,
		"endpoints.openai":    c.Endpoints.OpenAI,
		"endpoints.gemini":    c.Endpoints.Gemini,
		"endpoints.deepseek":  c.Endpoints.DeepSeek,
		"endpoints.grok":      c.Endpoints.Grok,
		"endpoints.ollama":    c.Endpoints.Ollama,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid URL '%s'", raw),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = defaults.Generation.Temperature
	}
	if c.Generation.TimeoutSecs == 0 {
		c.Generation.TimeoutSecs = defaults.Generation.TimeoutSecs
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MULTICHAT_MODEL: overrides default_model
//   - MULTICHAT_ANTHROPIC_KEY, MULTICHAT_OPENAI_KEY, MULTICHAT_GEMINI_KEY,
//     MULTICHAT_DEEPSEEK_KEY, MULTICHAT_GROK_KEY: override provider keys
//   - MULTICHAT_OLLAMA_URL: overrides endpoints.ollama
//   - MULTICHAT_THEME: overrides ui.theme
//   - MULTICHAT_PLAIN: set to "1" or "true" to force the line-mode REPL
//   - MULTICHAT_MAX_TOKENS: overrides generation.max_tokens
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("MULTICHAT_MODEL"); model != "" {
		c.DefaultModel = model
	}

	if key := os.Getenv("MULTICHAT_ANTHROPIC_KEY"); key != "" {
		c.Keys.Anthropic = key
	}
	if key := os.Getenv("MULTICHAT_OPENAI_KEY"); key != "" {
		c.Keys.OpenAI = key
	}
	if key := os.Getenv("MULTICHAT_GEMINI_KEY"); key != "" {
		c.Keys.Gemini = key
	}
	if key := os.Getenv("MULTICHAT_DEEPSEEK_KEY"); key != "" {
		c.Keys.DeepSeek = key
	}
	if key := os.Getenv("MULTICHAT_GROK_KEY"); key != "" {
		c.Keys.Grok = key
	}

	if u := os.Getenv("MULTICHAT_OLLAMA_URL"); u != "" {
		c.Endpoints.Ollama = u
	}

	if theme := os.Getenv("MULTICHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if plain := os.Getenv("MULTICHAT_PLAIN"); plain != "" {
		c.UI.Plain = plain == "1" || strings.ToLower(plain) == "true"
	}

	if raw := os.Getenv("MULTICHAT_MAX_TOKENS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			c.Generation.MaxTokens = n
		}
	}
}

// =============================================================================
// WIRING HELPERS
// =============================================================================

// ProviderKeys converts the configured keys into the provider key map.
// Empty config values stay unconfigured.
func (c *Config) ProviderKeys() provider.Keys {
	keys := provider.Keys{}
	set := func(p provider.Provider, v string) {
		if strings.TrimSpace(v) != "" {
			keys[p] = v
		}
	}
	set(provider.Anthropic, c.Keys.Anthropic)
	set(provider.OpenAI, c.Keys.OpenAI)
	set(provider.Gemini, c.Keys.Gemini)
	set(provider.DeepSeek, c.Keys.DeepSeek)
	set(provider.Grok, c.Keys.Grok)
	return keys
}

// ProviderEndpoints builds the endpoint set with any configured
// overrides applied on top of the built-in provider URLs.
func (c *Config) ProviderEndpoints() provider.Endpoints {
	eps := provider.DefaultEndpoints()
	if c.Endpoints.Anthropic != "" {
		eps.AnthropicChat = c.Endpoints.Anthropic
	}
	if c.Endpoints.OpenAI != "" {
		eps.OpenAIChat = c.Endpoints.OpenAI
	}
	if c.Endpoints.Gemini != "" {
		eps.GeminiBase = c.Endpoints.Gemini
	}
	if c.Endpoints.DeepSeek != "" {
		eps.DeepSeekChat = c.Endpoints.DeepSeek
	}
	if c.Endpoints.Grok != "" {
		eps.GrokChat = c.Endpoints.Grok
	}
	if c.Endpoints.Ollama != "" {
		base := strings.TrimRight(c.Endpoints.Ollama, "/")
		eps.OllamaChat = base + "/v1/chat/completions"
		eps.OllamaModels = base + "/v1/models"
	}
	return eps
}

// DataDir returns the resolved data directory for conversation storage.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return ConfigDir()
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts API keys to prevent accidental exposure in logs or
// debug output.
func (c *Config) String() string {
	safe := *c
	redact := func(s string) string {
		if s != "" {
			return "[REDACTED]"
		}
		return s
	}
	safe.Keys.Anthropic = redact(safe.Keys.Anthropic)
	safe.Keys.OpenAI = redact(safe.Keys.OpenAI)
	safe.Keys.Gemini = redact(safe.Keys.Gemini)
	safe.Keys.DeepSeek = redact(safe.Keys.DeepSeek)
	safe.Keys.Grok = redact(safe.Keys.Grok)

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
