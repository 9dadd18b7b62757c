// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/provider"
)

// =============================================================================
// STATE TYPES
// =============================================================================

// AppState is the persisted application state slot: the conversation
// list and the active selections.
type AppState struct {
	Conversations          []*model.Conversation `json:"conversations"`
	CurrentConversationID  string                `json:"current_conversation_id"`
	CurrentSystemPromptID  string                `json:"current_system_prompt_id"`
	Theme                  string                `json:"theme"`
	ShowOllamaModels       bool                  `json:"show_ollama_models"`
}

// DefaultAppState returns the state used on first run or after a
// corrupt slot reset.
func DefaultAppState() *AppState {
	return &AppState{
		Conversations:         []*model.Conversation{},
		CurrentSystemPromptID: model.NoPromptID,
		Theme:                 "dark",
		ShowOllamaModels:      true,
	}
}

// =============================================================================
// STATE STORE
// =============================================================================

// StateStore provides typed access to the persisted slots over a KV
// backend. A corrupt slot is treated as absent: it is logged, reset to
// its default, and never aborts startup.
type StateStore struct {
	kv KV
}

// NewStateStore wraps a KV backend.
func NewStateStore(kv KV) *StateStore {
	return &StateStore{kv: kv}
}

// KV exposes the underlying backend for collaborators that manage their
// own slots (the model catalog cache).
func (s *StateStore) KV() KV {
	return s.kv
}

// loadSlot unmarshals one slot into dst. Returns false when the slot is
// missing or corrupt; corruption is logged and only that slot is lost.
func (s *StateStore) loadSlot(key string, dst any) bool {
	data, err := s.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		log.Printf("store: failed to read %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("store: corrupt slot %s, resetting: %v", key, err)
		return false
	}
	return true
}

// saveSlot marshals and rewrites one slot in full.
func (s *StateStore) saveSlot(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StoreError{Key: key, Op: "marshal", Err: err}
	}
	return s.kv.Set(key, data)
}

// LoadState returns the persisted app state, or the default state when
// the slot is missing or corrupt.
func (s *StateStore) LoadState() *AppState {
	var state AppState
	if !s.loadSlot(KeyState, &state) {
		return DefaultAppState()
	}
	if state.Conversations == nil {
		state.Conversations = []*model.Conversation{}
	}
	if state.CurrentSystemPromptID == "" {
		state.CurrentSystemPromptID = model.NoPromptID
	}
	return &state
}

// SaveState persists the app state slot.
func (s *StateStore) SaveState(state *AppState) error {
	return s.saveSlot(KeyState, state)
}

// LoadPrompts returns the persisted system prompts, or the built-in
// defaults when the slot is missing or corrupt.
func (s *StateStore) LoadPrompts() []model.SystemPrompt {
	var prompts []model.SystemPrompt
	if !s.loadSlot(KeySystemPrompts, &prompts) || len(prompts) == 0 {
		return model.DefaultSystemPrompts()
	}
	return prompts
}

// SavePrompts persists the system prompt slot.
func (s *StateStore) SavePrompts(prompts []model.SystemPrompt) error {
	return s.saveSlot(KeySystemPrompts, prompts)
}

// LoadKeys returns the persisted API keys; absent slots yield an empty
// key set.
func (s *StateStore) LoadKeys() provider.Keys {
	keys := provider.Keys{}
	s.loadSlot(KeyAPIKeys, &keys)
	return keys
}

// SaveKeys persists the API key slot.
func (s *StateStore) SaveKeys(keys provider.Keys) error {
	return s.saveSlot(KeyAPIKeys, keys)
}
