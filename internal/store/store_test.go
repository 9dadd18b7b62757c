// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/provider"
)

// backends returns one of each KV implementation for shared tests.
func backends(t *testing.T) map[string]KV {
	t.Helper()
	fileKV, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	sqliteKV, err := NewSQLiteKV(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{"file": fileKV, "sqlite": sqliteKV}
}

func TestKVRoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set("a", []byte("one")))
			got, err := kv.Get("a")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), got)

			// Set replaces.
			require.NoError(t, kv.Set("a", []byte("two")))
			got, _ = kv.Get("a")
			assert.Equal(t, []byte("two"), got)

			// Delete is idempotent.
			require.NoError(t, kv.Delete("a"))
			require.NoError(t, kv.Delete("a"))
			_, err = kv.Get("a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStateStoreRoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStateStore(kv)

			conv := model.NewConversation("gpt-4o")
			conv.AppendUserMessage("persist me")
			conv.AppendAssistantResult("done", "gpt-4o", "none",
				model.Usage{InputTokens: 3, OutputTokens: 2}, 0.0001)

			state := DefaultAppState()
			state.Conversations = []*model.Conversation{conv}
			state.CurrentConversationID = conv.ID
			state.Theme = "light"
			require.NoError(t, s.SaveState(state))

			loaded := s.LoadState()
			require.Len(t, loaded.Conversations, 1)
			got := loaded.Conversations[0]
			assert.Equal(t, conv.ID, got.ID)
			assert.Equal(t, "persist me", got.Title)
			assert.Len(t, got.Messages, 2)
			assert.Equal(t, 5, got.TotalTokens())
			require.Contains(t, got.ModelUsage, "gpt-4o")
			assert.Equal(t, 5, got.ModelUsage["gpt-4o"].TotalTokens)
			assert.Equal(t, "light", loaded.Theme)
			assert.Equal(t, conv.ID, loaded.CurrentConversationID)
		})
	}
}

func TestStateStoreDefaults(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := NewStateStore(kv)

	state := s.LoadState()
	assert.Empty(t, state.Conversations)
	assert.Equal(t, model.NoPromptID, state.CurrentSystemPromptID)
	assert.True(t, state.ShowOllamaModels)

	prompts := s.LoadPrompts()
	assert.Len(t, prompts, 6)

	keys := s.LoadKeys()
	assert.False(t, keys.Configured(provider.OpenAI))
}

func TestStateStoreCorruptSlotResetsOnlyThatSlot(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := NewStateStore(kv)

	// Good prompts, corrupt state.
	custom := append(model.DefaultSystemPrompts(),
		model.SystemPrompt{ID: "pirate", Title: "Pirate", Prompt: "Talk like a pirate."})
	require.NoError(t, s.SavePrompts(custom))
	require.NoError(t, kv.Set(KeyState, []byte("{not json")))

	state := s.LoadState()
	assert.Empty(t, state.Conversations, "corrupt state slot resets to default")

	prompts := s.LoadPrompts()
	assert.Len(t, prompts, 7, "other slots survive a corrupt state slot")
}

func TestStateStoreKeysRoundTrip(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := NewStateStore(kv)

	keys := provider.Keys{
		provider.Anthropic: "sk-ant-x",
		provider.OpenAI:    "YOUR_OPENAI_API_KEY",
	}
	require.NoError(t, s.SaveKeys(keys))

	loaded := s.LoadKeys()
	assert.True(t, loaded.Configured(provider.Anthropic))
	assert.False(t, loaded.Configured(provider.OpenAI), "placeholder survives round trip as unconfigured")
}

func TestFileKVKeySanitization(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	// A hostile key must not escape the store directory.
	require.NoError(t, kv.Set("../../etc/passwd", []byte("x")))
	_, err = kv.Get("../../etc/passwd")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	kv, err := NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set("k", []byte("v")))
	require.NoError(t, kv.Close())

	reopened, err := NewSQLiteKV(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestStoreErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &StoreError{Key: "k", Op: "set", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "k")
}
