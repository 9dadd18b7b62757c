// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/provider"
	"github.com/jeranaias/multichat-tui/internal/store"
)

// fakeSender scripts provider responses for manager tests.
type fakeSender struct {
	mu      sync.Mutex
	result  *provider.Result
	err     error
	calls   int
	lastMsg []model.Message
	release chan struct{} // when set, Send blocks until closed
}

func (f *fakeSender) Send(ctx context.Context, p provider.Provider, modelID string, history []model.Message, systemPrompt string, keys provider.Keys) (*provider.Result, error) {
	f.mu.Lock()
	f.calls++
	f.lastMsg = history
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return f.result, f.err
}

func newTestManager(t *testing.T, sender Sender) *Manager {
	t.Helper()
	kv, err := store.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager(store.NewStateStore(kv), sender)
	m.SetCatalog(catalog.DefaultCatalog())
	m.SetModel("gpt-4o")
	return m
}

func TestNewManagerAlwaysHasActiveConversation(t *testing.T) {
	m := newTestManager(t, &fakeSender{})
	if m.Current() == nil {
		t.Fatal("fresh manager must have an active conversation")
	}
	if len(m.Conversations()) != 1 {
		t.Errorf("conversations = %d, want 1", len(m.Conversations()))
	}
}

func TestSendHappyPath(t *testing.T) {
	sender := &fakeSender{result: &provider.Result{
		Content: "The capital is Paris.",
		Usage:   &model.Usage{InputTokens: 20, OutputTokens: 10},
	}}
	m := newTestManager(t, sender)

	msg, err := m.Send(context.Background(), "  What is the capital of France?  ")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Role != model.RoleAssistant || msg.Content != "The capital is Paris." {
		t.Errorf("assistant message = %+v", msg)
	}
	if msg.Model != "gpt-4o" {
		t.Errorf("model attribution = %q", msg.Model)
	}

	conv := m.Current()
	if conv.Title != "What is the capital of France?" {
		t.Errorf("title = %q", conv.Title)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d", len(conv.Messages))
	}
	if conv.TotalInputTokens != 20 || conv.TotalOutputTokens != 10 {
		t.Errorf("totals = %d/%d", conv.TotalInputTokens, conv.TotalOutputTokens)
	}
	// gpt-4o: 20/1e6*2.5 + 10/1e6*10
	want := 20.0/1e6*2.5 + 10.0/1e6*10
	if diff := conv.TotalCost - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("cost = %v, want %v", conv.TotalCost, want)
	}
}

func TestSendRejectsEmptyAndBusy(t *testing.T) {
	release := make(chan struct{})
	sender := &fakeSender{
		result:  &provider.Result{Content: "ok"},
		release: release,
	}
	m := newTestManager(t, sender)

	if _, err := m.Send(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}

	done := make(chan struct{})
	go func() {
		m.Send(context.Background(), "first")
		close(done)
	}()

	// Wait for the in-flight send to take the guard.
	for !m.Busy() {
	}
	if _, err := m.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}

	close(release)
	<-done
	if m.Busy() {
		t.Error("guard must clear after the send completes")
	}
	if sender.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (busy guard, not a queue)", sender.calls)
	}
}

func TestSendProviderFailureAppendsErrorMessage(t *testing.T) {
	sender := &fakeSender{err: &provider.RequestError{
		Provider: provider.OpenAI,
		Status:   401,
		Message:  "Incorrect API key provided",
	}}
	m := newTestManager(t, sender)

	msg, err := m.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send must not fail the conversation: %v", err)
	}
	if msg.Role != model.RoleAssistant {
		t.Errorf("error message role = %q", msg.Role)
	}
	if !strings.HasPrefix(msg.Content, "Error: Incorrect API key provided") {
		t.Errorf("content = %q", msg.Content)
	}

	conv := m.Current()
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want user + error", len(conv.Messages))
	}
	if conv.TotalCost != 0 || conv.TotalTokens() != 0 {
		t.Error("failed sends must not accrue cost or tokens")
	}
	if m.Busy() {
		t.Error("guard must clear after a failure")
	}

	// The conversation is still usable.
	sender.err = nil
	sender.result = &provider.Result{Content: "recovered"}
	if _, err := m.Send(context.Background(), "retry"); err != nil {
		t.Fatalf("send after failure: %v", err)
	}
}

func TestSendEstimatesUsageWhenAbsent(t *testing.T) {
	sender := &fakeSender{result: &provider.Result{Content: "12345678"}} // 8 chars -> 2 tokens
	m := newTestManager(t, sender)

	if _, err := m.Send(context.Background(), "abcdefgh"); err != nil { // 8 chars -> 2 tokens
		t.Fatal(err)
	}
	conv := m.Current()
	if conv.TotalInputTokens != 2 {
		t.Errorf("estimated input tokens = %d, want 2", conv.TotalInputTokens)
	}
	if conv.TotalOutputTokens != 2 {
		t.Errorf("estimated output tokens = %d, want 2", conv.TotalOutputTokens)
	}
}

func TestTwoPhaseDelete(t *testing.T) {
	m := newTestManager(t, &fakeSender{})
	first := m.Current()
	second := m.NewConversation()

	// Request then cancel: nothing removed.
	m.RequestDelete(first.ID)
	if m.PendingDelete() != first.ID {
		t.Errorf("pending = %q", m.PendingDelete())
	}
	m.CancelDelete()
	m.ConfirmDelete()
	if len(m.Conversations()) != 2 {
		t.Fatal("cancel must keep the conversation")
	}

	// Deleting the active conversation selects the next one.
	m.RequestDelete(second.ID)
	m.ConfirmDelete()
	convs := m.Conversations()
	if len(convs) != 1 || convs[0].ID != first.ID {
		t.Fatalf("conversations after delete = %v", convs)
	}
	if m.Current().ID != first.ID {
		t.Error("active conversation must move to the survivor")
	}
}

func TestDeleteLastConversationAutoCreates(t *testing.T) {
	m := newTestManager(t, &fakeSender{})
	only := m.Current()

	m.RequestDelete(only.ID)
	m.ConfirmDelete()

	convs := m.Conversations()
	if len(convs) != 1 {
		t.Fatalf("conversations = %d, want auto-created replacement", len(convs))
	}
	if convs[0].ID == only.ID {
		t.Error("replacement must be a new conversation")
	}
	if m.Current() == nil {
		t.Error("an active conversation must always exist")
	}
	if convs[0].Model != only.Model {
		t.Errorf("replacement inherits the model: got %q want %q", convs[0].Model, only.Model)
	}
}

func TestSetCatalogAutoSelectsModel(t *testing.T) {
	kv, _ := store.NewFileKV(t.TempDir())
	m := NewManager(store.NewStateStore(kv), &fakeSender{})

	if m.Current().Model != "" {
		t.Fatal("precondition: no model selected")
	}
	m.SetCatalog(catalog.DefaultCatalog())

	// No keys: only ollama is selectable, first entry wins.
	if got := m.Current().Model; got != "nemotron-3-nano:30b" {
		t.Errorf("auto-selected model = %q", got)
	}

	// A later refresh must not override an explicit selection.
	m.SetModel("qwen3:8b")
	m.SetCatalog(catalog.DefaultCatalog())
	if got := m.Current().Model; got != "qwen3:8b" {
		t.Errorf("model after refresh = %q", got)
	}
}

func TestStatePersistsAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	kv, _ := store.NewFileKV(dir)
	ss := store.NewStateStore(kv)

	sender := &fakeSender{result: &provider.Result{
		Content: "hi",
		Usage:   &model.Usage{InputTokens: 1, OutputTokens: 1},
	}}
	m := NewManager(ss, sender)
	m.SetCatalog(catalog.DefaultCatalog())
	m.SetModel("deepseek-chat")
	if _, err := m.Send(context.Background(), "persist this"); err != nil {
		t.Fatal(err)
	}
	activeID := m.Current().ID

	kv2, _ := store.NewFileKV(dir)
	reloaded := NewManager(store.NewStateStore(kv2), sender)
	if reloaded.Current().ID != activeID {
		t.Error("active conversation must survive a restart")
	}
	if got := reloaded.Current().Title; got != "persist this" {
		t.Errorf("reloaded title = %q", got)
	}
	if len(reloaded.Current().Messages) != 2 {
		t.Errorf("reloaded messages = %d", len(reloaded.Current().Messages))
	}
}

func TestSavePromptsKeepsReservedPrompt(t *testing.T) {
	m := newTestManager(t, &fakeSender{})

	m.SavePrompts([]model.SystemPrompt{
		{ID: "pirate", Title: "Pirate", Prompt: "Arr."},
	})
	prompts := m.Prompts()
	if len(prompts) != 2 {
		t.Fatalf("prompts = %d", len(prompts))
	}
	if prompts[0].ID != model.NoPromptID {
		t.Error("reserved prompt must stay in slot zero")
	}

	// Attempting to redefine the reserved prompt is ignored.
	m.SavePrompts([]model.SystemPrompt{
		{ID: model.NoPromptID, Title: "Sneaky", Prompt: "not empty"},
	})
	prompts = m.Prompts()
	if prompts[0].Prompt != "" {
		t.Error("reserved prompt must stay empty")
	}
}
