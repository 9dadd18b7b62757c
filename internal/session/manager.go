// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates the chat loop: conversation lifecycle,
// the in-flight send guard, model selection, two-phase deletion, and
// catalog refresh.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/pricing"
	"github.com/jeranaias/multichat-tui/internal/provider"
	"github.com/jeranaias/multichat-tui/internal/store"
)

// Send rejections. A send in flight blocks further sends (a guard, not
// a queue); blank input is dropped.
var (
	ErrBusy         = errors.New("a message is already in flight")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoModel      = errors.New("no model selected")
)

// Sender is the provider dispatch port, satisfied by *provider.Client.
type Sender interface {
	Send(ctx context.Context, p provider.Provider, modelID string, history []model.Message, systemPrompt string, keys provider.Keys) (*provider.Result, error)
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the conversation list and all chat-session state.
// Exactly one conversation is active at all times; deleting the last
// conversation immediately creates a fresh one.
type Manager struct {
	mu sync.Mutex

	state   *store.AppState
	prompts []model.SystemPrompt
	keys    provider.Keys
	stateStore *store.StateStore

	sender  Sender
	catalog catalog.Catalog

	// pendingDeleteID holds the conversation awaiting delete
	// confirmation; empty when no delete is pending.
	pendingDeleteID string

	// sending guards against concurrent sends.
	sending bool
}

// NewManager loads persisted state and wires the collaborators.
func NewManager(ss *store.StateStore, sender Sender) *Manager {
	m := &Manager{
		state:      ss.LoadState(),
		prompts:    ss.LoadPrompts(),
		keys:       ss.LoadKeys(),
		stateStore: ss,
		sender:     sender,
	}
	if len(m.state.Conversations) == 0 {
		conv := model.NewConversation("")
		m.state.Conversations = []*model.Conversation{conv}
		m.state.CurrentConversationID = conv.ID
	}
	if m.findConversation(m.state.CurrentConversationID) == nil {
		m.state.CurrentConversationID = m.state.Conversations[0].ID
	}
	return m
}

// persist rewrites the state slot. Called with the lock held.
func (m *Manager) persist() {
	m.stateStore.SaveState(m.state)
}

// findConversation returns the conversation with id, or nil.
// Called with the lock held.
func (m *Manager) findConversation(id string) *model.Conversation {
	for _, c := range m.state.Conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// =============================================================================
// CONVERSATION ACCESS
// =============================================================================

// Conversations returns the conversation list, newest first.
func (m *Manager) Conversations() []*model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Conversation, len(m.state.Conversations))
	copy(out, m.state.Conversations)
	return out
}

// Current returns the active conversation.
func (m *Manager) Current() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findConversation(m.state.CurrentConversationID)
}

// Select makes the conversation with id active.
func (m *Manager) Select(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findConversation(id) == nil {
		return false
	}
	m.state.CurrentConversationID = id
	m.persist()
	return true
}

// NewConversation creates a conversation (inheriting the active model),
// prepends it, and makes it active.
func (m *Manager) NewConversation() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	inherited := ""
	if cur := m.findConversation(m.state.CurrentConversationID); cur != nil {
		inherited = cur.Model
	}
	conv := model.NewConversation(inherited)
	m.state.Conversations = append([]*model.Conversation{conv}, m.state.Conversations...)
	m.state.CurrentConversationID = conv.ID
	m.persist()
	return conv
}

// =============================================================================
// TWO-PHASE DELETE
// =============================================================================

// RequestDelete marks a conversation for deletion; nothing is removed
// until ConfirmDelete.
func (m *Manager) RequestDelete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findConversation(id) != nil {
		m.pendingDeleteID = id
	}
}

// PendingDelete returns the id awaiting confirmation, or "".
func (m *Manager) PendingDelete() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingDeleteID
}

// CancelDelete clears a pending delete request.
func (m *Manager) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingDeleteID = ""
}

// ConfirmDelete removes the pending conversation. When the active
// conversation is deleted, the next one becomes active; deleting the
// last conversation creates a fresh one so the set is never empty.
func (m *Manager) ConfirmDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.pendingDeleteID
	m.pendingDeleteID = ""
	if id == "" {
		return
	}

	inherited := ""
	filtered := m.state.Conversations[:0:0]
	for _, c := range m.state.Conversations {
		if c.ID == id {
			inherited = c.Model
			continue
		}
		filtered = append(filtered, c)
	}
	m.state.Conversations = filtered

	if m.state.CurrentConversationID == id {
		if len(filtered) > 0 {
			m.state.CurrentConversationID = filtered[0].ID
		} else {
			conv := model.NewConversation(inherited)
			m.state.Conversations = []*model.Conversation{conv}
			m.state.CurrentConversationID = conv.ID
		}
	}
	m.persist()
}

// =============================================================================
// MODEL AND PROMPT SELECTION
// =============================================================================

// SetModel sets the active conversation's model.
func (m *Manager) SetModel(modelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.findConversation(m.state.CurrentConversationID); cur != nil {
		cur.Model = modelID
		m.persist()
	}
}

// SetSystemPrompt selects the active system prompt by id.
func (m *Manager) SetSystemPrompt(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CurrentSystemPromptID = id
	m.persist()
}

// CurrentPrompt returns the active system prompt.
func (m *Manager) CurrentPrompt() model.SystemPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.FindPrompt(m.prompts, m.state.CurrentSystemPromptID)
}

// Prompts returns the system prompt list.
func (m *Manager) Prompts() []model.SystemPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SystemPrompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// SavePrompts replaces the editable prompt set. The reserved empty
// prompt is always kept in slot zero.
func (m *Manager) SavePrompts(prompts []model.SystemPrompt) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := []model.SystemPrompt{{ID: model.NoPromptID, Title: "None"}}
	for _, p := range prompts {
		if p.ID == model.NoPromptID {
			continue
		}
		kept = append(kept, p)
	}
	m.prompts = kept
	m.stateStore.SavePrompts(kept)
}

// Keys returns the current API key set.
func (m *Manager) Keys() provider.Keys {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := provider.Keys{}
	for p, k := range m.keys {
		keys[p] = k
	}
	return keys
}

// SetKeys replaces the API key set.
func (m *Manager) SetKeys(keys provider.Keys) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = keys
	m.stateStore.SaveKeys(keys)
}

// ShowOllamaModels reports the Ollama visibility toggle.
func (m *Manager) ShowOllamaModels() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ShowOllamaModels
}

// SetShowOllamaModels flips the Ollama visibility toggle.
func (m *Manager) SetShowOllamaModels(show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ShowOllamaModels = show
	m.persist()
}

// Theme returns the persisted theme name.
func (m *Manager) Theme() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Theme
}

// SetTheme persists the theme name.
func (m *Manager) SetTheme(theme string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Theme = theme
	m.persist()
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog returns the most recently applied catalog (nil before the
// first SetCatalog).
func (m *Manager) Catalog() catalog.Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog
}

// SetCatalog applies a resolved catalog. Refreshes race benignly:
// last write wins, and a conversation without a model auto-selects the
// first selectable one.
func (m *Manager) SetCatalog(c catalog.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = c

	cur := m.findConversation(m.state.CurrentConversationID)
	if cur == nil || cur.Model != "" {
		return
	}
	selectable := catalog.Selectable(c, m.keys, m.state.ShowOllamaModels)
	if len(selectable) > 0 {
		cur.Model = selectable[0].ID
		m.persist()
	}
}

// SelectableModels lists models the user can pick right now.
func (m *Manager) SelectableModels() []catalog.ModelEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return catalog.Selectable(m.catalog, m.keys, m.state.ShowOllamaModels)
}

// =============================================================================
// SEND
// =============================================================================

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sending
}

// Send runs one chat exchange on the active conversation: append the
// user message (deriving the title on the first one), resolve the
// owning provider, invoke its adapter, and append the assistant result
// with cost and usage accounting. A provider failure appends a
// synthetic assistant-role error message instead; the conversation
// survives every failure.
//
// Returns the appended assistant message.
func (m *Manager) Send(ctx context.Context, text string) (*model.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}

	m.mu.Lock()
	if m.sending {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	conv := m.findConversation(m.state.CurrentConversationID)
	if conv == nil {
		m.mu.Unlock()
		return nil, errors.New("no active conversation")
	}
	if conv.Model == "" {
		m.mu.Unlock()
		return nil, ErrNoModel
	}
	m.sending = true

	conv.AppendUserMessage(trimmed)
	m.persist()

	// Snapshot everything the request needs so the lock is not held
	// across network I/O.
	history := make([]model.Message, len(conv.Messages))
	copy(history, conv.Messages)
	modelID := conv.Model
	prompt := model.FindPrompt(m.prompts, m.state.CurrentSystemPromptID)
	keys := m.keys
	cat := m.catalog
	m.mu.Unlock()

	p := catalog.OwningProvider(cat, modelID)
	result, err := m.sender.Send(ctx, p, modelID, history, prompt.Prompt, keys)

	m.mu.Lock()
	defer func() {
		m.sending = false
		m.mu.Unlock()
	}()

	if err != nil {
		content := "Error: " + err.Error() +
			"\n\nPlease check your API key and network connection, then try again."
		msg := conv.AppendAssistantResult(content, modelID, prompt.ID, model.Usage{}, 0)
		m.persist()
		return &msg, nil
	}

	usage := normalizeUsage(result, history)
	cost := pricing.Cost(usage.InputTokens, usage.OutputTokens, modelID)
	msg := conv.AppendAssistantResult(result.Content, modelID, prompt.ID, usage, cost)
	m.persist()
	return &msg, nil
}

// normalizeUsage returns the provider-reported usage, or a char/4
// estimate when the response carried no usage block: input estimated
// over the concatenated prior message contents, output over the
// response content.
func normalizeUsage(result *provider.Result, history []model.Message) model.Usage {
	if result.Usage != nil {
		return *result.Usage
	}
	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(msg.Content)
	}
	return model.Usage{
		InputTokens:  pricing.EstimateTokens(sb.String()),
		OutputTokens: pricing.EstimateTokens(result.Content),
	}
}
