// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/multichat-tui/internal/session"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.mgr.Busy() {
			// Keep the in-flight user message and spinner row visible.
			m.refreshViewport(true)
		}
		return m, cmd

	case SendResultMsg:
		return m.handleSendResult(msg)

	case CatalogMsg:
		m.mgr.SetCatalog(msg.Catalog)
		m.refreshViewport(false)
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			return m, m.flash("Export failed: "+msg.Err.Error(), true)
		}
		return m, m.flash("Exported to "+msg.Path, false)

	case flashExpiredMsg:
		if msg.at.Equal(m.flashAt) {
			m.flashText = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.overlay != overlayNone {
			return m.updateOverlay(msg)
		}
		return m.updateChat(msg)
	}

	return m, nil
}

// resize recomputes the layout for new terminal dimensions.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	sidebar := sidebarWidth(width)
	chatWidth := width - sidebar - 1
	// header + input area + status bar
	chatHeight := height - 1 - (m.input.Height() + 1) - 1
	if chatHeight < 1 {
		chatHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = chatHeight
	}
	m.input.SetWidth(width - 2)
	m.refreshViewport(true)
}

// handleSendResult folds a completed send back into the view.
func (m *Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, session.ErrBusy):
			return m, m.flash("Still waiting on the previous message", true)
		case errors.Is(msg.Err, session.ErrNoModel):
			return m, m.flash("Pick a model first (Ctrl+P)", true)
		case errors.Is(msg.Err, session.ErrEmptyMessage):
			return m, nil
		default:
			return m, m.flash(msg.Err.Error(), true)
		}
	}
	m.refreshViewport(true)
	return m, nil
}

// updateChat handles keys while the plain chat view has focus.
func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if m.mgr.Busy() {
			return m, m.flash("Still waiting on the previous message", true)
		}
		m.input.Reset()
		return m, sendCmd(m.mgr, text)

	case key.Matches(msg, m.keyMap.Newline):
		m.input.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		m.mgr.NewConversation()
		m.refreshViewport(true)
		return m, nil

	case key.Matches(msg, m.keyMap.NextConv):
		m.stepConversation(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevConv):
		m.stepConversation(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.DeleteConv):
		if cur := m.mgr.Current(); cur != nil {
			m.mgr.RequestDelete(cur.ID)
			m.overlay = overlayConfirmDelete
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ModelPicker):
		m.pickerModels = m.mgr.SelectableModels()
		m.pickerCursor = 0
		if cur := m.mgr.Current(); cur != nil {
			for i, e := range m.pickerModels {
				if e.ID == cur.Model {
					m.pickerCursor = i
					break
				}
			}
		}
		m.overlay = overlayModelPicker
		return m, nil

	case key.Matches(msg, m.keyMap.PromptPicker):
		m.pickerPrompts = m.mgr.Prompts()
		m.pickerCursor = 0
		active := m.mgr.CurrentPrompt()
		for i, p := range m.pickerPrompts {
			if p.ID == active.ID {
				m.pickerCursor = i
				break
			}
		}
		m.overlay = overlayPromptPicker
		return m, nil

	case key.Matches(msg, m.keyMap.Export):
		conv := m.mgr.Current()
		if conv == nil || conv.IsEmpty() {
			return m, m.flash("Nothing to export", true)
		}
		return m, exportConversationCmd(conv, m.exportDir)

	case key.Matches(msg, m.keyMap.ExportData):
		conv := m.mgr.Current()
		if conv == nil || conv.IsEmpty() {
			return m, m.flash("Nothing to export", true)
		}
		return m, exportTableCmd(conv, m.exportDir)

	case key.Matches(msg, m.keyMap.ToggleOllama):
		show := !m.mgr.ShowOllamaModels()
		m.mgr.SetShowOllamaModels(show)
		if show {
			return m, m.flash("Ollama models shown", false)
		}
		return m, m.flash("Ollama models hidden", false)

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateOverlay handles keys while a modal is open.
func (m *Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayConfirmDelete:
		switch msg.String() {
		case "y", "enter":
			m.mgr.ConfirmDelete()
			m.overlay = overlayNone
			m.refreshViewport(true)
		case "n", "esc":
			m.mgr.CancelDelete()
			m.overlay = overlayNone
		}
		return m, nil

	case overlayModelPicker:
		switch msg.String() {
		case "up", "k":
			if m.pickerCursor > 0 {
				m.pickerCursor--
			}
		case "down", "j":
			if m.pickerCursor < len(m.pickerModels)-1 {
				m.pickerCursor++
			}
		case "enter":
			if m.pickerCursor < len(m.pickerModels) {
				m.mgr.SetModel(m.pickerModels[m.pickerCursor].ID)
			}
			m.overlay = overlayNone
			m.refreshViewport(false)
		case "esc":
			m.overlay = overlayNone
		}
		return m, nil

	case overlayPromptPicker:
		switch msg.String() {
		case "up", "k":
			if m.pickerCursor > 0 {
				m.pickerCursor--
			}
		case "down", "j":
			if m.pickerCursor < len(m.pickerPrompts)-1 {
				m.pickerCursor++
			}
		case "enter":
			if m.pickerCursor < len(m.pickerPrompts) {
				m.mgr.SetSystemPrompt(m.pickerPrompts[m.pickerCursor].ID)
			}
			m.overlay = overlayNone
		case "esc":
			m.overlay = overlayNone
		}
		return m, nil
	}

	m.overlay = overlayNone
	return m, nil
}

// stepConversation moves the active conversation by delta in the
// sidebar order.
func (m *Model) stepConversation(delta int) {
	convs := m.mgr.Conversations()
	cur := m.mgr.Current()
	if cur == nil || len(convs) < 2 {
		return
	}
	for i, c := range convs {
		if c.ID == cur.ID {
			next := i + delta
			if next >= 0 && next < len(convs) {
				m.mgr.Select(convs[next].ID)
				m.refreshViewport(true)
			}
			return
		}
	}
}
