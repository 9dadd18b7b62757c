// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/pricing"
	"github.com/jeranaias/multichat-tui/internal/util"
)

// sidebarWidth returns the conversation list width for a terminal
// width; narrow terminals collapse the sidebar entirely.
func sidebarWidth(total int) int {
	if total < 70 {
		return 0
	}
	w := total / 4
	if w < 24 {
		w = 24
	}
	if w > 36 {
		w = 36
	}
	return w
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.viewHeader()
	body := m.viewBody()
	input := m.theme.InputContainer.Width(m.width).Render(m.input.View())
	status := m.viewStatusBar()

	screen := lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)

	if m.overlay != overlayNone {
		return m.viewOverlay(screen)
	}
	return screen
}

// viewHeader renders the one-line application header.
func (m *Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("multichat")
	meta := ""
	if conv := m.mgr.Current(); conv != nil {
		meta = m.theme.HeaderMeta.Render("  " + conv.Title)
	}
	return m.theme.Header.Width(m.width).Render(title + meta)
}

// viewBody renders the sidebar and chat viewport side by side.
func (m *Model) viewBody() string {
	sw := sidebarWidth(m.width)
	if sw == 0 {
		return m.viewport.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(sw), m.viewport.View())
}

// viewSidebar renders the conversation list with per-conversation cost
// and token metadata.
func (m *Model) viewSidebar(width int) string {
	convs := m.mgr.Conversations()
	cur := m.mgr.Current()
	pending := m.mgr.PendingDelete()

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	inner := width - 2
	for _, conv := range convs {
		title := util.TruncateWidth(conv.Title, inner)
		line := m.theme.SidebarItem.Render(title)
		if cur != nil && conv.ID == cur.ID {
			line = m.theme.SidebarItemSelected.Width(inner).Render(title)
		}
		if conv.ID == pending {
			line = m.theme.SidebarPendingDelete.Render(title)
		}
		b.WriteString(line)
		b.WriteString("\n")

		meta := fmt.Sprintf("%s · %s",
			conv.CreatedAt.Format("Jan 2"),
			pricing.FormatTokenCount(conv.TotalTokens()))
		if conv.TotalCost > 0 {
			meta += " · " + pricing.FormatCost(conv.TotalCost)
		}
		b.WriteString(m.theme.SidebarMeta.Render(util.TruncateWidth(meta, inner)))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(width).
		Height(m.viewport.Height).
		Render(b.String())
}

// viewStatusBar renders the bottom status line: model, prompt, running
// cost, shortcuts, and any status flash.
func (m *Model) viewStatusBar() string {
	conv := m.mgr.Current()

	var parts []string
	if conv != nil && conv.Model != "" {
		label := catalog.DisplayName(conv.Model, m.mgr.Catalog())
		parts = append(parts, m.theme.StatusModel.Render(label))
	} else {
		parts = append(parts, m.theme.ErrorText.Render("no model"))
	}

	if prompt := m.mgr.CurrentPrompt(); prompt.ID != model.NoPromptID {
		parts = append(parts, m.theme.StatusTokens.Render(prompt.Title))
	}

	if conv != nil && conv.TotalTokens() > 0 {
		parts = append(parts, m.theme.StatusTokens.Render(
			pricing.FormatTokenCount(conv.TotalTokens())+" tok"))
		parts = append(parts, m.theme.StatusCost.Render(pricing.FormatCost(conv.TotalCost)))
	}

	if m.flashText != "" {
		style := m.theme.StatusFlash
		if m.flashIsErr {
			style = m.theme.ErrorText
		}
		parts = append(parts, style.Render(m.flashText))
	} else {
		parts = append(parts,
			m.theme.ShortcutKey.Render("C-p")+m.theme.ShortcutDesc.Render(" model")+
				m.theme.ShortcutKey.Render(" C-n")+m.theme.ShortcutDesc.Render(" new")+
				m.theme.ShortcutKey.Render(" C-e")+m.theme.ShortcutDesc.Render(" export")+
				m.theme.ShortcutKey.Render(" C-c")+m.theme.ShortcutDesc.Render(" quit"))
	}

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

// refreshViewport rebuilds the viewport content from the active
// conversation. gotoBottom keeps the latest exchange in view.
func (m *Model) refreshViewport(gotoBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

// renderConversation formats the message history: user messages as
// plain labeled text, assistant messages as rendered markdown.
func (m *Model) renderConversation() string {
	conv := m.mgr.Current()
	if conv == nil || conv.IsEmpty() {
		return m.theme.MessageMeta.Render("\n  Start a conversation. Enter sends; Ctrl+J inserts a newline.")
	}

	width := m.viewport.Width - 2
	var b strings.Builder
	for _, msg := range conv.Messages {
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(m.theme.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.theme.UserMessage.Render(msg.Content))
		case model.RoleAssistant:
			label := "Assistant"
			if msg.Model != "" {
				label = catalog.DisplayName(msg.Model, m.mgr.Catalog())
			}
			b.WriteString(m.theme.AssistantLabel.Render(label))
			b.WriteString(m.theme.MessageMeta.Render("  " + msg.Timestamp.Format("15:04")))
			b.WriteString("\n")
			b.WriteString(m.renderer.Render(msg.Content, width))
		}
		b.WriteString("\n")
	}

	if m.mgr.Busy() {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.MessageMeta.Render(" thinking..."))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// OVERLAYS
// =============================================================================

// viewOverlay centers the active modal over the screen.
func (m *Model) viewOverlay(_ string) string {
	var box string
	switch m.overlay {
	case overlayConfirmDelete:
		box = m.viewConfirmDelete()
	case overlayModelPicker:
		box = m.viewModelPicker()
	case overlayPromptPicker:
		box = m.viewPromptPicker()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// viewConfirmDelete renders the two-phase delete confirmation.
func (m *Model) viewConfirmDelete() string {
	title := "Delete this conversation?"
	if id := m.mgr.PendingDelete(); id != "" {
		for _, c := range m.mgr.Conversations() {
			if c.ID == id {
				title = fmt.Sprintf("Delete %q?", util.TruncateRunes(c.Title, 30))
				break
			}
		}
	}
	body := m.theme.ConfirmTitle.Render(title) + "\n\n" +
		m.theme.ShortcutKey.Render("y") + m.theme.ShortcutDesc.Render(" delete   ") +
		m.theme.ShortcutKey.Render("n") + m.theme.ShortcutDesc.Render(" keep")
	return m.theme.ConfirmBox.Render(body)
}

// viewModelPicker renders the model list grouped by provider.
func (m *Model) viewModelPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("Select model"))
	b.WriteString("\n\n")

	if len(m.pickerModels) == 0 {
		b.WriteString(m.theme.MessageMeta.Render("No models available. Configure an API key or start Ollama."))
	}

	lastProvider := ""
	cat := m.mgr.Catalog()
	for i, entry := range m.pickerModels {
		p := string(catalog.OwningProvider(cat, entry.ID))
		if p != lastProvider {
			if lastProvider != "" {
				b.WriteString("\n")
			}
			b.WriteString(m.theme.PickerSection.Render(p))
			b.WriteString("\n")
			lastProvider = p
		}
		line := "  " + entry.Label
		if i == m.pickerCursor {
			b.WriteString(m.theme.PickerItemSelected.Render(line))
		} else {
			b.WriteString(m.theme.PickerItem.Render(line))
		}
		b.WriteString("\n")
	}

	return m.theme.PickerBox.Render(b.String())
}

// viewPromptPicker renders the system prompt list.
func (m *Model) viewPromptPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("System prompt"))
	b.WriteString("\n\n")

	for i, p := range m.pickerPrompts {
		line := "  " + p.Title
		if i == m.pickerCursor {
			b.WriteString(m.theme.PickerItemSelected.Render(line))
		} else {
			b.WriteString(m.theme.PickerItem.Render(line))
		}
		b.WriteString("\n")
	}

	return m.theme.PickerBox.Render(b.String())
}
