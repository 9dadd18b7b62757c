// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat interface.
//
// This file defines keyboard bindings and shortcuts. Most bindings use
// control keys so they stay reachable while the input area has focus.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit       key.Binding
	Newline      key.Binding
	NewChat      key.Binding
	NextConv     key.Binding
	PrevConv     key.Binding
	DeleteConv   key.Binding
	ModelPicker  key.Binding
	PromptPicker key.Binding
	Export       key.Binding
	ExportData   key.Binding
	ToggleOllama key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Cancel       key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("ctrl+j"),
			key.WithHelp("C-j", "newline"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		NextConv: key.NewBinding(
			key.WithKeys("ctrl+down", "shift+down"),
			key.WithHelp("C-down", "next chat"),
		),
		PrevConv: key.NewBinding(
			key.WithKeys("ctrl+up", "shift+up"),
			key.WithHelp("C-up", "prev chat"),
		),
		DeleteConv: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete chat"),
		),
		ModelPicker: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "model"),
		),
		PromptPicker: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "prompt"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export chat"),
		),
		ExportData: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "export table"),
		),
		ToggleOllama: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "toggle ollama"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}
