// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the line-mode chat REPL used on dumb terminals
// and when the user passes --plain.
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/multichat-tui/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// Input provides input history and line editing for the chat REPL.
// USABILITY: Supports arrow keys for history navigation and line editing.
type Input struct {
	line        *liner.State
	historyFile string
}

// NewInput creates a liner-backed input with persistent history.
func NewInput() *Input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &Input{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	in.loadHistory()
	return in
}

// loadHistory loads command history from file.
func (in *Input) loadHistory() {
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line of input with the given prompt. Non-empty
// input is appended to the history.
func (in *Input) ReadLine(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists command history with secure permissions.
func (in *Input) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	in.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (in *Input) Close() {
	in.saveHistory()
	in.line.Close()
}
