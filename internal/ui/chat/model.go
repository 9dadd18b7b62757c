// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/render"
	"github.com/jeranaias/multichat-tui/internal/session"
	"github.com/jeranaias/multichat-tui/internal/ui/styles"
)

// =============================================================================
// OVERLAY STATE
// =============================================================================

// overlay identifies which modal, if any, is on top of the chat view.
type overlay int

const (
	overlayNone overlay = iota
	overlayModelPicker
	overlayPromptPicker
	overlayConfirmDelete
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	// Collaborators
	mgr     *session.Manager
	fetcher *catalog.Fetcher
	cache   *catalog.Cache

	// Styling and rendering
	theme    *styles.Theme
	renderer *render.Markdown

	// UI components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	// Overlay state
	overlay       overlay
	pickerCursor  int
	pickerModels  []catalog.ModelEntry
	pickerPrompts []model.SystemPrompt

	// Temporary status flash (export paths, errors)
	flashText  string
	flashIsErr bool
	flashAt    time.Time

	exportDir string
}

// New creates the chat model. fetcher and cache drive the background
// catalog refresh; exportDir is where exports land (empty = cwd).
func New(mgr *session.Manager, fetcher *catalog.Fetcher, cache *catalog.Cache, exportDir string) *Model {
	theme := styles.NewTheme(mgr.Theme())

	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "> "
	input.CharLimit = 0
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return &Model{
		mgr:       mgr,
		fetcher:   fetcher,
		cache:     cache,
		theme:     theme,
		renderer:  render.NewMarkdown(theme.GlamourStyle),
		input:     input,
		spinner:   sp,
		keyMap:    DefaultKeyMap(),
		exportDir: exportDir,
	}
}

// Init starts the cursor blink, the spinner, and the first catalog
// refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		refreshCatalogCmd(m.mgr, m.fetcher, m.cache),
	)
}

// flash sets a temporary status message and returns its expiry command.
func (m *Model) flash(text string, isErr bool) tea.Cmd {
	m.flashText = text
	m.flashIsErr = isErr
	m.flashAt = time.Now()
	return flashCmd(m.flashAt)
}
