// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// GlamourStyle is the matching glamour style name for markdown
	// rendering ("dark" or "light").
	GlamourStyle string

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar              lipgloss.Style
	SidebarTitle         lipgloss.Style
	SidebarItem          lipgloss.Style
	SidebarItemSelected  lipgloss.Style
	SidebarMeta          lipgloss.Style
	SidebarPendingDelete lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageMeta    lipgloss.Style
	UserMessage    lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusModel  lipgloss.Style
	StatusCost   lipgloss.Style
	StatusTokens lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// PICKER OVERLAY STYLES
	// ==========================================================================

	PickerBox          lipgloss.Style
	PickerTitle        lipgloss.Style
	PickerItem         lipgloss.Style
	PickerItemSelected lipgloss.Style
	PickerSection      lipgloss.Style

	// ==========================================================================
	// CONFIRM / ERROR STYLES
	// ==========================================================================

	ConfirmBox   lipgloss.Style
	ConfirmTitle lipgloss.Style
	ErrorText    lipgloss.Style
	Spinner      lipgloss.Style
	StatusFlash  lipgloss.Style
}

// NewTheme creates a theme for the given name ("dark", "light", or
// "auto" for terminal detection).
func NewTheme(name string) *Theme {
	isDark := true
	switch name {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	if isDark {
		t.GlamourStyle = "dark"
	} else {
		t.GlamourStyle = "light"
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple)

	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SidebarPendingDelete = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)

	t.MessageMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UserMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusModel = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusCost = lipgloss.NewStyle().
		Foreground(Amber)

	t.StatusTokens = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Picker overlays
	t.PickerBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.PickerTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.PickerItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.PickerItemSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple)

	t.PickerSection = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Confirm / error
	t.ConfirmBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 2)

	t.ConfirmTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.StatusFlash = lipgloss.NewStyle().
		Foreground(Emerald)
}
