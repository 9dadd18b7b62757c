// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/export"
	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/session"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// sendCmd runs one chat exchange off the UI goroutine. The manager owns
// all the concurrency discipline; the command just reports the result.
func sendCmd(mgr *session.Manager, text string) tea.Cmd {
	return func() tea.Msg {
		msg, err := mgr.Send(context.Background(), text)
		return SendResultMsg{Message: msg, Err: err}
	}
}

// refreshCatalogCmd resolves the model catalog (live, cache, defaults)
// in the background.
func refreshCatalogCmd(mgr *session.Manager, fetcher *catalog.Fetcher, cache *catalog.Cache) tea.Cmd {
	return func() tea.Msg {
		resolved := catalog.Resolve(func() catalog.Catalog {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			return fetcher.Fetch(ctx, mgr.Keys())
		}, cache)
		return CatalogMsg{Catalog: resolved}
	}
}

// exportConversationCmd writes the conversation to a markdown file.
func exportConversationCmd(conv *model.Conversation, outputDir string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		if outputDir != "" {
			opts.OutputDir = outputDir
		}
		path, err := export.ExportToFile(conv, export.NewMarkdownExporter(opts), opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// exportTableCmd extracts tabular data from the latest assistant
// message and writes it as CSV.
func exportTableCmd(conv *model.Conversation, outputDir string) tea.Cmd {
	return func() tea.Msg {
		var last *model.Message
		for i := len(conv.Messages) - 1; i >= 0; i-- {
			if conv.Messages[i].Role == model.RoleAssistant {
				last = &conv.Messages[i]
				break
			}
		}
		if last == nil {
			return ExportDoneMsg{Err: errors.New("no assistant response to export")}
		}
		table := export.ExtractTable(last.Content)
		if table == nil {
			return ExportDoneMsg{Err: errors.New("no table found in the last response")}
		}
		path, err := export.WriteTableToFile(table, "csv", outputDir)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// flashCmd schedules the status flash to clear.
func flashCmd(at time.Time) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return flashExpiredMsg{at: at}
	})
}
