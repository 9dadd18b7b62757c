// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// SendResultMsg reports the outcome of a chat send. Err carries only
// send-loop failures (busy, empty, no model); provider errors are
// surfaced inside the conversation itself.
type SendResultMsg struct {
	Message *model.Message
	Err     error
}

// CatalogMsg delivers a freshly resolved model catalog.
type CatalogMsg struct {
	Catalog catalog.Catalog
}

// ExportDoneMsg reports the result of an export operation.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// flashExpiredMsg clears a temporary status message.
type flashExpiredMsg struct {
	at time.Time
}
