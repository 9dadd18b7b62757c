// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Sentinel errors for common failure classes.
var (
	// ErrNoKey indicates the provider requires an API key and none is
	// configured.
	ErrNoKey = errors.New("api key not configured")

	// ErrEmptyResponse indicates the provider returned a 2xx response
	// with no usable content.
	ErrEmptyResponse = errors.New("provider returned no content")
)

// RequestError represents a failed provider request: a non-2xx status or
// a transport failure. Message carries the provider's own error message
// when the error body was parseable, otherwise "HTTP <status>: <statusText>".
type RequestError struct {
	Provider Provider
	Status   int
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// newHTTPError builds a RequestError from a non-2xx response. body has
// already been read; parse failure falls back to the status line.
func newHTTPError(p Provider, status int, providerMessage string) *RequestError {
	msg := providerMessage
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return &RequestError{Provider: p, Status: status, Message: msg}
}

// newTransportError wraps a network-level failure (connection refused,
// timeout, context cancellation) in the same error kind.
func newTransportError(p Provider, err error) *RequestError {
	return &RequestError{Provider: p, Message: err.Error(), Cause: err}
}
