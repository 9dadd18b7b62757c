// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides key-value persistence for application state.
// Two backends implement the same port: a JSON-file-per-key store and a
// single-table SQLite store.
package store

import (
	"errors"
	"fmt"
)

// Storage keys. Each names one independently-persisted slot; every
// mutation rewrites its slot's whole value.
const (
	KeyState         = "llm_chatbot_state"
	KeySystemPrompts = "llm_chatbot_system_prompts"
	KeyAPIKeys       = "llm_chatbot_api_keys"
	KeyModelCatalog  = "llm_chatbot_model_catalog"
)

// ErrNotFound indicates the key has no stored value.
var ErrNotFound = errors.New("key not found")

// KV is the persistence port: opaque bytes by logical key.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases backend resources.
	Close() error
}

// StoreError wraps a backend failure with the key involved.
type StoreError struct {
	Key string
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
