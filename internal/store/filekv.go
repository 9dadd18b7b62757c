// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/multichat-tui/internal/util"
)

// FileKV stores each key as one JSON file under a base directory.
// Writes are atomic (temp file + fsync + rename), so a crash never
// leaves a slot half-written.
type FileKV struct {
	dir string
}

// NewFileKV creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// path maps a logical key to its file. Keys are restricted to safe
// characters so a key can never escape the base directory.
func (s *FileKV) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

// Get returns the stored value for key.
func (s *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Key: key, Op: "get", Err: err}
	}
	return data, nil
}

// Set stores value under key.
func (s *FileKV) Set(key string, value []byte) error {
	if err := util.AtomicWriteFile(s.path(key), value, 0600); err != nil {
		return &StoreError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *FileKV) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return &StoreError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileKV) Close() error {
	return nil
}
