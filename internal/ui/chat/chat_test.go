// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
)

func TestSidebarWidth(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{40, 0},   // narrow terminals collapse the sidebar
		{69, 0},   // boundary
		{80, 24},  // clamped to minimum
		{120, 30}, // proportional
		{200, 36}, // clamped to maximum
	}
	for _, tc := range cases {
		if got := sidebarWidth(tc.total); got != tc.want {
			t.Errorf("sidebarWidth(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestDefaultKeyMapBindings(t *testing.T) {
	km := DefaultKeyMap()
	for name, b := range map[string]interface{ Keys() []string }{
		"submit":       km.Submit,
		"new chat":     km.NewChat,
		"delete":       km.DeleteConv,
		"model picker": km.ModelPicker,
		"export":       km.Export,
		"quit":         km.Quit,
	} {
		if len(b.Keys()) == 0 {
			t.Errorf("%s binding has no keys", name)
		}
	}
}
