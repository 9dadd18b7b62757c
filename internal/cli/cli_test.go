// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in  string
		cmd string
		arg string
	}{
		{"/help", "/help", ""},
		{"/model gpt-4o", "/model", "gpt-4o"},
		{"/MODEL gpt-4o", "/model", "gpt-4o"},
		{"  /select  3  ", "/select", "3"},
		{"/data csv", "/data", "csv"},
	}
	for _, tc := range cases {
		cmd, arg := splitCommand(tc.in)
		if cmd != tc.cmd || arg != tc.arg {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", tc.in, cmd, arg, tc.cmd, tc.arg)
		}
	}
}

func TestParseIndex(t *testing.T) {
	if _, err := parseIndex("", 3); err == nil {
		t.Error("empty argument must fail")
	}
	if _, err := parseIndex("abc", 3); err == nil {
		t.Error("non-numeric argument must fail")
	}
	if _, err := parseIndex("0", 3); err == nil {
		t.Error("index below range must fail")
	}
	if _, err := parseIndex("4", 3); err == nil {
		t.Error("index above range must fail")
	}
	if idx, err := parseIndex("2", 3); err != nil || idx != 1 {
		t.Errorf("parseIndex(2) = (%d, %v), want (1, nil)", idx, err)
	}
}
