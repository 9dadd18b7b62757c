// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export extracts tabular data from assistant responses and
// writes conversations and data files to disk.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// =============================================================================
// RECORD EXTRACTION
// =============================================================================

// Record is one extracted row, keyed by column name.
type Record map[string]string

// Table is extracted tabular data with a stable column order.
type Table struct {
	Headers []string
	Rows    []Record
}

// markdownTablePattern matches a complete markdown table: a header row,
// a separator row, and at least one data row.
var markdownTablePattern = regexp.MustCompile(`\|[^\n]+\|[\r\n]+\|[\s\-:|]+\|[\r\n]+(?:\|[^\n]+\|[\r\n]*)+`)

// jsonArrayPattern matches candidate JSON arrays of objects.
var jsonArrayPattern = regexp.MustCompile(`\[\s*\{[\s\S]*?\}\s*\]`)

// ExtractTable finds tabular data in a response: the first markdown
// table wins, then the first parseable JSON array of objects. Returns
// nil when the response carries no tabular data.
func ExtractTable(text string) *Table {
	if m := markdownTablePattern.FindString(text); m != "" {
		if table := parseMarkdownTable(m); table != nil {
			return table
		}
	}

	for _, m := range jsonArrayPattern.FindAllString(text, -1) {
		var rows []map[string]any
		if err := json.Unmarshal([]byte(m), &rows); err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}
		return tableFromObjects(rows)
	}
	return nil
}

// parseMarkdownTable converts a markdown table to a Table. The second
// line is the separator and is skipped; short rows pad with empty
// strings, extra cells beyond the header count are dropped.
func parseMarkdownTable(tableText string) *Table {
	lines := strings.FieldsFunc(strings.TrimSpace(tableText), func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	if len(lines) < 3 {
		return nil
	}

	var headers []string
	for _, h := range strings.Split(lines[0], "|") {
		h = strings.TrimSpace(h)
		if h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		return nil
	}

	table := &Table{Headers: headers}
	for _, line := range lines[2:] {
		cells := strings.Split(line, "|")
		var values []string
		for i, c := range cells {
			// Cell 0 is the text before the leading pipe.
			if i == 0 || i > len(headers) {
				continue
			}
			values = append(values, strings.TrimSpace(c))
		}
		if len(values) == 0 {
			continue
		}
		rec := Record{}
		for i, h := range headers {
			if i < len(values) {
				rec[h] = values[i]
			} else {
				rec[h] = ""
			}
		}
		table.Rows = append(table.Rows, rec)
	}
	if len(table.Rows) == 0 {
		return nil
	}
	return table
}

// tableFromObjects builds a Table from decoded JSON objects. Column
// order follows the first row's keys sorted alphabetically, with keys
// appearing only in later rows appended after.
func tableFromObjects(rows []map[string]any) *Table {
	seen := map[string]bool{}
	var headers []string
	appendKeys := func(row map[string]any) {
		keys := make([]string, 0, len(row))
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		headers = append(headers, keys...)
	}
	for _, row := range rows {
		appendKeys(row)
	}

	table := &Table{Headers: headers}
	for _, row := range rows {
		rec := Record{}
		for _, h := range headers {
			if v, ok := row[h]; ok {
				rec[h] = stringifyValue(v)
			} else {
				rec[h] = ""
			}
		}
		table.Rows = append(table.Rows, rec)
	}
	return table
}

// stringifyValue flattens a JSON value to its cell text.
func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// Whole numbers print without a decimal point.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// MentionsDataConversion reports whether a message looks like a request
// for exportable data, used to decide when to offer an export hint.
func MentionsDataConversion(content string) bool {
	lc := strings.ToLower(content)
	for _, kw := range []string{"csv", "excel", "spreadsheet", "download", "export", "table", "xlsx"} {
		if strings.Contains(lc, kw) {
			return true
		}
	}
	return false
}
