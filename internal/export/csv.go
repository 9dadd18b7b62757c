// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// =============================================================================
// CSV OUTPUT
// =============================================================================

// TableToCSV serializes extracted tabular data to CSV. Column order
// follows the table's headers; encoding/csv handles quoting for cells
// containing commas, quotes, or newlines.
func TableToCSV(table *Table) ([]byte, error) {
	if table == nil || len(table.Headers) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(table.Headers))
	for _, rec := range table.Rows {
		for i, h := range table.Headers {
			row[i] = rec[h]
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
