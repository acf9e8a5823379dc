// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the tabular input data of a process.
package pipeline

// InputTable is the input data of a process: one column per input field and
// one row per job.
type InputTable struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *InputTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the values of one column, or nil if it does not exist.
func (t *InputTable) Column(name string) []any {
	if t == nil {
		return nil
	}
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}
