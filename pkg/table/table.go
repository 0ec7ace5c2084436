// Package table implements a generic list-of-records rendering contract:
// typed column definitions over an arbitrary record shape, a strict
// loading/error/empty/populated state machine, cursor pagination and
// debounced search. It holds no data of its own; callers supply the
// snapshot and the cursor state.
package table

import (
	"github.com/noah-isme/fms-portal-api/pkg/export"
)

// Column describes how one field of T is labelled and rendered.
type Column[T any] struct {
	Key    string
	Header string
	Cell   func(T) string
}

// Snapshot carries the caller-owned query state for one render pass.
type Snapshot[T any] struct {
	Loading bool
	Err     error
	Records []T
}

// RowKind distinguishes placeholder rows from record rows.
type RowKind int

const (
	RowRecord RowKind = iota
	RowLoading
	RowError
	RowEmpty
)

// Row is one rendered table row. Placeholder rows span all columns and
// carry their message in the single cell.
type Row struct {
	Kind  RowKind
	Cells []string
}

const (
	loadingMessage = "Loading..."
	emptyMessage   = "No records found"
)

// Render evaluates the state machine in strict priority order: loading
// masks error, error masks empty, empty masks populated.
func Render[T any](snap Snapshot[T], columns []Column[T]) []Row {
	if snap.Loading {
		return []Row{{Kind: RowLoading, Cells: []string{loadingMessage}}}
	}
	if snap.Err != nil {
		return []Row{{Kind: RowError, Cells: []string{snap.Err.Error()}}}
	}
	if len(snap.Records) == 0 {
		return []Row{{Kind: RowEmpty, Cells: []string{emptyMessage}}}
	}

	rows := make([]Row, 0, len(snap.Records))
	for _, record := range snap.Records {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = col.Cell(record)
		}
		rows = append(rows, Row{Kind: RowRecord, Cells: cells})
	}
	return rows
}

// Dataset converts records into an export dataset keyed by column headers.
func Dataset[T any](records []T, columns []Column[T]) export.Dataset {
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}

	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			row[col.Header] = col.Cell(record)
		}
		rows = append(rows, row)
	}

	return export.Dataset{Headers: headers, Rows: rows}
}
