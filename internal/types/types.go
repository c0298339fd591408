// =============================================================================
// Invoice Ledger - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - converter
//   - xlsxwriter
//   - xmlwriter
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// =============================================================================
// WORKBOOK TYPES
// =============================================================================

// Sheet is one named worksheet. The first row holds the headers. Cells are
// string or float64.
type Sheet struct {
	Name string
	Rows [][]any
}

// Width returns the length of the longest row.
func (s Sheet) Width() int {
	w := 0
	for _, row := range s.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Text returns every cell as text. Float cells use the shortest form that
// reads back to the same value.
func (s Sheet) Text() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			switch c := v.(type) {
			case nil:
			case string:
				cells[j] = c
			case float64:
				cells[j] = strconv.FormatFloat(c, 'f', -1, 64)
			default:
				cells[j] = fmt.Sprint(c)
			}
		}
		out[i] = cells
	}
	return out
}

// =============================================================================
// WRITER CONTRACT
// =============================================================================

// ErrWriterUnavailable is returned by a writer that cannot run in the current
// environment. Callers switch to another writer on it.
var ErrWriterUnavailable = errors.New("workbook writer unavailable")

// ErrNoSheets is returned when a workbook would have no sheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// WorkbookWriter serializes sheets into a downloadable workbook.
type WorkbookWriter interface {
	// Name identifies the backend in logs and results.
	Name() string

	// Extension is the file extension including the dot.
	Extension() string

	// ContentType is the MIME type served over HTTP.
	ContentType() string

	// Write encodes every sheet to w.
	Write(w io.Writer, sheets []Sheet) error
}
