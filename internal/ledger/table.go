// =============================================================================
// Invoice Ledger - Table Model
// =============================================================================
//
// This module holds the normalized table representation shared by every other
// part of the ledger. A table is a small, spreadsheet-like grid with three
// structural invariants:
//
//   1. The first column is the ordinal column. Its cell always holds the
//      row's 1-based position and is recomputed after every change.
//   2. The last column is the pinned amount column. It is identified by its
//      title (AmountHeader), never by a fixed index.
//   3. Every row has exactly as many cells as there are headers, and there are
//      never fewer headers than MinCols.
//
// Normalize repairs external (possibly malformed) data so that invariants 1
// and 3 hold; PinAmountLast restores invariant 2.
//
// =============================================================================

package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AmountHeader is the title of the pinned amount column.
const AmountHeader = "المبلغ"

// OrdinalHeader is the title of the row number column.
const OrdinalHeader = "رقم"

// ColumnPlaceholder prefixes generated titles for inserted columns.
const ColumnPlaceholder = "عمود"

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is one editable grid of an invoice (operations or receipts).
type Table struct {
	// Headers are the column titles in display order. Titles need not be unique.
	Headers []string `json:"headers"`

	// Rows holds the cell text of every row. Cell 0 is the ordinal, the last
	// cell is the amount display string.
	Rows [][]string `json:"rows"`

	// MinCols is the floor below which columns cannot be deleted.
	MinCols int `json:"minCols"`
}

// rawTable is the tolerant wire shape. Older backups wrote "headerTitles"
// instead of "headers", and cells may have been stored as numbers.
type rawTable struct {
	Headers      []any `json:"headers"`
	HeaderTitles []any `json:"headerTitles"`
	Rows         []any `json:"rows"`
	MinCols      any   `json:"minCols"`
}

// UnmarshalJSON decodes a table without validating it. Non-string cells are
// converted to text and non-array rows become empty rows; Normalize is
// expected to run afterwards.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw rawTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode table: %w", err)
	}

	headers := raw.Headers
	if len(headers) == 0 {
		headers = raw.HeaderTitles
	}

	t.Headers = make([]string, 0, len(headers))
	for _, h := range headers {
		t.Headers = append(t.Headers, cellText(h))
	}

	t.Rows = make([][]string, 0, len(raw.Rows))
	for _, r := range raw.Rows {
		cells, _ := r.([]any)
		row := make([]string, 0, len(cells))
		for _, c := range cells {
			row = append(row, cellText(c))
		}
		t.Rows = append(t.Rows, row)
	}

	t.MinCols = intValue(raw.MinCols)
	return nil
}

// cellText renders a decoded JSON value as cell text.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// intValue accepts a JSON number or numeric string; anything else is 0.
func intValue(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize repairs an external table representation.
//
// PARAMETERS:
//   - raw: The decoded table, possibly missing headers or rows.
//   - minCols: The column floor required by the caller.
//   - defaultHeaders: Titles used when raw has no usable headers.
//
// RETURNS:
//   - A table whose rows are padded to the header count and renumbered.
//
// RULES:
//   - Missing headers fall back to defaultHeaders.
//   - Headers shorter than MinCols gain placeholder columns.
//   - A table always keeps at least the ordinal column.
//   - Missing rows fall back to one synthetic row with ordinal 1.
//   - MinCols is the larger of the caller floor and the stored floor.
//   - Ordinals are rewritten unconditionally, so Normalize is idempotent.
func Normalize(raw Table, minCols int, defaultHeaders []string) Table {
	floor := max(minCols, raw.MinCols)

	headers := raw.Headers
	if len(headers) == 0 {
		headers = defaultHeaders
	}
	headers = append([]string(nil), headers...)
	if len(headers) == 0 {
		headers = []string{OrdinalHeader}
	}

	// Short header lists are widened with placeholder columns.
	for len(headers) < floor {
		headers = append(headers, fmt.Sprintf("%s %d", ColumnPlaceholder, len(headers)))
	}

	rows := raw.Rows
	if len(rows) == 0 {
		rows = [][]string{defaultRow(len(headers))}
	}

	normalized := make([][]string, len(rows))
	for i, r := range rows {
		normalized[i] = fitRow(r, len(headers))
	}

	return Table{
		Headers: headers,
		Rows:    Renumber(normalized),
		MinCols: floor,
	}
}

// defaultRow returns an empty row whose ordinal is 1.
func defaultRow(cols int) []string {
	row := make([]string, max(cols, 1))
	row[0] = "1"
	return row
}

// fitRow copies a row and pads or trims it to exactly n cells.
func fitRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

// Renumber rewrites the ordinal cell of every row with its 1-based position.
// The input slice is not modified.
func Renumber(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := append([]string(nil), r...)
		if len(row) == 0 {
			row = []string{""}
		}
		row[0] = strconv.Itoa(i + 1)
		out[i] = row
	}
	return out
}

// =============================================================================
// AMOUNT COLUMN PINNING
// =============================================================================

// AmountIndex returns the index of the column titled AmountHeader, or -1.
func (t Table) AmountIndex() int {
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == AmountHeader {
			return i
		}
	}
	return -1
}

// PinAmountLast moves the amount column to the end of the table.
//
// If the table has no amount column one is appended with an empty cell per
// row. If the amount column is already last the table is returned as is.
// Otherwise the column is spliced out of the headers and every row and
// re-appended, keeping the relative order of the other columns.
func PinAmountLast(t Table) Table {
	idx := t.AmountIndex()

	switch {
	case idx == -1:
		out := Table{
			Headers: append(append([]string(nil), t.Headers...), AmountHeader),
			Rows:    make([][]string, len(t.Rows)),
			MinCols: t.MinCols,
		}
		for i, r := range t.Rows {
			out.Rows[i] = append(fitRow(r, len(t.Headers)), "")
		}
		return out

	case idx == len(t.Headers)-1:
		return t
	}

	headers := make([]string, 0, len(t.Headers))
	headers = append(headers, t.Headers[:idx]...)
	headers = append(headers, t.Headers[idx+1:]...)
	headers = append(headers, t.Headers[idx])

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		r = fitRow(r, len(t.Headers))
		row := make([]string, 0, len(r))
		row = append(row, r[:idx]...)
		row = append(row, r[idx+1:]...)
		row = append(row, r[idx])
		rows[i] = row
	}

	return Table{Headers: headers, Rows: rows, MinCols: t.MinCols}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ColCount returns the number of columns.
func (t Table) ColCount() int { return len(t.Headers) }

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
		MinCols: t.MinCols,
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// Amount pairs the stored display text of an amount cell with the number
// derived from it.
type Amount struct {
	Raw   string
	Value float64
}

// Amounts returns the amount cell of every row, re-parsed from its display
// text. The table is pinned first so the amount is always read from the
// correct column.
func (t Table) Amounts() []Amount {
	pinned := PinAmountLast(t)
	last := pinned.ColCount() - 1

	out := make([]Amount, len(pinned.Rows))
	for i, r := range pinned.Rows {
		var raw string
		if last >= 0 && last < len(r) {
			raw = r[last]
		}
		out[i] = Amount{Raw: raw, Value: ParseAmount(raw)}
	}
	return out
}

// Reformat rewrites every amount cell in canonical display form using the
// given currency symbol.
func (t Table) Reformat(symbol string) Table {
	out := PinAmountLast(t).Clone()
	last := out.ColCount() - 1
	for _, r := range out.Rows {
		r[last] = FormatAmount(ParseAmount(r[last]), symbol)
	}
	return out
}
