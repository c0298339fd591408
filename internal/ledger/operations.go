// =============================================================================
// Invoice Ledger - Table Operations
// =============================================================================
//
// Structural mutations of a single table. Every operation pins the amount
// column first, works on a copy and renumbers the rows before returning, so
// callers can treat tables as values.
//
// Invalid requests (deleting the last row, the ordinal or amount column, or a
// column below the MinCols floor) are silent no-ops.
//
// =============================================================================

package ledger

import (
	"fmt"
	"strings"
)

// Selection is the per-table cursor used to position insertions and
// deletions. It is never persisted.
type Selection struct {
	row, col       int
	hasRow, hasCol bool
}

// SelectCell points the selection at a cell. Negative indices clear the
// corresponding axis.
func (s *Selection) SelectCell(row, col int) {
	s.row, s.hasRow = row, row >= 0
	s.col, s.hasCol = col, col >= 0
}

// Row returns the selected row index, if any.
func (s *Selection) Row() (int, bool) {
	if s == nil {
		return 0, false
	}
	return s.row, s.hasRow
}

// Col returns the selected column index, if any.
func (s *Selection) Col() (int, bool) {
	if s == nil {
		return 0, false
	}
	return s.col, s.hasCol
}

// ClearRow forgets the selected row.
func (s *Selection) ClearRow() {
	if s != nil {
		s.row, s.hasRow = 0, false
	}
}

// Clear forgets the whole selection.
func (s *Selection) Clear() {
	if s != nil {
		*s = Selection{}
	}
}

// finish restores the table invariants after a structural change.
func finish(t Table) Table {
	t = PinAmountLast(t)
	t.Rows = Renumber(t.Rows)
	return t
}

// InsertRow appends an empty row whose amount cell is a formatted zero.
func InsertRow(t Table, symbol string) Table {
	out := PinAmountLast(t).Clone()
	cols := out.ColCount()

	row := make([]string, cols)
	row[cols-1] = FormatAmount(0, symbol)
	out.Rows = append(out.Rows, row)

	return finish(out)
}

// DeleteRow removes the selected row and clears the row selection. It does
// nothing without a valid selection or when only one row is left.
func DeleteRow(t Table, sel *Selection) Table {
	out := PinAmountLast(t)

	row, ok := sel.Row()
	if !ok || row < 0 || row >= len(out.Rows) || len(out.Rows) <= 1 {
		return finish(out)
	}

	out = out.Clone()
	out.Rows = append(out.Rows[:row], out.Rows[row+1:]...)
	sel.ClearRow()

	return finish(out)
}

// InsertColumn adds a placeholder column. By default it goes immediately
// before the amount column. With afterSelected and a selected column strictly
// between the ordinal and amount columns, it goes right after the selection.
func InsertColumn(t Table, sel *Selection, afterSelected bool) Table {
	out := PinAmountLast(t).Clone()

	cols := out.ColCount()
	amountIdx := cols - 1

	insertAt := amountIdx
	if col, ok := sel.Col(); afterSelected && ok && col > 0 && col < amountIdx {
		insertAt = min(amountIdx, col+1)
	}

	title := fmt.Sprintf("%s %d", ColumnPlaceholder, cols)
	out.Headers = insertString(out.Headers, insertAt, title)
	for i, r := range out.Rows {
		out.Rows[i] = insertString(fitRow(r, cols), insertAt, "")
	}

	return finish(out)
}

// DeleteColumn removes the selected column and clears the selection. The
// ordinal and amount columns are never removed and the column count never
// drops below MinCols.
func DeleteColumn(t Table, sel *Selection) Table {
	out := PinAmountLast(t)

	cols := out.ColCount()
	amountIdx := cols - 1

	col, ok := sel.Col()
	if cols <= out.MinCols || !ok || col <= 0 || col >= amountIdx {
		return finish(out)
	}

	out = out.Clone()
	out.Headers = append(out.Headers[:col], out.Headers[col+1:]...)
	for i, r := range out.Rows {
		r = fitRow(r, cols)
		out.Rows[i] = append(r[:col], r[col+1:]...)
	}
	sel.Clear()

	return finish(out)
}

// SetCell writes one cell. The ordinal column is read-only; amount cells are
// stored in canonical display form.
func SetCell(t Table, row, col int, value, symbol string) Table {
	out := PinAmountLast(t)
	cols := out.ColCount()
	if row < 0 || row >= len(out.Rows) || col <= 0 || col >= cols {
		return finish(out)
	}

	out = out.Clone()
	out.Rows[row] = fitRow(out.Rows[row], cols)
	if col == cols-1 {
		value = FormatAmount(ParseAmount(value), symbol)
	}
	out.Rows[row][col] = value

	return finish(out)
}

// RenameColumn changes a column title. The ordinal and amount titles are
// fixed. Blank titles and the amount title itself are ignored.
func RenameColumn(t Table, col int, title string) Table {
	out := PinAmountLast(t)
	title = strings.TrimSpace(title)
	if col <= 0 || col >= out.ColCount()-1 || title == "" || title == AmountHeader {
		return finish(out)
	}

	out = out.Clone()
	out.Headers[col] = title
	return finish(out)
}

func insertString(s []string, i int, v string) []string {
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
