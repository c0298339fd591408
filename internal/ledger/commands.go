package ledger

import "fmt"

// Command is a table mutation. The set of commands is closed: only the types
// declared in this file satisfy it.
type Command interface {
	command()
	fmt.Stringer
}

// InsertRowCmd appends a row.
type InsertRowCmd struct{}

// DeleteRowCmd deletes the selected row.
type DeleteRowCmd struct{}

// InsertColumnCmd inserts a column before the amount column, or after the
// selected column when AfterSelected is set.
type InsertColumnCmd struct {
	AfterSelected bool
}

// DeleteColumnCmd deletes the selected column.
type DeleteColumnCmd struct{}

// SetCellCmd writes one cell.
type SetCellCmd struct {
	Row, Col int
	Value    string
}

// RenameColumnCmd changes a column title.
type RenameColumnCmd struct {
	Col   int
	Title string
}

// SelectCellCmd moves the selection.
type SelectCellCmd struct {
	Row, Col int
}

// ClearSelectionCmd drops the selection.
type ClearSelectionCmd struct{}

func (InsertRowCmd) command() {}
func (DeleteRowCmd) command() {}
func (InsertColumnCmd) command() {}
func (DeleteColumnCmd) command() {}
func (SetCellCmd) command() {}
func (RenameColumnCmd) command() {}
func (SelectCellCmd) command() {}
func (ClearSelectionCmd) command() {}

func (InsertRowCmd) String() string { return "insert-row" }
func (DeleteRowCmd) String() string { return "delete-row" }
func (c InsertColumnCmd) String() string {
	if c.AfterSelected {
		return "insert-column-after"
	}
	return "insert-column"
}
func (DeleteColumnCmd) String() string { return "delete-column" }
func (c SetCellCmd) String() string { return fmt.Sprintf("set-cell(%d,%d)", c.Row, c.Col) }
func (c RenameColumnCmd) String() string { return fmt.Sprintf("rename-column(%d)", c.Col) }
func (c SelectCellCmd) String() string { return fmt.Sprintf("select(%d,%d)", c.Row, c.Col) }
func (ClearSelectionCmd) String() string { return "clear-selection" }

// Apply runs a command against a table and its selection. symbol is the
// invoice currency used for new or rewritten amount cells.
func Apply(t Table, sel *Selection, symbol string, cmd Command) Table {
	switch c := cmd.(type) {
	case InsertRowCmd:
		return InsertRow(t, symbol)
	case DeleteRowCmd:
		return DeleteRow(t, sel)
	case InsertColumnCmd:
		return InsertColumn(t, sel, c.AfterSelected)
	case DeleteColumnCmd:
		return DeleteColumn(t, sel)
	case SetCellCmd:
		return SetCell(t, c.Row, c.Col, c.Value, symbol)
	case RenameColumnCmd:
		return RenameColumn(t, c.Col, c.Title)
	case SelectCellCmd:
		if sel != nil {
			sel.SelectCell(c.Row, c.Col)
		}
		return t
	case ClearSelectionCmd:
		sel.Clear()
		return t
	}
	panic(fmt.Sprintf("ledger: unhandled command %T", cmd))
}

// Mutates reports whether a command can change the table contents.
func Mutates(cmd Command) bool {
	switch cmd.(type) {
	case SelectCellCmd, ClearSelectionCmd:
		return false
	}
	return true
}
