package xlsxwriter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/invoice-ledger/internal/types"
)

// ErrSheetNotFound is returned when a workbook has no sheet of the requested
// name.
var ErrSheetNotFound = errors.New("sheet not found")

// ReadWorkbook reads every sheet of an .xlsx workbook back as text cells.
// Trailing empty cells of a row are dropped, the way excelize reports them.
func ReadWorkbook(r io.Reader) ([]types.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sheets []types.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows of %q: %w", name, err)
		}

		sheet := types.Sheet{Name: name, Rows: make([][]any, len(rows))}
		for i, row := range rows {
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = v
			}
			sheet.Rows[i] = cells
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// ReadSheet reads one sheet of a workbook: the one named name, or the first
// sheet when name is empty. Names match case-insensitively.
func ReadSheet(r io.Reader, name string) (types.Sheet, error) {
	sheets, err := ReadWorkbook(r)
	if err != nil {
		return types.Sheet{}, err
	}
	if len(sheets) == 0 {
		return types.Sheet{}, types.ErrNoSheets
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return types.Sheet{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}
