// =============================================================================
// Invoice Ledger - Native Workbook Writer
// =============================================================================
//
// This module writes Office Open XML workbooks (.xlsx) with excelize. Every
// sheet becomes a real worksheet. The first row of each sheet is the header
// row and receives the header style.
//
// SHEET LAYOUT:
//
//   | رقم | التاريخ | ... | المبلغ            |   <- header row (styled)
//   | 1   | ...     | ... | 150IQD            |
//   | 2   | ...     | ... | 50IQD             |
//   |     |         | إجمالي العمليات | 200IQD |   <- optional totals row
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/invoice-ledger/internal/types"
)

// =============================================================================
// WRITER OPTIONS
// =============================================================================

// Options controls the worksheet appearance.
type Options struct {
	// StyleHeaders applies the bold, shaded header style to the first row.
	// Default: true
	StyleHeaders bool

	// RightToLeft flips every sheet for Arabic reading order.
	// Default: true
	RightToLeft bool

	// ColumnWidth is applied to every used column. Zero keeps the default.
	// Default: 18
	ColumnWidth float64

	// HeaderFill is the header background color.
	// Default: "#F2F5F9"
	HeaderFill string
}

// DefaultOptions returns the default writer options.
func DefaultOptions() Options {
	return Options{
		StyleHeaders: true,
		RightToLeft:  true,
		ColumnWidth:  18,
		HeaderFill:   "#F2F5F9",
	}
}

// =============================================================================
// WRITER
// =============================================================================

// Writer is the native workbook backend.
type Writer struct {
	Options Options

	// Disabled makes every Write report types.ErrWriterUnavailable.
	Disabled bool
}

// New creates a writer with the default options.
func New() *Writer {
	return &Writer{Options: DefaultOptions()}
}

// Name implements types.WorkbookWriter.
func (w *Writer) Name() string { return "xlsx" }

// Extension implements types.WorkbookWriter.
func (w *Writer) Extension() string { return ".xlsx" }

// ContentType implements types.WorkbookWriter.
func (w *Writer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write encodes the sheets as an .xlsx workbook.
//
// PARAMETERS:
//   - out: Destination of the workbook bytes.
//   - sheets: The sheets in order. Names must be unique.
//
// RETURNS:
//   - types.ErrWriterUnavailable if the writer is disabled.
//   - An error if a sheet cannot be built or the workbook cannot be written.
func (w *Writer) Write(out io.Writer, sheets []types.Sheet) error {
	if w.Disabled {
		return types.ErrWriterUnavailable
	}
	if len(sheets) == 0 {
		return types.ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle := 0
	if w.Options.StyleHeaders {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{w.Options.HeaderFill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyle = id
	}

	seen := make(map[string]bool, len(sheets))
	for i, sheet := range sheets {
		if seen[sheet.Name] {
			return fmt.Errorf("duplicate sheet name %q", sheet.Name)
		}
		seen[sheet.Name] = true

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", sheet.Name, err)
		}

		if err := w.writeSheet(f, sheet, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeSheet fills one worksheet.
func (w *Writer) writeSheet(f *excelize.File, sheet types.Sheet, headerStyle int) error {
	for r, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}

	width := sheet.Width()
	if width == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return err
	}

	if headerStyle != 0 && len(sheet.Rows) > 0 {
		if err := f.SetCellStyle(sheet.Name, "A1", lastCol+"1", headerStyle); err != nil {
			return err
		}
	}
	if w.Options.ColumnWidth > 0 {
		if err := f.SetColWidth(sheet.Name, "A", lastCol, w.Options.ColumnWidth); err != nil {
			return err
		}
	}
	if w.Options.RightToLeft {
		rtl := true
		if err := f.SetSheetView(sheet.Name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
			return err
		}
	}
	return nil
}

var _ types.WorkbookWriter = (*Writer)(nil)
