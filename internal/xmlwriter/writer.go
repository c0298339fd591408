// =============================================================================
// Invoice Ledger - SpreadsheetML Fallback Writer
// =============================================================================
//
// This module writes workbooks in the Excel 2003 XML format (SpreadsheetML).
// It needs nothing beyond the standard library, so it is used whenever the
// native .xlsx writer is unavailable. Spreadsheet applications open the
// result as a regular workbook.
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <?mso-application progid="Excel.Sheet"?>
//   <Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet" ...>
//     <Styles>
//       <Style ss:ID="sHeader">...</Style>   <!-- bold, shaded, centered -->
//       <Style ss:ID="sCell">...</Style>     <!-- centered -->
//     </Styles>
//     <Worksheet ss:Name="العمليات">
//       <Table>
//         <Row>
//           <Cell ss:StyleID="sHeader"><Data ss:Type="String">رقم</Data></Cell>
//         </Row>
//         <Row>
//           <Cell ss:StyleID="sCell"><Data ss:Type="Number">1</Data></Cell>
//         </Row>
//       </Table>
//     </Worksheet>
//   </Workbook>
//
// CELL TYPES:
//   A data cell is a Number only when its whole trimmed text is an optional
//   minus sign, digits, and an optional fraction. Everything else, including
//   currency-suffixed amounts such as "150IQD", stays a String. Header cells
//   are always Strings.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/invoice-ledger/internal/types"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for workbook generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: " " (one space)
	Indent string

	// RightToLeft adds the right-to-left display option to every worksheet.
	// Default: true
	RightToLeft bool

	// HeaderFill is the header background color.
	// Default: "#F2F5F9"
	HeaderFill string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:      " ",
		RightToLeft: true,
		HeaderFill:  "#F2F5F9",
	}
}

const (
	styleHeader = "sHeader"
	styleCell   = "sCell"
)

var numericCell = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// =============================================================================
// WRITER
// =============================================================================

// Writer is the SpreadsheetML backend.
type Writer struct {
	Options GenerateOptions
}

// New creates a writer with the default options.
func New() *Writer {
	return &Writer{Options: DefaultGenerateOptions()}
}

// Name implements types.WorkbookWriter.
func (w *Writer) Name() string { return "spreadsheetml" }

// Extension implements types.WorkbookWriter.
func (w *Writer) Extension() string { return ".xls" }

// ContentType implements types.WorkbookWriter.
func (w *Writer) ContentType() string { return "application/vnd.ms-excel" }

// Write generates the workbook and copies it to out. A failing destination
// is reported, never swallowed.
func (w *Writer) Write(out io.Writer, sheets []types.Sheet) error {
	doc, err := Generate(sheets, w.Options)
	if err != nil {
		return err
	}
	if _, err := out.Write(doc); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate builds the SpreadsheetML document.
//
// PARAMETERS:
//   - sheets: The sheets in order. The first row of each is the header row.
//   - options: The generation options.
//
// RETURNS:
//   - The document as a byte slice.
//   - types.ErrNoSheets if there is nothing to write.
func Generate(sheets []types.Sheet, options GenerateOptions) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, types.ErrNoSheets
	}

	in := func(level int) string { return strings.Repeat(options.Indent, level) }

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<?mso-application progid="Excel.Sheet"?>` + "\n")
	buf.WriteString(`<Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"` +
		` xmlns:o="urn:schemas-microsoft-com:office:office"` +
		` xmlns:x="urn:schemas-microsoft-com:office:excel"` +
		` xmlns:ss="urn:schemas-microsoft-com:office:spreadsheet"` +
		` xmlns:html="http://www.w3.org/TR/REC-html40">` + "\n")

	buf.WriteString(in(1) + "<Styles>\n")
	fmt.Fprintf(&buf, `%s<Style ss:ID="%s"><Font ss:Bold="1"/><Interior ss:Color="%s" ss:Pattern="Solid"/><Alignment ss:Horizontal="Center"/></Style>`+"\n",
		in(2), styleHeader, escapeXML(options.HeaderFill))
	fmt.Fprintf(&buf, `%s<Style ss:ID="%s"><Alignment ss:Horizontal="Center"/></Style>`+"\n", in(2), styleCell)
	buf.WriteString(in(1) + "</Styles>\n")

	for _, sheet := range sheets {
		writeWorksheet(&buf, sheet, options, in)
	}

	buf.WriteString("</Workbook>\n")
	return buf.Bytes(), nil
}

// writeWorksheet writes one Worksheet element.
func writeWorksheet(buf *bytes.Buffer, sheet types.Sheet, options GenerateOptions, in func(int) string) {
	fmt.Fprintf(buf, "%s<Worksheet ss:Name=\"%s\">\n", in(1), escapeXML(sheet.Name))
	buf.WriteString(in(2) + "<Table>\n")

	for r, row := range sheet.Rows {
		header := r == 0
		buf.WriteString(in(3) + "<Row>\n")
		for _, v := range row {
			text := cellText(v)
			style, kind := styleCell, "String"
			if header {
				style = styleHeader
			} else if numericCell.MatchString(strings.TrimSpace(text)) {
				kind = "Number"
				text = strings.TrimSpace(text)
			}
			fmt.Fprintf(buf, "%s<Cell ss:StyleID=\"%s\"><Data ss:Type=\"%s\">%s</Data></Cell>\n",
				in(4), style, kind, escapeXML(text))
		}
		buf.WriteString(in(3) + "</Row>\n")
	}

	buf.WriteString(in(2) + "</Table>\n")
	if options.RightToLeft {
		buf.WriteString(in(2) + `<WorksheetOptions xmlns="urn:schemas-microsoft-com:office:excel"><DisplayRightToLeft/></WorksheetOptions>` + "\n")
	}
	buf.WriteString(in(1) + "</Worksheet>\n")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cellText renders a cell value.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// escapeXML escapes special characters for XML text and attributes.
func escapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

var _ types.WorkbookWriter = (*Writer)(nil)
