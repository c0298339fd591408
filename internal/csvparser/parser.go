// =============================================================================
// Invoice Ledger - CSV Row Import
// =============================================================================
//
// This module reads delimited text (CSV, TSV, pipe separated) exported from
// other spreadsheets, or rows taken from a workbook sheet, and lays the
// records out on the columns of an invoice table, so rows can be appended in
// bulk.
//
// COLUMN PLACEMENT:
//   - With a header row, each CSV column goes to the table column with the
//     same title. Unmatched CSV columns are skipped.
//   - Without a header row, the last field is the amount and the other
//     fields fill the columns after the row number column in order.
//   - The row number column is never written; it is recomputed.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
)

// ErrNoMatchingColumns is returned when no CSV header names a table column.
var ErrNoMatchingColumns = errors.New("no CSV column matches a table column")

// Settings controls how the input is read.
type Settings struct {
	// Delimiter separates fields: ",", ";", "|", "tab" or any single character.
	// Default: ","
	Delimiter string

	// HasHeader marks the first record as column titles.
	HasHeader bool
}

// Data is the parsed input.
type Data struct {
	// Headers are the cleaned titles of the header record, empty without one.
	Headers []string

	// Rows are the data records with empty records removed.
	Rows [][]string

	// SourceFile is the path the data came from, if any.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads a CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and header settings.
//
// RETURNS:
//   - The parsed data.
//   - An error if the file cannot be read or parsed.
func ParseFile(filePath string, settings Settings) (*Data, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := Parse(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// Parse reads delimited records from r.
func Parse(r io.Reader, settings Settings) (*Data, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	configureReader(reader, settings)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return FromRows(records, settings.HasHeader)
}

// FromRows builds Data from records read elsewhere, such as the rows of a
// workbook sheet. Blank records are dropped.
func FromRows(records [][]string, hasHeader bool) (*Data, error) {
	data := &Data{}
	if hasHeader {
		if len(records) == 0 {
			return nil, fmt.Errorf("input has no header row")
		}
		data.Headers = cleanHeaders(records[0])
		records = records[1:]
	}

	for _, rec := range records {
		if isRowEmpty(rec) {
			continue
		}
		data.Rows = append(data.Rows, rec)
	}
	return data, nil
}

// configureReader applies the delimiter and relaxes the reader for files
// written by hand or by other spreadsheets.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if r := []rune(settings.Delimiter); len(r) > 0 {
			reader.Comma = r[0]
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// Trimming would swallow empty fields between whitespace delimiters.
	reader.TrimLeadingSpace = !unicode.IsSpace(reader.Comma)
}

func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(h)
	}
	return cleaned
}

func isRowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// COLUMN PLACEMENT
// =============================================================================

// Cell is one value to write into a table row.
type Cell struct {
	Col   int
	Value string
}

// Layout maps every data row onto the columns of t.
//
// PARAMETERS:
//   - data: The parsed input.
//   - t: The target table, whose amount column is last.
//
// RETURNS:
//   - One slice of cells per data row, in row order.
//   - ErrNoMatchingColumns if a header row matches no table column.
func Layout(data *Data, t ledger.Table) ([][]Cell, error) {
	cols := t.ColCount()
	if cols < 2 {
		return nil, fmt.Errorf("table has %d columns", cols)
	}

	var target func(field, width int) int
	if len(data.Headers) > 0 {
		byTitle := make(map[string]int, cols)
		for i := cols - 1; i >= 1; i-- {
			byTitle[strings.TrimSpace(t.Headers[i])] = i
		}
		mapping := make([]int, len(data.Headers))
		matched := false
		for i, h := range data.Headers {
			col, ok := byTitle[h]
			if !ok {
				col = -1
			}
			mapping[i] = col
			matched = matched || ok
		}
		if !matched {
			return nil, ErrNoMatchingColumns
		}
		target = func(field, _ int) int {
			if field < len(mapping) {
				return mapping[field]
			}
			return -1
		}
	} else {
		target = func(field, width int) int {
			if field == width-1 {
				return cols - 1
			}
			if col := field + 1; col < cols-1 {
				return col
			}
			return -1
		}
	}

	out := make([][]Cell, 0, len(data.Rows))
	for _, rec := range data.Rows {
		cells := make([]Cell, 0, len(rec))
		for i, v := range rec {
			if col := target(i, len(rec)); col > 0 {
				cells = append(cells, Cell{Col: col, Value: strings.TrimSpace(v)})
			}
		}
		out = append(out, cells)
	}
	return out, nil
}
