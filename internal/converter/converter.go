// =============================================================================
// Invoice Ledger - Export Pipeline
// =============================================================================
//
// This module turns invoices into downloadable workbooks. It is the main
// orchestrator that ties together:
//   - Sheet building (sheets.go)
//   - The native .xlsx writer (xlsxwriter)
//   - The SpreadsheetML fallback writer (xmlwriter)
//   - Output naming and atomic file writes (pkg/utils)
//
// PROCESSING FLOW:
//   1. Build a Workbook for the requested scope (tab, invoice or client)
//   2. Encode it with the native writer
//   3. If the native writer is unavailable, encode with the fallback writer
//   4. Stream the bytes to the caller or write them to output_dir
//
// =============================================================================

package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/types"
	"github.com/ginjaninja78/invoice-ledger/internal/xlsxwriter"
	"github.com/ginjaninja78/invoice-ledger/internal/xmlwriter"
	"github.com/ginjaninja78/invoice-ledger/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one export.
type Result struct {
	// OutputFile is the path of the written file. Empty when streaming.
	OutputFile string

	// FileName is the suggested download name.
	FileName string

	// Backend names the writer that produced the bytes.
	Backend string

	// ContentType is the MIME type of the produced bytes.
	ContentType string

	// Sheets is the number of sheets written.
	Sheets int

	// Invoices is the number of invoices included.
	Invoices int

	// Bytes is the size of the produced workbook.
	Bytes int

	// WriterFellBack is set when the native writer was unavailable.
	WriterFellBack bool

	// RangeFellBack is set when a date range matched nothing.
	RangeFellBack bool

	// Duration is the time taken to encode and write.
	Duration time.Duration
}

// =============================================================================
// EXPORTER STRUCTURE
// =============================================================================

// Exporter selects a workbook writer and delivers the result.
type Exporter struct {
	// Native is tried first. Nil means the fallback is always used.
	Native types.WorkbookWriter

	// Fallback is used when Native reports types.ErrWriterUnavailable.
	Fallback types.WorkbookWriter

	// Files resolves output paths.
	Files *utils.FileManager

	// FileNameFormat builds output file names.
	FileNameFormat string

	Logger zerolog.Logger
	Now    func() time.Time
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates an Exporter from the main configuration.
//
// PARAMETERS:
//   - cfg: The main application configuration.
//   - logger: The logger for fallback and output messages.
//
// RETURNS:
//   - A new Exporter instance.
func New(cfg *config.MainConfig, logger zerolog.Logger) *Exporter {
	native := xlsxwriter.New()
	native.Disabled = !cfg.Export.NativeEnabled()

	return &Exporter{
		Native:         native,
		Fallback:       xmlwriter.New(),
		Files:          utils.NewFileManager(cfg.DataDir, cfg.OutputDir, cfg.BackupDir),
		FileNameFormat: cfg.Export.FileNameFormat,
		Logger:         logger,
		Now:            time.Now,
	}
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode renders the workbook with the native writer, or with the fallback
// when the native writer is unavailable. A fallback failure is returned.
func (e *Exporter) Encode(wb Workbook) ([]byte, Result, error) {
	start := e.now()
	result := Result{
		Sheets:        len(wb.Sheets),
		Invoices:      wb.Invoices,
		RangeFellBack: wb.RangeFellBack,
	}
	if len(wb.Sheets) == 0 {
		return nil, result, types.ErrNoSheets
	}

	var buf bytes.Buffer
	writer := e.Native
	if writer != nil {
		err := writer.Write(&buf, wb.Sheets)
		switch {
		case err == nil:
		case errors.Is(err, types.ErrWriterUnavailable):
			e.Logger.Debug().Str("writer", writer.Name()).Msg("native writer unavailable, using fallback")
			writer = nil
			buf.Reset()
		default:
			return nil, result, fmt.Errorf("failed to encode workbook: %w", err)
		}
	}

	if writer == nil {
		if e.Fallback == nil {
			return nil, result, types.ErrWriterUnavailable
		}
		writer = e.Fallback
		result.WriterFellBack = true
		if err := writer.Write(&buf, wb.Sheets); err != nil {
			return nil, result, fmt.Errorf("failed to encode fallback workbook: %w", err)
		}
	}

	if wb.RangeFellBack {
		e.Logger.Warn().Str("workbook", wb.Name).Msg("date range matched no invoices, exported all")
	}

	result.Backend = writer.Name()
	result.ContentType = writer.ContentType()
	result.FileName = utils.SanitizeFileName(wb.Name) + writer.Extension()
	result.Bytes = buf.Len()
	result.Duration = e.now().Sub(start)
	return buf.Bytes(), result, nil
}

// Write encodes the workbook and streams it to out.
func (e *Exporter) Write(out io.Writer, wb Workbook) (Result, error) {
	data, result, err := e.Encode(wb)
	if err != nil {
		return result, err
	}
	if _, err := out.Write(data); err != nil {
		return result, fmt.Errorf("failed to deliver workbook: %w", err)
	}
	return result, nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteFile encodes the workbook and writes it to the output directory.
//
// RETURNS:
//   - The Result with OutputFile set.
//   - An error if encoding or the file write fails.
func (e *Exporter) WriteFile(wb Workbook) (Result, error) {
	data, result, err := e.Encode(wb)
	if err != nil {
		return result, err
	}

	ext := filepath.Ext(result.FileName)
	name := utils.GenerateOutputFileName(e.fileNameFormat(), ext, map[string]string{"name": wb.Name}, e.now())
	path := e.Files.OutputPath(name)

	if err := utils.WriteFileAtomic(path, data); err != nil {
		return result, fmt.Errorf("failed to write output file: %w", err)
	}

	result.OutputFile = path
	e.Logger.Info().
		Str("file", path).
		Str("backend", result.Backend).
		Int("sheets", result.Sheets).
		Int("invoices", result.Invoices).
		Msg("workbook written")
	return result, nil
}

func (e *Exporter) fileNameFormat() string {
	if e.FileNameFormat == "" {
		return "{name}-{date}"
	}
	return e.FileNameFormat
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
