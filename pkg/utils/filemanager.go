// =============================================================================
// Invoice Ledger - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the ledger, including:
//   - Directory management (data, output and backup directories)
//   - Atomic file writes for stored documents and exports
//   - Backup archival with optional date-based subdirectories
//   - Output file naming
//
// BACKUP STRATEGY:
//   - A backup is written before an import replaces a document
//   - The `backup` command writes one on demand
//   - Old backups can be pruned by age
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the ledger.
type FileManager struct {
	// DataDir holds one JSON file per stored document.
	DataDir string

	// OutputDir is where workbooks and PDFs are written.
	OutputDir string

	// BackupDir holds document backups.
	BackupDir string

	// UseTimestampSubdirs creates date-based subdirectories for backups.
	// Example: backups/2024/01/15/client.json
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(dataDir, outputDir, backupDir string) *FileManager {
	return &FileManager{
		DataDir:   dataDir,
		OutputDir: outputDir,
		BackupDir: backupDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all configured directories if they don't exist.
// Empty directory settings are skipped.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.DataDir, fm.OutputDir, fm.BackupDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPath joins a file name onto the output directory.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// BACKUPS
// =============================================================================

// WriteBackup stores data as a timestamped JSON backup.
//
// PARAMETERS:
//   - name: A label for the backup, usually the client id. It is sanitized.
//   - data: The serialized document.
//
// RETURNS:
//   - The path to the backup file.
//   - An error if the backup cannot be written.
func (fm *FileManager) WriteBackup(name string, data []byte, now time.Time) (string, error) {
	fileName := fmt.Sprintf("%s_%s.json", SanitizeFileName(name), now.Format("20060102_150405"))
	path := fm.backupPath(fileName, now)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// backupPath constructs the backup path for a file.
func (fm *FileManager) backupPath(fileName string, now time.Time) string {
	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.BackupDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}
	return filepath.Join(fm.BackupDir, fileName)
}

// DiscoverBackups lists every backup file under the backup directory.
func (fm *FileManager) DiscoverBackups() ([]string, error) {
	var files []string

	err := filepath.Walk(fm.BackupDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk backup directory: %w", err)
	}

	return files, nil
}

// CleanOldBackups removes backup files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func (fm *FileManager) CleanOldBackups(maxAge time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-maxAge)
	removed := 0

	err := filepath.Walk(fm.BackupDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean backups: %w", err)
	}

	return removed, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName builds a file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYY-MM-DD)
//               {time}      - Current time (HHMMSS)
//               {name}      - Invoice or client name
//   - ext: The extension to enforce, including the dot (".xlsx").
//   - params: Extra placeholder values, keyed without braces.
//
// EXAMPLE:
//   format: "{name}-{date}"
//   params: {"name": "فاتورة 1-كامل"}
//   output: "فاتورة 1-كامل-2024-01-15.xlsx"
func GenerateOutputFileName(format, ext string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("2006-01-02"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	result = SanitizeFileName(result)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// SanitizeFileName replaces characters that are unsafe in file names.
// Empty names become "ledger".
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)

	cleaned = strings.Trim(strings.TrimSpace(cleaned), ".")
	if cleaned == "" {
		return "ledger"
	}
	return cleaned
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// GetFileModTime returns the modification time of a file.
func GetFileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
