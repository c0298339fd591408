package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestGenerateOutputFileName(t *testing.T) {
	tests := []struct {
		name   string
		format string
		ext    string
		params map[string]string
		want   string
	}{
		{"name and date", "{name}-{date}", ".xlsx", map[string]string{"name": "فواتير-أحمد"}, "فواتير-أحمد-2024-03-09.xlsx"},
		{"timestamp", "{timestamp}", ".pdf", nil, "20240309_140507.pdf"},
		{"time", "out_{time}", ".xls", nil, "out_140507.xls"},
		{"extension kept", "report.XLSX", ".xlsx", nil, "report.XLSX"},
		{"unsafe characters", "{name}", ".pdf", map[string]string{"name": "a/b:c"}, "a_b_c.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateOutputFileName(tt.format, tt.ext, tt.params, fixedNow); got != tt.want {
				t.Errorf("GenerateOutputFileName() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := GenerateOutputFileName("{uuid}", "", nil, fixedNow); len(got) != 36 {
		t.Errorf("{uuid} should expand to a uuid, got %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"فاتورة 1", "فاتورة 1"},
		{`a\b*c?d"e<f>g|h`, "a_b_c_d_e_f_g_h"},
		{"  ..hidden.  ", "hidden"},
		{"tab\there", "tabhere"},
		{"...", "ledger"},
		{"", "ledger"},
	}

	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := WriteFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}

	if err := WriteFileAtomic(filepath.Join(dir, "missing", "doc.json"), nil); err == nil {
		t.Error("WriteFileAtomic() into a missing directory should fail")
	}
}

func TestBackups(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "data"), filepath.Join(root, "out"), filepath.Join(root, "backups"))
	if err := fm.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	flat, err := fm.WriteBackup("c1", []byte("{}"), fixedNow)
	if err != nil {
		t.Fatalf("WriteBackup() error = %v", err)
	}
	if want := filepath.Join(fm.BackupDir, "c1_20240309_140507.json"); flat != want {
		t.Errorf("WriteBackup() = %q, want %q", flat, want)
	}

	fm.UseTimestampSubdirs = true
	dated, err := fm.WriteBackup("c/2", []byte("{}"), fixedNow)
	if err != nil {
		t.Fatalf("WriteBackup() dated error = %v", err)
	}
	if want := filepath.Join(fm.BackupDir, "2024", "03", "09", "c_2_20240309_140507.json"); dated != want {
		t.Errorf("WriteBackup() dated = %q, want %q", dated, want)
	}

	if err := os.WriteFile(filepath.Join(fm.BackupDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := fm.DiscoverBackups()
	if err != nil {
		t.Fatalf("DiscoverBackups() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("DiscoverBackups() = %v, want the two json files", files)
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(flat, old, old); err != nil {
		t.Fatal(err)
	}
	removed, err := fm.CleanOldBackups(24*time.Hour, time.Now())
	if err != nil {
		t.Fatalf("CleanOldBackups() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("CleanOldBackups() removed %d, want 1", removed)
	}
	if _, err := os.Stat(flat); !os.IsNotExist(err) {
		t.Errorf("old backup still present: %v", err)
	}
	if _, err := os.Stat(dated); err != nil {
		t.Errorf("recent backup removed: %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	fm := NewFileManager("d", "out", "b")
	if got := fm.OutputPath("x.pdf"); !strings.HasSuffix(got, filepath.Join("out", "x.pdf")) {
		t.Errorf("OutputPath() = %q", got)
	}
}
