// =============================================================================
// Invoice Ledger - Configuration Module
// =============================================================================
//
// This module loads the single YAML configuration file of the ledger. Every
// setting has a default, so a missing file is not an error.
//
// SECTIONS:
//   1. Directories: stored documents, exports, backups
//   2. Logging: level and output format
//   3. Storage: which Adapter holds documents
//   4. Export and print: writer selection, file naming, PDF font
//   5. Currencies: code to symbol table
//   6. Labels: every user-visible sheet, column and print title
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "ledger.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// DataDir holds stored documents when the file driver is used.
	// Default: "./data"
	DataDir string `yaml:"data_dir"`

	// OutputDir is where workbooks and PDFs are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// BackupDir receives document backups (before imports, and on demand).
	// Default: "./backups"
	BackupDir string `yaml:"backup_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects "console" or "json" output.
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PERSISTENCE SETTINGS
	// =========================================================================

	// SaveDebounce is the quiet period before an edit is saved.
	// Default: "200ms"
	SaveDebounce string `yaml:"save_debounce"`

	// WatchInterval is how often the server polls storage for changes made
	// by other processes.
	// Default: "2s"
	WatchInterval string `yaml:"watch_interval"`

	Storage StorageConfig `yaml:"storage"`

	// ClientID and ClientName identify the document opened by CLI commands
	// when no --client flag is given.
	ClientID   string `yaml:"client_id"`
	ClientName string `yaml:"client_name"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	Export ExportConfig `yaml:"export"`
	Print  PrintConfig  `yaml:"print"`
	Server ServerConfig `yaml:"server"`

	// Currencies maps currency codes to display symbols.
	// Default: IQD -> IQD, USD -> USD
	Currencies map[string]string `yaml:"currencies"`

	// DefaultCurrency is the symbol for unrecognized codes.
	// Default: "$"
	DefaultCurrency string `yaml:"default_currency"`

	Labels Labels `yaml:"labels"`
}

// StorageConfig selects the document Adapter.
type StorageConfig struct {
	// Driver is "file", "memory" or "postgres".
	// Default: "file"
	Driver string `yaml:"driver"`

	// DSN is the connection string for the postgres driver.
	DSN string `yaml:"dsn"`
}

// ExportConfig controls workbook output.
type ExportConfig struct {
	// Native enables the native .xlsx writer. When false every export uses
	// the SpreadsheetML fallback.
	// Default: true
	Native *bool `yaml:"native"`

	// FileNameFormat builds output file names.
	// Placeholders: {name}, {date}, {timestamp}, {time}, {uuid}
	// Default: "{name}-{date}"
	FileNameFormat string `yaml:"file_name_format"`
}

// NativeEnabled reports whether the native writer may be used.
func (e ExportConfig) NativeEnabled() bool {
	return e.Native == nil || *e.Native
}

// PrintConfig controls PDF output.
type PrintConfig struct {
	// FontPath is a UTF-8 TrueType font for Arabic text. Without it the
	// renderer falls back to a core font that cannot shape Arabic.
	FontPath string `yaml:"font_path"`

	// PageSize is a gofpdf page size name.
	// Default: "A4"
	PageSize string `yaml:"page_size"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: "10s"
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// =============================================================================
// LABELS
// =============================================================================

// Labels holds every user-visible title used by exports and print.
type Labels struct {
	Operations string `yaml:"operations"`
	Receipts   string `yaml:"receipts"`
	Final      string `yaml:"final"`

	OperationsTotal string `yaml:"operations_total"`
	ReceiptsTotal   string `yaml:"receipts_total"`
	Balance         string `yaml:"balance"`

	SummarySheet string `yaml:"summary_sheet"`
	Invoice      string `yaml:"invoice"`
	Date         string `yaml:"date"`
	Currency     string `yaml:"currency"`
	Client       string `yaml:"client"`
	Tab          string `yaml:"tab"`

	OperationsSheetSuffix string `yaml:"operations_sheet_suffix"`
	ReceiptsSheetSuffix   string `yaml:"receipts_sheet_suffix"`
	FinalSheetSuffix      string `yaml:"final_sheet_suffix"`

	FullInvoiceSuffix string `yaml:"full_invoice_suffix"`
	ClientFilePrefix  string `yaml:"client_file_prefix"`
	UnknownClient     string `yaml:"unknown_client"`

	DocumentTitle       string `yaml:"document_title"`
	SignatureRecipient  string `yaml:"signature_recipient"`
	SignatureAccountant string `yaml:"signature_accountant"`

	RangeFallback string `yaml:"range_fallback"`
}

// DefaultLabels returns the Arabic titles.
func DefaultLabels() Labels {
	return Labels{
		Operations:            "العمليات",
		Receipts:              "القبوضات",
		Final:                 "الحساب النهائي",
		OperationsTotal:       "إجمالي العمليات",
		ReceiptsTotal:         "مجموع القبوضات",
		Balance:               "الرصيد النهائي",
		SummarySheet:          "ملخص",
		Invoice:               "الفاتورة",
		Date:                  "التاريخ",
		Currency:              "العملة",
		Client:                "العميل",
		Tab:                   "التبويب",
		OperationsSheetSuffix: "عمليات",
		ReceiptsSheetSuffix:   "قبوضات",
		FinalSheetSuffix:      "نهائي",
		FullInvoiceSuffix:     "كامل",
		ClientFilePrefix:      "فواتير",
		UnknownClient:         "العميل",
		DocumentTitle:         "وصل قبض + كشف حساب",
		SignatureRecipient:    "توقيع المستلم",
		SignatureAccountant:   "توقيع المحاسب",
		RangeFallback:         "لا توجد فواتير ضمن هذا المدى. سيتم طباعة كل الفواتير.",
	}
}

// withDefaults fills every empty label from DefaultLabels.
func (l Labels) withDefaults() Labels {
	d := DefaultLabels()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&l.Operations, d.Operations)
	fill(&l.Receipts, d.Receipts)
	fill(&l.Final, d.Final)
	fill(&l.OperationsTotal, d.OperationsTotal)
	fill(&l.ReceiptsTotal, d.ReceiptsTotal)
	fill(&l.Balance, d.Balance)
	fill(&l.SummarySheet, d.SummarySheet)
	fill(&l.Invoice, d.Invoice)
	fill(&l.Date, d.Date)
	fill(&l.Currency, d.Currency)
	fill(&l.Client, d.Client)
	fill(&l.Tab, d.Tab)
	fill(&l.OperationsSheetSuffix, d.OperationsSheetSuffix)
	fill(&l.ReceiptsSheetSuffix, d.ReceiptsSheetSuffix)
	fill(&l.FinalSheetSuffix, d.FinalSheetSuffix)
	fill(&l.FullInvoiceSuffix, d.FullInvoiceSuffix)
	fill(&l.ClientFilePrefix, d.ClientFilePrefix)
	fill(&l.UnknownClient, d.UnknownClient)
	fill(&l.DocumentTitle, d.DocumentTitle)
	fill(&l.SignatureRecipient, d.SignatureRecipient)
	fill(&l.SignatureAccountant, d.SignatureAccountant)
	fill(&l.RangeFallback, d.RangeFallback)
	return l
}

// =============================================================================
// LOADING
// =============================================================================

// LoadMainConfig loads the main configuration file.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. A missing file yields defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a validated configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.DataDir == "" {
		config.DataDir = "./data"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.BackupDir == "" {
		config.BackupDir = "./backups"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.SaveDebounce == "" {
		config.SaveDebounce = "200ms"
	}
	if config.WatchInterval == "" {
		config.WatchInterval = "2s"
	}
	if config.Storage.Driver == "" {
		config.Storage.Driver = "file"
	}
	if config.Export.FileNameFormat == "" {
		config.Export.FileNameFormat = "{name}-{date}"
	}
	if config.Print.PageSize == "" {
		config.Print.PageSize = "A4"
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.ShutdownTimeout == "" {
		config.Server.ShutdownTimeout = "10s"
	}
	if len(config.Currencies) == 0 {
		config.Currencies = map[string]string{"IQD": "IQD", "USD": "USD"}
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "$"
	}
	config.Labels = config.Labels.withDefaults()
}

// validateMainConfig validates the main configuration. Every problem is
// reported, not only the first.
func validateMainConfig(config *MainConfig) error {
	var errs []error

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", config.LogLevel))
	}

	switch strings.ToLower(config.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: must be console or json, got %q", config.LogFormat))
	}

	for name, value := range map[string]string{
		"save_debounce":           config.SaveDebounce,
		"watch_interval":          config.WatchInterval,
		"server.shutdown_timeout": config.Server.ShutdownTimeout,
	} {
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, value))
		}
	}

	switch config.Storage.Driver {
	case "file", "memory":
	case "postgres":
		if config.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn: required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", config.Storage.Driver))
	}

	if !strings.Contains(config.Export.FileNameFormat, "{") {
		errs = append(errs, fmt.Errorf("export.file_name_format: %q has no placeholder", config.Export.FileNameFormat))
	}

	if config.Print.FontPath != "" {
		if _, err := os.Stat(config.Print.FontPath); err != nil {
			errs = append(errs, fmt.Errorf("print.font_path: %w", err))
		}
	}

	return errors.Join(errs...)
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Debounce returns the parsed save delay.
func (c *MainConfig) Debounce() time.Duration {
	d, _ := time.ParseDuration(c.SaveDebounce)
	return d
}

// Watch returns the parsed external change polling interval.
func (c *MainConfig) Watch() time.Duration {
	d, _ := time.ParseDuration(c.WatchInterval)
	return d
}

// ShutdownTimeout returns the parsed graceful shutdown bound.
func (c *MainConfig) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}
