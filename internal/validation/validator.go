// =============================================================================
// Invoice Ledger - Import Validation
// =============================================================================
//
// This module checks an imported backup before it is allowed to replace the
// stored document. The persisted-state load path is lenient and substitutes a
// default document on any problem; imports are strict and all-or-nothing.
//
// VALIDATION STRATEGY:
//   1. Document-level: JSON syntax, version tag, invoices array
//   2. Invoice-level: field types, duplicate ids, parseable dates
//   3. Table-level: headers and rows shapes, amount cells
//
// ERROR HANDLING:
//   - Problems are collected, not returned at the first hit
//   - "error" severity blocks the import; "warning" does not
//   - Warnings cover data Normalize will repair on its own
//
// =============================================================================

package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
)

// ErrVersionMismatch reports a missing or unsupported version tag.
var ErrVersionMismatch = errors.New("unsupported document version")

// ErrInvalidDocument wraps every blocking validation failure.
var ErrInvalidDocument = errors.New("invalid document")

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is a path to the offending value, e.g. "invoices[2].t1.rows".
	Field string

	// Rule is the rule that was violated.
	Rule string

	// Message is a human-readable description.
	Message string

	// Err is the sentinel behind the finding, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Field, e.Message)
}

// Unwrap exposes the sentinel.
func (e *ValidationError) Unwrap() error { return e.Err }

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no blocking errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// InvoicesValidated is the number of invoices inspected.
	InvoicesValidated int
}

func (r *ValidationResult) add(opts ValidationOptions, e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if opts.TreatWarningsAsErrors {
		r.IsValid = false
	}
}

// Err joins the blocking findings into one error, or returns nil.
func (r *ValidationResult) Err(opts ValidationOptions) error {
	if r.IsValid {
		return nil
	}
	var errs []error
	for _, e := range r.Errors {
		if e.Severity == SeverityError || opts.TreatWarningsAsErrors {
			errs = append(errs, e)
		}
	}
	return fmt.Errorf("%w: %w", ErrInvalidDocument, errors.Join(errs...))
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first blocking error.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings block the import.
	TreatWarningsAsErrors bool

	// MaxNameLength bounds invoice names. Zero disables the check.
	MaxNameLength int
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{MaxNameLength: 120}
}

// Validator inspects serialized documents.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTIONS
// =============================================================================

// ValidateDocument parses and checks an import payload. On success it returns
// the normalized document.
func ValidateDocument(raw []byte, now time.Time) (*ledger.Document, error) {
	return NewValidator().Validate(raw, now)
}

// Validate checks raw and returns the normalized document when no blocking
// problem was found.
func (v *Validator) Validate(raw []byte, now time.Time) (*ledger.Document, error) {
	result := v.Inspect(raw)
	if err := result.Err(v.options); err != nil {
		return nil, err
	}

	var doc ledger.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	normalized := ledger.NormalizeDocument(doc, now)
	return &normalized, nil
}

// Inspect runs every check and reports the findings.
func (v *Validator) Inspect(raw []byte) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	stop := func() bool { return v.options.StopOnFirstError && !result.IsValid }

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		result.add(v.options, &ValidationError{
			Severity: SeverityError,
			Field:    "$",
			Rule:     "json",
			Message:  fmt.Sprintf("not a JSON object: %v", err),
		})
		return result
	}

	var version int
	if err := json.Unmarshal(top["v"], &version); err != nil || version != ledger.SchemaVersion {
		result.add(v.options, &ValidationError{
			Severity: SeverityError,
			Field:    "v",
			Rule:     "version",
			Message:  fmt.Sprintf("expected version %d", ledger.SchemaVersion),
			Err:      ErrVersionMismatch,
		})
		if stop() {
			return result
		}
	}

	var invoices []json.RawMessage
	if err := json.Unmarshal(top["invoices"], &invoices); err != nil || top["invoices"] == nil {
		result.add(v.options, &ValidationError{
			Severity: SeverityError,
			Field:    "invoices",
			Rule:     "shape",
			Message:  "must be an array",
		})
		return result
	}

	seen := make(map[string]int)
	for i, inv := range invoices {
		result.InvoicesValidated++
		for _, e := range v.validateInvoice(i, inv, seen) {
			result.add(v.options, e)
			if stop() {
				return result
			}
		}
	}

	return result
}

// =============================================================================
// INVOICE AND TABLE CHECKS
// =============================================================================

func (v *Validator) validateInvoice(i int, raw json.RawMessage, seen map[string]int) []*ValidationError {
	path := fmt.Sprintf("invoices[%d]", i)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []*ValidationError{{
			Severity: SeverityError, Field: path, Rule: "shape", Message: "must be an object",
		}}
	}

	var errs []*ValidationError

	for _, name := range []string{"id", "name", "date", "currency"} {
		val, ok := fields[name]
		if !ok || string(val) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			errs = append(errs, &ValidationError{
				Severity: SeverityError, Field: path + "." + name, Rule: "type", Message: "must be a string",
			})
			continue
		}

		switch name {
		case "id":
			if prev, dup := seen[s]; dup && s != "" {
				errs = append(errs, &ValidationError{
					Severity: SeverityError, Field: path + ".id", Rule: "unique",
					Message: fmt.Sprintf("duplicate of invoices[%d]", prev),
				})
			}
			seen[s] = i
		case "name":
			if v.options.MaxNameLength > 0 && utf8.RuneCountInString(s) > v.options.MaxNameLength {
				errs = append(errs, &ValidationError{
					Severity: SeverityWarning, Field: path + ".name", Rule: "length",
					Message: fmt.Sprintf("longer than %d characters", v.options.MaxNameLength),
				})
			}
		case "date":
			if _, ok := ledger.ParseDate(s); s != "" && !ok {
				errs = append(errs, &ValidationError{
					Severity: SeverityWarning, Field: path + ".date", Rule: "date",
					Message: fmt.Sprintf("unparsable date %q is excluded from date ranges", s),
				})
			}
		}
	}

	for _, key := range []string{"t1", "t2"} {
		if val, ok := fields[key]; ok && string(val) != "null" {
			errs = append(errs, validateTable(path+"."+key, val)...)
		}
	}

	return errs
}

func validateTable(path string, raw json.RawMessage) []*ValidationError {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []*ValidationError{{
			Severity: SeverityError, Field: path, Rule: "shape", Message: "must be an object",
		}}
	}

	var errs []*ValidationError

	var headers []any
	if val, ok := fields["headers"]; ok {
		if err := json.Unmarshal(val, &headers); err != nil {
			errs = append(errs, &ValidationError{
				Severity: SeverityError, Field: path + ".headers", Rule: "shape", Message: "must be an array",
			})
		}
	}

	val, ok := fields["rows"]
	if !ok {
		return errs
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(val, &rows); err != nil {
		return append(errs, &ValidationError{
			Severity: SeverityError, Field: path + ".rows", Rule: "shape", Message: "must be an array",
		})
	}

	amountIdx := -1
	for i, h := range headers {
		if s, ok := h.(string); ok && strings.TrimSpace(s) == ledger.AmountHeader {
			amountIdx = i
		}
	}

	for r, row := range rows {
		var cells []any
		if err := json.Unmarshal(row, &cells); err != nil {
			errs = append(errs, &ValidationError{
				Severity: SeverityError, Field: fmt.Sprintf("%s.rows[%d]", path, r), Rule: "shape", Message: "must be an array",
			})
			continue
		}

		if len(headers) > 0 && len(cells) != len(headers) {
			errs = append(errs, &ValidationError{
				Severity: SeverityWarning, Field: fmt.Sprintf("%s.rows[%d]", path, r), Rule: "width",
				Message: fmt.Sprintf("has %d cells for %d headers", len(cells), len(headers)),
			})
		}

		if amountIdx >= 0 && amountIdx < len(cells) {
			if s, ok := cells[amountIdx].(string); ok && strings.TrimSpace(s) != "" && ledger.ParseAmount(s) == 0 && !looksZero(s) {
				errs = append(errs, &ValidationError{
					Severity: SeverityWarning, Field: fmt.Sprintf("%s.rows[%d]", path, r), Rule: "amount",
					Message: fmt.Sprintf("amount %q counts as 0", s),
				})
			}
		}
	}

	return errs
}

// looksZero reports whether an amount text spells a zero value.
func looksZero(s string) bool {
	s = ledger.NormalizeDigits(s)
	return strings.ContainsRune(s, '0')
}
