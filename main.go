// =============================================================================
// Invoice Ledger - Main Entry Point
// =============================================================================
//
// This is the main entry point for the ledger CLI. It delegates to the cmd
// package, which defines every command with Cobra.
//
// USAGE:
//   ledger invoice ...   - Create, list, rename and delete invoices
//   ledger table ...     - Edit the operations and receipts tables
//   ledger sum           - Show totals and the final balance
//   ledger export ...    - Write Excel workbooks
//   ledger print         - Write printable PDFs
//   ledger serve         - Serve exports over HTTP
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Ledger model, storage, export and print
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/invoice-ledger/cmd"
)

func main() {
	cmd.Execute()
}
