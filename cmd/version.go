// =============================================================================
// Invoice Ledger - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   ledger version
//
// OUTPUT:
//   Invoice Ledger
//   Version:        1.0.0
//   Build Date:     2024-01-01
//   Schema Version: 2
//   Go Version:     go1.22.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
)

// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/invoice-ledger/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, document schema version and Go runtime version.`,

	// The version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },

	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Invoice Ledger")
		fmt.Fprintf(out, "Version:        %s\n", Version)
		fmt.Fprintf(out, "Build Date:     %s\n", BuildDate)
		fmt.Fprintf(out, "Schema Version: %d\n", ledger.SchemaVersion)
		fmt.Fprintf(out, "Go Version:     %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
