package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
)

// assumeYes skips the import confirmation prompt.
var assumeYes bool

// importCmd replaces the client document with a JSON backup.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the client document with a JSON backup",
	Long: `Import validates a JSON backup, asks for confirmation, backs up the
current document to backup_dir and then replaces it. The current document is
left untouched when validation fails or the import is declined.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read backup: %w", err)
		}

		confirm := func(doc ledger.Document) bool {
			if assumeYes {
				return true
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replace the current document with %d invoices from %s? [y/N] ", len(doc.Invoices), args[0])
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		}

		return withStore(cmd.Context(), func(st *store.Store) error {
			if err := st.Import(cmd.Context(), data, confirm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d invoices\n", len(st.Document().Invoices))
			return nil
		})
	},
}

func init() {
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(importCmd)
}
