package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/store"
)

var backupFlags struct {
	timestampDirs bool
	cleanAfter    time.Duration
}

// backupCmd writes the client document to backup_dir.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a JSON backup of the client document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.files.UseTimestampSubdirs = backupFlags.timestampDirs

		err := withStore(cmd.Context(), func(st *store.Store) error {
			data, err := st.Export()
			if err != nil {
				return err
			}
			path, err := app.files.WriteBackup(backupLabel(clientID), data, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
		if err != nil {
			return err
		}

		if backupFlags.cleanAfter > 0 {
			removed, err := app.files.CleanOldBackups(backupFlags.cleanAfter, time.Now())
			if err != nil {
				return err
			}
			app.logger.Info().Int("removed", removed).Dur("older_than", backupFlags.cleanAfter).Msg("old backups removed")
		}
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := app.files.DiscoverBackups()
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	backupCmd.Flags().BoolVar(&backupFlags.timestampDirs, "dated-dirs", false, "Store the backup under YYYY/MM/DD subdirectories")
	backupCmd.Flags().DurationVar(&backupFlags.cleanAfter, "clean-older-than", 0, "Remove backups older than this after writing")

	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd)
}
