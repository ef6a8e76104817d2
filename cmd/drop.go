package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/storage"
)

var dropForce bool

// dropCmd deletes the SQLite ledger file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the ledger database",
	Long:  "Permanently delete the SQLite ledger database. All stored matches, ratings and runs will be lost. Re-import your ledger afterwards to rebuild.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if cfg.DB.Driver != storage.DriverSQLite {
		return fmt.Errorf("drop only removes SQLite files; the %s ledger must be dropped on the server", cfg.DB.Driver)
	}
	dbPath := cfg.DB.DSN
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	removed, err := removeLedgerFiles(dbPath)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

// removeLedgerFiles deletes the SQLite file and its WAL sidecars. It reports
// false when the main file did not exist.
func removeLedgerFiles(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return true, fmt.Errorf("remove %s: %w", path+suffix, err)
		}
	}
	return true, nil
}
