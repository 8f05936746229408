package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Remove one file from the index",
	Long: `Deletes a file's passages and vectors from the index. The vault
file itself is untouched. Removing a path that was never indexed is
a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("no vault configured; run 'semdex settings vault <path>'")
	}

	path := args[0]
	if err := syncService.RemoveFile(cmd.Context(), path); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	cmd.Printf("Removed %s from the index.\n", path)
	return nil
}
