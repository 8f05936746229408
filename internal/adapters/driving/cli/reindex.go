package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex [path]",
	Short: "Reindex one vault file now",
	Long: `Re-chunks, re-embeds, and re-stores a single file immediately,
bypassing the watch debounce. The path is relative to the vault root.
A file whose content has not changed is left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("no vault configured; run 'semdex settings vault <path>'")
	}

	path := args[0]
	if err := syncService.ReindexFile(cmd.Context(), path); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Printf("Reindexed %s.\n", path)
	return nil
}
