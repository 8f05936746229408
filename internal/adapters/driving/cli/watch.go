package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and keep the index current",
	Long: `Reconciles the index with the vault, then keeps watching for
file changes until interrupted. Changes are debounced per file, so an
editor writing in bursts triggers a single reindex.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("no vault configured; run 'semdex settings vault <path>'")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := syncService.Start(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Watching vault; press Ctrl+C to stop.")

	if err := reconcileWithProgress(ctx, cmd, syncService); err != nil {
		// An interrupt during reconciliation is a normal stop.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("reconciliation failed: %w", err)
	}
	progress := syncService.Progress()
	cmd.Printf("\rIndexed %d/%d files. Watching for changes.\n", progress.CompletedFiles, progress.TotalFiles)

	<-ctx.Done()
	cmd.Println("\nStopping.")
	return nil
}
