package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/semdex/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the index with the vault",
	Long: `Walks the vault once and brings the index up to date: new and
changed files are indexed, entries for deleted files are removed.
Unchanged files are skipped by content hash.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("no vault configured; run 'semdex settings vault <path>'")
	}

	ctx := cmd.Context()
	cmd.Println("Synchronising index with vault...")

	if err := syncService.Start(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if err := reconcileWithProgress(ctx, cmd, syncService); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	progress := syncService.Progress()
	cmd.Printf("\rIndexed %d/%d files. Done.\n", progress.CompletedFiles, progress.TotalFiles)
	return nil
}

// reconcileWithProgress waits out the reconciliation pass while
// printing progress updates.
func reconcileWithProgress(ctx context.Context, cmd *cobra.Command, svc driving.SyncService) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.WaitReconcile(ctx)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := -1
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			progress := svc.Progress()
			if progress.CompletedFiles > lastCount {
				cmd.Printf("\rProcessing... %d/%d files", progress.CompletedFiles, progress.TotalFiles)
				lastCount = progress.CompletedFiles
			}
		}
	}
}
