package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Shows the configured vault, embedding provider, and index contents.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if settingsService == nil || vectorStore == nil {
		return errors.New("services not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Index Status")
	cmd.Println("============")
	cmd.Println()

	cmd.Println("[Vault]")
	if settings.Index.VaultPath != "" {
		cmd.Printf("  Path: %s\n", settings.Index.VaultPath)
	} else {
		cmd.Println("  Path: (not set)")
	}
	if len(settings.Index.IgnoreFolders) > 0 {
		cmd.Printf("  Ignored folders: %v\n", settings.Index.IgnoreFolders)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	availability := "available"
	if embedder == nil {
		availability = "unavailable (no provider configured)"
	}
	cmd.Printf("  Index: %s\n", availability)
	cmd.Println()

	stats, err := vectorStore.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}
	cmd.Println("[Contents]")
	cmd.Printf("  Documents: %d\n", stats.Documents)
	cmd.Printf("  Passages: %d\n", stats.Passages)

	return nil
}
