package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, vault location, and
index behaviour.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long: `Configure the embedding provider interactively. Until a provider is
configured the index is unavailable: nothing is embedded and queries fail.`,
	RunE: runSettingsEmbedding,
}

var settingsVaultCmd = &cobra.Command{
	Use:   "vault [path]",
	Short: "Set the vault folder",
	Long:  `Points the index at a folder of documents to watch and index.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsVault,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsVaultCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Index]")
	if settings.Index.VaultPath != "" {
		cmd.Printf("  Vault: %s\n", settings.Index.VaultPath)
	} else {
		cmd.Println("  Vault: (not set)")
	}
	cmd.Printf("  Passage size: %d characters\n", settings.Index.MaxPassageSize)
	cmd.Printf("  Debounce: %s\n", settings.Index.Debounce)
	if len(settings.Index.IgnoreFolders) > 0 {
		cmd.Printf("  Ignored folders: %s\n", strings.Join(settings.Index.IgnoreFolders, ", "))
	}
	cmd.Println()

	if !settings.Embedding.IsConfigured() {
		cmd.Println("The index is unavailable until an embedding provider is configured.")
		cmd.Println("Run 'semdex settings embedding' to set one up.")
	} else if settings.Index.VaultPath == "" {
		cmd.Println("No vault configured. Run 'semdex settings vault <path>'.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the provider
	cmd.Print("Validating configuration... ")
	if err := pingEmbeddingProvider(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		cmd.Println("Settings were saved; fix the provider and try again.")
		return nil
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println("Run 'semdex sync' to build the index with the new provider.")
	return nil
}

// pingEmbeddingProvider makes a lightweight request against the
// just-saved provider settings.
func pingEmbeddingProvider(ctx context.Context) error {
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	svc, err := buildEmbedder(settings.Embedding)
	if err != nil {
		return err
	}
	if svc == nil {
		return errors.New("provider not configured")
	}
	defer svc.Close() //nolint:errcheck

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return svc.Ping(pingCtx)
}

func runSettingsVault(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("vault path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", path)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Index.VaultPath = path

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Vault set to %s.\n", path)
	cmd.Println("Run 'semdex sync' to index it.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
