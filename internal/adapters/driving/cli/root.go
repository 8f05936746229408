package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/semdex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/semdex/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/semdex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/semdex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/semdex/internal/chunker"
	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
	"github.com/custodia-labs/semdex/internal/core/ports/driving"
	"github.com/custodia-labs/semdex/internal/core/services"
	"github.com/custodia-labs/semdex/internal/corpus"
	"github.com/custodia-labs/semdex/internal/logger"
)

var version = "dev"

var (
	configDir string
	verbose   bool
)

// Services wired by initServices before a command runs. Tests swap
// these for stubs and set servicesWired to bypass the real wiring.
var (
	settingsService driving.SettingsService
	syncService     driving.SyncService
	queryService    driving.QueryService
	vectorStore     driven.VectorStore
	embedder        driven.EmbeddingService
	servicesWired   bool
)

var rootCmd = &cobra.Command{
	Use:   "semdex",
	Short: "Semantic index over a folder of notes",
	Long: `Semdex maintains an incremental semantic index over a folder of
Markdown and plain-text documents. Files are split into passages,
embedded, and stored in a local SQLite database; a filesystem watcher
keeps the index current as the folder changes.

Configure an embedding provider first:
  semdex settings embedding

Then point it at a folder and index it:
  semdex settings vault ~/notes
  semdex sync`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

// Execute runs the CLI and tears down whatever initServices wired up.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.semdex)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// skipIndexInit reports whether the command runs on the config layer
// alone. Settings and metadata commands must work before a vault or
// provider exists.
func skipIndexInit(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion", "settings":
			return true
		}
	}
	return false
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if servicesWired {
		return nil
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService = services.NewSettingsService(configStore)

	if skipIndexInit(cmd) {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.Index.DatabasePath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	vectorStore = store

	embedder, err = buildEmbedder(settings.Embedding)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	if embedder == nil {
		logger.Warn("No embedding provider configured; run 'semdex settings embedding'")
	}

	if settings.Index.VaultPath != "" {
		vault, err := corpus.New(settings.Index.VaultPath,
			corpus.WithIgnoreFolders(settings.Index.IgnoreFolders...))
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}
		splitter := chunker.New(chunker.WithMaxPassageSize(settings.Index.MaxPassageSize))
		indexer := services.NewIndexer(vault, vectorStore, embedder, splitter)
		syncService = services.NewSyncCoordinator(vault, vectorStore, indexer, settings.Index.Debounce)
	}

	var progress func() domain.SyncProgress
	if syncService != nil {
		progress = syncService.Progress
	}
	queryService = services.NewQueryService(vectorStore, embedder, progress)

	servicesWired = true
	return nil
}

// buildEmbedder constructs the configured provider's client, or nil
// when none is configured.
func buildEmbedder(emb domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !emb.IsConfigured() {
		return nil, nil
	}
	switch emb.Provider {
	case domain.AIProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  emb.APIKey,
			BaseURL: emb.BaseURL,
			Model:   emb.Model,
		})
	case domain.AIProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: emb.BaseURL,
			Model:   emb.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", emb.Provider)
	}
}

func closeServices() {
	// The coordinator owns the corpus and closes it.
	if syncService != nil {
		_ = syncService.Close()
	}
	if embedder != nil {
		_ = embedder.Close()
	}
	if vectorStore != nil {
		_ = vectorStore.Close()
	}
}
