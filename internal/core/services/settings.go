package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
	"github.com/custodia-labs/semdex/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyVaultPath      = "index.vault_path"
	keyDatabasePath   = "index.database_path"
	keyMaxPassageSize = "index.max_passage_size"
	keyDebounce       = "index.debounce"
	keyIgnoreFolders  = "index.ignore_folders"
)

// Environment variables consulted when no API key is stored.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	envSemdexAPIKey = "SEMDEX_OPENAI_API_KEY"
	envOpenAIAPIKey = "OPENAI_API_KEY"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings. A stored API key wins
// over the environment; SEMDEX_OPENAI_API_KEY wins over OPENAI_API_KEY.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.getAPIKey(),
		},
		Index: domain.IndexSettings{
			VaultPath:      s.configStore.GetString(keyVaultPath),
			DatabasePath:   s.configStore.GetString(keyDatabasePath),
			MaxPassageSize: s.getInt(keyMaxPassageSize, defaults.Index.MaxPassageSize),
			Debounce:       s.getDuration(keyDebounce, defaults.Index.Debounce),
			IgnoreFolders:  s.configStore.GetStringSlice(keyIgnoreFolders),
		},
	}

	// The model default follows the resolved provider.
	if settings.Embedding.Model == "" {
		if model, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = model
		}
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	// Save index settings
	if err := s.configStore.Set(keyVaultPath, settings.Index.VaultPath); err != nil {
		return fmt.Errorf("save vault path: %w", err)
	}
	if err := s.configStore.Set(keyDatabasePath, settings.Index.DatabasePath); err != nil {
		return fmt.Errorf("save database path: %w", err)
	}
	if err := s.configStore.Set(keyMaxPassageSize, settings.Index.MaxPassageSize); err != nil {
		return fmt.Errorf("save max passage size: %w", err)
	}
	if err := s.configStore.Set(keyDebounce, settings.Index.Debounce.String()); err != nil {
		return fmt.Errorf("save debounce: %w", err)
	}
	if len(settings.Index.IgnoreFolders) > 0 {
		if err := s.configStore.Set(keyIgnoreFolders, settings.Index.IgnoreFolders); err != nil {
			return fmt.Errorf("save ignore folders: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	validProviders := domain.AllEmbeddingProviders()
	valid := false
	for _, p := range validProviders {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required; the environment may already carry one
	if provider.RequiresAPIKey() && apiKey == "" && s.getAPIKey() == "" {
		return fmt.Errorf("API key required for %s (pass one explicitly or set %s)", provider, envSemdexAPIKey)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		defaults := domain.DefaultEmbeddingModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.Embedding.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	// Set API key
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// EmbeddingConfigured reports whether the embedding provider is usable.
// A cloud provider without an API key anywhere leaves the whole index
// unavailable.
func (s *SettingsService) EmbeddingConfigured() bool {
	settings, err := s.Get()
	if err != nil {
		return false
	}
	return settings.Embedding.IsConfigured()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getAPIKey() string {
	if key := s.configStore.GetString(keyEmbedAPIKey); key != "" {
		return key
	}
	if key := os.Getenv(envSemdexAPIKey); key != "" {
		return key
	}
	return os.Getenv(envOpenAIAPIKey)
}
