package driving

import "github.com/custodia-labs/semdex/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// EmbeddingConfigured reports whether the embedding provider is
	// usable; false means the index is unavailable.
	EmbeddingConfigured() bool

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
