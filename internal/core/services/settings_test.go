package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/semdex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/semdex/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)

	// Verify defaults
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Index.MaxPassageSize, settings.Index.MaxPassageSize)
	assert.Equal(t, defaults.Index.Debounce, settings.Index.Debounce)
	assert.Empty(t, settings.Index.VaultPath)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("index.vault_path", "/home/user/vault")
	_ = store.Set("index.max_passage_size", 2000)
	_ = store.Set("index.debounce", "5s")
	_ = store.Set("index.ignore_folders", []string{"archive", "templates"})

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "/home/user/vault", settings.Index.VaultPath)
	assert.Equal(t, 2000, settings.Index.MaxPassageSize)
	assert.Equal(t, 5*time.Second, settings.Index.Debounce)
	assert.Equal(t, []string{"archive", "templates"}, settings.Index.IgnoreFolders)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("index.debounce", "not-a-duration")

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	// Invalid values should fall back to defaults
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Index.Debounce, settings.Index.Debounce)
}

func TestSettingsService_Get_ModelDefaultFollowsProvider(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "ollama")

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "env-key-semdex")
	t.Setenv("OPENAI_API_KEY", "env-key-openai")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "env-key-semdex", settings.Embedding.APIKey)

	// Stored key wins over the environment
	_ = store.Set("embedding.api_key", "stored-key")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "stored-key", settings.Embedding.APIKey)
}

func TestSettingsService_Get_APIKeyEnvFallbackOrder(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "generic-key")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "generic-key", settings.Embedding.APIKey)
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		},
		Index: domain.IndexSettings{
			VaultPath:      "/notes",
			DatabasePath:   "/notes/.index.db",
			MaxPassageSize: 3000,
			Debounce:       4 * time.Second,
			IgnoreFolders:  []string{"archive"},
		},
	}

	err := service.Save(settings)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, "text-embedding-3-small", store.GetString("embedding.model"))
	assert.Equal(t, "sk-test", store.GetString("embedding.api_key"))
	assert.Equal(t, "/notes", store.GetString("index.vault_path"))
	assert.Equal(t, "/notes/.index.db", store.GetString("index.database_path"))
	assert.Equal(t, 3000, store.GetInt("index.max_passage_size"))
	assert.Equal(t, "4s", store.GetString("index.debounce"))
	assert.Equal(t, []string{"archive"}, store.GetStringSlice("index.ignore_folders"))
}

func TestSettingsService_Save_EmptyAPIKeyPreservesStored(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.api_key", "existing-key")

	service := NewSettingsService(store)

	settings, err := service.Get()
	require.NoError(t, err)

	settings.Embedding.APIKey = ""
	require.NoError(t, service.Save(settings))

	assert.Equal(t, "existing-key", store.GetString("embedding.api_key"))
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.SetEmbeddingProvider(domain.AIProviderOllama, "", "")
	require.NoError(t, err)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test")
	require.NoError(t, err)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_RequiresAPIKey(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetEmbeddingProvider_EnvKeySatisfiesRequirement(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "env-key")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	require.NoError(t, err)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "env-key", settings.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider_Invalid(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.SetEmbeddingProvider(domain.AIProvider("banana"), "", "")
	assert.Error(t, err)
}

func TestSettingsService_EmbeddingConfigured(t *testing.T) {
	t.Setenv("SEMDEX_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	// Nothing configured yet
	assert.False(t, service.EmbeddingConfigured())

	// Ollama needs no key
	_ = store.Set("embedding.provider", "ollama")
	assert.True(t, service.EmbeddingConfigured())

	// OpenAI without a key is unusable
	_ = store.Set("embedding.provider", "openai")
	assert.False(t, service.EmbeddingConfigured())

	// A key makes it usable
	_ = store.Set("embedding.api_key", "sk-test")
	assert.True(t, service.EmbeddingConfigured())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	defaults := service.GetDefaults()
	assert.Equal(t, 4000, defaults.Index.MaxPassageSize)
	assert.Equal(t, 2*time.Second, defaults.Index.Debounce)
	assert.False(t, defaults.Embedding.IsConfigured())
}
