package src

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PROMPT_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("FOURSQUARE_API_KEY", "fsq")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, 3000, cfg.Places.Radius)
	assert.Equal(t, 5, cfg.Places.Limit)
	assert.Equal(t, "2025-06-17", cfg.Places.APIVersion)
	assert.Equal(t, "restaurants", cfg.Vector.Namespace)
	assert.Equal(t, 2, cfg.Memory.MinTurns)

	// unprefixed fallbacks
	assert.Equal(t, "redis://cache:6379/1", cfg.Memory.RedisURL)
	assert.Equal(t, "fsq", cfg.Places.APIKey)

	assert.NotEmpty(t, cfg.Prompts.Persona)
	assert.NotEmpty(t, cfg.Prompts.Clarification)
}

func TestLoadConfigPrefixedOverrides(t *testing.T) {
	t.Setenv("PROMPT_FILE", "")
	t.Setenv("LLM_PROVIDER", "azure")
	t.Setenv("LLM_TEMPERATURE", "0.5")
	t.Setenv("SERVER_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "azure", cfg.LLM.Provider)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func validConfig() Config {
	var cfg Config
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "k"
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.APIKey = "k"
	cfg.Vector.Backend = "memory"
	cfg.Memory.Backend = "memory"
	cfg.Memory.MinTurns = 2
	cfg.Places.APIKey = "fsq"
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())

	missingPlaces := validConfig()
	missingPlaces.Places.APIKey = ""
	assert.ErrorContains(t, missingPlaces.Validate(), "FOURSQUARE_API_KEY")

	azure := validConfig()
	azure.LLM.Provider = "azure"
	assert.ErrorContains(t, azure.Validate(), "LLM_BASE_URL")

	local := validConfig()
	local.LLM.Provider = "ollama"
	local.LLM.APIKey = ""
	local.Embedding.Provider = "ollama"
	local.Embedding.APIKey = ""
	assert.NoError(t, local.Validate())

	badBackend := validConfig()
	badBackend.Memory.Backend = "sqlite"
	assert.ErrorContains(t, badBackend.Validate(), "MEMORY_BACKEND")
}
