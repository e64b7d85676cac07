package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/constants"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// TestLoadConfig verifies defaults.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "auto", config.LogFormat)
	assert.NotEmpty(t, config.DBPath)
	assert.InDelta(t, constants.DefaultTemperature, config.Temperature, 1e-9)
	assert.Equal(t, constants.SourceMaxChars, config.SourceMaxChars)
	assert.Equal(t, constants.DefaultLockTTL, config.LockTTL)
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "mistral")
	t.Setenv("MISTRAL_API_KEY", "secret")
	t.Setenv("TIMELINES", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOCK_TTL", "90s")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mistral", config.ModelProvider)
	assert.Equal(t, "secret", config.MistralAPIKey)
	assert.True(t, config.Timelines)
	assert.Equal(t, "redis://localhost:6379/0", config.RedisURL)
	assert.Equal(t, 90*time.Second, config.LockTTL)
	assert.Equal(t, constants.DefaultMistralModel, config.ResolvedModelName())
}

func TestConfig_GeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "google-key", config.GeminiAPIKey)
}

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml", LogLevel: "warn"}
	c.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "warn", c.LogLevel)

	c.UpdateFromFlags(false, false, false, "json", "debug")
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "debug", c.LogLevel)
}
