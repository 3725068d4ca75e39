package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, "fixed", cfg.InventoryDriver)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.SMTPAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PROVIDER_TIMEOUT", "5")
	t.Setenv("RATE_LIMIT", "60")
	t.Setenv("INVENTORY_DRIVER", "sqlite3")
	t.Setenv("INVENTORY_DSN", "file:books.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, "sqlite3", cfg.InventoryDriver)
	assert.Equal(t, "file:books.db", cfg.InventoryDSN)
}

func TestLoadRequiresProviderKey(t *testing.T) {
	t.Setenv("PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresDSNForSQLDrivers(t *testing.T) {
	t.Setenv("INVENTORY_DRIVER", "postgres")
	t.Setenv("INVENTORY_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVENTORY_DSN")
}
