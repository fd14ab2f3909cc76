package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAPTILER_KEY", "test-key")
	t.Setenv("POSTGRES_CONN_STR", "host=localhost user=eco dbname=ecopost")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "test-key", cfg.MapTilerKey)
	assert.Equal(t, "host=localhost user=eco dbname=ecopost", cfg.PostgresUrl)
}
