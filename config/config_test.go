package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "plateful", cfg.DBName)
	assert.Equal(t, 1, cfg.MinCookingTime)
	assert.Equal(t, 32000, cfg.MaxCookingTime)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, 3, cfg.RecipesLimit)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("PAGE_SIZE", "20")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "5433", cfg.DBPort)
	assert.Equal(t, 20, cfg.PageSize)
}

func TestSecretsOverrideEnvironment(t *testing.T) {
	secretsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "db_password"), []byte("from-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "jwt_secret"), []byte("secret-jwt"), 0o600))

	t.Setenv("SECRETS_DIR", secretsDir)
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-secret", cfg.DBPassword)
	assert.Equal(t, "secret-jwt", cfg.JWTSecret)
}

func TestValidateBounds(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("MIN_COOKING_TIME", "10")
	t.Setenv("MAX_COOKING_TIME", "5")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooking time bounds")
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "pass",
		DBName:     "plateful",
		DBSSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pass dbname=plateful sslmode=disable",
		cfg.DSN())
}
