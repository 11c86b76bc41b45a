package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "arledger", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, 0.01, cfg.Reconciliation.Epsilon)
	assert.Equal(t, 0.15, cfg.Reconciliation.TolerancePercent)
	assert.Equal(t, 500.0, cfg.Reconciliation.ToleranceFloor)
	assert.Equal(t, 3, cfg.Reconciliation.MaxCombinationSize)
	assert.Equal(t, 5, cfg.Reconciliation.MaxSuggestions)
	assert.True(t, cfg.Reconciliation.IdempotencyEnabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ARLEDGER_APP_PORT", "9090")
	t.Setenv("ARLEDGER_DATABASE_HOST", "db.internal")
	t.Setenv("ARLEDGER_RECONCILIATION_MAX_SUGGESTIONS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 10, cfg.Reconciliation.MaxSuggestions)
}

func TestProductionValidation(t *testing.T) {
	t.Setenv("ARLEDGER_APP_ENV", "production")

	t.Run("short jwt secret rejected", func(t *testing.T) {
		t.Setenv("ARLEDGER_JWT_SECRET", "short")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("disabled sslmode rejected", func(t *testing.T) {
		t.Setenv("ARLEDGER_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("ARLEDGER_DATABASE_PASSWORD", "secret")
		t.Setenv("ARLEDGER_DATABASE_SSLMODE", "disable")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("complete production config accepted", func(t *testing.T) {
		t.Setenv("ARLEDGER_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("ARLEDGER_DATABASE_PASSWORD", "secret")
		t.Setenv("ARLEDGER_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "arledger",
		Password: "p@ss word",
		DBName:   "arledger",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Credentials with special characters survive URL encoding
	assert.NotContains(t, dsn, "p@ss word")
}

func TestValidateTunables(t *testing.T) {
	t.Setenv("ARLEDGER_RECONCILIATION_EPSILON", "0")
	_, err := Load()
	assert.Error(t, err)
}
