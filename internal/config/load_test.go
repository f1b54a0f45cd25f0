package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfigWithName("nonexistent_config_file")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int32(20), cfg.Postgres.MaxConns)
	assert.Equal(t, "migrations/postgres", cfg.Postgres.MigrationsPath)
	assert.Equal(t, "settlement_events", cfg.Kafka.EventTopic)
	assert.Equal(t, "energy_settlement", cfg.MongoDB.Database)
	assert.False(t, cfg.Ledger.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Ledger.CallTimeout)
	assert.Equal(t, 8, cfg.Credentials.MinPasswordLength)
	assert.False(t, cfg.Credentials.AllowFirstLoginBootstrap)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WORKER_POOL_SIZE", "4")
	t.Setenv("CREDENTIALS_ALLOW_FIRST_LOGIN_BOOTSTRAP", "true")

	cfg, err := LoadConfigWithName("nonexistent_config_file")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.True(t, cfg.Credentials.AllowFirstLoginBootstrap)
}

func TestLoadConfig_LedgerEnabledRequiresEndpoint(t *testing.T) {
	t.Setenv("LEDGER_ENABLED", "true")

	_, err := LoadConfigWithName("nonexistent_config_file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_NODE_URL")
	assert.Contains(t, err.Error(), "LEDGER_ASSET_ID")
}

func TestLoadConfig_LedgerEnabledComplete(t *testing.T) {
	t.Setenv("LEDGER_ENABLED", "true")
	t.Setenv("LEDGER_NODE_URL", "http://localhost:7546")
	t.Setenv("LEDGER_ASSET_ID", "0.0.5561234")
	t.Setenv("LEDGER_TREASURY_ACCOUNT_ID", "0.0.1002")
	t.Setenv("LEDGER_TREASURY_KEY", "302e0201...")

	cfg, err := LoadConfigWithName("nonexistent_config_file")
	require.NoError(t, err)

	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, "0.0.5561234", cfg.Ledger.AssetID)
	assert.Equal(t, int64(10), cfg.Ledger.InitialStake)
}

func TestConfig_ValidateFailures(t *testing.T) {
	cfg := &Config{}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "POSTGRES_URL")
	assert.Contains(t, err.Error(), "WORKER_POOL_SIZE")
}
