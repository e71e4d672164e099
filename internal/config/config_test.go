package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petsnapshot/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileMergesOntoDefaults(t *testing.T) {
	path := writeConfig(t, `
petfinder:
  apiKey: file-key
  apiSecret: file-secret
  tokenSafetyMargin: 45s
  rateLimitRetry:
    maxRetries: 8
resources:
  animals:
    maxPages: 3
    params:
      location: "tampa, fl"
scheduler:
  cronExpression: "30 5 * * *"
  timezone: America/New_York
logging:
  format: json
`)
	t.Setenv(apiKeyEnv, "")
	t.Setenv(logLevelEnv, "")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Petfinder.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Petfinder.TokenSafetyMargin)
	assert.Equal(t, 8, cfg.Petfinder.RateLimitRetry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Petfinder.RateLimitRetry.BaseDelay)
	assert.Equal(t, "https://api.petfinder.com/v2", cfg.Petfinder.BaseURL)

	animals := cfg.Resource(domain.KindAnimals)
	assert.Equal(t, 3, animals.MaxPages)
	assert.Equal(t, 100, animals.PageSize)
	assert.Equal(t, map[string]string{"location": "tampa, fl"}, animals.Params)
	assert.Equal(t, 10, cfg.Resource(domain.KindOrganizations).MaxPages)

	assert.Equal(t, "30 5 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "America/New_York", cfg.Scheduler.Location().String())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
petfinder:
  apiKey: file-key
database:
  dsn: file.db
`)
	t.Setenv(apiKeyEnv, "env-key")
	t.Setenv(apiSecretEnv, "env-secret")
	t.Setenv(databaseDSNEnv, "postgres://localhost/pets")
	t.Setenv(databaseDriverEnv, "pgx")
	t.Setenv(outputDirEnv, "/tmp/snapshots")
	t.Setenv(telegramTokenEnv, "bot")
	t.Setenv(telegramChatIDEnv, "chat")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Petfinder.APIKey)
	assert.Equal(t, "env-secret", cfg.Petfinder.APISecret)
	assert.Equal(t, "postgres://localhost/pets", cfg.Database.DSN)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "/tmp/snapshots", cfg.Output.Dir)
	assert.True(t, cfg.Notifications.Telegram.Enabled())
}

func TestLoadFallsBackOnUnreadableFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(apiKeyEnv, "")

	cfg := Load()
	assert.Equal(t, defaultConfig().Petfinder.BaseURL, cfg.Petfinder.BaseURL)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadFileReportsParseErrors(t *testing.T) {
	path := writeConfig(t, "petfinder: [not, a, map]")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	path := writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestValidateReportsMissingCredentials(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), apiKeyEnv)
	assert.Contains(t, err.Error(), apiSecretEnv)

	cfg.Petfinder.APIKey, cfg.Petfinder.APISecret = "k", "s"
	cfg.Output.Dir, cfg.Database.DSN = "", ""
	assert.ErrorContains(t, cfg.Validate(), "no snapshot destination")
}
