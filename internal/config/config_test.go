package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "water-samples.ingest", cfg.Kafka.IngestTopic)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 2500*time.Millisecond, cfg.Analysis.Delay())
	assert.Equal(t, 10<<20, cfg.Analysis.MaxPayloadBytes)
	assert.Equal(t, 30, cfg.Analysis.TrendWindowDays)
	assert.Equal(t, "0 8 * * *", cfg.Digest.Schedule)

	// development fills in throwaway secrets
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.NotEmpty(t, cfg.JWT.RefreshSecret)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
database:
  driver: sqlite
  path: /tmp/aquascan-test.db
analysis:
  delay_ms: 0
  random_seed: 42
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/aquascan-test.db", cfg.Database.GetDSN())
	assert.Equal(t, time.Duration(0), cfg.Analysis.Delay())
	assert.Equal(t, uint64(42), cfg.Analysis.RandomSeed)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("Should reject an unknown driver", func(t *testing.T) {
		t.Setenv("AQUASCAN_DATABASE_DRIVER", "mysql")

		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("Should require secrets outside development", func(t *testing.T) {
		t.Setenv("AQUASCAN_SERVER_ENVIRONMENT", "production")

		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "JWT secret")
	})

	t.Run("Should reject a negative delay", func(t *testing.T) {
		t.Setenv("AQUASCAN_ANALYSIS_DELAY_MS", "-1")

		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_PostgresDSN(t *testing.T) {
	c := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "aquascan", SSLMode: "disable", TimeZone: "UTC"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=aquascan sslmode=disable TimeZone=UTC", c.GetDSN())
}
