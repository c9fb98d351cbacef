package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 7*24*time.Hour, cfg.DefaultIntakeExpiry())
	assert.Equal(t, 30*24*time.Hour, cfg.MaxIntakeExpiry())
	assert.Equal(t, defaultNotifyWorkers, cfg.Notify.Workers)
	assert.Equal(t, defaultIntakePerMinute, cfg.RateLimit.IntakePerMinute)
	assert.Equal(t, "root:password@tcp(127.0.0.1:3306)/dealdesk?charset=utf8mb4&loc=UTC&parseTime=true", cfg.DSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestParseOverrides(t *testing.T) {
	content := `
port: 9000
env: Production
database:
  host: db.internal
  name: deals
  parse_time: false
redis_url: cache:6380/2
intake:
  base_url: https://deals.example.com/
  default_expiry_days: 3
rate_limit:
  intake_per_minute: 0
credential_key: ` + strings.Repeat("AB", 32) + `
`
	cfg, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "root:password@tcp(db.internal:3306)/deals?charset=utf8mb4&loc=UTC&parseTime=false", cfg.DSN)
	assert.Equal(t, "redis://cache:6380/2", cfg.RedisURL)
	assert.Equal(t, "https://deals.example.com", cfg.Intake.BaseURL)
	assert.Equal(t, 3, cfg.Intake.DefaultExpiryDays)
	assert.Equal(t, 30, cfg.Intake.MaxExpiryDays)
	assert.Equal(t, 0, cfg.RateLimit.IntakePerMinute)
	assert.Equal(t, strings.Repeat("ab", 32), cfg.CredentialKey)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "prot: 80\n"},
		{"port range", "port: 70000\n"},
		{"expiry order", "intake:\n  default_expiry_days: 40\n"},
		{"short key", "credential_key: abcd\n"},
		{"non hex key", "credential_key: " + strings.Repeat("zz", 32) + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8081\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir())

	abs := filepath.Join(dir, "elsewhere")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  logs: "+abs+"\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.LogDir())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
