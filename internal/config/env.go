package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables override the matching YAML keys. Secrets belong
// here rather than in the committed config file.
const (
	EnvFile          = "ENV_FILE"
	EnvEnv           = "DEALDESK_ENV"
	EnvPort          = "DEALDESK_PORT"
	EnvDSN           = "DEALDESK_DSN"
	EnvRedisURL      = "DEALDESK_REDIS_URL"
	EnvJWTSecret     = "DEALDESK_JWT_SECRET"
	EnvCredentialKey = "DEALDESK_CREDENTIAL_KEY"
	EnvIntakeBaseURL = "DEALDESK_INTAKE_BASE_URL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env from
// dir. Variables already in the process environment win; missing files are
// ignored.
func loadEnvFiles(dir string) error {
	if file := os.Getenv(EnvFile); file != "" {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func applyEnvOverrides(raw *rawAppConfig, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		raw.Port = port
	}
	if v, ok := get(EnvEnv); ok {
		raw.Env = v
	}
	if v, ok := get(EnvDSN); ok {
		raw.DSN = v
	}
	if v, ok := get(EnvRedisURL); ok {
		raw.RedisURL = v
	}
	if v, ok := get(EnvJWTSecret); ok {
		raw.JWTSecret = v
	}
	if v, ok := get(EnvCredentialKey); ok {
		raw.CredentialKey = v
	}
	if v, ok := get(EnvIntakeBaseURL); ok {
		raw.Intake.BaseURL = v
	}
	return nil
}
