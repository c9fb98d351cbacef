package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type rawAppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"`
	DSN            string             `yaml:"dsn"`
	RedisURL       string             `yaml:"redis_url"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          RedisRuntimeConfig `yaml:"redis"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	CredentialKey  string             `yaml:"credential_key"`
	Intake         IntakeConfig       `yaml:"intake"`
	Notify         NotifyConfig       `yaml:"notify"`
	RateLimit      *RateLimitConfig   `yaml:"rate_limit"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := loadEnvFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}

	cfg, err := ParseWithEnv(content, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes YAML config content on top of the defaults. Unknown keys are
// rejected.
func Parse(content []byte) (*AppConfig, error) {
	return ParseWithEnv(content, nil)
}

// ParseWithEnv is Parse followed by the DEALDESK_* overrides from lookup.
func ParseWithEnv(content []byte, lookup LookupFunc) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if err := applyEnvOverrides(&raw, lookup); err != nil {
		return nil, err
	}

	applyRawAppConfig(&cfg, raw)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.Intake.DefaultExpiryDays > c.Intake.MaxExpiryDays {
		return fmt.Errorf("intake.default_expiry_days %d exceeds intake.max_expiry_days %d",
			c.Intake.DefaultExpiryDays, c.Intake.MaxExpiryDays)
	}
	if c.RateLimit.IntakePerMinute < 0 {
		return fmt.Errorf("invalid rate_limit.intake_per_minute %d, expected >= 0", c.RateLimit.IntakePerMinute)
	}
	if c.CredentialKey != "" {
		if len(c.CredentialKey) != credentialKeyHexLength {
			return fmt.Errorf("credential_key must be %d hex characters", credentialKeyHexLength)
		}
		if _, err := hex.DecodeString(c.CredentialKey); err != nil {
			return fmt.Errorf("credential_key: %w", err)
		}
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			ParseTime: true,
		},
		Redis: RedisRuntimeConfig{
			DB: defaultRedisDB,
		},
		RateLimit: RateLimitConfig{IntakePerMinute: defaultIntakePerMinute},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.Intake = normalizeIntakeConfig(cfg.Intake)
	cfg.Notify = normalizeNotifyConfig(cfg.Notify)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}

	db := DatabaseRuntimeConfig{
		DSN:       raw.Database.DSN,
		Host:      raw.Database.Host,
		Port:      raw.Database.Port,
		User:      raw.Database.User,
		Password:  raw.Database.Password,
		Name:      raw.Database.Name,
		Charset:   raw.Database.Charset,
		ParseTime: cfg.Database.ParseTime,
		Loc:       raw.Database.Loc,
		Params:    raw.Database.Params,
	}
	if raw.Database.ParseTime != nil {
		db.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		db.DSN = v
	}
	cfg.Database = normalizeDatabaseConfig(db)

	rdb := raw.Redis
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		rdb.URL = v
	}
	cfg.Redis = normalizeRedisConfig(rdb)

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(raw.CredentialKey); v != "" {
		cfg.CredentialKey = strings.ToLower(v)
	}
	cfg.Intake = normalizeIntakeConfig(raw.Intake)
	cfg.Notify = normalizeNotifyConfig(raw.Notify)
	if raw.RateLimit != nil {
		cfg.RateLimit = *raw.RateLimit
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = normalizeEnv(cfg.Env)
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// LogDir is paths.logs, or "logs" next to the config file.
func (c *AppConfig) LogDir() string {
	if c == nil {
		return resolvePath("", "", defaultLogSubdir)
	}
	return resolvePath(c.baseDir, c.Paths.Logs, defaultLogSubdir)
}

// DefaultIntakeExpiry is the link lifetime used when the caller gives none.
func (c *AppConfig) DefaultIntakeExpiry() time.Duration {
	return time.Duration(c.Intake.DefaultExpiryDays) * 24 * time.Hour
}

// MaxIntakeExpiry caps caller-supplied link lifetimes.
func (c *AppConfig) MaxIntakeExpiry() time.Duration {
	return time.Duration(c.Intake.MaxExpiryDays) * 24 * time.Hour
}
