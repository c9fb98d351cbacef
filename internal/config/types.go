package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	CredentialKey  string                `yaml:"credential_key"` // hex, 32 bytes
	Intake         IntakeConfig          `yaml:"intake"`
	Notify         NotifyConfig          `yaml:"notify"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`

	// baseDir is the directory of the loaded file; relative paths resolve
	// against it.
	baseDir string
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// IntakeConfig controls single-use intake links.
type IntakeConfig struct {
	// BaseURL prefixes the shareable link, e.g. https://deals.example.com.
	BaseURL           string `yaml:"base_url"`
	DefaultExpiryDays int    `yaml:"default_expiry_days"`
	MaxExpiryDays     int    `yaml:"max_expiry_days"`
}

// NotifyConfig sizes the background fan-out queue.
type NotifyConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type RateLimitConfig struct {
	// IntakePerMinute caps public intake requests per client IP. Zero disables.
	IntakePerMinute int `yaml:"intake_per_minute"`
}
