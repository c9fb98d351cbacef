package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2480
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "dealdesk"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "UTC"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultIntakeBaseURL    = "http://localhost:2480"
	defaultIntakeExpiryDays = 7
	defaultIntakeMaxExpiry  = 30
	defaultNotifyWorkers    = 2
	defaultNotifyQueueSize  = 256
	defaultIntakePerMinute  = 30
	credentialKeyHexLength  = 64
)
