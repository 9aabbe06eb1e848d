package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string
	Port       string

	Environment string
	LogLevel    string

	// Event store: postgres, redis or memory.
	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	SnowflakeNode int64

	PipelinePollInterval time.Duration
	PipelineBatchSize    int
	PipelineMaxAttempts  int
	PipelineRateLimit    float64 // attempts per second, 0 disables limiting
	PipelineRateBurst    int
	PipelineStaleAfter   time.Duration
	RecoveryInterval     time.Duration

	CircuitBreakerEnabled bool
	CBFailureThreshold    int
	CBMinRequests         int
	CBRecoveryTime        time.Duration
	CBSamplingDuration    time.Duration
	CBHalfOpenMaxSuccess  int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "sagalog"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Port:        getenv("PORT", "8080"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),

		DBType:            strings.ToLower(strings.TrimSpace(getenv("DB_TYPE", "postgres"))),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "sagalog"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DB_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:      strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
		RedisPassword:  strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:        getenvInt("REDIS_DB", 0),
		RedisKeyPrefix: getenv("REDIS_KEY_PREFIX", "sagalog"),

		SnowflakeNode: getenvInt64("SNOWFLAKE_NODE", 1),

		PipelinePollInterval: getenvDuration("PIPELINE_POLL_INTERVAL", 5*time.Second),
		PipelineBatchSize:    getenvInt("PIPELINE_BATCH_SIZE", 10),
		PipelineMaxAttempts:  getenvInt("PIPELINE_MAX_ATTEMPTS", 5),
		PipelineRateLimit:    getenvFloat("PIPELINE_RATE_LIMIT", 0),
		PipelineRateBurst:    getenvInt("PIPELINE_RATE_BURST", 1),
		PipelineStaleAfter:   getenvDuration("PIPELINE_STALE_AFTER", 10*time.Minute),
		RecoveryInterval:     getenvDuration("RECOVERY_INTERVAL", time.Minute),

		CircuitBreakerEnabled: getenvBool("CIRCUIT_BREAKER_ENABLED", true),
		CBFailureThreshold:    getenvInt("CB_FAILURE_THRESHOLD", 5),
		CBMinRequests:         getenvInt("CB_MIN_REQUESTS", 10),
		CBRecoveryTime:        getenvDuration("CB_RECOVERY_TIME", time.Minute),
		CBSamplingDuration:    getenvDuration("CB_SAMPLING_DURATION", time.Minute),
		CBHalfOpenMaxSuccess:  getenvInt("CB_HALF_OPEN_MAX_SUCCESS", 3),
	}

	return &cfg
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("30s") or a bare number of seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
