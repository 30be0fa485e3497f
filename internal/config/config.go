package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Per-client write allowance
	RateLimitPerMinute int
	RateLimitWindow    time.Duration

	// Backend selection: memory, sqlite or firestore
	DataBackend string

	// Memory
	SeedFile string

	// SQLite
	SQLiteDBPath string

	// Firestore
	FirestoreProjectID string

	// Google (Firestore credentials and report export)
	GoogleCredentialsFile string
	GoogleSpreadsheetID   string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Redis import markers; empty address keeps markers in process
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Store retries
	StoreRetryAttempts  int
	StoreRetryBaseDelay time.Duration
	StoreRetryMaxDelay  time.Duration

	// Import
	ImportConcurrency int
	ImportMarkerTTL   time.Duration

	// Worker
	ExportInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitWindow:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		SeedFile:     getEnv("SEED_FILE", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bookkeep.db"),

		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),

		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bookkeep"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_exports"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StoreRetryAttempts:  getEnvInt("STORE_RETRY_ATTEMPTS", 3),
		StoreRetryBaseDelay: getEnvDuration("STORE_RETRY_BASE_DELAY", 100*time.Millisecond),
		StoreRetryMaxDelay:  getEnvDuration("STORE_RETRY_MAX_DELAY", 2*time.Second),

		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 4),
		ImportMarkerTTL:   getEnvDuration("IMPORT_MARKER_TTL", 30*24*time.Hour),

		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 15*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// problems collects every configuration fault found by Validate.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(p, "\n- "))
}

var backends = []string{"memory", "sqlite", "firestore"}

// Validate reports every invalid setting in one error.
func (c *Config) Validate() error {
	var p problems
	c.checkServer(&p)
	c.checkBackend(&p)
	c.checkMessaging(&p)
	c.checkTuning(&p)
	c.checkLogging(&p)
	return p.err()
}

func (c *Config) checkServer(p *problems) {
	port, err := strconv.Atoi(c.Port)
	switch {
	case err != nil:
		p.addf("invalid port '%s': must be a number", c.Port)
	case port < 1 || port > 65535:
		p.addf("invalid port %d: must be between 1 and 65535", port)
	}
	if c.RateLimitPerMinute < 1 {
		p.addf("invalid rate limit %d: must be at least 1 request per window", c.RateLimitPerMinute)
	}
	if c.RateLimitWindow < time.Second {
		p.addf("invalid rate limit window %v: must be at least 1 second", c.RateLimitWindow)
	}
}

func (c *Config) checkBackend(p *problems) {
	if !slices.Contains(backends, c.DataBackend) {
		p.addf("invalid data backend '%s': must be one of %v", c.DataBackend, backends)
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			p.addf("SQLite database path cannot be empty when using sqlite backend")
			break
		}
		if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				p.addf("cannot create SQLite database directory '%s': %v", dir, err)
			}
		}
	case "firestore":
		if c.FirestoreProjectID == "" {
			p.addf("Firestore project ID is required when using firestore backend")
		}
	}

	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			p.addf("Google credentials file does not exist: %s", c.GoogleCredentialsFile)
		}
	}
	if c.RedisDB < 0 {
		p.addf("invalid redis db %d: must not be negative", c.RedisDB)
	}
}

func (c *Config) checkMessaging(p *problems) {
	if c.AMQPURL == "" {
		return
	}
	u, err := url.Parse(c.AMQPURL)
	if err != nil {
		p.addf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
	} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
		p.addf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
	}
	if c.AMQPExchange == "" {
		p.addf("AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		p.addf("AMQP queue name cannot be empty when AMQP URL is provided")
	}
}

func (c *Config) checkTuning(p *problems) {
	if c.StoreRetryAttempts < 1 || c.StoreRetryAttempts > 10 {
		p.addf("invalid store retry attempts %d: must be between 1 and 10", c.StoreRetryAttempts)
	}
	if c.StoreRetryBaseDelay <= 0 {
		p.addf("invalid store retry base delay %v: must be positive", c.StoreRetryBaseDelay)
	} else if c.StoreRetryMaxDelay < c.StoreRetryBaseDelay {
		p.addf("invalid store retry max delay %v: must be at least the base delay %v", c.StoreRetryMaxDelay, c.StoreRetryBaseDelay)
	}

	switch {
	case c.ImportConcurrency < 1:
		p.addf("invalid import concurrency %d: must be at least 1", c.ImportConcurrency)
	case c.ImportConcurrency > 64:
		p.addf("invalid import concurrency %d: must be at most 64", c.ImportConcurrency)
	}
	if c.ImportMarkerTTL < time.Minute {
		p.addf("invalid import marker ttl %v: must be at least 1 minute", c.ImportMarkerTTL)
	}

	switch {
	case c.ExportInterval < time.Second:
		p.addf("invalid export interval %v: must be at least 1 second", c.ExportInterval)
	case c.ExportInterval > 24*time.Hour:
		p.addf("invalid export interval %v: must be at most 24 hours", c.ExportInterval)
	}
}

func (c *Config) checkLogging(p *problems) {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		p.addf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		p.addf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
