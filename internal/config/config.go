package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server configuration read from the environment.
type Config struct {
	Port        string
	Environment string
	BaseURL     string

	DatabaseURL string
	JWTSecret   string

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	ElasticsearchURL string

	StreamAPIKey    string
	StreamAPISecret string
	NotifyInterval  time.Duration

	OTelEnabled      bool
	OTelEndpoint     string
	OTelSamplingRate float64

	LogLevel string
	LogFile  string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	JobWorkers int
	JobBuffer  int
	JobTimeout time.Duration

	// Full origins (https://app.example.com) allowed for CORS and live
	// subscriptions. Empty allows any origin.
	AllowedOrigins    []string
	RealtimePingEvery time.Duration
}

// Load reads configuration from environment variables.
// REQUIRED environment variables:
// - JWT_SECRET: HMAC secret shared with the auth service
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8787"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8787"),

		DatabaseURL: BuildDatabaseURL(),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),

		StreamAPIKey:    os.Getenv("STREAM_API_KEY"),
		StreamAPISecret: os.Getenv("STREAM_API_SECRET"),
		NotifyInterval:  getDuration("NOTIFY_INTERVAL", 15*time.Second),

		OTelEnabled:      getBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelSamplingRate: getFloat("OTEL_SAMPLING_RATE", 1.0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "server.log"),

		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", time.Minute),

		JobWorkers: getInt("JOB_WORKERS", 0),
		JobBuffer:  getInt("JOB_BUFFER", 256),
		JobTimeout: getDuration("JOB_TIMEOUT", 30*time.Second),

		AllowedOrigins:    getList("ALLOWED_ORIGINS"),
		RealtimePingEvery: getDuration("REALTIME_PING_PERIOD", 54*time.Second),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", cfg.RateLimitRequests)
	}

	return cfg, nil
}

// BuildDatabaseURL returns DATABASE_URL, or a DSN assembled from the DB_* variables.
func BuildDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_NAME", "snapshelf"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// StreamEnabled reports whether GetStream credentials are configured.
func (c *Config) StreamEnabled() bool {
	return c.StreamAPIKey != "" && c.StreamAPISecret != ""
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping empty entries
func getList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
