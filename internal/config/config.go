package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	HTTPAddr           string
	CORSOrigins        []string
	RateLimitPerMinute int

	// Database
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Object storage
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	S3UseSSL     bool
	ResumeURLTTL time.Duration

	// Sessions
	SessionTTL time.Duration

	// Telegram (optional)
	TelegramToken string
	PublicURL     string

	// Workers
	ExpireInterval time.Duration

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		HTTPAddr:           ":8080",
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: 120,
		RedisAddr:          "localhost:6379",
		S3Endpoint:         "localhost:9000",
		S3Bucket:           "resumes",
		ResumeURLTTL:       time.Hour,
		SessionTTL:         7 * 24 * time.Hour,
		ExpireInterval:     15 * time.Minute,
		LogLevel:           "info",
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if limit := os.Getenv("RATE_LIMIT_PER_MINUTE"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.S3Endpoint = endpoint
	}

	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		cfg.S3Bucket = bucket
	}

	if useSSL := os.Getenv("S3_USE_SSL"); useSSL != "" {
		b, err := strconv.ParseBool(useSSL)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_USE_SSL: %w", err)
		}
		cfg.S3UseSSL = b
	}

	var err error
	if cfg.ResumeURLTTL, err = durationEnv("RESUME_URL_TTL", cfg.ResumeURLTTL); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.ExpireInterval, err = durationEnv("EXPIRE_INTERVAL", cfg.ExpireInterval); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.PublicURL = strings.TrimRight(os.Getenv("PUBLIC_URL"), "/")

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is empty")
	}

	if c.S3AccessKey == "" || c.S3SecretKey == "" {
		return fmt.Errorf("object storage credentials are empty")
	}

	if c.S3Bucket == "" {
		return fmt.Errorf("object storage bucket is empty")
	}

	if c.SessionTTL < time.Minute {
		return fmt.Errorf("session ttl too small: %v", c.SessionTTL)
	}

	if c.ExpireInterval < time.Minute {
		return fmt.Errorf("expire interval too small: %v", c.ExpireInterval)
	}

	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		return fmt.Errorf("rate limit per minute must be between 1 and 10000")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// TelegramEnabled reports whether the notifier bot should be started
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// DashboardURL is linked from bot messages; empty when PUBLIC_URL is unset
func (c *Config) DashboardURL() string {
	if c.PublicURL == "" {
		return ""
	}
	return c.PublicURL + "/dashboard"
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
