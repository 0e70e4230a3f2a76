package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Batch limit modes accepted by BATCH_LIMIT_MODE.
const (
	BatchLimitHard     = "hard"
	BatchLimitAdvisory = "advisory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	StoragePath      string
	HistoryCapacity  int
	HistoryMaxBytes  int
	GeoIPDBPath      string
	DefaultLocale    string
	GeminiAPIKey     string
	GeminiImageModel string
	GeminiTextModel  string
	GeminiBaseURL    string
	MaxBatchSize     int
	BatchLimitMode   string
	JobInterval      time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	BatchTTL         time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		HistoryCapacity:  getEnvInt("HISTORY_CAPACITY", 500),
		HistoryMaxBytes:  getEnvInt("HISTORY_MAX_BYTES", 0),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "pt"),
		GeminiAPIKey:     strings.TrimSpace(getEnv("GEMINI_API_KEY", os.Getenv("API_KEY"))),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		MaxBatchSize:     getEnvInt("MAX_BATCH_SIZE", 1000),
		BatchLimitMode:   strings.ToLower(getEnv("BATCH_LIMIT_MODE", BatchLimitHard)),
		JobInterval:      time.Millisecond * time.Duration(getEnvInt("JOB_INTERVAL_MS", 800)),
		RetryMaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 5),
		RetryBaseDelay:   time.Millisecond * time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 12000)),
		RetryMaxDelay:    time.Millisecond * time.Duration(getEnvInt("RETRY_MAX_DELAY_MS", 60000)),
		BatchTTL:         time.Minute * time.Duration(getEnvInt("BATCH_TTL_MINUTES", 60)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	switch cfg.BatchLimitMode {
	case BatchLimitHard, BatchLimitAdvisory:
	default:
		return nil, fmt.Errorf("BATCH_LIMIT_MODE must be %q or %q, got %q", BatchLimitHard, BatchLimitAdvisory, cfg.BatchLimitMode)
	}

	if cfg.RetryMaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

// UsesDatabase reports whether a Postgres backend is configured.
func (c *Config) UsesDatabase() bool {
	return c != nil && c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
