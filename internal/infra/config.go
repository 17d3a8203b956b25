package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv    string
	Port      string
	APIPrefix string

	DatabaseURL string
	GeoIPDBPath string

	LLMAPIKey     string
	LLMAPIBase    string
	LLMImageModel string
	LLMTimeout    time.Duration

	ImageOutputDir    string
	DefaultTextLocale string

	BatchDefaultWorkers int
	BatchMaxWorkers     int
	BatchMaxConcurrent  int
	BatchCleanupHours   int
	BatchWaitTimeout    time.Duration

	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		APIPrefix:           getEnv("API_PREFIX", "/api"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
		LLMAPIBase:          getEnv("LLM_API_BASE", "https://openrouter.ai/api/v1"),
		LLMImageModel:       getEnv("LLM_IMAGE_MODEL", "google/gemini-3-pro-image-preview"),
		LLMTimeout:          time.Second * time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)),
		ImageOutputDir:      getEnv("IMAGE_OUTPUT_DIR", "./generated_images"),
		DefaultTextLocale:   getEnv("DEFAULT_TEXT_LOCALE", "zh-Hans"),
		BatchDefaultWorkers: getEnvInt("BATCH_DEFAULT_WORKERS", 5),
		BatchMaxWorkers:     getEnvInt("BATCH_MAX_WORKERS", 20),
		BatchMaxConcurrent:  getEnvInt("BATCH_MAX_CONCURRENT", 10),
		BatchCleanupHours:   getEnvInt("BATCH_CLEANUP_HOURS", 24),
		BatchWaitTimeout:    time.Second * time.Duration(getEnvInt("BATCH_WAIT_TIMEOUT_SECONDS", 300)),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "*")),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 330)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	positive := []struct {
		key   string
		value int
	}{
		{"BATCH_DEFAULT_WORKERS", c.BatchDefaultWorkers},
		{"BATCH_MAX_WORKERS", c.BatchMaxWorkers},
		{"BATCH_MAX_CONCURRENT", c.BatchMaxConcurrent},
		{"BATCH_CLEANUP_HOURS", c.BatchCleanupHours},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.key, p.value)
		}
	}
	if c.BatchDefaultWorkers > c.BatchMaxWorkers {
		return fmt.Errorf("BATCH_DEFAULT_WORKERS (%d) must not exceed BATCH_MAX_WORKERS (%d)", c.BatchDefaultWorkers, c.BatchMaxWorkers)
	}
	if c.BatchWaitTimeout <= 0 {
		return fmt.Errorf("BATCH_WAIT_TIMEOUT_SECONDS must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// CleanupAge is how long a finished batch stays visible.
func (c *Config) CleanupAge() time.Duration {
	return time.Duration(c.BatchCleanupHours) * time.Hour
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
