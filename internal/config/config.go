package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort     string `yaml:"api_port"`
	MetricsPort string `yaml:"metrics_port"`
	LogLevel    string `yaml:"log_level"`
	ServiceName string `yaml:"service_name"`

	AnalysisURL            string        `yaml:"analysis_url"`
	AnalysisHealthTimeout  time.Duration `yaml:"analysis_health_timeout"`
	AnalysisRequestTimeout time.Duration `yaml:"analysis_request_timeout"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
	NATSEnabled bool   `yaml:"nats_enabled"`

	StoragePath     string `yaml:"storage_path"`
	MinDiskHeadroom uint64 `yaml:"min_disk_headroom"`

	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	RetryBackoffStep time.Duration `yaml:"retry_backoff_step"`

	CleanupDelay time.Duration `yaml:"cleanup_delay"`
	JobRetention time.Duration `yaml:"job_retention"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// Load builds the configuration from environment variables, optionally
// layered over a YAML file named by CONFIG_FILE. Environment always wins.
func Load() (Config, error) {
	cfg := Config{
		APIPort:     "8080",
		MetricsPort: "9090",
		LogLevel:    "info",
		ServiceName: "verityscan-api",

		AnalysisURL:            "http://localhost:5000",
		AnalysisHealthTimeout:  10 * time.Second,
		AnalysisRequestTimeout: 5 * time.Minute,

		NATSURL:     "nats://localhost:4222",
		NATSSubject: "documents.jobs",
		NATSEnabled: false,

		StoragePath:     "./data/staging",
		MinDiskHeadroom: 200 * 1024 * 1024,

		RetryMaxAttempts: 3,
		RetryBackoffStep: 2 * time.Second,

		CleanupDelay: 30 * time.Second,
		JobRetention: 5 * time.Minute,

		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.MetricsPort = mustEnv("METRICS_PORT", cfg.MetricsPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ServiceName = mustEnv("SERVICE_NAME", cfg.ServiceName)

	cfg.AnalysisURL = mustEnv("ANALYSIS_URL", cfg.AnalysisURL)
	cfg.AnalysisHealthTimeout = mustEnvDuration("ANALYSIS_HEALTH_TIMEOUT", cfg.AnalysisHealthTimeout)
	cfg.AnalysisRequestTimeout = mustEnvDuration("ANALYSIS_REQUEST_TIMEOUT", cfg.AnalysisRequestTimeout)

	cfg.NATSURL = mustEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = mustEnv("NATS_SUBJECT", cfg.NATSSubject)
	cfg.NATSEnabled = mustEnvBool("NATS_ENABLED", cfg.NATSEnabled)

	cfg.StoragePath = mustEnv("STORAGE_PATH", cfg.StoragePath)
	cfg.MinDiskHeadroom = mustEnvUint64("MIN_DISK_HEADROOM", cfg.MinDiskHeadroom)

	cfg.RetryMaxAttempts = mustEnvInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.RetryBackoffStep = mustEnvDuration("RETRY_BACKOFF_STEP", cfg.RetryBackoffStep)

	cfg.CleanupDelay = mustEnvDuration("CLEANUP_DELAY", cfg.CleanupDelay)
	cfg.JobRetention = mustEnvDuration("JOB_RETENTION", cfg.JobRetention)

	cfg.RateLimitRPS = mustEnvFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = mustEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)

	return cfg, nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func mustEnvUint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
