package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string        `yaml:"port"`
	HTTPTimeout    time.Duration `yaml:"-"`
	LogLevel       slog.Level    `yaml:"-"`
	Workers        int           `yaml:"workers"`
	MaxUploadBytes int64         `yaml:"-"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	ReportURLs     []string      `yaml:"report_urls"`
	FetchRetries   int           `yaml:"fetch_retries"`
	SinkURL        string        `yaml:"sink_url"`
	SinkSecret     string        `yaml:"sink_secret"`
}

// fileConfig mirrors the YAML layout; durations and sizes are plain numbers there.
type fileConfig struct {
	Config             `yaml:",inline"`
	LogLevel           string `yaml:"log_level"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
	MaxUploadMB        int    `yaml:"max_upload_mb"`
}

func defaults() Config {
	return Config{
		Port:           "8080",
		HTTPTimeout:    15 * time.Second,
		LogLevel:       slog.LevelInfo,
		Workers:        4,
		MaxUploadBytes: 32 << 20,
		CORSOrigins:    []string{"*"},
		FetchRetries:   3,
	}
}

// FromEnv builds the config from defaults and environment variables only.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then applies environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		fc := fileConfig{Config: cfg}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
		cfg = fc.Config
		if fc.LogLevel != "" {
			cfg.LogLevel = parseLevel(fc.LogLevel)
		}
		if fc.HTTPTimeoutSeconds > 0 {
			cfg.HTTPTimeout = time.Duration(fc.HTTPTimeoutSeconds) * time.Second
		}
		if fc.MaxUploadMB > 0 {
			cfg.MaxUploadBytes = int64(fc.MaxUploadMB) << 20
		}
		if cfg.Port == "" {
			cfg.Port = "8080"
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLevel(v)
	}
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.Workers = envInt("WORKERS", cfg.Workers)
	cfg.FetchRetries = envInt("FETCH_RETRIES", cfg.FetchRetries)
	if mb := envInt("MAX_UPLOAD_MB", 0); mb > 0 {
		cfg.MaxUploadBytes = int64(mb) << 20
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("ADS_REPORT_URLS"); v != "" {
		cfg.ReportURLs = splitList(v)
	}
	cfg.SinkURL = envOr("SINK_URL", cfg.SinkURL)
	cfg.SinkSecret = envOr("SINK_SECRET", cfg.SinkSecret)
}

func parseLevel(s string) slog.Level {
	if strings.EqualFold(strings.TrimSpace(s), "debug") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
