package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"todo-planner/internal/recurrence"
	"todo-planner/pkg/logger"
)

// Config keeps runtime settings for the planner.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	StorePath     string
	HTTPAddr      string
	Timezone      string
	Location      *time.Location
	DigestTime    string
	CacheTTL      time.Duration
	Log           logger.Config
}

// fileConfig is the shape of the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	DatabaseURL   string `yaml:"database_url"`
	StorePath     string `yaml:"store_path"`
	HTTPAddr      string `yaml:"http_addr"`
	Timezone      string `yaml:"timezone"`
	DigestTime    string `yaml:"digest_time"`
	CacheTTL      string `yaml:"cache_ttl"`
	Log           struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads configuration from a .env file, the optional YAML file and
// environment variables, in increasing priority, with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	cfg := Config{
		TelegramToken: getEnv("TELEGRAM_TOKEN", file.TelegramToken),
		DatabaseURL:   getEnv("DATABASE_URL", file.DatabaseURL),
		StorePath:     getEnv("STORE_PATH", file.StorePath),
		HTTPAddr:      getEnv("HTTP_ADDR", file.HTTPAddr),
		Timezone:      getEnv("TIMEZONE", file.Timezone),
		DigestTime:    getEnv("DIGEST_TIME", file.DigestTime),
		Log: logger.Config{
			Level:  getEnv("LOG_LEVEL", file.Log.Level),
			Format: getEnv("LOG_FORMAT", file.Log.Format),
			File:   getEnv("LOG_FILE", file.Log.File),
		},
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "todo_planner.db"
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "todo_planner.json"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "08:00"
	}
	if _, _, err := recurrence.ParseClock(cfg.DigestTime); err != nil {
		return cfg, fmt.Errorf("DIGEST_TIME: %w", err)
	}

	ttl, err := parseTTL(getEnv("CACHE_TTL", file.CacheTTL))
	if err != nil {
		return cfg, err
	}
	cfg.CacheTTL = ttl

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file: %w", err)
	}
	return file, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(fallback)
}

func parseTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return time.Minute, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, fmt.Errorf("CACHE_TTL: invalid duration %q", raw)
	}
	return ttl, nil
}

// loadLocation resolves the day-boundary timezone. Empty means the host's
// local time.
func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}
