package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ScannerConfig holds the tunable detection thresholds. Only the ordering
// of the entropy thresholds is normative; the numbers are deployment
// choices.
type ScannerConfig struct {
	EntropyMinLength       int     `yaml:"entropy_min_length"`
	EntropyHighThreshold   float64 `yaml:"entropy_high_threshold"`
	EntropyMediumThreshold float64 `yaml:"entropy_medium_threshold"`
	LongStringLength       int     `yaml:"long_string_length"`
	DiversityRatio         float64 `yaml:"diversity_ratio"`
	DiversityMinLength     int     `yaml:"diversity_min_length"`
	PIIScoreThreshold      float64 `yaml:"pii_score_threshold"`
}

// RedisConfig configures the shared hash registry, when enabled.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig configures the audit event store, when enabled.
type DatabaseConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DSN           string `yaml:"dsn"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":8084"},
		Log:    LogConfig{Level: "info"},
		Scanner: ScannerConfig{
			EntropyMinLength:       12,
			EntropyHighThreshold:   4.5,
			EntropyMediumThreshold: 3.5,
			LongStringLength:       1000,
			DiversityRatio:         0.3,
			DiversityMinLength:     20,
			PIIScoreThreshold:      0.6,
		},
		Redis:    RedisConfig{Address: "localhost:6379"},
		Database: DatabaseConfig{RetentionDays: 90},
	}
}

// Load reads configuration from an optional YAML file and then applies
// LEAKGUARD_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const envPrefix = "LEAKGUARD"

func (c *Config) applyEnv() {
	setString(&c.Server.Address, "SERVER_ADDRESS")
	setString(&c.Log.Level, "LOG_LEVEL")
	setBool(&c.Redis.Enabled, "REDIS_ENABLED")
	setString(&c.Redis.Address, "REDIS_ADDRESS")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setBool(&c.Database.Enabled, "DATABASE_ENABLED")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setInt(&c.Database.RetentionDays, "DATABASE_RETENTION_DAYS")
	setFloat(&c.Scanner.EntropyHighThreshold, "SCANNER_ENTROPY_HIGH_THRESHOLD")
	setFloat(&c.Scanner.EntropyMediumThreshold, "SCANNER_ENTROPY_MEDIUM_THRESHOLD")
	setInt(&c.Scanner.EntropyMinLength, "SCANNER_ENTROPY_MIN_LENGTH")
	setFloat(&c.Scanner.PIIScoreThreshold, "SCANNER_PII_SCORE_THRESHOLD")
}

// Validate checks threshold ordering and required connection settings.
func (c *Config) Validate() error {
	if c.Scanner.EntropyHighThreshold <= c.Scanner.EntropyMediumThreshold {
		return fmt.Errorf("entropy_high_threshold (%g) must exceed entropy_medium_threshold (%g)",
			c.Scanner.EntropyHighThreshold, c.Scanner.EntropyMediumThreshold)
	}
	if c.Scanner.PIIScoreThreshold < 0 || c.Scanner.PIIScoreThreshold > 1 {
		return fmt.Errorf("pii_score_threshold must be in [0,1], got %g", c.Scanner.PIIScoreThreshold)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when the audit store is enabled")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when the shared registry is enabled")
	}
	return nil
}

func envValue(suffix string) (string, bool) {
	return os.LookupEnv(envPrefix + "_" + suffix)
}

func setString(target *string, suffix string) {
	if value, ok := envValue(suffix); ok {
		*target = value
	}
}

func setInt(target *int, suffix string) {
	if value, ok := envValue(suffix); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func setFloat(target *float64, suffix string) {
	if value, ok := envValue(suffix); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func setBool(target *bool, suffix string) {
	if value, ok := envValue(suffix); ok {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			*target = true
		case "0", "false", "no", "off":
			*target = false
		}
	}
}
