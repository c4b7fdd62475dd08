// Package config loads the engine configuration from YAML with
// environment overrides.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Sync       SyncConfig       `yaml:"sync"`
	Engagement EngagementConfig `yaml:"engagement"`
	Export     ExportConfig     `yaml:"export"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the record-store connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds count-cache settings. Redis is optional: with an
// empty addr the engine runs without the live-count overlay.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CountTTLMinutes int    `yaml:"count_ttl_minutes"`
}

// SyncConfig holds count-synchronizer settings
type SyncConfig struct {
	Workers int `yaml:"workers"`
}

// EngagementConfig holds engagement-tier derivation settings
type EngagementConfig struct {
	ActiveWindowDays int `yaml:"active_window_days"`
}

// ExportConfig holds S3 export distribution settings
type ExportConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	AWSProfile string `yaml:"aws_profile"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromEnv loads the YAML file (when present) and applies
// environment overrides. A missing file is not an error: a fully
// env-configured deployment carries no config file at all.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if present (for local development)
	_ = godotenv.Load()

	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if bucket := os.Getenv("EXPORT_S3_BUCKET"); bucket != "" {
		cfg.Export.Enabled = true
		cfg.Export.S3Bucket = bucket
	}
	if region := os.Getenv("EXPORT_S3_REGION"); region != "" {
		cfg.Export.S3Region = region
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.CountTTLMinutes == 0 {
		cfg.Redis.CountTTLMinutes = 60
	}
	if cfg.Sync.Workers == 0 {
		cfg.Sync.Workers = 4
	}
	if cfg.Engagement.ActiveWindowDays == 0 {
		cfg.Engagement.ActiveWindowDays = 30
	}
	if cfg.Export.S3Region == "" {
		cfg.Export.S3Region = "us-east-1"
	}
}
