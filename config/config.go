// Package config loads application configuration from a YAML file with
// environment-variable overrides, and defines the fixed field weight table
// used for relevance scoring.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Index     IndexConfig     `yaml:"index"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// StorageConfig selects the publication store driver and its DSN.
// Driver is "sqlite" (DSN is a file path) or "postgres" (lib/pq DSN).
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// IndexConfig holds the persisted index location and search defaults.
type IndexConfig struct {
	Path          string `yaml:"path"`
	DefaultTopK   int    `yaml:"defaultTopK"`
	SnippetWindow int    `yaml:"snippetWindow"`
}

// CrawlerConfig controls the portal crawler: seed page, BFS limits and the
// politeness rate limit applied to every request.
type CrawlerConfig struct {
	SeedURL           string        `yaml:"seedUrl"`
	MaxProfiles       int           `yaml:"maxProfiles"`
	MaxPublications   int           `yaml:"maxPublications"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	Workers           int           `yaml:"workers"`
	UserAgent         string        `yaml:"userAgent"`
	Timeout           time.Duration `yaml:"timeout"`
}

// SchedulerConfig controls the weekly scheduled crawl.
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Weekday  string `yaml:"weekday"`
	Hour     int    `yaml:"hour"`
	Minute   int    `yaml:"minute"`
	LockFile string `yaml:"lockFile"`
}

// MetricsConfig toggles the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FieldWeights returns the per-field scoring weights. The table is part of
// the engine's ranking contract and is deliberately not configurable.
func FieldWeights() map[string]float64 {
	return map[string]float64{
		"title":    3.0,
		"authors":  2.5,
		"keywords": 2.0,
		"year":     1.5,
		"abstract": 1.0,
	}
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "./data/pubsearch.db",
		},
		Index: IndexConfig{
			Path:          "./data/search_index.json",
			DefaultTopK:   50,
			SnippetWindow: 20,
		},
		Crawler: CrawlerConfig{
			SeedURL:           "https://pureportal.coventry.ac.uk/en/organisations/ics-research-centre-for-computational-science-and-mathematical-mo",
			MaxProfiles:       10,
			MaxPublications:   50,
			RequestsPerSecond: 0.5,
			Burst:             1,
			Workers:           2,
			UserAgent:         "pubsearch-crawler/1.0 (+https://github.com/gcbaptista/pubsearch)",
			Timeout:           30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Weekday:  "Monday",
			Hour:     11,
			Minute:   0,
			LockFile: "./data/crawler.lock",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// applyEnvOverrides reads PS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PS_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("PS_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("PS_INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("PS_CRAWLER_SEED_URL"); v != "" {
		cfg.Crawler.SeedURL = v
	}
	if v := os.Getenv("PS_CRAWLER_USER_AGENT"); v != "" {
		cfg.Crawler.UserAgent = v
	}
	if v := os.Getenv("PS_SCHEDULER_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Scheduler.Enabled = enabled
		}
	}
	if v := os.Getenv("PS_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
}
