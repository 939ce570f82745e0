// Package config loads and validates searchhub configuration.
//
// Configuration is resolved in priority order:
//  1. Environment variables (SEARCHHUB_*) - highest priority
//  2. Config file (YAML)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete searchhub configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Registry RegistryConfig `yaml:"registry" json:"registry"`
	Scoring  ScoringConfig  `yaml:"scoring" json:"scoring"`
	Dispatch DispatchConfig `yaml:"dispatch" json:"dispatch"`
	Suggest  SuggestConfig  `yaml:"suggest" json:"suggest"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// RegistryConfig locates the source registry file.
type RegistryConfig struct {
	// Path is the YAML file describing the federated sources.
	Path string `yaml:"path" json:"path"`

	// WatchReload enables hot reload of the registry file on change.
	WatchReload bool `yaml:"watch_reload" json:"watch_reload"`
}

// ScoringConfig configures the composite relevance score.
//
// compositeScore = sourceRelevance*displayWeight*RelevanceWeight
//   - recencyScore*RecencyWeight
//   - popularityScore*PopularityWeight
//   - aiScore*AIWeight
//
// When no AI signal is available aiScore is 0 and the weights are NOT
// renormalized: the missing signal just lowers the score ceiling.
type ScoringConfig struct {
	RelevanceWeight  float64 `yaml:"relevance_weight" json:"relevance_weight"`
	RecencyWeight    float64 `yaml:"recency_weight" json:"recency_weight"`
	PopularityWeight float64 `yaml:"popularity_weight" json:"popularity_weight"`
	AIWeight         float64 `yaml:"ai_weight" json:"ai_weight"`
}

// DispatchConfig configures the concurrent source fan-out.
type DispatchConfig struct {
	// PerSourceTimeout bounds each individual source adapter call.
	PerSourceTimeout time.Duration `yaml:"per_source_timeout" json:"per_source_timeout"`

	// GlobalTimeout bounds the whole search request.
	GlobalTimeout time.Duration `yaml:"global_timeout" json:"global_timeout"`

	// MaxConcurrent limits simultaneous source calls (0 = one per source).
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// MaxRetries is the dispatcher-level retry count for retryable
	// source failures. Adapters themselves never retry.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// BreakerMaxFailures is the consecutive failure count that opens a
	// per-source circuit breaker.
	BreakerMaxFailures int `yaml:"breaker_max_failures" json:"breaker_max_failures"`

	// BreakerResetTimeout is how long an open breaker waits before
	// letting a probe request through.
	BreakerResetTimeout time.Duration `yaml:"breaker_reset_timeout" json:"breaker_reset_timeout"`

	// DefaultLimit is the default result page size.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit is the maximum allowed page size.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
}

// SuggestConfig configures the autocomplete pipeline.
type SuggestConfig struct {
	// GeneratorTimeout bounds each candidate generator call.
	GeneratorTimeout time.Duration `yaml:"generator_timeout" json:"generator_timeout"`

	// DefaultLimit is the default number of suggestions returned.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// Origin priors control ranking between generator kinds.
	AIPrior         float64 `yaml:"ai_prior" json:"ai_prior"`
	ContextualPrior float64 `yaml:"contextual_prior" json:"contextual_prior"`
	PopularPrior    float64 `yaml:"popular_prior" json:"popular_prior"`
	HistoryPrior    float64 `yaml:"history_prior" json:"history_prior"`
}

// HistoryConfig configures the query history / popularity store.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Empty disables persistence.
	DBPath string `yaml:"db_path" json:"db_path"`

	// CacheSize is the popularity LRU cache capacity.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr         string   `yaml:"addr" json:"addr"`
	AllowOrigins []string `yaml:"allow_origins" json:"allow_origins"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Registry: RegistryConfig{
			Path:        "sources.yaml",
			WatchReload: false,
		},
		Scoring: ScoringConfig{
			RelevanceWeight:  0.5,
			RecencyWeight:    0.15,
			PopularityWeight: 0.15,
			AIWeight:         0.2,
		},
		Dispatch: DispatchConfig{
			PerSourceTimeout:    2 * time.Second,
			GlobalTimeout:       5 * time.Second,
			MaxConcurrent:       0,
			MaxRetries:          0,
			BreakerMaxFailures:  5,
			BreakerResetTimeout: 30 * time.Second,
			DefaultLimit:        20,
			MaxLimit:            100,
		},
		Suggest: SuggestConfig{
			GeneratorTimeout: 500 * time.Millisecond,
			DefaultLimit:     10,
			AIPrior:          1.0,
			ContextualPrior:  0.8,
			PopularPrior:     0.6,
			HistoryPrior:     0.4,
		},
		History: HistoryConfig{
			DBPath:    "",
			CacheSize: 1024,
		},
		Server: ServerConfig{
			Addr:         ":8085",
			AllowOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given file, applies environment
// overrides, and validates the result. A missing file is not an error:
// defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from SEARCHHUB_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("SEARCHHUB_REGISTRY_PATH"); v != "" {
		c.Registry.Path = v
	}
	if v := os.Getenv("SEARCHHUB_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SEARCHHUB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SEARCHHUB_HISTORY_DB"); v != "" {
		c.History.DBPath = v
	}
	if f, ok := envFloat("SEARCHHUB_RELEVANCE_WEIGHT"); ok {
		c.Scoring.RelevanceWeight = f
	}
	if f, ok := envFloat("SEARCHHUB_RECENCY_WEIGHT"); ok {
		c.Scoring.RecencyWeight = f
	}
	if f, ok := envFloat("SEARCHHUB_POPULARITY_WEIGHT"); ok {
		c.Scoring.PopularityWeight = f
	}
	if f, ok := envFloat("SEARCHHUB_AI_WEIGHT"); ok {
		c.Scoring.AIWeight = f
	}
	if d, ok := envDuration("SEARCHHUB_SOURCE_TIMEOUT"); ok {
		c.Dispatch.PerSourceTimeout = d
	}
	if d, ok := envDuration("SEARCHHUB_GLOBAL_TIMEOUT"); ok {
		c.Dispatch.GlobalTimeout = d
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"relevance_weight":  c.Scoring.RelevanceWeight,
		"recency_weight":    c.Scoring.RecencyWeight,
		"popularity_weight": c.Scoring.PopularityWeight,
		"ai_weight":         c.Scoring.AIWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("scoring.%s must be in [0,1], got %v", name, w)
		}
	}

	if c.Dispatch.PerSourceTimeout <= 0 {
		return fmt.Errorf("dispatch.per_source_timeout must be positive")
	}
	if c.Dispatch.GlobalTimeout <= 0 {
		return fmt.Errorf("dispatch.global_timeout must be positive")
	}
	if c.Dispatch.GlobalTimeout < c.Dispatch.PerSourceTimeout {
		return fmt.Errorf("dispatch.global_timeout must be >= per_source_timeout")
	}
	if c.Dispatch.DefaultLimit <= 0 || c.Dispatch.MaxLimit <= 0 {
		return fmt.Errorf("dispatch limits must be positive")
	}
	if c.Dispatch.DefaultLimit > c.Dispatch.MaxLimit {
		return fmt.Errorf("dispatch.default_limit exceeds max_limit")
	}
	if c.Suggest.GeneratorTimeout <= 0 {
		return fmt.Errorf("suggest.generator_timeout must be positive")
	}
	if c.Suggest.DefaultLimit <= 0 {
		return fmt.Errorf("suggest.default_limit must be positive")
	}
	return nil
}
