// Package config loads the engine configuration from a YAML file with
// environment variable overrides on top. Precedence: defaults, then
// file, then GAMEWIKI_* env vars.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xiaocao12306/gamewiki-sub002/internal/search"
)

// ConfigFileName is the per-directory config file.
const ConfigFileName = ".gamewiki.yaml"

// Config is the complete engine configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// SearchConfig configures fusion, reranking and branch execution.
type SearchConfig struct {
	// FusionMethod selects "rrf", "weighted" or "normalized".
	FusionMethod string `yaml:"fusion_method"`

	// VectorWeight and BM25Weight drive the weighted strategies.
	VectorWeight float64 `yaml:"vector_weight"`
	BM25Weight   float64 `yaml:"bm25_weight"`

	// RRFConstant is the RRF smoothing parameter k.
	RRFConstant int `yaml:"rrf_constant"`

	// TopK is the default result count.
	TopK int `yaml:"top_k"`

	// Parallel toggles concurrent branch execution.
	Parallel bool `yaml:"parallel"`

	// BranchTimeout bounds each retrieval branch ("10s"; "0" disables).
	BranchTimeout time.Duration `yaml:"branch_timeout"`

	// Optimization toggles query normalization and intent reranking.
	Optimization bool `yaml:"optimization"`

	// IntentWeight is the base intent share of the rerank blend.
	IntentWeight float64 `yaml:"intent_weight"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

// TelemetryConfig configures local metrics persistence.
type TelemetryConfig struct {
	// DBPath is the SQLite aggregate store location. Empty disables
	// persistence; the in-memory monitor always runs.
	DBPath string `yaml:"db_path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Path is the log file location. Empty logs to stderr.
	Path string `yaml:"path"`
}

// Default returns the standard configuration.
func Default() *Config {
	sc := search.DefaultConfig()
	return &Config{
		Search: SearchConfig{
			FusionMethod:  sc.FusionMethod,
			VectorWeight:  sc.VectorWeight,
			BM25Weight:    sc.BM25Weight,
			RRFConstant:   sc.RRFConstant,
			TopK:          sc.TopK,
			Parallel:      sc.ParallelEnabled,
			BranchTimeout: sc.BranchTimeout,
			Optimization:  sc.OptimizationEnabled,
			IntentWeight:  sc.IntentWeight,
		},
		Cache: CacheConfig{
			Enabled: sc.CacheEnabled,
			MaxSize: sc.CacheSize,
			TTL:     sc.CacheTTL,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration for dir: defaults, then the config
// file if present, then env overrides, then validation.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies GAMEWIKI_* environment variables, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GAMEWIKI_FUSION_METHOD"); v != "" {
		c.Search.FusionMethod = v
	}
	if v := os.Getenv("GAMEWIKI_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.VectorWeight = f
		}
	}
	if v := os.Getenv("GAMEWIKI_BM25_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.BM25Weight = f
		}
	}
	if v := os.Getenv("GAMEWIKI_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("GAMEWIKI_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("GAMEWIKI_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.Parallel = b
		}
	}
	if v := os.Getenv("GAMEWIKI_BRANCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Search.BranchTimeout = d
		}
	}
	if v := os.Getenv("GAMEWIKI_OPTIMIZATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.Optimization = b
		}
	}
	if v := os.Getenv("GAMEWIKI_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v := os.Getenv("GAMEWIKI_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("GAMEWIKI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GAMEWIKI_TELEMETRY_DB"); v != "" {
		c.Telemetry.DBPath = v
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Search.FusionMethod {
	case search.FusionRRF, search.FusionWeighted, search.FusionNormalized:
	default:
		// Unknown methods are allowed; the fuser falls back to
		// normalized fusion with a warning.
	}

	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 {
		return fmt.Errorf("vector_weight must be in [0,1], got %v", c.Search.VectorWeight)
	}
	if c.Search.BM25Weight < 0 || c.Search.BM25Weight > 1 {
		return fmt.Errorf("bm25_weight must be in [0,1], got %v", c.Search.BM25Weight)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.TopK <= 0 || c.Search.TopK > 100 {
		return fmt.Errorf("top_k must be in [1,100], got %d", c.Search.TopK)
	}
	if c.Search.BranchTimeout < 0 {
		return fmt.Errorf("branch_timeout must not be negative, got %v", c.Search.BranchTimeout)
	}
	if c.Search.IntentWeight < 0 || c.Search.IntentWeight >= 1 {
		return fmt.Errorf("intent_weight must be in [0,1), got %v", c.Search.IntentWeight)
	}
	if c.Cache.Enabled {
		if c.Cache.MaxSize <= 0 {
			return fmt.Errorf("cache max_size must be positive, got %d", c.Cache.MaxSize)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache ttl must be positive, got %v", c.Cache.TTL)
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// EngineConfig maps the file configuration onto the search pipeline
// configuration.
func (c *Config) EngineConfig() search.Config {
	return search.Config{
		FusionMethod:        c.Search.FusionMethod,
		VectorWeight:        c.Search.VectorWeight,
		BM25Weight:          c.Search.BM25Weight,
		RRFConstant:         c.Search.RRFConstant,
		TopK:                c.Search.TopK,
		CacheEnabled:        c.Cache.Enabled,
		CacheSize:           c.Cache.MaxSize,
		CacheTTL:            c.Cache.TTL,
		ParallelEnabled:     c.Search.Parallel,
		BranchTimeout:       c.Search.BranchTimeout,
		OptimizationEnabled: c.Search.Optimization,
		IntentWeight:        c.Search.IntentWeight,
	}
}
