// Package config loads and validates the scorer configuration from a
// YAML file plus environment. The API key never lives in the file; it
// comes from the COVALENT_API_KEY environment variable, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wallet-risk-scorer/internal/balances"
	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/scoring"
)

// APIKeyEnv is the environment variable holding the balance API key.
const APIKeyEnv = "COVALENT_API_KEY"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full runtime configuration.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Retry      RetryConfig      `yaml:"retry"`
	Chains     []int64          `yaml:"chains"`
	Workers    int              `yaml:"workers"`
	Scoring    scoring.Params   `yaml:"scoring"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Archive    ArchiveConfig    `yaml:"archive"`

	// APIKey is populated from the environment, never from YAML.
	APIKey string `yaml:"-"`
}

// APIConfig describes the balance API endpoint. Durations are plain
// numbers with the unit in the field name so the YAML stays obvious.
type APIConfig struct {
	BaseURL      string  `yaml:"base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"` // 0 disables client-side limiting
}

// GetTimeout returns the request timeout as a time.Duration.
func (a APIConfig) GetTimeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// RetryConfig describes the retry schedule for transient API failures.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms"`
	MaxDelayMS  int     `yaml:"max_delay_ms"`
	Jitter      float64 `yaml:"jitter"`
}

// GetBaseDelay returns the first retry delay as a time.Duration.
func (r RetryConfig) GetBaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMS) * time.Millisecond
}

// GetMaxDelay returns the delay cap as a time.Duration.
func (r RetryConfig) GetMaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMS) * time.Millisecond
}

// CheckpointConfig selects the checkpoint backend.
type CheckpointConfig struct {
	Backend     string `yaml:"backend"` // memory, file or postgres
	Path        string `yaml:"path"`    // file backend
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ArchiveConfig enables the optional ClickHouse result archive.
type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// Default returns the configuration the scorer ships with.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:      "https://api.covalenthq.com/v1",
			TimeoutSecs:  30,
			RateLimitRPS: 4,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMS: 1000,
			MaxDelayMS:  30000,
			Jitter:      0.25,
		},
		Chains:  []int64{1},
		Workers: 4,
		Scoring: scoring.DefaultParams(),
		Checkpoint: CheckpointConfig{
			Backend: "file",
			Path:    "checkpoints.jsonl",
		},
	}
}

// Load reads the YAML file at path, overlays it on the defaults and pulls
// the API key from the environment. An empty path returns defaults plus
// environment. A .env file in the working directory is honored when
// present.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Best effort: missing .env is fine, the variable may be exported.
	_ = godotenv.Load()
	cfg.APIKey = os.Getenv(APIKeyEnv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks everything that would otherwise fail mid-run.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.API.TimeoutSecs <= 0 {
		return fmt.Errorf("%w: api.timeout_secs must be positive, got %d", ErrInvalidConfig, c.API.TimeoutSecs)
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("%w: api.rate_limit_rps must be ≥ 0, got %v", ErrInvalidConfig, c.API.RateLimitRPS)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be ≥ 1, got %d", ErrInvalidConfig, c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelayMS <= 0 || c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return fmt.Errorf("%w: retry delays inverted: base %dms, max %dms", ErrInvalidConfig, c.Retry.BaseDelayMS, c.Retry.MaxDelayMS)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter >= 1 {
		return fmt.Errorf("%w: retry.jitter must be in [0,1), got %v", ErrInvalidConfig, c.Retry.Jitter)
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("%w: at least one chain is required", ErrInvalidConfig)
	}
	seen := make(map[int64]struct{}, len(c.Chains))
	for _, chain := range c.Chains {
		if chain <= 0 {
			return fmt.Errorf("%w: chain IDs must be positive, got %d", ErrInvalidConfig, chain)
		}
		if _, dup := seen[chain]; dup {
			return fmt.Errorf("%w: duplicate chain %d", ErrInvalidConfig, chain)
		}
		seen[chain] = struct{}{}
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be ≥ 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}

	switch c.Checkpoint.Backend {
	case "memory":
	case "file":
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("%w: checkpoint.path is required for the file backend", ErrInvalidConfig)
		}
	case "postgres":
		if c.Checkpoint.PostgresDSN == "" {
			return fmt.Errorf("%w: checkpoint.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown checkpoint backend %q", ErrInvalidConfig, c.Checkpoint.Backend)
	}

	if c.Archive.Enabled && c.Archive.ClickhouseDSN == "" {
		return fmt.Errorf("%w: archive.clickhouse_dsn is required when the archive is enabled", ErrInvalidConfig)
	}
	return nil
}

// ChainIDs converts the configured chains to domain IDs.
func (c Config) ChainIDs() []domain.ChainID {
	out := make([]domain.ChainID, len(c.Chains))
	for i, chain := range c.Chains {
		out[i] = domain.ChainID(chain)
	}
	return out
}

// RetryPolicy converts the retry section to the client's policy type.
func (c Config) RetryPolicy() balances.RetryPolicy {
	return balances.RetryPolicy{
		MaxAttempts:    c.Retry.MaxAttempts,
		BaseDelay:      c.Retry.GetBaseDelay(),
		MaxDelay:       c.Retry.GetMaxDelay(),
		JitterFraction: c.Retry.Jitter,
	}
}
