// Package config loads the analyzer configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hailam/blunderscan/internal/analysis"
)

// Config is the full run configuration. Durations are spelled as integer
// milliseconds or seconds in the file.
type Config struct {
	EnginePath    string `yaml:"engine_path"`
	EngineHashMB  int    `yaml:"engine_hash_mb"`
	EngineThreads int    `yaml:"engine_threads"`
	MultiPV       int    `yaml:"multi_pv"`

	ThinkTimeMs       int `yaml:"think_time_ms"`
	Workers           int `yaml:"workers"`
	BatchSize         int `yaml:"batch_size"`
	BatchTimeoutSec   int `yaml:"batch_timeout_sec"`
	PoolSize          int `yaml:"pool_size"`
	AcquireTimeoutSec int `yaml:"acquire_timeout_sec"`

	BookPath string `yaml:"book_path"`
	DataDir  string `yaml:"data_dir"`

	Thresholds analysis.Thresholds `yaml:"thresholds"`
}

// Default returns the stock configuration. The engine path is left empty
// and must come from the file or a flag.
func Default() Config {
	return Config{
		EngineHashMB:      256,
		EngineThreads:     1,
		MultiPV:           1,
		ThinkTimeMs:       500,
		Workers:           2,
		BatchSize:         4,
		BatchTimeoutSec:   300,
		PoolSize:          2,
		AcquireTimeoutSec: 30,
		Thresholds:        analysis.DefaultThresholds(),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.backfill()
	return cfg, nil
}

// backfill restores defaults for values zeroed out by a sparse file.
func (c *Config) backfill() {
	d := Default()
	if c.EngineHashMB <= 0 {
		c.EngineHashMB = d.EngineHashMB
	}
	if c.EngineThreads <= 0 {
		c.EngineThreads = d.EngineThreads
	}
	if c.MultiPV <= 0 {
		c.MultiPV = d.MultiPV
	}
	if c.ThinkTimeMs <= 0 {
		c.ThinkTimeMs = d.ThinkTimeMs
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchTimeoutSec <= 0 {
		c.BatchTimeoutSec = d.BatchTimeoutSec
	}
	if c.PoolSize <= 0 {
		c.PoolSize = d.PoolSize
	}
	if c.AcquireTimeoutSec <= 0 {
		c.AcquireTimeoutSec = d.AcquireTimeoutSec
	}
}

// ThinkTime returns the per-position engine budget.
func (c Config) ThinkTime() time.Duration {
	return time.Duration(c.ThinkTimeMs) * time.Millisecond
}

// BatchTimeout returns the per-batch wall clock budget.
func (c Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutSec) * time.Second
}

// AcquireTimeout returns how long a worker waits for a free engine.
func (c Config) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSec) * time.Second
}
