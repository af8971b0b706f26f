package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is unset.
const DefaultPath = ".snapkeep/config.yaml"

// Config holds all snapkeep configuration.
type Config struct {
	// Worker group
	Group GroupConfig `yaml:"group"`

	// Entry naming
	Series SeriesConfig `yaml:"series"`

	// Snapshot content checks
	Verify VerifyConfig `yaml:"verify"`

	// Archive build and integrity checks
	Archive ArchiveConfig `yaml:"archive"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Run history
	Ledger LedgerConfig `yaml:"ledger"`
}

// GroupConfig configures the fixed-size worker group.
type GroupConfig struct {
	// Workers is the group size; 0 means one per CPU.
	Workers int `yaml:"workers"`

	// ShardTimeout bounds each rank's shard. Empty or "0" waits forever.
	ShardTimeout string `yaml:"shard_timeout"`
}

// SeriesConfig describes how entries are named.
type SeriesConfig struct {
	Prefixes    []string `yaml:"prefixes"`     // discovered series, in order
	PrefixLen   int      `yaml:"prefix_len"`   // characters before the number
	SuffixWidth int      `yaml:"suffix_width"` // zero-padded digits
}

// ApplyDefaults fills zero values with the stock series layout.
func (s *SeriesConfig) ApplyDefaults() {
	if len(s.Prefixes) == 0 {
		s.Prefixes = []string{"DD", "RD"}
	}
	if s.PrefixLen == 0 {
		s.PrefixLen = 2
	}
	if s.SuffixWidth == 0 {
		s.SuffixWidth = 4
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Group: GroupConfig{
			Workers:      0,
			ShardTimeout: "0",
		},
		Series: SeriesConfig{
			Prefixes:    []string{"DD", "RD"},
			PrefixLen:   2,
			SuffixWidth: 4,
		},
		Verify: DefaultVerifyConfig(),
		Archive: ArchiveConfig{
			Suffix:           ".tar.gz",
			Integrity:        IntegrityExec,
			IntegrityCommand: []string{"gzip", "-t"},
			CheckTimeout:     "0",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
			Dir:       ".snapkeep/logs",
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    ".snapkeep/runs.db",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Series.ApplyDefaults()

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SNAPKEEP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Group.Workers = n
		}
	}
	if v := os.Getenv("SNAPKEEP_SHARD_TIMEOUT"); v != "" {
		c.Group.ShardTimeout = v
	}
	if v := os.Getenv("SNAPKEEP_INTEGRITY"); v != "" {
		c.Archive.Integrity = v
	}
	if v := os.Getenv("SNAPKEEP_LEDGER"); v != "" {
		if v == "off" {
			c.Ledger.Enabled = false
		} else {
			c.Ledger.Path = v
		}
	}
}

// WorkerCount resolves the group size, defaulting to one worker per CPU.
func (c *Config) WorkerCount() int {
	if c.Group.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Group.Workers
}

// GetShardTimeout returns the per-shard deadline; zero means none.
func (c *Config) GetShardTimeout() time.Duration {
	d, err := time.ParseDuration(c.Group.ShardTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetCheckTimeout returns the per-archive external check timeout. Empty,
// "0" or an unparsable value means none.
func (c *Config) GetCheckTimeout() time.Duration {
	if c.Archive.CheckTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Archive.CheckTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Group.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfiguration, c.Group.Workers)
	}
	if c.Group.ShardTimeout != "" {
		if d, err := time.ParseDuration(c.Group.ShardTimeout); err != nil || d < 0 {
			return fmt.Errorf("%w: invalid shard_timeout %q", ErrInvalidConfiguration, c.Group.ShardTimeout)
		}
	}
	if c.Series.PrefixLen < 0 || c.Series.SuffixWidth <= 0 {
		return fmt.Errorf("%w: invalid series layout (prefix_len=%d, suffix_width=%d)",
			ErrInvalidConfiguration, c.Series.PrefixLen, c.Series.SuffixWidth)
	}
	if len(c.Series.Prefixes) == 0 {
		return fmt.Errorf("%w: series.prefixes must not be empty", ErrInvalidConfiguration)
	}
	for _, p := range c.Series.Prefixes {
		if len(p) != c.Series.PrefixLen {
			return fmt.Errorf("%w: prefix %q is not %d characters", ErrInvalidConfiguration, p, c.Series.PrefixLen)
		}
	}
	if err := c.Archive.validate(); err != nil {
		return err
	}
	if c.Verify.MemberTag == "" {
		return fmt.Errorf("%w: verify.member_tag must be set", ErrInvalidConfiguration)
	}
	return nil
}
