// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all harness configuration.
type Config struct {
	Workers   WorkersConfig   `yaml:"workers"`
	Cache     CacheConfig     `yaml:"cache"`
	RAM       RAMConfig       `yaml:"ram"`
	Disk      DiskConfig      `yaml:"disk"`
	Network   NetworkConfig   `yaml:"network"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
}

// WorkersConfig holds the compute-side worker settings.
type WorkersConfig struct {
	// Compute is the number of matrix-multiplication workers. Zero means one
	// per detected logical core.
	Compute          int      `yaml:"compute"`
	MatrixSize       int      `yaml:"matrix_size"`
	GPUMatrixSize    int      `yaml:"gpu_matrix_size"`
	GPUReallocChance float64  `yaml:"gpu_realloc_chance"`
	SwitchSleep      Duration `yaml:"switch_sleep"`
}

// CacheConfig holds the cache-thrash worker settings.
type CacheConfig struct {
	Elements int `yaml:"elements"`
	Stride   int `yaml:"stride"`
}

// RAMConfig holds the memory-pressure worker settings.
type RAMConfig struct {
	ChunkSizeMB  int      `yaml:"chunk_size_mb"`
	RingCapacity int      `yaml:"ring_capacity"`
	Pause        Duration `yaml:"pause"`
}

// ChunkBytes returns the configured chunk size in bytes.
func (r RAMConfig) ChunkBytes() int {
	return r.ChunkSizeMB << 20
}

// DiskConfig holds the disk worker settings.
type DiskConfig struct {
	Path              string `yaml:"path"`
	BufferSizeMB      int    `yaml:"buffer_size_mb"`
	InitialMultiplier int    `yaml:"initial_multiplier"`
}

// BufferBytes returns the write buffer size in bytes.
func (d DiskConfig) BufferBytes() int {
	return d.BufferSizeMB << 20
}

// InitialBytes returns the size of the freshly created backing file in bytes.
func (d DiskConfig) InitialBytes() int64 {
	return int64(d.BufferSizeMB) * int64(d.InitialMultiplier) << 20
}

// NetworkConfig holds the download worker settings.
type NetworkConfig struct {
	URL          string   `yaml:"url"`
	SuccessPause Duration `yaml:"success_pause"`
	ErrorBackoff Duration `yaml:"error_backoff"`
}

// MonitorConfig holds the diagnosis loop settings.
type MonitorConfig struct {
	Interval Duration `yaml:"interval"`
}

// TelemetryConfig holds the Prometheus endpoint settings.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RuntimeConfig holds process lifecycle settings.
type RuntimeConfig struct {
	// ShutdownGrace bounds how long shutdown waits for workers to drain.
	ShutdownGrace Duration `yaml:"shutdown_grace"`
	// MaxRuntime stops the harness after the given duration. Zero runs until
	// interrupted.
	MaxRuntime Duration `yaml:"max_runtime"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers: WorkersConfig{
			Compute:          0,
			MatrixSize:       512,
			GPUMatrixSize:    4096,
			GPUReallocChance: 0.05,
			SwitchSleep:      Duration{10 * time.Microsecond},
		},
		Cache: CacheConfig{
			Elements: 256_000_000,
			Stride:   4096,
		},
		RAM: RAMConfig{
			ChunkSizeMB:  64,
			RingCapacity: 4,
			Pause:        Duration{100 * time.Millisecond},
		},
		Disk: DiskConfig{
			Path:              filepath.Join(os.TempDir(), "burnin-scratch.bin"),
			BufferSizeMB:      16,
			InitialMultiplier: 10,
		},
		Network: NetworkConfig{
			URL:          "https://speed.hetzner.de/100MB.bin",
			SuccessPause: Duration{1 * time.Second},
			ErrorBackoff: Duration{5 * time.Second},
		},
		Monitor: MonitorConfig{
			Interval: Duration{5 * time.Second},
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Addr:    ":9109",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Runtime: RuntimeConfig{
			ShutdownGrace: Duration{2 * time.Second},
			MaxRuntime:    Duration{0},
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist — use defaults + env overrides
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	LogLevel   string
	MaxRuntime time.Duration
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	candidates := configSearchPaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	// Layer 1: embedded config (lowest priority data layer)
	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	// Layer 2: external YAML file
	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0] // caller-supplied (may be "")
	} else {
		filePath = Locate() // auto-discover
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		}
	}

	// Layer 3: environment variables
	applyEnvOverrides(cfg)

	// Layer 4: CLI flags (highest priority)
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.MaxRuntime > 0 {
		cfg.Runtime.MaxRuntime = Duration{cli.MaxRuntime}
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if path := os.Getenv("BURNIN_DISK_PATH"); path != "" {
		cfg.Disk.Path = path
	}
	if url := os.Getenv("BURNIN_NETWORK_URL"); url != "" {
		cfg.Network.URL = url
	}
	if level := os.Getenv("BURNIN_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate checks that the configuration is usable before any worker starts.
func (c *Config) Validate() error {
	if c.Workers.Compute < 0 {
		return fmt.Errorf("workers.compute must not be negative (got %d)", c.Workers.Compute)
	}
	if c.Workers.MatrixSize < 1 {
		return fmt.Errorf("workers.matrix_size must be positive (got %d)", c.Workers.MatrixSize)
	}
	if c.Workers.GPUMatrixSize < 1 {
		return fmt.Errorf("workers.gpu_matrix_size must be positive (got %d)", c.Workers.GPUMatrixSize)
	}
	if c.Workers.GPUReallocChance < 0 || c.Workers.GPUReallocChance > 1 {
		return fmt.Errorf("workers.gpu_realloc_chance must be within [0, 1] (got %g)", c.Workers.GPUReallocChance)
	}
	if c.Cache.Elements < 1 {
		return fmt.Errorf("cache.elements must be positive (got %d)", c.Cache.Elements)
	}
	if c.Cache.Stride < 1 {
		return fmt.Errorf("cache.stride must be positive (got %d)", c.Cache.Stride)
	}
	if c.RAM.ChunkSizeMB < 1 {
		return fmt.Errorf("ram.chunk_size_mb must be positive (got %d)", c.RAM.ChunkSizeMB)
	}
	if c.RAM.RingCapacity < 1 {
		return fmt.Errorf("ram.ring_capacity must be positive (got %d)", c.RAM.RingCapacity)
	}
	if c.Disk.Path == "" {
		return fmt.Errorf("disk.path is required")
	}
	if c.Disk.BufferSizeMB < 1 {
		return fmt.Errorf("disk.buffer_size_mb must be positive (got %d)", c.Disk.BufferSizeMB)
	}
	// The initial file must hold at least one full write buffer, otherwise the
	// write/read cycle at offset zero would run past the end of the file.
	if c.Disk.InitialMultiplier < 1 {
		return fmt.Errorf("disk.initial_multiplier must be at least 1 (got %d)", c.Disk.InitialMultiplier)
	}
	if c.Network.URL == "" {
		return fmt.Errorf("network.url is required")
	}
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("monitor.interval must be positive (got %s)", c.Monitor.Interval)
	}
	if c.Telemetry.Enabled && c.Telemetry.Addr == "" {
		return fmt.Errorf("telemetry.addr is required when telemetry is enabled")
	}
	if c.Runtime.ShutdownGrace.Duration <= 0 {
		return fmt.Errorf("runtime.shutdown_grace must be positive (got %s)", c.Runtime.ShutdownGrace)
	}
	if c.Runtime.MaxRuntime.Duration < 0 {
		return fmt.Errorf("runtime.max_runtime must not be negative (got %s)", c.Runtime.MaxRuntime)
	}
	return nil
}
