// Package config loads warehouse configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/warehouse/core"
)

// Sink kinds.
const (
	SinkHTTP = "http"
	SinkLog  = "log"
	SinkNone = "none"
)

// Config is the warehouse configuration.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Sink      SinkConfig      `yaml:"sink"`
	Collector CollectorConfig `yaml:"collector"`
}

// SinkConfig selects and tunes record delivery in instrumented processes.
type SinkConfig struct {
	Kind          string        `yaml:"kind"`
	URL           string        `yaml:"url,omitempty"`
	APIKey        core.Secret   `yaml:"api_key,omitempty"`
	BatchSize     int           `yaml:"batch_size,omitempty"`
	FlushInterval time.Duration `yaml:"flush_interval,omitempty"`
	QueueSize     int           `yaml:"queue_size,omitempty"`
	HTTP2         bool          `yaml:"http2,omitempty"`
	Metrics       bool          `yaml:"metrics,omitempty"`
	Tracing       bool          `yaml:"tracing,omitempty"`
}

// CollectorConfig configures the reference collector server.
type CollectorConfig struct {
	Addr    string      `yaml:"addr"`
	DataDir string      `yaml:"data_dir,omitempty"`
	APIKey  core.Secret `yaml:"api_key,omitempty"`
}

// DefaultCollectorAddr is the listen address of the collector.
const DefaultCollectorAddr = ":8088"

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Sink:      SinkConfig{Kind: SinkNone},
		Collector: CollectorConfig{Addr: DefaultCollectorAddr},
	}
}

// DefaultPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.llm-warehouse/config.yaml
// - Windows: %USERPROFILE%\.llm-warehouse\config.yaml
func DefaultPath() string {
	var homeDir string
	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		return "config.yaml"
	}
	return filepath.Join(homeDir, ".llm-warehouse", "config.yaml")
}

// Load reads configuration from path on top of Default.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrInvalidConfig, path, err)
	}
	if cfg.Collector.Addr == "" {
		cfg.Collector.Addr = DefaultCollectorAddr
	}
	return cfg, nil
}

// FromEnv loads the file named by LLM_WAREHOUSE_CONFIG (or DefaultPath)
// and applies the environment overrides.
func FromEnv() (*Config, error) {
	path := os.Getenv(core.EnvConfig)
	if path == "" {
		path = DefaultPath()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from the LLM_WAREHOUSE_* variables read through getenv.
// Setting a URL without a sink kind selects the HTTP sink.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(core.EnvDebug); v != "" {
		c.Debug = core.Truthy(v)
	}
	if v := getenv(core.EnvURL); v != "" {
		c.Sink.URL = v
		if c.Sink.Kind == "" || c.Sink.Kind == SinkNone {
			c.Sink.Kind = SinkHTTP
		}
	}
	if v := getenv(core.EnvAPIKey); v != "" {
		c.Sink.APIKey = core.Secret(v)
	}
	if v := getenv(core.EnvSink); v != "" {
		c.Sink.Kind = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate reports configuration that cannot produce a working sink.
func (c *Config) Validate() error {
	switch c.Sink.Kind {
	case "", SinkNone, SinkLog:
	case SinkHTTP:
		if c.Sink.URL == "" {
			return fmt.Errorf("%w: sink kind %q requires a url", core.ErrInvalidConfig, SinkHTTP)
		}
	default:
		return fmt.Errorf("%w: unknown sink kind %q", core.ErrInvalidConfig, c.Sink.Kind)
	}
	if c.Sink.BatchSize < 0 || c.Sink.QueueSize < 0 || c.Sink.FlushInterval < 0 {
		return fmt.Errorf("%w: sink sizes must not be negative", core.ErrInvalidConfig)
	}
	if c.Sink.APIKey.IsRedacted() || c.Collector.APIKey.IsRedacted() {
		return fmt.Errorf("%w: api_key holds a redacted placeholder, not a key", core.ErrInvalidConfig)
	}
	return nil
}
