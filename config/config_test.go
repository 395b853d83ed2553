package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petal-labs/warehouse/core"
)

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("DefaultPath() = %q, should end with config.yaml", path)
	}
	if os.Getenv("HOME") != "" && filepath.Base(filepath.Dir(path)) != ".llm-warehouse" {
		t.Errorf("DefaultPath() = %q, should be in .llm-warehouse", path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if cfg.Sink.Kind != SinkNone {
		t.Errorf("Sink.Kind = %q, want none", cfg.Sink.Kind)
	}
	if cfg.Collector.Addr != DefaultCollectorAddr {
		t.Errorf("Collector.Addr = %q", cfg.Collector.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `debug: true
sink:
  kind: http
  url: http://localhost:8088/v1/records
  api_key: wh-test
  batch_size: 20
  flush_interval: 250ms
  http2: true
  metrics: true
collector:
  data_dir: /var/lib/warehouse
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
	if cfg.Sink.Kind != SinkHTTP || cfg.Sink.URL != "http://localhost:8088/v1/records" {
		t.Errorf("Sink = %+v", cfg.Sink)
	}
	if cfg.Sink.APIKey.Expose() != "wh-test" {
		t.Errorf("APIKey not loaded")
	}
	if cfg.Sink.FlushInterval != 250*time.Millisecond {
		t.Errorf("FlushInterval = %v", cfg.Sink.FlushInterval)
	}
	if cfg.Sink.BatchSize != 20 || !cfg.Sink.HTTP2 || !cfg.Sink.Metrics {
		t.Errorf("Sink = %+v", cfg.Sink)
	}
	if cfg.Collector.Addr != DefaultCollectorAddr || cfg.Collector.DataDir != "/var/lib/warehouse" {
		t.Errorf("Collector = %+v", cfg.Collector)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sink: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantKind string
		wantURL  string
		wantDbg  bool
	}{
		{"nothing set", nil, SinkNone, "", false},
		{"url selects http", map[string]string{core.EnvURL: "http://c/v1/records"}, SinkHTTP, "http://c/v1/records", false},
		{"explicit sink wins", map[string]string{core.EnvURL: "http://c", core.EnvSink: " LOG "}, SinkLog, "http://c", false},
		{"debug off", map[string]string{core.EnvDebug: "off"}, SinkNone, "", false},
		{"debug on", map[string]string{core.EnvDebug: "yes"}, SinkNone, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ApplyEnv(func(k string) string { return tt.env[k] })
			if cfg.Sink.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", cfg.Sink.Kind, tt.wantKind)
			}
			if cfg.Sink.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", cfg.Sink.URL, tt.wantURL)
			}
			if cfg.Debug != tt.wantDbg {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.wantDbg)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sink:\n  kind: log\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(core.EnvConfig, path)
	t.Setenv(core.EnvAPIKey, "wh-env")
	t.Setenv(core.EnvURL, "")
	t.Setenv(core.EnvSink, "")
	t.Setenv(core.EnvDebug, "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Sink.Kind != SinkLog {
		t.Errorf("Kind = %q, want log", cfg.Sink.Kind)
	}
	if cfg.Sink.APIKey.Expose() != "wh-env" {
		t.Error("API key override not applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sink    SinkConfig
		wantErr bool
	}{
		{"none", SinkConfig{Kind: SinkNone}, false},
		{"empty kind", SinkConfig{}, false},
		{"log", SinkConfig{Kind: SinkLog}, false},
		{"http with url", SinkConfig{Kind: SinkHTTP, URL: "http://c"}, false},
		{"http without url", SinkConfig{Kind: SinkHTTP}, true},
		{"unknown kind", SinkConfig{Kind: "kafka"}, true},
		{"negative batch", SinkConfig{Kind: SinkLog, BatchSize: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sink = tt.sink
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateRejectsRedactedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "sink:\n  kind: http\n  url: http://c\n  api_key: \"[REDACTED]\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
	}

	cfg.Sink.APIKey = "wh-secret"
	cfg.Collector.APIKey = core.Secret("[REDACTED]")
	if err := cfg.Validate(); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("Validate() with redacted collector key = %v, want ErrInvalidConfig", err)
	}

	cfg.Collector.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with real key = %v", err)
	}
}
