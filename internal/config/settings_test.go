package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg.StreamAddress() != defaultStreamAddress {
		t.Fatalf("address = %q", cfg.StreamAddress())
	}
	if cfg.FlushInterval() != defaultFlushIntervalMS*time.Millisecond {
		t.Fatalf("flush interval = %v", cfg.FlushInterval())
	}
	if cfg.MaxBatch() != defaultMaxBatch || cfg.HistoryLimit() != defaultHistoryLimit {
		t.Fatalf("engine defaults = %d/%d", cfg.MaxBatch(), cfg.HistoryLimit())
	}
	if cfg.LogLevel() != "info" || cfg.StreamDebugEnabled() {
		t.Fatalf("logging defaults = %q/%v", cfg.LogLevel(), cfg.StreamDebugEnabled())
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[stream]
address = "10.0.0.5:9000"

[engine]
flush_interval_ms = 16
history_limit = 20

[logging]
level = "debug"

[debug]
stream_debug = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg.StreamAddress() != "10.0.0.5:9000" {
		t.Fatalf("address = %q", cfg.StreamAddress())
	}
	if cfg.FlushInterval() != 16*time.Millisecond {
		t.Fatalf("flush interval = %v", cfg.FlushInterval())
	}
	if cfg.HistoryLimit() != 20 {
		t.Fatalf("history limit = %d", cfg.HistoryLimit())
	}
	// Sections untouched by the file keep their defaults.
	if cfg.MaxBatch() != defaultMaxBatch {
		t.Fatalf("max batch = %d", cfg.MaxBatch())
	}
	if cfg.LogLevel() != "debug" || !cfg.StreamDebugEnabled() {
		t.Fatalf("logging = %q/%v", cfg.LogLevel(), cfg.StreamDebugEnabled())
	}
}

func TestLoadEmptyFileIsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg.StreamAddress() != defaultStreamAddress {
		t.Fatalf("address = %q", cfg.StreamAddress())
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[stream\naddress ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadFromPath(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestStreamAddressNormalization(t *testing.T) {
	cases := map[string]string{
		"":                        defaultStreamAddress,
		"   ":                     defaultStreamAddress,
		"http://example.com:80":   "example.com:80",
		"https://example.com/":    "example.com",
		"example.com:9000":        "example.com:9000",
		"http://":                 defaultStreamAddress,
		"http://host.local:3000/": "host.local:3000",
	}
	for in, want := range cases {
		cfg := Config{Stream: StreamConfig{Address: in}}
		if got := cfg.StreamAddress(); got != want {
			t.Fatalf("StreamAddress(%q) = %q, want %q", in, got, want)
		}
	}
	cfg := Config{Stream: StreamConfig{Address: "example.com:9000"}}
	if cfg.StreamBaseURL() != "http://example.com:9000" {
		t.Fatalf("base url = %q", cfg.StreamBaseURL())
	}
}

func TestEngineBoundsClamped(t *testing.T) {
	cfg := Config{Engine: EngineConfig{FlushIntervalMS: -1, MaxBatch: -5, HistoryLimit: -5}}
	if cfg.FlushInterval() != 0 {
		t.Fatalf("negative flush interval should disable the timer, got %v", cfg.FlushInterval())
	}
	if cfg.MaxBatch() != defaultMaxBatch {
		t.Fatalf("max batch = %d", cfg.MaxBatch())
	}
	if cfg.HistoryLimit() != 0 {
		t.Fatalf("negative history limit should mean unbounded, got %d", cfg.HistoryLimit())
	}
}
