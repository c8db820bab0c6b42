package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.BodySizeBytes() != constants.DefaultMaxBodySizeBytes {
		t.Fatalf("expected default body size, got %d", cfg.BodySizeBytes())
	}
	if cfg.ShutdownTimeoutDuration() != 10*time.Second {
		t.Fatalf("expected default shutdown timeout, got %s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Logging.Level != "" || cfg.Logging.Format != "" || cfg.Logging.OutputFile != "" {
		t.Fatalf("expected empty logging defaults, got %+v", cfg.Logging)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-config.yaml")

	contents := []byte(`address: 127.0.0.1:9000
maxBodySize: 16K
shutdownTimeout: 3s
logging:
  level: debug
  format: console
  outputFile: /tmp/emi-server.log
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.BodySizeBytes() != 16*1024 {
		t.Fatalf("expected body size override, got %d", cfg.BodySizeBytes())
	}
	if cfg.ShutdownTimeoutDuration() != 3*time.Second {
		t.Fatalf("expected shutdown timeout override, got %s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Logging.OutputFile != "/tmp/emi-server.log" {
		t.Fatalf("expected logging outputFile override, got %s", cfg.Logging.OutputFile)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad size":    "maxBodySize: invalid",
		"bad timeout": "shutdownTimeout: soon",
		"bad yaml":    "address: [",
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("expected error but got nil")
			}
		})
	}
}

func TestSetBodySizeBytes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetBodySizeBytes(2048)
	if cfg.BodySizeBytes() != 2048 || cfg.MaxBodySize != "2048" {
		t.Fatalf("expected override to 2048, got %d (%s)", cfg.BodySizeBytes(), cfg.MaxBodySize)
	}
	cfg.SetBodySizeBytes(-1)
	if cfg.BodySizeBytes() != 2048 {
		t.Fatalf("expected negative override to be ignored, got %d", cfg.BodySizeBytes())
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxBodySizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	if _, err := ParseSize("1GB"); err == nil {
		t.Fatal("expected error for unsupported unit")
	}
	if _, err := ParseSize("abc"); err == nil {
		t.Fatal("expected error for invalid number")
	}

	// Each of these would wrap around int64 if multiplied unchecked; the
	// first wraps to a positive value.
	for _, input := range []string{"18014398509481985M", "9007199254740992K", "8796093022208M"} {
		if _, err := ParseSize(input); err == nil {
			t.Fatalf("expected overflow error for %q", input)
		}
	}
	if got, err := ParseSize("8796093022207M"); err != nil || got != 8796093022207*1024*1024 {
		t.Fatalf("ParseSize(\"8796093022207M\") = %d, %v", got, err)
	}
}
