package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":8084" {
		t.Errorf("expected default address :8084, got %s", cfg.Server.Address)
	}
	if cfg.Scanner.EntropyHighThreshold != 4.5 {
		t.Errorf("expected default high threshold 4.5, got %g", cfg.Scanner.EntropyHighThreshold)
	}
	if cfg.Database.RetentionDays != 90 {
		t.Errorf("expected default retention 90 days, got %d", cfg.Database.RetentionDays)
	}
	if cfg.Redis.Enabled || cfg.Database.Enabled {
		t.Error("optional backends must default to disabled")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  address: ":9090"
log:
  level: debug
scanner:
  entropy_high_threshold: 5.0
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("expected address :9090, got %s", cfg.Server.Address)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Log.Level)
	}
	if cfg.Scanner.EntropyHighThreshold != 5.0 {
		t.Errorf("expected high threshold 5.0, got %g", cfg.Scanner.EntropyHighThreshold)
	}
	// Untouched keys keep their defaults.
	if cfg.Scanner.EntropyMediumThreshold != 3.5 {
		t.Errorf("expected default medium threshold, got %g", cfg.Scanner.EntropyMediumThreshold)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("LEAKGUARD_SERVER_ADDRESS", ":7070")
	t.Setenv("LEAKGUARD_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":7070" {
		t.Errorf("environment must win over the file, got %s", cfg.Server.Address)
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis enabled from environment")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.Scanner.EntropyHighThreshold = 3.0
	cfg.Scanner.EntropyMediumThreshold = 3.5

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when high threshold does not exceed medium")
	}
}

func TestValidate_RequiredBackendSettings(t *testing.T) {
	cfg := Default()
	cfg.Database.Enabled = true
	cfg.Database.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled database without DSN")
	}

	cfg = Default()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled redis without address")
	}
}

func TestValidate_PIIScoreRange(t *testing.T) {
	cfg := Default()
	cfg.Scanner.PIIScoreThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range PII score threshold")
	}
}
