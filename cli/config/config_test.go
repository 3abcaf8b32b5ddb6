package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mason.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTemp(t, `
generator:
  model: gpt-oss:20b
  base_url: http://localhost:11434/v1
  api_key: test-key
sandbox:
  python: python3.12
  timeout: 90s
budgets:
  max_attempts: 5
  stagnation_limit: 3
  max_generator_calls: 8
  max_wall_clock: 5m
  max_file_changes: 6
vault:
  root: bricks
  mirror:
    bucket: mason-bricks
    prefix: verified
    region: us-east-1
    s3_path_style: true
min_coverage: 95.5
runs_dir: runs
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Generator.Model != "gpt-oss:20b" {
		t.Errorf("model = %q", cfg.Generator.Model)
	}
	if cfg.Sandbox.Timeout.Duration != 90*time.Second {
		t.Errorf("sandbox timeout = %v", cfg.Sandbox.Timeout.Duration)
	}
	if cfg.Budgets.MaxAttempts != 5 {
		t.Errorf("max attempts = %d", cfg.Budgets.MaxAttempts)
	}
	if cfg.Budgets.MaxWallClock.Duration != 5*time.Minute {
		t.Errorf("max wall clock = %v", cfg.Budgets.MaxWallClock.Duration)
	}
	if cfg.Vault.Mirror.Bucket != "mason-bricks" {
		t.Errorf("mirror bucket = %q", cfg.Vault.Mirror.Bucket)
	}
	if !cfg.Vault.Mirror.S3PathStyle {
		t.Error("s3_path_style not parsed")
	}
	if cfg.MinCoverage != 95.5 {
		t.Errorf("min coverage = %v", cfg.MinCoverage)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("MASON_TEST_KEY", "secret-123")
	path := writeTemp(t, `
generator:
  api_key: ${MASON_TEST_KEY}
  model: ${MASON_TEST_MODEL:-gpt-oss:20b}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Generator.APIKey != "secret-123" {
		t.Errorf("api_key = %q, want expanded env value", cfg.Generator.APIKey)
	}
	if cfg.Generator.Model != "gpt-oss:20b" {
		t.Errorf("model = %q, want fallback default", cfg.Generator.Model)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "generator: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeTemp(t, "sandbox:\n  timeout: ninety\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid duration")
	}
}
