package config

import (
	"fmt"
	"time"
)

// Config represents a mason.yaml configuration file.
// All values are optional and act as defaults for mason run flags.
// CLI flags always override config values.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Budgets   BudgetsConfig   `yaml:"budgets"`
	Vault     VaultConfig     `yaml:"vault"`
	// MinCoverage is the acceptance threshold in [0,100]. 0 means the
	// built-in default (100).
	MinCoverage float64 `yaml:"min_coverage"`
	// RunsDir is where run checkpoints are written. Empty disables
	// checkpointing unless --checkpoint is given.
	RunsDir string `yaml:"runs_dir"`
}

// GeneratorConfig holds generator defaults from the config file.
type GeneratorConfig struct {
	// Model is the model identifier to request.
	Model string `yaml:"model"`
	// BaseURL overrides the API endpoint (e.g. a local ollama server).
	BaseURL string `yaml:"base_url"`
	// APIKey authenticates against the endpoint. Usually set via
	// ${OPENAI_API_KEY} expansion rather than inline.
	APIKey string `yaml:"api_key"`
}

// SandboxConfig holds sandbox defaults from the config file.
type SandboxConfig struct {
	// Python is the interpreter used inside the sandbox.
	Python string `yaml:"python"`
	// Timeout bounds one sandbox run (e.g. "120s").
	Timeout Duration `yaml:"timeout"`
}

// BudgetsConfig holds retry-governor budget defaults.
type BudgetsConfig struct {
	MaxAttempts       int      `yaml:"max_attempts"`
	StagnationLimit   int      `yaml:"stagnation_limit"`
	MaxGeneratorCalls int      `yaml:"max_generator_calls"`
	MaxWallClock      Duration `yaml:"max_wall_clock"`
	MaxFileChanges    int      `yaml:"max_file_changes"`
}

// VaultConfig holds brick-vault defaults from the config file.
type VaultConfig struct {
	// Root is the local vault directory.
	Root string `yaml:"root"`
	// Mirror configures an optional S3 brick mirror.
	Mirror MirrorConfig `yaml:"mirror"`
}

// MirrorConfig holds S3 mirror defaults. The mirror is enabled when
// Bucket is non-empty.
type MirrorConfig struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration back to its string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
