package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/fluxo/csv-writer/pkg/header"
	"github.com/fluxo/csv-writer/pkg/writer"
)

// Config represents a complete CSV export job
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Defaults    TargetDefaults    `yaml:"defaults"`
	Targets     []TargetConfig    `yaml:"targets"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	EnableTracing bool   `yaml:"enable_tracing"`
}

// MetricsConfig contains metrics settings. Metrics are written to Textfile
// after the job when it is set.
type MetricsConfig struct {
	Textfile  string `yaml:"textfile"`
	Namespace string `yaml:"namespace"`
}

// ConcurrencyConfig bounds how many targets are written at once
type ConcurrencyConfig struct {
	MaxParallelTargets int `yaml:"max_parallel_targets"`
}

// TargetDefaults are applied to targets that leave a setting empty
type TargetDefaults struct {
	FieldDelimiter string `yaml:"field_delimiter"`
	Encoding       string `yaml:"encoding"`
	BatchSize      int    `yaml:"batch_size"`
}

// TargetConfig describes one output file and the records feeding it
type TargetConfig struct {
	Name              string      `yaml:"name"`
	Input             string      `yaml:"input"`
	Path              string      `yaml:"path"`
	Header            header.Spec `yaml:"header"`
	FieldDelimiter    string      `yaml:"field_delimiter"`
	Encoding          string      `yaml:"encoding"`
	Append            bool        `yaml:"append"`
	AlwaysQuote       bool        `yaml:"always_quote"`
	HeaderIDDelimiter string      `yaml:"header_id_delimiter"`
	BatchSize         int         `yaml:"batch_size"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			Output:        "stderr",
			EnableTracing: false,
		},
		Metrics: MetricsConfig{
			Namespace: "csvwriter",
		},
		Concurrency: ConcurrencyConfig{
			MaxParallelTargets: 4,
		},
		Defaults: TargetDefaults{
			FieldDelimiter: ",",
			Encoding:       "utf8",
			BatchSize:      1000,
		},
	}
}

// LoadConfig loads a job from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML job, applies environment overrides and validates it
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if set
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("CSV_ENCODING"); val != "" {
		c.Defaults.Encoding = val
	}
	if val := os.Getenv("CSV_METRICS_FILE"); val != "" {
		c.Metrics.Textfile = val
	}
}

func (c *Config) applyDefaults() {
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Name == "" {
			t.Name = t.Path
		}
		if t.FieldDelimiter == "" {
			t.FieldDelimiter = c.Defaults.FieldDelimiter
		}
		if t.Encoding == "" {
			t.Encoding = c.Defaults.Encoding
		}
		if t.BatchSize == 0 {
			t.BatchSize = c.Defaults.BatchSize
		}
	}
}

// Validate checks if the configuration is valid. Header, encoding and
// delimiter semantics are checked again by the writer itself.
func (c *Config) Validate() error {
	if c.Concurrency.MaxParallelTargets <= 0 {
		return fmt.Errorf("max parallel targets must be positive")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	names := make(map[string]bool, len(c.Targets))
	paths := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if t.Path == "" {
			return fmt.Errorf("target %d: path is required", i)
		}
		if t.Input == "" {
			return fmt.Errorf("target %q: input is required", t.Name)
		}
		if len(t.Header) == 0 {
			return fmt.Errorf("target %q: header is required", t.Name)
		}
		if utf8.RuneCountInString(t.FieldDelimiter) != 1 {
			return fmt.Errorf("target %q: field delimiter must be a single character", t.Name)
		}
		if utf8.RuneCountInString(t.HeaderIDDelimiter) > 1 {
			return fmt.Errorf("target %q: header id delimiter must be a single character", t.Name)
		}
		if t.BatchSize < 0 {
			return fmt.Errorf("target %q: batch size cannot be negative", t.Name)
		}
		if names[t.Name] {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		// Two writers on one file would interleave their sessions
		if paths[t.Path] {
			return fmt.Errorf("duplicate target path %q", t.Path)
		}
		names[t.Name] = true
		paths[t.Path] = true
	}
	return nil
}

// WriterOptions converts the target into writer options
func (t TargetConfig) WriterOptions() writer.Options {
	opts := writer.Options{
		Path:        t.Path,
		Header:      t.Header,
		Encoding:    t.Encoding,
		Append:      t.Append,
		AlwaysQuote: t.AlwaysQuote,
	}
	if r, _ := utf8.DecodeRuneInString(t.FieldDelimiter); r != utf8.RuneError {
		opts.FieldDelimiter = r
	}
	if r, _ := utf8.DecodeRuneInString(t.HeaderIDDelimiter); r != utf8.RuneError {
		opts.HeaderIDDelimiter = r
	}
	return opts
}
