// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bamstats/pkg/collector"
)

// Output formats and record error policies.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatTSV   = "tsv"

	OnErrorFail = "fail"
	OnErrorSkip = "skip"

	InputAuto = "auto"
	InputSAM  = "sam"
	InputBAM  = "bam"

	// GroupKind marks a node without metric logic of its own.
	GroupKind = "group"

	DefaultUpdateRate = 1000
)

// Config is the run configuration. It can be loaded from YAML and is then
// overridden by command-line flags.
type Config struct {
	UpdateRate  int             `yaml:"update_rate"`
	MaxRecords  int             `yaml:"max_records,omitempty"`
	OnError     string          `yaml:"on_error"`
	Format      string          `yaml:"format"`
	InputFormat string          `yaml:"input_format"`
	Log         LogConfig       `yaml:"log"`
	Metrics     MetricsConfig   `yaml:"metrics,omitempty"`
	Collectors  []CollectorSpec `yaml:"collectors"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// CollectorSpec describes one node of the collector tree.
type CollectorSpec struct {
	Kind     string          `yaml:"kind"`
	Name     string          `yaml:"name,omitempty"`
	Policy   string          `yaml:"policy,omitempty"` // fail-fast|continue
	Options  map[string]any  `yaml:"options,omitempty"`
	Children []CollectorSpec `yaml:"children,omitempty"`
}

// Default returns a configuration with every default applied and no
// collectors (the default tree is chosen by the assembler).
func Default() *Config {
	c := &Config{UpdateRate: -1}
	c.applyDefaults()
	return c
}

// Load reads path, expands environment variables, decodes YAML, applies
// defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadEnv reads KEY=VALUE files into the process environment so ${VAR}
// references in a configuration resolve. Variables already set are kept.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Parse decodes a YAML document into a validated Config.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	cfg := &Config{UpdateRate: -1}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.UpdateRate < 0 {
		c.UpdateRate = DefaultUpdateRate
	}
	if c.OnError == "" {
		c.OnError = OnErrorFail
	}
	if c.Format == "" {
		c.Format = FormatJSONL
	}
	if c.InputFormat == "" {
		c.InputFormat = InputAuto
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks field values and the collector tree description.
func (c *Config) Validate() error {
	if c.UpdateRate < 0 {
		return errors.New("update_rate must be ≥ 0")
	}
	if c.MaxRecords < 0 {
		return errors.New("max_records must be ≥ 0")
	}
	switch c.OnError {
	case OnErrorFail, OnErrorSkip:
	default:
		return fmt.Errorf("invalid on_error %q (want %s|%s)", c.OnError, OnErrorFail, OnErrorSkip)
	}
	switch c.Format {
	case FormatJSON, FormatJSONL, FormatTSV:
	default:
		return fmt.Errorf("invalid format %q (want %s|%s|%s)", c.Format, FormatJSON, FormatJSONL, FormatTSV)
	}
	switch c.InputFormat {
	case InputAuto, InputSAM, InputBAM:
	default:
		return fmt.Errorf("invalid input_format %q", c.InputFormat)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	for i := range c.Collectors {
		if err := c.Collectors[i].validate(fmt.Sprintf("collectors[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *CollectorSpec) validate(path string) error {
	if s.Kind == "" {
		return fmt.Errorf("%s: kind is required", path)
	}
	if _, err := collector.ParseErrorPolicy(s.Policy); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for i := range s.Children {
		if err := s.Children[i].validate(fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}
