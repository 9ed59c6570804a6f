// Package config loads the aerialqc runtime configuration: built-in defaults,
// overlaid by an optional YAML file, overlaid by AERIALQC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/anatolykoptev/go-aerialqc"
)

// DefaultFile is the config file looked up in the sorted directory.
const DefaultFile = "aerialqc.yaml"

// EnvPrefix prefixes every environment override, e.g. AERIALQC_MIN_WIDTH.
const EnvPrefix = "AERIALQC_"

// Metadata source names.
const (
	SourceNative   = "native"
	SourceExifTool = "exiftool"
)

// Config captures the full runtime configuration.
type Config struct {
	Thresholds aerialqc.Thresholds `yaml:"thresholds"`
	Output     OutputConfig        `yaml:"output"`
	Metadata   MetadataConfig      `yaml:"metadata"`
	Workers    int                 `yaml:"workers" env:"WORKERS"`
	Recursive  bool                `yaml:"recursive" env:"RECURSIVE"`
	Dedup      bool                `yaml:"dedup" env:"DEDUP"`
	LogLevel   string              `yaml:"log_level" env:"LOG_LEVEL"`
}

// OutputConfig holds output locations. Relative paths are resolved against
// the sorted directory.
type OutputConfig struct {
	GoodDir  string `yaml:"good_dir" env:"GOOD_DIR"`
	BadDir   string `yaml:"bad_dir" env:"BAD_DIR"`
	AuditLog string `yaml:"audit_log" env:"AUDIT_LOG"`
	Report   string `yaml:"report,omitempty" env:"REPORT"`
}

// MetadataConfig selects and tunes the metadata source.
type MetadataConfig struct {
	Source       string        `yaml:"source" env:"METADATA_SOURCE"`
	ExifToolPath string        `yaml:"exiftool_path,omitempty" env:"EXIFTOOL_PATH"`
	Timeout      time.Duration `yaml:"timeout" env:"METADATA_TIMEOUT"` // per exiftool request, excluding queueing
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Thresholds: aerialqc.DefaultThresholds(),
		Output: OutputConfig{
			GoodDir:  aerialqc.DefaultGoodDir,
			BadDir:   aerialqc.DefaultBadDir,
			AuditLog: aerialqc.DefaultAuditLog,
		},
		Metadata: MetadataConfig{
			Source:  SourceNative,
			Timeout: 30 * time.Second, //nolint:mnd // generous for large RAW files
		},
		Workers:  aerialqc.DefaultWorkers,
		LogLevel: "info",
	}
}

// Load builds the configuration. A missing file at path is not an error
// unless required is set (the user named the file explicitly).
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot produce a meaningful run.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	switch c.Metadata.Source {
	case SourceNative, SourceExifTool:
	default:
		errs = append(errs, fmt.Errorf("unknown metadata source %q (want %s or %s)", c.Metadata.Source, SourceNative, SourceExifTool))
	}
	if c.Metadata.Timeout < 0 {
		errs = append(errs, fmt.Errorf("metadata timeout must not be negative, got %s", c.Metadata.Timeout))
	}
	if c.Thresholds.MinBrightness > c.Thresholds.MaxBrightness {
		errs = append(errs, fmt.Errorf("min_brightness %.1f exceeds max_brightness %.1f",
			c.Thresholds.MinBrightness, c.Thresholds.MaxBrightness))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

const fileHeader = `# aerialqc configuration.
# Every value can be overridden with an AERIALQC_* environment variable
# (e.g. AERIALQC_MIN_WIDTH=4000) or a command-line flag.
`

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Default().Marshal()
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0o644); err != nil { //nolint:mnd,gosec // config is not secret
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
