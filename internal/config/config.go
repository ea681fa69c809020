// Package config loads bounce configuration. Built-in defaults are merged
// with an optional JSON or YAML file supplied by the user.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.json
var defaults []byte

const appName = "bounce"

// Config is the complete bounce configuration.
type Config struct {
	Demo    Demo    `koanf:"demo" yaml:"demo"`
	Watch   Watch   `koanf:"watch" yaml:"watch"`
	Log     Log     `koanf:"log" yaml:"log"`
	Tracing Tracing `koanf:"tracing" yaml:"tracing"`
}

// Demo configures the interactive demo.
type Demo struct {
	// InputDelay is the quiet period after the last keystroke.
	InputDelay time.Duration `koanf:"input_delay" yaml:"input_delay"`
	// ResetDelay is how long the "stopped typing" state is shown.
	ResetDelay time.Duration `koanf:"reset_delay" yaml:"reset_delay"`
}

// Watch configures the file watcher.
type Watch struct {
	Delay      time.Duration `koanf:"delay" yaml:"delay"`
	Extensions []string      `koanf:"extensions" yaml:"extensions"`
}

// Log configures the log file written by the demo.
type Log struct {
	File       string `koanf:"file" yaml:"file"`
	Debug      bool   `koanf:"debug" yaml:"debug"`
	MaxSizeMB  int    `koanf:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days" yaml:"max_age_days"`
}

// Tracing configures OTLP export.
type Tracing struct {
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
	Insecure bool   `koanf:"insecure" yaml:"insecure"`
}

// Load reads the defaults and, if path is not empty, merges the file at path
// over them. Files ending in .yaml or .yml are parsed as YAML, anything else
// as JSON.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaults), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(DataDir(), appName+".log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser()
	default:
		return json.Parser()
	}
}

// WriteYAML writes c as YAML. The output can be loaded back with Load.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Demo.InputDelay < 0 {
		errs = append(errs, fmt.Errorf("demo.input_delay must not be negative, got %s", c.Demo.InputDelay))
	}
	if c.Demo.ResetDelay < 0 {
		errs = append(errs, fmt.Errorf("demo.reset_delay must not be negative, got %s", c.Demo.ResetDelay))
	}
	if c.Watch.Delay < 0 {
		errs = append(errs, fmt.Errorf("watch.delay must not be negative, got %s", c.Watch.Delay))
	}
	return errors.Join(errs...)
}

// DataDir returns the directory bounce writes logs to. It honors
// $XDG_DATA_HOME and falls back to the system temp dir.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}
