// Package config provides configuration management for swifilectl.
// It uses koanf v2 to load configuration from YAML files and supports
// writing a default file with Save.
//
// Configuration is loaded from /etc/swifile/config.yaml by default. A missing
// file is not an error: every field has a default matching the standard
// jailbreak layout. The root helper never reads configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	goyaml "gopkg.in/yaml.v3"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/logging"
)

// DefaultConfigPath is the default location for the configuration file.
const DefaultConfigPath = "/etc/swifile/config.yaml"

// Defaults for the locator and helper settings.
const (
	DefaultLogLevel        = "info"
	DefaultHelperPath      = "/usr/libexec/swifile/roothelper"
	DefaultShellPath       = "/usr/bin/bash"
	DefaultAlternatePrefix = "/var/jb"
	DefaultBundleDir       = "/var/containers/Bundle/Application"
	DefaultMarker          = ".jbroot"
	DefaultSandboxUID      = 501
)

// Config holds the caller-side configuration loaded from the YAML config file.
// Fields are tagged for both koanf (loading) and yaml (saving).
type Config struct {
	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	// HelperPath is the root helper binary, relative to the located root.
	HelperPath string `koanf:"helper_path" yaml:"helper_path"`

	// RootPrefix skips location and forces a root prefix. "/" forces the
	// unprefixed root. Empty means locate.
	RootPrefix string `koanf:"root_prefix" yaml:"root_prefix,omitempty"`

	// SandboxUID is the unprivileged identity used for non-root spawns and
	// as the owner of files created by the helper. Default: 501.
	SandboxUID int `koanf:"sandbox_uid" yaml:"sandbox_uid"`

	Locator LocatorConfig `koanf:"locator" yaml:"locator"`
}

// LocatorConfig tunes root location.
type LocatorConfig struct {
	// ShellPath is the canonical shell whose presence identifies a root.
	ShellPath string `koanf:"shell_path" yaml:"shell_path"`

	// AlternatePrefixes are checked in order after the unprefixed root.
	AlternatePrefixes []string `koanf:"alternate_prefixes" yaml:"alternate_prefixes"`

	// BundleDir is scanned for an entry whose name begins with Marker.
	BundleDir string `koanf:"bundle_dir" yaml:"bundle_dir"`
	Marker    string `koanf:"marker" yaml:"marker"`
}

// Validation errors returned by Load.
var (
	ErrInvalidLogLevel   = errors.New("log_level must be one of debug, info, warn, error")
	ErrRelativePath      = errors.New("path settings must be absolute")
	ErrInvalidSandboxUID = errors.New("sandbox_uid must be positive")
	ErrMarkerRequired    = errors.New("locator.marker is required")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified YAML file path.
// A missing file yields the defaults. Returns an error if the file cannot be
// parsed or a field is invalid.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.HelperPath == "" {
		c.HelperPath = DefaultHelperPath
	}
	if c.SandboxUID == 0 {
		c.SandboxUID = DefaultSandboxUID
	}
	if c.Locator.ShellPath == "" {
		c.Locator.ShellPath = DefaultShellPath
	}
	// A present but empty list disables alternate prefixes.
	if c.Locator.AlternatePrefixes == nil {
		c.Locator.AlternatePrefixes = []string{DefaultAlternatePrefix}
	}
	if c.Locator.BundleDir == "" {
		c.Locator.BundleDir = DefaultBundleDir
	}
	if c.Locator.Marker == "" {
		c.Locator.Marker = DefaultMarker
	}
}

// validate checks that configuration fields are present and valid.
func (c *Config) validate() error {
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.SandboxUID < 0 {
		return ErrInvalidSandboxUID
	}
	if c.Locator.Marker == "" {
		return ErrMarkerRequired
	}
	paths := []string{c.HelperPath, c.Locator.ShellPath, c.Locator.BundleDir}
	paths = append(paths, c.Locator.AlternatePrefixes...)
	if c.RootPrefix != "" {
		paths = append(paths, c.RootPrefix)
	}
	for _, p := range paths {
		if !path.IsAbs(p) {
			return fmt.Errorf("%w: %q", ErrRelativePath, p)
		}
	}
	return nil
}

// FixedRoot returns the forced root prefix, if any. "/" maps to the
// unprefixed root "".
func (c *Config) FixedRoot() (string, bool) {
	switch c.RootPrefix {
	case "":
		return "", false
	case "/":
		return "", true
	default:
		return c.RootPrefix, true
	}
}

// Save writes the configuration to the specified YAML file path.
// The file is created with 0644 permissions; it holds no secrets.
func Save(path string, cfg *Config) error {
	data, err := goyaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}

	return nil
}
