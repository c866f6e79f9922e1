// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"universal-extractor/internal/paths"
	"universal-extractor/internal/preprocessors"
	"universal-extractor/internal/validators"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults Defaults `yaml:"defaults"`

	// Format Reader limits
	Reader struct {
		MaxFileSize int64 `yaml:"max_file_size"`
	} `yaml:"reader"`

	// Custom definitions appended after the built-in catalog
	Definitions []DefinitionConfig `yaml:"definitions"`

	// Profiles for different extraction scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// Defaults are the settings used when no profile or flag overrides them
type Defaults struct {
	Definition   string        `yaml:"definition"`
	Format       string        `yaml:"format"`
	OutputDir    string        `yaml:"output_dir"`
	NoColor      bool          `yaml:"no_color"`
	Debug        bool          `yaml:"debug"`
	Workers      int           `yaml:"workers"`
	MatchTimeout time.Duration `yaml:"match_timeout"`
	Markup       string        `yaml:"markup"`
	MaxFileSize  int64         `yaml:"-"`
}

// DefinitionConfig is a user-supplied extraction definition.
// Both flags default to true, like the built-in catalog.
type DefinitionConfig struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	IgnoreCase  *bool  `yaml:"ignore_case"`
	Multiline   *bool  `yaml:"multiline"`
	Description string `yaml:"description"`
}

// Profile overrides the defaults; zero values leave them untouched
type Profile struct {
	Definition   string        `yaml:"definition"`
	Format       string        `yaml:"format"`
	OutputDir    string        `yaml:"output_dir"`
	NoColor      *bool         `yaml:"no_color"`
	Debug        *bool         `yaml:"debug"`
	Workers      int           `yaml:"workers"`
	MatchTimeout time.Duration `yaml:"match_timeout"`
	Markup       string        `yaml:"markup"`
	MaxFileSize  int64         `yaml:"max_file_size"`
	Description  string        `yaml:"description"`
}

// newDefault builds the configuration used when no file is present
func newDefault() *Config {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	config.Defaults.Definition = "E-mail address"
	config.Defaults.Format = "text"
	config.Defaults.Markup = string(preprocessors.MarkupRaw)

	// Bounded matching for documents from untrusted sources
	config.Profiles["untrusted"] = Profile{
		MatchTimeout: 10 * time.Second,
		MaxFileSize:  100 << 20,
		Description:  "Time-boxed matching and a 100 MiB read limit for documents from unknown sources",
	}

	return config
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := newDefault()

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]Profile)
	}

	config.Defaults.OutputDir = paths.NormalizePath(config.Defaults.OutputDir)
	config.Defaults.MaxFileSize = config.Reader.MaxFileSize

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns the default configuration and the error
// so the caller can warn. This is the shared helper used by both the CLI and the web server.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return newDefault(), err
	}
	return cfg, nil
}

// FindConfigFile looks for a configuration file in the current directory, then the user config directory
func FindConfigFile() string {
	for _, name := range []string{
		"universal-extractor.yaml",
		"universal-extractor.yml",
		".universal-extractor.yaml",
		".universal-extractor.yml",
	} {
		if fileExists(name) {
			return name
		}
	}

	if standardConfig := paths.GetConfigFile(); fileExists(standardConfig) {
		return standardConfig
	}

	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns the available profile names, sorted
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// Resolve merges the named profile over the defaults. An empty name returns the defaults.
func (c *Config) Resolve(profileName string) (Defaults, error) {
	resolved := c.Defaults
	if profileName == "" {
		return resolved, nil
	}

	profile := c.GetProfile(profileName)
	if profile == nil {
		return resolved, fmt.Errorf("profile '%s' not found (available: %v)", profileName, c.ListProfiles())
	}

	if profile.Definition != "" {
		resolved.Definition = profile.Definition
	}
	if profile.Format != "" {
		resolved.Format = profile.Format
	}
	if profile.OutputDir != "" {
		resolved.OutputDir = paths.NormalizePath(profile.OutputDir)
	}
	if profile.NoColor != nil {
		resolved.NoColor = *profile.NoColor
	}
	if profile.Debug != nil {
		resolved.Debug = *profile.Debug
	}
	if profile.Workers != 0 {
		resolved.Workers = profile.Workers
	}
	if profile.MatchTimeout != 0 {
		resolved.MatchTimeout = profile.MatchTimeout
	}
	if profile.Markup != "" {
		resolved.Markup = profile.Markup
	}
	if profile.MaxFileSize != 0 {
		resolved.MaxFileSize = profile.MaxFileSize
	}
	return resolved, nil
}

// Catalog returns the built-in catalog extended with the configured custom definitions.
// Custom patterns are compiled on first use.
func (c *Config) Catalog() (*validators.Catalog, error) {
	custom := make([]*validators.Definition, 0, len(c.Definitions))
	for _, d := range c.Definitions {
		options := validators.DefaultMatchOptions
		if d.IgnoreCase != nil {
			options.IgnoreCase = *d.IgnoreCase
		}
		if d.Multiline != nil {
			options.Multiline = *d.Multiline
		}
		custom = append(custom, validators.NewDefinition(d.Name, d.Pattern, options, d.Description))
	}
	return validators.Builtins().WithCustom(custom...)
}

// ValidateConfig checks values that would otherwise fail late, in the middle of a batch
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := validateDefaults("defaults", config.Defaults.Workers, config.Defaults.MatchTimeout,
		config.Defaults.Markup, config.Defaults.OutputDir); err != nil {
		return err
	}
	if config.Reader.MaxFileSize < 0 {
		return fmt.Errorf("reader.max_file_size must not be negative")
	}

	for name, profile := range config.Profiles {
		if err := validateDefaults("profile '"+name+"'", profile.Workers, profile.MatchTimeout,
			profile.Markup, profile.OutputDir); err != nil {
			return err
		}
		if profile.MaxFileSize < 0 {
			return fmt.Errorf("profile '%s': max_file_size must not be negative", name)
		}
	}

	if _, err := config.Catalog(); err != nil {
		return fmt.Errorf("invalid definitions: %w", err)
	}

	return nil
}

func validateDefaults(scope string, workers int, timeout time.Duration, markup, outputDir string) error {
	if workers < 0 {
		return fmt.Errorf("%s: workers must not be negative", scope)
	}
	if timeout < 0 {
		return fmt.Errorf("%s: match_timeout must not be negative", scope)
	}
	if _, err := preprocessors.ParseMarkupMode(markup); err != nil {
		return fmt.Errorf("%s: %w", scope, err)
	}
	if err := paths.ValidatePath(outputDir); err != nil {
		return fmt.Errorf("%s: invalid output directory: %w", scope, err)
	}
	return nil
}
