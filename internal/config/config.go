// Package config loads, merges and persists paper-digest settings.
//
// Precedence, lowest first: DefaultConfig, the YAML config file,
// environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAPIKey   = "OPENAI_API_KEY"
	EnvBaseURL  = "OPENAI_BASE_URL"
	EnvDatabase = "PAPER_DIGEST_DB"
	EnvModel    = "PAPER_DIGEST_MODEL"
)

// RedactedKey replaces the API key in exported configs.
const RedactedKey = "YOUR_API_KEY_HERE"

// Providers lists the supported generation backends.
var Providers = []string{"openai", "ollama"}

// Languages lists the accepted output languages.
var Languages = []string{
	"Chinese", "English", "Japanese", "Korean", "French",
	"German", "Spanish", "Russian", "Portuguese", "Italian",
}

// Config holds all settings for a run.
type Config struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Provider string `yaml:"provider"`
	Language string `yaml:"language"`

	// DatabasePath is the zotero.sqlite file. Empty means auto-detect.
	DatabasePath string `yaml:"database_path"`
	// DataDir holds storage/ for managed attachments. Empty means the
	// database's directory.
	DataDir string `yaml:"data_dir"`

	Limit               int      `yaml:"limit"`
	IncludeTypes        []string `yaml:"include_types"`
	ExcludeKeywords     []string `yaml:"exclude_keywords"`
	SelectedCollections []string `yaml:"selected_collections"`

	// Delay is the pause between records, in seconds.
	Delay     float64 `yaml:"delay"`
	MaxPages  int     `yaml:"max_pages"`
	MaxTokens int     `yaml:"max_tokens"`

	OutputDir        string `yaml:"output_dir"`
	ExportDetailed   bool   `yaml:"export_detailed"`
	ExportStatistics bool   `yaml:"export_statistics"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://api.openai.com/v1",
		Model:            "gpt-4o",
		Provider:         "openai",
		Language:         "Chinese",
		Delay:            1.0,
		MaxPages:         50,
		MaxTokens:        8000,
		OutputDir:        "output",
		ExportStatistics: true,
		LogLevel:         "info",
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFile reads a YAML file without defaults or environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Merge returns base with every non-zero overlay field applied. Lists
// replace the base list when non-empty; booleans are set when true.
func Merge(base, overlay *Config) *Config {
	out := *base

	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	str(&out.APIKey, overlay.APIKey)
	str(&out.BaseURL, overlay.BaseURL)
	str(&out.Model, overlay.Model)
	str(&out.Provider, overlay.Provider)
	str(&out.Language, overlay.Language)
	str(&out.DatabasePath, overlay.DatabasePath)
	str(&out.DataDir, overlay.DataDir)
	str(&out.OutputDir, overlay.OutputDir)
	str(&out.LogLevel, overlay.LogLevel)

	if overlay.Limit != 0 {
		out.Limit = overlay.Limit
	}
	if overlay.Delay != 0 {
		out.Delay = overlay.Delay
	}
	if overlay.MaxPages != 0 {
		out.MaxPages = overlay.MaxPages
	}
	if overlay.MaxTokens != 0 {
		out.MaxTokens = overlay.MaxTokens
	}

	if len(overlay.IncludeTypes) > 0 {
		out.IncludeTypes = overlay.IncludeTypes
	}
	if len(overlay.ExcludeKeywords) > 0 {
		out.ExcludeKeywords = overlay.ExcludeKeywords
	}
	if len(overlay.SelectedCollections) > 0 {
		out.SelectedCollections = overlay.SelectedCollections
	}

	out.ExportDetailed = base.ExportDetailed || overlay.ExportDetailed
	out.ExportStatistics = base.ExportStatistics || overlay.ExportStatistics
	out.Debug = base.Debug || overlay.Debug
	return &out
}

// Validate checks the settings needed for an analysis run.
func (c *Config) Validate() error {
	var errs []error

	if !contains(Providers, c.Provider, false) {
		errs = append(errs, fmt.Errorf("invalid provider %q (valid: %v)", c.Provider, Providers))
	}
	if c.Provider == "openai" && c.APIKey == "" {
		errs = append(errs, fmt.Errorf("API key not configured (set api_key or %s)", EnvAPIKey))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if !contains(Languages, c.Language, true) {
		errs = append(errs, fmt.Errorf("unsupported language %q (valid: %v)", c.Language, Languages))
	}
	if c.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("max_pages must be positive, got %d", c.MaxPages))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %g", c.Delay))
	}
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must not be negative, got %d", c.Limit))
	}
	return errors.Join(errs...)
}

func contains(list []string, v string, fold bool) bool {
	for _, s := range list {
		if s == v || (fold && strings.EqualFold(s, v)) {
			return true
		}
	}
	return false
}

// DelayDuration returns Delay as a time.Duration.
func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// Redacted returns a copy with the API key masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = RedactedKey
	}
	return &out
}
