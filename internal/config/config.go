// Package config handles loading and resolving ptine configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flag --lang / --cache-dir
//  2. Environment variables PTINE_LANG / PTINE_CACHE_DIR
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultConfigFile  = "config.json"
	DefaultFormat      = "table"
	DefaultLanguage    = "PT"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
	DefaultRate        = 4.0
	EnvLanguage        = "PTINE_LANG"
	EnvCacheDir        = "PTINE_CACHE_DIR"
)

// File is the on-disk representation of config.json.
type File struct {
	Language      string  `json:"language"`
	DefaultFormat string  `json:"default_format"`
	Timeout       string  `json:"timeout"`
	Concurrency   int     `json:"concurrency"`
	Rate          float64 `json:"rate"`
	BaseURL       string  `json:"base_url"`
	CacheDir      string  `json:"cache_dir"`
	MetadataTTL   string  `json:"metadata_ttl"`
	DataTTL       string  `json:"data_ttl"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Language    string
	Format      string
	Timeout     time.Duration
	Concurrency int
	Rate        float64
	BaseURL     string
	CacheDir    string
	MetadataTTL time.Duration
	DataTTL     time.Duration
	ConfigPath  string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	NoCache bool
	Refresh bool
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
// flagLang is the value of --lang (empty string if not set).
func Load(flagLang string) (*Config, error) {
	cfg := &Config{
		Language:    DefaultLanguage,
		Format:      DefaultFormat,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		Rate:        DefaultRate,
		BaseURL:     "https://www.ine.pt",
	}

	// Layer 1: config.json (lowest priority)
	if f, path, err := loadFile(); err == nil {
		applyFile(cfg, f, path)
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvLanguage); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.CacheDir = v
	}

	// Layer 3: CLI flag (highest priority)
	if flagLang != "" {
		cfg.Language = flagLang
	}

	cfg.Language = strings.ToUpper(strings.TrimSpace(cfg.Language))

	// Set default cache path if still unset
	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.CacheDir = filepath.Join(home, ".ptine")
		}
	}

	return cfg, nil
}

// Validate returns an error if any resolved value is out of range.
func (c *Config) Validate() error {
	switch c.Language {
	case "EN", "PT":
	default:
		return fmt.Errorf("invalid language %q (must be EN or PT)", c.Language)
	}
	return nil
}

// CachePath returns the full path of the cache database file.
func (c *Config) CachePath() string {
	return filepath.Join(c.CacheDir, "ptine.db")
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s", path)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.Language != "" {
		cfg.Language = f.Language
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.CacheDir != "" {
		cfg.CacheDir = f.CacheDir
	}
	if f.MetadataTTL != "" {
		if d, err := time.ParseDuration(f.MetadataTTL); err == nil {
			cfg.MetadataTTL = d
		}
	}
	if f.DataTTL != "" {
		if d, err := time.ParseDuration(f.DataTTL); err == nil {
			cfg.DataTTL = d
		}
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `ptine config init`.
func Template() File {
	return File{
		Language:      DefaultLanguage,
		DefaultFormat: "table",
		Timeout:       "30s",
		Concurrency:   DefaultConcurrency,
		Rate:          DefaultRate,
		BaseURL:       "https://www.ine.pt",
		MetadataTTL:   "168h",
		DataTTL:       "24h",
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
