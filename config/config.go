// Package config loads the YAML configuration shared by the command line
// and the HTTP server. Command-line flags override file values.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/tlguard"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderDeepL  = "deepl"
	ProviderMock   = "mock"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// Environment variables consulted for API keys.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvDeepLKey  = "DEEPL_API_KEY"
)

// Config is the complete tool configuration.
type Config struct {
	Source     string            `yaml:"source"`
	Target     string            `yaml:"target"`
	TargetName string            `yaml:"target_name"`
	EmojiMode  tlguard.EmojiMode `yaml:"emoji_mode"`
	StripTag   string            `yaml:"strip_tag"`
	Workers    int               `yaml:"workers"`

	Glossary GlossaryConfig `yaml:"glossary"`
	Records  RecordsConfig  `yaml:"records"`
	Provider ProviderConfig `yaml:"provider"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
}

// GlossaryConfig selects the forced term translations.
type GlossaryConfig struct {
	File  string            `yaml:"file"`
	Pairs []string          `yaml:"pairs"`
	Mode  tlguard.MatchMode `yaml:"mode"`
}

// RecordsConfig switches the bookkeeping rewrites of product records.
type RecordsConfig struct {
	NullID       bool `yaml:"null_id"`
	SetSourceID  bool `yaml:"set_source_id"`
	SlugFromName bool `yaml:"slug_from_name"`
}

// ProviderConfig selects and tunes the translation backend.
type ProviderConfig struct {
	Name              string                   `yaml:"name"`
	APIKey            string                   `yaml:"api_key"`
	Model             string                   `yaml:"model"`
	BaseURL           string                   `yaml:"base_url"`
	Temperature       float32                  `yaml:"temperature"`
	Context           string                   `yaml:"context"`
	Style             tlguard.TranslationStyle `yaml:"style"`
	ExcludedTerms     []string                 `yaml:"excluded_terms"`
	RequestsPerMinute int                      `yaml:"requests_per_minute"`
	MaxRetries        int                      `yaml:"max_retries"`
}

// CacheConfig selects the translation cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	MaxEntries int    `yaml:"max_entries"`
	RedisURL   string `yaml:"redis_url"`
	Prefix     string `yaml:"prefix"`
	Path       string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source:    "fr",
		Target:    "en",
		EmojiMode: tlguard.EmojiKeep,
		Workers:   1,
		Glossary: GlossaryConfig{
			Mode: tlguard.MatchWord,
		},
		Provider: ProviderConfig{
			Name:       ProviderOpenAI,
			Style:      tlguard.StyleNeutral,
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
		},
		Server: ServerConfig{
			Listen:         ":8080",
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   10 << 20,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, &tlguard.ConfigError{Field: "file", Message: "opening " + path, Cause: err}
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads YAML over the defaults. Unknown keys are rejected. It does
// not validate.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, &tlguard.ConfigError{Field: "file", Message: "parsing YAML", Cause: err}
	}
	return cfg, nil
}

// Validate checks every enumerated value and range.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Source) == "":
		return &tlguard.ConfigError{Field: "source", Message: "must not be empty"}
	case strings.TrimSpace(c.Target) == "":
		return &tlguard.ConfigError{Field: "target", Message: "must not be empty"}
	case c.EmojiMode != tlguard.EmojiKeep && c.EmojiMode != tlguard.EmojiTranslate:
		return &tlguard.ConfigError{Field: "emoji_mode", Message: `must be "keep" or "translate"`}
	case c.Glossary.Mode != tlguard.MatchWord && c.Glossary.Mode != tlguard.MatchSubstring:
		return &tlguard.ConfigError{Field: "glossary.mode", Message: `must be "word" or "substring"`}
	case c.Workers < 1:
		return &tlguard.ConfigError{Field: "workers", Message: "must be at least 1"}
	case c.Provider.MaxRetries < 0:
		return &tlguard.ConfigError{Field: "provider.max_retries", Message: "must not be negative"}
	case c.Provider.RequestsPerMinute < 0:
		return &tlguard.ConfigError{Field: "provider.requests_per_minute", Message: "must not be negative"}
	case c.Cache.TTLSeconds < 0:
		return &tlguard.ConfigError{Field: "cache.ttl_seconds", Message: "must not be negative"}
	case c.Server.MaxBodyBytes <= 0:
		return &tlguard.ConfigError{Field: "server.max_body_bytes", Message: "must be positive"}
	}

	switch c.Provider.Name {
	case ProviderOpenAI, ProviderDeepL, ProviderMock:
	default:
		return &tlguard.ConfigError{Field: "provider.name", Message: `must be "openai", "deepl" or "mock"`}
	}

	switch c.Provider.Style {
	case tlguard.StyleFormal, tlguard.StyleNeutral, tlguard.StyleMarketing, tlguard.StyleTechnical:
	default:
		return &tlguard.ConfigError{Field: "provider.style", Message: "unknown style " + string(c.Provider.Style)}
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return &tlguard.ConfigError{Field: "cache.redis_url", Message: "required for the redis backend"}
		}
	case CacheSQLite:
		if c.Cache.Path == "" {
			return &tlguard.ConfigError{Field: "cache.path", Message: "required for the sqlite backend"}
		}
	default:
		return &tlguard.ConfigError{Field: "cache.backend", Message: `must be "none", "memory", "redis" or "sqlite"`}
	}

	return nil
}

// ResolveAPIKey fills Provider.APIKey from the environment when the file
// leaves it empty. getenv is os.Getenv outside tests.
func (c *Config) ResolveAPIKey(getenv func(string) string) {
	if c.Provider.APIKey != "" {
		return
	}
	switch c.Provider.Name {
	case ProviderOpenAI:
		c.Provider.APIKey = getenv(EnvOpenAIKey)
	case ProviderDeepL:
		c.Provider.APIKey = getenv(EnvDeepLKey)
	}
}

// LoadGlossary merges the glossary file with the inline pairs, pairs
// winning. A file that cannot be read is returned as a *tlguard.GlossaryError
// next to the usable entries; callers log it and go on.
func (c *Config) LoadGlossary() (tlguard.Glossary, error) {
	fromFile, err := tlguard.LoadGlossaryFile(c.Glossary.File)
	return tlguard.MergeGlossaries(fromFile, tlguard.ParseGlossaryPairs(c.Glossary.Pairs)), err
}
