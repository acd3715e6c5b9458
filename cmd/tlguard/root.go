package main

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
	"github.com/ZaguanLabs/tlguard/cache"
	"github.com/ZaguanLabs/tlguard/config"
	"github.com/ZaguanLabs/tlguard/processor"
	"github.com/ZaguanLabs/tlguard/provider"
)

// app carries the process streams and every flag shared by subcommands.
// Flags only override the configuration when set explicitly.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	configFile string
	debug      bool
	logJSON    bool
	quiet      bool

	source        string
	target        string
	emojiMode     string
	stripTag      string
	workers       int
	glossaryFile  string
	glossaryPairs []string
	glossaryMode  string

	providerName string
	model        string
	style        string
	context      string
	exclude      []string

	cacheBackend string
	cachePath    string

	// records only
	targetName   string
	nullID       bool
	setSourceID  bool
	slugFromName bool
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   tlguard.Name,
		Short: tlguard.Description,
		Long: `tlguard sends the text of product records and HTML fragments to a
translation provider one segment at a time. Tags, emoji, &nbsp; entities
and glossary terms never reach the provider and come back exactly where
they were.`,
		Version:       tlguard.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := newLogger(a.stderr, a.debug, a.logJSON)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&a.configFile, "config", "c", "", "YAML configuration file")
	f.BoolVarP(&a.debug, "debug", "d", false, "enable debug logging")
	f.BoolVar(&a.logJSON, "log-json", false, "log JSON lines instead of console output")
	f.BoolVarP(&a.quiet, "quiet", "q", false, "suppress summaries on stderr")

	f.StringVar(&a.source, "source", "", "source language code (default fr)")
	f.StringVar(&a.target, "target", "", "target language code (default en)")
	f.StringVar(&a.emojiMode, "emoji-mode", "", "keep or translate emoji (default keep)")
	f.StringVar(&a.stripTag, "strip-tag", "", "tag name removed before segmentation, e.g. strong")
	f.IntVarP(&a.workers, "workers", "w", 0, "records translated at once (default 1)")
	f.StringVar(&a.glossaryFile, "glossary-file", "", "glossary file (.json, .yaml or source=target lines)")
	f.StringArrayVar(&a.glossaryPairs, "glossary-pair", nil, "inline glossary entry source=target (repeatable)")
	f.StringVar(&a.glossaryMode, "glossary-mode", "", "word or substring matching (default word)")

	f.StringVar(&a.providerName, "provider", "", "translation provider: openai, deepl or mock")
	f.StringVar(&a.model, "model", "", "provider model")
	f.StringVar(&a.style, "style", "", "formal, neutral, marketing or technical")
	f.StringVar(&a.context, "context", "", "context sentence passed to the provider")
	f.StringSliceVar(&a.exclude, "exclude", nil, "terms the provider must leave untranslated")

	f.StringVar(&a.cacheBackend, "cache-backend", "", "none, memory, redis or sqlite")
	f.StringVar(&a.cachePath, "cache-path", "", "database file for the sqlite cache")

	cmd.AddCommand(
		newRecordsCmd(a),
		newTextCmd(a),
		newSegmentsCmd(a),
		newServeCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

func newLogger(w io.Writer, debug, jsonLines bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if jsonLines {
		return zerolog.New(w).With().Timestamp().Logger().Level(level)
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: color.NoColor}
	return zerolog.New(console).With().Timestamp().Logger().Level(level)
}

// loadConfig reads --config (or the defaults), applies the flags that
// were set and validates the result.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if a.configFile != "" {
		loaded, err := config.Load(a.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	set := func(name string) bool { return flags.Changed(name) }

	if set("source") {
		cfg.Source = a.source
	}
	if set("target") {
		cfg.Target = a.target
	}
	if set("emoji-mode") {
		cfg.EmojiMode = tlguard.EmojiMode(strings.ToLower(a.emojiMode))
	}
	if set("strip-tag") {
		cfg.StripTag = a.stripTag
	}
	if set("workers") {
		cfg.Workers = a.workers
	}
	if set("glossary-file") {
		cfg.Glossary.File = a.glossaryFile
	}
	if set("glossary-pair") {
		cfg.Glossary.Pairs = append(cfg.Glossary.Pairs, a.glossaryPairs...)
	}
	if set("glossary-mode") {
		cfg.Glossary.Mode = tlguard.MatchMode(strings.ToLower(a.glossaryMode))
	}
	if set("provider") {
		cfg.Provider.Name = strings.ToLower(a.providerName)
	}
	if set("model") {
		cfg.Provider.Model = a.model
	}
	if set("style") {
		cfg.Provider.Style = tlguard.TranslationStyle(strings.ToLower(a.style))
	}
	if set("context") {
		cfg.Provider.Context = a.context
	}
	if set("exclude") {
		cfg.Provider.ExcludedTerms = a.exclude
	}
	if set("cache-backend") {
		cfg.Cache.Backend = strings.ToLower(a.cacheBackend)
	}
	if set("cache-path") {
		cfg.Cache.Path = a.cachePath
	}
	if set("target-name") {
		cfg.TargetName = a.targetName
	}
	if set("null-id") {
		cfg.Records.NullID = a.nullID
	}
	if set("set-source-id") {
		cfg.Records.SetSourceID = a.setSourceID
	}
	if set("slug-from-name") {
		cfg.Records.SlugFromName = a.slugFromName
	}

	cfg.ResolveAPIKey(a.getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildTranslator wires the provider, the cache and the glossary named by
// cfg. The returned func closes the cache.
func buildTranslator(ctx context.Context, cfg *config.Config) (*tlguard.Translator, func() error, error) {
	p, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	c, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := translatorOptions(ctx, cfg)
	if c != nil {
		opts = append(opts, tlguard.WithCache(c))
	}
	return tlguard.NewTranslator(cfg.Target, p, opts...), closeCache, nil
}

// translatorOptions is everything but the provider and the cache. A
// glossary file that cannot be read is logged and skipped.
func translatorOptions(ctx context.Context, cfg *config.Config) []tlguard.TranslatorOption {
	opts := processor.Register(processor.WithStripTag(cfg.StripTag))
	opts = append(opts,
		tlguard.WithProcessor(processor.NewDocumentProcessor(processor.WithDocumentLang(cfg.Target))),
		tlguard.WithSourceLang(cfg.Source),
		tlguard.WithEmojiMode(cfg.EmojiMode),
		tlguard.WithStyle(cfg.Provider.Style),
		tlguard.WithContext(cfg.Provider.Context),
		tlguard.WithExcludedTerms(cfg.Provider.ExcludedTerms),
	)

	g, err := cfg.LoadGlossary()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("glossary file not loaded")
	}
	if len(g) > 0 {
		opts = append(opts, tlguard.WithGlossary(g, cfg.Glossary.Mode))
	}
	return opts
}

func newProvider(cfg *config.Config) (tlguard.AIProvider, error) {
	var p tlguard.AIProvider
	switch cfg.Provider.Name {
	case config.ProviderMock:
		p = provider.NewMockProvider()
	case config.ProviderDeepL:
		if cfg.Provider.APIKey == "" {
			return nil, &tlguard.ConfigError{Field: "provider.api_key", Message: "DeepL API key required (" + config.EnvDeepLKey + ")"}
		}
		p = provider.NewDeepLProvider(provider.DeepLConfig{
			APIKey:  cfg.Provider.APIKey,
			BaseURL: cfg.Provider.BaseURL,
		})
	default:
		if cfg.Provider.APIKey == "" {
			return nil, &tlguard.ConfigError{Field: "provider.api_key", Message: "OpenAI API key required (" + config.EnvOpenAIKey + ")"}
		}
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      cfg.Provider.APIKey,
			Model:       cfg.Provider.Model,
			Temperature: cfg.Provider.Temperature,
			BaseURL:     cfg.Provider.BaseURL,
		})
	}

	if rpm := cfg.Provider.RequestsPerMinute; rpm > 0 {
		p = tlguard.NewRateLimitedProvider(p, tlguard.RateLimitConfig{RequestsPerMinute: rpm})
	}
	if cfg.Provider.MaxRetries > 0 {
		rc := tlguard.DefaultRetryConfig()
		rc.MaxRetries = cfg.Provider.MaxRetries
		p = tlguard.NewRetryableProvider(p, rc)
	}
	return p, nil
}

// openCache returns nil for the "none" backend.
func openCache(ctx context.Context, cfg *config.Config) (cache.Lister, func() error, error) {
	noop := func() error { return nil }
	cc := cfg.Cache

	switch cc.Backend {
	case config.CacheNone:
		return nil, noop, nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cc.RedisURL, TTL: cc.TTLSeconds, KeyPrefix: cc.Prefix})
		if err != nil {
			return nil, nil, errors.Errorf("opening redis cache: %w", err)
		}
		return c, c.Close, nil
	case config.CacheSQLite:
		c, err := cache.NewSQLiteCache(cc.Path, cc.TTLSeconds)
		if err != nil {
			return nil, nil, errors.Errorf("opening sqlite cache: %w", err)
		}
		return c, c.Close, nil
	default:
		var opts []cache.MemoryOption
		if cc.MaxEntries > 0 {
			opts = append(opts, cache.WithMaxEntries(cc.MaxEntries))
		}
		return cache.NewInMemoryCache(cc.TTLSeconds, opts...), noop, nil
	}
}

// closeWithLog runs closeFn and logs a failure.
func closeWithLog(ctx context.Context, closeFn func() error) {
	if err := closeFn(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("closing cache")
	}
}

// readInput returns args[0], or stdin when no argument or "-" is given.
func (a *app) readInput(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", errors.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
