package tlguard

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Translator is the main translation engine. It drives a content
// processor over its text nodes, one node at a time in document order,
// and sends each through the glossary, the cache and the provider.
type Translator struct {
	targetLang    string
	sourceLang    string
	provider      AIProvider
	cache         TranslationCache
	emojiMode     EmojiMode
	glossary      *GlossaryMatcher
	excludedTerms []string
	context       string
	style         TranslationStyle
	processors    map[string]ContentProcessor
}

// AIProvider is the interface for translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts         []string
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// ContentProcessor splits content into translatable nodes and puts the
// translations back. Apply receives translations keyed by node ID.
type ContentProcessor interface {
	Extract(content string) (interface{}, []TextNode, error)
	Apply(parsed interface{}, nodes []TextNode, translations map[string]string) (string, error)
	ContentType() string
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithEmojiMode selects whether emoji are shielded from the provider.
func WithEmojiMode(mode EmojiMode) TranslatorOption {
	return func(t *Translator) {
		t.emojiMode = mode
	}
}

// WithGlossary sets forced term translations. A glossary with no usable
// entry is ignored.
func WithGlossary(glossary Glossary, mode MatchMode) TranslatorOption {
	return func(t *Translator) {
		t.glossary = NewGlossaryMatcher(glossary, mode)
	}
}

// WithGlossaryMatcher shares an already built matcher.
func WithGlossaryMatcher(m *GlossaryMatcher) TranslatorOption {
	return func(t *Translator) {
		t.glossary = m
	}
}

// WithExcludedTerms sets terms the provider is asked not to translate.
func WithExcludedTerms(terms []string) TranslatorOption {
	return func(t *Translator) {
		t.excludedTerms = terms
	}
}

// WithContext sets the global translation context passed to the provider.
func WithContext(ctx string) TranslatorOption {
	return func(t *Translator) {
		t.context = ctx
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) TranslatorOption {
	return func(t *Translator) {
		t.style = style
	}
}

// WithProcessor registers a content processor.
func WithProcessor(processor ContentProcessor) TranslatorOption {
	return func(t *Translator) {
		t.processors[processor.ContentType()] = processor
	}
}

// NewTranslator creates a new Translator with the given target language and provider.
func NewTranslator(targetLang string, provider AIProvider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang: targetLang,
		sourceLang: "fr",
		provider:   provider,
		emojiMode:  EmojiKeep,
		style:      StyleNeutral,
		processors: make(map[string]ContentProcessor),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// processStats accumulates counters over one Process call.
type processStats struct {
	cached       int
	translated   int
	glossaryHits int
}

// Process translates content of the specified type.
func (t *Translator) Process(ctx context.Context, content string, contentType string) (*ProcessedContent, error) {
	if content == "" || t.IsSourceLang() {
		return &ProcessedContent{Content: content}, nil
	}

	processor, ok := t.processors[contentType]
	if !ok {
		return nil, &ProcessorError{
			Message:     "no processor registered for content type",
			ContentType: contentType,
		}
	}

	parsed, nodes, err := processor.Extract(content)
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return &ProcessedContent{Content: content}, nil
	}

	var stats processStats
	translations := make(map[string]string, len(nodes))
	for _, node := range nodes {
		translated, err := t.translateNode(ctx, node, &stats)
		if err != nil {
			return nil, &TranslationError{
				Message: "translating text node",
				NodeID:  node.ID,
				Cause:   err,
			}
		}
		translations[node.ID] = translated
	}

	result, err := processor.Apply(parsed, nodes, translations)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("content_type", contentType).
		Int("nodes", len(nodes)).
		Int("cached", stats.cached).
		Int("translated", stats.translated).
		Int("glossary_hits", stats.glossaryHits).
		Msg("processed content")

	return &ProcessedContent{
		Content:         result,
		TranslatedCount: stats.translated,
		CachedCount:     stats.cached,
		TotalNodes:      len(nodes),
		GlossaryHits:    stats.glossaryHits,
	}, nil
}

// ProcessHTML is a convenience method for markup-bearing or flat text.
func (t *Translator) ProcessHTML(ctx context.Context, html string) (*ProcessedContent, error) {
	return t.Process(ctx, html, "html")
}

// ProcessText translates a plain string with a single provider call.
func (t *Translator) ProcessText(ctx context.Context, text string) (*ProcessedContent, error) {
	return t.Process(ctx, text, "text")
}

// TranslateFunc returns the glossary-wrapped, cached provider as a plain
// TranslateFunc, without any markup or emoji handling.
func (t *Translator) TranslateFunc() TranslateFunc {
	return func(ctx context.Context, text string) (string, error) {
		var stats processStats
		return t.translateText(ctx, text, &stats)
	}
}

func (t *Translator) translateNode(ctx context.Context, node TextNode, stats *processStats) (string, error) {
	fn := TranslateFunc(func(ctx context.Context, text string) (string, error) {
		return t.translateText(ctx, text, stats)
	})

	if node.NodeType == NodePlainText {
		if node.Text == "" {
			return "", nil
		}
		return fn(ctx, node.Text)
	}
	return TranslateRun(ctx, node.Text, fn, t.emojiMode)
}

// translateText protects glossary terms, calls the provider once and
// restores the terms.
func (t *Translator) translateText(ctx context.Context, text string, stats *processStats) (string, error) {
	if text == "" {
		return text, nil
	}
	if t.glossary == nil {
		return t.callProvider(ctx, text, stats)
	}

	protected, targets, hits := t.glossary.protect(text)
	stats.glossaryHits += hits

	translated, err := t.callProvider(ctx, protected, stats)
	if err != nil {
		return "", err
	}
	return t.glossary.Restore(translated, targets), nil
}

// callProvider consults the cache, then the provider.
func (t *Translator) callProvider(ctx context.Context, text string, stats *processStats) (string, error) {
	var cacheKey string
	if t.cache != nil {
		cacheKey = CacheKey(HashText(text), t.sourceLang, t.targetLang)
		if cached, ok := t.cache.Get(ctx, cacheKey); ok {
			stats.cached++
			return cached, nil
		}
	}

	if t.provider == nil {
		return "", &ProviderError{Message: "no provider configured"}
	}

	results, err := t.provider.Translate(ctx, TranslateRequest{
		Texts:         []string{text},
		TargetLang:    t.targetLang,
		SourceLang:    t.sourceLang,
		ExcludedTerms: t.excludedTerms,
		Context:       t.context,
		Style:         t.style,
	})
	if err != nil {
		return "", err
	}
	if len(results) != 1 {
		return "", &CountMismatchError{Expected: 1, Got: len(results)}
	}
	stats.translated++

	if t.cache != nil {
		if err := t.cache.Set(ctx, cacheKey, results[0]); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("cache write failed")
		}
	}

	return results[0], nil
}

// IsSourceLang reports whether the target language matches the source
// language, in which case translation is bypassed.
func (t *Translator) IsSourceLang() bool {
	return normalizeBaseLang(t.targetLang) == normalizeBaseLang(t.sourceLang)
}

// Processor returns the processor registered for contentType.
func (t *Translator) Processor(contentType string) (ContentProcessor, bool) {
	p, ok := t.processors[contentType]
	return p, ok
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// EmojiMode returns the emoji mode.
func (t *Translator) EmojiMode() EmojiMode {
	return t.emojiMode
}

// Glossary returns the glossary matcher, or nil when no glossary applies.
func (t *Translator) Glossary() *GlossaryMatcher {
	return t.glossary
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL() bool {
	return IsRTL(t.targetLang)
}

// normalizeBaseLang extracts the base language code (e.g., "fr" from "fr_FR" or "fr-FR").
func normalizeBaseLang(lang string) string {
	lang = NormalizeLocale(lang)
	base, _, _ := strings.Cut(lang, "_")
	return strings.ToLower(base)
}
