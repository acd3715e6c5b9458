package tlguard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider uppercases every text and records the requests it saw.
type mockProvider struct {
	requests []TranslateRequest
	err      error
	short    bool
}

func (m *mockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.short {
		return nil, nil
	}
	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = strings.ToUpper(text)
	}
	return out, nil
}

func (m *mockProvider) texts() []string {
	var texts []string
	for _, req := range m.requests {
		texts = append(texts, req.Texts...)
	}
	return texts
}

type mockCache struct {
	data map[string]string
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]string)}
}

func (c *mockCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *mockCache) Set(ctx context.Context, key string, value string) error {
	c.sets++
	c.data[key] = value
	return nil
}

// lineProcessor turns each line into one node.
type lineProcessor struct {
	nodeType string
}

func (p *lineProcessor) Extract(content string) (interface{}, []TextNode, error) {
	lines := strings.Split(content, "\n")
	nodes := make([]TextNode, 0, len(lines))
	for i, line := range lines {
		nodes = append(nodes, TextNode{
			ID:       "line-" + strconv.Itoa(i),
			Text:     line,
			Hash:     HashText(line),
			NodeType: p.nodeType,
		})
	}
	return len(lines), nodes, nil
}

func (p *lineProcessor) Apply(parsed interface{}, nodes []TextNode, translations map[string]string) (string, error) {
	out := make([]string, parsed.(int))
	for i, node := range nodes {
		out[i] = translations[node.ID]
	}
	return strings.Join(out, "\n"), nil
}

func (p *lineProcessor) ContentType() string {
	return "lines"
}

func newLineTranslator(provider AIProvider, opts ...TranslatorOption) *Translator {
	opts = append([]TranslatorOption{WithProcessor(&lineProcessor{nodeType: NodeMarkupText})}, opts...)
	return NewTranslator("en", provider, opts...)
}

func TestNewTranslatorDefaults(t *testing.T) {
	tr := NewTranslator("de_DE", &mockProvider{})

	assert.Equal(t, "de_DE", tr.TargetLang())
	assert.Equal(t, "fr", tr.SourceLang())
	assert.Equal(t, EmojiKeep, tr.EmojiMode())
	assert.Nil(t, tr.Glossary())
	assert.False(t, tr.IsRTL())

	_, ok := tr.Processor("html")
	assert.False(t, ok)
}

func TestTranslatorOptions(t *testing.T) {
	tr := NewTranslator("ar", &mockProvider{},
		WithSourceLang("en_US"),
		WithEmojiMode(EmojiTranslate),
		WithGlossary(Glossary{"a": "b"}, MatchSubstring),
	)

	assert.Equal(t, "en_US", tr.SourceLang())
	assert.Equal(t, EmojiTranslate, tr.EmojiMode())
	require.NotNil(t, tr.Glossary())
	assert.Equal(t, MatchSubstring, tr.Glossary().Mode())
	assert.True(t, tr.IsRTL())

	tr = NewTranslator("en", nil, WithGlossary(Glossary{"a": ""}, MatchWord))
	assert.Nil(t, tr.Glossary())
}

func TestProcess_EmptyContent(t *testing.T) {
	p := &mockProvider{}
	result, err := newLineTranslator(p).Process(context.Background(), "", "lines")

	require.NoError(t, err)
	assert.Equal(t, "", result.Content)
	assert.Empty(t, p.requests)
}

func TestProcess_SameLanguageBypass(t *testing.T) {
	p := &mockProvider{}
	tr := NewTranslator("fr_CA", p, WithProcessor(&lineProcessor{}))

	result, err := tr.Process(context.Background(), "Bonjour", "lines")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", result.Content)
	assert.Empty(t, p.requests)
}

func TestProcess_UnknownContentType(t *testing.T) {
	_, err := newLineTranslator(&mockProvider{}).Process(context.Background(), "x", "pdf")

	var perr *ProcessorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "pdf", perr.ContentType)
}

func TestProcess_TranslatesEachNode(t *testing.T) {
	p := &mockProvider{}
	tr := newLineTranslator(p,
		WithExcludedTerms([]string{"ACME"}),
		WithContext("kitchen appliances"),
		WithStyle(StyleMarketing),
	)

	result, err := tr.Process(context.Background(), "bonjour\nmonde", "lines")
	require.NoError(t, err)

	assert.Equal(t, "BONJOUR\nMONDE", result.Content)
	assert.Equal(t, 2, result.TotalNodes)
	assert.Equal(t, 2, result.TranslatedCount)
	assert.Equal(t, 0, result.CachedCount)

	require.Len(t, p.requests, 2)
	req := p.requests[0]
	assert.Equal(t, []string{"bonjour"}, req.Texts)
	assert.Equal(t, "en", req.TargetLang)
	assert.Equal(t, "fr", req.SourceLang)
	assert.Equal(t, []string{"ACME"}, req.ExcludedTerms)
	assert.Equal(t, "kitchen appliances", req.Context)
	assert.Equal(t, StyleMarketing, req.Style)
}

func TestProcess_EmojiModes(t *testing.T) {
	p := &mockProvider{}
	result, err := newLineTranslator(p).Process(context.Background(), "puissant 🙂 et silencieux", "lines")
	require.NoError(t, err)
	assert.Equal(t, "PUISSANT 🙂 ET SILENCIEUX", result.Content)
	assert.Equal(t, []string{"puissant ", "et silencieux"}, p.texts())

	p = &mockProvider{}
	_, err = newLineTranslator(p, WithEmojiMode(EmojiTranslate)).Process(context.Background(), "puissant 🙂 et silencieux", "lines")
	require.NoError(t, err)
	assert.Equal(t, []string{"puissant 🙂 et silencieux"}, p.texts())
}

func TestProcess_PlainNodesSkipEmojiSplit(t *testing.T) {
	p := &mockProvider{}
	tr := NewTranslator("en", p, WithProcessor(&lineProcessor{nodeType: NodePlainText}))

	result, err := tr.Process(context.Background(), "super 🙂 prix\n", "lines")
	require.NoError(t, err)
	assert.Equal(t, "SUPER 🙂 PRIX\n", result.Content)
	assert.Equal(t, []string{"super 🙂 prix"}, p.texts())
}

func TestProcess_Cache(t *testing.T) {
	p := &mockProvider{}
	cache := newMockCache()
	tr := newLineTranslator(p, WithCache(cache))

	first, err := tr.Process(context.Background(), "bonjour\nbonjour", "lines")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TranslatedCount)
	assert.Equal(t, 1, first.CachedCount)
	assert.Equal(t, 1, cache.sets)

	second, err := tr.Process(context.Background(), "bonjour", "lines")
	require.NoError(t, err)
	assert.Equal(t, "BONJOUR", second.Content)
	assert.Equal(t, 0, second.TranslatedCount)
	assert.Equal(t, 1, second.CachedCount)
	assert.Len(t, p.requests, 1)

	_, ok := cache.data[CacheKey(HashText("bonjour"), "fr", "en")]
	assert.True(t, ok)
}

func TestProcess_Glossary(t *testing.T) {
	p := &mockProvider{}
	cache := newMockCache()
	tr := newLineTranslator(p,
		WithCache(cache),
		WithGlossary(Glossary{"aspirateur": "vacuum"}, MatchWord),
	)

	result, err := tr.Process(context.Background(), "Aspirateur robot", "lines")
	require.NoError(t, err)

	assert.Equal(t, "Vacuum ROBOT", result.Content)
	assert.Equal(t, 1, result.GlossaryHits)
	assert.Equal(t, []string{"__GLS0__ robot"}, p.texts())

	_, ok := cache.data[CacheKey(HashText("__GLS0__ robot"), "fr", "en")]
	assert.True(t, ok, "cache is keyed on the protected text")
}

func TestProcess_ProviderError(t *testing.T) {
	boom := &ProviderError{Message: "quota exceeded"}
	_, err := newLineTranslator(&mockProvider{err: boom}).Process(context.Background(), "a\nb", "lines")

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "line-0", terr.NodeID)
	assert.ErrorIs(t, err, boom)
}

func TestProcess_CountMismatch(t *testing.T) {
	_, err := newLineTranslator(&mockProvider{short: true}).Process(context.Background(), "a", "lines")

	var mismatch *CountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Expected)
	assert.Equal(t, 0, mismatch.Got)
}

func TestProcess_NoProvider(t *testing.T) {
	_, err := newLineTranslator(nil).Process(context.Background(), "a", "lines")

	var perr *ProviderError
	assert.ErrorAs(t, err, &perr)
}

func TestTranslatorTranslateFunc(t *testing.T) {
	p := &mockProvider{}
	fn := newLineTranslator(p, WithGlossary(Glossary{"air": "luft"}, MatchWord)).TranslateFunc()

	out, err := fn(context.Background(), "air pur 🙂")
	require.NoError(t, err)
	assert.Equal(t, "luft PUR 🙂", out)

	out, err = fn(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Len(t, p.requests, 1)
}

func TestTranslateFuncAsProvider(t *testing.T) {
	var seen []string
	fn := TranslateFunc(func(ctx context.Context, text string) (string, error) {
		seen = append(seen, text)
		return "<" + text + ">", nil
	})

	out, err := fn.Translate(context.Background(), TranslateRequest{Texts: []string{"a", "", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"<a>", "", "<b>"}, out)
	assert.Equal(t, []string{"a", "b"}, seen)

	failing := TranslateFunc(func(ctx context.Context, text string) (string, error) {
		return "", errors.New("nope")
	})
	_, err = failing.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})
	assert.Error(t, err)
}

func TestNormalizeBaseLang(t *testing.T) {
	tests := map[string]string{
		"fr":    "fr",
		"fr_FR": "fr",
		"FR-ca": "fr",
		"":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeBaseLang(in), in)
	}
}

func TestProviderFunc(t *testing.T) {
	p := &mockProvider{}
	fn := ProviderFunc(p, TranslateRequest{TargetLang: "en", SourceLang: "fr", Texts: []string{"ignored"}})

	out, err := fn(context.Background(), "salut")
	require.NoError(t, err)
	assert.Equal(t, "SALUT", out)

	out, err = fn(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, out)

	require.Len(t, p.requests, 1)
	assert.Equal(t, []string{"salut"}, p.requests[0].Texts)
	assert.Equal(t, "en", p.requests[0].TargetLang)

	_, err = ProviderFunc(&mockProvider{short: true}, TranslateRequest{})(context.Background(), "x")
	var mismatch *CountMismatchError
	assert.ErrorAs(t, err, &mismatch)
}
