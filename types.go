package tlguard

import "context"

// TranslateFunc is the opaque translator: one text in, one text out.
//
// Implementations must return the empty string unchanged. Apart from that
// nothing is assumed, except that the digits inside a glossary protection
// token (__GLS<n>__) survive the call.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// Translate lets a TranslateFunc serve as an AIProvider. Texts are
// translated one call at a time, in order.
func (f TranslateFunc) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if text == "" {
			continue
		}
		out, err := f(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = out
	}
	return results, nil
}

// ProviderFunc adapts p to a TranslateFunc. Every call sends a one-text
// batch built from base; base.Texts is ignored.
func ProviderFunc(p AIProvider, base TranslateRequest) TranslateFunc {
	return func(ctx context.Context, text string) (string, error) {
		if text == "" {
			return text, nil
		}
		req := base
		req.Texts = []string{text}
		results, err := p.Translate(ctx, req)
		if err != nil {
			return "", err
		}
		if len(results) != 1 {
			return "", &CountMismatchError{Expected: 1, Got: len(results)}
		}
		return results[0], nil
	}
}

// EmojiMode selects whether emoji glyphs are shielded from the translator.
type EmojiMode string

const (
	// EmojiKeep splits text runs on emoji and never sends an emoji to the translator.
	EmojiKeep EmojiMode = "keep"
	// EmojiTranslate passes text runs to the translator unsplit.
	EmojiTranslate EmojiMode = "translate"
)

// MatchMode controls how glossary source terms are matched.
type MatchMode string

const (
	// MatchWord only matches terms delimited by non-word characters.
	MatchWord MatchMode = "word"
	// MatchSubstring matches terms anywhere.
	MatchSubstring MatchMode = "substring"
)

// Node types produced by content processors.
const (
	// NodeMarkupText is a text run from markup or flat text; emoji mode applies.
	NodeMarkupText = "markup_text"
	// NodePlainText is a whole plain string sent to the translator as is.
	NodePlainText = "plain_text"
)

// TextNode represents a translatable unit of content.
type TextNode struct {
	ID       string            // Position-derived identifier, unique per Extract call
	Text     string            // Core text sent to translation
	Hash     string            // SHA-256 of Text
	NodeType string            // NodeMarkupText or NodePlainText
	Metadata map[string]string // Open-tag stack, parent tag, etc.
}

// ProcessedContent is the result of a translation operation.
type ProcessedContent struct {
	Content         string // Translated content
	TranslatedCount int    // Number of provider translations
	CachedCount     int    // Number of cache hits
	TotalNodes      int    // Total translatable nodes found
	GlossaryHits    int    // Glossary occurrences protected and restored
}

// NonTextualTags contains tag names whose content is never translated.
var NonTextualTags = map[string]bool{
	"script": true,
	"style":  true,
	"code":   true,
	"pre":    true,
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
