package processor

import "github.com/ZaguanLabs/tlguard"

// PlainProcessor sends a whole string to the translator in one call, with
// no markup, whitespace or emoji handling. It serves names, SEO titles and
// keywords.
type PlainProcessor struct{}

// NewPlainProcessor creates a processor for the "text" content type.
func NewPlainProcessor() *PlainProcessor {
	return &PlainProcessor{}
}

// Extract returns a single node holding content, or none for "".
func (p *PlainProcessor) Extract(content string) (interface{}, []tlguard.TextNode, error) {
	if content == "" {
		return content, nil, nil
	}
	return content, []tlguard.TextNode{{
		ID:       "text",
		Text:     content,
		Hash:     tlguard.HashText(content),
		NodeType: tlguard.NodePlainText,
	}}, nil
}

// Apply returns the translation of the single node, or the original.
func (p *PlainProcessor) Apply(parsed interface{}, nodes []tlguard.TextNode, translations map[string]string) (string, error) {
	original, ok := parsed.(string)
	if !ok {
		return "", &tlguard.ProcessorError{
			Message:     "invalid parsed content type",
			ContentType: p.ContentType(),
		}
	}
	if translated, ok := translations["text"]; ok {
		return translated, nil
	}
	return original, nil
}

// ContentType returns "text".
func (p *PlainProcessor) ContentType() string {
	return "text"
}

var _ ContentProcessor = (*PlainProcessor)(nil)
