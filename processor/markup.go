package processor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/tlguard"
)

// MarkupProcessor handles HTML-bearing strings such as product
// descriptions without parsing them into a DOM. Tags are copied through
// byte for byte; only the core of text outside non-textual elements
// becomes a node.
type MarkupProcessor struct {
	stripTag    string
	stripRe     *regexp.Regexp
	nonTextual  map[string]bool
	contentType string
}

// MarkupOption configures a MarkupProcessor.
type MarkupOption func(*MarkupProcessor)

// WithStripTag removes every opening and closing tag named name, attributes
// and case ignored, before tokenizing. The enclosed text stays.
func WithStripTag(name string) MarkupOption {
	return func(p *MarkupProcessor) {
		name = strings.TrimSpace(name)
		if name == "" {
			p.stripTag, p.stripRe = "", nil
			return
		}
		p.stripTag = strings.ToLower(name)
		p.stripRe = regexp.MustCompile(`(?i)</?\s*` + regexp.QuoteMeta(name) + `(?:\s[^>]*)?>`)
	}
}

// WithNonTextualTags replaces the set of elements whose content is never
// translated.
func WithNonTextualTags(tags ...string) MarkupOption {
	return func(p *MarkupProcessor) {
		set := make(map[string]bool, len(tags))
		for _, tag := range tags {
			set[strings.ToLower(tag)] = true
		}
		p.nonTextual = set
	}
}

// NewMarkupProcessor creates a processor for the "html" content type.
func NewMarkupProcessor(opts ...MarkupOption) *MarkupProcessor {
	p := &MarkupProcessor{
		nonTextual:  tlguard.NonTextualTags,
		contentType: "html",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StripTag returns the tag removed before tokenizing, or "".
func (p *MarkupProcessor) StripTag() string {
	return p.stripTag
}

// markupPart is one output piece. node is -1 for verbatim text.
type markupPart struct {
	text     string
	leading  string
	trailing string
	node     int
}

type parsedMarkup struct {
	parts []markupPart
}

// Strip applies the strip-tag pre-pass only.
func (p *MarkupProcessor) Strip(content string) string {
	if p.stripRe == nil {
		return content
	}
	return p.stripRe.ReplaceAllString(content, "")
}

// Extract tokenizes content and returns one node per translatable core.
// Content without '<' or '>' is flat text: it becomes a single node, with
// no boundary split, unless it holds nothing but whitespace and entities.
func (p *MarkupProcessor) Extract(content string) (interface{}, []tlguard.TextNode, error) {
	content = p.Strip(content)
	parsed := &parsedMarkup{}

	if !strings.ContainsAny(content, "<>") {
		if _, core, _ := tlguard.SplitBoundaryWhitespace(content); core == "" {
			parsed.parts = append(parsed.parts, markupPart{text: content, node: -1})
			return parsed, nil, nil
		}
		parsed.parts = append(parsed.parts, markupPart{text: content, node: 0})
		return parsed, []tlguard.TextNode{p.newNode(0, content, "", "")}, nil
	}

	var nodes []tlguard.TextNode
	var stack TagStack
	for _, tok := range Tokenize(content) {
		if tok.Kind != TextToken {
			stack = stack.Next(tok)
			parsed.parts = append(parsed.parts, markupPart{text: tok.Text, node: -1})
			continue
		}

		if tlguard.IsWhitespaceOnly(tok.Text) || stack.Contains(p.nonTextual) {
			parsed.parts = append(parsed.parts, markupPart{text: tok.Text, node: -1})
			continue
		}

		leading, core, trailing := tlguard.SplitBoundaryWhitespace(tok.Text)
		if core == "" {
			parsed.parts = append(parsed.parts, markupPart{text: tok.Text, node: -1})
			continue
		}

		idx := len(nodes)
		nodes = append(nodes, p.newNode(idx, core, stack.String(), stack.Top()))
		parsed.parts = append(parsed.parts, markupPart{
			text:     core,
			leading:  leading,
			trailing: trailing,
			node:     idx,
		})
	}

	return parsed, nodes, nil
}

func (p *MarkupProcessor) newNode(idx int, text, stack, parent string) tlguard.TextNode {
	return tlguard.TextNode{
		ID:       nodeID(idx),
		Text:     text,
		Hash:     tlguard.HashText(text),
		NodeType: tlguard.NodeMarkupText,
		Metadata: map[string]string{
			"stack":      stack,
			"parent_tag": parent,
		},
	}
}

func nodeID(idx int) string {
	return "seg-" + strconv.Itoa(idx)
}

// Apply reassembles the content. A node without a translation keeps its
// original text.
func (p *MarkupProcessor) Apply(parsed interface{}, nodes []tlguard.TextNode, translations map[string]string) (string, error) {
	pm, ok := parsed.(*parsedMarkup)
	if !ok {
		return "", &tlguard.ProcessorError{
			Message:     "invalid parsed content type",
			ContentType: p.contentType,
		}
	}

	var out strings.Builder
	for _, part := range pm.parts {
		if part.node < 0 {
			out.WriteString(part.text)
			continue
		}
		text := part.text
		if translated, ok := translations[nodeID(part.node)]; ok {
			text = translated
		}
		out.WriteString(part.leading)
		out.WriteString(text)
		out.WriteString(part.trailing)
	}
	return out.String(), nil
}

// ContentType returns "html".
func (p *MarkupProcessor) ContentType() string {
	return p.contentType
}

// Translate runs the whole pipeline on content with fn as the translator,
// node by node in document order.
func (p *MarkupProcessor) Translate(ctx context.Context, content string, fn tlguard.TranslateFunc, mode tlguard.EmojiMode) (string, error) {
	parsed, nodes, err := p.Extract(content)
	if err != nil {
		return "", err
	}

	translations := make(map[string]string, len(nodes))
	for _, node := range nodes {
		translated, err := tlguard.TranslateRun(ctx, node.Text, fn, mode)
		if err != nil {
			return "", err
		}
		translations[node.ID] = translated
	}
	return p.Apply(parsed, nodes, translations)
}

var _ ContentProcessor = (*MarkupProcessor)(nil)
