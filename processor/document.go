package processor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/tlguard"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DocumentProcessor translates full HTML pages through a real parser.
// Unlike MarkupProcessor it normalizes the markup on output.
type DocumentProcessor struct {
	skipTags map[string]bool
	lang     string
}

// DocumentOption configures a DocumentProcessor.
type DocumentOption func(*DocumentProcessor)

// WithSkipTags replaces the set of elements whose text is left alone.
func WithSkipTags(tags ...string) DocumentOption {
	return func(p *DocumentProcessor) {
		set := make(map[string]bool, len(tags))
		for _, tag := range tags {
			set[strings.ToLower(tag)] = true
		}
		p.skipTags = set
	}
}

// WithDocumentLang stamps lang and dir for lang on the <html> element of
// complete documents.
func WithDocumentLang(lang string) DocumentOption {
	return func(p *DocumentProcessor) {
		p.lang = lang
	}
}

// NewDocumentProcessor creates a processor for the "document" content type.
func NewDocumentProcessor(opts ...DocumentOption) *DocumentProcessor {
	p := &DocumentProcessor{skipTags: tlguard.NonTextualTags}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type parsedDocument struct {
	doc      *goquery.Document
	nodes    map[string]*html.Node
	fragment bool
}

// Extract parses content and returns one node per non-blank text node.
func (p *DocumentProcessor) Extract(content string) (interface{}, []tlguard.TextNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &tlguard.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}

	parsed := &parsedDocument{
		doc:      doc,
		nodes:    make(map[string]*html.Node),
		fragment: !strings.Contains(strings.ToLower(content), "<html"),
	}
	var nodes []tlguard.TextNode

	var walk func(n *html.Node, path []string)
	walk = func(n *html.Node, path []string) {
		switch n.Type {
		case html.ElementNode:
			if p.skipped(n) {
				return
			}
			path = append(path[:len(path):len(path)], n.Data)
		case html.TextNode:
			_, core, _ := tlguard.SplitBoundaryWhitespace(n.Data)
			if core == "" {
				return
			}
			id := "node-" + strconv.Itoa(len(nodes))
			parsed.nodes[id] = n
			nodes = append(nodes, tlguard.TextNode{
				ID:       id,
				Text:     core,
				Hash:     tlguard.HashText(core),
				NodeType: tlguard.NodeMarkupText,
				Metadata: map[string]string{
					"stack":      strings.Join(path, ">"),
					"parent_tag": n.Parent.Data,
				},
			})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, path)
		}
	}
	for _, n := range doc.Nodes {
		walk(n, nil)
	}

	return parsed, nodes, nil
}

func (p *DocumentProcessor) skipped(n *html.Node) bool {
	if n.DataAtom == atom.Textarea || p.skipTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "data-no-translate" {
			return true
		}
	}
	return false
}

// Apply writes the translations into the parsed tree and renders it.
// Fragments render as the body's inner HTML.
func (p *DocumentProcessor) Apply(parsed interface{}, nodes []tlguard.TextNode, translations map[string]string) (string, error) {
	pd, ok := parsed.(*parsedDocument)
	if !ok {
		return "", &tlguard.ProcessorError{
			Message:     "invalid parsed content type",
			ContentType: p.ContentType(),
		}
	}

	for id, n := range pd.nodes {
		translated, ok := translations[id]
		if !ok {
			continue
		}
		leading, _, trailing := tlguard.SplitBoundaryWhitespace(n.Data)
		n.Data = leading + translated + trailing
	}

	var (
		out string
		err error
	)
	if pd.fragment {
		out, err = pd.doc.Find("body").Html()
	} else {
		if p.lang != "" {
			pd.doc.Find("html").
				SetAttr("lang", tlguard.ToHTMLLang(p.lang)).
				SetAttr("dir", tlguard.GetDirection(p.lang))
		}
		out, err = pd.doc.Html()
	}
	if err != nil {
		return "", &tlguard.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}
	return out, nil
}

// ContentType returns "document".
func (p *DocumentProcessor) ContentType() string {
	return "document"
}

var _ ContentProcessor = (*DocumentProcessor)(nil)
