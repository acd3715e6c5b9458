// Package processor splits content into translatable text nodes and puts
// the translations back. MarkupProcessor handles HTML-bearing fields
// without a DOM, PlainProcessor whole strings, and DocumentProcessor full
// HTML pages.
package processor

import "github.com/ZaguanLabs/tlguard"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = tlguard.ContentProcessor

// TextNode is an alias to the main package type.
type TextNode = tlguard.TextNode

// Register adds the markup, plain and document processors to a translator.
func Register(opts ...MarkupOption) []tlguard.TranslatorOption {
	return []tlguard.TranslatorOption{
		tlguard.WithProcessor(NewMarkupProcessor(opts...)),
		tlguard.WithProcessor(NewPlainProcessor()),
		tlguard.WithProcessor(NewDocumentProcessor()),
	}
}
