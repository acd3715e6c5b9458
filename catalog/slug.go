package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugSeparate = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a product name into a URL slug: compatibility
// decomposition, non-ASCII dropped, punctuation other than hyphens
// dropped, lowercased, and runs of spaces and hyphens collapsed to one
// hyphen. Leading and trailing hyphens in the input are kept.
func Slugify(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, text)
	if err != nil {
		return ""
	}

	ascii = strings.ToLower(strings.TrimSpace(slugStrip.ReplaceAllString(ascii, "")))
	return slugSeparate.ReplaceAllString(ascii, "-")
}
