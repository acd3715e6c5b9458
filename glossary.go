package tlguard

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Glossary maps source terms to forced target terms. Lookups are
// case-insensitive on the source side.
type Glossary map[string]string

// CasePattern is the letter-casing shape of one matched source occurrence.
type CasePattern string

const (
	CaseUpper   CasePattern = "upper"   // all cased letters uppercase
	CaseLower   CasePattern = "lower"   // all cased letters lowercase
	CaseCapital CasePattern = "capital" // one word, first letter up, rest down
	CaseTitle   CasePattern = "title"   // several words, each capitalized
	CaseMixed   CasePattern = "mixed"   // anything else; target used as stored
)

// glossaryTokenPrefix and glossaryTokenSuffix frame the index of a
// protected match: __GLS0__, __GLS1__, ...
const (
	glossaryTokenPrefix = "__GLS"
	glossaryTokenSuffix = "__"
)

// glossaryTokenRe finds protection tokens in translator output. Only the
// digits are exact; underscores may be dropped or doubled and the marker
// letters may be re-cased or spaced out.
var glossaryTokenRe = regexp.MustCompile(`(?i)_{0,3}G\s?L\s?S\s?_{0,3}\s?(\d+)_{0,3}`)

func glossaryToken(i int) string {
	return glossaryTokenPrefix + strconv.Itoa(i) + glossaryTokenSuffix
}

type glossaryEntry struct {
	source string
	target string
	re     *regexp.Regexp // anchored, case-insensitive; word mode only
}

// GlossaryMatcher protects glossary occurrences with tokens and restores
// case-adjusted targets. It is read-only after construction and safe for
// concurrent use.
type GlossaryMatcher struct {
	mode    MatchMode
	entries []glossaryEntry
	pattern *regexp.Regexp
	lookup  map[string]string
}

// NewGlossaryMatcher builds a matcher from g. Entries with an empty source
// or target are discarded. It returns nil when nothing usable remains.
func NewGlossaryMatcher(g Glossary, mode MatchMode) *GlossaryMatcher {
	entries := make([]glossaryEntry, 0, len(g))
	for source, target := range g {
		if source == "" || target == "" {
			continue
		}
		entries = append(entries, glossaryEntry{source: source, target: target})
	}
	if len(entries) == 0 {
		return nil
	}

	// Longest first so "Air conditioner" wins over "Air".
	sort.Slice(entries, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(entries[i].source), utf8.RuneCountInString(entries[j].source)
		if li != lj {
			return li > lj
		}
		return entries[i].source < entries[j].source
	})

	if mode != MatchSubstring {
		mode = MatchWord
	}

	alternatives := make([]string, len(entries))
	lookup := make(map[string]string, len(entries))
	for i := range entries {
		quoted := regexp.QuoteMeta(entries[i].source)
		alternatives[i] = quoted
		if mode == MatchWord {
			entries[i].re = regexp.MustCompile(`^(?i:` + quoted + `)`)
		}
		key := strings.ToLower(entries[i].source)
		// On a case-only collision the longer-sorted (first) entry wins.
		if _, exists := lookup[key]; !exists {
			lookup[key] = entries[i].target
		}
	}

	return &GlossaryMatcher{
		mode:    mode,
		entries: entries,
		pattern: regexp.MustCompile(`(?i:` + strings.Join(alternatives, "|") + `)`),
		lookup:  lookup,
	}
}

// Len returns the number of usable entries.
func (m *GlossaryMatcher) Len() int {
	return len(m.entries)
}

// Mode returns the match mode.
func (m *GlossaryMatcher) Mode() MatchMode {
	return m.mode
}

// Protect replaces every glossary occurrence in text with a numbered
// token. targets[i] is the case-adjusted target for token i. Text that
// already looks like a token gets a token of its own whose target is the
// text itself, so restoration gives it back unchanged.
func (m *GlossaryMatcher) Protect(text string) (protected string, targets []string) {
	protected, targets, _ = m.protect(text)
	return protected, targets
}

// protect is Protect plus the number of glossary hits, shields excluded.
func (m *GlossaryMatcher) protect(text string) (string, []string, int) {
	shields := glossaryTokenRe.FindAllStringIndex(text, -1)

	var hits [][]int
	var hitTargets []string
	for _, loc := range m.matches(text) {
		if overlapsAny(loc, shields) {
			continue
		}
		found := text[loc[0]:loc[1]]
		target, ok := m.targetFor(found)
		if !ok {
			continue
		}
		hits = append(hits, loc)
		hitTargets = append(hitTargets, ApplyCase(target, DetectCase(found)))
	}
	if len(hits) == 0 {
		return text, nil, 0
	}

	var out strings.Builder
	var targets []string
	last := 0
	emit := func(loc []int, target string) {
		out.WriteString(text[last:loc[0]])
		out.WriteString(glossaryToken(len(targets)))
		targets = append(targets, target)
		last = loc[1]
	}

	// Both lists are sorted and disjoint; merge them in text order.
	h, s := 0, 0
	for h < len(hits) || s < len(shields) {
		if s < len(shields) && (h == len(hits) || shields[s][0] < hits[h][0]) {
			emit(shields[s], text[shields[s][0]:shields[s][1]])
			s++
			continue
		}
		emit(hits[h], hitTargets[h])
		h++
	}
	out.WriteString(text[last:])
	return out.String(), targets, len(hits)
}

func overlapsAny(loc []int, spans [][]int) bool {
	for _, sp := range spans {
		if loc[0] < sp[1] && sp[0] < loc[1] {
			return true
		}
	}
	return false
}

// Restore replaces every token in text whose index is known with its
// target. Unknown indices are left as they are.
func (m *GlossaryMatcher) Restore(text string, targets []string) string {
	return RestoreGlossaryTokens(text, targets)
}

// RestoreGlossaryTokens replaces protection tokens, tolerating noise the
// translator may add around the marker.
func RestoreGlossaryTokens(text string, targets []string) string {
	if len(targets) == 0 {
		return text
	}
	return glossaryTokenRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := glossaryTokenRe.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(targets) {
			return match
		}
		return targets[idx]
	})
}

// Wrap returns a TranslateFunc that protects glossary terms, calls fn
// once on the protected text and restores the targets in its output.
func (m *GlossaryMatcher) Wrap(fn TranslateFunc) TranslateFunc {
	return func(ctx context.Context, text string) (string, error) {
		protected, targets, hits := m.protect(text)
		translated, err := fn(ctx, protected)
		if err != nil {
			return "", err
		}
		if hits > 0 {
			zerolog.Ctx(ctx).Debug().Int("glossary_hits", hits).Msg("restoring glossary terms")
		}
		return m.Restore(translated, targets), nil
	}
}

// WrapGlossary wraps fn with glossary protection, or returns fn unchanged
// when g has no usable entry.
func WrapGlossary(fn TranslateFunc, g Glossary, mode MatchMode) TranslateFunc {
	m := NewGlossaryMatcher(g, mode)
	if m == nil {
		return fn
	}
	return m.Wrap(fn)
}

func (m *GlossaryMatcher) targetFor(found string) (string, bool) {
	if target, ok := m.lookup[strings.ToLower(found)]; ok {
		return target, true
	}
	// Case folding can match text whose lowercase differs from the key.
	for _, e := range m.entries {
		if strings.EqualFold(e.source, found) {
			return e.target, true
		}
	}
	return "", false
}

// matches returns non-overlapping [start, end) byte ranges, left to right.
func (m *GlossaryMatcher) matches(text string) [][]int {
	if m.mode == MatchSubstring {
		return m.pattern.FindAllStringIndex(text, -1)
	}

	var locs [][]int
	pos := 0
	for pos < len(text) {
		loc := m.pattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]

		if end := m.wordMatchAt(text, start); end > start {
			locs = append(locs, []int{start, end})
			pos = end
			continue
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			size = 1
		}
		pos = start + size
	}
	return locs
}

// wordMatchAt tries every term, longest first, at start and returns the end
// of the first one delimited on both sides by non-word characters.
func (m *GlossaryMatcher) wordMatchAt(text string, start int) int {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return -1
		}
	}
	rest := text[start:]
	for _, e := range m.entries {
		loc := e.re.FindStringIndex(rest)
		if loc == nil || loc[1] == 0 {
			continue
		}
		end := start + loc[1]
		if end < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
				continue
			}
		}
		return end
	}
	return -1
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}

// DetectCase infers the casing pattern of a matched occurrence.
func DetectCase(sample string) CasePattern {
	if isUpper(sample) {
		return CaseUpper
	}
	if isLower(sample) {
		return CaseLower
	}
	if first, rest := splitFirst(sample); unicode.IsUpper(first) && isLower(rest) && !strings.Contains(sample, " ") {
		return CaseCapital
	}

	words := strings.Fields(sample)
	if len(words) > 1 {
		for _, w := range words {
			first, rest := splitFirst(w)
			if !unicode.IsUpper(first) || !isLower(rest) {
				return CaseMixed
			}
		}
		return CaseTitle
	}
	return CaseMixed
}

// ApplyCase reshapes target to the given pattern. CaseMixed leaves it as is.
func ApplyCase(target string, pattern CasePattern) string {
	switch pattern {
	case CaseUpper:
		return cases.Upper(language.Und).String(target)
	case CaseLower:
		return cases.Lower(language.Und).String(target)
	case CaseCapital:
		return capitalize(target)
	case CaseTitle:
		words := strings.Split(target, " ")
		for i, w := range words {
			words[i] = capitalize(w)
		}
		return strings.Join(words, " ")
	default:
		return target
	}
}

// capitalize upper-cases the first character, which may expand ("ß" to
// "SS"), and lower-cases the rest. An invalid leading byte is kept as is.
// Casers are stateful, so each call builds its own.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	first := s[:size]
	if r != utf8.RuneError || size > 1 {
		first = cases.Upper(language.Und).String(first)
	}
	return first + cases.Lower(language.Und).String(s[size:])
}

func splitFirst(s string) (rune, string) {
	r, size := utf8.DecodeRuneInString(s)
	return r, s[size:]
}

// isUpper is true when s has at least one cased letter and none is lowercase.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// isLower is true when s has at least one cased letter and none is uppercase.
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}
