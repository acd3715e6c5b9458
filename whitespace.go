package tlguard

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NBSPEntity is the only entity recognized: it is treated as one atomic
// whitespace unit and never decoded.
const NBSPEntity = "&nbsp;"

// IsNBSPAt reports whether the non-breaking-space entity starts at byte offset pos.
func IsNBSPAt(text string, pos int) bool {
	if pos < 0 || pos > len(text) {
		return false
	}
	return strings.HasPrefix(text[pos:], NBSPEntity)
}

// whitespaceAt returns the byte length of the whitespace unit (a space
// rune or the entity) starting at pos, or 0 if there is none.
func whitespaceAt(text string, pos int) int {
	if IsNBSPAt(text, pos) {
		return len(NBSPEntity)
	}
	r, size := utf8.DecodeRuneInString(text[pos:])
	if r != utf8.RuneError && unicode.IsSpace(r) {
		return size
	}
	return 0
}

// SplitBoundaryWhitespace splits s into a leading whitespace run, the core
// and a trailing whitespace run. Runs consist of space characters and
// &nbsp; entities. leading+core+trailing == s always holds, and
// whitespace inside the core is left alone.
func SplitBoundaryWhitespace(s string) (leading, core, trailing string) {
	if s == "" {
		return "", "", ""
	}

	start := 0
	for start < len(s) {
		n := whitespaceAt(s, start)
		if n == 0 {
			break
		}
		start += n
	}
	if start == len(s) {
		return s, "", ""
	}

	// Walk forward over the core remembering where the last non-space unit
	// ended; scanning backwards would split the entity.
	end := start
	pos := start
	for pos < len(s) {
		if n := whitespaceAt(s, pos); n > 0 {
			pos += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
		end = pos
	}

	return s[:start], s[start:end], s[end:]
}

// IsWhitespaceOnly reports whether s consists solely of space characters.
// The entity does not count here.
func IsWhitespaceOnly(s string) bool {
	return strings.TrimSpace(s) == ""
}
