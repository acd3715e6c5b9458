package processor

import (
	"strings"
)

// TokenKind classifies a markup token.
type TokenKind int

const (
	// TextToken is the literal text between two tags.
	TextToken TokenKind = iota
	// OpenTag pushes its name on the open-tag stack.
	OpenTag
	// CloseTag pops the stack down to its name.
	CloseTag
	// InertTag is a self-closing tag, a comment or a declaration.
	InertTag
)

func (k TokenKind) String() string {
	switch k {
	case TextToken:
		return "text"
	case OpenTag:
		return "open"
	case CloseTag:
		return "close"
	case InertTag:
		return "inert"
	default:
		return "unknown"
	}
}

// Token is one piece of a markup string. Concatenating the Text of every
// token returned by Tokenize gives back the input.
type Token struct {
	Kind TokenKind
	Text string
	Name string // lowercased tag name, empty for text tokens
}

// Tokenize splits s into tag tokens, anything matching <[^>]+>, and the
// text between them. Empty text tokens are not emitted.
func Tokenize(s string) []Token {
	var tokens []Token
	last := 0
	i := 0
	for i < len(s) {
		lt := strings.IndexByte(s[i:], '<')
		if lt < 0 {
			break
		}
		start := i + lt
		gt := strings.IndexByte(s[start+1:], '>')
		if gt < 0 {
			break
		}
		if gt == 0 {
			// "<>" is not a tag; look for the next '<'.
			i = start + 1
			continue
		}
		end := start + 1 + gt + 1

		if start > last {
			tokens = append(tokens, Token{Kind: TextToken, Text: s[last:start]})
		}
		tokens = append(tokens, classifyTag(s[start:end]))
		last = end
		i = end
	}
	if last < len(s) {
		tokens = append(tokens, Token{Kind: TextToken, Text: s[last:]})
	}
	return tokens
}

func classifyTag(tag string) Token {
	tok := Token{Text: tag, Name: TagName(tag)}
	switch {
	case strings.HasPrefix(tag, "</"):
		tok.Kind = CloseTag
	case strings.HasSuffix(tag, "/>"), strings.HasPrefix(tag, "<!"):
		tok.Kind = InertTag
	default:
		tok.Kind = OpenTag
	}
	return tok
}

// TagName returns the lowercased first ASCII alphanumeric run after "<" or
// "</" and optional spaces, or "" if the tag does not start with one.
func TagName(tag string) string {
	s := strings.TrimPrefix(tag, "<")
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimLeft(s, " \t\n\r\f\v")

	n := 0
	for n < len(s) && isASCIIAlnum(s[n]) {
		n++
	}
	return strings.ToLower(s[:n])
}

func isASCIIAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// TagStack is the ordered list of currently open tag names. It is a value:
// Next never modifies the receiver.
type TagStack struct {
	names []string
}

// Next returns the stack after tok. Opening tags push; closing tags pop
// down to and including the nearest tag of the same name, or leave the
// stack as is when no such tag is open. Other tokens change nothing.
func (s TagStack) Next(tok Token) TagStack {
	n := len(s.names)
	switch tok.Kind {
	case OpenTag:
		// The three-index slice forces append to copy.
		return TagStack{names: append(s.names[:n:n], tok.Name)}
	case CloseTag:
		for i := n - 1; i >= 0; i-- {
			if s.names[i] == tok.Name {
				return TagStack{names: s.names[:i:i]}
			}
		}
	}
	return s
}

// Contains reports whether any open tag is in set.
func (s TagStack) Contains(set map[string]bool) bool {
	for _, name := range s.names {
		if set[name] {
			return true
		}
	}
	return false
}

// Len returns the depth of the stack.
func (s TagStack) Len() int {
	return len(s.names)
}

// Top returns the innermost open tag, or "".
func (s TagStack) Top() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

// Names returns a copy of the open tag names, outermost first.
func (s TagStack) Names() []string {
	return append([]string(nil), s.names...)
}

// String renders the stack as "div>p>b".
func (s TagStack) String() string {
	return strings.Join(s.names, ">")
}
