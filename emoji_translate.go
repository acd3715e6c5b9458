package tlguard

import (
	"context"
	"strings"
	"unicode/utf8"
)

// DefaultNBSPMarker stands in for &nbsp; while a run is at the translator.
// It lives in the private use area so no translator produces it.
const DefaultNBSPMarker = "\uF000NBSP\uF000"

// TranslatePreservingEmoji translates the non-emoji runs of a flat string
// (no markup) and copies every emoji, plus the whitespace and entities
// directly after it, through untouched. Entities inside a run are swapped
// for marker during the call. An empty marker selects DefaultNBSPMarker.
//
// No emoji is ever passed to fn. Errors from fn are returned as is.
func TranslatePreservingEmoji(ctx context.Context, text string, fn TranslateFunc, marker string) (string, error) {
	if marker == "" {
		marker = DefaultNBSPMarker
	}

	var out strings.Builder
	out.Grow(len(text))
	var buf strings.Builder

	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		seg := strings.ReplaceAll(buf.String(), NBSPEntity, marker)
		buf.Reset()
		translated, err := fn(ctx, seg)
		if err != nil {
			return err
		}
		out.WriteString(strings.ReplaceAll(translated, marker, NBSPEntity))
		return nil
	}

	i := 0
	for i < len(text) {
		if IsNBSPAt(text, i) {
			buf.WriteString(NBSPEntity)
			i += len(NBSPEntity)
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		if !IsEmoji(r) {
			buf.WriteString(text[i : i+size])
			i += size
			continue
		}

		if err := flush(); err != nil {
			return "", err
		}
		out.WriteString(text[i : i+size])
		i += size

		// Whitespace right after an emoji belongs to the emoji.
		for i < len(text) {
			n := whitespaceAt(text, i)
			if n == 0 {
				break
			}
			out.WriteString(text[i : i+n])
			i += n
		}
	}

	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// TranslateRun sends a flat run through fn according to the emoji mode:
// split around emoji for EmojiKeep, one direct call otherwise.
func TranslateRun(ctx context.Context, text string, fn TranslateFunc, mode EmojiMode) (string, error) {
	if text == "" {
		return text, nil
	}
	if mode == EmojiTranslate {
		return fn(ctx, text)
	}
	return TranslatePreservingEmoji(ctx, text, fn, DefaultNBSPMarker)
}
