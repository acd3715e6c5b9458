package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ZaguanLabs/tlguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct {
	calls []string
}

func (s *stub) upper(ctx context.Context, text string) (string, error) {
	s.calls = append(s.calls, text)
	return strings.ToUpper(text), nil
}

func (s *stub) echo(ctx context.Context, text string) (string, error) {
	s.calls = append(s.calls, text)
	return text, nil
}

func refuse(ctx context.Context, text string) (string, error) {
	return "", fmt.Errorf("unexpected translator call with %q", text)
}

func TestMarkupTranslate_EndToEnd(t *testing.T) {
	s := &stub{}
	out, err := NewMarkupProcessor().Translate(context.Background(), "<b>Puissant</b> 🙂 et silencieux", s.upper, tlguard.EmojiKeep)

	require.NoError(t, err)
	assert.Equal(t, "<b>PUISSANT</b> 🙂 ET SILENCIEUX", out)
	assert.Equal(t, []string{"Puissant", "et silencieux"}, s.calls)
}

func TestMarkupTranslate_EmojiTranslateMode(t *testing.T) {
	s := &stub{}
	out, err := NewMarkupProcessor().Translate(context.Background(), "<b>Puissant</b> 🙂 et silencieux", s.upper, tlguard.EmojiTranslate)

	require.NoError(t, err)
	assert.Equal(t, "<b>PUISSANT</b> 🙂 ET SILENCIEUX", out)
	assert.Equal(t, []string{"Puissant", "🙂 et silencieux"}, s.calls)
}

func TestMarkupTranslate_StripTag(t *testing.T) {
	p := NewMarkupProcessor(WithStripTag("strong"))
	assert.Equal(t, "strong", p.StripTag())

	s := &stub{}
	out, err := p.Translate(context.Background(), "<strong>Promo</strong> d'été", s.echo, tlguard.EmojiKeep)
	require.NoError(t, err)
	assert.Equal(t, "Promo d'été", out)
	assert.Equal(t, []string{"Promo d'été"}, s.calls, "stripped input is flat text")

	assert.Equal(t, "Promo <strongest>x</strongest>", p.Strip(`<STRONG class="x">Promo</Strong > <strongest>x</strongest>`))
	assert.Equal(t, "x", NewMarkupProcessor(WithStripTag(" ")).Strip("x"))
}

func TestMarkupTranslate_NonTextualContainment(t *testing.T) {
	in := `<div>Texte<pre>garde <b>ceci</b></pre><script>var a = '<b>'; </script><code>x</code> fin</div>`

	s := &stub{}
	out, err := NewMarkupProcessor().Translate(context.Background(), in, s.upper, tlguard.EmojiKeep)

	require.NoError(t, err)
	assert.Equal(t, `<div>TEXTE<pre>garde <b>ceci</b></pre><script>var a = '<b>'; </script><code>x</code> FIN</div>`, out)
	assert.Equal(t, []string{"Texte", "fin"}, s.calls)
}

func TestMarkupTranslate_CustomNonTextualTags(t *testing.T) {
	s := &stub{}
	p := NewMarkupProcessor(WithNonTextualTags("BLOCKQUOTE"))

	out, err := p.Translate(context.Background(), "<blockquote>cité</blockquote><pre>code</pre>", s.upper, tlguard.EmojiKeep)
	require.NoError(t, err)
	assert.Equal(t, "<blockquote>cité</blockquote><pre>CODE</pre>", out)
}

func TestMarkupTranslate_MismatchRecovery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"close pops through inner tags", "<code><b>x</code> traduit", "<code><b>x</code> TRADUIT"},
		{"unknown close leaves stack", "<pre>x</span> y</pre> z", "<pre>x</span> y</pre> Z"},
		{"stray close at top level", "</p>texte", "</p>TEXTE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stub{}
			out, err := NewMarkupProcessor().Translate(context.Background(), tt.in, s.upper, tlguard.EmojiKeep)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestMarkupTranslate_BoundaryWhitespace(t *testing.T) {
	s := &stub{}
	out, err := NewMarkupProcessor().Translate(context.Background(), "<p>\n  Bonjour&nbsp;</p><p> &nbsp;le monde </p>", s.upper, tlguard.EmojiKeep)

	require.NoError(t, err)
	assert.Equal(t, "<p>\n  BONJOUR&nbsp;</p><p> &nbsp;LE MONDE </p>", out)
	assert.Equal(t, []string{"Bonjour", "le monde"}, s.calls)
}

func TestMarkupTranslate_WhitespaceIdempotence(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"&nbsp;",
		" &nbsp;\n",
		"<p> &nbsp;\n</p>",
		"\t<br/>\n",
		"<ul>\n  <li>&nbsp;</li>\n</ul>",
	}

	for _, in := range inputs {
		out, err := NewMarkupProcessor().Translate(context.Background(), in, refuse, tlguard.EmojiKeep)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, in, out)
	}
}

func TestMarkupTranslate_FlatTextIsNotSplit(t *testing.T) {
	s := &stub{}
	out, err := NewMarkupProcessor().Translate(context.Background(), "  Bonjour  ", s.upper, tlguard.EmojiKeep)

	require.NoError(t, err)
	assert.Equal(t, "  BONJOUR  ", out)
	assert.Equal(t, []string{"  Bonjour  "}, s.calls)
}

func TestMarkupTranslate_NeverSendsEmoji(t *testing.T) {
	noEmoji := func(ctx context.Context, text string) (string, error) {
		for _, r := range text {
			if tlguard.IsEmoji(r) {
				return "", fmt.Errorf("emoji %q sent", r)
			}
		}
		return strings.ToUpper(text), nil
	}

	inputs := []string{
		"<p>🔥 Promo 🔥</p>",
		"<li>✔&nbsp;Livraison</li><li>✔ Retour</li>",
		"Super 🙂 prix",
		"<div><span>🚀</span> Rapide<br/>🧠 Malin</div>",
	}
	for _, in := range inputs {
		out, err := NewMarkupProcessor().Translate(context.Background(), in, noEmoji, tlguard.EmojiKeep)
		require.NoError(t, err, in)
		assert.Equal(t, emojiOf(in), emojiOf(out), in)
	}
}

func emojiOf(s string) []rune {
	var out []rune
	for _, r := range s {
		if tlguard.IsEmoji(r) {
			out = append(out, r)
		}
	}
	return out
}

func TestMarkupTranslate_RoundTrip(t *testing.T) {
	inputs := []string{
		`<p class="lead">Un <em>très</em> bon produit</p>`,
		`<!DOCTYPE html><html><body><h1>Titre</h1><img src="a.png"/></body></html>`,
		`<div><p>Non fermé<span>texte</div> suite`,
		`1 < 2 et 3 > 2`,
		`<!-- commentaire --><b>gras</b>`,
		`texte <> bizarre <i>ok</i>`,
	}

	for _, in := range inputs {
		s := &stub{}
		out, err := NewMarkupProcessor().Translate(context.Background(), in, s.upper, tlguard.EmojiKeep)
		require.NoError(t, err, in)
		assert.Equal(t, tagsOf(in), tagsOf(out), in)
	}
}

func tagsOf(s string) []string {
	var tags []string
	for _, tok := range Tokenize(s) {
		if tok.Kind != TextToken {
			tags = append(tags, tok.Text)
		}
	}
	return tags
}

func TestMarkupProcessor_ExtractMetadata(t *testing.T) {
	parsed, nodes, err := NewMarkupProcessor().Extract("<div><p>Bonjour <b>monde</b></p></div>")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	require.Len(t, nodes, 2)

	assert.Equal(t, "seg-0", nodes[0].ID)
	assert.Equal(t, "Bonjour", nodes[0].Text)
	assert.Equal(t, tlguard.HashText("Bonjour"), nodes[0].Hash)
	assert.Equal(t, tlguard.NodeMarkupText, nodes[0].NodeType)
	assert.Equal(t, "div>p", nodes[0].Metadata["stack"])
	assert.Equal(t, "p", nodes[0].Metadata["parent_tag"])

	assert.Equal(t, "div>p>b", nodes[1].Metadata["stack"])
}

func TestMarkupProcessor_ApplyMissingTranslation(t *testing.T) {
	p := NewMarkupProcessor()
	parsed, nodes, err := p.Extract("<p> un </p><p>deux</p>")
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	out, err := p.Apply(parsed, nodes, map[string]string{nodes[1].ID: "two"})
	require.NoError(t, err)
	assert.Equal(t, "<p> un </p><p>two</p>", out)
}

func TestMarkupProcessor_ApplyInvalidParsed(t *testing.T) {
	_, err := NewMarkupProcessor().Apply("nope", nil, nil)

	var perr *tlguard.ProcessorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "html", perr.ContentType)
}

func TestMarkupTranslate_Error(t *testing.T) {
	boom := errors.New("translator down")
	fn := func(ctx context.Context, text string) (string, error) {
		return "", boom
	}

	_, err := NewMarkupProcessor().Translate(context.Background(), "<p>a</p>", fn, tlguard.EmojiKeep)
	assert.ErrorIs(t, err, boom)
}

func TestMarkupProcessor_ContentType(t *testing.T) {
	assert.Equal(t, "html", NewMarkupProcessor().ContentType())
}
