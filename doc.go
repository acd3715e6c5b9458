// Package tlguard applies an opaque machine-translation function to
// semi-structured text without corrupting it.
//
// Markup delimiters, text inside script/style/code/pre, emoji glyphs and
// boundary whitespace (including the &nbsp; entity) are kept byte for byte.
// A glossary of forced term translations is protected with placeholder
// tokens before the translator runs and restored afterwards, with the
// casing of each source occurrence reapplied to the target term.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/tlguard"
//	    "github.com/ZaguanLabs/tlguard/processor"
//	    "github.com/ZaguanLabs/tlguard/provider"
//	)
//
//	func main() {
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    t := tlguard.NewTranslator("en", p,
//	        tlguard.WithSourceLang("fr"),
//	        tlguard.WithGlossary(tlguard.Glossary{"climatiseur": "air conditioner"}, tlguard.MatchWord),
//	        tlguard.WithProcessor(processor.NewMarkupProcessor()),
//	    )
//
//	    result, err := t.ProcessHTML(context.Background(), "<b>Puissant</b> 🙂 et silencieux")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Content) // <b>Powerful</b> 🙂 and quiet
//	}
package tlguard
