// Package catalog maps product records through a translator: markup and
// plain fields are translated, language bookkeeping fields are rewritten
// and everything else is carried over untouched.
package catalog

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
)

// Record is one product object. Unknown fields survive a round trip.
type Record map[string]any

// Field kinds, named after the processor content type that handles them.
const (
	markupField = "html"
	plainField  = "text"
)

type fieldSpec struct {
	key  string
	kind string
}

var (
	topFields = []fieldSpec{
		{"content_short", markupField},
		{"content_long", markupField},
		{"name", plainField},
	}
	metaFields = []fieldSpec{
		{"_yoast_wpseo_metadesc", markupField},
		{"_yoast_wpseo_title", plainField},
		{"_yoast_wpseo_focuskw", plainField},
		{"_yoast_wpseo_keywordsynonyms", plainField},
	}
)

// ContentTranslator is the part of *tlguard.Translator a Mapper needs.
type ContentTranslator interface {
	Process(ctx context.Context, content string, contentType string) (*tlguard.ProcessedContent, error)
}

// Options control the bookkeeping fields of translated records.
type Options struct {
	TargetLang   string // written to "lang"; empty keeps the input value
	TargetName   string // written to tax.language; defaults to TargetLang
	SetSourceID  bool   // copy the input "id" to "source_id"
	NullID       bool   // set "id" to null
	SlugFromName bool   // derive "slug" from the translated name
}

// Stats are totals over every record a Mapper translated.
type Stats struct {
	Records      int
	Fields       int
	Nodes        int
	Translated   int
	Cached       int
	GlossaryHits int
}

// Mapper translates records. It is safe for concurrent use when its
// translator is.
type Mapper struct {
	translator ContentTranslator
	opts       Options

	records, fields, nodes, translated, cached, glossaryHits atomic.Int64
}

// NewMapper creates a Mapper.
func NewMapper(t ContentTranslator, opts Options) *Mapper {
	return &Mapper{translator: t, opts: opts}
}

// Options returns the mapper options.
func (m *Mapper) Options() Options {
	return m.opts
}

// Stats returns the running totals.
func (m *Mapper) Stats() Stats {
	return Stats{
		Records:      int(m.records.Load()),
		Fields:       int(m.fields.Load()),
		Nodes:        int(m.nodes.Load()),
		Translated:   int(m.translated.Load()),
		Cached:       int(m.cached.Load()),
		GlossaryHits: int(m.glossaryHits.Load()),
	}
}

// TranslateRecord returns a translated deep copy of rec. rec itself is
// never modified. Null, absent and non-string fields are left as they are.
func (m *Mapper) TranslateRecord(ctx context.Context, rec Record) (Record, error) {
	out, _ := deepCopy(map[string]any(rec)).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}

	if err := m.translateFields(ctx, out, topFields, ""); err != nil {
		return nil, err
	}

	if m.opts.SlugFromName {
		if name, ok := out["name"].(string); ok && name != "" {
			out["slug"] = Slugify(name)
		}
	}

	meta, isMap := out["meta"].(map[string]any)
	switch {
	case isMap:
		if err := m.translateFields(ctx, meta, metaFields, "meta."); err != nil {
			return nil, err
		}
	case isEmptyObject(out["meta"]):
		out["meta"] = map[string]any{}
	}

	if m.opts.TargetLang != "" {
		out["lang"] = m.opts.TargetLang
	}

	tax, isMap := out["tax"].(map[string]any)
	if isEmptyObject(out["tax"]) {
		tax, isMap = map[string]any{}, true
	}
	if isMap {
		if name := m.targetName(); name != "" {
			tax["language"] = []any{name}
		}
		out["tax"] = tax
	}

	if m.opts.SetSourceID {
		if id, ok := rec["id"]; ok && id != nil && id != "" {
			out["source_id"] = deepCopy(id)
		}
	}
	if m.opts.NullID {
		out["id"] = nil
	}

	m.records.Add(1)
	return Record(out), nil
}

// isEmptyObject is true for null and for the empty array PHP exporters
// write in place of an empty object.
func isEmptyObject(v any) bool {
	if v == nil {
		return true
	}
	arr, ok := v.([]any)
	return ok && len(arr) == 0
}

func (m *Mapper) targetName() string {
	if m.opts.TargetName != "" {
		return m.opts.TargetName
	}
	return m.opts.TargetLang
}

func (m *Mapper) translateFields(ctx context.Context, obj map[string]any, fields []fieldSpec, prefix string) error {
	for _, f := range fields {
		s, ok := obj[f.key].(string)
		if !ok {
			continue
		}
		res, err := m.translator.Process(ctx, s, f.kind)
		if err != nil {
			return errors.Errorf("field %s%s: %w", prefix, f.key, err)
		}
		obj[f.key] = res.Content

		m.fields.Add(1)
		m.nodes.Add(int64(res.TotalNodes))
		m.translated.Add(int64(res.TranslatedCount))
		m.cached.Add(int64(res.CachedCount))
		m.glossaryHits.Add(int64(res.GlossaryHits))
	}
	return nil
}

// deepCopy copies decoded JSON values. Scalars are immutable and shared.
func deepCopy(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = deepCopy(e)
		}
		return out
	case Record:
		return deepCopy(map[string]any(v))
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = deepCopy(e)
		}
		return out
	case json.RawMessage:
		return append(json.RawMessage(nil), v...)
	default:
		return v
	}
}
