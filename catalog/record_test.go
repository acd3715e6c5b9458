package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/tlguard"
	"github.com/ZaguanLabs/tlguard/processor"
)

func upper(ctx context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

func newTestMapper(opts Options) *Mapper {
	t := tlguard.NewTranslator("en", tlguard.TranslateFunc(upper), processor.Register()...)
	return NewMapper(t, opts)
}

func decodeOne(t *testing.T, s string) Record {
	t.Helper()
	recs, err := DecodeRecords(strings.NewReader("[" + s + "]"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestTranslateRecord_Mapping(t *testing.T) {
	in := decodeOne(t, `{
		"id": 263,
		"lang": "fr",
		"name": "Climatiseur réversible",
		"slug": "climatiseur-reversible",
		"content_short": "<b>Puissant</b> 🙂 et silencieux",
		"content_long": null,
		"meta": {
			"_yoast_wpseo_title": "Titre",
			"_yoast_wpseo_metadesc": "<p>Description</p>",
			"_yoast_wpseo_focuskw": null,
			"_sku": "ABC123"
		},
		"tax": {"language": ["Français"], "product_cat": ["Clim"]},
		"images": [{"src": "a.jpg"}]
	}`)

	m := newTestMapper(Options{
		TargetLang:   "en",
		TargetName:   "English",
		SetSourceID:  true,
		NullID:       true,
		SlugFromName: true,
	})
	out, err := m.TranslateRecord(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "CLIMATISEUR RÉVERSIBLE", out["name"])
	assert.Equal(t, "climatiseur-reversible", out["slug"])
	assert.Equal(t, "<b>PUISSANT</b> 🙂 ET SILENCIEUX", out["content_short"])
	assert.Nil(t, out["content_long"])
	assert.Contains(t, out, "content_long")
	assert.Equal(t, "en", out["lang"])
	assert.Nil(t, out["id"])
	assert.Equal(t, json.Number("263"), out["source_id"])
	assert.Equal(t, []any{map[string]any{"src": "a.jpg"}}, out["images"])

	meta := out["meta"].(map[string]any)
	assert.Equal(t, "TITRE", meta["_yoast_wpseo_title"])
	assert.Equal(t, "<p>DESCRIPTION</p>", meta["_yoast_wpseo_metadesc"])
	assert.Nil(t, meta["_yoast_wpseo_focuskw"])
	assert.Equal(t, "ABC123", meta["_sku"])

	tax := out["tax"].(map[string]any)
	assert.Equal(t, []any{"English"}, tax["language"])
	assert.Equal(t, []any{"Clim"}, tax["product_cat"])

	// The input is untouched.
	assert.Equal(t, "Climatiseur réversible", in["name"])
	assert.Equal(t, json.Number("263"), in["id"])
	assert.Equal(t, []any{"Français"}, in["tax"].(map[string]any)["language"])
	assert.Equal(t, "Titre", in["meta"].(map[string]any)["_yoast_wpseo_title"])

	stats := m.Stats()
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 4, stats.Fields)
	assert.Equal(t, 5, stats.Translated)
}

func TestTranslateRecord_MissingMetaAndTax(t *testing.T) {
	out, err := newTestMapper(Options{TargetLang: "de"}).TranslateRecord(context.Background(), Record{"name": "Ventilateur"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{}, out["meta"])
	assert.Equal(t, map[string]any{"language": []any{"de"}}, out["tax"])
	assert.NotContains(t, out, "slug")
	assert.NotContains(t, out, "source_id")
	assert.NotContains(t, out, "id")
}

func TestTranslateRecord_EmptyArrayMetaAndTax(t *testing.T) {
	rec := decodeOne(t, `{"id":1,"name":"x","meta":[],"tax":[]}`)

	out, err := newTestMapper(Options{TargetLang: "en", TargetName: "English"}).TranslateRecord(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{}, out["meta"])
	assert.Equal(t, map[string]any{"language": []any{"English"}}, out["tax"])
	assert.Equal(t, []any{}, rec["tax"], "input record is not modified")
}

func TestTranslateRecord_NonEmptyArrayTaxUntouched(t *testing.T) {
	rec := decodeOne(t, `{"name":"x","tax":["Français"]}`)

	out, err := newTestMapper(Options{TargetLang: "en"}).TranslateRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, []any{"Français"}, out["tax"])
}

func TestTranslateRecord_SourceIDSkippedWhenEmpty(t *testing.T) {
	m := newTestMapper(Options{TargetLang: "en", SetSourceID: true})

	for _, rec := range []Record{{"id": ""}, {"id": nil}, {}} {
		out, err := m.TranslateRecord(context.Background(), rec)
		require.NoError(t, err)
		assert.NotContains(t, out, "source_id")
	}
}

func TestTranslateRecord_NonStringFieldsUntouched(t *testing.T) {
	in := Record{"name": json.Number("42"), "meta": "not an object", "tax": []any{"x"}}

	out, err := newTestMapper(Options{TargetLang: "en", SlugFromName: true}).TranslateRecord(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, json.Number("42"), out["name"])
	assert.Equal(t, "not an object", out["meta"])
	assert.Equal(t, []any{"x"}, out["tax"])
	assert.NotContains(t, out, "slug")
}

func TestTranslateRecord_EmptyNameNoSlug(t *testing.T) {
	out, err := newTestMapper(Options{SlugFromName: true}).TranslateRecord(context.Background(), Record{"name": "", "slug": "keep"})
	require.NoError(t, err)
	assert.Equal(t, "keep", out["slug"])
}

func TestTranslateRecord_KeepsLangWithoutTarget(t *testing.T) {
	out, err := newTestMapper(Options{}).TranslateRecord(context.Background(), Record{"lang": "fr", "tax": map[string]any{"language": []any{"Français"}}})
	require.NoError(t, err)
	assert.Equal(t, "fr", out["lang"])
	assert.Equal(t, []any{"Français"}, out["tax"].(map[string]any)["language"])
}

func TestTranslateRecord_ErrorNamesField(t *testing.T) {
	boom := &tlguard.ProviderError{Message: "down"}
	failing := tlguard.TranslateFunc(func(ctx context.Context, text string) (string, error) {
		return "", boom
	})
	m := NewMapper(tlguard.NewTranslator("en", failing, processor.Register()...), Options{})

	_, err := m.TranslateRecord(context.Background(), Record{"meta": map[string]any{"_yoast_wpseo_title": "Titre"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta._yoast_wpseo_title")
	var perr *tlguard.ProviderError
	assert.ErrorAs(t, err, &perr)
}
