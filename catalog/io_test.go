package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(`[{"id": 12345678901234567890, "name": "A"}, {}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, json.Number("12345678901234567890"), recs[0]["id"])
	assert.Empty(t, recs[1])
}

func TestDecodeRecords_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		notArray bool
	}{
		{"object", `{"id": 1}`, true},
		{"array of scalars", `[1, 2]`, true},
		{"malformed", `[{"id": }]`, false},
		{"empty input", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecords(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.notArray, errors.Is(err, ErrNotArray))
		})
	}
}

func TestEncodeRecords(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeRecords(&buf, []Record{{"content_short": "<b>Été</b> & co"}})
	require.NoError(t, err)

	assert.Equal(t, "[\n  {\n    \"content_short\": \"<b>Été</b> & co\"\n  }\n]\n", buf.String())
}

func TestEncodeRecords_Nil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeRecords(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := []Record{{"id": json.Number("7"), "name": "Ventilateur 🙂", "meta": map[string]any{"_sku": "X"}}}

	require.NoError(t, WriteRecords(path, in))
	got, err := LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestLoadRecords_Missing(t *testing.T) {
	_, err := LoadRecords(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
