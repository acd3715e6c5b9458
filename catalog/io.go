package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
)

// ErrNotArray is returned when the input is valid JSON but not an array
// of objects.
var ErrNotArray = errors.Base("input must be a JSON array of objects")

// DecodeRecords reads a JSON array of objects. Numbers are kept as
// json.Number so identifiers round-trip exactly.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Errorf("decoding records: %w", err)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.WithStack(ErrNotArray)
	}

	records := make([]Record, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Errorf("record %d: %w", i, ErrNotArray)
		}
		records[i] = Record(obj)
	}
	return records, nil
}

// LoadRecords reads the records stored at path.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, errors.Errorf("opening input: %w", err)
	}
	defer f.Close()

	return DecodeRecords(f)
}

// EncodeRecords writes records as indented UTF-8 JSON. Markup is not
// escaped, so "<b>" stays "<b>".
func EncodeRecords(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return errors.Errorf("encoding records: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Errorf("writing records: %w", err)
	}
	return nil
}

// WriteRecords writes records to path, replacing it.
func WriteRecords(path string, records []Record) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return errors.Errorf("creating output: %w", err)
	}
	if err := EncodeRecords(f, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing output: %w", err)
	}
	return nil
}
