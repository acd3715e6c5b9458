package tlguard

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// LoadGlossaryFile reads a glossary from path. ".json" files hold an
// object of source to target, ".yaml"/".yml" files a mapping, and any other
// file "source=target" lines with '#' comments and blank lines ignored.
//
// Malformed lines and entries with an empty side are skipped. If the file
// itself cannot be read or decoded, the entries gathered so far are
// returned together with a *GlossaryError, which callers should report as
// a warning.
func LoadGlossaryFile(path string) (Glossary, error) {
	g := Glossary{}
	if path == "" {
		return g, nil
	}

	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return g, &GlossaryError{Path: path, Cause: err}
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeGlossaryJSON(path, f)
	case ".yaml", ".yml":
		return decodeGlossaryYAML(path, f)
	default:
		return ParseGlossaryLines(path, f)
	}
}

func decodeGlossaryJSON(path string, r io.Reader) (Glossary, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Glossary{}, &GlossaryError{Path: path, Cause: errors.Errorf("decoding JSON object: %w", err)}
	}
	return glossaryFromMap(raw), nil
}

func decodeGlossaryYAML(path string, r io.Reader) (Glossary, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Glossary{}, nil
		}
		return Glossary{}, &GlossaryError{Path: path, Cause: errors.Errorf("decoding YAML mapping: %w", err)}
	}
	return glossaryFromMap(raw), nil
}

func glossaryFromMap(raw map[string]any) Glossary {
	g := make(Glossary, len(raw))
	for k, v := range raw {
		if k == "" || v == nil {
			continue
		}
		target := fmt.Sprint(v)
		if target == "" {
			continue
		}
		g[k] = target
	}
	return g
}

// ParseGlossaryLines reads "source=target" lines. name is only used in
// error messages.
func ParseGlossaryLines(name string, r io.Reader) (Glossary, error) {
	g := Glossary{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if source, target, ok := parsePair(line); ok {
			g.set(source, target)
		}
	}
	if err := scanner.Err(); err != nil {
		return g, &GlossaryError{Path: name, Cause: err}
	}
	return g, nil
}

// ParseGlossaryPairs turns command-line "source=target" pairs into a
// glossary. Pairs without '=' or with an empty side are skipped.
func ParseGlossaryPairs(pairs []string) Glossary {
	g := Glossary{}
	for _, pair := range pairs {
		if source, target, ok := parsePair(pair); ok {
			g.set(source, target)
		}
	}
	return g
}

func parsePair(s string) (string, string, bool) {
	source, target, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", false
	}
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	if source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}

// MergeGlossaries combines glossaries in order; later ones override
// earlier ones on keys equal under case folding.
func MergeGlossaries(gs ...Glossary) Glossary {
	merged := Glossary{}
	for _, g := range gs {
		for k, v := range g {
			merged.set(k, v)
		}
	}
	return merged
}

// set stores source, dropping any other key that differs from it only in
// case. Source terms match case-insensitively, so the newest one wins.
func (g Glossary) set(source, target string) {
	for k := range g {
		if k != source && strings.EqualFold(k, source) {
			delete(g, k)
		}
	}
	g[source] = target
}
