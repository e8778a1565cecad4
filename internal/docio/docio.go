// Package docio reads and writes raw jurisdiction documents. A raw document
// is a map[string]any built from JSON, JSONC (JSON with comments and trailing
// commas, as hand-authored files tend to be), or YAML; callers run the
// adapter or the strict schema decode against that map, never against the
// bytes directly.
package docio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format identifies the on-disk encoding of a document.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatJSONC
	FormatYAML
)

// DetectFormat maps a file extension to its Format.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".jsonc":
		return FormatJSONC
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Decode parses data in the given format into a raw document.
func Decode(data []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatJSON:
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	case FormatJSONC:
		var doc map[string]any
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, err
		}
		return doc, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		doc, ok := normalizeYAML(v).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("document root is not a mapping")
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unsupported document format")
	}
}

// ReadFile reads one document, detecting the format from the extension.
func ReadFile(path string) (map[string]any, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%s: unsupported document extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile writes a document as indented JSON. go-json sorts map keys, so
// output is deterministic for identical documents.
func WriteFile(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ListDocuments returns the document files directly under dir, sorted by
// name. Sorting fixes the load order the registry's first-match-wins
// semantics depend on.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if DetectFormat(e.Name()) == FormatUnknown {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// normalizeYAML rewrites yaml.v3's decoded trees so nested maps always use
// string keys, matching what the JSON decoders produce.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
