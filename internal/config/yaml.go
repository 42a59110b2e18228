package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// isYAMLPath reports whether the config file should be parsed as YAML based
// on its extension. Everything else is treated as JSON.
func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// toStrictJSON returns config bytes ready for the strict JSON decoder.
// JSON input passes through untouched; YAML input is unmarshaled, key-
// normalized and re-marshaled as JSON so DisallowUnknownFields applies to
// both formats.
func toStrictJSON(path string, data []byte) ([]byte, error) {
	if !isYAMLPath(path) {
		return data, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	out, err := json.Marshal(stringifyKeys(doc))
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return out, nil
}

// stringifyKeys rewrites every map in the YAML document to use string keys,
// which json.Marshal requires.
func stringifyKeys(in any) any {
	switch v := in.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = stringifyKeys(e)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = stringifyKeys(e)
		}
		return out
	case []any:
		for i := range v {
			v[i] = stringifyKeys(v[i])
		}
		return v
	}
	return in
}
