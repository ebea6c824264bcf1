package metrics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PatternFile is the YAML layout of a pattern override file:
//
//	patterns:
//	  pregnancy_rate: '(prenhez|pr3nhez)\D+(\d{1,3}[,.]?\d*)\s*%'
type PatternFile struct {
	Patterns map[string]string `yaml:"patterns"`
}

// LoadPatterns reads pattern overrides from a YAML file.
func LoadPatterns(path string) (map[Key]string, error) {
	const op = "LoadPatterns"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, path, err)
	}
	return ParsePatterns(data)
}

// ParsePatterns decodes pattern overrides. Only extracted keys may be
// overridden.
func ParsePatterns(data []byte) (map[Key]string, error) {
	const op = "ParsePatterns"

	var file PatternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: invalid YAML: %w", op, err)
	}

	out := make(map[Key]string, len(file.Patterns))
	for name, pattern := range file.Patterns {
		k, err := ParseKey(name)
		if err != nil || k.Derived() {
			return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownKey, name)
		}
		out[k] = pattern
	}
	return out, nil
}

// NewParserFromFile builds a parser from the defaults and the overrides in
// path. An empty path yields the default parser.
func NewParserFromFile(path string) (*Parser, error) {
	if path == "" {
		return DefaultParser(), nil
	}
	overrides, err := LoadPatterns(path)
	if err != nil {
		return nil, err
	}
	return NewParser(overrides)
}
