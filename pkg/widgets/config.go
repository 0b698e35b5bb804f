package widgets

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source maps a widget name to the file that implements it.
type Source struct {
	Name string
	Path string
}

// Config is the ordered widget mapping.
type Config struct {
	Widgets []Source
}

// LoadConfig reads a widget mapping from a JSON or YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read widget config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses a widget mapping such as
//
//	{ "text-input": "src/text-input.tsx", "chart": "src/chart.ts" }
//
// or its YAML equivalent. Key order is kept.
func ParseConfig(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Config{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse widget config: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("widget config must be a mapping of widget name to source path (line %d)", root.Line)
	}

	cfg := &Config{Widgets: make([]Source, 0, len(root.Content)/2)}
	seen := make(map[string]int, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, fmt.Errorf("line %d: widget name must be a non-empty string", key.Line)
		}
		if line, dup := seen[key.Value]; dup {
			return nil, fmt.Errorf("line %d: widget %q already defined on line %d", key.Line, key.Value, line)
		}
		if value.Kind != yaml.ScalarNode || value.Value == "" {
			return nil, fmt.Errorf("line %d: widget %q: source path must be a non-empty string", value.Line, key.Value)
		}
		seen[key.Value] = key.Line
		cfg.Widgets = append(cfg.Widgets, Source{Name: key.Value, Path: value.Value})
	}
	return cfg, nil
}

// Paths returns the distinct source paths in first-use order.
func (c *Config) Paths() []string {
	seen := make(map[string]bool, len(c.Widgets))
	var out []string
	for _, w := range c.Widgets {
		if !seen[w.Path] {
			seen[w.Path] = true
			out = append(out, w.Path)
		}
	}
	return out
}
