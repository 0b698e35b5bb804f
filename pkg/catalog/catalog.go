package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/gnana997/propdoc/pkg/props"
)

// Catalog is the extracted property metadata of a widget library.
//
// Its JSON form is an object keyed by widget name, in widget order:
//
//	{
//	  "text-input": { "properties": [...], "children": [...] },
//	  "chart": { "properties": {}, "children": {} }
//	}
type Catalog struct {
	// Name labels the catalog (MCP server name, logs). Not serialized.
	Name    string
	Widgets []Widget
}

// CatalogIndex provides O(1) lookups into the catalog.
type CatalogIndex struct {
	// WidgetByName maps widget name -> *Widget.
	WidgetByName map[string]*Widget

	// WidgetByFoldedName maps the lowercased name -> *Widget.
	WidgetByFoldedName map[string]*Widget

	// WidgetsByProperty maps a property or child name -> widgets declaring it.
	WidgetsByProperty map[string][]*Widget
}

// Add appends a widget.
func (c *Catalog) Add(name string, entry WidgetEntry) {
	c.Widgets = append(c.Widgets, Widget{Name: name, Entry: entry})
}

// Names returns widget names in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Widgets))
	for i, w := range c.Widgets {
		names[i] = w.Name
	}
	return names
}

// Validate checks the catalog for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (c *Catalog) Validate() []error {
	var errs []error
	seen := make(map[string]bool, len(c.Widgets))

	for i, w := range c.Widgets {
		if w.Name == "" {
			errs = append(errs, fmt.Errorf("widgets[%d]: name is required", i))
			continue
		}
		if seen[w.Name] {
			errs = append(errs, fmt.Errorf("widget %q: duplicate widget name", w.Name))
			continue
		}
		seen[w.Name] = true

		errs = append(errs, validateList(w.Name, "properties", w.Entry.Properties)...)
		errs = append(errs, validateList(w.Name, "children", w.Entry.Children)...)
	}
	return errs
}

func validateList(widget, field string, list props.PropertyList) []error {
	if list.Status != props.StatusResolved {
		if len(list.Properties) > 0 {
			return []error{fmt.Errorf("widget %q %s: %s list carries properties", widget, field, list.Status)}
		}
		return nil
	}

	var errs []error
	names := make(map[string]bool, len(list.Properties))
	for j, p := range list.Properties {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("widget %q %s[%d]: name is required", widget, field, j))
			continue
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("widget %q %s: duplicate property %q", widget, field, p.Name))
		}
		names[p.Name] = true
	}
	if !props.IsSorted(list.Properties) {
		errs = append(errs, fmt.Errorf("widget %q %s: properties are not sorted", widget, field))
	}
	return errs
}

// BuildIndex creates lookup maps for fast access.
// Should be called after Validate() passes.
func (c *Catalog) BuildIndex() *CatalogIndex {
	idx := &CatalogIndex{
		WidgetByName:       make(map[string]*Widget, len(c.Widgets)),
		WidgetByFoldedName: make(map[string]*Widget, len(c.Widgets)),
		WidgetsByProperty:  make(map[string][]*Widget),
	}

	for i := range c.Widgets {
		w := &c.Widgets[i]
		idx.WidgetByName[w.Name] = w
		folded := strings.ToLower(w.Name)
		if _, exists := idx.WidgetByFoldedName[folded]; !exists {
			idx.WidgetByFoldedName[folded] = w
		}

		seen := map[string]bool{}
		for _, list := range []props.PropertyList{w.Entry.Properties, w.Entry.Children} {
			for _, p := range list.Properties {
				if seen[p.Name] {
					continue
				}
				seen[p.Name] = true
				idx.WidgetsByProperty[p.Name] = append(idx.WidgetsByProperty[p.Name], w)
			}
		}
	}
	return idx
}

// MarshalJSON implements json.Marshaler, preserving widget order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return c.entries().MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler, preserving the document's key
// order. A repeated widget name keeps its first position and the last entry.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	entries := orderedmap.New[string, WidgetEntry]()
	if err := entries.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	widgets := make([]Widget, 0, entries.Len())
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		widgets = append(widgets, Widget{Name: pair.Key, Entry: pair.Value})
	}
	c.Widgets = widgets
	return nil
}

func (c *Catalog) entries() *orderedmap.OrderedMap[string, WidgetEntry] {
	entries := orderedmap.New[string, WidgetEntry](len(c.Widgets))
	for _, w := range c.Widgets {
		entries.Set(w.Name, w.Entry)
	}
	return entries
}

// Encode writes the catalog as indented JSON.
func (c *Catalog) Encode(w io.Writer) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Save writes the catalog to path, creating parent directories. The file is
// replaced atomically so watchers never observe a partial catalog.
func (c *Catalog) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// LoadFromFile loads a catalog from a JSON file, validates it, and builds the index.
// The catalog is named after the file.
func LoadFromFile(path string) (*Catalog, *CatalogIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, idx, err := LoadFromBytes(data)
	if err != nil {
		return nil, nil, err
	}
	cat.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return cat, idx, nil
}

// LoadFromBytes parses a catalog from raw JSON bytes, validates it, and builds the index.
func LoadFromBytes(data []byte) (*Catalog, *CatalogIndex, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	if errs := catalog.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("catalog validation failed: %w", errors.Join(errs...))
	}

	index := catalog.BuildIndex()
	return &catalog, index, nil
}
