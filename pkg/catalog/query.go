package catalog

import (
	"strings"

	"github.com/gnana997/propdoc/pkg/props"
)

// PropertyMatch is a widget whose properties or children matched a search.
type PropertyMatch struct {
	Widget *Widget

	// Matches lists the matching names, prefixed "properties." or
	// "children.".
	Matches []string
}

// QueryService provides read-only query methods over a loaded catalog.
type QueryService struct {
	Catalog *Catalog
	Index   *CatalogIndex
}

// NewQueryService creates a QueryService from a validated catalog and its index.
func NewQueryService(cat *Catalog, idx *CatalogIndex) *QueryService {
	return &QueryService{Catalog: cat, Index: idx}
}

// LoadAndQuery loads a catalog from file and returns a ready-to-use QueryService.
func LoadAndQuery(path string) (*QueryService, error) {
	cat, idx, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx), nil
}

// LoadAndQueryBytes loads a catalog from raw JSON bytes and returns a ready-to-use QueryService.
func LoadAndQueryBytes(data []byte) (*QueryService, error) {
	cat, idx, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx), nil
}

// Widget looks up a widget by exact name, then case-insensitively.
func (q *QueryService) Widget(name string) (*Widget, bool) {
	if w, ok := q.Index.WidgetByName[name]; ok {
		return w, true
	}
	w, ok := q.Index.WidgetByFoldedName[strings.ToLower(name)]
	return w, ok
}

// WidgetsByNames returns the widgets matching names, in request order, and
// the names that matched nothing. Duplicates are removed.
func (q *QueryService) WidgetsByNames(names []string) ([]*Widget, []string) {
	seen := make(map[string]bool, len(names))
	found := make([]*Widget, 0, len(names))
	var missing []string

	for _, name := range names {
		w, ok := q.Widget(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if seen[w.Name] {
			continue
		}
		seen[w.Name] = true
		found = append(found, w)
	}
	return found, missing
}

// List returns widgets in catalog order. A nil status returns all of them.
func (q *QueryService) List(status *props.Status) []*Widget {
	result := make([]*Widget, 0, len(q.Catalog.Widgets))
	for i := range q.Catalog.Widgets {
		w := &q.Catalog.Widgets[i]
		if status != nil && w.Entry.Status() != *status {
			continue
		}
		result = append(result, w)
	}
	return result
}

// SearchProperty finds widgets with a property or child whose name contains
// query, case-insensitively. An exact name is answered from the index.
func (q *QueryService) SearchProperty(query string) []PropertyMatch {
	if query == "" {
		return nil
	}

	if widgets, ok := q.Index.WidgetsByProperty[query]; ok {
		results := make([]PropertyMatch, 0, len(widgets))
		for _, w := range widgets {
			results = append(results, PropertyMatch{Widget: w, Matches: matchNames(w, func(name string) bool { return name == query })})
		}
		return results
	}

	lowered := strings.ToLower(query)
	contains := func(name string) bool {
		return strings.Contains(strings.ToLower(name), lowered)
	}

	var results []PropertyMatch
	for i := range q.Catalog.Widgets {
		w := &q.Catalog.Widgets[i]
		if matches := matchNames(w, contains); len(matches) > 0 {
			results = append(results, PropertyMatch{Widget: w, Matches: matches})
		}
	}
	return results
}

func matchNames(w *Widget, match func(string) bool) []string {
	var out []string
	for _, p := range w.Entry.Properties.Properties {
		if match(p.Name) {
			out = append(out, "properties."+p.Name)
		}
	}
	for _, p := range w.Entry.Children.Properties {
		if match(p.Name) {
			out = append(out, "children."+p.Name)
		}
	}
	return out
}

// Stats counts widgets per status.
func (q *QueryService) Stats() map[string]int {
	counts := map[string]int{}
	for _, w := range q.Catalog.Widgets {
		counts[w.Entry.Status().String()]++
	}
	return counts
}
