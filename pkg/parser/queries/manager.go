// Package queries provides tree-sitter query compilation, caching, and execution.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propdoc/pkg/parser"
	"github.com/gnana997/propdoc/pkg/parser/queries/declarations"
	"github.com/gnana997/propdoc/pkg/parser/queries/exports"
)

// QueryType identifies which query to execute.
type QueryType int

const (
	// QueryTypeDeclarations finds interfaces, type aliases and classes
	QueryTypeDeclarations QueryType = iota
	// QueryTypeDefaultExport finds the module's default export
	QueryTypeDefaultExport
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeDeclarations:
		return "declarations"
	case QueryTypeDefaultExport:
		return "default-export"
	default:
		return "unknown"
	}
}

// queryKey identifies a compiled query. Queries are bound to node IDs of one
// grammar, so TS and TSX compile separately.
type queryKey struct {
	lang  parser.Language
	qtype QueryType
}

// QueryManager compiles queries lazily and caches them per grammar.
//
// Usage:
//
//	qm := NewQueryManager(logger)
//	defer qm.Close()
//
//	matches, err := qm.Run(tree, parser.LanguageTSX, QueryTypeDeclarations, source)
//
// Safe for concurrent use. Compiled queries are read-only once cached and
// each execution uses its own cursor.
type QueryManager struct {
	cache  map[queryKey]*ts.Query
	mutex  sync.RWMutex
	logger *slog.Logger
}

// NewQueryManager creates a new query manager. Logger can be nil.
func NewQueryManager(logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryManager{
		cache:  make(map[queryKey]*ts.Query),
		logger: logger,
	}
}

// GetQuery returns the compiled query for lang and qtype.
func (qm *QueryManager) GetQuery(lang parser.Language, qtype QueryType) (*ts.Query, error) {
	key := queryKey{lang: lang, qtype: qtype}

	qm.mutex.RLock()
	query, ok := qm.cache[key]
	qm.mutex.RUnlock()
	if ok {
		return query, nil
	}

	qm.mutex.Lock()
	defer qm.mutex.Unlock()
	if query, ok = qm.cache[key]; ok {
		return query, nil
	}

	source, err := queryString(lang, qtype)
	if err != nil {
		return nil, err
	}
	grammar, err := parser.Grammar(lang)
	if err != nil {
		return nil, err
	}

	query, qerr := ts.NewQuery(grammar, source)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, lang, qerr.Message)
	}
	qm.cache[key] = query

	qm.logger.Debug("compiled query", "language", lang.String(), "type", qtype.String())
	return query, nil
}

func queryString(lang parser.Language, qtype QueryType) (string, error) {
	switch qtype {
	case QueryTypeDeclarations:
		switch lang {
		case parser.LanguageTypeScript, parser.LanguageTSX:
			return declarations.TSQueries, nil
		case parser.LanguageJavaScript:
			return declarations.JSQueries, nil
		}
		return "", fmt.Errorf("unsupported language for declaration queries: %s", lang)
	case QueryTypeDefaultExport:
		if lang == parser.LanguageUnknown {
			return "", fmt.Errorf("unsupported language for export queries: %s", lang)
		}
		return exports.Queries, nil
	default:
		return "", fmt.Errorf("unknown query type: %d", qtype)
	}
}

// Run compiles (or reuses) the query and executes it over tree.
func (qm *QueryManager) Run(tree *ts.Tree, lang parser.Language, qtype QueryType, source []byte) ([]QueryMatch, error) {
	query, err := qm.GetQuery(lang, qtype)
	if err != nil {
		return nil, err
	}
	return qm.ExecuteQuery(tree, query, source)
}

// ExecuteQuery runs a compiled query on a parse tree. Captured nodes are
// only valid while tree is open.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	iter := cursor.Matches(query, tree.RootNode(), source)

	var matches []QueryMatch
	for match := iter.Next(); match != nil; match = iter.Next() {
		captures := make([]QueryCapture, 0, len(match.Captures))
		for _, capture := range match.Captures {
			var name string
			if int(capture.Index) < len(names) {
				name = names[capture.Index]
			}
			category, field := parseCaptureName(name)
			node := capture.Node
			captures = append(captures, QueryCapture{
				Name:     name,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     node.Utf8Text(source),
				Location: nodeLocation(&node),
			})
		}
		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}
	return matches, nil
}

// Close releases all compiled queries.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	for key, query := range qm.cache {
		query.Close()
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch represents a single pattern match.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Capture returns the first capture with the given field, or nil.
func (m QueryMatch) Capture(field string) *QueryCapture {
	for i := range m.Captures {
		if m.Captures[i].Field == field {
			return &m.Captures[i]
		}
	}
	return nil
}

// QueryCapture represents a single captured node.
type QueryCapture struct {
	// Name is the full capture name, e.g. "interface.name"
	Name string

	// Category is the part before the dot, e.g. "interface"
	Category string

	// Field is the part after the dot, e.g. "name". Empty without a dot.
	Field string

	Node     *ts.Node
	Text     string
	Location Location
}

// Location represents a position in source code.
type Location struct {
	StartLine   uint32 // 1-based
	StartColumn uint32 // 1-based
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32 // 0-based
	EndByte     uint32
}

// parseCaptureName splits "interface.name" into ("interface", "name").
func parseCaptureName(name string) (category, field string) {
	if before, after, ok := strings.Cut(name, "."); ok {
		return before, after
	}
	return name, ""
}

func nodeLocation(node *ts.Node) Location {
	start := node.StartPosition()
	end := node.EndPosition()
	return Location{
		StartLine:   uint32(start.Row + 1),
		StartColumn: uint32(start.Column + 1),
		EndLine:     uint32(end.Row + 1),
		EndColumn:   uint32(end.Column + 1),
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}
