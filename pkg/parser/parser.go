// Package parser owns the tree-sitter grammars and a pool of parsers per
// grammar.
package parser

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/propdoc/pkg/util"
)

// ManagerConfig controls ParserManager behavior.
type ManagerConfig struct {
	// PoolSize caps parsers per grammar. Zero derives it from the CPU count,
	// which matches the generator's worker count so workers never queue on
	// parsers.
	PoolSize int

	// Logger is used for pool lifecycle and parse diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// ParserManager hands out pooled parsers per grammar.
//
// Pools are created lazily on first use. Callers own returned trees and must
// close them; the manager itself must be closed to free the parsers.
//
// Safe for concurrent use.
type ParserManager struct {
	pools    map[Language]*parserPool
	mutex    sync.RWMutex
	poolSize int
	logger   *slog.Logger

	parses int
}

// NewParserManager creates a ParserManager.
func NewParserManager(config ManagerConfig) *ParserManager {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[Language]*parserPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(config.PoolSize),
		logger:   logger,
	}
}

// Grammar returns the tree-sitter language for lang.
func Grammar(lang Language) (*ts.Language, error) {
	switch lang {
	case LanguageTypeScript:
		return ts.NewLanguage(ts_typescript.LanguageTypescript()), nil
	case LanguageTSX:
		return ts.NewLanguage(ts_typescript.LanguageTSX()), nil
	case LanguageJavaScript:
		return ts.NewLanguage(ts_javascript.Language()), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Parse parses source with the grammar for lang.
//
// Syntax errors do not fail the parse: tree-sitter returns a tree with
// ERROR nodes and the well-formed declarations around them stay usable.
func (pm *ParserManager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pool, err := pm.pool(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	p, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	pm.mutex.Lock()
	pm.parses++
	pm.mutex.Unlock()

	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %s source", lang)
	}
	return tree, nil
}

// ParseFile parses source using the grammar detected from filePath.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	tree, err := pm.Parse(source, lang)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "path", filePath, "language", lang.String())
	}
	return tree, nil
}

func (pm *ParserManager) pool(lang Language) (*parserPool, error) {
	pm.mutex.RLock()
	pool, ok := pm.pools[lang]
	pm.mutex.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pool, ok = pm.pools[lang]; ok {
		return pool, nil
	}

	grammar, err := Grammar(lang)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(lang, grammar, pm.poolSize, pm.logger)
	pm.pools[lang] = pool

	pm.logger.Debug("created parser pool", "language", lang.String(), "max_size", pm.poolSize)
	return pool, nil
}

// Stats returns parser usage counters.
func (pm *ParserManager) Stats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	stats := ParserStats{ParsesCalled: pm.parses}
	for _, pool := range pm.pools {
		stats.ParsersCreated += pool.createdCount()
	}
	return stats
}

// ParserStats contains parser usage counters.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}

// Close releases every pooled parser. The manager cannot be used afterwards.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	for _, pool := range pm.pools {
		pool.close()
	}
	pm.pools = make(map[Language]*parserPool)

	pm.logger.Debug("parser manager closed", "parses", pm.parses)
	return nil
}
