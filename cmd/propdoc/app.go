package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gnana997/propdoc/pkg/catalog"
	"github.com/gnana997/propdoc/pkg/parser"
	"github.com/gnana997/propdoc/pkg/parser/queries"
	"github.com/gnana997/propdoc/pkg/project"
	"github.com/gnana997/propdoc/pkg/props"
	"github.com/gnana997/propdoc/pkg/typeview"
	"github.com/gnana997/propdoc/pkg/util"
	"github.com/gnana997/propdoc/pkg/widgets"
)

// newLogger builds the CLI logger on w (stderr in production).
func newLogger(cfg ProjectConfig, w io.Writer) *slog.Logger {
	level, _ := util.ParseLogLevel(cfg.LogLevel)
	format, _ := util.ParseLogFormat(cfg.LogFormat)
	return util.NewLogger(util.LoggerConfig{Level: level, Format: format, Output: w})
}

// engine owns the extraction pipeline for one project.
type engine struct {
	cfg    ProjectConfig
	logger *slog.Logger

	parsers *parser.ParserManager
	queries *queries.QueryManager
	cache   *util.SourceCache
	project *project.Project
	gen     *widgets.Generator
}

func newEngine(cfg ProjectConfig, logger *slog.Logger) (*engine, error) {
	poolSize := util.GetOptimalPoolSizeWithOverride(cfg.Workers)
	parsers := parser.NewParserManager(parser.ManagerConfig{PoolSize: poolSize, Logger: logger})
	qm := queries.NewQueryManager(logger)

	cache, err := util.NewSourceCache(util.SourceCacheConfig{Logger: logger})
	if err != nil {
		qm.Close()
		parsers.Close()
		return nil, err
	}

	proj, err := project.Open(project.Options{
		Root:     cfg.Root,
		TSConfig: cfg.TSConfig,
		Parsers:  parsers,
		Loader:   typeview.NewLoader(typeview.LoaderConfig{Parsers: parsers, Queries: qm, Logger: logger}),
		Cache:    cache,
		Logger:   logger,
	})
	if err != nil {
		cache.Close()
		qm.Close()
		parsers.Close()
		return nil, err
	}

	gen := widgets.NewGenerator(widgets.GeneratorConfig{
		Project:   proj,
		Extractor: props.NewExtractor(logger),
		Workers:   cfg.Workers,
		Name:      cfg.Name,
		Logger:    logger,
	})

	return &engine{
		cfg:     cfg,
		logger:  logger,
		parsers: parsers,
		queries: qm,
		cache:   cache,
		project: proj,
		gen:     gen,
	}, nil
}

// widgetsPath resolves the widget config against the project root.
func (e *engine) widgetsPath() string {
	return e.project.Resolve(e.cfg.Widgets)
}

// generate reads the widget config and extracts every widget.
func (e *engine) generate(ctx context.Context) (*catalog.Catalog, *widgets.Stats, error) {
	wcfg, err := widgets.LoadConfig(e.widgetsPath())
	if err != nil {
		return nil, nil, err
	}
	cat, stats, err := e.gen.Generate(ctx, wcfg)
	if err != nil {
		return nil, nil, err
	}
	if errs := cat.Validate(); len(errs) > 0 {
		for _, verr := range errs {
			e.logger.Error("generated catalog is inconsistent", "error", verr)
		}
		return nil, nil, fmt.Errorf("generated catalog failed validation (%d errors)", len(errs))
	}
	return cat, stats, nil
}

func (e *engine) logStats(stats *widgets.Stats) {
	e.logger.Info("catalog generated",
		"widgets", stats.Widgets,
		"files", stats.Files,
		"resolved", stats.Resolved,
		"not_found", stats.NotFound,
		"skipped", stats.Skipped,
		"properties", stats.Properties,
		"duration", stats.Duration)
}

// invalidate drops cached contents of changed files before a regeneration.
func (e *engine) invalidate(paths []string) {
	for _, p := range paths {
		e.project.Invalidate(p)
	}
}

func (e *engine) Close() {
	e.cache.Close()
	e.queries.Close()
	e.parsers.Close()
	e.logger.Debug("engine closed", "parses", e.parsers.Stats().ParsesCalled)
}
