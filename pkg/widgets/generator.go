// Package widgets drives extraction over a configured widget library.
package widgets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gnana997/propdoc/pkg/catalog"
	"github.com/gnana997/propdoc/pkg/naming"
	"github.com/gnana997/propdoc/pkg/project"
	"github.com/gnana997/propdoc/pkg/props"
	"github.com/gnana997/propdoc/pkg/util"
)

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Project   *project.Project
	Extractor *props.Extractor

	// Workers bounds the number of files processed at once. Zero derives
	// it from the CPU count.
	Workers int

	// Name labels the generated catalog.
	Name string

	Logger *slog.Logger
}

// Generator builds catalogs from widget configs.
type Generator struct {
	project   *project.Project
	extractor *props.Extractor
	workers   int
	name      string
	logger    *slog.Logger
}

// Stats summarizes a generation run.
type Stats struct {
	Widgets    int
	Files      int
	Resolved   int
	NotFound   int
	Skipped    int
	Properties int
	Duration   time.Duration
}

// NewGenerator creates a Generator.
func NewGenerator(config GeneratorConfig) *Generator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extractor := config.Extractor
	if extractor == nil {
		extractor = props.NewExtractor(logger)
	}
	return &Generator{
		project:   config.Project,
		extractor: extractor,
		workers:   util.GetOptimalPoolSizeWithOverride(config.Workers),
		name:      config.Name,
		logger:    logger,
	}
}

// sourceGroup is the set of widgets implemented in one file.
type sourceGroup struct {
	path    string
	indexes []int
}

// Generate extracts every widget in cfg. Each source file is opened once;
// files are processed concurrently and entries are placed by config index,
// so the catalog follows config order.
//
// Per-widget failures are recorded in the catalog and never fail the run.
// The only error is ctx's.
func (g *Generator) Generate(ctx context.Context, cfg *Config) (*catalog.Catalog, *Stats, error) {
	start := time.Now()

	groups := groupBySource(cfg)
	entries := make([]catalog.WidgetEntry, len(cfg.Widgets))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for _, group := range groups {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			g.processSource(cfg, group, entries)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("generation aborted: %w", err)
	}
	// gctx is always done once Wait returns; only the caller's ctx matters
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("generation aborted: %w", err)
	}

	cat := &catalog.Catalog{Name: g.name, Widgets: make([]catalog.Widget, len(cfg.Widgets))}
	stats := &Stats{Widgets: len(cfg.Widgets), Files: len(groups)}
	for i, w := range cfg.Widgets {
		cat.Widgets[i] = catalog.Widget{Name: w.Name, Entry: entries[i]}
		switch entries[i].Status() {
		case props.StatusResolved:
			stats.Resolved++
		case props.StatusNotFound:
			stats.NotFound++
		case props.StatusSkipped:
			stats.Skipped++
		}
		stats.Properties += entries[i].PropertyCount()
	}
	stats.Duration = time.Since(start)

	g.logger.Debug("generation finished",
		"widgets", stats.Widgets,
		"files", stats.Files,
		"duration", stats.Duration)
	return cat, stats, nil
}

func (g *Generator) processSource(cfg *Config, group sourceGroup, entries []catalog.WidgetEntry) {
	logger := g.logger.With("path", group.path)

	view, err := g.project.SourceFile(group.path)
	if err != nil {
		for _, i := range group.indexes {
			logger.Warn("could not load widget source", "widget", cfg.Widgets[i].Name, "error", err)
			reason := err.Error()
			entries[i] = catalog.WidgetEntry{Properties: props.NotFound(reason), Children: props.NotFound(reason)}
		}
		return
	}
	defer view.Close()

	export, ok := view.DefaultExport()
	classLike := ok && export.ClassLike

	for _, i := range group.indexes {
		name := cfg.Widgets[i].Name
		if !classLike {
			logger.Debug("default export is not class-like, skipping", "widget", name, "export_kind", export.Kind)
			entries[i] = catalog.WidgetEntry{Properties: props.Skipped(), Children: props.Skipped()}
			continue
		}
		entries[i] = catalog.WidgetEntry{
			Properties: g.extractor.ExtractWidget(view, name, naming.KindProperties),
			Children:   g.extractor.ExtractWidget(view, name, naming.KindChildren),
		}
	}
}

// groupBySource groups widget indexes by configured source path, in
// first-use order.
func groupBySource(cfg *Config) []sourceGroup {
	byPath := make(map[string]int)
	var groups []sourceGroup
	for i, w := range cfg.Widgets {
		gi, ok := byPath[w.Path]
		if !ok {
			gi = len(groups)
			byPath[w.Path] = gi
			groups = append(groups, sourceGroup{path: w.Path})
		}
		groups[gi].indexes = append(groups[gi].indexes, i)
	}
	return groups
}
