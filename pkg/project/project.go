// Package project decides which files belong to a widget library and opens
// type views over them.
package project

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/propdoc/pkg/parser"
	"github.com/gnana997/propdoc/pkg/typeview"
	"github.com/gnana997/propdoc/pkg/util"
)

// ErrSourceNotFound is returned by SourceFile when a path does not exist or
// lies outside the project.
var ErrSourceNotFound = errors.New("source file not found")

// Options configures Open.
type Options struct {
	// Root is the project directory. Empty means the working directory.
	Root string

	// TSConfig is the tsconfig path, relative to Root unless absolute.
	// Empty means Root/tsconfig.json when that file exists.
	TSConfig string

	Parsers *parser.ParserManager
	Loader  *typeview.Loader
	Cache   *util.SourceCache
	Logger  *slog.Logger
}

// Project is an opened widget library.
type Project struct {
	root     string
	tsconfig string
	config   TSConfig
	files    map[string]bool

	loader *typeview.Loader
	cache  *util.SourceCache
	logger *slog.Logger
}

// Open resolves the root and reads the project's tsconfig.
func Open(opts Options) (*Project, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Loader == nil || opts.Cache == nil || opts.Parsers == nil {
		return nil, fmt.Errorf("open project: parsers, loader and cache are required")
	}

	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("open project: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open project: %s is not a directory", root)
	}

	p := &Project{
		root:   root,
		config: DefaultTSConfig(),
		loader: opts.Loader,
		cache:  opts.Cache,
		logger: logger,
	}

	tsconfig := opts.TSConfig
	explicit := tsconfig != ""
	if !explicit {
		tsconfig = "tsconfig.json"
	}
	tsconfig = p.Resolve(tsconfig)

	if _, err := os.Stat(tsconfig); err == nil {
		cfg, err := ReadTSConfig(tsconfig, opts.Parsers)
		if err != nil {
			return nil, fmt.Errorf("open project: %w", err)
		}
		p.config = cfg
		p.tsconfig = tsconfig
		if cfg.Extends != "" {
			logger.Debug("tsconfig extends is not followed", "extends", cfg.Extends)
		}
	} else if explicit {
		return nil, fmt.Errorf("open project: tsconfig: %w", err)
	}

	// tsconfig paths are relative to the tsconfig's directory
	base := root
	if p.tsconfig != "" {
		base = filepath.Dir(p.tsconfig)
	}
	p.files = make(map[string]bool, len(p.config.Files))
	for _, f := range p.config.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(base, f)
		}
		p.files[filepath.Clean(f)] = true
	}

	logger.Debug("opened project",
		"root", root,
		"tsconfig", p.tsconfig,
		"files", len(p.config.Files),
		"include", p.config.Include,
		"exclude", p.config.Exclude)
	return p, nil
}

// Root returns the absolute project directory.
func (p *Project) Root() string {
	return p.root
}

// TSConfigPath returns the tsconfig that was read, or "".
func (p *Project) TSConfigPath() string {
	return p.tsconfig
}

// Config returns the effective file selection.
func (p *Project) Config() TSConfig {
	return p.config
}

// Resolve makes name absolute, interpreting relative paths against Root.
func (p *Project) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(p.root, name)
}

// Contains reports whether path is a source file selected by the project's
// files, include and exclude settings. Files listed explicitly are always
// selected.
func (p *Project) Contains(name string) bool {
	abs := p.Resolve(name)
	if !parser.IsSourceFile(abs) {
		return false
	}
	if p.files[abs] {
		return true
	}

	rel, ok := p.relative(abs)
	if !ok {
		return false
	}
	if !matchAny(p.config.Include, rel) {
		return false
	}
	return !matchAny(p.config.Exclude, rel)
}

func (p *Project) relative(abs string) (string, bool) {
	base := p.root
	if p.tsconfig != "" {
		base = filepath.Dir(p.tsconfig)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(normalizePattern(pattern), rel)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// normalizePattern expands a directory pattern ("src", "./lib/") to the
// files beneath it, as tsc does for include and exclude entries whose last
// segment has neither a wildcard nor an extension.
func normalizePattern(pattern string) string {
	pattern = filepath.ToSlash(pattern)
	pattern = strings.TrimPrefix(pattern, "./")
	pattern = strings.TrimSuffix(pattern, "/")
	last := path.Base(pattern)
	if !strings.ContainsAny(last, "*?") && path.Ext(last) == "" {
		return pattern + "/**/*"
	}
	return pattern
}

// SourceFile opens a type view over name. The caller must close it.
// Missing files and files outside the project yield an error wrapping
// ErrSourceNotFound.
func (p *Project) SourceFile(name string) (*typeview.FileView, error) {
	abs := p.Resolve(name)

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
		}
		return nil, fmt.Errorf("stat source %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, name)
	}
	if !p.Contains(abs) {
		return nil, fmt.Errorf("%w: %s is not part of the project", ErrSourceNotFound, name)
	}

	data, err := p.cache.Read(abs)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", name, err)
	}
	view, err := p.loader.Load(abs, data)
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", name, err)
	}
	return view, nil
}

// Invalidate drops any cached contents of name.
func (p *Project) Invalidate(name string) {
	p.cache.Invalidate(p.Resolve(name))
}
