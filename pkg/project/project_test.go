package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propdoc/pkg/parser"
	"github.com/gnana997/propdoc/pkg/parser/queries"
	"github.com/gnana997/propdoc/pkg/typeview"
	"github.com/gnana997/propdoc/pkg/util"
)

func testParsers(t *testing.T) *parser.ParserManager {
	t.Helper()
	pm := parser.NewParserManager(parser.ManagerConfig{Logger: util.DiscardLogger()})
	t.Cleanup(func() { pm.Close() })
	return pm
}

func testOptions(t *testing.T, root string) Options {
	t.Helper()
	logger := util.DiscardLogger()
	pm := testParsers(t)
	qm := queries.NewQueryManager(logger)
	cache, err := util.NewSourceCache(util.SourceCacheConfig{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() {
		cache.Close()
		qm.Close()
	})
	return Options{
		Root:    root,
		Parsers: pm,
		Loader:  typeview.NewLoader(typeview.LoaderConfig{Parsers: pm, Queries: qm, Logger: logger}),
		Cache:   cache,
		Logger:  logger,
	}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestParseTSConfig(t *testing.T) {
	pm := testParsers(t)

	cfg, err := ParseTSConfig([]byte(`// project config
{
  /* compiler settings are ignored */
  "extends": "./base.json",
  "compilerOptions": { "strict": true, "target": "es2020", "lib": ["dom",], },
  "include": ["src", "types/**/*.d.ts",],
  "exclude": ["src/**/*.test.ts"], // trailing comment
  "files": ["extra/entry.ts"],
}
`), pm)
	require.NoError(t, err)

	assert.Equal(t, "./base.json", cfg.Extends)
	assert.Equal(t, []string{"src", "types/**/*.d.ts"}, cfg.Include)
	assert.Equal(t, []string{"src/**/*.test.ts"}, cfg.Exclude)
	assert.Equal(t, []string{"extra/entry.ts"}, cfg.Files)
}

func TestParseTSConfig_Defaults(t *testing.T) {
	pm := testParsers(t)

	cfg, err := ParseTSConfig([]byte(`{ "compilerOptions": {} }`), pm)
	require.NoError(t, err)
	assert.Equal(t, DefaultTSConfig(), cfg)

	cfg, err = ParseTSConfig([]byte(`{ "files": ["a.ts"] }`), pm)
	require.NoError(t, err)
	assert.Empty(t, cfg.Include, "files without include selects only the listed files")
	assert.Equal(t, defaultExclude(), cfg.Exclude)
}

func TestParseTSConfig_Errors(t *testing.T) {
	pm := testParsers(t)

	_, err := ParseTSConfig([]byte(`{ "include": [ }`), pm)
	assert.Error(t, err)

	_, err = ParseTSConfig([]byte(`["src"]`), pm)
	assert.Error(t, err)
}

func TestStringLiteral(t *testing.T) {
	assert.Equal(t, "a\tb", stringLiteral(`"a\tb"`))
	assert.Equal(t, "single", stringLiteral(`'single'`))
	assert.Equal(t, "bare", stringLiteral("bare"))
}

func TestNormalizePattern(t *testing.T) {
	tests := map[string]string{
		"src":              "src/**/*",
		"./lib/":           "lib/**/*",
		"**/*":             "**/*",
		"src/**/*.ts":      "src/**/*.ts",
		"types/index.d.ts": "types/index.d.ts",
		"node_modules/**":  "node_modules/**",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePattern(in), in)
	}
}

func TestOpen_WithoutTSConfig(t *testing.T) {
	root := t.TempDir()
	p, err := Open(testOptions(t, root))
	require.NoError(t, err)

	assert.Equal(t, "", p.TSConfigPath())
	assert.True(t, p.Contains("src/button.tsx"))
	assert.True(t, p.Contains(filepath.Join(root, "index.js")))
	assert.False(t, p.Contains("node_modules/lib/index.ts"))
	assert.False(t, p.Contains("packages/a/node_modules/lib/index.ts"))
	assert.False(t, p.Contains("README.md"))
	assert.False(t, p.Contains("../elsewhere/a.ts"))
}

func TestOpen_WithTSConfig(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"tsconfig.json": `{
  "include": ["src"],
  "exclude": ["src/**/*.test.ts"],
  "files": ["extra/entry.ts"],
}`,
	})

	p, err := Open(testOptions(t, root))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "tsconfig.json"), p.TSConfigPath())
	assert.True(t, p.Contains("src/widgets/button.tsx"))
	assert.False(t, p.Contains("src/widgets/button.test.ts"))
	assert.False(t, p.Contains("lib/other.ts"))
	assert.True(t, p.Contains("extra/entry.ts"))
}

func TestOpen_Errors(t *testing.T) {
	root := t.TempDir()

	opts := testOptions(t, root)
	opts.TSConfig = "missing.json"
	_, err := Open(opts)
	assert.Error(t, err, "an explicit tsconfig must exist")

	opts = testOptions(t, filepath.Join(root, "nope"))
	_, err = Open(opts)
	assert.Error(t, err)

	_, err = Open(Options{Root: root})
	assert.Error(t, err)
}

func TestSourceFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"tsconfig.json":               `{ "include": ["src"] }`,
		"src/button.tsx":              "export interface ButtonProperties { label: string }\nexport default class Button {}\n",
		"scripts/build.ts":            "export default class Build {}\n",
		"src/components/dir.ts/.keep": "",
	})

	p, err := Open(testOptions(t, root))
	require.NoError(t, err)

	view, err := p.SourceFile("src/button.tsx")
	require.NoError(t, err)
	defer view.Close()

	_, ok := view.Interface("ButtonProperties")
	assert.True(t, ok)
	export, ok := view.DefaultExport()
	require.True(t, ok)
	assert.True(t, export.ClassLike)

	for _, name := range []string{"src/missing.tsx", "scripts/build.ts", "src/components/dir.ts"} {
		_, err := p.SourceFile(name)
		assert.True(t, errors.Is(err, ErrSourceNotFound), "%s: %v", name, err)
	}
}

func TestSourceFile_SeesEdits(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.ts": "export interface AProperties { one: string }\n",
	})
	p, err := Open(testOptions(t, root))
	require.NoError(t, err)

	view, err := p.SourceFile("a.ts")
	require.NoError(t, err)
	decl, _ := view.Interface("AProperties")
	assert.Len(t, view.Members(decl.Type), 1)
	view.Close()

	writeFiles(t, root, map[string]string{
		"a.ts": "export interface AProperties { one: string; two?: number }\n",
	})
	p.Invalidate("a.ts")

	view, err = p.SourceFile("a.ts")
	require.NoError(t, err)
	defer view.Close()
	decl, _ = view.Interface("AProperties")
	assert.Len(t, view.Members(decl.Type), 2)
}
