package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propdoc/pkg/util"
)

const sampleTS = `
/** Properties of the button. */
export interface ButtonProperties {
  label: string;
  disabled?: boolean;
}

export default class Button {}
`

const sampleTSX = `
export interface CardProperties { title: string }
export default class Card {
  render() { return <div className="card">{this.title}</div>; }
}
`

const sampleJS = `
export default class Legacy extends Base {
  render() { return null; }
}
`

func newTestManager(t *testing.T) *ParserManager {
	t.Helper()
	manager := NewParserManager(ManagerConfig{Logger: util.DiscardLogger()})
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestParseTypeScript(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte(sampleTS), LanguageTypeScript)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
	assert.Contains(t, root.ToSexp(), "interface_declaration")
}

func TestParseTSX(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte(sampleTSX), LanguageTSX)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.False(t, root.HasError())
	assert.Contains(t, root.ToSexp(), "jsx_element")
}

func TestParseJavaScript(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte(sampleJS), LanguageJavaScript)
	require.NoError(t, err)
	defer tree.Close()

	assert.Contains(t, tree.RootNode().ToSexp(), "class_declaration")
}

func TestParseFile(t *testing.T) {
	manager := newTestManager(t)

	testCases := []struct {
		fileName string
		source   string
	}{
		{"button.ts", sampleTS},
		{"card.tsx", sampleTSX},
		{"legacy.js", sampleJS},
		{"legacy.jsx", sampleJS},
	}

	for _, tc := range testCases {
		t.Run(tc.fileName, func(t *testing.T) {
			tree, err := manager.ParseFile([]byte(tc.source), tc.fileName)
			require.NoError(t, err)
			defer tree.Close()
			assert.Equal(t, "program", tree.RootNode().Kind())
		})
	}

	_, err := manager.ParseFile([]byte("x"), "README.md")
	assert.Error(t, err)
}

func TestLazyInitialization(t *testing.T) {
	manager := newTestManager(t)

	assert.Equal(t, 0, manager.Stats().ParsersCreated)

	source := []byte("const x: number = 1;")
	for i := 0; i < 2; i++ {
		tree, err := manager.Parse(source, LanguageTypeScript)
		require.NoError(t, err)
		tree.Close()
	}

	stats := manager.Stats()
	assert.Equal(t, 1, stats.ParsersCreated, "sequential parses reuse the pooled parser")
	assert.Equal(t, 2, stats.ParsesCalled)

	tree, err := manager.Parse([]byte("const y = 2;"), LanguageJavaScript)
	require.NoError(t, err)
	tree.Close()

	stats = manager.Stats()
	assert.Equal(t, 2, stats.ParsersCreated)
	assert.Equal(t, 3, stats.ParsesCalled)
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte("some random text"), LanguageUnknown)
	assert.Error(t, err)
	assert.Nil(t, tree)
}

func TestParseInvalidSyntax(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte("interface Broken { a: ; "), LanguageTypeScript)
	require.NoError(t, err, "syntax errors still produce a tree")
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestCloseClearsPools(t *testing.T) {
	manager := NewParserManager(ManagerConfig{Logger: util.DiscardLogger()})

	for _, lang := range SupportedLanguages() {
		tree, err := manager.Parse([]byte("const x = 1;"), lang)
		require.NoError(t, err)
		tree.Close()
	}

	require.NoError(t, manager.Close())
	assert.Empty(t, manager.pools)
}

func TestDetectLanguage(t *testing.T) {
	testCases := []struct {
		filePath string
		expected Language
	}{
		{"file.ts", LanguageTypeScript},
		{"file.mts", LanguageTypeScript},
		{"file.tsx", LanguageTSX},
		{"FILE.TSX", LanguageTSX},
		{"file.js", LanguageJavaScript},
		{"file.jsx", LanguageJavaScript},
		{"file.mjs", LanguageJavaScript},
		{"file.cjs", LanguageJavaScript},
		{"file.d", LanguageUnknown},
		{"file.md", LanguageUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectLanguage(tc.filePath))
			assert.Equal(t, tc.expected != LanguageUnknown, IsSourceFile(tc.filePath))
		})
	}
}

func TestLanguageString(t *testing.T) {
	assert.Equal(t, "typescript", LanguageTypeScript.String())
	assert.Equal(t, "tsx", LanguageTSX.String())
	assert.Equal(t, "javascript", LanguageJavaScript.String())
	assert.Equal(t, "unknown", LanguageUnknown.String())

	assert.True(t, LanguageTSX.IsTypeScript())
	assert.False(t, LanguageJavaScript.IsTypeScript())
}
