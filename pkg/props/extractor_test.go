package props

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propdoc/pkg/naming"
	"github.com/gnana997/propdoc/pkg/parser"
	"github.com/gnana997/propdoc/pkg/parser/queries"
	"github.com/gnana997/propdoc/pkg/typeview"
	"github.com/gnana997/propdoc/pkg/util"
)

func loadView(t *testing.T, source string) *typeview.FileView {
	t.Helper()
	logger := util.DiscardLogger()
	pm := parser.NewParserManager(parser.ManagerConfig{Logger: logger})
	qm := queries.NewQueryManager(logger)
	loader := typeview.NewLoader(typeview.LoaderConfig{Parsers: pm, Queries: qm, Logger: logger})

	v, err := loader.Load("widget.tsx", []byte(source))
	require.NoError(t, err)
	t.Cleanup(func() {
		v.Close()
		qm.Close()
		pm.Close()
	})
	return v
}

func names(props []PropertyDescriptor) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.Name)
	}
	return out
}

func TestExtract_RequiredBeforeOptional(t *testing.T) {
	v := loadView(t, `export interface FooProperties { b?: number; a: string }`)

	list := NewExtractor(util.DiscardLogger()).Extract(v, "FooProperties")

	require.Equal(t, StatusResolved, list.Status)
	assert.Equal(t, []PropertyDescriptor{
		{Name: "a", Type: "string", Optional: false},
		{Name: "b", Type: "number", Optional: true},
	}, list.Properties)
}

func TestExtract_Descriptors(t *testing.T) {
	v := loadView(t, `
export interface TextInputProperties {
  /** Current value. */
  /** Ignored second block. */
  value: string;
  /**
   * Placeholder text.
   * @default ""
   */
  placeholder?: string;
  onChange?(value: string): void;
  onChange?(value: number): void;
  [key: string]: unknown;
  (): void;
  new (): TextInputProperties;
}

export default class TextInput {}
`)

	list := NewExtractor(util.DiscardLogger()).ExtractWidget(v, "text-input", naming.KindProperties)
	require.Equal(t, StatusResolved, list.Status)

	assert.Equal(t, []PropertyDescriptor{
		{Name: "value", Type: "string", Description: "Current value."},
		{Name: "onChange", Type: "(value: string) => void", Optional: true},
		{Name: "placeholder", Type: "string", Optional: true, Description: "Placeholder text."},
	}, list.Properties)
}

func TestExtract_UnionVariantsMergeTypes(t *testing.T) {
	v := loadView(t, `
export type FooProperties = { foo: string } | { foo: number };
`)

	list := NewExtractor(util.DiscardLogger()).Extract(v, "FooProperties")
	require.Equal(t, StatusResolved, list.Status)
	require.Len(t, list.Properties, 1)

	tokens := SplitUnion(list.Properties[0].Type)
	assert.ElementsMatch(t, []string{"string", "number"}, tokens)
	assert.Equal(t, "number | string", list.Properties[0].Type)
}

func TestExtract_UnionVariantsAppendNewNames(t *testing.T) {
	v := loadView(t, `
interface Link { kind: 'link'; href: string }
type ButtonLike = { kind: 'button'; onPress?: () => void } | { kind: 'submit'; form: string };

export type ActionProperties = Link | ButtonLike;
`)

	list := NewExtractor(util.DiscardLogger()).Extract(v, "ActionProperties")
	require.Equal(t, StatusResolved, list.Status)

	assert.Equal(t, []string{"form", "href", "kind", "onPress"}, names(list.Properties))
	kind, ok := list.Lookup("kind")
	require.True(t, ok)
	assert.Equal(t, "'submit' | 'button' | 'link'", kind.Type)
	assert.True(t, IsSorted(list.Properties))
}

func TestExtract_IntersectionWithUnionPart(t *testing.T) {
	v := loadView(t, `
export type MixedProperties = { base: string } & ({ a: string } | { b: number });
`)

	list := NewExtractor(util.DiscardLogger()).Extract(v, "MixedProperties")
	require.Equal(t, StatusResolved, list.Status)
	assert.Equal(t, []PropertyDescriptor{
		{Name: "a", Type: "string"},
		{Name: "b", Type: "number"},
		{Name: "base", Type: "string"},
	}, list.Properties)
}

func TestExtract_InterfaceBeforeAlias(t *testing.T) {
	v := loadView(t, `
export interface CardChildren { header: Node }
export type CardProperties = { title: string };
`)
	e := NewExtractor(util.DiscardLogger())

	children := e.ExtractWidget(v, "card", naming.KindChildren)
	assert.Equal(t, []string{"header"}, names(children.Properties))

	properties := e.ExtractWidget(v, "card", naming.KindProperties)
	assert.Equal(t, []string{"title"}, names(properties.Properties))
}

func TestExtract_EmptyInterfaceIsResolved(t *testing.T) {
	v := loadView(t, `export interface EmptyProperties {}`)

	list := NewExtractor(util.DiscardLogger()).Extract(v, "EmptyProperties")
	assert.Equal(t, StatusResolved, list.Status)
	assert.NotNil(t, list.Properties)
	assert.Empty(t, list.Properties)
}

func TestExtract_NotFoundLogsWarning(t *testing.T) {
	v := loadView(t, `export interface OtherProperties { a: string }`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	list := NewExtractor(logger).ExtractWidget(v, "date-picker", naming.KindProperties)

	assert.Equal(t, StatusNotFound, list.Status)
	assert.Empty(t, list.Properties)
	assert.Contains(t, list.Reason, "DatePickerProperties")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "date-picker", entry["widget"])
	assert.Equal(t, "DatePickerProperties", entry["interface"])
}

func TestExtract_MissingChildrenLogsAtDebug(t *testing.T) {
	v := loadView(t, `export interface ButtonProperties { label: string }`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := NewExtractor(logger)

	children := e.ExtractWidget(v, "button", naming.KindChildren)
	assert.Equal(t, StatusNotFound, children.Status)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "ButtonChildren", entry["interface"])

	buf.Reset()
	warnOnly := NewExtractor(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	warnOnly.ExtractWidget(v, "button", naming.KindChildren)
	assert.Empty(t, buf.String())
}

func TestExtract_NamesAreUnique(t *testing.T) {
	v := loadView(t, `
interface Base { id: string; label: string }
export interface WProperties extends Base { label: string; id?: number }
export interface WProperties { label: number }
`)

	list := NewExtractor(util.DiscardLogger()).Extract(v, "WProperties")
	seen := map[string]bool{}
	for _, p := range list.Properties {
		assert.False(t, seen[p.Name], "duplicate %s", p.Name)
		seen[p.Name] = true
	}
	assert.Len(t, seen, 2)
}

// fakeView serves canned members for any type.
type fakeView struct {
	members []typeview.Member
}

func (f fakeView) Interface(name string) (typeview.Decl, bool) {
	return typeview.Decl{Name: name}, strings.HasSuffix(name, "Properties")
}
func (f fakeView) TypeAlias(string) (typeview.Decl, bool) { return typeview.Decl{}, false }
func (f fakeView) Members(typeview.Type) []typeview.Member { return f.members }
func (f fakeView) UnionVariants(typeview.Type) []typeview.Type { return nil }
func (f fakeView) DefaultExport() (typeview.Export, bool) { return typeview.Export{}, false }

func TestDescribe_FiltersByMemberKind(t *testing.T) {
	view := fakeView{members: []typeview.Member{
		{Kind: typeview.IndexSignature, TypeText: "[k: string]: any"},
		{Kind: typeview.PropertySignature, Name: "z", TypeText: "string", Docs: []string{"", "second"}},
		{Kind: typeview.CallSignature, TypeText: "() => void"},
		{Kind: typeview.MethodSignature, Name: "a", TypeText: "() => void", Optional: true},
	}}

	got := Describe(view, typeview.Type{})
	assert.Equal(t, []PropertyDescriptor{
		{Name: "z", Type: "string"},
		{Name: "a", Type: "() => void", Optional: true},
	}, got)

	list := NewExtractor(util.DiscardLogger()).Extract(view, "XProperties")
	assert.Equal(t, []string{"z", "a"}, names(list.Properties))
}
