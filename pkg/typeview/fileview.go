package typeview

import (
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propdoc/pkg/parser"
	"github.com/gnana997/propdoc/pkg/parser/queries"
)

// LoaderConfig holds the shared parsing infrastructure for views.
type LoaderConfig struct {
	Parsers *parser.ParserManager
	Queries *queries.QueryManager
	Logger  *slog.Logger
}

// Loader builds FileViews. It is safe for concurrent use; each view is
// independent.
type Loader struct {
	parsers *parser.ParserManager
	queries *queries.QueryManager
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(config LoaderConfig) *Loader {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		parsers: config.Parsers,
		queries: config.Queries,
		logger:  logger,
	}
}

// Load parses source and indexes its top-level declarations. The grammar is
// chosen from path's extension. The returned view must be closed.
func (l *Loader) Load(path string, source []byte) (*FileView, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported source file %q", path)
	}

	tree, err := l.parsers.Parse(source, lang)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	if tree.RootNode().HasError() {
		l.logger.Debug("source contains syntax errors", "path", path)
	}

	v := &FileView{
		path:       path,
		lang:       lang,
		source:     source,
		tree:       tree,
		interfaces: make(map[string][]*ts.Node),
		aliases:    make(map[string]*ts.Node),
		classes:    make(map[string]bool),
	}
	if err := v.index(l.queries); err != nil {
		tree.Close()
		return nil, err
	}
	if err := v.indexDefaultExport(l.queries); err != nil {
		tree.Close()
		return nil, err
	}
	return v, nil
}

// FileView is the tree-sitter backed View of one file. It owns the parse
// tree; Types and Members obtained from it are valid until Close.
type FileView struct {
	path   string
	lang   parser.Language
	source []byte
	tree   *ts.Tree

	interfaces map[string][]*ts.Node
	aliases    map[string]*ts.Node
	classes    map[string]bool

	defaultExport *Export
}

var _ View = (*FileView)(nil)

// Path returns the file the view was loaded from.
func (v *FileView) Path() string {
	return v.path
}

// Close releases the parse tree.
func (v *FileView) Close() {
	if v.tree != nil {
		v.tree.Close()
		v.tree = nil
	}
}

func (v *FileView) index(qm *queries.QueryManager) error {
	matches, err := qm.Run(v.tree, v.lang, queries.QueryTypeDeclarations, v.source)
	if err != nil {
		return fmt.Errorf("index declarations in %q: %w", v.path, err)
	}

	for _, match := range matches {
		name := match.Capture("name")
		def := match.Capture("definition")
		if name == nil || def == nil {
			continue
		}

		switch name.Category {
		case "interface":
			if isTopLevel(def.Node) {
				v.interfaces[name.Text] = append(v.interfaces[name.Text], def.Node)
			}
		case "alias":
			if _, seen := v.aliases[name.Text]; !seen && isTopLevel(def.Node) {
				v.aliases[name.Text] = def.Node
			}
		case "class":
			if isTopLevel(def.Node) {
				v.classes[name.Text] = true
			}
		case "variable":
			// variable_declarator sits inside a lexical or variable declaration
			if decl := def.Node.Parent(); decl != nil && isTopLevel(decl) {
				v.classes[name.Text] = true
			}
		}
	}
	return nil
}

func (v *FileView) indexDefaultExport(qm *queries.QueryManager) error {
	matches, err := qm.Run(v.tree, v.lang, queries.QueryTypeDefaultExport, v.source)
	if err != nil {
		return fmt.Errorf("index default export in %q: %w", v.path, err)
	}

	for _, match := range matches {
		var export *Export
		switch {
		case match.Capture("declaration") != nil:
			export = v.exportFromDeclaration(match)
		case match.Capture("value") != nil:
			export = v.exportFromValue(match)
		case match.Capture("alias") != nil:
			export = v.exportFromSpecifier(match)
		}
		if export != nil {
			v.defaultExport = export
			return nil
		}
	}
	return nil
}

func (v *FileView) exportFromDeclaration(match queries.QueryMatch) *Export {
	stmt := match.Capture("statement")
	if stmt == nil || !isProgram(stmt.Node.Parent()) {
		return nil
	}
	decl := match.Capture("declaration").Node
	export := &Export{Kind: decl.Kind()}
	if name := decl.ChildByFieldName("name"); name != nil {
		export.Name = name.Utf8Text(v.source)
	}
	switch decl.Kind() {
	case "class_declaration", "abstract_class_declaration", "class":
		export.ClassLike = true
	}
	return export
}

func (v *FileView) exportFromValue(match queries.QueryMatch) *Export {
	stmt := match.Capture("statement")
	if stmt == nil || !isProgram(stmt.Node.Parent()) {
		return nil
	}
	value := unwrapParens(match.Capture("value").Node)
	export := &Export{Kind: value.Kind()}
	if value.Kind() == "identifier" {
		export.Name = value.Utf8Text(v.source)
		export.ClassLike = v.classes[export.Name]
		return export
	}
	if name := value.ChildByFieldName("name"); name != nil {
		export.Name = name.Utf8Text(v.source)
	}
	export.ClassLike = value.Kind() == "class"
	return export
}

func (v *FileView) exportFromSpecifier(match queries.QueryMatch) *Export {
	alias := match.Capture("alias")
	if unquote(alias.Text) != "default" {
		return nil
	}
	// export_specifier -> export_clause -> export_statement
	specifier := match.Capture("definition").Node
	clause := specifier.Parent()
	if clause == nil {
		return nil
	}
	stmt := clause.Parent()
	if stmt == nil || stmt.Kind() != "export_statement" || !isProgram(stmt.Parent()) {
		return nil
	}
	if stmt.ChildByFieldName("source") != nil {
		// re-exported from another module; not resolvable here
		return &Export{Name: match.Capture("name").Text, Kind: "export_specifier"}
	}
	name := match.Capture("name").Text
	return &Export{Name: name, ClassLike: v.classes[name], Kind: "export_specifier"}
}

// DefaultExport implements View.
func (v *FileView) DefaultExport() (Export, bool) {
	if v.defaultExport == nil {
		return Export{}, false
	}
	return *v.defaultExport, true
}

// Interface implements View.
func (v *FileView) Interface(name string) (Decl, bool) {
	if _, ok := v.interfaces[name]; !ok {
		return Decl{}, false
	}
	return Decl{Name: name, Kind: DeclInterface, Type: Type{iface: name, text: name}}, true
}

// TypeAlias implements View.
func (v *FileView) TypeAlias(name string) (Decl, bool) {
	decl, ok := v.aliases[name]
	if !ok {
		return Decl{}, false
	}
	return Decl{Name: name, Kind: DeclTypeAlias, Type: v.aliasType(decl)}, true
}

func (v *FileView) aliasType(decl *ts.Node) Type {
	value := decl.ChildByFieldName("value")
	if value == nil {
		return Type{}
	}
	return v.nodeType(value)
}

func (v *FileView) nodeType(node *ts.Node) Type {
	return Type{node: node, text: typeText(node.Utf8Text(v.source))}
}

// isTopLevel reports whether a declaration sits directly in the program,
// possibly wrapped in an export statement.
func isTopLevel(node *ts.Node) bool {
	parent := node.Parent()
	if parent != nil && parent.Kind() == "export_statement" {
		parent = parent.Parent()
	}
	return isProgram(parent)
}

func isProgram(node *ts.Node) bool {
	return node != nil && node.Kind() == "program"
}

func unwrapParens(node *ts.Node) *ts.Node {
	for node.Kind() == "parenthesized_expression" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
	}
	return node
}
