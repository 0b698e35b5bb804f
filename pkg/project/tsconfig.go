package project

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propdoc/pkg/parser"
)

// TSConfig holds the parts of a tsconfig.json that decide which files belong
// to the project.
type TSConfig struct {
	Files   []string
	Include []string
	Exclude []string

	// Extends is recorded but not followed.
	Extends string
}

// DefaultTSConfig is used when the project has no tsconfig.json.
func DefaultTSConfig() TSConfig {
	return TSConfig{
		Include: []string{"**/*"},
		Exclude: defaultExclude(),
	}
}

func defaultExclude() []string {
	return []string{"node_modules/**", "**/node_modules/**"}
}

// ReadTSConfig reads and parses a tsconfig file.
func ReadTSConfig(path string, pm *parser.ParserManager) (TSConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TSConfig{}, fmt.Errorf("read tsconfig: %w", err)
	}
	cfg, err := ParseTSConfig(data, pm)
	if err != nil {
		return TSConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseTSConfig parses tsconfig contents. tsconfig files are JSON with
// comments and trailing commas, which the JavaScript grammar accepts once the
// document is wrapped as a parenthesized expression.
func ParseTSConfig(data []byte, pm *parser.ParserManager) (TSConfig, error) {
	source := make([]byte, 0, len(data)+3)
	source = append(source, '(')
	source = append(source, data...)
	source = append(source, '\n', ')')

	tree, err := pm.Parse(source, parser.LanguageJavaScript)
	if err != nil {
		return TSConfig{}, fmt.Errorf("parse tsconfig: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return TSConfig{}, fmt.Errorf("parse tsconfig: syntax error")
	}
	obj := documentObject(root)
	if obj == nil {
		return TSConfig{}, fmt.Errorf("parse tsconfig: top-level value is not an object")
	}

	doc, ok := jsonValue(obj, source).(map[string]any)
	if !ok {
		return TSConfig{}, fmt.Errorf("parse tsconfig: top-level value is not an object")
	}

	cfg := TSConfig{
		Files:   stringList(doc["files"]),
		Include: stringList(doc["include"]),
		Exclude: stringList(doc["exclude"]),
	}
	if s, ok := doc["extends"].(string); ok {
		cfg.Extends = s
	}

	_, hasFiles := doc["files"]
	_, hasInclude := doc["include"]
	if !hasFiles && !hasInclude {
		cfg.Include = []string{"**/*"}
	}
	if _, ok := doc["exclude"]; !ok {
		cfg.Exclude = defaultExclude()
	}
	return cfg, nil
}

// documentObject finds the object inside "(" ... ")".
func documentObject(root *ts.Node) *ts.Node {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "expression_statement" {
			continue
		}
		expr := stmt.NamedChild(0)
		for expr != nil && expr.Kind() == "parenthesized_expression" {
			expr = firstNonComment(expr)
		}
		if expr != nil && expr.Kind() == "object" {
			return expr
		}
	}
	return nil
}

// jsonValue converts a JavaScript literal node into the value encoding/json
// would produce. Unsupported expressions become nil.
func jsonValue(node *ts.Node, source []byte) any {
	switch node.Kind() {
	case "object":
		out := map[string]any{}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			pair := node.NamedChild(i)
			if pair.Kind() != "pair" {
				continue
			}
			key := pair.ChildByFieldName("key")
			value := pair.ChildByFieldName("value")
			if key == nil || value == nil {
				continue
			}
			out[stringLiteral(key.Utf8Text(source))] = jsonValue(value, source)
		}
		return out
	case "array":
		out := []any{}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if elem := node.NamedChild(i); elem.Kind() != "comment" {
				out = append(out, jsonValue(elem, source))
			}
		}
		return out
	case "string":
		return stringLiteral(node.Utf8Text(source))
	case "number":
		f, err := strconv.ParseFloat(node.Utf8Text(source), 64)
		if err != nil {
			return nil
		}
		return f
	case "true":
		return true
	case "false":
		return false
	}
	return nil
}

func stringLiteral(text string) string {
	if strings.HasPrefix(text, `"`) {
		if s, err := strconv.Unquote(text); err == nil {
			return s
		}
	}
	if len(text) >= 2 && (text[0] == '\'' || text[0] == '"') {
		return text[1 : len(text)-1]
	}
	return text
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstNonComment(node *ts.Node) *ts.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() != "comment" {
			return child
		}
	}
	return nil
}
