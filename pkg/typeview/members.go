package typeview

import (
	"maps"
	"slices"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Members implements View.
func (v *FileView) Members(t Type) []Member {
	return v.members(t, map[string]bool{})
}

// seen guards against cycles through named references
// (type A = B; type B = A, or interfaces extending each other).
func (v *FileView) members(t Type, seen map[string]bool) []Member {
	if t.iface != "" {
		return v.interfaceMembers(t.iface, seen)
	}
	if len(t.parts) > 0 {
		var out []Member
		for _, part := range t.parts {
			out = appendNew(out, v.members(part, seen))
		}
		return out
	}
	if t.node == nil {
		return nil
	}

	node := t.node
	switch node.Kind() {
	case "object_type", "interface_body":
		return v.bodyMembers(node)

	case "parenthesized_type":
		if inner := firstNamed(node); inner != nil {
			return v.members(v.nodeType(inner), seen)
		}

	case "intersection_type":
		var out []Member
		for _, part := range namedChildren(node) {
			out = appendNew(out, v.members(v.nodeType(part), seen))
		}
		return out

	case "union_type":
		return v.commonMembers(v.unionVariants(t, map[string]bool{}), seen)

	case "type_identifier", "generic_type":
		name := referenceName(node, v.source)
		if name == "" || seen[name] {
			return nil
		}
		if _, ok := v.interfaces[name]; ok {
			return v.interfaceMembers(name, seen)
		}
		if decl, ok := v.aliases[name]; ok {
			seen[name] = true
			defer delete(seen, name)
			return v.members(v.aliasType(decl), seen)
		}
	}
	return nil
}

// interfaceMembers collects members of every declaration of name, then the
// members inherited through extends clauses. Own members shadow inherited
// ones.
func (v *FileView) interfaceMembers(name string, seen map[string]bool) []Member {
	if seen[name] {
		return nil
	}
	seen[name] = true
	defer delete(seen, name)

	decls := v.interfaces[name]
	var out []Member
	for _, decl := range decls {
		if body := decl.ChildByFieldName("body"); body != nil {
			out = appendNew(out, v.bodyMembers(body))
		}
	}
	for _, decl := range decls {
		for _, base := range extendedTypes(decl) {
			out = appendNew(out, v.members(v.nodeType(base), seen))
		}
	}
	return out
}

// commonMembers returns the members present in every variant, taken from
// the first variant.
func (v *FileView) commonMembers(variants []Type, seen map[string]bool) []Member {
	if len(variants) == 0 {
		return nil
	}
	first := v.members(variants[0], seen)
	for _, variant := range variants[1:] {
		names := map[string]bool{}
		for _, m := range v.members(variant, seen) {
			if m.IsSignature() {
				names[m.Name] = true
			}
		}
		kept := first[:0:0]
		for _, m := range first {
			if m.IsSignature() && names[m.Name] {
				kept = append(kept, m)
			}
		}
		first = kept
	}
	return first
}

// UnionVariants implements View.
func (v *FileView) UnionVariants(t Type) []Type {
	return v.unionVariants(t, map[string]bool{})
}

// unionVariants returns nil when t is not a union. An intersection with a
// union part distributes over it: A & (B | C) has the variants A & B and
// A & C.
func (v *FileView) unionVariants(t Type, seen map[string]bool) []Type {
	node := v.resolveAlias(t, seen)
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "union_type":
		var out []Type
		for _, part := range namedChildren(node) {
			pt := v.nodeType(part)
			if inner := v.unionVariants(pt, seen); len(inner) > 0 {
				out = append(out, inner...)
				continue
			}
			out = append(out, pt)
		}
		return out
	case "intersection_type":
		return v.distribute(node, seen)
	}
	return nil
}

// distribute expands an intersection over the unions among its parts. It
// returns nil when no part is a union.
func (v *FileView) distribute(node *ts.Node, seen map[string]bool) []Type {
	combos := [][]Type{nil}
	hasUnion := false
	for _, part := range namedChildren(node) {
		pt := v.nodeType(part)
		options := v.unionVariants(pt, maps.Clone(seen))
		if len(options) == 0 {
			options = []Type{pt}
		} else {
			hasUnion = true
		}

		next := make([][]Type, 0, len(combos)*len(options))
		for _, combo := range combos {
			for _, option := range options {
				next = append(next, append(slices.Clip(combo), option))
			}
		}
		combos = next
	}
	if !hasUnion {
		return nil
	}

	out := make([]Type, 0, len(combos))
	for _, combo := range combos {
		out = append(out, intersectionOf(combo))
	}
	return out
}

// intersectionOf builds a synthetic intersection, flattening nested ones.
func intersectionOf(types []Type) Type {
	var parts []Type
	for _, t := range types {
		if len(t.parts) > 0 {
			parts = append(parts, t.parts...)
		} else {
			parts = append(parts, t)
		}
	}
	texts := make([]string, len(parts))
	for i, part := range parts {
		texts[i] = part.text
	}
	return Type{parts: parts, text: strings.Join(texts, " & ")}
}

// resolveAlias follows parentheses and alias references from t and returns
// the type node it denotes. Interfaces and synthetic types yield nil.
func (v *FileView) resolveAlias(t Type, seen map[string]bool) *ts.Node {
	node := t.node
	for node != nil {
		switch node.Kind() {
		case "parenthesized_type":
			node = firstNamed(node)
		case "type_identifier":
			name := node.Utf8Text(v.source)
			decl, ok := v.aliases[name]
			if !ok || seen[name] {
				return nil
			}
			seen[name] = true
			node = decl.ChildByFieldName("value")
		default:
			return node
		}
	}
	return nil
}

// bodyMembers reads the members of an interface body or object type literal.
func (v *FileView) bodyMembers(body *ts.Node) []Member {
	var out []Member
	var docs []string
	for _, child := range namedChildren(body) {
		if child.Kind() == "comment" {
			text := child.Utf8Text(v.source)
			if isJSDoc(text) {
				docs = append(docs, parseJSDoc(text))
			}
			continue
		}
		m, ok := v.member(child)
		if !ok {
			docs = nil
			continue
		}
		m.Docs = docs
		docs = nil
		out = append(out, m)
	}
	return out
}

func (v *FileView) member(node *ts.Node) (Member, bool) {
	switch node.Kind() {
	case "property_signature":
		m := Member{
			Kind:     PropertySignature,
			Name:     v.memberName(node),
			Optional: hasOptionalMarker(node),
			TypeText: "any",
		}
		if ann := node.ChildByFieldName("type"); ann != nil {
			if t := firstNamed(ann); t != nil {
				m.TypeText = typeText(t.Utf8Text(v.source))
			}
		}
		return m, true

	case "method_signature":
		return Member{
			Kind:     MethodSignature,
			Name:     v.memberName(node),
			Optional: hasOptionalMarker(node),
			TypeText: v.signatureText(node),
		}, true

	case "index_signature":
		return Member{Kind: IndexSignature, TypeText: typeText(node.Utf8Text(v.source))}, true
	case "call_signature":
		return Member{Kind: CallSignature, TypeText: v.signatureText(node)}, true
	case "construct_signature":
		return Member{Kind: ConstructSignature, TypeText: "new " + v.signatureText(node)}, true
	}
	return Member{}, false
}

func (v *FileView) memberName(node *ts.Node) string {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return unquote(name.Utf8Text(v.source))
}

// signatureText renders a method or call signature as a function type.
func (v *FileView) signatureText(node *ts.Node) string {
	var b strings.Builder
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(tp.Utf8Text(v.source))
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		b.WriteString(params.Utf8Text(v.source))
	} else {
		b.WriteString("()")
	}
	b.WriteString(" => ")
	ret := "any"
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		if t := firstNamed(rt); t != nil {
			ret = t.Utf8Text(v.source)
		}
	}
	b.WriteString(ret)
	return typeText(b.String())
}

func hasOptionalMarker(node *ts.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == "?" {
			return true
		}
	}
	return false
}

// extendedTypes returns the type nodes listed in an interface's extends
// clause.
func extendedTypes(decl *ts.Node) []*ts.Node {
	var out []*ts.Node
	for _, child := range namedChildren(decl) {
		if child.Kind() != "extends_type_clause" {
			continue
		}
		for _, base := range namedChildren(child) {
			if base.Kind() != "comment" {
				out = append(out, base)
			}
		}
	}
	return out
}

// referenceName returns the local name a type reference points at, or ""
// for qualified names (imports are not followed).
func referenceName(node *ts.Node, source []byte) string {
	switch node.Kind() {
	case "type_identifier":
		return node.Utf8Text(source)
	case "generic_type":
		if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "type_identifier" {
			return name.Utf8Text(source)
		}
	}
	return ""
}

// appendNew appends members whose names are not yet present. Unnamed
// signatures are always appended.
func appendNew(dst, src []Member) []Member {
	for _, m := range src {
		if m.Name != "" && containsMember(dst, m.Name) {
			continue
		}
		dst = append(dst, m)
	}
	return dst
}

func containsMember(ms []Member, name string) bool {
	for _, m := range ms {
		if m.Name == name {
			return true
		}
	}
	return false
}

func namedChildren(node *ts.Node) []*ts.Node {
	count := node.NamedChildCount()
	out := make([]*ts.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func firstNamed(node *ts.Node) *ts.Node {
	if node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}
