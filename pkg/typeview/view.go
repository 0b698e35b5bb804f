// Package typeview answers the questions property extraction asks about a
// single source file: which interfaces and type aliases it declares, what
// members a type has, which variants a union has, and what the file exports
// by default.
//
// Resolution is limited to the file itself. Imported names are opaque.
package typeview

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// View is a read-only type-checking view over one source file.
type View interface {
	// Interface looks up a top-level interface. Declarations sharing the
	// name are merged.
	Interface(name string) (Decl, bool)

	// TypeAlias looks up a top-level type alias.
	TypeAlias(name string) (Decl, bool)

	// Members returns the members of t in declaration order.
	Members(t Type) []Member

	// UnionVariants returns the flattened variants of t, or nil when t is
	// not a union.
	UnionVariants(t Type) []Type

	// DefaultExport describes the file's default export.
	DefaultExport() (Export, bool)
}

// DeclKind distinguishes the declarations a View can look up.
type DeclKind int

const (
	DeclInterface DeclKind = iota
	DeclTypeAlias
)

func (k DeclKind) String() string {
	if k == DeclTypeAlias {
		return "type alias"
	}
	return "interface"
}

// Decl is a named type declaration.
type Decl struct {
	Name string
	Kind DeclKind
	Type Type
}

// Type is an opaque handle to a type inside the View that produced it.
type Type struct {
	// iface is set for a (possibly merged) interface
	iface string
	node  *ts.Node
	text  string

	// parts is set for an intersection produced by distributing a union
	parts []Type
}

// Text is the source rendering of the type, or the interface name.
func (t Type) Text() string {
	return t.text
}

// IsZero reports whether t refers to nothing.
func (t Type) IsZero() bool {
	return t.iface == "" && t.node == nil && len(t.parts) == 0
}

// Export describes a default export.
type Export struct {
	// Name of the exported class or binding. Empty for anonymous exports.
	Name string

	// ClassLike is true when the export is a class declaration, a class
	// expression, or a reference to a same-file class.
	ClassLike bool

	// Kind is the syntax node kind of the exported expression or declaration.
	Kind string
}
