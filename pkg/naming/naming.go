// Package naming maps widget identifiers to the names of the interfaces that
// describe them.
package naming

import (
	"strings"
	"unicode/utf8"
)

// Kind selects which interface of a widget to name.
type Kind string

const (
	// KindProperties names the widget's configurable inputs.
	KindProperties Kind = "Properties"
	// KindChildren names the widget's nested-content shape.
	KindChildren Kind = "Children"
)

// Kinds returns every interface kind in extraction order.
func Kinds() []Kind {
	return []Kind{KindProperties, KindChildren}
}

// InterfaceKey is the name of an interface or type alias derived from a
// widget identifier. Build one with InterfaceName.
type InterfaceKey string

// String returns the key as a declaration name.
func (k InterfaceKey) String() string {
	return string(k)
}

// InterfaceName returns the conventional interface name for widget.
//
// Every "-" followed by an ASCII lowercase letter is replaced by the
// uppercased letter, the first character of the result is uppercased, and
// kind is appended. An empty kind means KindProperties.
//
//	InterfaceName("text-input", KindProperties) // "TextInputProperties"
//	InterfaceName("text-input", KindChildren)   // "TextInputChildren"
//
// Hyphens not followed by a lowercase letter are kept as is.
func InterfaceName(widget string, kind Kind) InterfaceKey {
	if kind == "" {
		kind = KindProperties
	}

	var b strings.Builder
	b.Grow(len(widget) + len(kind))
	for i := 0; i < len(widget); i++ {
		c := widget[i]
		if c == '-' && i+1 < len(widget) && isLower(widget[i+1]) {
			b.WriteByte(widget[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}

	return InterfaceKey(capitalize(b.String()) + string(kind))
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}
