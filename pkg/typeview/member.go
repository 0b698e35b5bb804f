package typeview

// MemberKind tags the syntactic form of a type member.
type MemberKind int

const (
	PropertySignature MemberKind = iota
	MethodSignature
	IndexSignature
	CallSignature
	ConstructSignature
)

var memberKindNames = [...]string{
	PropertySignature:  "property-signature",
	MethodSignature:    "method-signature",
	IndexSignature:     "index-signature",
	CallSignature:      "call-signature",
	ConstructSignature: "construct-signature",
}

func (k MemberKind) String() string {
	if int(k) < len(memberKindNames) {
		return memberKindNames[k]
	}
	return "unknown"
}

// IsSignature reports whether members of this kind carry a name, a type,
// an optional marker and documentation.
func (k MemberKind) IsSignature() bool {
	return k == PropertySignature || k == MethodSignature
}

// Member is one member of an object-like type.
type Member struct {
	Kind MemberKind

	// Name is empty for index, call and construct signatures.
	Name string

	// TypeText is the declared type with whitespace collapsed.
	TypeText string

	Optional bool

	// Docs holds the description of every JSDoc block attached to the
	// member, in source order.
	Docs []string
}

// IsSignature reports whether m is a property or method signature.
func (m Member) IsSignature() bool {
	return m.Kind.IsSignature()
}
