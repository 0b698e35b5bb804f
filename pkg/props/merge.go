package props

import (
	"cmp"
	"slices"
	"strings"
)

// SplitUnion splits type text on top-level "|" and trims each token.
// Delimiters nested in parentheses, brackets, braces, angle brackets or
// string literals do not split, and neither does the return type of a
// function type. Empty tokens are dropped.
//
//	SplitUnion("'a' | (b | c)[]")             // ["'a'", "(b | c)[]"]
//	SplitUnion("(a: number) => void | string") // ["(a: number) => void | string"]
func SplitUnion(text string) []string {
	var tokens []string
	depth := 0
	var quote byte
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i > 0 && text[i-1] == '=' {
				// the return type of a top-level arrow extends to the end
				if depth == 0 {
					return appendToken(tokens, text[start:])
				}
				continue
			}
			depth--
		case '|':
			if depth == 0 {
				tokens = appendToken(tokens, text[start:i])
				start = i + 1
			}
		}
	}
	return appendToken(tokens, text[start:])
}

func appendToken(tokens []string, tok string) []string {
	if tok = strings.TrimSpace(tok); tok != "" {
		tokens = append(tokens, tok)
	}
	return tokens
}

// MergeTypeText folds the union tokens of variant into existing. Each token
// not already an exact token of the accumulated text is prepended as
// "<token> | ", so the most recently added token ends up first.
//
//	MergeTypeText("string", "number | boolean") // "boolean | number | string"
func MergeTypeText(existing, variant string) string {
	present := SplitUnion(existing)
	for _, tok := range SplitUnion(variant) {
		if slices.Contains(present, tok) {
			continue
		}
		if existing == "" {
			existing = tok
		} else {
			existing = tok + " | " + existing
		}
		present = append(present, tok)
	}
	return existing
}

// Sort orders props with required properties first, then by name. Names
// compare byte-wise. The sort is stable and idempotent.
func Sort(props []PropertyDescriptor) {
	slices.SortStableFunc(props, compare)
}

// IsSorted reports whether props is in Sort order.
func IsSorted(props []PropertyDescriptor) bool {
	return slices.IsSortedFunc(props, compare)
}

func compare(a, b PropertyDescriptor) int {
	if a.Optional != b.Optional {
		if a.Optional {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.Name, b.Name)
}
