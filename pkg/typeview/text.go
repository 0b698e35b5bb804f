package typeview

import (
	"strings"
)

// typeText collapses whitespace runs and drops the leading "|" of a
// multi-line union.
func typeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if strings.HasPrefix(s, "|") {
		s = strings.TrimSpace(s[1:])
	}
	return s
}

func isJSDoc(comment string) bool {
	return strings.HasPrefix(comment, "/**") && comment != "/**/"
}

// parseJSDoc returns the description of a /** */ block: the text before the
// first block tag, with "*" gutters removed. Lines are joined with "\n";
// leading and trailing blank lines are dropped.
func parseJSDoc(comment string) string {
	comment = strings.TrimPrefix(comment, "/**")
	comment = strings.TrimSuffix(comment, "*/")

	var lines []string
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			break
		}
		lines = append(lines, line)
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// unquote strips matching quotes from a string-literal member name.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
