package parser

import (
	"path/filepath"
	"strings"
)

// Language identifies a tree-sitter grammar. TSX is a separate grammar from
// plain TypeScript: node kinds are shared but node IDs are not, so trees and
// queries of one cannot be used with the other.
type Language int

const (
	// LanguageUnknown represents an unsupported file
	LanguageUnknown Language = iota
	// LanguageTypeScript covers .ts, .mts and .cts
	LanguageTypeScript
	// LanguageTSX covers .tsx
	LanguageTSX
	// LanguageJavaScript covers .js, .jsx, .mjs and .cjs
	LanguageJavaScript
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageTSX:
		return "tsx"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// IsTypeScript reports whether the grammar understands type annotations.
func (l Language) IsTypeScript() bool {
	return l == LanguageTypeScript || l == LanguageTSX
}

// DetectLanguage detects the grammar from a file path.
// Returns LanguageUnknown if the extension is not recognized.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	case ".tsx":
		return LanguageTSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsSourceFile reports whether filePath has a widget source extension.
func IsSourceFile(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}

// SupportedLanguages returns every grammar the manager can load.
func SupportedLanguages() []Language {
	return []Language{LanguageTypeScript, LanguageTSX, LanguageJavaScript}
}
