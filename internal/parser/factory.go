package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Factory creates language-specific comment sources
type Factory struct {
	sources map[Language]CommentSource
}

// NewFactory creates a new factory with all supported languages
func NewFactory() *Factory {
	return &Factory{
		sources: map[Language]CommentSource{
			LanguageGo:         NewGoParser(),
			LanguagePython:     NewPythonParser(),
			LanguageJavaScript: NewJavaScriptParser(),
			LanguageTypeScript: NewTypeScriptParser(),
			LanguageTSX:        NewTSXParser(),
		},
	}
}

// GetSource returns the comment source for the given language
func (f *Factory) GetSource(lang Language) (CommentSource, error) {
	source, exists := f.sources[lang]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return source, nil
}

// GetSourceByFilePath returns a comment source based on file extension
func (f *Factory) GetSourceByFilePath(filePath string) (CommentSource, error) {
	lang := DetectLanguage(filePath)
	if lang == "" {
		return nil, fmt.Errorf("%w: unsupported file type: %s", ErrUnsupportedLanguage, filePath)
	}
	return f.GetSource(lang)
}

var extLanguages = map[string]Language{
	".go":  LanguageGo,
	".py":  LanguagePython,
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
	".ts":  LanguageTypeScript,
	".mts": LanguageTypeScript,
	".cts": LanguageTypeScript,
	".tsx": LanguageTSX,
}

// DetectLanguage detects the programming language based on file extension
func DetectLanguage(filePath string) Language {
	return extLanguages[strings.ToLower(filepath.Ext(filePath))]
}

// ParseLanguage maps a user-supplied language name to a Language.
// File extensions ("ts", ".tsx") are accepted as well.
func ParseLanguage(name string) (Language, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch Language(name) {
	case LanguageGo, LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageTSX:
		return Language(name), nil
	}
	if lang := DetectLanguage("x." + strings.TrimPrefix(name, ".")); lang != "" {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}

// SupportedExtensions returns all supported file extensions
func SupportedExtensions() []string {
	return []string{
		".go",
		".py",
		".js", ".jsx", ".mjs", ".cjs",
		".ts", ".mts", ".cts", ".tsx",
	}
}

// IsSupportedFile checks if a file is supported based on its extension
func IsSupportedFile(filePath string) bool {
	return DetectLanguage(filePath) != ""
}
