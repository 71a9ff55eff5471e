package parser

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptParser implements CommentSource for TypeScript. The plain
// grammar rejects JSX, so .tsx files get their own parser.
type TypeScriptParser struct {
	jsx bool
}

// NewTypeScriptParser creates a parser for .ts sources
func NewTypeScriptParser() *TypeScriptParser {
	return &TypeScriptParser{}
}

// NewTSXParser creates a parser for .tsx sources
func NewTSXParser() *TypeScriptParser {
	return &TypeScriptParser{jsx: true}
}

// Language returns the language name
func (p *TypeScriptParser) Language() string {
	if p.jsx {
		return string(LanguageTSX)
	}
	return string(LanguageTypeScript)
}

// ExtractComments extracts line and block comments from TypeScript source code
func (p *TypeScriptParser) ExtractComments(filePath string, code []byte) ([]Comment, error) {
	if p.jsx {
		return parseComments(LanguageTSX, tsx.GetLanguage(), filePath, code)
	}
	return parseComments(LanguageTypeScript, typescript.GetLanguage(), filePath, code)
}
