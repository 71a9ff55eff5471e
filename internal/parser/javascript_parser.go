package parser

import (
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptParser implements CommentSource for JavaScript (including JSX)
type JavaScriptParser struct{}

// NewJavaScriptParser creates a new JavaScript parser
func NewJavaScriptParser() *JavaScriptParser {
	return &JavaScriptParser{}
}

// Language returns the language name
func (p *JavaScriptParser) Language() string {
	return string(LanguageJavaScript)
}

// ExtractComments extracts line and block comments from JavaScript source code
func (p *JavaScriptParser) ExtractComments(filePath string, code []byte) ([]Comment, error) {
	return parseComments(LanguageJavaScript, javascript.GetLanguage(), filePath, code)
}
