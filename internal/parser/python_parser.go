package parser

import (
	"github.com/smacker/go-tree-sitter/python"
)

// PythonParser implements CommentSource for Python. Only "#" comments are
// reported; docstrings are string literals, not comments.
type PythonParser struct{}

// NewPythonParser creates a new Python parser
func NewPythonParser() *PythonParser {
	return &PythonParser{}
}

// Language returns the language name
func (p *PythonParser) Language() string {
	return string(LanguagePython)
}

// ExtractComments extracts "#" comments from Python source code
func (p *PythonParser) ExtractComments(filePath string, code []byte) ([]Comment, error) {
	return parseComments(LanguagePython, python.GetLanguage(), filePath, code)
}
