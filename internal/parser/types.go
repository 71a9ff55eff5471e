package parser

import (
	"errors"
	"fmt"
)

// CommentKind distinguishes line comments from block comments.
type CommentKind string

const (
	CommentLine  CommentKind = "line"  // "// ..." or "# ..."
	CommentBlock CommentKind = "block" // "/* ... */"
)

// Comment is a single comment as reported by a CommentSource.
type Comment struct {
	Text        string      // Body without the opening/closing delimiters
	StartLine   int         // Line of the opening delimiter (1-indexed)
	StartColumn int         // Column of the opening delimiter (0-indexed)
	Kind        CommentKind // Line or block comment
}

// CommentSource turns source text into the ordered list of its comments.
type CommentSource interface {
	// ExtractComments parses source code and returns its comments in source order
	ExtractComments(filePath string, code []byte) ([]Comment, error)

	// Language returns the language name
	Language() string
}

// Language represents supported programming languages
type Language string

const (
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageTSX        Language = "tsx"
)

var (
	// ErrSyntax is reported when the source text cannot be parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedLanguage is reported for languages without a CommentSource.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// SyntaxError locates the first syntax error found in a file.
type SyntaxError struct {
	Path     string
	Language Language
	Line     int // 1-indexed
	Column   int // 1-indexed
	Err      error
}

func (e *SyntaxError) Error() string {
	where := e.Path
	if where == "" {
		where = "<input>"
	}
	msg := fmt.Sprintf("failed to parse %s code: %s:%d:%d: syntax error", e.Language, where, e.Line, e.Column)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Is reports every SyntaxError as ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
