package parser

import (
	"errors"
	goparser "go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// GoParser implements CommentSource for Go language
type GoParser struct{}

// NewGoParser creates a new Go parser
func NewGoParser() *GoParser {
	return &GoParser{}
}

// Language returns the language name
func (p *GoParser) Language() string {
	return string(LanguageGo)
}

// ExtractComments extracts line and block comments from Go source code
func (p *GoParser) ExtractComments(filePath string, code []byte) ([]Comment, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, filePath, code, goparser.ParseComments)
	if err != nil {
		synErr := &SyntaxError{Path: filePath, Language: LanguageGo, Line: 1, Column: 1, Err: err}
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			synErr.Line = list[0].Pos.Line
			synErr.Column = list[0].Pos.Column
			synErr.Err = errors.New(list[0].Msg)
		}
		return nil, synErr
	}

	comments := make([]Comment, 0)
	for _, group := range file.Comments {
		for _, c := range group.List {
			pos := fset.PositionFor(c.Slash, false)
			comment := Comment{
				StartLine:   pos.Line,
				StartColumn: pos.Column - 1,
			}
			if strings.HasPrefix(c.Text, "//") {
				comment.Kind = CommentLine
				comment.Text = strings.TrimSuffix(c.Text[2:], "\r")
			} else {
				comment.Kind = CommentBlock
				comment.Text = strings.TrimSuffix(strings.TrimPrefix(c.Text, "/*"), "*/")
			}
			comments = append(comments, comment)
		}
	}

	return comments, nil
}
