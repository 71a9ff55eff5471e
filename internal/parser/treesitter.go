package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseComments runs a tree-sitter grammar over code and collects every
// comment node in source order.
func parseComments(lang Language, grammar *sitter.Language, filePath string, code []byte) ([]Comment, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar)

	tree, err := p.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s code: %w", lang, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPoint(root)
		return nil, &SyntaxError{Path: filePath, Language: lang, Line: line, Column: col}
	}

	comments := make([]Comment, 0)
	collectComments(root, code, &comments)
	return comments, nil
}

func collectComments(node *sitter.Node, code []byte, comments *[]Comment) {
	if node.Type() == "comment" {
		if c, ok := newComment(node.Content(code), node.StartPoint()); ok {
			*comments = append(*comments, c)
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectComments(node.Child(i), code, comments)
	}
}

// newComment strips the delimiters from a raw comment token.
func newComment(raw string, start sitter.Point) (Comment, bool) {
	c := Comment{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column),
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		c.Kind = CommentLine
		c.Text = strings.TrimSuffix(raw[2:], "\r")
	case strings.HasPrefix(raw, "#"):
		c.Kind = CommentLine
		c.Text = strings.TrimSuffix(raw[1:], "\r")
	case strings.HasPrefix(raw, "/*"):
		c.Kind = CommentBlock
		c.Text = strings.TrimSuffix(raw[2:], "*/")
	default:
		return Comment{}, false
	}
	return c, true
}

// firstErrorPoint returns the 1-indexed position of the first ERROR or
// MISSING node below root.
func firstErrorPoint(root *sitter.Node) (int, int) {
	var walk func(n *sitter.Node) *sitter.Node
	walk = func(n *sitter.Node) *sitter.Node {
		if n.Type() == "ERROR" || n.IsMissing() {
			return n
		}
		if !n.HasError() {
			return nil
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if found := walk(n.Child(i)); found != nil {
				return found
			}
		}
		return nil
	}

	node := walk(root)
	if node == nil {
		node = root
	}
	p := node.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}
